// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
)

func TestT(t *testing.T) {
	t.Parallel()
	stdErr := stderrors.New("test error")
	tests := []struct {
		name string
		args []any
		want *Template
	}{
		{
			name: "all fields",
			args: []any{
				"test error msg",
				Op("alice.Bob"),
				InvalidParameter,
				stdErr,
				Search,
			},
			want: &Template{
				Err: Err{
					Code:    InvalidParameter,
					Msg:     "test error msg",
					Op:      "alice.Bob",
					Wrapped: stdErr,
				},
				Kind: Search,
			},
		},
		{
			name: "Kind only",
			args: []any{
				Search,
			},
			want: &Template{
				Kind: Search,
			},
		},
		{
			name: "multiple Kinds",
			args: []any{
				External,
				Search,
			},
			want: &Template{
				Kind: Search,
			},
		},
		{
			name: "ignore",
			args: []any{
				32,
			},
			want: &Template{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			got := T(tt.args...)
			assert.Equal(tt.want, got)
		})
	}
}

func TestTemplate_Info(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		template *Template
		want     Info
	}{
		{
			name:     "nil",
			template: nil,
			want:     errorCodeInfo[Unknown],
		},
		{
			name:     "Code",
			template: T(InvalidParameter),
			want:     errorCodeInfo[InvalidParameter],
		},
		{
			name:     "Code and Kind",
			template: T(InvalidParameter, Search),
			want:     errorCodeInfo[InvalidParameter],
		},
		{
			name:     "Kind without Code",
			template: T(Search),
			want:     Info{Kind: Search, Message: "Unknown"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(tt.want, tt.template.Info())
		})
	}
}

func TestTemplate_Error(t *testing.T) {
	t.Parallel()
	stdErr := stderrors.New("test error")
	tests := []struct {
		name     string
		template *Template
	}{
		{
			name:     "Kind only",
			template: T(Search),
		},
		{
			name: "all params",
			template: T(
				"test error msg",
				Op("alice.Bob"),
				InvalidParameter,
				stdErr,
				Search,
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			got := tt.template.Error()
			assert.Equal("Template error", got)
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()
	stdErr := stderrors.New("test error")
	errInvalidScope := E(context.TODO(), WithCode(InvalidScope), WithMsg("test invalid scope error"))
	errNoGrantMatch := E(context.TODO(), WithCode(NoGrantMatch), WithMsg("test no grant match error"))

	tests := []struct {
		name     string
		template *Template
		err      error
		want     bool
	}{
		{
			name:     "nil template",
			template: nil,
			err:      E(context.TODO(), WithCode(NoGrantMatch), WithMsg("no grant covers this location")),
			want:     false,
		},
		{
			name:     "nil err",
			template: T(Search),
			err:      nil,
			want:     false,
		},
		{
			name:     "match on Kind only",
			template: T(Search),
			err: E(context.TODO(),
				WithCode(NoGrantMatch),
				WithMsg("no grant covers this location"),
				WithOp("alice.Bob"),
				WithWrap(errInvalidScope),
			),
			want: true,
		},
		{
			name:     "no match on Kind only",
			template: T(Search),
			err: E(context.TODO(),
				WithCode(GrantListing),
				WithMsg("the listing walk failed"),
				WithOp("alice.Bob"),
				WithWrap(errInvalidScope),
			),
			want: false,
		},
		{
			name:     "match on Code only",
			template: T(NoGrantMatch),
			err: E(context.TODO(),
				WithCode(NoGrantMatch),
				WithMsg("no grant covers this location"),
				WithOp("alice.Bob"),
				WithWrap(errInvalidScope),
			),
			want: true,
		},
		{
			name:     "no match on Code only",
			template: T(NoGrantMatch),
			err: E(context.TODO(),
				WithCode(GrantListing),
				WithMsg("the listing walk failed"),
				WithOp("alice.Bob"),
				WithWrap(errInvalidScope),
			),
			want: false,
		},
		{
			name:     "match on Op only",
			template: T(Op("alice.Bob")),
			err: E(context.TODO(),
				WithCode(NoGrantMatch),
				WithMsg("no grant covers this location"),
				WithOp("alice.Bob"),
				WithWrap(errInvalidScope),
			),
			want: true,
		},
		{
			name:     "no match on Op only",
			template: T(Op("alice.Alice")),
			err: E(context.TODO(),
				WithCode(GrantListing),
				WithMsg("the listing walk failed"),
				WithOp("alice.Bob"),
				WithWrap(errInvalidScope),
			),
			want: false,
		},
		{
			name: "match on everything",
			template: T(
				"no grant covers this location",
				Search,
				NoGrantMatch,
				errInvalidScope,
				Op("alice.Bob"),
			),
			err: E(context.TODO(),
				WithCode(NoGrantMatch),
				WithMsg("no grant covers this location"),
				WithOp("alice.Bob"),
				WithWrap(errInvalidScope),
			),
			want: true,
		},
		{
			name:     "match on Wrapped only",
			template: T(errInvalidScope),
			err: E(context.TODO(),
				WithCode(NoGrantMatch),
				WithMsg("no grant covers this location"),
				WithOp("alice.Bob"),
				WithWrap(errInvalidScope),
			),
			want: true,
		},
		{
			name:     "no match on Wrapped only",
			template: T(errNoGrantMatch),
			err: E(context.TODO(),
				WithCode(GrantListing),
				WithMsg("the listing walk failed"),
				WithOp("alice.Bob"),
				WithWrap(errInvalidScope),
			),
			want: false,
		},
		{
			name:     "match on Wrapped only stderror",
			template: T(stdErr),
			err: E(context.TODO(),
				WithCode(NoGrantMatch),
				WithMsg("no grant covers this location"),
				WithOp("alice.Bob"),
				WithWrap(stdErr),
			),
			want: true,
		},
		{
			name:     "match on go multi error",
			template: T(errInvalidScope),
			err:      stderrors.Join(stdErr, errInvalidScope),
			want:     true,
		},
		{
			name:     "match on go multi error for specific code",
			template: T(InvalidScope),
			err:      stderrors.Join(stdErr, errInvalidScope),
			want:     true,
		},
		{
			name:     "match on go multi error both domain errors",
			template: T(errInvalidScope),
			err:      stderrors.Join(errNoGrantMatch, errInvalidScope),
			want:     true,
		},
		{
			name:     "match on hashicorp multi error",
			template: T(errInvalidScope),
			err:      multierror.Append(stdErr, errInvalidScope),
			want:     true,
		},
		{
			name:     "match on hashicorp multi error for specific code",
			template: T(InvalidScope),
			err:      multierror.Append(stdErr, errInvalidScope),
			want:     true,
		},
		{
			name:     "no match on Wrapped only stderror",
			template: T(stderrors.New("no match")),
			err: E(context.TODO(),
				WithCode(GrantListing),
				WithMsg("the listing walk failed"),
				WithOp("alice.Bob"),
				WithWrap(stdErr),
			),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			got := Match(tt.template, tt.err)
			assert.Equal(tt.want, got)
		})
	}
}

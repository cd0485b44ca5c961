// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_newFilter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name            string
		filter          string
		wantErr         bool
		wantErrIs       error
		wantErrContains string
	}{
		{
			name:            "missing-filter",
			wantErr:         true,
			wantErrIs:       ErrInvalidParameter,
			wantErrContains: "missing filter",
		},
		{
			name:    "invalid-filter",
			filter:  "%=@^*$",
			wantErr: true,
		},
		{
			name:   "valid",
			filter: `"/op" == "store.GetProvider"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := newFilter(tt.filter)
			if tt.wantErr {
				require.Error(err)
				assert.Nil(got)
				if tt.wantErrIs != nil {
					assert.ErrorIs(err, tt.wantErrIs)
				}
				if tt.wantErrContains != "" {
					assert.Contains(err.Error(), tt.wantErrContains)
				}
				return
			}
			require.NoError(err)
			require.NotNil(got)
			assert.Equal(tt.filter, got.raw)
		})
	}
}

func Test_filterMatch(t *testing.T) {
	t.Parallel()

	type testPayload struct {
		Op   string `json:"op"`
		Code int    `json:"code"`
	}

	tests := []struct {
		name   string
		filter string
		item   any
		want   bool
	}{
		{
			name:   "matches",
			filter: `op == "cache.GetOrFetch"`,
			item:   testPayload{Op: "cache.GetOrFetch", Code: 200},
			want:   true,
		},
		{
			name:   "no-match",
			filter: `op == "cache.GetOrFetch"`,
			item:   testPayload{Op: "store.Destroy", Code: 200},
			want:   false,
		},
		{
			name:   "mismatched-structure",
			filter: `missing_field == "anything"`,
			item:   testPayload{Op: "cache.GetOrFetch"},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			f, err := newFilter(tt.filter)
			require.NoError(err)
			assert.Equal(tt.want, f.Match(tt.item))
		})
	}
	t.Run("nil-eval-matches-everything", func(t *testing.T) {
		f := &filter{}
		assert.True(t, f.Match("anything"))
	})
}

func Test_newPredicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type testPayload struct {
		Op string `json:"op"`
	}

	mustFilter := func(f string) *filter {
		flt, err := newFilter(f)
		require.NoError(t, err)
		return flt
	}

	tests := []struct {
		name  string
		allow []*filter
		deny  []*filter
		item  any
		want  bool
	}{
		{
			name: "no-filters-allows-everything",
			item: testPayload{Op: "anything"},
			want: true,
		},
		{
			name:  "allow-match",
			allow: []*filter{mustFilter(`op == "keep"`)},
			item:  testPayload{Op: "keep"},
			want:  true,
		},
		{
			name:  "allow-no-match",
			allow: []*filter{mustFilter(`op == "keep"`)},
			item:  testPayload{Op: "drop"},
			want:  false,
		},
		{
			name: "deny-match",
			deny: []*filter{mustFilter(`op == "drop"`)},
			item: testPayload{Op: "drop"},
			want: false,
		},
		{
			name: "deny-no-match",
			deny: []*filter{mustFilter(`op == "drop"`)},
			item: testPayload{Op: "keep"},
			want: true,
		},
		{
			name:  "deny-wins-over-allow",
			allow: []*filter{mustFilter(`op == "both"`)},
			deny:  []*filter{mustFilter(`op == "both"`)},
			item:  testPayload{Op: "both"},
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			p := newPredicate(tt.allow, tt.deny)
			got, err := p(ctx, tt.item)
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

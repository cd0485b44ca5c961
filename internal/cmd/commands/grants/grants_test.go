// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package grants

import (
	"context"
	"testing"

	"github.com/hashicorp/go-accessgrants/grant"
	"github.com/hashicorp/go-bexpr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewListedGrant(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()

	scope, err := grant.ParseScope(ctx, "s3://app-data/logs/*")
	require.NoError(err)
	item := newListedGrant(grant.Grant{
		Scope:          scope,
		Permission:     grant.PermissionRead,
		ApplicationArn: "arn:aws:sso::123456789012:application/ssoins-1/apl-1",
	})
	assert.Equal("s3://app-data/logs/*", item.Scope)
	assert.Equal("prefix", item.Kind)
	assert.Equal("app-data", item.Bucket)
	assert.Equal("READ", item.Permission)
	assert.Equal("arn:aws:sso::123456789012:application/ssoins-1/apl-1", item.ApplicationArn)
}

func Test_FilterGrants(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newItem := func(scope string, p grant.Permission, arn string) *listedGrant {
		parsed, err := grant.ParseScope(ctx, scope)
		require.NoError(t, err)
		return newListedGrant(grant.Grant{Scope: parsed, Permission: p, ApplicationArn: arn})
	}
	items := []*listedGrant{
		newItem("s3://app-data/*", grant.PermissionReadWrite, ""),
		newItem("s3://app-data/logs/*", grant.PermissionRead, ""),
		newItem("s3://app-data/logs/2026/app.log", grant.PermissionWrite, "arn:aws:sso::123456789012:application/ssoins-1/apl-1"),
		newItem("s3://backups/*", grant.PermissionRead, ""),
	}

	tests := []struct {
		name       string
		filter     string
		wantScopes []string
	}{
		{
			name:       "by-bucket",
			filter:     `bucket == "app-data"`,
			wantScopes: []string{"s3://app-data/*", "s3://app-data/logs/*", "s3://app-data/logs/2026/app.log"},
		},
		{
			name:       "by-bucket-and-permission",
			filter:     `bucket == "app-data" and permission != "READ"`,
			wantScopes: []string{"s3://app-data/*", "s3://app-data/logs/2026/app.log"},
		},
		{
			name:       "by-kind",
			filter:     `kind == "object"`,
			wantScopes: []string{"s3://app-data/logs/2026/app.log"},
		},
		{
			name:       "by-application",
			filter:     `application_arn != ""`,
			wantScopes: []string{"s3://app-data/logs/2026/app.log"},
		},
		{
			name:       "no-matches",
			filter:     `bucket == "missing"`,
			wantScopes: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			eval, err := bexpr.CreateEvaluator(tt.filter)
			require.NoError(err)

			var got []string
			for _, item := range items {
				match, err := eval.Evaluate(item)
				require.NoError(err)
				if match {
					got = append(got, item.Scope)
				}
			}
			assert.Equal(tt.wantScopes, got)
		})
	}
}

func Test_FilterGrants_BadExpression(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	_, err := bexpr.CreateEvaluator(`bucket == `)
	assert.Error(err)
}

func Test_PrintListTable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		assert := assert.New(t)
		assert.Equal("No grants found", printListTable(nil))
	})
	t.Run("items", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		scope, err := grant.ParseScope(ctx, "s3://app-data/logs/*")
		require.NoError(err)
		out := printListTable([]*listedGrant{
			newListedGrant(grant.Grant{Scope: scope, Permission: grant.PermissionRead}),
			newListedGrant(grant.Grant{Scope: scope, Permission: grant.PermissionWrite, ApplicationArn: "arn:aws:sso::123456789012:application/ssoins-1/apl-1"}),
		})
		assert.Contains(out, "Access Grants:")
		assert.Contains(out, "Scope:             s3://app-data/logs/*")
		assert.Contains(out, "Permission:      READ")
		assert.Contains(out, "Application ARN: arn:aws:sso::123456789012:application/ssoins-1/apl-1")
	})
}

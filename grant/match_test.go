// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package grant

import (
	"context"
	"testing"

	"github.com/hashicorp/go-accessgrants/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Match(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	grantOf := func(t *testing.T, scope string, p Permission) Grant {
		t.Helper()
		parsed, err := ParseScope(ctx, scope)
		require.NoError(t, err)
		return Grant{Scope: parsed, Permission: p}
	}
	scopeOf := func(t *testing.T, scope string) Scope {
		t.Helper()
		parsed, err := ParseScope(ctx, scope)
		require.NoError(t, err)
		return parsed
	}

	bucketRw := grantOf(t, "s3://logbucket/*", PermissionReadWrite)
	logsRead := grantOf(t, "s3://logbucket/logs/*", PermissionRead)
	logsQ1Read := grantOf(t, "s3://logbucket/logs/2024/q1/*", PermissionRead)
	reportObjectRw := grantOf(t, "s3://logbucket/logs/report.txt", PermissionReadWrite)

	tests := []struct {
		name         string
		grants       []Grant
		requested    Scope
		permission   Permission
		want         Grant
		wantErrMatch *errors.Template
	}{
		{
			name:       "prefix-beats-bucket",
			grants:     []Grant{bucketRw, logsRead},
			requested:  scopeOf(t, "s3://logbucket/logs/a.txt"),
			permission: PermissionRead,
			want:       logsRead,
		},
		{
			name:       "object-beats-prefix-and-bucket",
			grants:     []Grant{bucketRw, logsRead, reportObjectRw},
			requested:  scopeOf(t, "s3://logbucket/logs/report.txt"),
			permission: PermissionRead,
			want:       reportObjectRw,
		},
		{
			name:       "longer-prefix-beats-shorter",
			grants:     []Grant{logsRead, logsQ1Read},
			requested:  scopeOf(t, "s3://logbucket/logs/2024/q1/a.txt"),
			permission: PermissionRead,
			want:       logsQ1Read,
		},
		{
			name:       "bucket-when-nothing-narrower-covers",
			grants:     []Grant{bucketRw, logsRead},
			requested:  scopeOf(t, "s3://logbucket/audit/a.txt"),
			permission: PermissionRead,
			want:       bucketRw,
		},
		{
			name:       "permission-filters-out-narrower-grant",
			grants:     []Grant{bucketRw, logsRead},
			requested:  scopeOf(t, "s3://logbucket/logs/a.txt"),
			permission: PermissionWrite,
			want:       bucketRw,
		},
		{
			name:       "readwrite-request-needs-readwrite",
			grants:     []Grant{logsRead, bucketRw},
			requested:  scopeOf(t, "s3://logbucket/logs/a.txt"),
			permission: PermissionReadWrite,
			want:       bucketRw,
		},
		{
			name:         "write-on-read-only-prefix",
			grants:       []Grant{logsRead},
			requested:    scopeOf(t, "s3://logbucket/logs/a.txt"),
			permission:   PermissionWrite,
			wantErrMatch: errors.T(errors.NoGrantMatch),
		},
		{
			name:         "no-grants",
			grants:       nil,
			requested:    scopeOf(t, "s3://logbucket/logs/a.txt"),
			permission:   PermissionRead,
			wantErrMatch: errors.T(errors.NoGrantMatch),
		},
		{
			name:         "other-bucket-only",
			grants:       []Grant{grantOf(t, "s3://otherbucket/*", PermissionReadWrite)},
			requested:    scopeOf(t, "s3://logbucket/logs/a.txt"),
			permission:   PermissionRead,
			wantErrMatch: errors.T(errors.NoGrantMatch),
		},
		{
			name:         "missing-permission",
			grants:       []Grant{bucketRw},
			requested:    scopeOf(t, "s3://logbucket/logs/a.txt"),
			permission:   PermissionUnknown,
			wantErrMatch: errors.T(errors.InvalidParameter),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := Match(ctx, tt.grants, tt.requested, tt.permission)
			if tt.wantErrMatch != nil {
				require.Error(err)
				assert.True(errors.Match(tt.wantErrMatch, err))
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)

			// the selection must not depend on listing order
			reversed := make([]Grant, 0, len(tt.grants))
			for i := len(tt.grants) - 1; i >= 0; i-- {
				reversed = append(reversed, tt.grants[i])
			}
			got, err = Match(ctx, reversed, tt.requested, tt.permission)
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func Test_MatchTieBreak(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	scope, err := ParseScope(ctx, "s3://logbucket/logs/*")
	require.NoError(t, err)
	requested, err := ParseScope(ctx, "s3://logbucket/logs/a.txt")
	require.NoError(t, err)

	t.Run("exact-permission-beats-subsumption", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		read := Grant{Scope: scope, Permission: PermissionRead}
		readWrite := Grant{Scope: scope, Permission: PermissionReadWrite}

		got, err := Match(ctx, []Grant{readWrite, read}, requested, PermissionRead)
		require.NoError(err)
		assert.Equal(read, got)

		got, err = Match(ctx, []Grant{read, readWrite}, requested, PermissionRead)
		require.NoError(err)
		assert.Equal(read, got)
	})

	t.Run("smaller-application-arn-wins", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		unrestricted := Grant{Scope: scope, Permission: PermissionRead}
		restricted := Grant{Scope: scope, Permission: PermissionRead, ApplicationArn: "arn:aws:sso::123456789012:application/ssoins/apl"}

		// the empty arn sorts first
		got, err := Match(ctx, []Grant{restricted, unrestricted}, requested, PermissionRead)
		require.NoError(err)
		assert.Equal(unrestricted, got)

		got, err = Match(ctx, []Grant{unrestricted, restricted}, requested, PermissionRead)
		require.NoError(err)
		assert.Equal(unrestricted, got)
	})
}

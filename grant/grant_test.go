// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package grant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GrantCacheKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	logsRead := Grant{
		Scope:      Scope{Bucket: "logbucket", Prefix: "logs/", Kind: KindPrefix},
		Permission: PermissionRead,
	}
	assert.Equal(t, "s3://logbucket/logs/*#READ#", logsRead.CacheKey())

	withApp := logsRead
	withApp.ApplicationArn = "arn:aws:sso::123456789012:application/ssoins/apl"
	assert.Equal(t, "s3://logbucket/logs/*#READ#arn:aws:sso::123456789012:application/ssoins/apl", withApp.CacheKey())

	// distinct identities render distinct keys
	logsWrite := logsRead
	logsWrite.Permission = PermissionWrite
	keys := map[string]struct{}{
		logsRead.CacheKey():  {},
		logsWrite.CacheKey(): {},
		withApp.CacheKey():   {},
	}
	assert.Len(t, keys, 3)

	// identity survives a parse round-trip of the scope
	reparsed, err := ParseScope(ctx, logsRead.Scope.String())
	require.NoError(t, err)
	assert.Equal(t, logsRead.CacheKey(), Grant{Scope: reparsed, Permission: PermissionRead}.CacheKey())
}

func Test_GrantValidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tests := []struct {
		name    string
		grant   Grant
		wantErr bool
	}{
		{
			name: "valid",
			grant: Grant{
				Scope:      Scope{Bucket: "logbucket", Prefix: "logs/", Kind: KindPrefix},
				Permission: PermissionRead,
			},
		},
		{
			name: "missing-permission",
			grant: Grant{
				Scope: Scope{Bucket: "logbucket", Kind: KindBucket},
			},
			wantErr: true,
		},
		{
			name: "missing-bucket",
			grant: Grant{
				Scope:      Scope{Kind: KindBucket},
				Permission: PermissionRead,
			},
			wantErr: true,
		},
		{
			name: "prefix-scope-without-prefix",
			grant: Grant{
				Scope:      Scope{Bucket: "logbucket", Kind: KindPrefix},
				Permission: PermissionRead,
			},
			wantErr: true,
		},
		{
			name: "object-scope-without-key",
			grant: Grant{
				Scope:      Scope{Bucket: "logbucket", Kind: KindObject},
				Permission: PermissionRead,
			},
			wantErr: true,
		},
		{
			name: "unknown-kind",
			grant: Grant{
				Scope:      Scope{Bucket: "logbucket"},
				Permission: PermissionRead,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.grant.validate(ctx)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

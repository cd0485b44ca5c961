// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package s3control

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3control "github.com/aws/aws-sdk-go-v2/service/s3control"
	"github.com/aws/aws-sdk-go-v2/service/s3control/types"
	"github.com/aws/smithy-go"
	"github.com/hashicorp/go-accessgrants/grant"
	"github.com/hashicorp/go-accessgrants/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccountId = "123456789012"

func Test_New(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing-account-id", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		got, err := New(ctx, "")
		require.Error(err)
		assert.Nil(got)
		assert.True(errors.Match(errors.T(errors.InvalidParameter), err))
	})
	t.Run("bad-option", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		got, err := New(ctx, testAccountId, WithAPI(ctx, &fakeAPI{}), WithMaxResults(ctx, -1))
		require.Error(err)
		assert.Nil(got)
		assert.True(errors.Match(errors.T(errors.InvalidParameter), err))
	})
	t.Run("with-api", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		api := &fakeAPI{}
		got, err := New(ctx, testAccountId, WithAPI(ctx, api))
		require.NoError(err)
		require.NotNil(got)
		assert.Equal(testAccountId, got.accountId)
		assert.Equal(types.PrivilegeDefault, got.privilege)
	})
	t.Run("with-config", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		got, err := New(ctx, testAccountId, WithConfig(ctx, &aws.Config{Region: "us-east-2"}))
		require.NoError(err)
		require.NotNil(got)
		assert.NotNil(got.api)
	})
}

func Test_Client_ListAccessGrants(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert, require := assert.New(t), require.New(t)

	fake := &fakeAPI{
		listOut: []*awss3control.ListAccessGrantsOutput{
			{
				AccessGrantsList: []types.ListAccessGrantEntry{
					{
						AccessGrantId:  aws.String("grant-1"),
						GrantScope:     aws.String("s3://app-data/logs/*"),
						Permission:     types.PermissionRead,
						ApplicationArn: aws.String("arn:aws:sso::123456789012:application/app-1"),
					},
					{
						AccessGrantId: aws.String("grant-2"),
						GrantScope:    aws.String("s3://app-data/*"),
						Permission:    types.PermissionReadwrite,
					},
					{
						// a scope shape this library doesn't model
						AccessGrantId: aws.String("grant-3"),
						GrantScope:    aws.String("s3://"),
						Permission:    types.PermissionRead,
					},
				},
				NextToken: aws.String("token-2"),
			},
			{
				AccessGrantsList: []types.ListAccessGrantEntry{
					{
						AccessGrantId: aws.String("grant-4"),
						GrantScope:    aws.String("s3://media/covers/spring.png"),
						Permission:    types.PermissionWrite,
					},
				},
			},
		},
	}
	c, err := New(ctx, testAccountId, WithAPI(ctx, fake), WithMaxResults(ctx, 250))
	require.NoError(err)

	page, err := c.ListAccessGrants(ctx, "")
	require.NoError(err)
	require.NotNil(page)
	require.Len(page.Grants, 2)
	assert.Equal("s3://app-data/logs/*", page.Grants[0].Scope.String())
	assert.Equal(grant.PermissionRead, page.Grants[0].Permission)
	assert.Equal("arn:aws:sso::123456789012:application/app-1", page.Grants[0].ApplicationArn)
	assert.Equal("s3://app-data/*", page.Grants[1].Scope.String())
	assert.Equal(grant.PermissionReadWrite, page.Grants[1].Permission)
	assert.Empty(page.Grants[1].ApplicationArn)
	assert.Equal("token-2", page.NextPageToken)

	require.Len(fake.listInputs, 1)
	assert.Equal(testAccountId, aws.ToString(fake.listInputs[0].AccountId))
	assert.Nil(fake.listInputs[0].NextToken)
	assert.Equal(int32(250), fake.listInputs[0].MaxResults)

	// the returned token drives the next page
	page, err = c.ListAccessGrants(ctx, page.NextPageToken)
	require.NoError(err)
	require.Len(page.Grants, 1)
	assert.Equal(grant.KindObject, page.Grants[0].Scope.Kind)
	assert.Empty(page.NextPageToken)
	require.Len(fake.listInputs, 2)
	assert.Equal("token-2", aws.ToString(fake.listInputs[1].NextToken))
}

func Test_Client_ListAccessGrants_ApiError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert, require := assert.New(t), require.New(t)

	fake := &fakeAPI{
		listErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "not authorized to list grants"},
	}
	c, err := New(ctx, testAccountId, WithAPI(ctx, fake))
	require.NoError(err)

	got, err := c.ListAccessGrants(ctx, "")
	require.Error(err)
	assert.Nil(got)
	assert.True(errors.Match(errors.T(errors.Forbidden), err))
	assert.Contains(err.Error(), "listing access grants")
}

func Test_Client_IssueCredentials(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	expiration := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	newFake := func() *fakeAPI {
		return &fakeAPI{
			accessOut: &awss3control.GetDataAccessOutput{
				Credentials: &types.Credentials{
					AccessKeyId:     aws.String("AKIAEXAMPLE"),
					SecretAccessKey: aws.String("wJalrXUtnFEMI"),
					SessionToken:    aws.String("FQoGZXIvYXdzEJr"),
					Expiration:      aws.Time(expiration),
				},
				MatchedGrantTarget: aws.String("s3://app-data/logs/*"),
			},
		}
	}

	t.Run("prefix-grant", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		fake := newFake()
		c, err := New(ctx, testAccountId, WithAPI(ctx, fake))
		require.NoError(err)

		g := grant.Grant{}
		g.Scope, err = grant.ParseScope(ctx, "s3://app-data/logs/*")
		require.NoError(err)
		g.Permission = grant.PermissionReadWrite

		creds, err := c.IssueCredentials(ctx, g)
		require.NoError(err)
		assert.Equal("AKIAEXAMPLE", creds.AccessKeyId)
		assert.Equal("wJalrXUtnFEMI", string(creds.SecretAccessKey))
		assert.Equal("FQoGZXIvYXdzEJr", string(creds.SessionToken))
		assert.True(expiration.Equal(creds.Expiration))

		require.Len(fake.accessInputs, 1)
		in := fake.accessInputs[0]
		assert.Equal(testAccountId, aws.ToString(in.AccountId))
		assert.Equal("s3://app-data/logs/*", aws.ToString(in.Target))
		assert.Equal(types.PermissionReadwrite, in.Permission)
		assert.Equal(types.PrivilegeDefault, in.Privilege)
		assert.Empty(in.TargetType)
		assert.Nil(in.DurationSeconds)
	})
	t.Run("object-grant-with-options", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		fake := newFake()
		c, err := New(ctx, testAccountId, WithAPI(ctx, fake),
			WithCredentialsDuration(ctx, time.Hour),
			WithPrivilege(ctx, types.PrivilegeMinimal))
		require.NoError(err)

		g := grant.Grant{Permission: grant.PermissionRead}
		g.Scope, err = grant.ParseScope(ctx, "s3://media/covers/spring.png")
		require.NoError(err)

		_, err = c.IssueCredentials(ctx, g)
		require.NoError(err)

		require.Len(fake.accessInputs, 1)
		in := fake.accessInputs[0]
		assert.Equal("s3://media/covers/spring.png", aws.ToString(in.Target))
		assert.Equal(types.PermissionRead, in.Permission)
		assert.Equal(types.PrivilegeMinimal, in.Privilege)
		assert.Equal(types.S3PrefixTypeObject, in.TargetType)
		assert.Equal(int32(3600), aws.ToInt32(in.DurationSeconds))
	})
	t.Run("unknown-permission", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := New(ctx, testAccountId, WithAPI(ctx, newFake()))
		require.NoError(err)

		g := grant.Grant{Permission: grant.PermissionUnknown}
		g.Scope, err = grant.ParseScope(ctx, "s3://app-data/*")
		require.NoError(err)

		_, err = c.IssueCredentials(ctx, g)
		require.Error(err)
		assert.True(errors.Match(errors.T(errors.InvalidParameter), err))
	})
	t.Run("api-error", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		fake := newFake()
		fake.accessErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "grant revoked"}
		c, err := New(ctx, testAccountId, WithAPI(ctx, fake))
		require.NoError(err)

		g := grant.Grant{Permission: grant.PermissionRead}
		g.Scope, err = grant.ParseScope(ctx, "s3://app-data/*")
		require.NoError(err)

		_, err = c.IssueCredentials(ctx, g)
		require.Error(err)
		assert.True(errors.Match(errors.T(errors.Forbidden), err))
		assert.Contains(err.Error(), "getting data access for s3://app-data/*")
	})
	t.Run("throttled", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		fake := newFake()
		fake.accessErr = &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
		c, err := New(ctx, testAccountId, WithAPI(ctx, fake))
		require.NoError(err)

		g := grant.Grant{Permission: grant.PermissionRead}
		g.Scope, err = grant.ParseScope(ctx, "s3://app-data/*")
		require.NoError(err)

		_, err = c.IssueCredentials(ctx, g)
		require.Error(err)
		assert.True(errors.Match(errors.T(errors.Unavailable), err))
		assert.True(errors.IsUnavailableError(err))
	})
	t.Run("no-credentials-in-response", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		fake := newFake()
		fake.accessOut = &awss3control.GetDataAccessOutput{}
		c, err := New(ctx, testAccountId, WithAPI(ctx, fake))
		require.NoError(err)

		g := grant.Grant{Permission: grant.PermissionRead}
		g.Scope, err = grant.ParseScope(ctx, "s3://app-data/*")
		require.NoError(err)

		_, err = c.IssueCredentials(ctx, g)
		require.Error(err)
		assert.True(errors.Match(errors.T(errors.CredentialIssuance), err))
	})
}

// fakeAPI is a scripted API implementation.  Flights in the credential
// package call it from their own goroutines, so it locks around its
// recordings.
type fakeAPI struct {
	l sync.Mutex

	listInputs []*awss3control.ListAccessGrantsInput
	listOut    []*awss3control.ListAccessGrantsOutput
	listErr    error

	accessInputs []*awss3control.GetDataAccessInput
	accessOut    *awss3control.GetDataAccessOutput
	accessErr    error
}

func (f *fakeAPI) ListAccessGrants(_ context.Context, params *awss3control.ListAccessGrantsInput, _ ...func(*awss3control.Options)) (*awss3control.ListAccessGrantsOutput, error) {
	f.l.Lock()
	defer f.l.Unlock()
	f.listInputs = append(f.listInputs, params)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.listOut) == 0 {
		return &awss3control.ListAccessGrantsOutput{}, nil
	}
	out := f.listOut[0]
	f.listOut = f.listOut[1:]
	return out, nil
}

func (f *fakeAPI) GetDataAccess(_ context.Context, params *awss3control.GetDataAccessInput, _ ...func(*awss3control.Options)) (*awss3control.GetDataAccessOutput, error) {
	f.l.Lock()
	defer f.l.Unlock()
	f.accessInputs = append(f.accessInputs, params)
	if f.accessErr != nil {
		return nil, f.accessErr
	}
	if f.accessOut == nil {
		return &awss3control.GetDataAccessOutput{}, nil
	}
	return f.accessOut, nil
}

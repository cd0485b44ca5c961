// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package s3control

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/hashicorp/go-accessgrants/credential"
	"github.com/hashicorp/go-accessgrants/internal/errors"
)

// credentialsSource names this package in the Source field of the
// aws.Credentials it vends.
const credentialsSource = "AccessGrantsStore"

// SDKCredentialsProvider adapts a *credential.Provider into the SDK's
// aws.CredentialsProvider, so an S3 client can sign its requests with the
// grant-scoped credentials the store resolves:
//
//	p, _ := store.GetProvider(ctx, "s3://app-data/logs/*", grant.PermissionRead)
//	sdkProvider, _ := s3control.NewSDKCredentialsProvider(ctx, p)
//	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
//		o.Credentials = sdkProvider
//	})
type SDKCredentialsProvider struct {
	provider *credential.Provider
}

var _ aws.CredentialsProvider = (*SDKCredentialsProvider)(nil)

// NewSDKCredentialsProvider creates an SDKCredentialsProvider over p.
func NewSDKCredentialsProvider(ctx context.Context, p *credential.Provider) (*SDKCredentialsProvider, error) {
	const op = "s3control.NewSDKCredentialsProvider"
	if p == nil {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing provider")
	}
	return &SDKCredentialsProvider{provider: p}, nil
}

// Retrieve implements aws.CredentialsProvider.  Freshness is re-checked on
// every call, so wrapping in the SDK's own credentials cache is
// unnecessary: expiry-margin refresh already happens underneath.
func (p *SDKCredentialsProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	const op = "s3control.(SDKCredentialsProvider).Retrieve"
	creds, err := p.provider.Credentials(ctx)
	if err != nil {
		return aws.Credentials{}, errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	return aws.Credentials{
		AccessKeyID:     creds.AccessKeyId,
		SecretAccessKey: string(creds.SecretAccessKey),
		SessionToken:    string(creds.SessionToken),
		Source:          credentialsSource,
		CanExpire:       true,
		Expires:         creds.Expiration,
	}, nil
}

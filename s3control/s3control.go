// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package s3control adapts an AWS account's S3 Access Grants instance to
// the collaborator interfaces of the credential package: the
// ListAccessGrants api backs credential.GrantLister and the GetDataAccess
// api backs credential.CredentialIssuer.  It also bridges a resolved
// credential.Provider back into the SDK's aws.CredentialsProvider so S3
// clients can sign requests with grant-scoped credentials.
package s3control

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awss3control "github.com/aws/aws-sdk-go-v2/service/s3control"
	"github.com/aws/aws-sdk-go-v2/service/s3control/types"
	"github.com/hashicorp/go-accessgrants/credential"
	"github.com/hashicorp/go-accessgrants/grant"
	"github.com/hashicorp/go-accessgrants/internal/errors"
	"github.com/hashicorp/go-accessgrants/internal/event"
	"github.com/hashicorp/go-cleanhttp"
)

// API is the subset of the S3 Control api the adapter calls.  It is
// satisfied by *s3control.Client from the AWS SDK.
type API interface {
	ListAccessGrants(ctx context.Context, params *awss3control.ListAccessGrantsInput, optFns ...func(*awss3control.Options)) (*awss3control.ListAccessGrantsOutput, error)
	GetDataAccess(ctx context.Context, params *awss3control.GetDataAccessInput, optFns ...func(*awss3control.Options)) (*awss3control.GetDataAccessOutput, error)
}

// Client lists and redeems access grants for one account.
type Client struct {
	api       API
	accountId string

	credentialsDuration time.Duration
	privilege           types.Privilege
	maxResults          int32
}

var (
	_ credential.GrantLister      = (*Client)(nil)
	_ credential.CredentialIssuer = (*Client)(nil)
)

// New creates a Client against accountId's Access Grants instance.
// Supported options: WithAPI, WithConfig, WithRegion,
// WithCredentialsDuration, WithPrivilege, WithMaxResults.  Without WithAPI
// or WithConfig the default config chain (environment, shared config
// files, instance metadata) supplies the region and signing identity.
func New(ctx context.Context, accountId string, opt ...Option) (*Client, error) {
	const op = "s3control.New"
	if accountId == "" {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing account id")
	}
	opts, err := getOpts(opt...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidParameter))
	}
	api := opts.withAPI
	if api == nil {
		cfg, err := loadConfig(ctx, opts)
		if err != nil {
			return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidConfiguration), errors.WithMsg("loading aws config"))
		}
		api = awss3control.NewFromConfig(cfg, func(o *awss3control.Options) {
			if opts.withRegion != "" {
				o.Region = opts.withRegion
			}
		})
	}
	return &Client{
		api:                 api,
		accountId:           accountId,
		credentialsDuration: opts.withCredentialsDuration,
		privilege:           opts.withPrivilege,
		maxResults:          opts.withMaxResults,
	}, nil
}

func loadConfig(ctx context.Context, opts options) (aws.Config, error) {
	if opts.withConfig != nil {
		return *opts.withConfig, nil
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(cleanhttp.DefaultPooledClient()),
	}
	if opts.withRegion != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.withRegion))
	}
	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// ListAccessGrants returns one page of the account's access grants.
// Entries whose scope or permission don't parse are skipped rather than
// failing the page: an instance can hold grant shapes this library
// doesn't model.
func (c *Client) ListAccessGrants(ctx context.Context, pageToken string) (*credential.GrantPage, error) {
	const op = "s3control.(Client).ListAccessGrants"
	input := &awss3control.ListAccessGrantsInput{
		AccountId: aws.String(c.accountId),
	}
	if pageToken != "" {
		input.NextToken = aws.String(pageToken)
	}
	if c.maxResults > 0 {
		input.MaxResults = c.maxResults
	}
	out, err := c.api.ListAccessGrants(ctx, input)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithMsg("listing access grants"))
	}
	page := &credential.GrantPage{
		Grants:        make([]grant.Grant, 0, len(out.AccessGrantsList)),
		NextPageToken: aws.ToString(out.NextToken),
	}
	for _, entry := range out.AccessGrantsList {
		g, err := convertEntry(ctx, entry)
		if err != nil {
			event.WriteSysEvent(ctx, op, "skipping access grant entry",
				"grant_id", aws.ToString(entry.AccessGrantId),
				"grant_scope", aws.ToString(entry.GrantScope),
				"error", err.Error())
			continue
		}
		page.Grants = append(page.Grants, g)
	}
	return page, nil
}

func convertEntry(ctx context.Context, entry types.ListAccessGrantEntry) (grant.Grant, error) {
	const op = "s3control.convertEntry"
	scope, err := grant.ParseScope(ctx, aws.ToString(entry.GrantScope))
	if err != nil {
		return grant.Grant{}, errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	permission, err := grant.ParsePermission(ctx, string(entry.Permission))
	if err != nil {
		return grant.Grant{}, errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	return grant.Grant{
		Scope:          scope,
		Permission:     permission,
		ApplicationArn: aws.ToString(entry.ApplicationArn),
	}, nil
}

// IssueCredentials redeems g for temporary credentials through the
// GetDataAccess api.
func (c *Client) IssueCredentials(ctx context.Context, g grant.Grant) (credential.Credentials, error) {
	const op = "s3control.(Client).IssueCredentials"
	permission, err := sdkPermission(ctx, g.Permission)
	if err != nil {
		return credential.Credentials{}, errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	input := &awss3control.GetDataAccessInput{
		AccountId:  aws.String(c.accountId),
		Target:     aws.String(g.Scope.String()),
		Permission: permission,
		Privilege:  c.privilege,
	}
	// the service requires the target type only when the target is a
	// single object rather than a prefix
	if g.Scope.Kind == grant.KindObject {
		input.TargetType = types.S3PrefixTypeObject
	}
	if c.credentialsDuration > 0 {
		input.DurationSeconds = aws.Int32(int32(c.credentialsDuration / time.Second))
	}
	out, err := c.api.GetDataAccess(ctx, input)
	if err != nil {
		return credential.Credentials{}, errors.Wrap(ctx, err, op, errors.WithMsg("getting data access for %s", g.Scope.String()))
	}
	if out.Credentials == nil {
		return credential.Credentials{}, errors.New(ctx, errors.CredentialIssuance, op, "service returned no credentials")
	}
	return credential.Credentials{
		AccessKeyId:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: credential.Secret(aws.ToString(out.Credentials.SecretAccessKey)),
		SessionToken:    credential.Secret(aws.ToString(out.Credentials.SessionToken)),
		Expiration:      aws.ToTime(out.Credentials.Expiration),
	}, nil
}

func sdkPermission(ctx context.Context, p grant.Permission) (types.Permission, error) {
	const op = "s3control.sdkPermission"
	switch p {
	case grant.PermissionRead:
		return types.PermissionRead, nil
	case grant.PermissionWrite:
		return types.PermissionWrite, nil
	case grant.PermissionReadWrite:
		return types.PermissionReadwrite, nil
	default:
		return "", errors.New(ctx, errors.InvalidParameter, op, fmt.Sprintf("%q has no api permission", p.String()))
	}
}

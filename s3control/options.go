// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package s3control

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3control/types"
	"github.com/hashicorp/go-accessgrants/internal/util"
)

type options struct {
	withAPI                 API
	withConfig              *aws.Config
	withRegion              string
	withCredentialsDuration time.Duration
	withPrivilege           types.Privilege
	withMaxResults          int32
}

// Option - how options are passed as args
type Option func(*options) error

func getDefaultOptions() options {
	return options{
		withPrivilege: types.PrivilegeDefault,
	}
}

func getOpts(opt ...Option) (options, error) {
	opts := getDefaultOptions()
	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// WithAPI provides the S3 Control API implementation to call, in place of a
// client built from an aws config.  Tests use this to substitute a fake.
func WithAPI(_ context.Context, api API) Option {
	return func(o *options) error {
		if util.IsNil(api) {
			return fmt.Errorf("missing api")
		}
		o.withAPI = api
		return nil
	}
}

// WithConfig provides an aws config to build the S3 Control client from,
// in place of the default config chain.
func WithConfig(_ context.Context, cfg *aws.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("missing aws config")
		}
		o.withConfig = cfg
		return nil
	}
}

// WithRegion provides the region of the account's Access Grants instance.
func WithRegion(_ context.Context, region string) Option {
	return func(o *options) error {
		if region == "" {
			return fmt.Errorf("missing region")
		}
		o.withRegion = region
		return nil
	}
}

// WithCredentialsDuration provides an optional session duration for the
// issued credentials.  The service accepts durations between 15 minutes and
// 12 hours; when unset the service's default applies.
func WithCredentialsDuration(_ context.Context, d time.Duration) Option {
	return func(o *options) error {
		if d < 15*time.Minute || d > 12*time.Hour {
			return fmt.Errorf("provided credentials duration %q must be between 15 minutes and 12 hours", d)
		}
		o.withCredentialsDuration = d
		return nil
	}
}

// WithPrivilege provides an optional privilege level for issued
// credentials.
func WithPrivilege(_ context.Context, p types.Privilege) Option {
	return func(o *options) error {
		switch p {
		case types.PrivilegeDefault, types.PrivilegeMinimal:
			o.withPrivilege = p
			return nil
		default:
			return fmt.Errorf("%q is not a valid privilege", p)
		}
	}
}

// WithMaxResults provides an optional page size for grant listing calls.
// The service caps pages at 1000 entries.
func WithMaxResults(_ context.Context, n int) Option {
	return func(o *options) error {
		if n < 1 || n > 1000 {
			return fmt.Errorf("provided max results %d must be between 1 and 1000", n)
		}
		o.withMaxResults = int32(n)
		return nil
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package credential

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

type options struct {
	withExpiryMargin                time.Duration
	withRefreshInterval             time.Duration
	withIntervalRandomizationFactor float64
	withRefreshLimiter              *rate.Limiter
	withPageRetryInterval           time.Duration
}

// Option - how options are passed as args
type Option func(*options) error

func getDefaultOptions() options {
	return options{
		withExpiryMargin:                DefaultExpiryMargin,
		withRefreshInterval:             DefaultRefreshInterval,
		withIntervalRandomizationFactor: DefaultIntervalRandomizationFactor,
		// forced reloads are undamped unless a caller configures a limiter
		withRefreshLimiter:    rate.NewLimiter(rate.Inf, 1),
		withPageRetryInterval: defaultPageRetryInterval,
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

// WithExpiryMargin provides an optional expiry margin, the duration held in
// reserve before a cached credentials record's true expiration.
func WithExpiryMargin(_ context.Context, d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return fmt.Errorf("provided expiry margin %q must be non negative", d)
		}
		o.withExpiryMargin = d
		return nil
	}
}

// WithRefreshInterval provides an optional interval between background
// refreshes of the grant snapshot.
func WithRefreshInterval(_ context.Context, d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return fmt.Errorf("provided refresh interval %q must be positive", d)
		}
		o.withRefreshInterval = d
		return nil
	}
}

// WithIntervalRandomizationFactor provides an optional randomization factor
// for the refresh interval, spreading refreshes over
// interval ± (factor * interval).
func WithIntervalRandomizationFactor(_ context.Context, f float64) Option {
	return func(o *options) error {
		if f < 0 {
			return fmt.Errorf("provided interval randomization factor must be non negative")
		}
		o.withIntervalRandomizationFactor = f
		return nil
	}
}

// WithRefreshLimiter provides an optional rate limiter over the forced
// snapshot reloads triggered when a requested location has no match in the
// current snapshot.  Requests denied by the limiter surface the miss
// without reloading.
func WithRefreshLimiter(_ context.Context, l *rate.Limiter) Option {
	return func(o *options) error {
		if l == nil {
			return fmt.Errorf("missing refresh limiter")
		}
		o.withRefreshLimiter = l
		return nil
	}
}

// WithPageRetryInterval provides an optional wait between the failure of a
// grant listing page and its single retry.
func WithPageRetryInterval(_ context.Context, d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return fmt.Errorf("provided page retry interval %q must be positive", d)
		}
		o.withPageRetryInterval = d
		return nil
	}
}

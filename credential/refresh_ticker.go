// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package credential

import (
	"context"
	"math/rand"
	"time"

	"github.com/hashicorp/go-accessgrants/internal/errors"
	"github.com/hashicorp/go-accessgrants/internal/event"
	"github.com/hashicorp/go-accessgrants/internal/util"
)

const (
	// DefaultRefreshInterval is the default wait between a RefreshTicker's
	// background refreshes.
	DefaultRefreshInterval = 5 * time.Minute

	// DefaultIntervalRandomizationFactor spreads a RefreshTicker's
	// refreshes over interval ± (factor * interval), keeping a fleet of
	// processes from refreshing in lockstep.
	DefaultIntervalRandomizationFactor = 0.2
)

// A Refresher accepts snapshot refresh requests.  *Store is the usual
// implementation.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// A RefreshTicker keeps a Refresher's grant snapshot current, refreshing
// on a jittered interval and on demand.
type RefreshTicker struct {
	refresher           Refresher
	refreshInterval     time.Duration
	randomizationFactor float64

	// forceRefresh carries the manual refresh kicks
	forceRefresh chan struct{}
}

// NewRefreshTicker creates a ticker refreshing r.  Supported options:
// WithRefreshInterval, WithIntervalRandomizationFactor.
func NewRefreshTicker(ctx context.Context, r Refresher, opt ...Option) (*RefreshTicker, error) {
	const op = "credential.NewRefreshTicker"
	if util.IsNil(r) {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing refresher")
	}
	opts, err := getOpts(opt...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidParameter))
	}
	return &RefreshTicker{
		refresher:           r,
		refreshInterval:     opts.withRefreshInterval,
		randomizationFactor: opts.withIntervalRandomizationFactor,
		forceRefresh:        make(chan struct{}, 1),
	}, nil
}

// Start runs the refresh loop until ctx ends: one refresh immediately,
// then one per jittered interval, plus one for every Refresh call.  A
// failed refresh is evented and the loop keeps going; the loop does stop
// once the refresher reports its store destroyed.
func (rt *RefreshTicker) Start(ctx context.Context) {
	const op = "credential.(RefreshTicker).Start"
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.forceRefresh:
			if !timer.Stop() {
				<-timer.C
			}
		case <-timer.C:
		}
		switch err := rt.refresher.Refresh(ctx); {
		case errors.IsStoreDestroyedError(err):
			return
		case err != nil:
			event.WriteError(ctx, op, err)
		}
		timer.Reset(rt.nextIntervalWithRandomness(rt.refreshInterval))
	}
}

// Refresh schedules an immediate refresh.  It never blocks: a kick made
// while one is already pending folds into the pending one.
func (rt *RefreshTicker) Refresh() {
	select {
	case rt.forceRefresh <- struct{}{}:
	default:
	}
}

// nextIntervalWithRandomness returns a duration in
// [d - factor*d, d + factor*d].
func (rt *RefreshTicker) nextIntervalWithRandomness(d time.Duration) time.Duration {
	if rt.randomizationFactor == 0 {
		return d
	}
	delta := rt.randomizationFactor * float64(d)
	minInterval := float64(d) - delta
	maxInterval := float64(d) + delta
	return time.Duration(minInterval + (rand.Float64() * (maxInterval - minInterval + 1)))
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package credential

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-accessgrants/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewRefreshTicker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing-refresher", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		got, err := NewRefreshTicker(ctx, nil)
		require.Error(err)
		assert.Nil(got)
		assert.True(errors.Match(errors.T(errors.InvalidParameter), err))
	})
	t.Run("bad-option", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		got, err := NewRefreshTicker(ctx, &fakeRefresher{make(chan struct{})}, WithRefreshInterval(ctx, 0))
		require.Error(err)
		assert.Nil(got)
		assert.True(errors.Match(errors.T(errors.InvalidParameter), err))
	})
}

func Test_TickerRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	refresher := &fakeRefresher{make(chan struct{})}

	rt, err := NewRefreshTicker(ctx, refresher)
	require.NoError(t, err)

	tickerCtx, tickerCancel := context.WithCancel(ctx)
	go rt.Start(tickerCtx)
	t.Cleanup(func() {
		tickerCancel()
	})

	// let the normal start ticker refresh things
	<-refresher.called

	testCtx, testCancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer testCancel()
	rt.Refresh()
	select {
	case <-refresher.called:
	case <-testCtx.Done():
		assert.Fail(t, "timed out waiting for the refresh")
	}

	// wait and make sure we don't get yet another call
	select {
	case <-refresher.called:
		assert.Fail(t, "received an unexpected refresh call")
	case <-testCtx.Done():
	}
}

func Test_NextIntervalWithRandomness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	refresher := &fakeRefresher{make(chan struct{})}
	rt, err := NewRefreshTicker(ctx, refresher, WithIntervalRandomizationFactor(ctx, .2))
	require.NoError(t, err)

	interval := 10 * time.Second
	max, min := interval, interval
	for i := 0; i < 100; i++ {
		got := rt.nextIntervalWithRandomness(10 * time.Second)
		if got > max {
			max = got
		}
		if got < min {
			min = got
		}
	}
	assert.GreaterOrEqual(t, min, 8*time.Second)
	assert.LessOrEqual(t, max, 12*time.Second)
	assert.Less(t, min, interval)
	assert.Greater(t, max, interval)
}

func Test_Ticker_KeepsRunningAfterFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	refresher := &erroringRefresher{called: make(chan struct{}), fails: 1}
	rt, err := NewRefreshTicker(ctx, refresher)
	require.NoError(t, err)

	tickerCtx, tickerCancel := context.WithCancel(ctx)
	go rt.Start(tickerCtx)
	t.Cleanup(func() {
		tickerCancel()
	})

	// the startup refresh fails
	<-refresher.called

	// the loop is still alive to serve the manual kick
	rt.Refresh()
	select {
	case <-refresher.called:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "ticker didn't survive the failed refresh")
	}
}

func Test_Ticker_StopsWhenStoreDestroyed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	require := require.New(t)

	s, err := NewStore(ctx, NewTestLister(t), NewTestIssuer(t))
	require.NoError(err)
	require.NoError(s.Destroy(ctx))

	rt, err := NewRefreshTicker(ctx, s)
	require.NoError(err)

	done := make(chan struct{})
	go func() {
		rt.Start(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.FailNow("ticker kept running against a destroyed store")
	}
}

func Test_Ticker_RefreshesStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert, require := assert.New(t), require.New(t)

	mediaRead := TestGrant(t, "s3://media/*", "READ", "")
	lister := NewTestLister(t, mediaRead)
	s, err := NewStore(ctx, lister, NewTestIssuer(t))
	require.NoError(err)

	rt, err := NewRefreshTicker(ctx, s, WithRefreshInterval(ctx, time.Hour))
	require.NoError(err)
	tickerCtx, tickerCancel := context.WithCancel(ctx)
	t.Cleanup(tickerCancel)
	go rt.Start(tickerCtx)

	// the startup refresh installs the first snapshot
	require.Eventually(func() bool { return s.directory.snap.Load() != nil }, 2*time.Second, time.Millisecond)
	assert.Len(s.directory.snap.Load().all(), 1)

	// a manual kick picks up grants created since
	logsRead := TestGrant(t, "s3://app-data/logs/*", "READ", "")
	lister.SetGrants(mediaRead, logsRead)
	rt.Refresh()
	require.Eventually(func() bool {
		snap := s.directory.snap.Load()
		return snap != nil && len(snap.all()) == 2
	}, 2*time.Second, time.Millisecond)
}

type fakeRefresher struct {
	called chan struct{}
}

func (r *fakeRefresher) Refresh(context.Context) error {
	r.called <- struct{}{}
	return nil
}

// erroringRefresher fails its first fails refreshes.  It's only driven by
// the single ticker loop goroutine.
type erroringRefresher struct {
	called chan struct{}
	fails  int
}

func (r *erroringRefresher) Refresh(context.Context) error {
	r.called <- struct{}{}
	if r.fails > 0 {
		r.fails--
		return fmt.Errorf("refresh failed")
	}
	return nil
}

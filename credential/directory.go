// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package credential

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-accessgrants/grant"
	"github.com/hashicorp/go-accessgrants/internal/errors"
	"github.com/hashicorp/go-accessgrants/internal/event"
	"github.com/hashicorp/go-accessgrants/internal/metric"
	"github.com/hashicorp/go-accessgrants/internal/util"
	ua "go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

const (
	// defaultPageRetryInterval is the wait before a failed listing page's
	// single retry
	defaultPageRetryInterval = 100 * time.Millisecond

	// listPageRetries is how many times a failed listing page is retried
	listPageRetries = 1
)

// snapshot is one immutable result of walking the full grant listing.  A
// snapshot is never mutated after it's built; the Directory replaces it
// wholesale.
type snapshot struct {
	// grants holds every listed grant, in listing order
	grants []grant.Grant

	// byBucket indexes the grants by their scope's bucket
	byBucket map[string][]grant.Grant

	// loadedAt is when the listing walk finished
	loadedAt time.Time
}

func newSnapshot(grants []grant.Grant) *snapshot {
	s := &snapshot{
		grants:   grants,
		byBucket: make(map[string][]grant.Grant, len(grants)),
		loadedAt: time.Now(),
	}
	for _, g := range grants {
		s.byBucket[g.Scope.Bucket] = append(s.byBucket[g.Scope.Bucket], g)
	}
	return s
}

// grantsFor returns the grants which could cover scopes in bucket, which
// includes the bucket's whole-bucket grants.
func (s *snapshot) grantsFor(bucket string) []grant.Grant {
	return s.byBucket[bucket]
}

// all returns every grant in the snapshot.
func (s *snapshot) all() []grant.Grant {
	return s.grants
}

// A Directory holds the set of access grants issued for the storage
// namespace.  It walks the full paginated listing through its GrantLister
// and installs the result as an immutable snapshot behind an atomic
// pointer, so lookups never observe a partially built listing.  Loads are
// coalesced: concurrent callers needing a (re)load share one listing walk.
type Directory struct {
	lister GrantLister

	// snap is nil until the first successful load
	snap *ua.Pointer[snapshot]

	// loadGroup coalesces concurrent listing walks
	loadGroup singleflight.Group

	pageRetryInterval time.Duration
}

// NewDirectory creates a Directory which pulls grants from the provided
// lister.  Supported options: WithPageRetryInterval.
func NewDirectory(ctx context.Context, lister GrantLister, opt ...Option) (*Directory, error) {
	const op = "credential.NewDirectory"
	if util.IsNil(lister) {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing grant lister")
	}
	opts, err := getOpts(opt...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidParameter))
	}
	return &Directory{
		lister:            lister,
		snap:              ua.NewPointer[snapshot](nil),
		pageRetryInterval: opts.withPageRetryInterval,
	}, nil
}

// load returns a grant snapshot, walking the listing to build one when
// force is true or no snapshot is installed yet.  Concurrent walks are
// coalesced into one; a caller whose ctx ends while waiting gets its ctx
// error without canceling the walk for the other waiters.  A failed walk
// reports an error with code GrantListing and leaves the previous snapshot
// in place.
func (d *Directory) load(ctx context.Context, force bool) (*snapshot, error) {
	const op = "credential.(Directory).load"
	if !force {
		if snap := d.snap.Load(); snap != nil {
			return snap, nil
		}
	}

	ch := d.loadGroup.DoChan("listing", func() (any, error) {
		// the walk is shared by every waiter, so it must not end with the
		// first waiter that gives up
		return d.walk(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			// the walk evented the failure once for all of its waiters
			return nil, errors.Wrap(ctx, res.Err, op, errors.WithoutEvent())
		}
		return res.Val.(*snapshot), nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx, ctx.Err(), op,
			errors.WithCode(errors.GrantListing),
			errors.WithMsg("grant listing abandoned"),
			errors.WithoutEvent())
	}
}

// walk pulls every page of the grant listing and installs the result as
// the new snapshot.
func (d *Directory) walk(ctx context.Context) (*snapshot, error) {
	const op = "credential.(Directory).walk"
	var grants []grant.Grant
	var pageToken string
	for {
		page, err := d.listPage(ctx, pageToken)
		if err != nil {
			metric.IncSnapshotLoadFailure()
			return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.GrantListing),
				errors.WithMsg("grant listing failed"))
		}
		grants = append(grants, page.Grants...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	snap := newSnapshot(grants)
	d.snap.Store(snap)
	metric.SetSnapshotGrants(len(snap.grants))
	return snap, nil
}

// listPage fetches one page of the listing, retrying once after
// pageRetryInterval when the fetch fails.
func (d *Directory) listPage(ctx context.Context, pageToken string) (*GrantPage, error) {
	const op = "credential.(Directory).listPage"
	var page *GrantPage
	err := backoff.RetryNotify(
		func() error {
			var err error
			page, err = d.lister.ListAccessGrants(ctx, pageToken)
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return backoff.Permanent(err)
			case err != nil:
				return err
			case page == nil:
				return backoff.Permanent(errors.New(ctx, errors.GrantListing, op,
					"lister returned no page and no error", errors.WithoutEvent()))
			}
			return nil
		},
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(d.pageRetryInterval), listPageRetries), ctx),
		func(err error, _ time.Duration) {
			event.WriteSysEvent(ctx, op, "retrying grant listing page",
				"page_token", pageToken, "error", err.Error())
		},
	)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithoutEvent(),
			errors.WithMsg("listing page with token %q", pageToken))
	}
	return page, nil
}

// clear drops the current snapshot.
func (d *Directory) clear() {
	d.snap.Store(nil)
}

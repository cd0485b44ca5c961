// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package credential

import (
	"context"
	"time"

	"github.com/hashicorp/go-accessgrants/grant"
	"github.com/hashicorp/go-accessgrants/internal/errors"
	"github.com/hashicorp/go-accessgrants/internal/event"
	"github.com/hashicorp/go-accessgrants/internal/util"
	ua "go.uber.org/atomic"
	"golang.org/x/time/rate"
)

// A Store resolves locations in the storage namespace to temporary
// credentials.  It matches a requested location and permission against its
// Directory's grant snapshot and serves credentials for the winning grant
// from its Cache.  A Store is safe for concurrent use.  The zero value
// isn't usable; build one with NewStore.
type Store struct {
	lister    GrantLister
	directory *Directory
	cache     *Cache

	// refreshLimiter damps the forced snapshot reloads triggered by
	// unmatched requests
	refreshLimiter *rate.Limiter

	// destroyed flips once, in Destroy
	destroyed *ua.Bool
}

// NewStore assembles a Store over the two storage-service collaborators: a
// GrantLister walking the service's access grant listing and a
// CredentialIssuer minting temporary credentials for a single grant.
// Supported options: WithExpiryMargin, WithPageRetryInterval,
// WithRefreshLimiter.
func NewStore(ctx context.Context, lister GrantLister, issuer CredentialIssuer, opt ...Option) (*Store, error) {
	const op = "credential.NewStore"
	switch {
	case util.IsNil(lister):
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing grant lister")
	case util.IsNil(issuer):
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing credential issuer")
	}
	opts, err := getOpts(opt...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidParameter))
	}
	directory, err := NewDirectory(ctx, lister, opt...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	cache, err := NewCache(ctx, issuer, opt...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	return &Store{
		lister:         lister,
		directory:      directory,
		cache:          cache,
		refreshLimiter: opts.withRefreshLimiter,
		destroyed:      ua.NewBool(false),
	}, nil
}

// GetProvider resolves a requested location and permission to the most
// specific covering grant, returning a Provider bound to that grant.  When
// the current snapshot has no covering grant, the directory is reloaded
// once and the match retried before the miss is reported, since the grant
// may have been created after the snapshot was taken.  Misses report code
// NoGrantMatch; an unparsable scope reports InvalidScope.
func (s *Store) GetProvider(ctx context.Context, scope string, permission grant.Permission) (*Provider, error) {
	const op = "credential.(Store).GetProvider"
	start := time.Now()
	if err := s.active(ctx, op); err != nil {
		return nil, err
	}
	requested, err := grant.ParseScope(ctx, scope)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	if permission == grant.PermissionUnknown {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing requested permission")
	}

	g, err := s.resolve(ctx, requested, permission)
	if err != nil {
		s.observe(ctx,
			"operation", "get-provider",
			"requested_scope", requested.String(),
			"requested_permission", permission.String(),
			"outcome", "failed",
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	s.observe(ctx,
		"operation", "get-provider",
		"requested_scope", requested.String(),
		"requested_permission", permission.String(),
		"outcome", "resolved",
		"grant", g.String(),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return &Provider{store: s, grant: g}, nil
}

// resolve finds the most specific grant covering the request, reloading the
// snapshot once when the current one has no match.
func (s *Store) resolve(ctx context.Context, requested grant.Scope, permission grant.Permission) (grant.Grant, error) {
	const op = "credential.(Store).resolve"
	snap, err := s.directory.load(ctx, false)
	if err != nil {
		return grant.Grant{}, errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	g, missErr := grant.Match(ctx, snap.grantsFor(requested.Bucket), requested, permission)
	switch {
	case missErr == nil:
		return g, nil
	case !errors.IsNoGrantMatchError(missErr):
		return grant.Grant{}, errors.Wrap(ctx, missErr, op, errors.WithoutEvent())
	}

	// The snapshot may predate a grant covering the request.  Within the
	// refresh limiter's budget, reload once and match again.
	if !s.refreshLimiter.Allow() {
		return grant.Grant{}, errors.Wrap(ctx, missErr, op, errors.WithoutEvent())
	}
	snap, err = s.directory.load(ctx, true)
	if err != nil {
		// the reload failure was evented by the walk; the miss stands
		return grant.Grant{}, errors.Wrap(ctx, missErr, op, errors.WithoutEvent())
	}
	g, err = grant.Match(ctx, snap.grantsFor(requested.Bucket), requested, permission)
	if err != nil {
		return grant.Grant{}, errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	return g, nil
}

// ListGrants returns one page of the raw grant listing, passed straight
// through from the listing collaborator.  An empty pageToken requests the
// first page; the returned page's NextPageToken walks the rest.  Failures
// report code GrantListing.
func (s *Store) ListGrants(ctx context.Context, pageToken string) (*GrantPage, error) {
	const op = "credential.(Store).ListGrants"
	if err := s.active(ctx, op); err != nil {
		return nil, err
	}
	page, err := s.lister.ListAccessGrants(ctx, pageToken)
	switch {
	case err != nil:
		return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.GrantListing),
			errors.WithMsg("listing grants"))
	case page == nil:
		return nil, errors.New(ctx, errors.GrantListing, op, "lister returned no page and no error")
	}
	return page, nil
}

// Refresh walks the grant listing and installs a fresh snapshot.  The
// refresh limiter doesn't apply; Refresh always walks.
func (s *Store) Refresh(ctx context.Context) error {
	const op = "credential.(Store).Refresh"
	if err := s.active(ctx, op); err != nil {
		return err
	}
	if _, err := s.directory.load(ctx, true); err != nil {
		return errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	return nil
}

// Destroy retires the store: cached credentials are dropped, the grant
// snapshot is released, and every subsequent call on the store or on any
// Provider it handed out fails with code StoreDestroyed.  Destroying an
// already destroyed store is a no-op.
func (s *Store) Destroy(ctx context.Context) error {
	const op = "credential.(Store).Destroy"
	if !s.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	s.cache.InvalidateAll()
	s.directory.clear()
	event.WriteSysEvent(ctx, op, "credential store destroyed")
	return nil
}

// active reports an error with code StoreDestroyed once Destroy has begun.
func (s *Store) active(ctx context.Context, op errors.Op) error {
	if s.destroyed.Load() {
		return errors.New(ctx, errors.StoreDestroyed, op, "store has been destroyed")
	}
	return nil
}

// observe writes an observation event when an eventer is configured, and
// quietly does nothing otherwise.
func (s *Store) observe(ctx context.Context, details ...any) {
	const op = "credential.(Store).observe"
	if _, ok := event.EventerFromContext(ctx); !ok && event.SysEventer() == nil {
		return
	}
	if err := event.WriteObservation(ctx, op, event.WithDetails(details...)); err != nil {
		event.WriteError(ctx, op, err)
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package credential

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-accessgrants/grant"
	"github.com/hashicorp/go-accessgrants/internal/errors"
	"github.com/hashicorp/go-accessgrants/internal/metric"
	"github.com/hashicorp/go-accessgrants/internal/util"
	"golang.org/x/sync/singleflight"
)

// A Cache holds issued credentials keyed by their grant, serving repeated
// requests for a grant without a round trip to the issuer until its
// credentials come within the expiry margin of expiring.  Fetches for one
// grant are coalesced, so a burst of requests for an uncached grant costs a
// single issuance.
type Cache struct {
	issuer CredentialIssuer

	l     sync.RWMutex
	creds map[string]Credentials

	// fetchGroup coalesces concurrent issuances per cache key
	fetchGroup singleflight.Group

	expiryMargin time.Duration

	// now is swappable in tests
	now func() time.Time
}

// NewCache creates a Cache whose credentials are issued by the provided
// issuer.  Supported options: WithExpiryMargin.
func NewCache(ctx context.Context, issuer CredentialIssuer, opt ...Option) (*Cache, error) {
	const op = "credential.NewCache"
	if util.IsNil(issuer) {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing credential issuer")
	}
	opts, err := getOpts(opt...)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithCode(errors.InvalidParameter))
	}
	return &Cache{
		issuer:       issuer,
		creds:        make(map[string]Credentials),
		expiryMargin: opts.withExpiryMargin,
		now:          time.Now,
	}, nil
}

// GetOrFetch returns credentials for g, from the cache when a usable record
// is present and from the issuer otherwise.  Concurrent calls for one grant
// share a single issuance; a caller whose ctx ends while waiting gets its
// ctx error, while the issuance itself runs to completion and populates the
// cache for the remaining waiters.  Issuance failures report code
// CredentialIssuance and are never cached.
func (c *Cache) GetOrFetch(ctx context.Context, g grant.Grant) (Credentials, error) {
	const op = "credential.(Cache).GetOrFetch"
	if err := validGrantParam(ctx, op, g); err != nil {
		return Credentials{}, err
	}
	key := g.CacheKey()
	if cred, ok := c.get(key); ok {
		metric.RecordCacheLookup(true)
		return cred, nil
	}
	metric.RecordCacheLookup(false)

	ch := c.fetchGroup.DoChan(key, func() (any, error) {
		// a fetch that lost the race to a just-finished one finds the
		// record it needs already stored
		if cred, ok := c.get(key); ok {
			return cred, nil
		}
		// the issuance is shared by every waiter, so it must not end with
		// the first waiter that gives up
		return c.issue(context.WithoutCancel(ctx), g, key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			// the issuance evented the failure once for all of its waiters
			return Credentials{}, errors.Wrap(ctx, res.Err, op, errors.WithoutEvent())
		}
		return res.Val.(Credentials), nil
	case <-ctx.Done():
		return Credentials{}, errors.Wrap(ctx, ctx.Err(), op,
			errors.WithCode(errors.CredentialIssuance),
			errors.WithMsg("credential fetch abandoned"),
			errors.WithoutEvent())
	}
}

// Invalidate drops g's cached credentials, if any.  An in-flight fetch for
// g is detached, so a later GetOrFetch issues anew instead of adopting the
// detached fetch's result.
func (c *Cache) Invalidate(g grant.Grant) {
	key := g.CacheKey()
	c.l.Lock()
	delete(c.creds, key)
	c.l.Unlock()
	c.fetchGroup.Forget(key)
}

// InvalidateAll drops every cached credentials record.
func (c *Cache) InvalidateAll() {
	c.l.Lock()
	defer c.l.Unlock()
	c.creds = make(map[string]Credentials)
}

// get returns the cached credentials for key when they're still usable.
func (c *Cache) get(key string) (Credentials, bool) {
	c.l.RLock()
	defer c.l.RUnlock()
	cred, ok := c.creds[key]
	if !ok || !cred.usableAt(c.now(), c.expiryMargin) {
		return Credentials{}, false
	}
	return cred, true
}

// issue has the issuer mint credentials for g and stores the result.
func (c *Cache) issue(ctx context.Context, g grant.Grant, key string) (Credentials, error) {
	const op = "credential.(Cache).issue"
	start := time.Now()
	cred, err := c.issuer.IssueCredentials(ctx, g)
	metric.ObserveIssuance(time.Since(start), err)
	if err != nil {
		return Credentials{}, errors.Wrap(ctx, err, op,
			errors.WithCode(errors.CredentialIssuance),
			errors.WithMsg("issuing credentials for grant %s", g.String()))
	}
	c.l.Lock()
	c.creds[key] = cred
	c.l.Unlock()
	return cred, nil
}

// validGrantParam checks the grant fields every caller must provide.
func validGrantParam(ctx context.Context, op errors.Op, g grant.Grant) error {
	switch {
	case g.Scope.Bucket == "":
		return errors.New(ctx, errors.InvalidParameter, op, "missing grant scope")
	case g.Permission == grant.PermissionUnknown:
		return errors.New(ctx, errors.InvalidParameter, op, "missing grant permission")
	}
	return nil
}

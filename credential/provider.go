// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package credential

import (
	"context"

	"github.com/hashicorp/go-accessgrants/grant"
	"github.com/hashicorp/go-accessgrants/internal/errors"
)

// A Provider hands out credentials for the single grant it was bound to by
// Store.GetProvider.  Every Credentials call re-checks the cached record's
// freshness, so a long-lived Provider keeps returning usable credentials
// across expirations.  A Provider is safe for concurrent use.
type Provider struct {
	store *Store
	grant grant.Grant
}

// Grant returns the grant the provider is bound to.
func (p *Provider) Grant() grant.Grant {
	return p.grant
}

// Credentials returns credentials for the provider's grant, from the
// store's cache when a usable record is present and freshly issued
// otherwise.  It fails with code StoreDestroyed once the store has been
// destroyed.
func (p *Provider) Credentials(ctx context.Context) (Credentials, error) {
	const op = "credential.(Provider).Credentials"
	if p.store == nil {
		return Credentials{}, errors.New(ctx, errors.InvalidParameter, op, "missing store")
	}
	if err := p.store.active(ctx, op); err != nil {
		return Credentials{}, err
	}
	cred, err := p.store.cache.GetOrFetch(ctx, p.grant)
	if err != nil {
		return Credentials{}, errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	return cred, nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package grant

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-accessgrants/internal/errors"
)

// Grant is a pre-issued authorization to access a scope with a permission,
// optionally restricted to a single application.  Grants are immutable once
// listed; their identity is the full (scope, permission, application)
// triple.
type Grant struct {
	// Scope is the location the grant covers.
	Scope Scope `json:"scope"`

	// Permission is the level of access the grant conveys.
	Permission Permission `json:"permission"`

	// ApplicationArn optionally restricts the grant to requests made on
	// behalf of a single application.  Empty means unrestricted.
	ApplicationArn string `json:"application_arn,omitempty"`
}

// CacheKey renders the grant's identity triple for use as a map key.  The
// application arn comes last and its character set excludes the separator,
// so distinct triples always render distinct keys.
func (g Grant) CacheKey() string {
	return g.Scope.String() + "#" + g.Permission.String() + "#" + g.ApplicationArn
}

// String renders the grant for logs and events
func (g Grant) String() string {
	if g.ApplicationArn == "" {
		return fmt.Sprintf("%s on %s", g.Permission, g.Scope)
	}
	return fmt.Sprintf("%s on %s (application %s)", g.Permission, g.Scope, g.ApplicationArn)
}

// validate checks that the grant carries a well formed scope and a known
// permission.
func (g Grant) validate(ctx context.Context) error {
	const op = "grant.(Grant).validate"
	if err := g.Scope.validate(ctx); err != nil {
		return errors.Wrap(ctx, err, op)
	}
	if g.Permission == PermissionUnknown {
		return errors.New(ctx, errors.InvalidParameter, op, "missing permission")
	}
	return nil
}

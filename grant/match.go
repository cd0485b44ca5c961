// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package grant

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-accessgrants/internal/errors"
)

// Match selects the grant which best covers the requested scope and
// permission from the provided grants.  It is a pure function over the
// slice: the grants are never mutated and the result does not depend on
// their order.
//
// A grant is a candidate when its scope covers the requested scope and its
// permission satisfies the requested permission.  Among candidates the most
// specific wins: an object grant beats a prefix grant beats a bucket grant,
// and grants of the same kind are ordered by path length (longer is more
// specific).  Remaining ties are broken deterministically: the
// lexicographically smaller scope string wins, then an exact permission
// match beats a READWRITE subsumption, then the lexicographically smaller
// application arn (empty first).
//
// If no grant is a candidate, Match fails with errors.NoGrantMatch.
func Match(ctx context.Context, grants []Grant, requested Scope, requestedPermission Permission) (Grant, error) {
	const op = "grant.Match"
	if err := requested.validate(ctx); err != nil {
		return Grant{}, errors.Wrap(ctx, err, op)
	}
	if requestedPermission == PermissionUnknown {
		return Grant{}, errors.New(ctx, errors.InvalidParameter, op, "missing requested permission")
	}

	var best Grant
	var found bool
	for _, g := range grants {
		if !g.Scope.Covers(requested) || !g.Permission.Satisfies(requestedPermission) {
			continue
		}
		if !found || moreSpecific(g, best, requestedPermission) {
			best = g
			found = true
		}
	}
	if !found {
		return Grant{}, errors.New(ctx, errors.NoGrantMatch, op,
			fmt.Sprintf("no grant covers %s on %s", requestedPermission, requested),
			errors.WithoutEvent())
	}
	return best, nil
}

// moreSpecific reports whether candidate a should be selected over
// candidate b.  It is a strict total order over distinct grants, which
// keeps the selection independent of listing order.
func moreSpecific(a, b Grant, requested Permission) bool {
	if as, bs := a.Scope.specificity(), b.Scope.specificity(); as != bs {
		return as > bs
	}
	if al, bl := a.Scope.pathLen(), b.Scope.pathLen(); al != bl {
		return al > bl
	}
	if ascope, bscope := a.Scope.String(), b.Scope.String(); ascope != bscope {
		return ascope < bscope
	}
	if aExact, bExact := a.Permission == requested, b.Permission == requested; aExact != bExact {
		return aExact
	}
	return a.ApplicationArn < b.ApplicationArn
}

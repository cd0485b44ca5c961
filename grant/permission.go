// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package grant

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-accessgrants/internal/errors"
)

// Permission defines the levels of access a grant conveys
type Permission uint8

const (
	PermissionUnknown   Permission = 0
	PermissionRead      Permission = 1
	PermissionWrite     Permission = 2
	PermissionReadWrite Permission = 3
)

// String returns the permission's wire value
func (p Permission) String() string {
	return [...]string{
		"UNKNOWN",
		"READ",
		"WRITE",
		"READWRITE",
	}[p]
}

// ParsePermission parses the wire value of a permission (READ, WRITE or
// READWRITE, case insensitive), failing with errors.InvalidParameter for
// anything else.
func ParsePermission(ctx context.Context, s string) (Permission, error) {
	const op = "grant.ParsePermission"
	switch {
	case strings.EqualFold(s, PermissionRead.String()):
		return PermissionRead, nil
	case strings.EqualFold(s, PermissionWrite.String()):
		return PermissionWrite, nil
	case strings.EqualFold(s, PermissionReadWrite.String()):
		return PermissionReadWrite, nil
	default:
		return PermissionUnknown, errors.New(ctx, errors.InvalidParameter, op, fmt.Sprintf("%q is not a valid permission", s))
	}
}

// Satisfies reports whether a grant carrying the permission satisfies a
// request for the requested permission: true iff the permissions are equal
// or the grant's permission is READWRITE.  READ and WRITE do not satisfy
// each other, and a READWRITE request is satisfied only by READWRITE.
func (p Permission) Satisfies(requested Permission) bool {
	switch {
	case p == PermissionUnknown || requested == PermissionUnknown:
		return false
	case p == requested:
		return true
	default:
		return p == PermissionReadWrite
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package grant provides the domain types for location-scoped access grants:
// scopes addressing a bucket, prefix or object within an object-storage
// namespace, the permission lattice over READ/WRITE/READWRITE, and the
// matcher which selects the most specific grant covering a requested
// location.
package grant

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-accessgrants/internal/errors"
)

// ScopeKind defines the kinds of scopes in the system
type ScopeKind int

const (
	KindUnknown ScopeKind = 0
	KindBucket  ScopeKind = 1
	KindPrefix  ScopeKind = 2
	KindObject  ScopeKind = 3
)

func (k ScopeKind) String() string {
	return [...]string{
		"unknown",
		"bucket",
		"prefix",
		"object",
	}[k]
}

// scheme is the uri scheme which starts every scope string
const scheme = "s3://"

// Scope addresses a location within the storage namespace.  Exactly one of
// the three shapes is populated, consistent with Kind:
//
//   - KindBucket: only Bucket is set and the scope covers the entire bucket
//   - KindPrefix: Prefix is set and acts as a wildcard over every key
//     beginning with it
//   - KindObject: Key is set and the scope covers exactly that object
type Scope struct {
	// Bucket is the bucket containing the location.  It is always set.
	Bucket string `json:"bucket"`

	// Prefix is the key prefix for a KindPrefix scope.  When the scope was
	// written with a separating slash (s3://bucket/logs/*) the trailing
	// slash is retained, so coverage checks cannot accidentally cross a
	// path segment boundary.
	Prefix string `json:"prefix,omitempty"`

	// Key is the object key for a KindObject scope.
	Key string `json:"key,omitempty"`

	// Kind is the kind of location the scope addresses.
	Kind ScopeKind `json:"kind"`
}

// ParseScope parses a textual scope into a Scope.  Three shapes are
// recognized:
//
//	s3://bucket/*         the entire bucket
//	s3://bucket/<prefix>* every key beginning with <prefix>
//	s3://bucket/<key>     exactly the object <key>
//
// Anything else (missing scheme, empty bucket, a bare bucket with no path,
// an interior wildcard) fails with errors.InvalidScope.
func ParseScope(ctx context.Context, s string) (Scope, error) {
	const op = "grant.ParseScope"
	if s == "" {
		return Scope{}, errors.New(ctx, errors.InvalidScope, op, "missing scope")
	}
	if !strings.HasPrefix(s, scheme) {
		return Scope{}, errors.New(ctx, errors.InvalidScope, op, fmt.Sprintf("%q does not begin with %s", s, scheme))
	}
	rest := strings.TrimPrefix(s, scheme)
	bucket, path, found := strings.Cut(rest, "/")
	switch {
	case bucket == "":
		return Scope{}, errors.New(ctx, errors.InvalidScope, op, fmt.Sprintf("%q is missing a bucket", s))
	case strings.Contains(bucket, "*"):
		return Scope{}, errors.New(ctx, errors.InvalidScope, op, fmt.Sprintf("%q contains a wildcard in its bucket", s))
	case !found:
		return Scope{}, errors.New(ctx, errors.InvalidScope, op, fmt.Sprintf("%q has no path after its bucket", s))
	}
	switch {
	case path == "*":
		return Scope{Bucket: bucket, Kind: KindBucket}, nil
	case strings.HasSuffix(path, "*"):
		prefix := strings.TrimSuffix(path, "*")
		if strings.Contains(prefix, "*") {
			return Scope{}, errors.New(ctx, errors.InvalidScope, op, fmt.Sprintf("%q contains an interior wildcard", s))
		}
		return Scope{Bucket: bucket, Prefix: prefix, Kind: KindPrefix}, nil
	case path == "":
		return Scope{}, errors.New(ctx, errors.InvalidScope, op, fmt.Sprintf("%q has an empty path after its bucket", s))
	case strings.Contains(path, "*"):
		return Scope{}, errors.New(ctx, errors.InvalidScope, op, fmt.Sprintf("%q contains an interior wildcard", s))
	default:
		return Scope{Bucket: bucket, Key: path, Kind: KindObject}, nil
	}
}

// String reconstructs the canonical textual form of the scope.  Parsing the
// returned string yields an equal Scope for all three kinds.
func (s Scope) String() string {
	switch s.Kind {
	case KindBucket:
		return scheme + s.Bucket + "/*"
	case KindPrefix:
		return scheme + s.Bucket + "/" + s.Prefix + "*"
	case KindObject:
		return scheme + s.Bucket + "/" + s.Key
	default:
		return ""
	}
}

// Covers reports whether the scope covers the requested scope:
//
//   - a KindBucket scope covers any requested scope in the same bucket
//   - a KindPrefix scope covers a requested KindObject or KindPrefix scope
//     in the same bucket whose key or prefix begins with the scope's prefix
//     (the scope's own prefix included); it never covers a KindBucket
//     request
//   - a KindObject scope covers only a requested KindObject scope in the
//     same bucket with an identical key
//
// A prefix written with a separating slash retains that slash, so logs/
// covers logs/a.txt but not logslegacy/a.txt.  A prefix written with a bare
// trailing wildcard (s3://b/logs*) matches mid-segment, covering both.
func (s Scope) Covers(requested Scope) bool {
	if s.Bucket != requested.Bucket {
		return false
	}
	switch s.Kind {
	case KindBucket:
		return true
	case KindPrefix:
		switch requested.Kind {
		case KindObject:
			return strings.HasPrefix(requested.Key, s.Prefix)
		case KindPrefix:
			return strings.HasPrefix(requested.Prefix, s.Prefix)
		default:
			return false
		}
	case KindObject:
		return requested.Kind == KindObject && s.Key == requested.Key
	default:
		return false
	}
}

// validate checks the scope's shape invariant: exactly one of bucket-only,
// prefix or object is populated, consistent with Kind.
func (s Scope) validate(ctx context.Context) error {
	const op = "grant.(Scope).validate"
	if s.Bucket == "" {
		return errors.New(ctx, errors.InvalidScope, op, "missing bucket")
	}
	switch s.Kind {
	case KindBucket:
		if s.Prefix != "" || s.Key != "" {
			return errors.New(ctx, errors.InvalidScope, op, "bucket scope with a prefix or key")
		}
	case KindPrefix:
		if s.Prefix == "" {
			return errors.New(ctx, errors.InvalidScope, op, "prefix scope with no prefix")
		}
		if s.Key != "" {
			return errors.New(ctx, errors.InvalidScope, op, "prefix scope with a key")
		}
	case KindObject:
		if s.Key == "" {
			return errors.New(ctx, errors.InvalidScope, op, "object scope with no key")
		}
		if s.Prefix != "" {
			return errors.New(ctx, errors.InvalidScope, op, "object scope with a prefix")
		}
	default:
		return errors.New(ctx, errors.InvalidScope, op, "unknown scope kind")
	}
	return nil
}

// specificity orders scope kinds from most to least specific: an object
// scope beats a prefix scope beats a bucket scope.
func (s Scope) specificity() int {
	switch s.Kind {
	case KindObject:
		return 3
	case KindPrefix:
		return 2
	case KindBucket:
		return 1
	default:
		return 0
	}
}

// pathLen is the length of the scope's path component, used to break
// specificity ties between scopes of the same kind (a longer path is more
// specific).
func (s Scope) pathLen() int {
	switch s.Kind {
	case KindObject:
		return len(s.Key)
	case KindPrefix:
		return len(s.Prefix)
	default:
		return 0
	}
}

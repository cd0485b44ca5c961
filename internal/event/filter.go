// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-bexpr"
)

// filter wraps a bexpr evaluator for matching events against a predicate
type filter struct {
	raw  string
	eval *bexpr.Evaluator
}

// newFilter returns a Filter which can be matched against.
func newFilter(f string) (*filter, error) {
	const op = "event.newFilter"
	if f == "" {
		return nil, fmt.Errorf("%s: missing filter: %w", op, ErrInvalidParameter)
	}
	e, err := bexpr.CreateEvaluator(f, bexpr.WithTagName("json"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &filter{eval: e, raw: f}, nil
}

// Match returns if the provided interface matches the filter. If the filter
// does not match the structure of the object being Matched, false is
// returned.
func (f *filter) Match(item any) bool {
	if f.eval == nil {
		return true
	}
	if m, err := f.eval.Evaluate(item); err == nil && m {
		return true
	}
	return false
}

// newPredicate builds a predicate func from a set of optional allow and deny
// filters. Events that match a deny filter are always discarded; when any
// allow filters are defined an event must match at least one of them to be
// kept.
func newPredicate(allow, deny []*filter) func(ctx context.Context, i any) (bool, error) {
	return func(_ context.Context, i any) (bool, error) {
		if len(allow) == 0 && len(deny) == 0 {
			return true, nil
		}
		for _, f := range deny {
			if f.Match(i) {
				return false, nil
			}
		}
		switch {
		case len(allow) > 0:
			for _, f := range allow {
				if f.Match(i) {
					return true, nil
				}
			}
			return false, nil
		default:
			return true, nil
		}
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import "errors"

// The event package uses its own small set of sentinel errors (matched via
// stderrors.Is) instead of the domain errors package, which would otherwise
// create a circular dependency since that package emits error events.
var (
	// ErrInvalidParameter represents an invalid parameter error
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrMaxRetries represents a max retries error for sending events
	ErrMaxRetries = errors.New("too many retries")

	// ErrIo represents an io error during event processing
	ErrIo = errors.New("error during io operation")
)

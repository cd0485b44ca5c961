// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

// Code specifies a code for the error.
type Code uint32

// String will return the Code's Info.Message
func (c Code) String() string {
	return c.Info().Message
}

// Info will look up the Code's Info.  If the Info is not found, it will return
// Info for an Unknown Code.
func (c Code) Info() Info {
	if info, ok := errorCodeInfo[c]; ok {
		return info
	}
	return errorCodeInfo[Unknown]
}

const (
	Unknown Code = 0 // Unknown will be equal to a zero value for Codes

	// General function errors are reserved Codes 100-999
	InvalidParameter Code = 100 // InvalidParameter represents an invalid parameter for an operation.
	InvalidScope     Code = 101 // InvalidScope represents a location scope which doesn't conform to any of the recognized shapes.

	// Lifecycle errors are reserved Codes 1000-1099
	StoreDestroyed Code = 1000 // StoreDestroyed represents an operation on a store which has been destroyed.

	// Lookup errors are reserved Codes 1100-1199
	NoGrantMatch Code = 1100 // NoGrantMatch represents that no grant in the directory covers a location.

	// External system errors are reserved Codes 3000-3999
	GrantListing       Code = 3000 // GrantListing represents a failure walking the remote grant listing.
	CredentialIssuance Code = 3001 // CredentialIssuance represents a failure minting credentials for a matched grant.
	Unavailable        Code = 3002 // Unavailable represents that an external system was unavailable.
	Forbidden          Code = 3003 // Forbidden represents that an external system denied the request.

	// Configuration errors are reserved Codes 5000-5999
	InvalidConfiguration Code = 5000 // InvalidConfiguration represents an invalid configuration for an operation.
)

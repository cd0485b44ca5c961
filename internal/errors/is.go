// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

import "errors"

// IsInvalidScopeError returns a boolean indicating whether the error is known
// to report a malformed location scope.
func IsInvalidScopeError(err error) bool {
	if err == nil {
		return false
	}

	var domainErr *Err
	if errors.As(err, &domainErr) {
		if domainErr.Code == InvalidScope {
			return true
		}
	}

	return false
}

// IsNoGrantMatchError returns a boolean indicating whether the error is known
// to report that no grant covers a location.
func IsNoGrantMatchError(err error) bool {
	if err == nil {
		return false
	}

	var domainErr *Err
	if errors.As(err, &domainErr) {
		if domainErr.Code == NoGrantMatch {
			return true
		}
	}

	return false
}

// IsStoreDestroyedError returns a boolean indicating whether the error is
// known to report an operation against a destroyed store.
func IsStoreDestroyedError(err error) bool {
	if err == nil {
		return false
	}

	var domainErr *Err
	if errors.As(err, &domainErr) {
		if domainErr.Code == StoreDestroyed {
			return true
		}
	}

	return false
}

// IsGrantListingError returns a boolean indicating whether the error is known
// to report a failed walk of the remote grant listing.
func IsGrantListingError(err error) bool {
	if err == nil {
		return false
	}

	var domainErr *Err
	if errors.As(err, &domainErr) {
		if domainErr.Code == GrantListing {
			return true
		}
	}

	return false
}

// IsCredentialIssuanceError returns a boolean indicating whether the error is
// known to report a failure minting credentials for a grant.
func IsCredentialIssuanceError(err error) bool {
	if err == nil {
		return false
	}

	var domainErr *Err
	if errors.As(err, &domainErr) {
		if domainErr.Code == CredentialIssuance {
			return true
		}
	}

	return false
}

// IsUnavailableError returns a boolean indicating whether the error is known
// to report that an external system was unavailable.
func IsUnavailableError(err error) bool {
	if err == nil {
		return false
	}

	var domainErr *Err
	if errors.As(err, &domainErr) {
		if domainErr.Code == Unavailable {
			return true
		}
	}

	return false
}

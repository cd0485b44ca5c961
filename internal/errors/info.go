// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

// Info contains details of the specific error code
type Info struct {
	// Kind specifies the kind of error (unknown, parameter, search, etc).
	Kind Kind

	// Message provides a default message for the error code
	Message string
}

// errorCodeInfo provides a map of unique Codes (IDs) to their
// corresponding Kind and a default Message.
var errorCodeInfo = map[Code]Info{
	Unknown: {
		Message: "unknown",
		Kind:    Other,
	},
	InvalidParameter: {
		Message: "invalid parameter",
		Kind:    Parameter,
	},
	InvalidScope: {
		Message: "invalid scope",
		Kind:    Parameter,
	},
	StoreDestroyed: {
		Message: "store destroyed",
		Kind:    State,
	},
	NoGrantMatch: {
		Message: "no matching grant",
		Kind:    Search,
	},
	GrantListing: {
		Message: "grant listing failed",
		Kind:    External,
	},
	CredentialIssuance: {
		Message: "credential issuance failed",
		Kind:    External,
	},
	Unavailable: {
		Message: "external system unavailable",
		Kind:    External,
	},
	Forbidden: {
		Message: "forbidden",
		Kind:    External,
	},
	InvalidConfiguration: {
		Message: "invalid configuration",
		Kind:    Configuration,
	},
}

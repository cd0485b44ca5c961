// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package credential resolves locations within an object-storage namespace
// to temporary credentials.  A Store matches a requested location and
// permission against a directory of pre-issued access grants, has
// credentials issued for the most specific matching grant, and serves
// repeated requests for the same grant from an in-memory cache until the
// credentials approach their expiration.
package credential

import (
	"encoding/json"
	"time"
)

// DefaultExpiryMargin is subtracted from a credentials record's expiration
// when deciding whether it can still be served from the cache.  The margin
// keeps a slow caller from receiving credentials which expire while its
// request to the storage service is in flight.
const DefaultExpiryMargin = 1 * time.Minute

const redactedSecret = "[REDACTED: secret]"

// Secret is a credential secret.  It redacts itself when printed or
// marshaled, so secrets never reach logs or events; callers which
// deliberately hand the secret on convert it back with string().
type Secret string

// String returns a string with the secret redacted.
func (s Secret) String() string {
	return redactedSecret
}

// GoString returns a string with the secret redacted.
func (s Secret) GoString() string {
	return redactedSecret
}

// MarshalJSON returns a JSON-encoded string with the secret redacted.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(redactedSecret)
}

// Credentials is a short-lived credential bundle issued for a single grant.
// The zero Credentials is treated as already expired.
type Credentials struct {
	// AccessKeyId identifies the credentials
	AccessKeyId string `json:"access_key_id"`

	// SecretAccessKey signs requests made with the credentials
	SecretAccessKey Secret `json:"secret_access_key"`

	// SessionToken accompanies every request made with the credentials
	SessionToken Secret `json:"session_token"`

	// Expiration is when the credentials stop working
	Expiration time.Time `json:"expiration"`
}

// usableAt reports whether the credentials can still be served at now,
// keeping margin in reserve before their true expiration.  The boundary is
// exclusive: credentials expiring exactly margin from now are no longer
// usable.
func (c Credentials) usableAt(now time.Time, margin time.Duration) bool {
	return now.Before(c.Expiration.Add(-margin))
}

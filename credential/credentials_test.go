// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package credential

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SecretRedaction(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	s := Secret("super-secret-value")

	assert.Equal(redactedSecret, s.String())
	assert.Equal(redactedSecret, s.GoString())
	assert.Equal(redactedSecret, fmt.Sprintf("%s", s))
	assert.Equal(redactedSecret, fmt.Sprintf("%v", s))
	assert.Equal(redactedSecret, fmt.Sprintf("%#v", s))
	assert.NotContains(fmt.Sprintf("%+v", s), "super-secret-value")

	// the raw value stays reachable for callers that must hand it on
	assert.Equal("super-secret-value", string(s))
}

func Test_CredentialsMarshaling(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	c := Credentials{
		AccessKeyId:     "AKIAEXAMPLE",
		SecretAccessKey: "secret-key",
		SessionToken:    "session-token",
		Expiration:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	got, err := json.Marshal(c)
	require.NoError(err)
	assert.Contains(string(got), "AKIAEXAMPLE")
	assert.Contains(string(got), redactedSecret)
	assert.NotContains(string(got), "secret-key")
	assert.NotContains(string(got), "session-token")
}

func Test_Credentials_usableAt(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name       string
		expiration time.Time
		margin     time.Duration
		want       bool
	}{
		{
			name:       "well-before-margin",
			expiration: now.Add(time.Hour),
			margin:     time.Minute,
			want:       true,
		},
		{
			name:       "exactly-at-margin",
			expiration: now.Add(time.Minute),
			margin:     time.Minute,
			want:       false,
		},
		{
			name:       "just-inside-margin",
			expiration: now.Add(time.Minute + time.Nanosecond),
			margin:     time.Minute,
			want:       true,
		},
		{
			name:       "past-expiration",
			expiration: now.Add(-time.Minute),
			margin:     time.Minute,
			want:       false,
		},
		{
			name:       "zero-margin-before-expiration",
			expiration: now.Add(time.Second),
			margin:     0,
			want:       true,
		},
		{
			name:       "zero-margin-at-expiration",
			expiration: now,
			margin:     0,
			want:       false,
		},
		{
			name:   "zero-credentials",
			margin: time.Minute,
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Credentials{Expiration: tt.expiration}
			assert.Equal(t, tt.want, c.usableAt(now, tt.margin))
		})
	}
}

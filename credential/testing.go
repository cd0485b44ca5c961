// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package credential

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-accessgrants/grant"
	"github.com/stretchr/testify/require"
	ua "go.uber.org/atomic"
)

// TestGrant builds a grant from its textual parts, failing the test when a
// part doesn't parse.
func TestGrant(t *testing.T, scope, permission, applicationArn string) grant.Grant {
	t.Helper()
	ctx := context.Background()
	s, err := grant.ParseScope(ctx, scope)
	require.NoError(t, err)
	p, err := grant.ParsePermission(ctx, permission)
	require.NoError(t, err)
	return grant.Grant{
		Scope:          s,
		Permission:     p,
		ApplicationArn: applicationArn,
	}
}

// A TestLister is a GrantLister serving a scripted grant set from memory,
// chunked into pages whose tokens are the next page's offset.  Failures
// are injected with FailNext and every ListAccessGrants call is counted,
// so tests can assert how a caller walks and retries the listing.
type TestLister struct {
	l        sync.Mutex
	grants   []grant.Grant
	pageSize int
	failures int
	failErr  error
	block    chan struct{}

	calls *ua.Int64
}

// NewTestLister creates a TestLister serving the provided grants as a
// single page; see SetPageSize.
func NewTestLister(t *testing.T, grants ...grant.Grant) *TestLister {
	t.Helper()
	return &TestLister{
		grants:   grants,
		pageSize: len(grants) + 1,
		calls:    ua.NewInt64(0),
	}
}

// ListAccessGrants implements GrantLister.
func (l *TestLister) ListAccessGrants(ctx context.Context, pageToken string) (*GrantPage, error) {
	l.calls.Inc()
	l.l.Lock()
	block := l.block
	l.l.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	l.l.Lock()
	defer l.l.Unlock()
	if l.failures > 0 {
		l.failures--
		return nil, l.failErr
	}
	start := 0
	if pageToken != "" {
		var err error
		start, err = strconv.Atoi(pageToken)
		if err != nil || start < 0 || start > len(l.grants) {
			return nil, fmt.Errorf("unknown page token %q", pageToken)
		}
	}
	end := min(start+l.pageSize, len(l.grants))
	page := &GrantPage{Grants: slices.Clone(l.grants[start:end])}
	if end < len(l.grants) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

// SetGrants replaces the served grant set.
func (l *TestLister) SetGrants(grants ...grant.Grant) {
	l.l.Lock()
	defer l.l.Unlock()
	l.grants = slices.Clone(grants)
}

// SetPageSize chunks the listing into pages of n grants.
func (l *TestLister) SetPageSize(n int) {
	l.l.Lock()
	defer l.l.Unlock()
	l.pageSize = n
}

// FailNext makes the next n ListAccessGrants calls return err.
func (l *TestLister) FailNext(n int, err error) {
	l.l.Lock()
	defer l.l.Unlock()
	l.failures = n
	l.failErr = err
}

// Block makes ListAccessGrants wait until Release.
func (l *TestLister) Block() {
	l.l.Lock()
	defer l.l.Unlock()
	l.block = make(chan struct{})
}

// Release lets every blocked and future listing call proceed.
func (l *TestLister) Release() {
	l.l.Lock()
	defer l.l.Unlock()
	if l.block != nil {
		close(l.block)
		l.block = nil
	}
}

// Calls returns how many times ListAccessGrants has been called.
func (l *TestLister) Calls() int64 {
	return l.calls.Load()
}

// A TestIssuer is a CredentialIssuer minting deterministic credentials.
// It counts its issuances and can be made to block until released, so
// tests can hold an issuance in flight.
type TestIssuer struct {
	l        sync.Mutex
	expireIn time.Duration
	issueErr error
	block    chan struct{}

	issuances *ua.Int64
}

// NewTestIssuer creates a TestIssuer whose credentials expire far enough
// out that tests aren't racing the expiry margin; see SetExpireIn.
func NewTestIssuer(t *testing.T) *TestIssuer {
	t.Helper()
	return &TestIssuer{
		expireIn:  15 * time.Minute,
		issuances: ua.NewInt64(0),
	}
}

// IssueCredentials implements CredentialIssuer.
func (i *TestIssuer) IssueCredentials(ctx context.Context, g grant.Grant) (Credentials, error) {
	n := i.issuances.Inc()
	i.l.Lock()
	block := i.block
	issueErr := i.issueErr
	expireIn := i.expireIn
	i.l.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return Credentials{}, ctx.Err()
		}
	}
	if issueErr != nil {
		return Credentials{}, issueErr
	}
	return Credentials{
		AccessKeyId:     fmt.Sprintf("AKIATEST%04d", n),
		SecretAccessKey: Secret(fmt.Sprintf("test-secret-%04d", n)),
		SessionToken:    Secret(fmt.Sprintf("test-token-%04d-%s", n, g.CacheKey())),
		Expiration:      time.Now().Add(expireIn),
	}, nil
}

// Block makes IssueCredentials wait until Release.
func (i *TestIssuer) Block() {
	i.l.Lock()
	defer i.l.Unlock()
	i.block = make(chan struct{})
}

// Release lets every blocked and future issuance proceed.
func (i *TestIssuer) Release() {
	i.l.Lock()
	defer i.l.Unlock()
	if i.block != nil {
		close(i.block)
		i.block = nil
	}
}

// SetErr makes issuances fail with err until cleared.
func (i *TestIssuer) SetErr(err error) {
	i.l.Lock()
	defer i.l.Unlock()
	i.issueErr = err
}

// SetExpireIn sets how far out issued credentials expire.
func (i *TestIssuer) SetExpireIn(d time.Duration) {
	i.l.Lock()
	defer i.l.Unlock()
	i.expireIn = d
}

// Issuances returns how many times IssueCredentials has been called.
func (i *TestIssuer) Issuances() int64 {
	return i.issuances.Load()
}

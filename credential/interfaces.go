// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package credential

import (
	"context"

	"github.com/hashicorp/go-accessgrants/grant"
)

// GrantPage is one page of a grant listing.  An empty NextPageToken means
// the listing is exhausted.
type GrantPage struct {
	// Grants are the grants in the page, in listing order
	Grants []grant.Grant `json:"grants"`

	// NextPageToken requests the next page when passed back to
	// ListAccessGrants
	NextPageToken string `json:"next_page_token,omitempty"`
}

// A GrantLister walks the set of access grants issued for the storage
// namespace, one page per call.
type GrantLister interface {
	// ListAccessGrants returns the page of grants at pageToken.  An empty
	// pageToken requests the first page.
	ListAccessGrants(ctx context.Context, pageToken string) (*GrantPage, error)
}

// A CredentialIssuer mints temporary credentials scoped to a single grant.
type CredentialIssuer interface {
	// IssueCredentials returns new credentials for the grant
	IssueCredentials(ctx context.Context, g grant.Grant) (Credentials, error)
}

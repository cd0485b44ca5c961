// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

// Op represents an operation (package.function).
// For example: "grant.ParseScope"
type Op string

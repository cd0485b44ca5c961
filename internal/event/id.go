// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"fmt"

	"github.com/hashicorp/go-secure-stdlib/base62"
)

// IdPrefix is the prefix used for event ids generated without a more specific
// prefix.
const IdPrefix = "e"

// NewId generates an id with the given prefix, e.g. "error_0yB7fIV4Mo"
func NewId(prefix string) (string, error) {
	const op = "event.NewId"
	if prefix == "" {
		return "", fmt.Errorf("%s: missing prefix: %w", op, ErrInvalidParameter)
	}
	id, err := base62.Random(10)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id %v: %w", op, err, ErrIo)
	}
	return fmt.Sprintf("%s_%s", prefix, id), nil
}

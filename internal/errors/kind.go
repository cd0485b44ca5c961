// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

// Kind specifies the kind of error (unknown, parameter, search, etc).
type Kind uint32

const (
	Other Kind = iota
	Parameter
	Search
	State
	External
	Configuration
)

func (e Kind) String() string {
	return [...]string{
		"unknown",
		"parameter violation",
		"search issue",
		"state violation",
		"external system issue",
		"configuration issue",
	}[e]
}

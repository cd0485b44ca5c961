// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package logging

import (
	"fmt"
	"strings"
)

// LogFormat defines the format of the operational log emitted alongside
// events.
type LogFormat int

const (
	// UnspecifiedFormat means the log format was not specified.
	UnspecifiedFormat LogFormat = iota
	// StandardFormat is the human-readable hclog text format.
	StandardFormat
	// JSONFormat is the hclog JSON format.
	JSONFormat
)

// ParseLogFormat parses the log format from the provided string.
func ParseLogFormat(format string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "":
		return UnspecifiedFormat, nil
	case "standard":
		return StandardFormat, nil
	case "json":
		return JSONFormat, nil
	default:
		return UnspecifiedFormat, fmt.Errorf("unknown log format: %s", format)
	}
}

func (l LogFormat) String() string {
	switch l {
	case UnspecifiedFormat:
		return "unspecified"
	case StandardFormat:
		return "standard"
	case JSONFormat:
		return "json"
	}

	// unreachable
	return "unknown"
}

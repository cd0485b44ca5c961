// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package event provides an eventing system for emitting error, system and
// observation events to pipelines of configured sinks.  Events are sent
// through a hashicorp/eventlogger broker and formatted as either cloudevents
// or hclog entries.
package event

import "fmt"

const (
	OpField        = "op"         // OpField in an event
	VersionField   = "version"    // VersionField in an event
	DetailsField   = "details"    // DetailsField in an event
	HeaderField    = "header"     // HeaderField in an event
	IdField        = "id"         // IdField in an event
	CreatedAtField = "created_at" // CreatedAtField in an event
	TypeField      = "type"       // TypeField in an event

	msgField = "msg" // msgField within a sys event's data
)

// Type represents the event's type
type Type string

const (
	EveryType       Type = "*"           // EveryType represents every (all) types of events
	ObservationType Type = "observation" // ObservationType represents observation events
	ErrorType       Type = "error"       // ErrorType represents error events
	SystemType      Type = "system"      // SystemType represents system events
)

// Validate will validate the event type
func (et Type) Validate() error {
	const op = "event.(Type).Validate"
	switch et {
	case EveryType, ObservationType, ErrorType, SystemType:
		return nil
	default:
		return fmt.Errorf("%s: '%s' is not a valid event type: %w", op, et, ErrInvalidParameter)
	}
}

// Op represents the operation that's generating an event.  Examples would be:
// "credential.(Store).GetProvider" or "grant.ParseScope"
type Op string

// Id represents an event's unique id
type Id string

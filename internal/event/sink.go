// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	StderrSink SinkType = "stderr" // StderrSink is written to stderr
	FileSink   SinkType = "file"   // FileSink is written to a file
	WriterSink SinkType = "writer" // WriterSink is written to an io.Writer
)

// SinkType defines the type of sink in a config stanza (file, stderr, writer)
type SinkType string

// Validate will validate the sink type
func (t SinkType) Validate() error {
	const op = "event.(SinkType).Validate"
	switch t {
	case StderrSink, FileSink, WriterSink:
		return nil
	default:
		return fmt.Errorf("%s: '%s' is not a valid sink type: %w", op, t, ErrInvalidParameter)
	}
}

const (
	JSONSinkFormat      SinkFormat = "cloudevents-json" // JSONSinkFormat means the event is formatted as a cloudevents event in JSON
	TextSinkFormat      SinkFormat = "cloudevents-text" // TextSinkFormat means the event is formatted as a cloudevents event in text
	TextHclogSinkFormat SinkFormat = "hclog-text"       // TextHclogSinkFormat means the event is formatted as an hclog text entry
	JSONHclogSinkFormat SinkFormat = "hclog-json"       // JSONHclogSinkFormat means the event is formatted as an hclog entry in JSON
)

// SinkFormat defines the formatting of events in a sink
type SinkFormat string

// Validate will validate the sink format
func (f SinkFormat) Validate() error {
	const op = "event.(SinkFormat).Validate"
	switch f {
	case JSONSinkFormat, TextSinkFormat, TextHclogSinkFormat, JSONHclogSinkFormat:
		return nil
	default:
		return fmt.Errorf("%s: '%s' is not a valid sink format: %w", op, f, ErrInvalidParameter)
	}
}

// SinkConfig defines the configuration for a sink of events
type SinkConfig struct {
	// Name defines a name for the sink
	Name string `hcl:"name"`

	// Description defines a description of the sink
	Description string `hcl:"description"`

	// EventTypes defines a list of event types that will be sent to the sink.
	// See the docs for Types for a list of accepted types.
	EventTypes []Type `hcl:"event_types"`

	// EventSourceUrl defines an optional source for the cloudevents
	EventSourceUrl string `hcl:"event_source_url"`

	// AllowFilters define a set of optional predicates (in bexpr syntax) for
	// including an event in the sink. A event must match at least one filter
	// to be included.
	AllowFilters []string `hcl:"allow_filters"`

	// DenyFilters define a set of optional predicates (in bexpr syntax) for
	// excluding an event from the sink. An event that matches any filter is
	// excluded.
	DenyFilters []string `hcl:"deny_filters"`

	// Format defines the format for the sink (cloudevents-json,
	// cloudevents-text, hclog-json, hclog-text)
	Format SinkFormat `hcl:"format"`

	// Type defines the type of sink (stderr, file or writer)
	Type SinkType `hcl:"type"`

	// StderrConfig is required when Type is stderr
	StderrConfig *StderrSinkTypeConfig `hcl:"stderr"`

	// FileConfig is required when Type is file
	FileConfig *FileSinkTypeConfig `hcl:"file"`

	// WriterConfig is required when Type is writer. It's not serializable and
	// only settable programmatically.
	WriterConfig *WriterSinkTypeConfig
}

// FileSinkTypeConfig defines the configuration for a file sink
type FileSinkTypeConfig struct {
	// Path defines the file path for the sink
	Path string `hcl:"path"`

	// FileName defines the file name for the sink
	FileName string `hcl:"file_name"`

	// RotateBytes defines the number of bytes that should trigger rotation of
	// a file sink
	RotateBytes int `hcl:"rotate_bytes"`

	// RotateDuration defines how often a file sink should be rotated
	RotateDuration time.Duration

	// RotateMaxFiles defines how may historical rotated files should be kept
	// for a file sink
	RotateMaxFiles int `hcl:"rotate_max_files"`
}

// StderrSinkTypeConfig defines the configuration for a stderr sink.  It's
// currently empty, but it allows the sink type to be explicitly configured.
type StderrSinkTypeConfig struct{}

// WriterSinkTypeConfig defines the configuration for a writer sink
type WriterSinkTypeConfig struct {
	// Writer for the sink's formatted events
	Writer io.Writer
}

// Validate will validate the sink config
func (sc *SinkConfig) Validate() error {
	const op = "event.(SinkConfig).Validate"
	if sc == nil {
		return fmt.Errorf("%s: missing sink config: %w", op, ErrInvalidParameter)
	}
	if err := sc.Type.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := sc.Format.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if sc.Name == "" {
		return fmt.Errorf("%s: missing sink name: %w", op, ErrInvalidParameter)
	}
	if len(sc.EventTypes) == 0 {
		return fmt.Errorf("%s: missing event types: %w", op, ErrInvalidParameter)
	}
	for _, et := range sc.EventTypes {
		if err := et.Validate(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	definedBlocks := 0
	if sc.FileConfig != nil {
		definedBlocks++
	}
	if sc.StderrConfig != nil {
		definedBlocks++
	}
	if sc.WriterConfig != nil {
		definedBlocks++
	}
	if definedBlocks > 1 {
		return fmt.Errorf("%s: too many sink type config blocks: %w", op, ErrInvalidParameter)
	}
	switch sc.Type {
	case FileSink:
		if definedBlocks == 1 && sc.FileConfig == nil {
			return fmt.Errorf("%s: mismatch between sink type and sink configuration block, missing \"file\" block: %w", op, ErrInvalidParameter)
		}
		if sc.FileConfig == nil {
			return fmt.Errorf("%s: missing \"file\" block: %w", op, ErrInvalidParameter)
		}
		if sc.FileConfig.FileName == "" {
			return fmt.Errorf("%s: missing file name: %w", op, ErrInvalidParameter)
		}
	case StderrSink:
		if definedBlocks == 1 && sc.StderrConfig == nil {
			return fmt.Errorf("%s: mismatch between sink type and sink configuration block: %w", op, ErrInvalidParameter)
		}
	case WriterSink:
		if definedBlocks == 1 && sc.WriterConfig == nil {
			return fmt.Errorf("%s: mismatch between sink type and sink configuration block: %w", op, ErrInvalidParameter)
		}
		if sc.WriterConfig == nil {
			return fmt.Errorf("%s: missing \"writer\" block: %w", op, ErrInvalidParameter)
		}
		if sc.WriterConfig.Writer == nil {
			return fmt.Errorf("%s: missing writer: %w", op, ErrInvalidParameter)
		}
	}
	return nil
}

// EventerConfig supplies all the configuration needed to create/config an
// Eventer
type EventerConfig struct {
	// ObservationsEnabled specifies if observation events should be emitted
	ObservationsEnabled bool `hcl:"observations_enabled"`

	// SysEventsEnabled specifies if sysevents should be emitted
	SysEventsEnabled bool `hcl:"sysevents_enabled"`

	// Sinks are all the configured sinks
	Sinks []*SinkConfig `hcl:"sink"`
}

// Validate will validate the config. A config isn't required to have any
// sinks to be valid.
func (c *EventerConfig) Validate() error {
	const op = "event.(EventerConfig).Validate"
	if c == nil {
		return fmt.Errorf("%s: missing config: %w", op, ErrInvalidParameter)
	}
	for i, s := range c.Sinks {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%s: sink %d is invalid: %w", op, i, err)
		}
	}
	return nil
}

// serializedWriter uses a mutex to serialize writes to its io.Writer
type serializedWriter struct {
	l *sync.Mutex
	w io.Writer
}

// Write uses a mutex to serialize writes to its io.Writer
func (s *serializedWriter) Write(p []byte) (int, error) {
	const op = "event.(serializedWriter).Write"
	if s == nil {
		return 0, fmt.Errorf("%s: missing serialized writer: %w", op, ErrInvalidParameter)
	}
	if s.l == nil {
		return 0, fmt.Errorf("%s: missing lock: %w", op, ErrInvalidParameter)
	}
	if s.w == nil {
		return 0, fmt.Errorf("%s: missing writer: %w", op, ErrInvalidParameter)
	}
	s.l.Lock()
	defer s.l.Unlock()
	return s.w.Write(p)
}

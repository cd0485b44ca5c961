// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
)

// originalLogNameKey is the event data key used to carry the name of an
// hclog logger whose entries have been adapted into events
const originalLogNameKey = "@original-log-name"

// NewHclogLogger returns an hclog.Logger that emits its entries as events.
// Error level entries become error events and all other levels become system
// events.  This allows code (and dependencies) written against hclog to
// participate in eventing without being aware of it.  Supports the
// WithHclogLevel option which defaults to hclog.Info.
func NewHclogLogger(ctx context.Context, e *Eventer, opt ...Option) (hclog.Logger, error) {
	const op = "event.NewHclogLogger"
	if ctx == nil {
		return nil, fmt.Errorf("%s: missing context: %w", op, ErrInvalidParameter)
	}
	if e == nil {
		return nil, fmt.Errorf("%s: missing eventer: %w", op, ErrInvalidParameter)
	}
	evCtx, err := NewEventerContext(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := getOpts(opt...)
	level := opts.withHclogLevel
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return &hclogLogger{
		ctx:     evCtx,
		eventer: e,
		level:   level,
	}, nil
}

// hclogLogger satisfies the hclog.Logger interface by writing entries as
// events through an Eventer
type hclogLogger struct {
	ctx     context.Context
	eventer *Eventer
	name    string
	args    []any
	level   hclog.Level
}

var _ hclog.Logger = (*hclogLogger)(nil)

func (h *hclogLogger) enabled(level hclog.Level) bool {
	if level == hclog.NoLevel || level == hclog.Off {
		return false
	}
	return level >= h.level
}

// Log emits a msg and key/value pairs at the provided level
func (h *hclogLogger) Log(level hclog.Level, msg string, args ...any) {
	if !h.enabled(level) {
		return
	}
	allArgs := make([]any, 0, len(h.args)+len(args)+2)
	allArgs = append(allArgs, h.args...)
	allArgs = append(allArgs, args...)
	if h.name != "" {
		allArgs = append(allArgs, originalLogNameKey, h.name)
	}
	caller := Op("hclog")
	if h.name != "" {
		caller = Op(h.name)
	}
	switch level {
	case hclog.Error:
		WriteError(h.ctx, caller, stderrors.New(msg), WithInfoMsg(msg, allArgs...))
	default:
		WriteSysEvent(h.ctx, caller, msg, allArgs...)
	}
}

// Trace emits a message and key/value pairs at the TRACE level
func (h *hclogLogger) Trace(msg string, args ...any) {
	h.Log(hclog.Trace, msg, args...)
}

// Debug emits a message and key/value pairs at the DEBUG level
func (h *hclogLogger) Debug(msg string, args ...any) {
	h.Log(hclog.Debug, msg, args...)
}

// Info emits a message and key/value pairs at the INFO level
func (h *hclogLogger) Info(msg string, args ...any) {
	h.Log(hclog.Info, msg, args...)
}

// Warn emits a message and key/value pairs at the WARN level
func (h *hclogLogger) Warn(msg string, args ...any) {
	h.Log(hclog.Warn, msg, args...)
}

// Error emits a message and key/value pairs as an error event
func (h *hclogLogger) Error(msg string, args ...any) {
	h.Log(hclog.Error, msg, args...)
}

// IsTrace indicates if TRACE logs would be emitted
func (h *hclogLogger) IsTrace() bool { return h.enabled(hclog.Trace) }

// IsDebug indicates if DEBUG logs would be emitted
func (h *hclogLogger) IsDebug() bool { return h.enabled(hclog.Debug) }

// IsInfo indicates if INFO logs would be emitted
func (h *hclogLogger) IsInfo() bool { return h.enabled(hclog.Info) }

// IsWarn indicates if WARN logs would be emitted
func (h *hclogLogger) IsWarn() bool { return h.enabled(hclog.Warn) }

// IsError indicates if ERROR logs would be emitted
func (h *hclogLogger) IsError() bool { return h.enabled(hclog.Error) }

// ImpliedArgs returns the loggers implied args
func (h *hclogLogger) ImpliedArgs() []any {
	return h.args
}

// With returns a logger which always emits the provided key/value pairs
func (h *hclogLogger) With(args ...any) hclog.Logger {
	c := *h
	c.args = make([]any, 0, len(h.args)+len(args))
	c.args = append(c.args, h.args...)
	c.args = append(c.args, args...)
	return &c
}

// Name returns the logger's name, if one was set
func (h *hclogLogger) Name() string {
	return h.name
}

// Named returns a logger with the new name appended to the current name
func (h *hclogLogger) Named(name string) hclog.Logger {
	c := *h
	if h.name != "" {
		c.name = h.name + "." + name
	} else {
		c.name = name
	}
	return &c
}

// ResetNamed returns a logger with the given name, ignoring the existing name
func (h *hclogLogger) ResetNamed(name string) hclog.Logger {
	c := *h
	c.name = name
	return &c
}

// SetLevel updates the level of the logger
func (h *hclogLogger) SetLevel(level hclog.Level) {
	h.level = level
}

// GetLevel returns the current level
func (h *hclogLogger) GetLevel() hclog.Level {
	return h.level
}

// StandardLogger returns a stdlib log.Logger whose output is emitted as
// events
func (h *hclogLogger) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(h.StandardWriter(opts), "", 0)
}

// StandardWriter returns an io.Writer whose writes are emitted as events
func (h *hclogLogger) StandardWriter(_ *hclog.StandardLoggerOptions) io.Writer {
	w, err := h.eventer.StandardWriter(h.ctx, EveryType)
	if err != nil {
		return os.Stderr
	}
	return w
}

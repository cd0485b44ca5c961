// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/hashicorp/go-accessgrants/internal/event"
)

// Err provides the ability to specify a Msg, Op, Code and Wrapped error.
// We've chosen Err over Error for the identifier to support the easy use
// of errors.Err alongside the stdlib errors package.
type Err struct {
	// Code is the error's code, which can be used to get the error's
	// errorCodeInfo, which contains the error's Kind and Message
	Code Code

	// Msg for the error
	Msg string

	// Op represents the operation raising/propagating an error and is optional.
	Op Op

	// Wrapped is the error which this Err wraps and will be nil if there's no
	// error to wrap.
	Wrapped error
}

// E creates a new Err with provided code and supports the options of:
//
// * WithOp() - allows you to specify an optional Op (operation).
//
// * WithMsg() - allows you to specify an optional error msg, if the default
// msg for the error Code is not sufficient.
//
// * WithWrap() - allows you to specify an error to wrap.  If the wrapped
// error is a domain Err and no WithCode() option is given, the new Err uses
// the wrapped error's Code.
//
// * WithoutEvent - allows you to specify that no error event should be
// emitted.
//
// Unless WithoutEvent is given, an error event is emitted for the new error
// (which requires an eventer in the provided context or an initialized
// sys eventer).
func E(ctx context.Context, opt ...Option) error {
	opts := GetOpts(opt...)
	err := &Err{
		Code:    opts.withCode,
		Op:      opts.withOp,
		Msg:     opts.withErrMsg,
		Wrapped: opts.withErrWrapped,
	}
	if opts.withErrWrapped != nil && opts.withCode == Unknown {
		var wrapped *Err
		if As(opts.withErrWrapped, &wrapped) {
			err.Code = wrapped.Code
		}
	}
	if !opts.withoutEvent {
		event.WriteError(ctx, event.Op(err.Op), err)
	}
	return err
}

// New creates a new Err with the provided code, op and msg.  It supports the
// options of WithWrap() and WithoutEvent() (all other options are ignored,
// since the corresponding fields are passed directly).
func New(ctx context.Context, c Code, op Op, msg string, opt ...Option) error {
	opt = append(opt, WithCode(c))
	if op != "" {
		opt = append(opt, WithOp(op))
	}
	if msg != "" {
		opt = append(opt, WithMsg(msg))
	}
	return E(ctx, opt...)
}

// Wrap creates a new Err from the provided err and op, preserving the code
// from the originating error (converting the error first, when it's from an
// external system).  It supports the options of WithMsg() and WithoutEvent()
// (WithWrap() is ignored, since the error to wrap is passed directly).
func Wrap(ctx context.Context, e error, op Op, opt ...Option) error {
	opt = append(opt, WithWrap(e))
	if op != "" {
		opt = append(opt, WithOp(op))
	}
	if converted := Convert(e); converted != nil {
		opt = append(opt, WithWrap(converted))
	}
	return E(ctx, opt...)
}

// Convert converts the error to a domain Err.  Errors raised by the SDKs for
// the backing service are mapped to domain Codes via their api error codes.
// If the error cannot be converted, nil is returned.
func Convert(e error) *Err {
	// nothing to convert.
	if e == nil {
		return nil
	}

	var alreadyConverted *Err
	if As(e, &alreadyConverted) {
		return alreadyConverted
	}

	var apiErr smithy.APIError
	if As(e, &apiErr) {
		if c, ok := apiErrCodes[apiErr.ErrorCode()]; ok {
			return &Err{
				Code: c,
				Msg:  apiErr.ErrorMessage(),
			}
		}
	}
	// unfortunately, we can't help.
	return nil
}

// apiErrCodes maps the api error codes raised by the backing service (and its
// SDK transport) to domain Codes.
var apiErrCodes = map[string]Code{
	"AccessDenied":             Forbidden,
	"AccessDeniedException":    Forbidden,
	"Throttling":               Unavailable,
	"ThrottlingException":      Unavailable,
	"SlowDown":                 Unavailable,
	"RequestLimitExceeded":     Unavailable,
	"TooManyRequestsException": Unavailable,
	"ServiceUnavailable":       Unavailable,
	"InternalError":            Unavailable,
	"RequestTimeout":           Unavailable,
}

// Info about the Err
func (e *Err) Info() Info {
	if e == nil {
		return errorCodeInfo[Unknown]
	}
	return e.Code.Info()
}

// Error satisfies the error interface and returns a string representation of
// the Err
func (e *Err) Error() string {
	if e == nil {
		return ""
	}
	var s strings.Builder
	if e.Op != "" {
		join(&s, ": ", string(e.Op))
	}
	if e.Msg != "" {
		join(&s, ": ", e.Msg)
	}

	// if there's no wrapped error with the same code, then output the
	// error's code info; otherwise the wrapped error will output it and
	// repeating it here would just be noise.
	var sameCode bool
	if w, ok := e.Wrapped.(*Err); ok && w.Code == e.Code {
		sameCode = true
	}
	if !sameCode {
		if info, ok := errorCodeInfo[e.Code]; ok {
			switch {
			case e.Msg == "":
				join(&s, ": ", info.Message)
				join(&s, ", ", info.Kind.String())
			default:
				join(&s, ": ", info.Kind.String())
			}
		}
		join(&s, ": ", fmt.Sprintf("error #%d", e.Code))
	}

	if e.Wrapped != nil {
		join(&s, ": ", e.Wrapped.Error())
	}
	return s.String()
}

func join(str *strings.Builder, delim string, s string) {
	switch str.Len() {
	case 0:
		_, _ = str.WriteString(s)
	default:
		_, _ = str.WriteString(delim + s)
	}
}

// Unwrap implements the errors.Unwrap interface and allows callers to use the
// errors.Is() and errors.As() functions effectively for any wrapped errors.
func (e *Err) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Wrapped
}

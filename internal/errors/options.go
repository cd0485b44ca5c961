// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

import "fmt"

// GetOpts - iterate the inbound Options and return a struct
func GetOpts(opt ...Option) Options {
	opts := getDefaultOptions()
	for _, o := range opt {
		if o != nil {
			o(&opts)
		}
	}
	return opts
}

// Option - how Options are passed as arguments
type Option func(*Options)

// Options - how Options are represented
type Options struct {
	withErrWrapped error
	withErrMsg     string
	withOp         Op
	withCode       Code
	withoutEvent   bool
}

func getDefaultOptions() Options {
	return Options{}
}

// WithMsg provides an option to provide a message when creating a new error.
// If args are provided, the msg string is interpreted as a format specifier
// for them.
func WithMsg(msg string, args ...any) Option {
	return func(o *Options) {
		switch {
		case len(args) > 0:
			o.withErrMsg = fmt.Sprintf(msg, args...)
		default:
			o.withErrMsg = msg
		}
	}
}

// WithWrap provides an option for an error to wrap when creating a new error
func WithWrap(e error) Option {
	return func(o *Options) {
		o.withErrWrapped = e
	}
}

// WithOp provides an option for the operation when creating a new error
func WithOp(op Op) Option {
	return func(o *Options) {
		o.withOp = op
	}
}

// WithCode provides an option for the error Code when creating a new error
func WithCode(c Code) Option {
	return func(o *Options) {
		o.withCode = c
	}
}

// WithoutEvent provides an option to suppress the error event which is
// normally emitted when a new error is created
func WithoutEvent() Option {
	return func(o *Options) {
		o.withoutEvent = true
	}
}

// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errors provides context-wrapped error handling:
// errors that remember where they were created, plus helpers
// for logging, panicking on, or testing the errors returned
// by common function signatures.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents an error with a base error
// and the call stack at the point it was wrapped.
type Error struct {
	Base  error
	Stack []string
}

// Wrap wraps the given error into an [*Error] with the
// current call stack. It returns nil if the given error is nil.
// Errors that are already of type [*Error] are returned as is.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Base: err, Stack: callerInfo(3)}
}

// New returns a new error with the given text, wrapped with
// the call stack via [Wrap]. It is the equivalent of [errors.New].
func New(text string) error {
	return Wrap(errors.New(text))
}

// Errorf returns a new error with the given format and arguments,
// wrapped with the call stack via [Wrap]. It is the equivalent of [fmt.Errorf].
func Errorf(format string, a ...any) error {
	return Wrap(fmt.Errorf(format, a...))
}

// Error returns the string of the base error. The stack
// is only included when [Debug] is on.
func (e *Error) Error() string {
	res := e.Base.Error()
	if Debug && len(e.Stack) > 0 {
		res += " (" + strings.Join(e.Stack, " < ") + ")"
	}
	return res
}

// Unwrap returns the underlying base error.
func (e *Error) Unwrap() error {
	return e.Base
}

// Is, As, Join and Unwrap are re-exported so that callers
// only need this package.
var (
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"fmt"
	"strings"

	"cogentcore.org/refactor/base/errors"
)

// IncludeType is the kind of an #include directive.
type IncludeType int32

const (
	// IncludeLocal is #include "file".
	IncludeLocal IncludeType = iota

	// IncludeGlobal is #include <file>.
	IncludeGlobal

	// IncludeNext is #include_next, which continues the search
	// after the directory of the current file.
	IncludeNext
)

func (it IncludeType) String() string {
	switch it {
	case IncludeLocal:
		return "local"
	case IncludeGlobal:
		return "global"
	case IncludeNext:
		return "next"
	}
	return fmt.Sprintf("IncludeType(%d)", int32(it))
}

// IsInjectedFile returns whether the given file name is a pseudo file
// such as <configuration> whose content is supplied by the client
// rather than read from disk.
func IsInjectedFile(fileName string) bool {
	return strings.HasPrefix(fileName, "<") && strings.HasSuffix(fileName, ">")
}

// Client receives the events of a preprocessing pass. All offsets refer
// to the file currently being preprocessed, in bytes and in UTF-16 code
// units, and lines are 1-based.
//
// A [Preprocessor] guarantees that:
//   - MacroAdded is called exactly once per macro bound by a #define.
//   - Exactly one of PassedMacroDefinitionCheck and
//     FailedMacroDefinitionCheck is called per definition check.
//   - StartExpandingMacro and StopExpandingMacro calls are balanced
//     and properly nested.
//   - StartSkippingBlocks and StopSkippingBlocks alternate and
//     never occur inside an expansion.
//   - SourceNeeded may re-enter the preprocessor for the included file
//     before returning.
type Client interface {

	// MacroAdded is called after a macro has been bound by a #define.
	MacroAdded(m *Macro)

	// PassedMacroDefinitionCheck is called when a check of a name
	// against the current bindings found the given macro.
	PassedMacroDefinitionCheck(bytesOffset, utf16Offset, line int, m *Macro)

	// FailedMacroDefinitionCheck is called when a check of the given
	// name against the current bindings did not succeed.
	FailedMacroDefinitionCheck(bytesOffset, utf16Offset int, name string)

	// NotifyMacroReference is called for each source token that names a
	// bound macro, whether or not it is expanded.
	NotifyMacroReference(bytesOffset, utf16Offset, line int, m *Macro)

	// StartExpandingMacro is called before the expansion of a macro
	// invocation. The actuals are the locations of the arguments, and
	// are empty for an object-like macro.
	StartExpandingMacro(bytesOffset, utf16Offset, line int, m *Macro, actuals []MacroArgumentReference)

	// StopExpandingMacro is called after the expansion started by the
	// matching StartExpandingMacro.
	StopExpandingMacro(bytesOffset int, m *Macro)

	// MarkAsIncludeGuard is called at the end of a file whose content is
	// fully enclosed by #ifndef macroName / #define macroName / #endif.
	MarkAsIncludeGuard(macroName string)

	// StartSkippingBlocks is called at the start of a conditionally
	// excluded region.
	StartSkippingBlocks(utf16Offset int)

	// StopSkippingBlocks is called at the end of a conditionally
	// excluded region.
	StopSkippingBlocks(utf16Offset int)

	// SourceNeeded is called for an #include directive.
	SourceNeeded(line int, fileName string, mode IncludeType, initialIncludes []string)
}

// NopClient is a [Client] that ignores all events.
// It can be embedded to implement only some of the methods.
type NopClient struct{}

func (NopClient) MacroAdded(m *Macro) {}
func (NopClient) PassedMacroDefinitionCheck(bytesOffset, utf16Offset, line int, m *Macro) {}
func (NopClient) FailedMacroDefinitionCheck(bytesOffset, utf16Offset int, name string) {}
func (NopClient) NotifyMacroReference(bytesOffset, utf16Offset, line int, m *Macro) {}
func (NopClient) StartExpandingMacro(bytesOffset, utf16Offset, line int, m *Macro, actuals []MacroArgumentReference) {
}
func (NopClient) StopExpandingMacro(bytesOffset int, m *Macro) {}
func (NopClient) MarkAsIncludeGuard(macroName string) {}
func (NopClient) StartSkippingBlocks(utf16Offset int) {}
func (NopClient) StopSkippingBlocks(utf16Offset int) {}
func (NopClient) SourceNeeded(line int, fileName string, mode IncludeType, initialIncludes []string) {}

// Recorder is a [Client] that records every event as a line of text,
// and checks the nesting of expansions and skipped blocks.
type Recorder struct {

	// Events are the recorded events in order.
	Events []string

	// Next receives all events after they are recorded, if non-nil.
	Next Client

	// expanding is the stack of macros being expanded.
	expanding []string

	// skipping is whether a skipped block is open.
	skipping bool

	errs []error
}

func (r *Recorder) add(format string, args ...any) {
	r.Events = append(r.Events, fmt.Sprintf(format, args...))
}

func (r *Recorder) fail(format string, args ...any) {
	r.errs = append(r.errs, errors.Errorf(format, args...))
}

// Err returns the protocol violations seen so far, or nil.
func (r *Recorder) Err() error {
	errs := r.errs
	if len(r.expanding) > 0 {
		errs = append(errs, errors.Errorf("unterminated expansion of %s", strings.Join(r.expanding, ", ")))
	}
	if r.skipping {
		errs = append(errs, errors.New("unterminated skipped block"))
	}
	return errors.Join(errs...)
}

// String returns all of the events, one per line.
func (r *Recorder) String() string {
	return strings.Join(r.Events, "\n")
}

func (r *Recorder) MacroAdded(m *Macro) {
	r.add("define %s", m.Name)
	if r.Next != nil {
		r.Next.MacroAdded(m)
	}
}

func (r *Recorder) PassedMacroDefinitionCheck(bytesOffset, utf16Offset, line int, m *Macro) {
	r.add("passed %s @%d:%d", m.Name, line, bytesOffset)
	if r.Next != nil {
		r.Next.PassedMacroDefinitionCheck(bytesOffset, utf16Offset, line, m)
	}
}

func (r *Recorder) FailedMacroDefinitionCheck(bytesOffset, utf16Offset int, name string) {
	r.add("failed %s @%d", name, bytesOffset)
	if r.Next != nil {
		r.Next.FailedMacroDefinitionCheck(bytesOffset, utf16Offset, name)
	}
}

func (r *Recorder) NotifyMacroReference(bytesOffset, utf16Offset, line int, m *Macro) {
	r.add("reference %s @%d:%d", m.Name, line, bytesOffset)
	if r.Next != nil {
		r.Next.NotifyMacroReference(bytesOffset, utf16Offset, line, m)
	}
}

func (r *Recorder) StartExpandingMacro(bytesOffset, utf16Offset, line int, m *Macro, actuals []MacroArgumentReference) {
	if r.skipping {
		r.fail("expansion of %s inside a skipped block", m.Name)
	}
	r.expanding = append(r.expanding, m.Name)
	args := make([]string, len(actuals))
	for i, a := range actuals {
		args[i] = fmt.Sprintf("%d+%d", a.BytesOffset, a.BytesLength)
	}
	r.add("expand %s @%d:%d (%s)", m.Name, line, bytesOffset, strings.Join(args, ", "))
	if r.Next != nil {
		r.Next.StartExpandingMacro(bytesOffset, utf16Offset, line, m, actuals)
	}
}

func (r *Recorder) StopExpandingMacro(bytesOffset int, m *Macro) {
	n := len(r.expanding)
	switch {
	case n == 0:
		r.fail("stop expanding %s without start", m.Name)
	case r.expanding[n-1] != m.Name:
		r.fail("stop expanding %s while expanding %s", m.Name, r.expanding[n-1])
		r.expanding = r.expanding[:n-1]
	default:
		r.expanding = r.expanding[:n-1]
	}
	r.add("end %s @%d", m.Name, bytesOffset)
	if r.Next != nil {
		r.Next.StopExpandingMacro(bytesOffset, m)
	}
}

func (r *Recorder) MarkAsIncludeGuard(macroName string) {
	r.add("guard %s", macroName)
	if r.Next != nil {
		r.Next.MarkAsIncludeGuard(macroName)
	}
}

func (r *Recorder) StartSkippingBlocks(utf16Offset int) {
	if r.skipping {
		r.fail("nested skipped block at %d", utf16Offset)
	}
	if len(r.expanding) > 0 {
		r.fail("skipped block inside expansion at %d", utf16Offset)
	}
	r.skipping = true
	r.add("skip @%d", utf16Offset)
	if r.Next != nil {
		r.Next.StartSkippingBlocks(utf16Offset)
	}
}

func (r *Recorder) StopSkippingBlocks(utf16Offset int) {
	if !r.skipping {
		r.fail("stop skipping at %d without start", utf16Offset)
	}
	r.skipping = false
	r.add("unskip @%d", utf16Offset)
	if r.Next != nil {
		r.Next.StopSkippingBlocks(utf16Offset)
	}
}

func (r *Recorder) SourceNeeded(line int, fileName string, mode IncludeType, initialIncludes []string) {
	r.add("include %s %s @%d", mode, fileName, line)
	if r.Next != nil {
		r.Next.SourceNeeded(line, fileName, mode, initialIncludes)
	}
}

// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package changeset provides [ChangeSet], an ordered list of text edits
// that are all expressed as byte offsets into one pristine original text,
// and applied to it atomically.
package changeset

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"cogentcore.org/refactor/base/errors"
	"cogentcore.org/refactor/text/textpos"
)

// Kinds are the kinds of [Operation].
type Kinds int32

const (
	// Insert inserts Text at Pos.
	Insert Kinds = iota

	// Replace replaces Length bytes at Pos with Text.
	Replace

	// Remove removes Length bytes at Pos.
	Remove
)

var kindNames = [...]string{"insert", "replace", "remove"}

func (k Kinds) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kinds(%d)", int32(k))
	}
	return kindNames[k]
}

// Operation is one edit of the original text.
type Operation struct {
	Kind   Kinds
	Pos    int
	Length int
	Text   string
}

// Range returns the range of the original text that the operation replaces.
func (op Operation) Range() textpos.Range {
	return textpos.Range{Start: op.Pos, End: op.Pos + op.Length}
}

func (op Operation) String() string {
	switch op.Kind {
	case Insert:
		return fmt.Sprintf("insert %d %q", op.Pos, op.Text)
	case Remove:
		return fmt.Sprintf("remove %v", op.Range())
	default:
		return fmt.Sprintf("replace %v %q", op.Range(), op.Text)
	}
}

// ChangeSet is an ordered list of [Operation]s against an original text.
// All positions refer to the original text, not to the result of earlier
// operations, and no two operations may cover overlapping ranges:
// an operation that would overlap is rejected. Insertions at the same
// position are applied in the order they were added, before any
// removal or replacement starting there.
// The zero value is an empty change set, ready to use.
type ChangeSet struct {
	ops  []Operation
	errs []error
}

// Insert adds an insertion of the given text at the given position.
func (cs *ChangeSet) Insert(pos int, text string) bool {
	return cs.add(Operation{Kind: Insert, Pos: pos, Text: text})
}

// Replace adds a replacement of the range [start, end) with the given text.
func (cs *ChangeSet) Replace(start, end int, text string) bool {
	return cs.add(Operation{Kind: Replace, Pos: start, Length: end - start, Text: text})
}

// Remove adds a removal of the range [start, end).
func (cs *ChangeSet) Remove(start, end int) bool {
	return cs.add(Operation{Kind: Remove, Pos: start, Length: end - start})
}

func (cs *ChangeSet) add(op Operation) bool {
	if op.Pos < 0 || op.Length < 0 {
		return cs.reject(op, "invalid range")
	}
	for _, o := range cs.ops {
		if conflicts(o, op) {
			return cs.reject(op, "overlaps "+o.String())
		}
	}
	cs.ops = append(cs.ops, op)
	return true
}

func (cs *ChangeSet) reject(op Operation, why string) bool {
	err := errors.Errorf("changeset: %v: %s", op, why)
	slog.Warn(err.Error())
	cs.errs = append(cs.errs, err)
	return false
}

// conflicts returns whether two operations touch the same original bytes.
// An insertion conflicts only with a range that strictly contains its position.
func conflicts(a, b Operation) bool {
	ra, rb := a.Range(), b.Range()
	switch {
	case a.Kind == Insert && b.Kind == Insert:
		return false
	case a.Kind == Insert:
		return a.Pos > rb.Start && a.Pos < rb.End
	case b.Kind == Insert:
		return b.Pos > ra.Start && b.Pos < ra.End
	}
	return ra.Overlaps(rb)
}

// Operations returns the operations in the order they were added.
func (cs *ChangeSet) Operations() []Operation {
	return cs.ops
}

// IsEmpty returns true if there are no operations.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.ops) == 0
}

// Clear removes all operations and errors.
func (cs *ChangeSet) Clear() {
	cs.ops = nil
	cs.errs = nil
}

// HadErrors returns true if any operation was rejected.
func (cs *ChangeSet) HadErrors() bool {
	return len(cs.errs) > 0
}

// Err returns the errors of all rejected operations, or nil.
func (cs *ChangeSet) Err() error {
	return errors.Join(cs.errs...)
}

// sorted returns the operations sorted by position. At the same position
// insertions come first, otherwise the order of addition is kept.
func (cs *ChangeSet) sorted() []Operation {
	ops := slices.Clone(cs.ops)
	slices.SortStableFunc(ops, func(a, b Operation) int {
		if a.Pos != b.Pos {
			return a.Pos - b.Pos
		}
		switch {
		case a.Kind == Insert && b.Kind != Insert:
			return -1
		case b.Kind == Insert && a.Kind != Insert:
			return 1
		}
		return 0
	})
	return ops
}

// Apply applies all operations to the given original text and returns
// the result. The original text is not modified.
func (cs *ChangeSet) Apply(original string) (string, error) {
	var b strings.Builder
	prev := 0
	for _, op := range cs.sorted() {
		r := op.Range()
		if r.End > len(original) {
			return "", errors.Errorf("changeset: %v is beyond the end of the text (%d)", op, len(original))
		}
		b.WriteString(original[prev:r.Start])
		b.WriteString(op.Text)
		prev = r.End
	}
	b.WriteString(original[prev:])
	return b.String(), nil
}

// MapOffset translates an offset in the original text to the
// corresponding offset in the result of [ChangeSet.Apply], by summing
// the size changes of all operations before it. Offsets inside a
// removed or replaced range map to the end of its replacement, and
// text inserted exactly at the offset comes after it.
func (cs *ChangeSet) MapOffset(off int) int {
	delta := 0
	for _, op := range cs.sorted() {
		r := op.Range()
		switch {
		case r.End <= off && !(op.Kind == Insert && op.Pos == off):
			delta += len(op.Text) - op.Length
		case r.Start < off:
			return r.Start + delta + len(op.Text)
		}
	}
	return off + delta
}

func (cs *ChangeSet) String() string {
	var b strings.Builder
	for _, op := range cs.ops {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package textpos provides positions and regions within source text,
// and an [Index] that maps byte offsets to line / column positions
// and to UTF-16 code unit offsets.
package textpos

import "fmt"

// Pos is a position within the source text, as a 1-based line number
// and a 1-based column counted in bytes, which is how compiler and
// parser diagnostics are reported.
type Pos struct {
	Line int
	Char int
}

// IsLess returns true if receiver position is less than given comparison.
func (ps Pos) IsLess(cmp Pos) bool {
	switch {
	case ps.Line < cmp.Line:
		return true
	case ps.Line == cmp.Line:
		return ps.Char < cmp.Char
	default:
		return false
	}
}

// String satisfies the fmt.Stringer interface
func (ps Pos) String() string {
	return fmt.Sprintf("%d:%d", ps.Line, ps.Char)
}

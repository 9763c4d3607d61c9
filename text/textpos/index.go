// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package textpos

import (
	"sort"
	"unicode/utf8"
)

// Index maps byte offsets within one source text to [Pos] line / column
// positions and to UTF-16 code unit offsets. It is built once per text
// and owned by whoever processes that text.
type Index struct {
	src []byte

	// lines holds the byte offset of the start of each line.
	lines []int

	// utf16 holds the UTF-16 offset of the start of each line.
	utf16 []int
}

// NewIndex returns a new [Index] for the given source text.
func NewIndex(src []byte) *Index {
	ix := &Index{src: src, lines: []int{0}, utf16: []int{0}}
	u := 0
	for i := 0; i < len(src); {
		r, sz := utf8.DecodeRune(src[i:])
		u += utf16Len(r)
		i += sz
		if r == '\n' {
			ix.lines = append(ix.lines, i)
			ix.utf16 = append(ix.utf16, u)
		}
	}
	return ix
}

func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

// NumLines returns the number of lines in the text.
func (ix *Index) NumLines() int {
	return len(ix.lines)
}

// LineStart returns the byte offset of the start of the given 1-based line.
func (ix *Index) LineStart(line int) int {
	line = min(max(line, 1), len(ix.lines))
	return ix.lines[line-1]
}

// line returns the 0-based line index containing the given offset.
func (ix *Index) line(off int) int {
	return sort.Search(len(ix.lines), func(i int) bool { return ix.lines[i] > off }) - 1
}

// Pos returns the line / column position of the given byte offset.
func (ix *Index) Pos(off int) Pos {
	off = min(max(off, 0), len(ix.src))
	li := ix.line(off)
	return Pos{Line: li + 1, Char: off - ix.lines[li] + 1}
}

// UTF16Offset returns the offset of the given byte offset
// in UTF-16 code units.
func (ix *Index) UTF16Offset(off int) int {
	off = min(max(off, 0), len(ix.src))
	li := ix.line(off)
	u := ix.utf16[li]
	for i := ix.lines[li]; i < off; {
		r, sz := utf8.DecodeRune(ix.src[i:])
		u += utf16Len(r)
		i += sz
	}
	return u
}

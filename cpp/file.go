// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"bytes"
	"fmt"
	"strings"
	"text/scanner"

	"cogentcore.org/refactor/base/errors"
	"cogentcore.org/refactor/text/textpos"
)

// guardState is the state of include guard detection in a file.
type guardState int32

const (
	// guardInit is before the first token or directive.
	guardInit guardState = iota

	// guardIfndef is after an opening #ifndef X.
	guardIfndef

	// guardDefine is after #define X, inside the guarded region.
	guardDefine

	// guardEndif is after the #endif closing the guarded region.
	guardEndif

	// guardNone is when the file is not guarded.
	guardNone
)

// cond is one level of conditional directives.
type cond struct {

	// outer is whether the enclosing region is skipped.
	outer bool

	// active is whether the current branch is included.
	active bool

	// taken is whether some branch has been included.
	taken bool

	// sawElse is whether #else has been seen.
	sawElse bool

	// line is the line of the opening directive.
	line int
}

// fileState is the state of one file being preprocessed.
type fileState struct {
	name  string
	src   []byte
	index *textpos.Index
	toks  []Token

	// pos is the index of the next token.
	pos int

	// out is the output text.
	out bytes.Buffer

	// done is the source offset up to which out has been written.
	done int

	conds []cond

	guard     guardState
	guardName string
}

func (fs *fileState) errorf(t Token, format string, a ...any) error {
	return errors.Errorf("%s:%d: %w", fs.name, t.Line, fmt.Errorf(format, a...))
}

func (fs *fileState) skipping() bool {
	if len(fs.conds) == 0 {
		return false
	}
	c := fs.conds[len(fs.conds)-1]
	return c.outer || !c.active
}

// atLineStart returns whether token i is the first on its line.
func (fs *fileState) atLineStart(i int) bool {
	return i == 0 || fs.toks[i-1].Kind == kindNewline
}

// nextNonNewline returns the index of the first token at or after i
// that is not a newline.
func (fs *fileState) nextNonNewline(i int) int {
	for i < len(fs.toks) && fs.toks[i].Kind == kindNewline {
		i++
	}
	return i
}

// copyTo copies the source text up to the given offset to the output.
func (fs *fileState) copyTo(off int) {
	if off <= fs.done {
		return
	}
	fs.out.Write(fs.src[fs.done:off])
	fs.done = off
}

// blankTo writes only the newlines of the source text
// up to the given offset to the output.
func (fs *fileState) blankTo(off int) {
	if off <= fs.done {
		return
	}
	fs.out.Write(bytes.Repeat([]byte{'\n'}, bytes.Count(fs.src[fs.done:off], []byte{'\n'})))
	fs.done = off
}

// guardToken updates the include guard state for a text token.
func (fs *fileState) guardToken() {
	switch fs.guard {
	case guardInit, guardIfndef, guardEndif:
		fs.guard = guardNone
	}
}

// guardDirective updates the include guard state for a directive,
// before the directive is handled.
func (fs *fileState) guardDirective(name string, args []Token) {
	depth := len(fs.conds)
	switch fs.guard {
	case guardInit:
		if name == "ifndef" && depth == 0 && len(args) > 0 {
			fs.guard = guardIfndef
			fs.guardName = args[0].Text
			return
		}
		fs.guard = guardNone
	case guardIfndef:
		if name == "define" && len(args) > 0 && args[0].Text == fs.guardName {
			fs.guard = guardDefine
			return
		}
		fs.guard = guardNone
	case guardDefine:
		if depth != 1 {
			return
		}
		switch name {
		case "endif":
			fs.guard = guardEndif
		case "else", "elif":
			fs.guard = guardNone
		}
	case guardEndif:
		fs.guard = guardNone
	}
}

// argumentReferences returns the source locations of the given
// macro arguments, each preceded by the given separator token.
func (fs *fileState) argumentReferences(args [][]Token, seps []Token) []MacroArgumentReference {
	refs := make([]MacroArgumentReference, len(args))
	for i, a := range args {
		start := seps[i].Offset + len(seps[i].Text)
		end := start
		if len(a) > 0 {
			start = a[0].Offset
			last := a[len(a)-1]
			end = last.Offset + len(last.Text)
		}
		u16 := fs.index.UTF16Offset(start)
		refs[i] = MacroArgumentReference{
			BytesOffset: start,
			BytesLength: end - start,
			UTF16Offset: u16,
			UTF16Length: fs.index.UTF16Offset(end) - u16,
		}
	}
	return refs
}

// headerName returns the file name and include type of the
// given #include operand tokens.
func (fs *fileState) headerName(toks []Token) (string, IncludeType, error) {
	if len(toks) == 0 {
		return "", IncludeLocal, fmt.Errorf("expects \"FILENAME\" or <FILENAME>")
	}
	first := toks[0]
	if first.Kind == scanner.String {
		return strings.Trim(first.Text, `"`), IncludeLocal, nil
	}
	if first.Text != "<" {
		return "", IncludeLocal, fmt.Errorf("expects \"FILENAME\" or <FILENAME>, found %q", first.Text)
	}
	for i := 1; i < len(toks); i++ {
		if toks[i].Text != ">" {
			continue
		}
		if first.Offset >= 0 && toks[i].Offset >= 0 {
			return string(fs.src[first.Offset+1 : toks[i].Offset]), IncludeGlobal, nil
		}
		var b strings.Builder
		for _, t := range toks[1:i] {
			b.WriteString(t.Text)
		}
		return b.String(), IncludeGlobal, nil
	}
	return "", IncludeGlobal, fmt.Errorf("missing terminating > character")
}

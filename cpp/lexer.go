// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"bytes"
	"fmt"
	"text/scanner"
	"unicode"
)

// Token kinds in addition to those of text/scanner.
const (
	// kindPunct is a punctuator such as ( or ## or <<=.
	kindPunct rune = -20 - iota

	// kindNewline ends a logical line.
	kindNewline
)

// punctuators are the multi-character punctuators, longest first.
var punctuators = []string{
	"<<=", ">>=", "...",
	"##", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "->", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "::",
}

// lex splits the given source into preprocessing tokens. Comments are
// dropped, backslash-newline continuations are joined, and each line
// ends with a kindNewline token. Malformed literals are reported but
// do not stop the scan.
func lex(src []byte) ([]Token, []error) {
	var s scanner.Scanner
	var errs []error
	s.Init(bytes.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanChars |
		scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	s.Whitespace = 1<<'\t' | 1<<'\r' | 1<<'\f' | 1<<'\v' | 1<<' '
	s.Error = func(s *scanner.Scanner, msg string) {
		errs = append(errs, fmt.Errorf("%d:%d: %s", s.Pos().Line, s.Pos().Column, msg))
	}

	var toks []Token
	prevEnd := 0
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		off := s.Position.Offset
		t := Token{Kind: tok, Offset: off, Line: s.Position.Line, Space: off > prevEnd}
		switch tok {
		case scanner.Ident, scanner.Char, scanner.String:
		case scanner.Int, scanner.Float:
			// pp-number suffixes such as 10UL or 1.5f
			for ch := s.Peek(); ch == '_' || ch == '.' || unicode.IsLetter(ch) || unicode.IsDigit(ch); ch = s.Peek() {
				s.Next()
			}
		case '\n':
			t.Kind = kindNewline
		case '\\':
			if s.Peek() == '\r' {
				s.Next()
			}
			if s.Peek() == '\n' {
				s.Next()
				// a continuation is whitespace for the next token
				prevEnd = off
				continue
			}
			t.Kind = kindPunct
		default:
			t.Kind = kindPunct
			for _, p := range punctuators {
				if rest := src[off:]; bytes.HasPrefix(rest, []byte(p)) {
					for range len(p) - 1 {
						s.Next()
					}
					break
				}
			}
		}
		end := s.Pos().Offset
		t.Text = string(src[off:end])
		prevEnd = end
		toks = append(toks, t)
	}
	return toks, errs
}

// isIdentifier returns whether the given text is a valid identifier.
func isIdentifier(text string) bool {
	if text == "" {
		return false
	}
	for i, r := range text {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

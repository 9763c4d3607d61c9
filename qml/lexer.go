// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qml

import (
	"io"

	"cogentcore.org/refactor/base/errors"
	"cogentcore.org/refactor/text/textpos"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// Token is a significant token of QML source: whitespace and
// comments are dropped, but recorded in NewlineBefore.
type Token struct {
	Type js.TokenType
	Text string
	Loc  Location

	// NewlineBefore is whether a line break precedes the token.
	NewlineBefore bool
}

// EOF returns whether the token marks the end of the source.
func (t Token) EOF() bool {
	return t.Type == js.ErrorToken
}

// Is returns whether the token is a name with the given text.
// Reserved words are names in QML member position.
func (t Token) Is(name string) bool {
	return js.IsIdentifierName(t.Type) && t.Text == name
}

// Lex splits the given source into tokens, ending with an EOF token.
// A regular expression literal is recognized wherever a slash
// starts an operand.
func Lex(src []byte) ([]Token, error) {
	ix := textpos.NewIndex(src)
	loc := func(off, n int) Location {
		p := ix.Pos(off)
		return Location{Offset: off, Length: n, Line: p.Line, Column: p.Char}
	}
	l := js.NewLexer(parse.NewInputBytes(src))
	var toks []Token
	prev := js.ErrorToken
	off := 0
	nl := false
	for {
		tt, data := l.Next()
		if tt == js.ErrorToken {
			if err := l.Err(); err != io.EOF {
				msg := err.Error()
				var perr *parse.Error
				if errors.As(err, &perr) {
					msg = perr.Message
				}
				return toks, &Error{Loc: loc(off, 0), Msg: msg}
			}
			toks = append(toks, Token{Type: js.ErrorToken, Loc: loc(len(src), 0), NewlineBefore: true})
			return toks, nil
		}
		start := off
		off += len(data)
		switch tt {
		case js.WhitespaceToken, js.CommentToken:
			continue
		case js.LineTerminatorToken, js.CommentLineTerminatorToken:
			nl = true
			continue
		case js.DivToken, js.DivEqToken:
			if !endsOperand(prev) {
				tt, data = l.RegExp()
				if tt == js.ErrorToken {
					return toks, &Error{Loc: loc(start, 0), Msg: "unterminated regular expression"}
				}
				off = start + len(data)
			}
		}
		toks = append(toks, Token{Type: tt, Text: string(data), Loc: loc(start, len(data)), NewlineBefore: nl})
		prev = tt
		nl = false
	}
}

// endsOperand returns whether a slash after a token of the given type
// is a division rather than the start of a regular expression.
func endsOperand(tt js.TokenType) bool {
	switch tt {
	case js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken,
		js.StringToken, js.TemplateToken, js.TemplateEndToken, js.RegExpToken,
		js.ThisToken, js.SuperToken, js.TrueToken, js.FalseToken, js.NullToken,
		js.IncrToken, js.DecrToken, js.PrivateIdentifierToken:
		return true
	}
	return js.IsNumeric(tt) || js.IsIdentifier(tt)
}

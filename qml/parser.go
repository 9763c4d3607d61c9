// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qml parses QML documents into a syntax tree that records
// the exact source location of every structural token, so that the
// tree can drive source-preserving edits. JavaScript expressions are
// kept as token ranges and are not parsed further.
package qml

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"github.com/tdewolff/parse/v2/js"
)

// Error is a syntax error at a source location.
type Error struct {
	File string
	Loc  Location
	Msg  string
}

func (e *Error) Error() string {
	f := e.File
	if f == "" {
		f = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", f, e.Loc.Line, e.Loc.Column, e.Msg)
}

// Parse parses the given QML source. The fileName is only used
// in error messages.
func Parse(fileName string, src []byte) (*Program, error) {
	toks, err := Lex(src)
	if err != nil {
		err.(*Error).File = fileName
		return nil, err
	}
	p := &parser{toks: toks, file: fileName}
	prog, err := p.program()
	if err != nil {
		return nil, err
	}
	prog.Source = string(src)
	slog.Debug("qml: parsed", "file", fileName, "tokens", len(toks), "imports", len(prog.Imports))
	return prog, nil
}

type parser struct {
	toks []Token
	pos  int
	file string
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) peekN(n int) Token {
	return p.toks[min(p.pos+n, len(p.toks)-1)]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if !t.EOF() {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t Token, format string, args ...any) error {
	return &Error{File: p.file, Loc: t.Loc, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) unexpected(t Token, want string) error {
	if t.EOF() {
		return p.errorf(t, "unexpected end of file, expected %s", want)
	}
	return p.errorf(t, "unexpected %q, expected %s", t.Text, want)
}

func (p *parser) expect(tt js.TokenType, want string) (Token, error) {
	t := p.peek()
	if t.Type != tt {
		return t, p.unexpected(t, want)
	}
	return p.next(), nil
}

// semicolon consumes an optional semicolon on the current line.
func (p *parser) semicolon() Location {
	if t := p.peek(); t.Type == js.SemicolonToken && !t.NewlineBefore {
		return p.next().Loc
	}
	return Location{}
}

func (p *parser) program() (*Program, error) {
	prog := &Program{}
	for p.peek().Is("pragma") {
		pr, err := p.pragma()
		if err != nil {
			return nil, err
		}
		prog.Pragmas = append(prog.Pragmas, pr)
	}
	for p.peek().Type == js.ImportToken {
		im, err := p.importStatement()
		if err != nil {
			return nil, err
		}
		prog.Imports = append(prog.Imports, im)
	}
	q, err := p.qualifiedID()
	if err != nil {
		return nil, err
	}
	init, err := p.objectInitializer()
	if err != nil {
		return nil, err
	}
	prog.Root = &ObjectDefinition{TypeName: q, Initializer: init}
	if t := p.peek(); !t.EOF() {
		return nil, p.unexpected(t, "end of file after root object")
	}
	return prog, nil
}

func (p *parser) pragma() (*Pragma, error) {
	pr := &Pragma{PragmaToken: p.next().Loc}
	t := p.next()
	if !js.IsIdentifierName(t.Type) {
		return nil, p.unexpected(t, "pragma name")
	}
	pr.Name = Name{Text: t.Text, Loc: t.Loc}
	// values, as in pragma ComponentBehavior: Bound
	for t := p.peek(); !t.EOF() && !t.NewlineBefore && t.Type != js.SemicolonToken; t = p.peek() {
		p.next()
	}
	pr.Semicolon = p.semicolon()
	return pr, nil
}

func (p *parser) importStatement() (*Import, error) {
	im := &Import{ImportToken: p.next().Loc}
	t := p.peek()
	if t.Type == js.StringToken {
		p.next()
		s, err := strconv.Unquote(`"` + t.Text[1:len(t.Text)-1] + `"`)
		if err != nil {
			s = t.Text[1 : len(t.Text)-1]
		}
		im.FileName, im.FileNameToken = s, t.Loc
	} else {
		q, err := p.qualifiedID()
		if err != nil {
			return nil, err
		}
		im.URI = q
	}
	if t := p.peek(); js.IsNumeric(t.Type) && !t.NewlineBefore {
		p.next()
		text, loc := t.Text, t.Loc
		// 6.5.1 lexes as 6.5 followed by .1
		for n := p.peek(); js.IsNumeric(n.Type) && n.Loc.Offset == loc.End() && n.Text[0] == '.'; n = p.peek() {
			p.next()
			text += n.Text
			loc.Length += n.Loc.Length
		}
		v, err := semver.NewVersion(text)
		if err != nil {
			return nil, p.errorf(t, "invalid import version %q: %v", text, err)
		}
		im.Version, im.VersionToken = v, loc
	}
	if t := p.peek(); t.Is("as") && !t.NewlineBefore {
		im.AsToken = p.next().Loc
		a := p.next()
		if !js.IsIdentifierName(a.Type) {
			return nil, p.unexpected(a, "import qualifier")
		}
		im.Alias = Name{Text: a.Text, Loc: a.Loc}
	}
	im.Semicolon = p.semicolon()
	return im, nil
}

func (p *parser) qualifiedID() (QualifiedID, error) {
	t := p.peek()
	if !js.IsIdentifierName(t.Type) {
		return nil, p.unexpected(t, "name")
	}
	p.next()
	q := QualifiedID{{Text: t.Text, Loc: t.Loc}}
	for p.peek().Type == js.DotToken && js.IsIdentifierName(p.peekN(1).Type) {
		p.next()
		n := p.next()
		q = append(q, Name{Text: n.Text, Loc: n.Loc})
	}
	return q, nil
}

func (p *parser) objectInitializer() (*ObjectInitializer, error) {
	lb, err := p.expect(js.OpenBraceToken, "{")
	if err != nil {
		return nil, err
	}
	init := &ObjectInitializer{LBrace: lb.Loc}
	for {
		t := p.peek()
		switch {
		case t.Type == js.CloseBraceToken:
			init.RBrace = p.next().Loc
			return init, nil
		case t.EOF():
			return nil, p.unexpected(t, "}")
		case t.Type == js.SemicolonToken:
			p.next()
			continue
		}
		m, err := p.member()
		if err != nil {
			return nil, err
		}
		init.Members = append(init.Members, m)
	}
}

func (p *parser) member() (Member, error) {
	t := p.peek()
	// a keyword followed by these is an ordinary property name
	switch p.peekN(1).Type {
	case js.ColonToken, js.DotToken, js.OpenBraceToken:
	default:
		switch {
		case t.Is("default"), t.Is("readonly"), t.Is("required"), t.Is("property"), t.Is("signal"):
			return p.publicMember()
		case t.Is("function"), t.Is("enum"):
			return p.sourceElement()
		case t.Is("component"):
			return p.inlineComponent()
		}
	}
	q, err := p.qualifiedID()
	if err != nil {
		return nil, err
	}
	t = p.peek()
	switch {
	case t.Type == js.OpenBraceToken:
		init, err := p.objectInitializer()
		if err != nil {
			return nil, err
		}
		return &ObjectDefinition{TypeName: q, Initializer: init}, nil
	case t.Is("on"):
		p.next()
		target, err := p.qualifiedID()
		if err != nil {
			return nil, err
		}
		init, err := p.objectInitializer()
		if err != nil {
			return nil, err
		}
		return &ObjectBinding{QualifiedID: target, OnToken: t.Loc, TypeName: q, Initializer: init}, nil
	case t.Type == js.ColonToken:
		p.next()
		return p.binding(q, t.Loc)
	}
	return nil, p.unexpected(t, "{, : or on after "+q.String())
}

func (p *parser) binding(q QualifiedID, colon Location) (Member, error) {
	save := p.pos
	t := p.peek()
	if t.Type == js.OpenBracketToken {
		if ab := p.arrayBinding(q, colon); ab != nil {
			return ab, nil
		}
		p.pos = save
	}
	if js.IsIdentifierName(t.Type) {
		typ, err := p.qualifiedID()
		if err == nil && p.peek().Type == js.OpenBraceToken {
			init, err := p.objectInitializer()
			if err != nil {
				return nil, err
			}
			return &ObjectBinding{QualifiedID: q, Colon: colon, TypeName: typ, Initializer: init}, nil
		}
		p.pos = save
	}
	st, err := p.statement(false)
	if err != nil {
		return nil, err
	}
	return &ScriptBinding{QualifiedID: q, Colon: colon, Statement: st}, nil
}

// arrayBinding parses a bracketed list of objects or expressions.
// It returns nil if the brackets turn out to start an ordinary
// expression, as in [] or [1, 2].length.
func (p *parser) arrayBinding(q QualifiedID, colon Location) *ArrayBinding {
	ab := &ArrayBinding{QualifiedID: q, Colon: colon, LBracket: p.next().Loc}
	for {
		t := p.peek()
		if t.Type == js.CloseBracketToken && len(ab.Elements) > 0 {
			ab.RBracket = p.next().Loc
			break
		}
		var comma Location
		if len(ab.Elements) > 0 {
			if t.Type != js.CommaToken {
				return nil
			}
			comma = p.next().Loc
		}
		m, err := p.arrayMember()
		if err != nil {
			return nil
		}
		ab.Elements = append(ab.Elements, &ArrayElement{Comma: comma, Member: m})
	}
	switch t := p.peek(); {
	case t.EOF(), t.NewlineBefore, t.Type == js.SemicolonToken, t.Type == js.CloseBraceToken:
		return ab
	}
	return nil
}

func (p *parser) arrayMember() (Member, error) {
	save := p.pos
	if js.IsIdentifierName(p.peek().Type) {
		q, err := p.qualifiedID()
		if err == nil && p.peek().Type == js.OpenBraceToken {
			init, err := p.objectInitializer()
			if err != nil {
				return nil, err
			}
			return &ObjectDefinition{TypeName: q, Initializer: init}, nil
		}
		p.pos = save
	}
	return p.statement(true)
}

// statement consumes the tokens of one expression or block.
// At nesting depth zero it ends before a closing brace, at a semicolon,
// or at a line break that cannot continue the expression. Inside an
// array it also ends before a comma or closing bracket.
func (p *parser) statement(inArray bool) (*Statement, error) {
	first := p.peek()
	switch {
	case first.EOF(), first.Type == js.CloseBraceToken, first.Type == js.SemicolonToken,
		inArray && (first.Type == js.CommaToken || first.Type == js.CloseBracketToken):
		return nil, p.unexpected(first, "expression")
	}
	st := &Statement{First: first.Loc}
	depth, ternary := 0, 0
	var last Token
	for n := 0; ; n++ {
		t := p.peek()
		if t.EOF() {
			if depth > 0 {
				return nil, p.unexpected(t, "closing bracket")
			}
			break
		}
		if depth == 0 && n > 0 {
			if t.NewlineBefore && !continues(last.Type, t.Type, ternary > 0) {
				break
			}
			if t.Type == js.SemicolonToken && !inArray {
				st.Semicolon = p.next().Loc
				break
			}
			if t.Type == js.CloseBraceToken || inArray && (t.Type == js.CommaToken || t.Type == js.CloseBracketToken) {
				break
			}
		}
		switch t.Type {
		case js.OpenBraceToken, js.OpenParenToken, js.OpenBracketToken, js.TemplateStartToken:
			depth++
		case js.CloseBraceToken, js.CloseParenToken, js.CloseBracketToken, js.TemplateEndToken:
			depth--
			if depth < 0 {
				return nil, p.errorf(t, "unbalanced %q", t.Text)
			}
		case js.QuestionToken:
			if depth == 0 {
				ternary++
			}
		case js.ColonToken:
			if depth == 0 && ternary > 0 {
				ternary--
			}
		}
		last = p.next()
	}
	st.Last = last.Loc
	return st, nil
}

// continues returns whether a line break between two tokens
// leaves the expression open.
func continues(prev, next js.TokenType, ternary bool) bool {
	switch prev {
	case js.IncrToken, js.DecrToken:
	case js.DotToken, js.CommaToken, js.QuestionToken, js.ColonToken, js.ArrowToken, js.EllipsisToken:
		return true
	default:
		if js.IsOperator(prev) {
			return true
		}
	}
	switch next {
	case js.DotToken, js.QuestionToken, js.ArrowToken, js.InToken, js.InstanceofToken:
		return true
	case js.ColonToken:
		return ternary
	case js.NotToken, js.BitNotToken, js.IncrToken, js.DecrToken:
		return false
	}
	return js.IsOperator(next)
}

// skipBalanced consumes tokens from an opening bracket through
// the matching closing one, which it returns.
func (p *parser) skipBalanced() (Token, error) {
	depth := 0
	for {
		t := p.next()
		switch t.Type {
		case js.OpenBraceToken, js.OpenParenToken, js.OpenBracketToken, js.TemplateStartToken:
			depth++
		case js.CloseBraceToken, js.CloseParenToken, js.CloseBracketToken, js.TemplateEndToken:
			depth--
			if depth == 0 {
				return t, nil
			}
		}
		if t.EOF() {
			return t, p.unexpected(t, "closing bracket")
		}
	}
}

func (p *parser) publicMember() (Member, error) {
	pm := &PublicMember{First: p.peek().Loc}
modifiers:
	for {
		switch t := p.peek(); {
		case t.Is("default"):
			pm.Default = true
		case t.Is("readonly"):
			pm.Readonly = true
		case t.Is("required"):
			pm.Required = true
		default:
			break modifiers
		}
		p.next()
	}
	t := p.next()
	switch {
	case t.Is("property"):
		pm.Type = Property
		typ, err := p.qualifiedID()
		if err != nil {
			return nil, err
		}
		pm.MemberType, pm.TypeToken = typ.String(), typ.First()
		if p.peek().Type == js.LtToken {
			p.next()
			inner, err := p.qualifiedID()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(js.GtToken, ">"); err != nil {
				return nil, err
			}
			pm.TypeModifier, pm.MemberType = pm.MemberType, inner.String()
		}
		n := p.next()
		if !js.IsIdentifierName(n.Type) {
			return nil, p.unexpected(n, "property name")
		}
		pm.Name, pm.NameToken = n.Text, n.Loc
		if c := p.peek(); c.Type == js.ColonToken {
			pm.Colon = p.next().Loc
			st, err := p.statement(false)
			if err != nil {
				return nil, err
			}
			// the semicolon belongs to the declaration
			pm.Statement, pm.Semicolon = st, st.Semicolon
			st.Semicolon = Location{}
			return pm, nil
		}
	case t.Is("signal"):
		pm.Type = Signal
		n := p.next()
		if !js.IsIdentifierName(n.Type) {
			return nil, p.unexpected(n, "signal name")
		}
		pm.Name, pm.NameToken = n.Text, n.Loc
		if p.peek().Type == js.OpenParenToken {
			rp, err := p.skipBalanced()
			if err != nil {
				return nil, err
			}
			pm.RParen = rp.Loc
		}
	case pm.Required && !pm.Default && !pm.Readonly && js.IsIdentifierName(t.Type):
		// required name marks an inherited property as required
		return &SourceElement{Keyword: "required", Name: Name{Text: t.Text, Loc: t.Loc}, First: pm.First, Last: t.Loc}, nil
	default:
		return nil, p.unexpected(t, "property or signal")
	}
	pm.Semicolon = p.semicolon()
	return pm, nil
}

// sourceElement records the extent of a function or enum declaration.
func (p *parser) sourceElement() (Member, error) {
	kw := p.next()
	se := &SourceElement{Keyword: kw.Text, First: kw.Loc}
	if n := p.peek(); js.IsIdentifierName(n.Type) {
		p.next()
		se.Name = Name{Text: n.Text, Loc: n.Loc}
	}
	for t := p.peek(); t.Type != js.OpenBraceToken; t = p.peek() {
		switch {
		case t.EOF():
			return nil, p.unexpected(t, "{")
		case t.Type == js.OpenParenToken:
			if _, err := p.skipBalanced(); err != nil {
				return nil, err
			}
		default:
			p.next()
		}
	}
	rb, err := p.skipBalanced()
	if err != nil {
		return nil, err
	}
	se.Last = rb.Loc
	return se, nil
}

// inlineComponent records the extent of component Name: Type { ... }.
func (p *parser) inlineComponent() (Member, error) {
	kw := p.next()
	n := p.next()
	if !js.IsIdentifierName(n.Type) {
		return nil, p.unexpected(n, "component name")
	}
	if _, err := p.expect(js.ColonToken, ":"); err != nil {
		return nil, err
	}
	if _, err := p.qualifiedID(); err != nil {
		return nil, err
	}
	init, err := p.objectInitializer()
	if err != nil {
		return nil, err
	}
	return &SourceElement{Keyword: kw.Text, Name: Name{Text: n.Text, Loc: n.Loc}, First: kw.Loc, Last: init.RBrace}, nil
}

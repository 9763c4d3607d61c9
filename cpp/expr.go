// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"
)

// binaryPrec is the precedence of the binary operators of #if expressions.
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

// exprParser evaluates an #if expression whose identifiers
// have already been replaced.
type exprParser struct {
	toks []Token
	pos  int

	// skip is greater than zero in operands that are not evaluated,
	// where division by zero is not an error.
	skip int
}

// evalExpr evaluates the given #if expression tokens.
func evalExpr(toks []Token) (int64, error) {
	p := &exprParser{toks: toks}
	v, err := p.ternary()
	if err != nil {
		return 0, err
	}
	if p.pos < len(p.toks) {
		return 0, fmt.Errorf("missing binary operator before token %q", p.toks[p.pos].Text)
	}
	return v, nil
}

func (p *exprParser) peek() (Token, bool) {
	if p.pos >= len(p.toks) {
		return Token{}, false
	}
	return p.toks[p.pos], true
}

// accept consumes the next token if it is the given punctuator.
func (p *exprParser) accept(punct string) bool {
	t, ok := p.peek()
	if ok && t.Kind == kindPunct && t.Text == punct {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) ternary() (int64, error) {
	c, err := p.binary(1)
	if err != nil || !p.accept("?") {
		return c, err
	}
	if c == 0 {
		p.skip++
	}
	a, err := p.ternary()
	if c == 0 {
		p.skip--
	}
	if err != nil {
		return 0, err
	}
	if !p.accept(":") {
		return 0, fmt.Errorf("'?' without following ':'")
	}
	if c != 0 {
		p.skip++
	}
	b, err := p.ternary()
	if c != 0 {
		p.skip--
	}
	if err != nil {
		return 0, err
	}
	if c != 0 {
		return a, nil
	}
	return b, nil
}

func (p *exprParser) binary(minPrec int) (int64, error) {
	lhs, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.Kind != kindPunct {
			return lhs, nil
		}
		prec, isOp := binaryPrec[t.Text]
		if !isOp || prec < minPrec {
			return lhs, nil
		}
		p.pos++
		short := (t.Text == "&&" && lhs == 0) || (t.Text == "||" && lhs != 0)
		if short {
			p.skip++
		}
		rhs, err := p.binary(prec + 1)
		if short {
			p.skip--
		}
		if err != nil {
			return 0, err
		}
		if lhs, err = p.apply(t.Text, lhs, rhs); err != nil {
			return 0, err
		}
	}
}

func (p *exprParser) apply(op string, a, b int64) (int64, error) {
	switch op {
	case "||":
		return boolInt(a != 0 || b != 0), nil
	case "&&":
		return boolInt(a != 0 && b != 0), nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return boolInt(a == b), nil
	case "!=":
		return boolInt(a != b), nil
	case "<":
		return boolInt(a < b), nil
	case ">":
		return boolInt(a > b), nil
	case "<=":
		return boolInt(a <= b), nil
	case ">=":
		return boolInt(a >= b), nil
	case "<<":
		return a << uint64(b&63), nil
	case ">>":
		return a >> uint64(b&63), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/", "%":
		if b == 0 {
			if p.skip > 0 {
				return 0, nil
			}
			return 0, fmt.Errorf("division by zero in #if")
		}
		if op == "/" {
			return a / b, nil
		}
		return a % b, nil
	}
	return 0, fmt.Errorf("invalid operator %q in #if", op)
}

func (p *exprParser) unary() (int64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("#if with incomplete expression")
	}
	p.pos++
	switch t.Kind {
	case scanner.Int:
		return parseInt(t.Text)
	case scanner.Char:
		return parseChar(t.Text)
	case scanner.Float:
		return 0, fmt.Errorf("floating constant %s in preprocessor expression", t.Text)
	case kindPunct:
		switch t.Text {
		case "(":
			v, err := p.ternary()
			if err != nil {
				return 0, err
			}
			if !p.accept(")") {
				return 0, fmt.Errorf("missing ')' in expression")
			}
			return v, nil
		case "!", "-", "+", "~":
			v, err := p.unary()
			if err != nil {
				return 0, err
			}
			switch t.Text {
			case "!":
				return boolInt(v == 0), nil
			case "-":
				return -v, nil
			case "~":
				return ^v, nil
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("token %q is not valid in preprocessor expressions", t.Text)
}

// parseInt parses a C integer constant, with its suffix.
func parseInt(text string) (int64, error) {
	s := strings.TrimRight(text, "uUlL")
	if len(s) > 1 && s[0] == '0' && (s[1] == 'b' || s[1] == 'B') {
		u, err := strconv.ParseUint(s[2:], 2, 64)
		return int64(u), err
	}
	if len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		u, err := strconv.ParseUint(s[1:], 8, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer constant %s in #if", text)
		}
		return int64(u), nil
	}
	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer constant %s in #if", text)
	}
	return int64(u), nil
}

// parseChar parses a C character constant.
func parseChar(text string) (int64, error) {
	s, err := strconv.Unquote(text)
	if err != nil || len([]rune(s)) != 1 {
		return 0, fmt.Errorf("invalid character constant %s in #if", text)
	}
	return int64([]rune(s)[0]), nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"fmt"
	"maps"
	"strings"
	"text/scanner"
	"unicode"
)

// expandMacro returns the expansion of the given macro with the given
// arguments. The hide set holds the names of the macros being expanded,
// which are not expanded again.
func (pp *Preprocessor) expandMacro(m *Macro, args [][]Token, hide map[string]bool) ([]Token, error) {
	var body []Token
	if m.FunctionLike {
		args, err := normalizeArgs(m, args)
		if err != nil {
			return nil, err
		}
		if body, err = pp.substitute(m, args, hide); err != nil {
			return nil, err
		}
	} else {
		body = make([]Token, len(m.Tokens))
		for i, t := range m.Tokens {
			t.Offset = -1
			body[i] = t
		}
	}
	inner := maps.Clone(hide)
	if inner == nil {
		inner = map[string]bool{}
	}
	inner[m.Name] = true
	return pp.expandList(body, inner)
}

// expandList expands all of the macro invocations in the given tokens.
func (pp *Preprocessor) expandList(toks []Token, hide map[string]bool) ([]Token, error) {
	var out []Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != scanner.Ident {
			out = append(out, t)
			continue
		}
		if pp.Env.HideNext {
			pp.Env.HideNext = false
			out = append(out, t)
			continue
		}
		if t.Text == "defined" {
			// the operand of defined is checked, not expanded
			pp.Env.HideNext = true
			out = append(out, t)
			continue
		}
		m := pp.Env.Resolve(t.Text)
		if m == nil || hide[t.Text] {
			if m == nil && IsBuiltinMacro(t.Text) {
				bt := pp.builtin(t.Text)
				bt.Space = t.Space
				out = append(out, bt)
				continue
			}
			out = append(out, t)
			continue
		}
		var args [][]Token
		if m.FunctionLike {
			if i+1 >= len(toks) || toks[i+1].Kind != kindPunct || toks[i+1].Text != "(" {
				out = append(out, t)
				continue
			}
			a, _, cls := collectArgs(toks, i+1)
			if cls < 0 {
				return nil, fmt.Errorf("unterminated argument list invoking macro %q", m.Name)
			}
			args = a
			i = cls
		}
		exp, err := pp.expandMacro(m, args, hide)
		if err != nil {
			return nil, err
		}
		if len(exp) > 0 {
			exp[0].Space = t.Space
		}
		out = append(out, exp...)
	}
	pp.Env.HideNext = false
	return out, nil
}

// substitute returns the replacement list of the given function-like
// macro with its parameters replaced by the given arguments, applying
// the # and ## operators.
func (pp *Preprocessor) substitute(m *Macro, args [][]Token, hide map[string]bool) ([]Token, error) {
	var out []Token
	// placeholder is whether the last item was an empty argument
	placeholder := false
	toks := m.Tokens
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		t.Offset = -1
		pi := -1
		if t.Kind == scanner.Ident {
			pi = m.paramIndex(t.Text)
		}
		switch {
		case t.Kind == kindPunct && t.Text == "#" && i+1 < len(toks) && m.paramIndex(toks[i+1].Text) >= 0:
			i++
			out = append(out, Token{Kind: scanner.String, Text: stringify(args[m.paramIndex(toks[i].Text)]), Space: t.Space, Offset: -1})
			placeholder = false
		case t.Kind == kindPunct && t.Text == "##" && i+1 < len(toks):
			i++
			next := toks[i]
			next.Offset = -1
			rhs := []Token{next}
			ni := -1
			if next.Kind == scanner.Ident {
				ni = m.paramIndex(next.Text)
			}
			if ni >= 0 {
				rhs = args[ni]
			}
			switch {
			case len(rhs) == 0:
				// GNU extension: , ## __VA_ARGS__ drops the comma for no arguments
				if m.Variadic && ni == len(m.Params)-1 && !placeholder && len(out) > 0 && out[len(out)-1].Text == "," {
					out = out[:len(out)-1]
				}
			case placeholder || len(out) == 0:
				out = append(out, cloneTokens(rhs)...)
			default:
				lhs := &out[len(out)-1]
				lhs.Text += rhs[0].Text
				lhs.Kind = pastedKind(lhs.Text)
				out = append(out, cloneTokens(rhs[1:])...)
			}
			placeholder = false
		case pi >= 0:
			a := args[pi]
			if i+1 >= len(toks) || toks[i+1].Text != "##" {
				var err error
				if a, err = pp.expandList(a, hide); err != nil {
					return nil, err
				}
			}
			a = cloneTokens(a)
			if len(a) > 0 {
				a[0].Space = t.Space
			}
			out = append(out, a...)
			placeholder = len(a) == 0
		default:
			out = append(out, t)
			placeholder = false
		}
	}
	return out, nil
}

// normalizeArgs checks the number of the given arguments against the
// parameters of m, and gathers the variable arguments into one.
func normalizeArgs(m *Macro, args [][]Token) ([][]Token, error) {
	n := len(m.Params)
	if n == 0 && len(args) == 1 && len(args[0]) == 0 {
		return nil, nil
	}
	if m.Variadic {
		switch {
		case len(args) == n-1:
			return append(args, nil), nil
		case len(args) > n:
			va := args[n-1]
			for _, a := range args[n:] {
				va = append(va, Token{Kind: kindPunct, Text: ",", Offset: -1})
				va = append(va, a...)
			}
			return append(args[:n-1:n-1], va), nil
		}
	}
	if len(args) != n {
		return nil, fmt.Errorf("macro %q passed %d arguments, but takes %d", m.Name, len(args), n)
	}
	return args, nil
}

// collectArgs collects the arguments of the macro invocation whose
// opening parenthesis is toks[open]. It returns the arguments, the
// tokens preceding each argument, and the index of the closing
// parenthesis, which is -1 if there is none. Newlines are dropped.
func collectArgs(toks []Token, open int) (args [][]Token, seps []Token, cls int) {
	depth := 0
	cur := []Token{}
	seps = append(seps, toks[open])
	space := false
	for i := open + 1; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == kindNewline {
			space = true
			continue
		}
		if space {
			t.Space = true
			space = false
		}
		if t.Kind == kindPunct {
			switch t.Text {
			case "(":
				depth++
			case ")":
				if depth == 0 {
					return append(args, cur), seps, i
				}
				depth--
			case ",":
				if depth == 0 {
					args = append(args, cur)
					cur = []Token{}
					seps = append(seps, t)
					continue
				}
			}
		}
		cur = append(cur, t)
	}
	return nil, nil, -1
}

// stringify returns the given argument as a string literal,
// as done by the # operator.
func stringify(arg []Token) string {
	var b strings.Builder
	b.WriteByte('"')
	for i, t := range arg {
		if i > 0 && t.Space {
			b.WriteByte(' ')
		}
		if t.Kind == scanner.String || t.Kind == scanner.Char {
			b.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(t.Text))
			continue
		}
		b.WriteString(t.Text)
	}
	b.WriteByte('"')
	return b.String()
}

// pastedKind returns the token kind of the result of ##.
func pastedKind(text string) rune {
	switch {
	case isIdentifier(text):
		return scanner.Ident
	case text != "" && unicode.IsDigit(rune(text[0])):
		return scanner.Int
	}
	return kindPunct
}

func cloneTokens(toks []Token) []Token {
	res := make([]Token, len(toks))
	for i, t := range toks {
		t.Offset = -1
		res[i] = t
	}
	return res
}

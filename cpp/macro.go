// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"strings"

	"cogentcore.org/refactor/base/errors"
	"github.com/jinzhu/copier"
)

// Token is one preprocessing token of a macro replacement list
// or a macro argument.
type Token struct {

	// Kind is the token kind: one of the text/scanner token kinds
	// for identifiers, numbers and literals, or kindPunct.
	Kind rune `yaml:"-"`

	// Text is the token text as written in the source.
	Text string

	// Space is whether the token was preceded by whitespace.
	Space bool

	// Offset is the byte offset of the token in its source file,
	// or -1 for tokens produced by macro expansion.
	Offset int `yaml:"-"`

	// Line is the 1-based line of the token in its source file.
	Line int `yaml:"-"`
}

// Macro is a preprocessor macro definition. Once bound in an
// [Environment], a Macro is owned by it and must not be modified.
type Macro struct {

	// Name is the macro name, compared as an exact byte sequence.
	Name string

	// Params are the formal parameter names of a function-like macro.
	// For a variadic macro declared with a bare ellipsis the last
	// parameter is __VA_ARGS__.
	Params []string `yaml:",omitempty"`

	// Tokens is the replacement list.
	Tokens []Token `yaml:"-"`

	// FunctionLike is whether the macro was defined with a parameter list.
	FunctionLike bool `yaml:",omitempty"`

	// Variadic is whether the last parameter takes the remaining arguments.
	Variadic bool `yaml:",omitempty"`

	// Builtin is whether the macro is predefined rather than
	// coming from a #define in the source.
	Builtin bool `yaml:",omitempty"`

	// Hidden macros stay in the environment for iteration
	// but do not resolve.
	Hidden bool `yaml:",omitempty"`

	// FileName is the file containing the definition.
	FileName string `yaml:",omitempty"`

	// Line is the 1-based line of the definition.
	Line int `yaml:",omitempty"`

	// Offset is the byte offset of the macro name in the definition.
	Offset int `yaml:",omitempty"`

	// UTF16Offset is the offset of the macro name in UTF-16 code units.
	UTF16Offset int `yaml:",omitempty"`
}

// Body returns the replacement list as text.
func (m *Macro) Body() string {
	return joinTokens(m.Tokens)
}

// String returns the macro as a #define directive.
func (m *Macro) String() string {
	var b strings.Builder
	b.WriteString("#define ")
	b.WriteString(m.Name)
	if m.FunctionLike {
		b.WriteByte('(')
		for i, p := range m.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			switch {
			case m.Variadic && i == len(m.Params)-1 && p == vaArgs:
				b.WriteString("...")
			case m.Variadic && i == len(m.Params)-1:
				b.WriteString(p + "...")
			default:
				b.WriteString(p)
			}
		}
		b.WriteByte(')')
	}
	if len(m.Tokens) > 0 {
		b.WriteByte(' ')
		b.WriteString(m.Body())
	}
	return b.String()
}

// Clone returns a deep copy of the macro.
func (m *Macro) Clone() *Macro {
	nm := &Macro{}
	errors.Must(copier.CopyWithOption(nm, m, copier.Option{DeepCopy: true}))
	return nm
}

// SameDefinition returns whether the two macros have the same
// parameters and replacement list, which makes a redefinition benign.
// Whitespace is only compared by its presence between tokens.
func (m *Macro) SameDefinition(o *Macro) bool {
	if m.FunctionLike != o.FunctionLike || m.Variadic != o.Variadic ||
		len(m.Params) != len(o.Params) || len(m.Tokens) != len(o.Tokens) {
		return false
	}
	for i, p := range m.Params {
		if o.Params[i] != p {
			return false
		}
	}
	for i, t := range m.Tokens {
		ot := o.Tokens[i]
		if ot.Text != t.Text || (i > 0 && ot.Space != t.Space) {
			return false
		}
	}
	return true
}

// paramIndex returns the index of the given parameter name, or -1.
func (m *Macro) paramIndex(name string) int {
	for i, p := range m.Params {
		if p == name {
			return i
		}
	}
	return -1
}

// MacroArgumentReference is the location of one actual argument of a
// macro invocation in the original source, both in bytes and in UTF-16
// code units, since the source is UTF-8 but offsets are also reported
// for UTF-16 consumers.
type MacroArgumentReference struct {
	BytesOffset int
	BytesLength int
	UTF16Offset int
	UTF16Length int
}

// builtinMacros are the macros that the preprocessor
// computes itself instead of looking them up.
var builtinMacros = map[string]bool{
	"__LINE__": true,
	"__FILE__": true,
	"__DATE__": true,
	"__TIME__": true,
}

// IsBuiltinMacro returns whether the given name is one of the predefined
// macros __LINE__, __FILE__, __DATE__ and __TIME__. It does not depend
// on any [Environment].
func IsBuiltinMacro(name string) bool {
	return builtinMacros[name]
}

// joinTokens returns the text of the given tokens,
// with a single space wherever there was whitespace.
func joinTokens(toks []Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && t.Space {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

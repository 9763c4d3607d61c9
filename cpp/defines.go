// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"bytes"
	"fmt"
	"strings"

	"cogentcore.org/refactor/base/errors"
	"cogentcore.org/refactor/base/ordmap"
	"github.com/mattn/go-shellwords"
)

// Define is a macro definition or removal given on the command line.
type Define struct {

	// Name is the macro name, with the parameter list if any.
	Name string

	// Value is the replacement text.
	Value string

	// Undef is whether the macro is removed instead (-U).
	Undef bool
}

// String returns the define as a directive line.
func (d Define) String() string {
	if d.Undef {
		return "#undef " + d.Name
	}
	return "#define " + d.Name + " " + d.Value
}

// ParseDefines parses command line style definitions such as
// -DNAME, -DNAME=VALUE, -D NAME=VALUE and -UNAME, split into words with
// shell quoting rules. A definition without a value has the value 1.
// The result is ordered by first occurrence of each name, with the
// value of the last occurrence.
func ParseDefines(s string) (*ordmap.Map[string, Define], error) {
	args, err := shellwords.Parse(s)
	if err != nil {
		return nil, errors.Wrap(err)
	}
	defs := ordmap.New[string, Define]()
	for i := 0; i < len(args); i++ {
		arg := args[i]
		var flag string
		switch {
		case strings.HasPrefix(arg, "-D"), strings.HasPrefix(arg, "-U"):
			flag, arg = arg[:2], arg[2:]
		default:
			return nil, errors.Errorf("invalid define %q: expected -D or -U", arg)
		}
		if arg == "" {
			i++
			if i >= len(args) {
				return nil, errors.Errorf("missing macro name after %s", flag)
			}
			arg = args[i]
		}
		d := Define{Name: arg, Value: "1", Undef: flag == "-U"}
		if name, value, ok := strings.Cut(arg, "="); ok && !d.Undef {
			d.Name, d.Value = name, value
		}
		key, _, _ := strings.Cut(d.Name, "(")
		if !isIdentifier(key) {
			return nil, errors.Errorf("macro names must be identifiers: %q", d.Name)
		}
		defs.Add(key, d)
	}
	return defs, nil
}

// DefinesSource returns the given definitions as preprocessor source,
// one directive per line, to be preprocessed as an injected file.
func DefinesSource(defs *ordmap.Map[string, Define]) []byte {
	var b bytes.Buffer
	for _, d := range defs.All() {
		fmt.Fprintln(&b, d.String())
	}
	return b.Bytes()
}

// predefined are the macros bound by [Predefine].
var predefined = []string{
	"#define __STDC__ 1",
	"#define __STDC_HOSTED__ 1",
	"#define __STDC_VERSION__ 201710L",
}

// Predefine binds the standard predefined macros in the given
// environment, marked as builtin. They do not generate client events.
func Predefine(env *Environment) {
	for _, line := range predefined {
		toks, _ := lex([]byte(line))
		m := Macro{Name: toks[2].Text, Builtin: true, FileName: "<built-in>", Tokens: toks[3:]}
		for i := range m.Tokens {
			m.Tokens[i].Offset = -1
		}
		m.Tokens[0].Space = false
		env.Bind(m)
	}
}

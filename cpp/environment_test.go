// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokens returns the tokens of the given replacement text.
func tokens(s string) []Token {
	toks, _ := lex([]byte(s))
	if len(toks) > 0 {
		toks[0].Space = false
	}
	return toks
}

func TestBindResolveRemove(t *testing.T) {
	env := NewEnvironment()
	assert.Nil(t, env.Resolve("FOO"))

	first := env.Bind(Macro{Name: "FOO", Tokens: tokens("1")})
	assert.Same(t, first, env.Resolve("FOO"))
	assert.Equal(t, "1", env.Resolve("FOO").Body())

	second := env.Bind(Macro{Name: "FOO", Tokens: tokens("2")})
	assert.Same(t, second, env.Resolve("FOO"))
	assert.Equal(t, 2, env.MacroCount())
	assert.Nil(t, env.MacroAt(0))
	assert.Equal(t, 1, env.Len())

	env.Bind(Macro{Name: "BAR"})
	assert.Same(t, second, env.Remove("FOO"))
	assert.Nil(t, env.Resolve("FOO"))
	assert.Nil(t, env.Remove("FOO"))
	assert.NotNil(t, env.Resolve("BAR"))

	// names are exact byte sequences
	assert.Nil(t, env.Resolve("bar"))
	assert.Nil(t, env.Resolve("BAR "))
}

func TestBindCopies(t *testing.T) {
	env := NewEnvironment()
	m := Macro{Name: "MAX", FunctionLike: true, Params: []string{"a", "b"}, Tokens: tokens("a > b ? a : b")}
	stored := env.Bind(m)
	m.Params[0] = "x"
	m.Tokens[0].Text = "x"
	assert.Equal(t, []string{"a", "b"}, stored.Params)
	assert.Equal(t, "a > b ? a : b", stored.Body())
}

func TestRehash(t *testing.T) {
	env := NewEnvironment()
	for i := range 100 {
		env.Bind(Macro{Name: fmt.Sprintf("M%d", i), Tokens: tokens(fmt.Sprint(i))})
	}
	assert.GreaterOrEqual(t, env.threshold, 128)
	for i := range 100 {
		m := env.Resolve(fmt.Sprintf("M%d", i))
		if assert.NotNil(t, m) {
			assert.Equal(t, fmt.Sprint(i), m.Body())
		}
	}
	for i := 0; i < 100; i += 2 {
		assert.NotNil(t, env.Remove(fmt.Sprintf("M%d", i)))
	}
	for i := 100; i < 200; i++ {
		env.Bind(Macro{Name: fmt.Sprintf("M%d", i)})
	}
	assert.Equal(t, 200, env.MacroCount())
	assert.Equal(t, 150, env.Len())

	var names []string
	for m := range env.All() {
		names = append(names, m.Name)
	}
	require.Len(t, names, 150)
	assert.Equal(t, "M1", names[0])
	assert.Equal(t, "M3", names[1])
	assert.Equal(t, "M99", names[49])
	assert.Equal(t, "M100", names[50])
	for i := 0; i < 100; i++ {
		assert.Equal(t, i%2 == 1, env.Resolve(fmt.Sprintf("M%d", i)) != nil, "M%d", i)
	}
}

func TestHidden(t *testing.T) {
	env := NewEnvironment()
	env.Bind(Macro{Name: "H", Hidden: true})
	assert.Nil(t, env.Resolve("H"))
	assert.Equal(t, 1, env.Len())
	n := 0
	for range env.All() {
		n++
	}
	assert.Equal(t, 1, n)
}

func TestIsBuiltinMacro(t *testing.T) {
	for _, name := range []string{"__LINE__", "__FILE__", "__DATE__", "__TIME__"} {
		assert.True(t, IsBuiltinMacro(name), name)
	}
	for _, name := range []string{"", "__LINE", "__line__", "__COUNTER__", "LINE", "__STDC__"} {
		assert.False(t, IsBuiltinMacro(name), name)
	}
}

func TestResetAddMacrosDump(t *testing.T) {
	env := NewEnvironment()
	env.CurrentFile = "a.c"
	env.AddMacros([]Macro{
		{Name: "ONE", Tokens: tokens("1")},
		{Name: "MAX", FunctionLike: true, Params: []string{"a", "b"}, Tokens: tokens("((a) > (b) ? (a) : (b))")},
		{Name: "LOG", FunctionLike: true, Variadic: true, Params: []string{"fmt", vaArgs}, Tokens: tokens("printf(fmt, __VA_ARGS__)")},
		{Name: "EMPTY"},
		{Name: "NOARGS", FunctionLike: true},
	})
	env.Remove("EMPTY")

	var b strings.Builder
	require.NoError(t, env.Dump(&b))
	want := `#define ONE 1
#define MAX(a, b) ((a) > (b) ? (a) : (b))
#define LOG(fmt, ...) printf(fmt, __VA_ARGS__)
#define NOARGS()
`
	assert.Equal(t, want, b.String())

	env.Reset()
	assert.Equal(t, 0, env.MacroCount())
	assert.Nil(t, env.Resolve("ONE"))
	assert.Equal(t, "", env.CurrentFile)
	env.Bind(Macro{Name: "ONE"})
	assert.NotNil(t, env.Resolve("ONE"))
}

func TestSameDefinition(t *testing.T) {
	a := &Macro{Name: "A", Tokens: tokens("x + y")}
	assert.True(t, a.SameDefinition(&Macro{Name: "A", Tokens: tokens("x   +   y")}))
	assert.False(t, a.SameDefinition(&Macro{Name: "A", Tokens: tokens("x+y")}))
	assert.False(t, a.SameDefinition(&Macro{Name: "A", Tokens: tokens("x + z")}))
	assert.False(t, a.SameDefinition(&Macro{Name: "A", FunctionLike: true, Tokens: tokens("x + y")}))
}

func TestClone(t *testing.T) {
	m := &Macro{Name: "F", Params: []string{"a", "b"}, FunctionLike: true, Tokens: tokens("a + b")}
	c := m.Clone()
	assert.True(t, m.SameDefinition(c))
	c.Params[0] = "z"
	c.Tokens[0].Text = "z"
	assert.Equal(t, "a", m.Params[0])
	assert.Equal(t, "a", m.Tokens[0].Text)
}

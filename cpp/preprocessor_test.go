// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run preprocesses the given source as test.c and checks
// that no error and no protocol violation happened.
func run(t *testing.T, src string) (string, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	pp := NewPreprocessor(NewEnvironment(), rec)
	out, err := pp.Run("test.c", []byte(src))
	require.NoError(t, err)
	require.NoError(t, rec.Err())
	return string(out), rec
}

func TestExpand(t *testing.T) {
	src := `#define N 10
#define SQ(x) ((x) * (x))
int a = N;
int b = SQ(N + 1);
`
	out, rec := run(t, src)
	assert.Equal(t, "\n\nint a = 10;\nint b = ((10 + 1) * (10 + 1));\n", out)
	assert.Equal(t, []string{
		"define N",
		"define SQ",
		"reference N @3:47",
		"expand N @3:47 ()",
		"end N @48",
		"reference SQ @4:58",
		"reference N @4:61",
		"expand SQ @4:58 (61+5)",
		"end SQ @67",
	}, rec.Events)
}

func TestExpandOperators(t *testing.T) {
	src := `#define STR(x) #x
#define CAT(a, b) a ## b
#define XSTR(x) STR(x)
#define V 3
STR(a "b" c)
CAT(foo, bar)
XSTR(V)
CAT(V, 1)
`
	out, _ := run(t, src)
	assert.Equal(t, "\n\n\n\n"+`"a \"b\" c"`+"\nfoobar\n"+`"3"`+"\nV1\n", out)
}

func TestVariadic(t *testing.T) {
	src := `#define LOG(fmt, ...) printf(fmt, __VA_ARGS__)
#define LOG2(fmt, args...) printf(fmt, ## args)
LOG("%d %d", 1, 2)
LOG2("x")
`
	out, rec := run(t, src)
	assert.Equal(t, "\n\n"+`printf("%d %d", 1, 2)`+"\n"+`printf("x")`+"\n", out)
	assert.Contains(t, rec.Events, `expand LOG @3:95 (99+7, 108+1, 111+1)`)
}

func TestRecursion(t *testing.T) {
	src := `#define A B
#define B A
#define f(x) x + f(x)
A f(1)
`
	out, rec := run(t, src)
	assert.Equal(t, "\n\n\nA 1 + f(1)\n", out)
	assert.Equal(t, 1, strings.Count(rec.String(), "expand A"))
}

func TestFunctionLikeWithoutArgs(t *testing.T) {
	src := `#define f(x) x
int f;
int g = f
(2);
`
	out, rec := run(t, src)
	assert.Equal(t, "\nint f;\nint g = 2\n;\n", out)
	assert.Equal(t, 2, strings.Count(rec.String(), "reference f"))
	assert.Equal(t, 1, strings.Count(rec.String(), "expand f"))
}

func TestConditionals(t *testing.T) {
	src := `#define A 1
#if A
yes
#else
no
#endif
#ifdef B
b
#endif
`
	out, rec := run(t, src)
	assert.Equal(t, "\n\nyes\n\n\n\n\n\n\n", out)
	assert.Equal(t, []string{
		"define A",
		"reference A @2:16",
		"skip @28",
		"unskip @31",
		"failed B @45",
		"skip @47",
		"unskip @49",
	}, rec.Events)
}

func TestNestedConditionals(t *testing.T) {
	src := `#if 0
#if 1
a
#elif 1
b
#else
c
#endif
#define HIDDEN 1
#elif 2 > 1
d
#else
e
#endif
#ifndef HIDDEN
f
#endif
`
	out, rec := run(t, src)
	assert.Equal(t, []string{"d", "f"}, strings.Fields(out))
	assert.NotContains(t, rec.String(), "define HIDDEN")
	assert.Equal(t, strings.Count(out, "\n"), strings.Count(src, "\n"))
}

func TestDefined(t *testing.T) {
	src := `#define X 3
#if defined(X) && X > 2
ok
#endif
#if defined Y || !defined(X)
bad
#endif
`
	out, rec := run(t, src)
	assert.Contains(t, out, "ok")
	assert.NotContains(t, out, "bad")
	assert.Equal(t, []string{"define X", "reference X @2:30", "passed X @2:24"}, rec.Events[:3])
	assert.Contains(t, rec.Events, "failed Y @58")
	assert.Contains(t, rec.Events, "passed X @5:72")
	assert.Equal(t, 2, strings.Count(rec.String(), "passed X"))
}

func TestRedefinition(t *testing.T) {
	src := `#define A 1
#define A 1
#define A 2
`
	rec := &Recorder{}
	env := NewEnvironment()
	pp := NewPreprocessor(env, rec)
	_, err := pp.Run("test.c", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"define A",
		"passed A @2:20",
		"define A",
		"failed A @32",
		"define A",
	}, rec.Events)
	assert.Equal(t, "2", env.Resolve("A").Body())
	assert.Equal(t, 1, env.Len())
	assert.Equal(t, 3, env.MacroCount())
}

func TestUndef(t *testing.T) {
	out, rec := run(t, "#define A 1\n#undef A\n#undef NOPE\nA\n")
	assert.Equal(t, "\n\n\nA\n", out)
	assert.Equal(t, []string{"define A", "reference A @2:19"}, rec.Events)
}

func TestBuiltins(t *testing.T) {
	rec := &Recorder{}
	pp := NewPreprocessor(NewEnvironment(), rec)
	pp.Now = func() time.Time { return time.Date(2025, 3, 7, 10, 4, 5, 0, time.UTC) }
	out, err := pp.Run("test.c", []byte("a __LINE__\nb __FILE__ __DATE__ __TIME__\n"))
	require.NoError(t, err)
	assert.Equal(t, "a 1\nb \"test.c\" \"Mar  7 2025\" \"10:04:05\"\n", string(out))
	assert.Equal(t, "expand __LINE__ @1:2 ()", rec.Events[0])
	assert.Equal(t, "end __LINE__ @10", rec.Events[1])
	assert.NoError(t, rec.Err())
}

func TestIncludeGuardDetection(t *testing.T) {
	tests := []struct {
		src   string
		guard bool
	}{
		{"#ifndef G\n#define G\nint x;\n#endif\n", true},
		{"// comment\n#ifndef G\n#define G\n#if 1\n#endif\n#endif\n", true},
		{"#ifndef G\n#define G\n#endif\nint x;\n", false},
		{"int x;\n#ifndef G\n#define G\n#endif\n", false},
		{"#ifndef G\n#define H\n#endif\n", false},
		{"#ifndef G\n#define G\n#else\n#endif\n", false},
		{"#ifdef G\n#define G\n#endif\n", false},
	}
	for _, test := range tests {
		_, rec := run(t, test.src)
		assert.Equal(t, test.guard, strings.Contains(rec.String(), "guard G"), test.src)
	}
}

func TestPreprocessErrors(t *testing.T) {
	tests := []struct {
		src string
		err string
	}{
		{"#error boom here\n", "test.c:1: #error boom here"},
		{"#if 1\n", "test.c:1: unterminated conditional directive"},
		{"#else\n", "#else without #if"},
		{"#endif\n", "#endif without #if"},
		{"#if 1\n#else\n#elif 1\n#endif\n", "#elif after #else"},
		{"#define F(a, b) a\nF(1)\n", `macro "F" passed 1 arguments, but takes 2`},
		{"#define F(a) a\nF(1, 2\n", `unterminated argument list invoking macro "F"`},
		{"#define 1 2\n", "macro names must be identifiers"},
		{"#define F(a, a) a\n", `invalid parameter "a"`},
		{"#if 1 / 0\n#endif\n", "division by zero"},
		{"#frobnicate\n", "invalid preprocessing directive #frobnicate"},
		{"#include\n", "expects \"FILENAME\" or <FILENAME>"},
	}
	for _, test := range tests {
		rec := &Recorder{}
		pp := NewPreprocessor(NewEnvironment(), rec)
		_, err := pp.Run("test.c", []byte(test.src))
		if assert.Error(t, err, test.src) {
			assert.Contains(t, err.Error(), test.err)
		}
		assert.NoError(t, rec.Err(), test.src)
	}
}

func TestSourceNeeded(t *testing.T) {
	src := `#define HDR <sys/types.h>
#include "a.h"
#include <b.h>
#include_next <c.h>
#include HDR
`
	_, rec := run(t, src)
	assert.Equal(t, []string{
		"define HDR",
		"include local a.h @2",
		"include global b.h @3",
		"include next c.h @4",
		"include global sys/types.h @5",
	}, rec.Events)
}

func TestArgumentReferences(t *testing.T) {
	out, rec := run(t, "#define A 1\n#define F(x) x\nF(A)\n")
	assert.Equal(t, "\n\n1\n", out)
	assert.Equal(t, []string{
		"define A",
		"define F",
		"reference F @3:27",
		"reference A @3:29",
		"expand F @3:27 (29+1)",
		"end F @31",
	}, rec.Events)

	_, rec = run(t, "#define A 1\n#define S(x) #x\n#define G(x) x\nS(G(A))\n")
	assert.Contains(t, rec.Events, "reference G @4:45")
	assert.Contains(t, rec.Events, "reference A @4:47")
}

func TestFailedConditionSkipsNothing(t *testing.T) {
	rec := &Recorder{}
	pp := NewPreprocessor(NewEnvironment(), rec)
	_, err := pp.Run("test.c", []byte("int a;\n#if 1 / 0\nint x;\n#endif\n"))
	require.Error(t, err)
	assert.NoError(t, rec.Err())
	for _, e := range rec.Events {
		assert.NotContains(t, e, "skip")
	}
}

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestLoader(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.h":         "#ifndef A_H\n#define A_H\n#define VALUE 42\n#endif\n",
		"b.h":         "#pragma once\nint b;\n",
		"inc/c.h":     "int c = VALUE;\n",
		"main.c":      "#include \"a.h\"\n#include \"a.h\"\n#include \"b.h\"\n#include \"b.h\"\n#include <c.h>\nint v = VALUE + ONE;\n",
		"bad.c":       "#include \"missing.h\"\n",
		"nested/e.c":  "#include \"../b.h\"\n",
	})
	rec := &Recorder{}
	l := NewLoader(rec)
	require.NoError(t, l.AddIncludePath(filepath.Join(dir, "inc")))
	defs, err := ParseDefines("-DONE=1")
	require.NoError(t, err)
	l.Injected["<command-line>"] = DefinesSource(defs)

	out, err := l.Preprocess(filepath.Join(dir, "main.c"), "<command-line>")
	require.NoError(t, err)
	require.NoError(t, rec.Err())
	assert.Contains(t, string(out), "int v = 42 + 1;")
	assert.Contains(t, string(out), "int c = 42;")
	assert.Equal(t, 1, strings.Count(string(out), "int b;"))
	assert.Equal(t, 1, strings.Count(rec.String(), "define VALUE"))
	assert.Contains(t, rec.Events, "guard A_H")
	assert.Contains(t, rec.Events, "define ONE")
	assert.Equal(t, filepath.Join(dir, "a.h"), l.PP.Env.Resolve("A_H").FileName)

	out, err = NewLoader(nil).Preprocess(filepath.Join(dir, "nested", "e.c"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "int b;")

	_, err = NewLoader(nil).Preprocess(filepath.Join(dir, "bad.c"))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "missing.h: file not found")
	}
}

func TestLex(t *testing.T) {
	toks, errs := lex([]byte("#define F(x) x ## 1 \\\n + 10UL <<= y\n"))
	assert.Empty(t, errs)
	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"#", "define", "F", "(", "x", ")", "x", "##", "1", "+", "10UL", "<<=", "y", "\n"}, texts)
	plus := toks[9]
	assert.True(t, plus.Space)
	assert.Equal(t, 2, plus.Line)
	assert.False(t, toks[3].Space)
}

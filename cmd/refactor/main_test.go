// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// runOK runs the command line without any default config file
// and returns its output.
func runOK(t *testing.T, args ...string) string {
	t.Helper()
	paths := ConfigPaths
	ConfigPaths = nil
	t.Cleanup(func() { ConfigPaths = paths })
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	return stdout.String()
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage:")
	assert.Equal(t, 2, run([]string{"frob"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "frob"`)
	assert.Equal(t, 0, run([]string{"help"}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"qml"}, &stdout, &stderr))
}

func TestPP(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"inc/v.h": "#define VALUE 42\n",
		"main.c":  "#include <v.h>\nint a = VALUE + ONE;\n#ifdef GONE\nint gone;\n#endif\n",
	})
	file := filepath.Join(dir, "main.c")
	out := runOK(t, "pp", "-I", filepath.Join(dir, "inc"), "-D", "ONE=1", "-D", "GONE", "-U", "GONE", file)
	assert.Contains(t, out, "int a = 42 + 1;")
	assert.NotContains(t, out, "int gone;")

	out = runOK(t, "pp", "-I", filepath.Join(dir, "inc"), "-events", "-dump", "-D", "ONE", file)
	assert.Contains(t, out, "define VALUE")
	assert.Contains(t, out, "#define VALUE 42")
	assert.Contains(t, out, "#define ONE 1")
}

func TestDefinesLine(t *testing.T) {
	assert.Equal(t, "", definesLine("", nil, nil))
	assert.Equal(t, `-DA '-DB=it'\''s' '-UC'`, definesLine("-DA", []string{"B=it's"}, []string{"C"}))
}

const itemSrc = "import QtQuick 2.15\n\nItem {\n    width: 10\n    states: [\n        State { name: \"a\" }\n    ]\n}\n"

func TestQML(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.qml": itemSrc})
	file := filepath.Join(dir, "a.qml")

	out := runOK(t, "qml", "-set", "width=20", "-set", "height=5", file)
	assert.Equal(t, "import QtQuick 2.15\n\nItem {\n    width: 20\nheight: 5\n    states: [\n        State { name: \"a\" }\n    ]\n}\n", out)

	out = runOK(t, "qml", "-remove", "states", "-import", "QtQuick.Controls 2.15 as C", file)
	assert.Equal(t, "import QtQuick 2.15\nimport QtQuick.Controls 2.15 as C\n\nItem {\n    width: 10\n}\n", out)

	out = runOK(t, "qml", "-append", `states=State { name: "b" }`, file)
	assert.Contains(t, out, "State { name: \"a\" },\nState { name: \"b\" }")

	out = runOK(t, "qml", "-diff", "-set", "width=20", file)
	assert.Contains(t, out, "-    width: 10\n")
	assert.Contains(t, out, "+    width: 20\n")

	out = runOK(t, "qml", "-format", "yaml", "-set", "width=20", file)
	assert.Contains(t, out, "kind: replace")
	assert.Contains(t, out, "pos: 39")
	assert.Contains(t, out, "length: 2")
	assert.Contains(t, out, `text: "20"`)

	runOK(t, "qml", "-w", "-set", "width=30", file)
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "width: 30")
}

func TestQMLErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.qml": itemSrc, "bad.qml": "Item {"})
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"qml", "-set", "width", filepath.Join(dir, "a.qml")}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"qml", "-object", "Text", "-set", "x=1", filepath.Join(dir, "a.qml")}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"qml", filepath.Join(dir, "bad.qml")}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"qml", "-set", "width=(", filepath.Join(dir, "a.qml")}, &stdout, &stderr))
}

func TestParseImport(t *testing.T) {
	tests := []struct {
		in                      string
		target, version, alias string
	}{
		{"QtQuick", "QtQuick", "", ""},
		{"QtQuick 2.15", "QtQuick", "2.15", ""},
		{"QtQuick.Controls 6.5 as C", "QtQuick.Controls", "6.5", "C"},
		{`"../common" as Common`, "../common", "", "Common"},
	}
	for _, test := range tests {
		target, version, alias, err := parseImport(test.in)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.target, target, test.in)
		assert.Equal(t, test.version, version, test.in)
		assert.Equal(t, test.alias, alias, test.in)
	}
	_, _, _, err := parseImport("a b c")
	assert.Error(t, err)
	_, _, _, err = parseImport("")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"base.yaml":     "IncludePaths: [\"/usr/include\"]\nVerbose: true\n",
		"refactor.toml": "Includes = [\"base.yaml\"]\nPropertyOrder = [\"id\", \"\", \"states\"]\nDefines = \"-DX=1\"\n",
	})
	cfg, err := LoadConfig(filepath.Join(dir, "refactor.toml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "", "states"}, cfg.PropertyOrder)
	assert.Equal(t, []string{"/usr/include"}, cfg.IncludePaths)
	assert.Equal(t, "-DX=1", cfg.Defines)
	assert.True(t, cfg.Verbose)

	paths := ConfigPaths
	ConfigPaths = []string{dir}
	defer func() { ConfigPaths = paths }()
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "-DX=1", cfg.Defines)

	ConfigPaths = nil
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Contains(t, cfg.PropertyOrder, "width")
}

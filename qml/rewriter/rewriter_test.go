// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewriter

import (
	"testing"

	"cogentcore.org/refactor/qml"
	"cogentcore.org/refactor/text/changeset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewrite parses src, runs f on a new Rewriter and returns
// the edited text.
func rewrite(t *testing.T, src string, order PropertyOrder, f func(rw *Rewriter, prog *qml.Program)) string {
	t.Helper()
	prog, err := qml.Parse("test.qml", []byte(src))
	require.NoError(t, err)
	cs := &changeset.ChangeSet{}
	f(New(src, cs, order), prog)
	require.NoError(t, cs.Err())
	res, err := cs.Apply(src)
	require.NoError(t, err)
	return res
}

func TestAddBindingRoundTrip(t *testing.T) {
	src := "Item {\n    id: root\n    width: 10\n}\n"
	res := rewrite(t, src, DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		r := rw.AddBinding(prog.Root.Initializer, "x", "1", ScriptBinding)
		assert.Equal(t, 19, r.Start)
		assert.True(t, r.IsEmpty())
	})
	assert.Equal(t, "Item {\n    id: root\nx: 1\n    width: 10\n}\n", res)

	prog, err := qml.Parse("test.qml", []byte(res))
	require.NoError(t, err)
	ms := prog.Root.Initializer.Members
	require.Len(t, ms, 3)
	x, ok := ms[1].(*qml.ScriptBinding)
	require.True(t, ok)
	assert.Equal(t, "x", x.QualifiedID.String())
	assert.Equal(t, "1", prog.Text(x.Statement))
}

func TestAddBindingOneLiner(t *testing.T) {
	order := PropertyOrder{"id", "", "width", "height"}
	tests := []struct {
		src   string
		name  string
		value string
		kind  BindingType
		want  string
	}{
		{"Item { width: 10 }", "height", "20", ScriptBinding, "Item { width: 10; height: 20 }"},
		{"Item { width: 10 }", "id", "root", ScriptBinding, "Item { id: root; width: 10 }"},
		{"Item { id: a; width: 10 }", "x", "5", ScriptBinding, "Item { id: a; x: 5; width: 10 }"},
		{"Item { id: a; width: 10 }", "x", "5;", ScriptBinding, "Item { id: a; x: 5; width: 10 }"},
		{"Item { width: 10 }", "id", "root;", ScriptBinding, "Item { id: root; width: 10 }"},
		{"Item { id: a; width: 10 }", "x", "Text {}", ObjectBinding, "Item { id: a; x: Text {} width: 10 }"},
		{"Item { Text {} }", "height", "2", ScriptBinding, "Item { Text {} height: 2 }"},
		{"Item {}", "width", "2", ScriptBinding, "Item { width: 2}"},
	}
	for _, test := range tests {
		res := rewrite(t, test.src, order, func(rw *Rewriter, prog *qml.Program) {
			rw.AddBinding(prog.Root.Initializer, test.name, test.value, test.kind)
		})
		assert.Equal(t, test.want, res, test.src)
	}
}

func TestAddBindingMultiLine(t *testing.T) {
	res := rewrite(t, "Item {\n}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		rw.AddBinding(prog.Root.Initializer, "states", "State {}", ArrayBinding)
	})
	assert.Equal(t, "Item {\nstates: [\nState {}\n]\n}\n", res)

	res = rewrite(t, "Item {\n    width: 1\n    height: 2\n}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		init := prog.Root.Initializer
		rw.AddBindingAfter(init, "color", `"red"`, ScriptBinding, init.Members[1])
	})
	assert.Equal(t, "Item {\n    width: 1\n    height: 2\ncolor: \"red\"\n}\n", res)
}

func TestAddBindingUnknownType(t *testing.T) {
	prog, err := qml.Parse("test.qml", []byte("Item {}"))
	require.NoError(t, err)
	rw := New(prog.Source, &changeset.ChangeSet{}, DefaultPropertyOrder)
	assert.Panics(t, func() {
		rw.AddBinding(prog.Root.Initializer, "x", "1", BindingType(7))
	})
}

func TestChangeBinding(t *testing.T) {
	tests := []struct {
		src   string
		name  string
		value string
		kind  BindingType
		want  string
	}{
		{"Item { x: 1; y: 2 }", "x", "5", ScriptBinding, "Item { x: 5; y: 2 }"},
		{"Item {\n    x: 1\n    y: 2\n}", "y", "3", ScriptBinding, "Item {\n    x: 1\n    y: 3\n}"},
		{"Item {\n    anchors { left: parent.left }\n}", "anchors.left", "undefined", ScriptBinding, "Item {\n    anchors { left: undefined }\n}"},
		{"Item {\n    anchors.left: parent.left\n}", "anchors.left", "undefined", ScriptBinding, "Item {\n    anchors.left: undefined\n}"},
		{"Item {\n    contentItem: Rectangle {}\n}", "contentItem", "Text {}", ObjectBinding, "Item {\n    contentItem: Text {}\n}"},
		{"Item {\n    states: [\n        State {}\n    ]\n}", "states", "State {}", ArrayBinding, "Item {\n    states: [\n        State {},\nState {}\n    ]\n}"},
		{"Item {\n    property int count: 3;\n}", "count", "4", ScriptBinding, "Item {\n    property int count: 4;\n}"},
		{"Item {\n    property int count\n}", "count", "4", ScriptBinding, "Item {\n    property int count: 4\n}"},
		{"Item { property int count; x: 1 }", "count", "4", ScriptBinding, "Item { property int count: 4; x: 1 }"},
		{"Item { onClicked: { f() } }", "onClicked", "g()", ScriptBinding, "Item { onClicked: g() }"},
		{"Item { x: 1 }", "y", "2", ScriptBinding, "Item { x: 1 }"},
		{"Item { x: 1 }", "x", "[]", ArrayBinding, "Item { x: 1 }"},
	}
	for _, test := range tests {
		res := rewrite(t, test.src, DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
			rw.ChangeBinding(prog.Root.Initializer, test.name, test.value, test.kind)
		})
		assert.Equal(t, test.want, res, test.src)
	}
}

func TestRemoveBindingByName(t *testing.T) {
	tests := []struct {
		src  string
		name string
		want string
	}{
		{"Item {\n    anchors { left: x }\n}\n", "anchors.left", "Item {\n}\n"},
		{"Item {\n    anchors { left: x; right: y }\n}\n", "anchors.left", "Item {\n    anchors { right: y }\n}\n"},
		{"Item {\n    anchors { left: x; left: y }\n}\n", "anchors.left", "Item {\n    anchors { left: y }\n}\n"},
		{"Item {\n    x: 1\n    y: 2\n}\n", "x", "Item {\n    y: 2\n}\n"},
		{"Item {\n    property int count: 3\n    y: 2\n}\n", "count", "Item {\n    y: 2\n}\n"},
		{"Item { x: 1; y: 2 }", "x", "Item { y: 2 }"},
		{"Item {\n    x: 1\n}\n", "z", "Item {\n    x: 1\n}\n"},
	}
	for _, test := range tests {
		res := rewrite(t, test.src, DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
			rw.RemoveBindingByName(prog.Root.Initializer, test.name)
		})
		assert.Equal(t, test.want, res, test.src)
	}
}

const statesSrc = `Item {
    states: [
        State { name: "a" },
        State { name: "b" }
    ]
}
`

func TestRemoveObjectMember(t *testing.T) {
	res := rewrite(t, "Item {\n    list: [ a ]\n}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		ab := prog.Root.Initializer.Members[0].(*qml.ArrayBinding)
		rw.RemoveObjectMember(ab.Elements[0].Member, ab)
	})
	assert.Equal(t, "Item {\n}\n", res)

	res = rewrite(t, statesSrc, DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		ab := prog.Root.Initializer.Members[0].(*qml.ArrayBinding)
		rw.RemoveObjectMember(ab.Elements[1].Member, ab)
	})
	assert.Equal(t, "Item {\n    states: [\n        State { name: \"a\" }\n    ]\n}\n", res)

	res = rewrite(t, statesSrc, DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		ab := prog.Root.Initializer.Members[0].(*qml.ArrayBinding)
		rw.RemoveObjectMember(ab.Elements[0].Member, ab)
	})
	assert.Equal(t, "Item {\n    states: [\n        State { name: \"b\" }\n    ]\n}\n", res)

	res = rewrite(t, "Item {\n    font { bold: true }\n}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		font := prog.Root.Initializer.Members[0].(*qml.ObjectDefinition)
		rw.RemoveObjectMember(font.Initializer.Members[0], font)
	})
	assert.Equal(t, "Item {\n}\n", res)

	res = rewrite(t, "Item {\n    x: 1\n\n    Rectangle {}\n}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		rect := prog.FindObjects("Rectangle")[0].(qml.Member)
		rw.RemoveObjectMember(rect, qml.Parent(prog.Root, rect))
	})
	assert.Equal(t, "Item {\n    x: 1\n}\n", res)
}

func TestAddObject(t *testing.T) {
	res := rewrite(t, "Item {\n    width: 10\n}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		rw.AddObject(prog.Root.Initializer, "Rectangle {}")
	})
	assert.Equal(t, "Item {\n    width: 10\n\nRectangle {}\n}\n", res)

	res = rewrite(t, "Item {\n    states: []\n}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		rw.AddObject(prog.Root.Initializer, "Rectangle {}")
	})
	assert.Equal(t, "Item {\nRectangle {}\n    states: []\n}\n", res)

	res = rewrite(t, "Item {\n    Text {}\n    width: 10\n}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		rw.AddObject(prog.Root.Initializer, "Rectangle {}")
	})
	assert.Equal(t, "Item {\n    Text {}\n\nRectangle {}\n    width: 10\n}\n", res)

	res = rewrite(t, statesSrc, DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		ab := prog.Root.Initializer.Members[0].(*qml.ArrayBinding)
		rw.AddArrayObject(ab, `State { name: "c" }`)
	})
	assert.Equal(t, "Item {\n    states: [\n        State { name: \"a\" },\n        State { name: \"b\" },\nState { name: \"c\" }\n    ]\n}\n", res)

	res = rewrite(t, statesSrc, DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		ab := prog.Root.Initializer.Members[0].(*qml.ArrayBinding)
		rw.AddArrayObjectAfter(ab, `State { name: "c" }`, nil)
	})
	assert.Equal(t, "Item {\n    states: [\nState { name: \"c\" },\n        State { name: \"a\" },\n        State { name: \"b\" }\n    ]\n}\n", res)
}

func TestSearchMemberToInsertAfter(t *testing.T) {
	prog, err := qml.Parse("test.qml", []byte("Item { width: 10 }"))
	require.NoError(t, err)
	ms := prog.Root.Initializer.Members
	order := PropertyOrder{"id", "", "width", "height"}
	assert.Equal(t, ms[0], SearchMemberToInsertAfter(ms, "height", order))
	assert.Nil(t, SearchMemberToInsertAfter(ms, "id", order))
	assert.Nil(t, SearchMemberToInsertAfter(ms, "color", order))
	assert.Nil(t, SearchMemberToInsertAfter(nil, "height", order))

	prog, err = qml.Parse("test.qml", []byte("Item { id: a; property int n; width: 1; width: 2; Text {} }"))
	require.NoError(t, err)
	ms = prog.Root.Initializer.Members
	assert.Equal(t, ms[3], SearchMemberToInsertAfter(ms, "height", order))
	assert.Equal(t, ms[4], SearchMemberToInsertAfter(ms, "width", order))
	assert.Equal(t, ms[0], SearchMemberToInsertAfter(ms, "color", order))
	assert.Equal(t, ms[1], SearchMemberToInsertAfter(ms, "color", PropertyOrder{"id", "property", "color"}))

	assert.Equal(t, ms[4], SearchMemberToInsertAfterObject(ms, order))
	assert.Equal(t, ms[1], SearchMemberToInsertAfterObject(ms[:4], order))

	prog, err = qml.Parse("test.qml", []byte(statesSrc))
	require.NoError(t, err)
	ab := prog.Root.Initializer.Members[0].(*qml.ArrayBinding)
	assert.Equal(t, ab.Elements[1], SearchArrayMemberToInsertAfter(ab.Elements, order))
}

func TestImports(t *testing.T) {
	src := "import QtQuick 2.15\n\nItem {}\n"
	tests := []struct {
		target, version, alias string
		added                  bool
		want                   string
	}{
		{"QtQuick", "2.12", "", false, src},
		{"QtQuick", "", "", false, src},
		{"QtQuick", "6.5", "", true, "import QtQuick 6.5\n\nItem {}\n"},
		{"QtQuick.Controls", "2.15", "C", true, "import QtQuick 2.15\nimport QtQuick.Controls 2.15 as C\n\nItem {}\n"},
	}
	for _, test := range tests {
		res := rewrite(t, src, DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
			added, err := rw.AddImport(prog, test.target, test.version, test.alias)
			require.NoError(t, err)
			assert.Equal(t, test.added, added)
		})
		assert.Equal(t, test.want, res)
	}

	res := rewrite(t, "Item {}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		rw.AddImport(prog, "QtQuick", "", "")
	})
	assert.Equal(t, "import QtQuick\n\nItem {}\n", res)

	res = rewrite(t, "pragma Singleton\nItem {}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		rw.AddImport(prog, "../js/util.js", "", "Util")
	})
	assert.Equal(t, "pragma Singleton\nimport \"../js/util.js\" as Util\nItem {}\n", res)

	res = rewrite(t, "import QtQuick 2.15\nimport Foo 1.0\n\nItem {}\n", DefaultPropertyOrder, func(rw *Rewriter, prog *qml.Program) {
		assert.True(t, rw.RemoveImport(prog, "Foo"))
		assert.False(t, rw.RemoveImport(prog, "Bar"))
	})
	assert.Equal(t, "import QtQuick 2.15\n\nItem {}\n", res)

	prog, err := qml.Parse("test.qml", []byte(src))
	require.NoError(t, err)
	_, err = New(src, &changeset.ChangeSet{}, nil).AddImport(prog, "Foo", "one", "")
	assert.Error(t, err)
}

func TestOverlappingEditsRejected(t *testing.T) {
	src := "Item {\n    x: 1\n}\n"
	prog, err := qml.Parse("test.qml", []byte(src))
	require.NoError(t, err)
	cs := &changeset.ChangeSet{}
	rw := New(src, cs, DefaultPropertyOrder)
	rw.ChangeBinding(prog.Root.Initializer, "x", "2", ScriptBinding)
	rw.RemoveBindingByName(prog.Root.Initializer, "x")
	assert.True(t, cs.HadErrors())
	res, err := cs.Apply(src)
	require.NoError(t, err)
	assert.Equal(t, "Item {\n    x: 2\n}\n", res)
}

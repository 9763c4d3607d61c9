// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rewriter plans source-preserving edits of QML documents.
// A [Rewriter] locates insertion and removal points in a parsed
// [qml.Program] and appends text operations to a [Sink], repairing
// the surrounding semicolons, commas and whitespace so that the
// edited document stays well formed. All offsets refer to the
// original text: the sink owner applies the operations afterwards.
package rewriter

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"cogentcore.org/refactor/qml"
	"cogentcore.org/refactor/text/textpos"
)

// Sink receives the planned edits. Each method reports whether the
// operation was accepted. [*changeset.ChangeSet] is a Sink.
type Sink interface {
	Insert(pos int, text string) bool
	Replace(start, end int, text string) bool
	Remove(start, end int) bool
}

// BindingType is the kind of binding to create or change.
type BindingType int32

const (
	ScriptBinding BindingType = iota
	ObjectBinding
	ArrayBinding
)

func (b BindingType) String() string {
	switch b {
	case ScriptBinding:
		return "script"
	case ObjectBinding:
		return "object"
	case ArrayBinding:
		return "array"
	}
	return fmt.Sprintf("BindingType(%d)", int32(b))
}

// template returns the text pattern of a new binding of this type.
func (b BindingType) template() string {
	switch b {
	case ArrayBinding:
		return "%s: [\n%s\n]"
	case ObjectBinding, ScriptBinding:
		return "%s: %s"
	}
	panic(fmt.Sprintf("rewriter: unknown binding type %d", int32(b)))
}

// Rewriter computes edits of one original text. It keeps no state
// between calls beyond its configuration: every operation appends
// its edits to the sink, expressed against the original text.
type Rewriter struct {
	original string
	sink     Sink
	order    PropertyOrder
}

// New returns a new [Rewriter] for the given original text,
// appending edits to sink and ordering new members by order.
func New(original string, sink Sink, order PropertyOrder) *Rewriter {
	return &Rewriter{original: original, sink: sink, order: order}
}

// Order returns the property order of the rewriter.
func (rw *Rewriter) Order() PropertyOrder {
	return rw.order
}

// AddBinding adds a binding of the given property name and value,
// placed according to the property order.
func (rw *Rewriter) AddBinding(init *qml.ObjectInitializer, name, value string, kind BindingType) textpos.Range {
	after := SearchMemberToInsertAfter(init.Members, name, rw.order)
	return rw.AddBindingAfter(init, name, value, kind, after)
}

// AddBindingAfter adds a binding after the given member, or as the
// first member if after is nil. A binding on the same line as its
// neighbors gets the semicolons it needs, otherwise it starts on its
// own line. It returns the empty range at the insertion offset.
func (rw *Rewriter) AddBindingAfter(init *qml.ObjectInitializer, name, value string, kind BindingType, after qml.Member) textpos.Range {
	tmpl := kind.template()
	var endOfPrevious, startOfNext qml.Location
	i := memberIndex(init.Members, after)
	if i < 0 {
		endOfPrevious = init.LBrace
		if len(init.Members) > 0 {
			startOfNext = init.Members[0].FirstLocation()
		} else {
			startOfNext = init.RBrace
		}
	} else {
		endOfPrevious = after.LastLocation()
		if i+1 < len(init.Members) {
			startOfNext = init.Members[i+1].FirstLocation()
		} else {
			startOfNext = init.RBrace
		}
	}
	oneLiner := endOfPrevious.Line == startOfNext.Line
	needsPreceding, needsTrailing := false, false
	if oneLiner {
		hasNext := i+1 < len(init.Members)
		if i >= 0 {
			needsPreceding = !terminated(rw.original, after)
		}
		needsTrailing = hasNext && kind == ScriptBinding && !strings.HasSuffix(value, ";")
	}
	text := fmt.Sprintf(tmpl, name, value)
	if oneLiner {
		text = " " + text
		if needsPreceding {
			text = ";" + text
		}
		if needsTrailing {
			text += ";"
		}
	} else {
		text = "\n" + text
	}
	pos := endOfPrevious.End()
	slog.Debug("rewriter: add binding", "name", name, "kind", kind, "pos", pos, "oneLiner", oneLiner)
	rw.sink.Insert(pos, text)
	return textpos.Range{Start: pos, End: pos}
}

// terminated returns whether a new member can directly follow m on
// the same line: m ends with a semicolon or a closing brace.
func terminated(src string, m qml.Member) bool {
	switch m.(type) {
	case *qml.ScriptBinding, *qml.PublicMember:
		last := m.LastLocation()
		tok := src[last.Offset:last.End()]
		return tok == ";" || tok == "}"
	}
	return true
}

// ChangeBinding replaces the value of the member bound to name.
// A name of the form group.property also matches property within a
// grouped object such as group { property: ... }. It does nothing
// if no member matches.
func (rw *Rewriter) ChangeBinding(init *qml.ObjectInitializer, name, value string, kind BindingType) {
	prefix, suffix, grouped := strings.Cut(name, ".")
	for i, m := range init.Members {
		if qml.BindingName(m) == name {
			switch kind {
			case ArrayBinding:
				ab, _ := m.(*qml.ArrayBinding)
				rw.InsertIntoArray(ab, value)
			case ObjectBinding:
				rw.replaceMemberValue(m, value, false)
			case ScriptBinding:
				rw.replaceMemberValue(m, value, nextMemberOnSameLine(init.Members, i))
			default:
				panic(fmt.Sprintf("rewriter: unknown binding type %d", int32(kind)))
			}
			return
		}
		if grouped {
			if def, ok := m.(*qml.ObjectDefinition); ok && def.TypeName.String() == prefix {
				rw.ChangeBinding(def.Initializer, suffix, value, kind)
			}
		}
	}
}

func nextMemberOnSameLine(members []qml.Member, i int) bool {
	if i+1 >= len(members) {
		return false
	}
	return members[i+1].FirstLocation().Line == members[i].LastLocation().Line
}

// replaceMemberValue replaces the value part of a binding or
// property declaration, keeping its name.
func (rw *Rewriter) replaceMemberValue(m qml.Member, value string, needsSemicolon bool) {
	start, end := -1, -1
	switch n := m.(type) {
	case *qml.ObjectBinding:
		start = n.TypeName.First().Offset
		end = n.Initializer.RBrace.End()
	case *qml.ScriptBinding:
		start = n.Statement.FirstLocation().Offset
		end = n.Statement.LastLocation().End()
	case *qml.ArrayBinding:
		start = n.LBracket.Offset
		end = n.RBracket.End()
	case *qml.PublicMember:
		if n.Statement != nil {
			start = n.Statement.FirstLocation().Offset
			end = n.Statement.LastLocation().End()
		} else {
			start = n.LastLocation().End()
			if n.Semicolon.IsValid() {
				start = n.Semicolon.Offset
			}
			end = start
			value = ": " + value
		}
		// the declaration keeps its own semicolon
		needsSemicolon = needsSemicolon && !n.Semicolon.IsValid()
	default:
		return
	}
	if needsSemicolon {
		value += ";"
	}
	slog.Debug("rewriter: replace value", "member", qml.BindingName(m), "start", start, "end", end)
	rw.sink.Replace(start, end, value)
}

// RemoveBindingByName removes every member bound to name. A name of
// the form group.property removes property from a grouped object,
// or the whole group if property is its only member.
func (rw *Rewriter) RemoveBindingByName(init *qml.ObjectInitializer, name string) {
	prefix, suffix, grouped := strings.Cut(name, ".")
	for _, m := range init.Members {
		if qml.BindingName(m) == name {
			rw.RemoveMember(m)
		} else if grouped {
			if def, ok := m.(*qml.ObjectDefinition); ok && def.TypeName.String() == prefix {
				rw.removeGroupedProperty(def, suffix)
			}
		}
	}
}

func (rw *Rewriter) removeGroupedProperty(def *qml.ObjectDefinition, name string) {
	var wanted qml.Member
	for _, m := range def.Initializer.Members {
		if qml.BindingName(m) == name {
			wanted = m
			break
		}
	}
	if wanted == nil {
		return
	}
	if len(def.Initializer.Members) == 1 {
		rw.RemoveMember(def)
		return
	}
	rw.RemoveMember(wanted)
}

// RemoveMember removes a member together with the whitespace
// that would otherwise leave an empty line.
func (rw *Rewriter) RemoveMember(m qml.Member) {
	start, end := m.FirstLocation().Offset, m.LastLocation().End()
	start, end, _ = includeSurroundingWhitespace(rw.original, start, end)
	slog.Debug("rewriter: remove member", "kind", m.Kind(), "start", start, "end", end)
	rw.sink.Remove(start, end)
}

// RemoveObjectMember removes a member of the given parent, which is an
// object definition, object binding or array binding. Removing an
// array element takes its separating comma along, and removing the
// only element removes the whole array binding. Removing the only
// member of a grouped property removes the group.
func (rw *Rewriter) RemoveObjectMember(m qml.Member, parent qml.Node) {
	start, end := m.FirstLocation().Offset, m.LastLocation().End()
	if ab, ok := parent.(*qml.ArrayBinding); ok {
		start, end = rw.extendToLeadingOrTrailingComma(ab, m, start, end)
	} else {
		if def, ok := parent.(*qml.ObjectDefinition); ok {
			start, end = includeEmptyGroupedProperty(def, m, start, end)
		}
		start, end, _ = includeSurroundingWhitespace(rw.original, start, end)
	}
	start = includeLeadingEmptyLine(rw.original, start)
	slog.Debug("rewriter: remove object member", "kind", m.Kind(), "start", start, "end", end)
	rw.sink.Remove(start, end)
}

func (rw *Rewriter) extendToLeadingOrTrailingComma(ab *qml.ArrayBinding, m qml.Member, start, end int) (int, int) {
	i := -1
	for j, e := range ab.Elements {
		if e.Member == m {
			i = j
			break
		}
	}
	if i < 0 {
		return start, end
	}
	switch {
	case ab.Elements[i].Comma.IsValid():
		start = ab.Elements[i].Comma.Offset
		var found bool
		if start, end, found = includeSurroundingWhitespace(rw.original, start, end); found {
			end--
		}
	case i+1 < len(ab.Elements) && ab.Elements[i+1].Comma.IsValid():
		end = ab.Elements[i+1].Comma.End()
		start, end, _ = includeSurroundingWhitespace(rw.original, start, end)
	default:
		start, end = ab.FirstLocation().Offset, ab.LastLocation().End()
		start, end, _ = includeSurroundingWhitespace(rw.original, start, end)
	}
	return start, end
}

// includeEmptyGroupedProperty extends the range to the whole group
// if m is the only member of a grouped property definition.
func includeEmptyGroupedProperty(def *qml.ObjectDefinition, m qml.Member, start, end int) (int, int) {
	if !def.IsGroup() {
		return start, end
	}
	for _, o := range def.Initializer.Members {
		if o != m {
			return start, end
		}
	}
	return def.FirstLocation().Offset, def.LastLocation().End()
}

// includeSurroundingWhitespace extends [start, end) over the
// whitespace up to and including the next line break and, if one is
// found, back over the indentation before start. It reports whether
// start now begins a line.
func includeSurroundingWhitespace(src string, start, end int) (int, int, bool) {
	paragraphFound, paragraphSkipped := false, false
	for end < len(src) && isSpace(src[end]) {
		c := src[end]
		end++
		if c == '\n' {
			paragraphFound, paragraphSkipped = true, true
			break
		}
	}
	includeStart := paragraphFound
	paragraphFound = false
	if includeStart {
		for start > 0 {
			c := src[start-1]
			if c == '\n' {
				paragraphFound = true
				break
			}
			if !isSpace(c) {
				break
			}
			start--
		}
	}
	if !paragraphFound && paragraphSkipped {
		// keep the line break
		end--
	}
	return start, end, paragraphFound
}

// includeLeadingEmptyLine moves start back over one preceding
// blank line.
func includeLeadingEmptyLine(src string, start int) int {
	if start <= 0 || start > len(src) || src[start-1] != '\n' {
		return start
	}
	prevEnd := start - 1
	prevStart := strings.LastIndexByte(src[:prevEnd], '\n') + 1
	if strings.TrimSpace(src[prevStart:prevEnd]) != "" {
		return start
	}
	return prevStart
}

func isSpace(c byte) bool {
	return c < 0x80 && unicode.IsSpace(rune(c))
}

// InsertIntoArray appends a value after the last element of an
// array binding. It does nothing for a nil or empty array.
func (rw *Rewriter) InsertIntoArray(ab *qml.ArrayBinding, value string) {
	if ab == nil || len(ab.Elements) == 0 {
		return
	}
	last := ab.Elements[len(ab.Elements)-1].Member
	rw.sink.Insert(last.LastLocation().End(), ",\n"+value)
}

// AppendToArrayBinding appends content after the last element of
// an array binding.
func (rw *Rewriter) AppendToArrayBinding(ab *qml.ArrayBinding, content string) {
	rw.InsertIntoArray(ab, content)
}

// AddObject adds an object to an initializer, placed according
// to the property order.
func (rw *Rewriter) AddObject(init *qml.ObjectInitializer, content string) textpos.Range {
	return rw.AddObjectAfter(init, content, SearchMemberToInsertAfterObject(init.Members, rw.order))
}

// AddObjectAfter adds an object after the given member, separated
// by an empty line, or as the first member if after is nil.
func (rw *Rewriter) AddObjectAfter(init *qml.ObjectInitializer, content string, after qml.Member) textpos.Range {
	var pos int
	text := content
	if after != nil {
		pos = after.LastLocation().End()
		text = "\n" + text
	} else {
		pos = init.LBrace.End()
	}
	rw.sink.Insert(pos, "\n"+text)
	return textpos.Range{Start: pos, End: pos}
}

// AddArrayObject adds an object to an array binding, placed
// according to the property order.
func (rw *Rewriter) AddArrayObject(ab *qml.ArrayBinding, content string) textpos.Range {
	return rw.AddArrayObjectAfter(ab, content, SearchArrayMemberToInsertAfter(ab.Elements, rw.order))
}

// AddArrayObjectAfter adds an object after the given element of an
// array binding, or as its first element if after is nil.
func (rw *Rewriter) AddArrayObjectAfter(ab *qml.ArrayBinding, content string, after *qml.ArrayElement) textpos.Range {
	var pos int
	var text string
	if after != nil {
		pos = after.Member.LastLocation().End()
		text = ",\n" + content
	} else {
		pos = ab.LBracket.End()
		text = "\n" + content + ","
	}
	rw.sink.Insert(pos, text)
	return textpos.Range{Start: pos, End: pos}
}

func memberIndex(members []qml.Member, m qml.Member) int {
	if m == nil {
		return -1
	}
	for i, o := range members {
		if o == m {
			return i
		}
	}
	return -1
}

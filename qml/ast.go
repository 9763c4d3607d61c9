// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qml

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Location is the source location of a token.
// The zero Location is invalid.
type Location struct {
	// Offset is the byte offset of the token in the source.
	Offset int

	// Length is the length of the token in bytes.
	Length int

	// Line is the 1-based line of the token.
	Line int

	// Column is the 1-based byte column of the token.
	Column int
}

// End returns the byte offset just past the token.
func (l Location) End() int {
	return l.Offset + l.Length
}

// IsValid returns whether the location refers to an actual token.
func (l Location) IsValid() bool {
	return l.Line > 0
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// NodeKind is the kind of a [Node].
type NodeKind int32

const (
	KindPragma NodeKind = iota
	KindImport
	KindObjectDefinition
	KindObjectBinding
	KindScriptBinding
	KindArrayBinding
	KindPublicMember
	KindSourceElement
	KindStatement
)

var kindNames = [...]string{
	"Pragma", "Import", "ObjectDefinition", "ObjectBinding", "ScriptBinding",
	"ArrayBinding", "PublicMember", "SourceElement", "Statement",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("NodeKind(%d)", int32(k))
	}
	return kindNames[k]
}

// Node is a node of the syntax tree.
type Node interface {
	Kind() NodeKind

	// FirstLocation is the location of the first token of the node.
	FirstLocation() Location

	// LastLocation is the location of the last token of the node.
	LastLocation() Location
}

// Member is a node that can appear in an [ObjectInitializer] or
// as an [ArrayElement]: one of [*ObjectDefinition], [*ObjectBinding],
// [*ScriptBinding], [*ArrayBinding], [*PublicMember], [*SourceElement]
// or, for array elements only, [*Statement].
type Member interface {
	Node
	member()
}

// Name is one component of a [QualifiedID].
type Name struct {
	Text string
	Loc  Location
}

// QualifiedID is a dotted name such as anchors.left or QtQuick.Item.
type QualifiedID []Name

func (q QualifiedID) String() string {
	s := make([]string, len(q))
	for i, n := range q {
		s[i] = n.Text
	}
	return strings.Join(s, ".")
}

// First returns the location of the first name.
func (q QualifiedID) First() Location {
	if len(q) == 0 {
		return Location{}
	}
	return q[0].Loc
}

// Last returns the location of the last name.
func (q QualifiedID) Last() Location {
	if len(q) == 0 {
		return Location{}
	}
	return q[len(q)-1].Loc
}

// Program is a parsed QML document.
type Program struct {
	Pragmas []*Pragma
	Imports []*Import

	// Root is the root object of the document.
	Root *ObjectDefinition

	// Source is the text the program was parsed from.
	Source string
}

// Text returns the source text spanned by the given node.
func (p *Program) Text(n Node) string {
	return p.Source[n.FirstLocation().Offset:n.LastLocation().End()]
}

// Pragma is a pragma directive such as pragma Singleton.
type Pragma struct {
	PragmaToken Location
	Name        Name
	Semicolon   Location
}

func (n *Pragma) Kind() NodeKind          { return KindPragma }
func (n *Pragma) FirstLocation() Location { return n.PragmaToken }
func (n *Pragma) LastLocation() Location {
	if n.Semicolon.IsValid() {
		return n.Semicolon
	}
	return n.Name.Loc
}

// Import is an import statement. Exactly one of URI and FileName is set.
type Import struct {
	ImportToken Location

	// URI is the module name of a module import, such as QtQuick.Controls.
	URI QualifiedID

	// FileName is the unquoted path of a directory or script import.
	FileName      string
	FileNameToken Location

	// Version is the imported version, nil if none was given.
	Version      *semver.Version
	VersionToken Location

	AsToken   Location
	Alias     Name
	Semicolon Location
}

func (n *Import) Kind() NodeKind          { return KindImport }
func (n *Import) FirstLocation() Location { return n.ImportToken }
func (n *Import) LastLocation() Location {
	switch {
	case n.Semicolon.IsValid():
		return n.Semicolon
	case n.Alias.Loc.IsValid():
		return n.Alias.Loc
	case n.VersionToken.IsValid():
		return n.VersionToken
	case n.FileNameToken.IsValid():
		return n.FileNameToken
	}
	return n.URI.Last()
}

// Target returns the module URI or the file name of the import.
func (n *Import) Target() string {
	if n.FileNameToken.IsValid() {
		return n.FileName
	}
	return n.URI.String()
}

// ObjectInitializer is the brace-delimited member list of an object.
type ObjectInitializer struct {
	LBrace  Location
	RBrace  Location
	Members []Member
}

// ObjectDefinition is an object declaration such as Item { ... }.
// A definition whose type name starts with a lower case letter
// is a grouped property such as anchors { ... }.
type ObjectDefinition struct {
	TypeName    QualifiedID
	Initializer *ObjectInitializer
}

func (n *ObjectDefinition) Kind() NodeKind          { return KindObjectDefinition }
func (n *ObjectDefinition) FirstLocation() Location { return n.TypeName.First() }
func (n *ObjectDefinition) LastLocation() Location  { return n.Initializer.RBrace }
func (n *ObjectDefinition) member()                 {}

// IsGroup returns whether the definition is a grouped property.
func (n *ObjectDefinition) IsGroup() bool {
	s := n.TypeName.String()
	return s != "" && s[0] >= 'a' && s[0] <= 'z'
}

// ObjectBinding binds an object to a property, as in
// contentItem: Rectangle { ... }, or, when OnToken is valid,
// declares a property value source such as Behavior on x { ... }.
type ObjectBinding struct {
	QualifiedID QualifiedID
	Colon       Location
	OnToken     Location
	TypeName    QualifiedID
	Initializer *ObjectInitializer
}

func (n *ObjectBinding) Kind() NodeKind { return KindObjectBinding }
func (n *ObjectBinding) FirstLocation() Location {
	if n.OnToken.IsValid() {
		return n.TypeName.First()
	}
	return n.QualifiedID.First()
}
func (n *ObjectBinding) LastLocation() Location { return n.Initializer.RBrace }
func (n *ObjectBinding) member()                {}

// ScriptBinding binds an expression or block to a property.
type ScriptBinding struct {
	QualifiedID QualifiedID
	Colon       Location
	Statement   *Statement
}

func (n *ScriptBinding) Kind() NodeKind          { return KindScriptBinding }
func (n *ScriptBinding) FirstLocation() Location { return n.QualifiedID.First() }
func (n *ScriptBinding) LastLocation() Location  { return n.Statement.LastLocation() }
func (n *ScriptBinding) member()                 {}

// Statement is the token range of a JavaScript expression or block.
// Its contents are not parsed further.
type Statement struct {
	First Location
	Last  Location

	// Semicolon is the explicit terminating semicolon, if any.
	Semicolon Location
}

func (n *Statement) Kind() NodeKind          { return KindStatement }
func (n *Statement) FirstLocation() Location { return n.First }
func (n *Statement) LastLocation() Location {
	if n.Semicolon.IsValid() {
		return n.Semicolon
	}
	return n.Last
}
func (n *Statement) member() {}

// ArrayBinding binds a list of objects to a property, as in states: [ ... ].
type ArrayBinding struct {
	QualifiedID QualifiedID
	Colon       Location
	LBracket    Location
	RBracket    Location
	Elements    []*ArrayElement
}

func (n *ArrayBinding) Kind() NodeKind          { return KindArrayBinding }
func (n *ArrayBinding) FirstLocation() Location { return n.QualifiedID.First() }
func (n *ArrayBinding) LastLocation() Location  { return n.RBracket }
func (n *ArrayBinding) member()                 {}

// Members returns the members of all elements.
func (n *ArrayBinding) Members() []Member {
	ms := make([]Member, len(n.Elements))
	for i, e := range n.Elements {
		ms[i] = e.Member
	}
	return ms
}

// ArrayElement is one element of an [ArrayBinding].
type ArrayElement struct {
	// Comma is the comma preceding the element; invalid for the first one.
	Comma Location

	// Member is an [*ObjectDefinition] or a [*Statement].
	Member Member
}

// MemberTypes are the kinds of [PublicMember].
type MemberTypes int32

const (
	Property MemberTypes = iota
	Signal
)

func (t MemberTypes) String() string {
	if t == Signal {
		return "signal"
	}
	return "property"
}

// PublicMember is a property or signal declaration.
type PublicMember struct {
	Type MemberTypes

	// First is the location of the first keyword.
	First Location

	Default  bool
	Readonly bool
	Required bool

	// TypeModifier is the generic list type, as in list<Item>.
	TypeModifier string

	// MemberType is the declared property type, empty for signals.
	MemberType string
	TypeToken  Location

	Name string

	// NameToken is the location of the declared name.
	NameToken Location

	// RParen is the closing parenthesis of signal parameters, if any.
	RParen Location

	Colon     Location
	Statement *Statement
	Semicolon Location
}

func (n *PublicMember) Kind() NodeKind          { return KindPublicMember }
func (n *PublicMember) FirstLocation() Location { return n.First }
func (n *PublicMember) LastLocation() Location {
	switch {
	case n.Semicolon.IsValid():
		return n.Semicolon
	case n.Statement != nil:
		return n.Statement.LastLocation()
	case n.RParen.IsValid():
		return n.RParen
	}
	return n.NameToken
}
func (n *PublicMember) member() {}

// SourceElement is a function, enum or inline component declaration
// inside an object. Only its extent is recorded.
type SourceElement struct {
	Keyword string
	Name    Name
	First   Location
	Last    Location
}

func (n *SourceElement) Kind() NodeKind          { return KindSourceElement }
func (n *SourceElement) FirstLocation() Location { return n.First }
func (n *SourceElement) LastLocation() Location  { return n.Last }
func (n *SourceElement) member()                 {}

// BindingName returns the property name a member binds or declares:
// the qualified id of a binding or the name of a public member.
// It returns "" for all other members.
func BindingName(m Member) string {
	switch n := m.(type) {
	case *PublicMember:
		return n.Name
	case *ObjectBinding:
		return n.QualifiedID.String()
	case *ScriptBinding:
		return n.QualifiedID.String()
	case *ArrayBinding:
		return n.QualifiedID.String()
	}
	return ""
}

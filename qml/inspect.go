// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qml

import (
	"slices"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Inspect traverses the tree rooted at n in depth-first order,
// calling f for each node. If f returns false, the children of
// that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *ObjectDefinition:
		inspectInit(n.Initializer, f)
	case *ObjectBinding:
		inspectInit(n.Initializer, f)
	case *ScriptBinding:
		Inspect(n.Statement, f)
	case *PublicMember:
		if n.Statement != nil {
			Inspect(n.Statement, f)
		}
	case *ArrayBinding:
		for _, e := range n.Elements {
			Inspect(e.Member, f)
		}
	}
}

func inspectInit(init *ObjectInitializer, f func(Node) bool) {
	for _, m := range init.Members {
		Inspect(m, f)
	}
}

// Initializer returns the object initializer of an object definition
// or object binding, and nil for all other nodes.
func Initializer(n Node) *ObjectInitializer {
	switch n := n.(type) {
	case *ObjectDefinition:
		return n.Initializer
	case *ObjectBinding:
		return n.Initializer
	}
	return nil
}

// Parent returns the node directly containing child within the tree
// rooted at root, or nil if child is root or not in the tree.
func Parent(root, child Node) Node {
	var parent Node
	Inspect(root, func(n Node) bool {
		if parent != nil {
			return false
		}
		var members []Member
		if init := Initializer(n); init != nil {
			members = init.Members
		} else if ab, ok := n.(*ArrayBinding); ok {
			members = ab.Members()
		}
		if slices.ContainsFunc(members, func(m Member) bool { return Node(m) == child }) {
			parent = n
			return false
		}
		return true
	})
	return parent
}

// FindObjects returns all object definitions and object bindings
// in the program whose type name is the given name, in source order.
func (p *Program) FindObjects(typeName string) []Node {
	var res []Node
	Inspect(p.Root, func(n Node) bool {
		switch n := n.(type) {
		case *ObjectDefinition:
			if n.TypeName.String() == typeName {
				res = append(res, n)
			}
		case *ObjectBinding:
			if n.TypeName.String() == typeName {
				res = append(res, n)
			}
		}
		return true
	})
	return res
}

// FindMember returns the first member of the initializer that binds
// or declares the given name, or nil if there is none.
func FindMember(init *ObjectInitializer, name string) Member {
	for _, m := range init.Members {
		if BindingName(m) == name {
			return m
		}
	}
	return nil
}

// LookupBinding is [FindMember] that also resolves a name of the form
// group.property within a grouped object such as group { property: ... }.
func LookupBinding(init *ObjectInitializer, name string) Member {
	if m := FindMember(init, name); m != nil {
		return m
	}
	prefix, suffix, grouped := strings.Cut(name, ".")
	if !grouped {
		return nil
	}
	for _, m := range init.Members {
		if def, ok := m.(*ObjectDefinition); ok && def.TypeName.String() == prefix {
			if found := LookupBinding(def.Initializer, suffix); found != nil {
				return found
			}
		}
	}
	return nil
}

// SuggestThreshold is the minimum similarity in [0, 1] for
// [Suggest] to propose a name.
var SuggestThreshold = 0.6

// Suggest returns the candidate most similar to name,
// or "" if none reaches [SuggestThreshold].
// It is used for "did you mean" hints on unknown property names.
func Suggest(name string, candidates []string) string {
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false
	best, score := "", SuggestThreshold
	for _, c := range candidates {
		if c == name {
			return c
		}
		if s := strutil.Similarity(name, c, lev); s >= score {
			best, score = c, s
		}
	}
	return best
}

// BindingNames returns the names bound or declared by the members
// of the initializer, in source order and without duplicates.
func BindingNames(init *ObjectInitializer) []string {
	var names []string
	for _, m := range init.Members {
		if n := BindingName(m); n != "" && !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	return names
}

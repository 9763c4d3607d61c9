// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewriter

import (
	"slices"

	"cogentcore.org/refactor/qml"
)

// PropertyOrder is the preferred order of the members of an object,
// used to choose where a new member goes. The empty string marks the
// place of child object definitions and "property" the place of
// property and signal declarations.
type PropertyOrder []string

// DefaultPropertyOrder is the order used when none is configured.
var DefaultPropertyOrder = PropertyOrder{
	"id", "name", "target", "property", "x", "y", "width", "height",
	"position", "color", "radius", "text", "", "states", "transitions",
}

// orderKey returns the name under which a member is ranked
// in a [PropertyOrder], and false for members that are not ranked.
func orderKey(m qml.Member) (string, bool) {
	switch n := m.(type) {
	case *qml.ArrayBinding:
		return n.QualifiedID.String(), true
	case *qml.ObjectBinding:
		return n.QualifiedID.String(), true
	case *qml.ScriptBinding:
		return n.QualifiedID.String(), true
	case *qml.ObjectDefinition:
		return "", true
	case *qml.PublicMember:
		return "property", true
	}
	return "", false
}

// SearchMemberToInsertAfter returns the member after which a new
// binding of the given name belongs: the existing member ranked
// closest before name in order, where the last of several members
// with the same rank counts. A name missing from order is ranked at
// the object definition marker, or last if there is none. It returns
// nil if the binding belongs before all members.
func SearchMemberToInsertAfter(members []qml.Member, name string, order PropertyOrder) qml.Member {
	if len(members) == 0 {
		return nil
	}
	byName := map[string]qml.Member{}
	for _, m := range members {
		if k, ok := orderKey(m); ok {
			byName[k] = m
		}
	}
	idx := slices.Index(order, name)
	if idx < 0 {
		idx = slices.Index(order, "")
	}
	if idx < 0 {
		idx = len(order) - 1
	}
	for ; idx > 0; idx-- {
		if m, ok := byName[order[idx-1]]; ok {
			return m
		}
	}
	return nil
}

// SearchMemberToInsertAfterObject returns the member after which a
// new child object belongs: the last object definition, or else the
// last member ranked before the object definition marker.
func SearchMemberToInsertAfterObject(members []qml.Member, order PropertyOrder) qml.Member {
	i := searchObjectPosition(members, order)
	if i < 0 {
		return nil
	}
	return members[i]
}

// SearchArrayMemberToInsertAfter is [SearchMemberToInsertAfterObject]
// for the elements of an array binding.
func SearchArrayMemberToInsertAfter(elements []*qml.ArrayElement, order PropertyOrder) *qml.ArrayElement {
	members := make([]qml.Member, len(elements))
	for i, e := range elements {
		members[i] = e.Member
	}
	i := searchObjectPosition(members, order)
	if i < 0 {
		return nil
	}
	return elements[i]
}

func searchObjectPosition(members []qml.Member, order PropertyOrder) int {
	marker := slices.Index(order, "")
	lastObject, lastOther := -1, -1
	for i, m := range members {
		idx := -1
		if _, ok := m.(*qml.ObjectDefinition); ok {
			lastObject = i
		} else if k, ok := orderKey(m); ok {
			idx = slices.Index(order, k)
		}
		if idx < marker {
			lastOther = i
		}
	}
	if lastObject >= 0 {
		return lastObject
	}
	return lastOther
}

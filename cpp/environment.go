// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpp provides the macro environment of a C preprocessor,
// the protocol through which a preprocessor reports macro definitions,
// references, expansions, skipped blocks and includes to a client,
// and a preprocessor that drives both.
package cpp

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
)

// minIndexSize is the initial growth threshold of the name index.
const minIndexSize = 32

// Environment is the symbol table of macros for one preprocessing pass.
//
// Macros are kept in a slice in the order they were bound, and a map
// from name to slice index provides constant time lookup. Removing a
// macro sets its slot to nil rather than compacting the slice, so that
// positions of other macros never change; iteration skips the nil slots.
//
// An Environment is not safe for concurrent use.
type Environment struct {

	// CurrentFile is the file currently being preprocessed.
	CurrentFile string

	// CurrentLine is the line currently being preprocessed.
	CurrentLine int

	// HideNext is set while the next identifier must not be expanded,
	// as for the operand of defined in a conditional.
	HideNext bool

	// macros holds the bound macros in bind order, with nil holes.
	macros []*Macro

	// index maps a macro name to its index in macros.
	index map[string]int

	// threshold is the slice length at which the index is rebuilt larger.
	threshold int
}

// NewEnvironment returns a new empty [Environment].
func NewEnvironment() *Environment {
	env := &Environment{}
	env.Reset()
	return env
}

// Reset removes all macros and clears the current location,
// for reuse in an independent preprocessing pass.
func (env *Environment) Reset() {
	env.CurrentFile = ""
	env.CurrentLine = 0
	env.HideNext = false
	env.macros = nil
	env.threshold = minIndexSize
	env.index = make(map[string]int, env.threshold)
}

// Bind binds a copy of the given macro under its name and returns the
// stored macro. A macro already bound under the same name is superseded
// unconditionally: checking that a redefinition is compatible is up to
// the caller.
func (env *Environment) Bind(m Macro) *Macro {
	if env.index == nil {
		env.Reset()
	}
	stored := m.Clone()
	if idx, ok := env.index[m.Name]; ok {
		env.macros[idx] = nil
	}
	env.index[m.Name] = len(env.macros)
	env.macros = append(env.macros, stored)
	if len(env.macros) >= env.threshold {
		env.rehash()
	}
	return stored
}

// Remove unlinks the macro with the given name and returns it,
// or returns nil if no such macro is bound.
func (env *Environment) Remove(name string) *Macro {
	idx, ok := env.index[name]
	if !ok {
		return nil
	}
	m := env.macros[idx]
	env.macros[idx] = nil
	delete(env.index, name)
	return m
}

// Resolve returns the macro bound to the given name,
// or nil if there is none or it is hidden.
func (env *Environment) Resolve(name string) *Macro {
	idx, ok := env.index[name]
	if !ok {
		return nil
	}
	m := env.macros[idx]
	if m.Hidden {
		return nil
	}
	return m
}

// rehash rebuilds the name index with a doubled growth threshold.
// The order of the macro slice is not changed.
func (env *Environment) rehash() {
	for env.threshold <= len(env.macros) {
		env.threshold *= 2
	}
	index := make(map[string]int, env.threshold)
	for i, m := range env.macros {
		if m != nil {
			index[m.Name] = i
		}
	}
	slog.Debug("cpp: rehash", "macros", len(index), "threshold", env.threshold)
	env.index = index
}

// MacroCount returns the number of slots in the macro slice,
// including the nil slots of removed macros.
func (env *Environment) MacroCount() int {
	return len(env.macros)
}

// MacroAt returns the macro in the given slot, which is nil
// for a removed macro.
func (env *Environment) MacroAt(i int) *Macro {
	return env.macros[i]
}

// Macros returns the raw macro slice in bind order.
// Removed macros are nil. The slice must not be modified.
func (env *Environment) Macros() []*Macro {
	return env.macros
}

// All iterates over the bound macros in bind order, skipping removed slots.
func (env *Environment) All() iter.Seq[*Macro] {
	return func(yield func(*Macro) bool) {
		for _, m := range env.macros {
			if m == nil {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// Len returns the number of bound macros.
func (env *Environment) Len() int {
	return len(env.index)
}

// AddMacros binds all of the given macros in order.
func (env *Environment) AddMacros(ms []Macro) {
	for _, m := range ms {
		env.Bind(m)
	}
}

// Dump writes all bound macros to the given writer as #define lines.
func (env *Environment) Dump(w io.Writer) error {
	for m := range env.All() {
		if _, err := fmt.Fprintln(w, m.String()); err != nil {
			return err
		}
	}
	return nil
}

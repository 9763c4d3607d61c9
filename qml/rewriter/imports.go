// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewriter

import (
	"log/slog"
	"strconv"
	"strings"

	"cogentcore.org/refactor/base/errors"
	"cogentcore.org/refactor/qml"
	"github.com/Masterminds/semver/v3"
)

// ImportText returns the text of an import statement. A target
// that names a directory or script file is quoted.
func ImportText(target, version, alias string) string {
	var b strings.Builder
	b.WriteString("import ")
	if strings.ContainsAny(target, `/\`) || strings.HasSuffix(target, ".js") {
		b.WriteString(strconv.Quote(target))
	} else {
		b.WriteString(target)
	}
	if version != "" {
		b.WriteString(" " + version)
	}
	if alias != "" {
		b.WriteString(" as " + alias)
	}
	return b.String()
}

// AddImport adds an import of target after the existing imports.
// An existing import of target at an equal or newer version makes it
// a no-op, and one at an older version is replaced. The version may be
// empty. It reports whether an edit was made.
func (rw *Rewriter) AddImport(prog *qml.Program, target, version, alias string) (bool, error) {
	var want *semver.Version
	if version != "" {
		v, err := semver.NewVersion(version)
		if err != nil {
			return false, errors.Errorf("rewriter: invalid import version %q: %w", version, err)
		}
		want = v
	}
	text := ImportText(target, version, alias)
	for _, im := range prog.Imports {
		if im.Target() != target {
			continue
		}
		if want == nil || (im.Version != nil && !im.Version.LessThan(want)) {
			slog.Debug("rewriter: import exists", "target", target, "version", im.Version)
			return false, nil
		}
		return rw.sink.Replace(im.FirstLocation().Offset, im.LastLocation().End(), text), nil
	}
	switch {
	case len(prog.Imports) > 0:
		return rw.sink.Insert(prog.Imports[len(prog.Imports)-1].LastLocation().End(), "\n"+text), nil
	case len(prog.Pragmas) > 0:
		return rw.sink.Insert(prog.Pragmas[len(prog.Pragmas)-1].LastLocation().End(), "\n"+text), nil
	}
	return rw.sink.Insert(0, text+"\n\n"), nil
}

// RemoveImport removes all imports of target, reporting whether
// there were any.
func (rw *Rewriter) RemoveImport(prog *qml.Program, target string) bool {
	found := false
	for _, im := range prog.Imports {
		if im.Target() != target {
			continue
		}
		start, end, _ := includeSurroundingWhitespace(rw.original, im.FirstLocation().Offset, im.LastLocation().End())
		rw.sink.Remove(start, end)
		found = true
	}
	return found
}

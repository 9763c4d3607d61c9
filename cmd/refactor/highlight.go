// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// HighlightStyle is the chroma style used for colored output.
var HighlightStyle = "monokai"

// writeSource writes the given source, syntax highlighted for the
// given language with chroma if color is set.
func writeSource(w io.Writer, src, language string, color bool) error {
	if !color {
		_, err := io.WriteString(w, src)
		return err
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return err
	}
	return formatters.Get("terminal256").Format(w, styles.Get(HighlightStyle), it)
}

// writeDiff writes the given unified diff, with added lines in green,
// removed lines in red and hunk headers in cyan if color is set.
func writeDiff(w io.Writer, diff string, color bool) error {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI
	}
	out := termenv.NewOutput(w, termenv.WithProfile(profile))
	for line := range strings.Lines(diff) {
		text := strings.TrimSuffix(line, "\n")
		s := out.String(text)
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			s = s.Bold()
		case strings.HasPrefix(text, "+"):
			s = s.Foreground(termenv.ANSIGreen)
		case strings.HasPrefix(text, "-"):
			s = s.Foreground(termenv.ANSIRed)
		case strings.HasPrefix(text, "@@"):
			s = s.Foreground(termenv.ANSICyan)
		}
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	return nil
}

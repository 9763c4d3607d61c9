// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cogentcore.org/refactor/base/errors"
	"cogentcore.org/refactor/cpp"
)

// commandLineFile is the injected file holding the -D and -U definitions.
const commandLineFile = "<command-line>"

func runPP(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("pp", flag.ContinueOnError)
	c := addCommon(fs)
	var defines, undefines, includes stringList
	fs.Var(&defines, "D", "define a macro: NAME or NAME=VALUE (repeatable)")
	fs.Var(&undefines, "U", "remove a macro (repeatable)")
	fs.Var(&includes, "I", "add an include directory (repeatable)")
	events := fs.Bool("events", false, "print the client events instead of the output")
	dump := fs.Bool("dump", false, "print the macro definitions after preprocessing")
	color := fs.Bool("color", false, "syntax highlight the output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("pp: expected exactly one input file")
	}
	cfg, err := c.setup()
	if err != nil {
		return err
	}

	rec := &cpp.Recorder{}
	l := cpp.NewLoader(rec)
	cpp.Predefine(l.PP.Env)
	for _, dir := range append(cfg.IncludePaths, includes...) {
		if err := l.AddIncludePath(dir); err != nil {
			return err
		}
	}
	defs, err := cpp.ParseDefines(definesLine(cfg.Defines, defines, undefines))
	if err != nil {
		return err
	}
	var initial []string
	if defs.Len() > 0 {
		l.Injected[commandLineFile] = cpp.DefinesSource(defs)
		initial = append(initial, commandLineFile)
	}
	slog.Info("preprocessing", "file", fs.Arg(0), "includePaths", l.IncludePaths, "defines", defs.Len())
	out, err := l.Preprocess(fs.Arg(0), initial...)
	if err != nil {
		return err
	}
	if perr := rec.Err(); perr != nil {
		slog.Warn("client protocol violations", "err", perr)
	}

	if *events {
		_, err = fmt.Fprintln(w, rec.String())
	} else {
		err = writeSource(w, string(out), "c", *color)
	}
	if err != nil {
		return err
	}
	if *dump {
		return l.PP.Env.Dump(w)
	}
	return nil
}

// definesLine joins the configured defines and the -D and -U flag
// values into one shell words line.
func definesLine(configured string, defines, undefines []string) string {
	words := []string{configured}
	for _, d := range defines {
		words = append(words, shellQuote("-D"+d))
	}
	for _, u := range undefines {
		words = append(words, shellQuote("-U"+u))
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// shellQuote quotes s as a single shell word.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

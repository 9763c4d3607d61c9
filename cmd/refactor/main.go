// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command refactor runs the C preprocessor on a file, or applies
// source-preserving edits to a QML document.
//
// Usage:
//
//	refactor pp [flags] file.c
//	refactor qml [flags] file.qml
//	refactor config [flags]
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cogentcore.org/refactor/base/logx"
)

const usage = `usage:
	refactor pp [flags] file.c       preprocess a C or C++ file
	refactor qml [flags] file.qml    edit a QML document
	refactor config [flags]          print the effective configuration

Run "refactor <command> -h" for the flags of a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run runs the command line and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	var err error
	switch args[0] {
	case "pp":
		err = runPP(args[1:], stdout)
	case "qml":
		err = runQML(args[1:], stdout)
	case "config":
		err = runConfig(args[1:], stdout)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "refactor: unknown command %q\n%s", args[0], usage)
		return 2
	}
	switch {
	case err == flag.ErrHelp:
		return 0
	case err != nil:
		slog.Error(err.Error())
		return 1
	}
	return 0
}

// common holds the flags shared by all commands.
type common struct {
	config string
	vv     bool
	v      bool
	q      bool
}

func addCommon(fs *flag.FlagSet) *common {
	c := &common{}
	fs.StringVar(&c.config, "config", "", "the config file (TOML, or YAML by extension)")
	fs.BoolVar(&c.vv, "vv", false, "print debug messages")
	fs.BoolVar(&c.v, "v", false, "print informational messages")
	fs.BoolVar(&c.q, "q", false, "only print errors")
	return c
}

// setup loads the config and installs the default logger
// at the level chosen by the flags and the config.
func (c *common) setup() (*Config, error) {
	cfg, err := LoadConfig(c.config)
	if err != nil {
		return nil, err
	}
	logx.UserLevel = logx.LevelFromFlags(c.vv, c.v || cfg.Verbose, c.q || cfg.Quiet)
	logx.SetDefaultLogger()
	return cfg, nil
}

// stringList is a flag that can be given more than once.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"io"
	"log/slog"
	"path/filepath"
	"slices"

	"cogentcore.org/refactor/base/fsx"
	"cogentcore.org/refactor/base/iox/tomlx"
	"cogentcore.org/refactor/base/iox/yamlx"
	"cogentcore.org/refactor/base/logx"
	"cogentcore.org/refactor/cli"
	"cogentcore.org/refactor/qml/rewriter"
)

// Config is the configuration of the refactor command,
// read from a TOML or YAML file.
type Config struct {

	// Includes are other config files whose settings this one overrides.
	Includes []string `yaml:"Includes,omitempty" toml:",omitempty"`

	// PropertyOrder is the preferred order of QML object members.
	// The empty string marks the place of child objects.
	PropertyOrder []string `yaml:"PropertyOrder"`

	// IncludePaths are the directories searched for included C files.
	IncludePaths []string `yaml:"IncludePaths"`

	// Defines are -D and -U options for the preprocessor, as shell words.
	Defines string `yaml:"Defines"`

	// Verbose prints informational messages.
	Verbose bool `yaml:"Verbose"`

	// Quiet only prints errors.
	Quiet bool `yaml:"Quiet"`
}

func (c *Config) IncludesPtr() *[]string { return &c.Includes }

// ConfigPaths are the directories searched for a default config file.
var ConfigPaths = []string{".", "~/.config/refactor"}

// ConfigFiles are the names of default config files, in order of preference.
var ConfigFiles = []string{"refactor.toml", "refactor.yaml"}

// LoadConfig loads the config from the given file, following its includes.
// If file is empty it uses the first of [ConfigFiles] found on
// [ConfigPaths], and the default config if there is none.
func LoadConfig(file string) (*Config, error) {
	cfg := &Config{PropertyOrder: slices.Clone(rewriter.DefaultPropertyOrder)}
	if file == "" {
		found := fsx.FindFilesOnPaths(ConfigPaths, ConfigFiles...)
		if len(found) == 0 {
			return cfg, nil
		}
		file = found[0]
	}
	paths := []string{filepath.Dir(file)}
	if err := cli.OpenWithIncludes(paths, cfg, filepath.Base(file)); err != nil {
		return nil, err
	}
	slog.Debug("loaded config", "file", file, "includes", cfg.Includes)
	return cfg, nil
}

func runConfig(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	c := addCommon(fs)
	format := fs.String("format", "toml", "output format: toml or yaml")
	save := fs.String("save", "", "save the configuration to this file instead of printing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.setup()
	if err != nil {
		return err
	}
	if *save != "" {
		if err := cli.Save(cfg, *save); err != nil {
			return err
		}
		logx.PrintlnInfo("saved", *save)
		return nil
	}
	if *format == "yaml" {
		return yamlx.Write(cfg, w)
	}
	b, err := tomlx.WriteBytes(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

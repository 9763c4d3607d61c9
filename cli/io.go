// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli reads command configuration from TOML or YAML files,
// following the includes that a config file names.
package cli

import (
	"path/filepath"
	"slices"
	"strings"

	"cogentcore.org/refactor/base/errors"
	"cogentcore.org/refactor/base/fsx"
	"cogentcore.org/refactor/base/iox/tomlx"
	"cogentcore.org/refactor/base/iox/yamlx"
)

// Includer is a config type that can include other config files.
type Includer interface {
	// IncludesPtr returns a pointer to the list of included files.
	IncludesPtr() *[]string
}

// Open reads the given config object from the given file, using YAML
// for .yaml and .yml files and TOML otherwise.
func Open(cfg any, file string) error {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return yamlx.Open(cfg, file)
	}
	return tomlx.Open(cfg, file)
}

// Save writes the given config object to the given file, choosing
// the format the same way as [Open].
func Save(cfg any, file string) error {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return yamlx.Save(cfg, file)
	}
	return tomlx.Save(cfg, file)
}

// OpenWithIncludes reads the config object from the given config file,
// looking on the given paths for the file. It opens any includes
// specified in the file in the natural include order so that includers
// overwrite included settings. It is equivalent to [Open] if there are
// no includes, and returns an error if any of the files cannot be found
// on the paths.
func OpenWithIncludes(paths []string, cfg any, file string) error {
	if err := openOnPaths(paths, cfg, file); err != nil {
		return err
	}
	incfg, ok := cfg.(Includer)
	if !ok {
		return nil
	}
	incs, err := includeStack(paths, incfg, map[string]bool{file: true})
	if err != nil {
		return err
	}
	if len(incs) == 0 {
		return nil
	}
	for i := len(incs) - 1; i >= 0; i-- {
		if err := openOnPaths(paths, cfg, incs[i]); err != nil {
			return err
		}
	}
	// reopen original
	if err := openOnPaths(paths, cfg, file); err != nil {
		return err
	}
	*incfg.IncludesPtr() = incs
	return nil
}

func openOnPaths(paths []string, cfg any, file string) error {
	files := fsx.FindFilesOnPaths(paths, file)
	if len(files) == 0 {
		return errors.Errorf("cli: no files found for %q on %v", file, paths)
	}
	return Open(cfg, files[0])
}

// includeStack returns the files included by cfg, depth first.
func includeStack(paths []string, cfg Includer, seen map[string]bool) ([]string, error) {
	incs := slices.Clone(*cfg.IncludesPtr())
	var res []string
	for _, inc := range incs {
		if seen[inc] {
			return nil, errors.Errorf("cli: include cycle at %q", inc)
		}
		seen[inc] = true
		*cfg.IncludesPtr() = nil
		if err := openOnPaths(paths, cfg, inc); err != nil {
			return nil, err
		}
		sub, err := includeStack(paths, cfg, seen)
		if err != nil {
			return nil, err
		}
		res = append(res, inc)
		res = append(res, sub...)
	}
	return res, nil
}

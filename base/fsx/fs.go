// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fsx provides file system helpers for finding files
// on search paths.
package fsx

import (
	"io/fs"
	"os"
	"path/filepath"

	"cogentcore.org/refactor/base/errors"
	"github.com/mitchellh/go-homedir"
)

// FileExists checks whether given file exists, returning true if so,
// false if not, and error if there is an error in accessing the file.
// A directory does not count as a file.
func FileExists(filePath string) (bool, error) {
	fileInfo, err := os.Stat(filePath)
	if err == nil {
		return !fileInfo.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// FindFilesOnPaths attempts to locate given file(s) on given list of paths,
// returning the full Abs path to each file found (nil if none).
// A leading ~ in a path is expanded to the home directory.
func FindFilesOnPaths(paths []string, files ...string) []string {
	var res []string
	for _, path := range paths {
		path, err := homedir.Expand(path)
		if errors.Log(err) != nil {
			continue
		}
		for _, fn := range files {
			fp := filepath.Join(path, fn)
			ok, _ := FileExists(fp)
			if !ok {
				continue
			}
			if abs, err := filepath.Abs(fp); err == nil {
				fp = abs
			}
			res = append(res, fp)
		}
	}
	return res
}

// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"bytes"
	"log/slog"
	"path/filepath"

	"cogentcore.org/refactor/base/errors"
	"cogentcore.org/refactor/base/fsx"
	"cogentcore.org/refactor/base/iox"
	"github.com/mitchellh/go-homedir"
)

// Loader is a [Client] that reads included files from the file system
// and preprocesses them in place with its [Preprocessor]. All events
// are also passed on to the embedded client.
type Loader struct {
	Client

	// PP is the preprocessor that the loader runs files with.
	PP *Preprocessor

	// IncludePaths are the directories searched for included files, in order.
	IncludePaths []string

	// Injected holds the content of injected files such as <configuration>.
	Injected map[string][]byte

	// guards maps a file to the macro of its include guard.
	guards map[string]string

	// found maps a file to the index of the include path it was found in.
	found map[string]int

	out bytes.Buffer
	err error
}

// NewLoader returns a new [Loader] with a new [Preprocessor] and
// [Environment], passing events on to the given client.
func NewLoader(client Client) *Loader {
	if client == nil {
		client = NopClient{}
	}
	l := &Loader{Client: client, Injected: map[string][]byte{}, guards: map[string]string{}, found: map[string]int{}}
	l.PP = NewPreprocessor(NewEnvironment(), l)
	return l
}

// AddIncludePath adds the given directory to the include paths,
// expanding a leading ~ to the home directory.
func (l *Loader) AddIncludePath(dir string) error {
	dir, err := homedir.Expand(dir)
	if err != nil {
		return errors.Wrap(err)
	}
	l.IncludePaths = append(l.IncludePaths, filepath.Clean(dir))
	return nil
}

// Output returns the preprocessed text of the top level files.
func (l *Loader) Output() []byte {
	return l.out.Bytes()
}

// Err returns the first error of the top level files.
func (l *Loader) Err() error {
	return l.err
}

// Preprocess preprocesses the given file, after the given initial
// includes, and returns the output of all of them.
func (l *Loader) Preprocess(fileName string, initialIncludes ...string) ([]byte, error) {
	l.SourceNeeded(0, fileName, IncludeLocal, initialIncludes)
	return l.Output(), l.Err()
}

// MarkAsIncludeGuard records the guard of the current file, so that it
// is not read again while the guard macro is defined.
func (l *Loader) MarkAsIncludeGuard(macroName string) {
	l.guards[l.PP.Env.CurrentFile] = macroName
	l.Client.MarkAsIncludeGuard(macroName)
}

// SourceNeeded finds, reads and preprocesses the given file, after its
// initial includes.
func (l *Loader) SourceNeeded(line int, fileName string, mode IncludeType, initialIncludes []string) {
	l.Client.SourceNeeded(line, fileName, mode, initialIncludes)
	for _, inc := range initialIncludes {
		l.include(inc, IncludeGlobal)
	}
	l.include(fileName, mode)
}

func (l *Loader) include(fileName string, mode IncludeType) {
	var path string
	var src []byte
	if IsInjectedFile(fileName) {
		b, ok := l.Injected[fileName]
		if !ok {
			l.fail(errors.Errorf("%s: no content for injected file", fileName))
			return
		}
		path, src = fileName, b
	} else {
		var err error
		if path, err = l.find(fileName, mode); err != nil {
			l.fail(err)
			return
		}
		if guard, ok := l.guards[path]; ok && l.PP.Env.Resolve(guard) != nil {
			slog.Debug("cpp: skipping guarded file", "file", path, "guard", guard)
			return
		}
		if src, err = iox.ReadSource(path); err != nil {
			l.fail(err)
			return
		}
	}
	top := l.PP.Depth() == 0
	out, err := l.PP.Run(path, src)
	if err != nil {
		l.fail(err)
		return
	}
	if top {
		l.out.Write(out)
	}
}

func (l *Loader) fail(err error) {
	if l.PP.Depth() > 0 {
		l.PP.Abort(err)
		return
	}
	if l.err == nil {
		l.err = err
	}
}

// find returns the path of the given included file.
func (l *Loader) find(fileName string, mode IncludeType) (string, error) {
	if filepath.IsAbs(fileName) {
		return fileName, exists(fileName)
	}
	cur := l.PP.Env.CurrentFile
	var dirs []string
	first := 0
	switch mode {
	case IncludeLocal:
		if !IsInjectedFile(cur) {
			dirs = append(dirs, filepath.Dir(cur))
			first = -1
		}
		dirs = append(dirs, l.IncludePaths...)
	case IncludeGlobal:
		dirs = l.IncludePaths
	case IncludeNext:
		if idx, ok := l.found[cur]; ok {
			first = idx + 1
		}
		dirs = l.IncludePaths[min(first, len(l.IncludePaths)):]
	}
	for i, dir := range dirs {
		path := filepath.Join(dir, fileName)
		if exists(path) != nil {
			continue
		}
		if idx := first + i; idx >= 0 {
			l.found[path] = idx
		} else if idx, ok := l.found[cur]; ok {
			l.found[path] = idx
		}
		return path, nil
	}
	return "", errors.Errorf("%s: file not found in %v", fileName, dirs)
}

func exists(path string) error {
	ok, err := fsx.FileExists(path)
	if err != nil {
		return errors.Wrap(err)
	}
	if !ok {
		return errors.Errorf("%s: no such file", path)
	}
	return nil
}

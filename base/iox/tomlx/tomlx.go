// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tomlx provides TOML versions of the [iox] Open and Save functions.
package tomlx

import (
	"io"

	"cogentcore.org/refactor/base/iox"
	"github.com/pelletier/go-toml/v2"
)

// NewDecoder returns a new [iox.Decoder]
func NewDecoder(r io.Reader) iox.Decoder { return toml.NewDecoder(r) }

// NewEncoder returns a new [iox.Encoder]
func NewEncoder(w io.Writer) iox.Encoder { return toml.NewEncoder(w) }

// Open reads the given object from the given filename using TOML encoding
func Open(v any, filename string) error {
	return iox.Open(v, filename, NewDecoder)
}

// OpenFiles reads the given object from the given filenames using TOML encoding
func OpenFiles(v any, filenames ...string) error {
	return iox.OpenFiles(v, filenames, NewDecoder)
}

// ReadBytes reads the given object from the given bytes using TOML encoding
func ReadBytes(v any, data []byte) error {
	return iox.ReadBytes(v, data, NewDecoder)
}

// Save writes the given object to the given filename using TOML encoding
func Save(v any, filename string) error {
	return iox.Save(v, filename, NewEncoder)
}

// WriteBytes writes the given object, returning bytes of the encoding
func WriteBytes(v any) ([]byte, error) {
	return iox.WriteBytes(v, NewEncoder)
}

// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package yamlx provides YAML versions of the [iox] Open and Save functions.
package yamlx

import (
	"io"

	"cogentcore.org/refactor/base/iox"
	"gopkg.in/yaml.v3"
)

// NewDecoder returns a new [iox.Decoder]
func NewDecoder(r io.Reader) iox.Decoder { return yaml.NewDecoder(r) }

// NewEncoder returns a new [iox.Encoder]
func NewEncoder(w io.Writer) iox.Encoder { return yaml.NewEncoder(w) }

// Open reads the given object from the given filename using YAML encoding
func Open(v any, filename string) error {
	return iox.Open(v, filename, NewDecoder)
}

// ReadBytes reads the given object from the given bytes using YAML encoding
func ReadBytes(v any, data []byte) error {
	return iox.ReadBytes(v, data, NewDecoder)
}

// Write writes the given object to the given writer using YAML encoding
func Write(v any, w io.Writer) error {
	return iox.Write(v, w, NewEncoder)
}

// WriteBytes writes the given object, returning bytes of the encoding
func WriteBytes(v any) ([]byte, error) {
	return iox.WriteBytes(v, NewEncoder)
}

// Save writes the given object to the given filename using YAML encoding
func Save(v any, filename string) error {
	return iox.Save(v, filename, NewEncoder)
}

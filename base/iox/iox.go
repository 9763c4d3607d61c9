// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iox provides boilerplate wrapper functions for the Go standard
// io functions to Read, Open, Write, and Save, with implementations for
// commonly used encoding formats, and for reading program source text.
package iox

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"cogentcore.org/refactor/base/errors"
)

// Decoder is an interface for standard decoder types
type Decoder interface {
	// Decode decodes from io.Reader specified at creation
	Decode(v any) error
}

// DecoderFunc is a function that creates a new Decoder for given reader
type DecoderFunc func(r io.Reader) Decoder

// Encoder is an interface for standard encoder types
type Encoder interface {
	// Encode encodes to io.Writer specified at creation
	Encode(v any) error
}

// EncoderFunc is a function that creates a new Encoder for given writer
type EncoderFunc func(w io.Writer) Encoder

// Open reads the given object from the given filename using the given [DecoderFunc]
func Open(v any, filename string, f DecoderFunc) error {
	fp, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err)
	}
	defer fp.Close()
	return Read(v, bufio.NewReader(fp), f)
}

// OpenFiles reads the given object from the given filenames in order,
// so that later files override settings of earlier ones.
func OpenFiles(v any, filenames []string, f DecoderFunc) error {
	var errs []error
	for _, fn := range filenames {
		errs = append(errs, Open(v, fn, f))
	}
	return errors.Join(errs...)
}

// Read reads the given object from the given reader,
// using the given [DecoderFunc]
func Read(v any, reader io.Reader, f DecoderFunc) error {
	d := f(reader)
	return d.Decode(v)
}

// ReadBytes reads the given object from the given bytes,
// using the given [DecoderFunc]
func ReadBytes(v any, data []byte, f DecoderFunc) error {
	return Read(v, bytes.NewBuffer(data), f)
}

// Save writes the given object to the given filename using the given [EncoderFunc]
func Save(v any, filename string, f EncoderFunc) error {
	fp, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err)
	}
	defer fp.Close()
	bw := bufio.NewWriter(fp)
	err = Write(v, bw, f)
	if err != nil {
		return err
	}
	return bw.Flush()
}

// Write writes the given object using the given [EncoderFunc]
func Write(v any, writer io.Writer, f EncoderFunc) error {
	e := f(writer)
	return e.Encode(v)
}

// WriteBytes writes the given object, returning bytes of the encoding,
// using the given [EncoderFunc]
func WriteBytes(v any, f EncoderFunc) ([]byte, error) {
	var b bytes.Buffer
	e := f(&b)
	err := e.Encode(v)
	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

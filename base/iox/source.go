// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iox

import (
	"os"

	"cogentcore.org/refactor/base/errors"
	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrBinary is returned by [ReadSource] for content that
// is recognized as a binary file format.
var ErrBinary = errors.New("binary content")

// ReadSource reads the named source file and returns its text as UTF-8.
// See [DecodeSource] for the conversions applied.
func ReadSource(filename string) ([]byte, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err)
	}
	src, err := DecodeSource(b)
	if err != nil {
		return nil, errors.Errorf("%s: %w", filename, err)
	}
	return src, nil
}

// DecodeSource converts raw file content to UTF-8 source text.
// A UTF-16 byte order mark selects UTF-16 decoding, and a UTF-8
// byte order mark is dropped. Content that matches a known binary
// file signature is rejected with [ErrBinary].
func DecodeSource(b []byte) ([]byte, error) {
	if !hasBOM(b) {
		kind, _ := filetype.Match(b)
		if kind != filetype.Unknown {
			return nil, errors.Errorf("%w (%s)", ErrBinary, kind.MIME.Value)
		}
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	res, _, err := transform.Bytes(dec, b)
	if err != nil {
		return nil, errors.Wrap(err)
	}
	return res, nil
}

func hasBOM(b []byte) bool {
	if len(b) >= 2 && ((b[0] == 0xFE && b[1] == 0xFF) || (b[0] == 0xFF && b[1] == 0xFE)) {
		return true
	}
	return len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF
}

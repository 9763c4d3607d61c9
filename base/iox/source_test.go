// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iox

import (
	"os"
	"path/filepath"
	"testing"

	"cogentcore.org/refactor/base/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSource(t *testing.T) {
	src, err := DecodeSource([]byte("#define A 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "#define A 1\n", string(src))

	src, err = DecodeSource([]byte("\xEF\xBB\xBFItem {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "Item {}\n", string(src))

	// "ab" in UTF-16LE with a byte order mark
	src, err = DecodeSource([]byte{0xFF, 0xFE, 'a', 0, 'b', 0})
	require.NoError(t, err)
	assert.Equal(t, "ab", string(src))

	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	_, err = DecodeSource(png)
	assert.True(t, errors.Is(err, ErrBinary))
}

func TestReadSource(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "a.h")
	require.NoError(t, os.WriteFile(fn, []byte("int x;\n"), 0666))
	src, err := ReadSource(fn)
	require.NoError(t, err)
	assert.Equal(t, "int x;\n", string(src))

	_, err = ReadSource(filepath.Join(t.TempDir(), "missing.h"))
	assert.Error(t, err)
}

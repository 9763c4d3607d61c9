// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ordmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	var om Map[string, int]
	om.Add("a", 1)
	om.Add("b", 2)
	om.Add("c", 3)
	om.Add("a", 4)

	assert.Equal(t, []string{"a", "b", "c"}, om.Keys())
	v, ok := om.ValueByKeyTry("a")
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	assert.True(t, om.DeleteKey("b"))
	assert.False(t, om.DeleteKey("b"))
	assert.Equal(t, 1, om.IndexByKey("c"))
	assert.Equal(t, -1, om.IndexByKey("b"))
	assert.Equal(t, 2, om.Len())

	var vals []int
	for _, v := range om.All() {
		vals = append(vals, v)
	}
	assert.Equal(t, []int{4, 3}, vals)
}

// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ordmap implements a generic map that remembers the order
// in which keys were first added. A slice holds the key-value pairs
// and a Go map holds the index of each key into that slice.
package ordmap

import (
	"fmt"
	"iter"
	"slices"
)

// KeyValue represents a key-value pair.
type KeyValue[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is an ordered map. The zero value is ready to use.
type Map[K comparable, V any] struct {

	// Order is the list of key-value pairs, in the order first added.
	Order []KeyValue[K, V]

	// Map is the key to index mapping.
	Map map[K]int
}

// New returns a new ordered map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{Map: make(map[K]int)}
}

// Add sets the value for the given key. An existing key keeps
// its position and gets the new value; a new key goes at the end.
func (om *Map[K, V]) Add(key K, val V) {
	if om.Map == nil {
		om.Map = make(map[K]int)
	}
	if idx, has := om.Map[key]; has {
		om.Order[idx].Value = val
		return
	}
	om.Map[key] = len(om.Order)
	om.Order = append(om.Order, KeyValue[K, V]{Key: key, Value: val})
}

// ValueByKeyTry returns the value for the given key,
// with false returned for a missing key.
func (om *Map[K, V]) ValueByKeyTry(key K) (V, bool) {
	idx, ok := om.Map[key]
	if ok {
		return om.Order[idx].Value, true
	}
	var zv V
	return zv, false
}

// IndexByKey returns the index of the given key, or -1 if it is missing.
func (om *Map[K, V]) IndexByKey(key K) int {
	idx, ok := om.Map[key]
	if !ok {
		return -1
	}
	return idx
}

// Len returns the number of items in the map.
func (om *Map[K, V]) Len() int {
	if om == nil {
		return 0
	}
	return len(om.Order)
}

// DeleteKey deletes the item with the given key, returning false if it is missing.
// The indexes of later items are renumbered.
func (om *Map[K, V]) DeleteKey(key K) bool {
	idx, ok := om.Map[key]
	if !ok {
		return false
	}
	for o := idx + 1; o < len(om.Order); o++ {
		om.Map[om.Order[o].Key] = o - 1
	}
	delete(om.Map, key)
	om.Order = slices.Delete(om.Order, idx, idx+1)
	return true
}

// Keys returns the keys in order.
func (om *Map[K, V]) Keys() []K {
	kl := make([]K, om.Len())
	for i, kv := range om.Order {
		kl[i] = kv.Key
	}
	return kl
}

// All iterates over the key-value pairs in order.
func (om *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, kv := range om.Order {
			if !yield(kv.Key, kv.Value) {
				return
			}
		}
	}
}

// String returns a string representation of the map.
func (om *Map[K, V]) String() string {
	return fmt.Sprintf("%v", om.Order)
}

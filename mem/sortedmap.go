// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mem

import (
	"cmp"
	"iter"
	"slices"
	"sort"

	"golang.org/x/exp/constraints"
)

// SortedMap is a map that iterates in key order. It is backed by a sorted
// slice, which suits the small, append-heavy maps used during
// rasterization.
type SortedMap[K constraints.Ordered, V any] struct {
	entries []SortedMapEntry[K, V]
}

type SortedMapEntry[K constraints.Ordered, V any] struct {
	key   K
	value V
}

func (m *SortedMap[K, V]) search(key K) (int, bool) {
	return sort.Find(len(m.entries), func(i int) int {
		return cmp.Compare(key, m.entries[i].key)
	})
}

func (m *SortedMap[K, V]) Insert(key K, value V) {
	if idx, ok := m.search(key); ok {
		m.entries[idx].value = value
	} else {
		m.entries = slices.Insert(m.entries, idx, SortedMapEntry[K, V]{key, value})
	}
}

func (m *SortedMap[K, V]) Get(key K) (V, bool) {
	if idx, ok := m.search(key); ok {
		return m.entries[idx].value, true
	}
	return *new(V), false
}

func (m *SortedMap[K, V]) Len() int { return len(m.entries) }

func (m *SortedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.entries {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mem

import (
	"iter"
)

// Index refers to a value stored in an [Arena]. Indices stay valid for the
// lifetime of the arena; values are never moved out from under them by
// anything other than [Arena.Reset].
type Index int32

const NoIndex Index = -1

func (i Index) Valid() bool { return i >= 0 }

// Arena stores values of a single type and hands out indices instead of
// pointers. Values that refer to each other do so by index, which keeps
// cyclic structures free of ownership questions.
type Arena[T any] struct {
	items []T
}

func NewArena[T any](capacity int) *Arena[T] {
	return &Arena[T]{items: make([]T, 0, capacity)}
}

func (a *Arena[T]) Alloc(v T) Index {
	a.items = append(a.items, v)
	return Index(len(a.items) - 1)
}

// At returns a pointer to the value at i. The pointer is invalidated by the
// next call to Alloc.
func (a *Arena[T]) At(i Index) *T {
	return &a.items[i]
}

func (a *Arena[T]) Len() int {
	return len(a.items)
}

func (a *Arena[T]) All() iter.Seq2[Index, *T] {
	return func(yield func(Index, *T) bool) {
		for i := range a.items {
			if !yield(Index(i), &a.items[i]) {
				return
			}
		}
	}
}

// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !masking_nozeroize

package security

import (
	"runtime"

	"github.com/awnumar/memguard"
)

// Zeroizer is implemented by raw types that can overwrite their own backing
// memory. Zeroize must not fail, must be safe on the zero value and must be
// safe to call more than once.
type Zeroizer interface {
	Zeroize()
}

// Wipe overwrites the full capacity of b with zeros, including bytes past
// len(b) that an earlier append or reslice may have left behind.
func Wipe(b []byte) {
	if cap(b) == 0 {
		return
	}
	full := b[:cap(b)]
	memguard.WipeBytes(full)
	runtime.KeepAlive(full)
}

// ZeroizeAll zeroizes every argument in order. It is the building block for
// Zeroize methods on structs that hold several secrets.
func ZeroizeAll(zs ...Zeroizer) {
	for _, z := range zs {
		if z != nil {
			z.Zeroize()
		}
	}
}

// Bytes is wipeable raw secret material.
type Bytes []byte

// Zeroize implements Zeroizer over the full capacity of b.
func (b Bytes) Zeroize() { Wipe(b) }

// Clone returns an independent copy of b.
func (b Bytes) Clone() Bytes {
	if b == nil {
		return nil
	}
	out := make(Bytes, len(b))
	copy(out, b)
	return out
}

// Vec is a slice of wipeable values. Zeroize wipes every element up to the
// slice capacity, so elements dropped by a reslice are wiped too.
type Vec[T Zeroizer] []T

func (v Vec[T]) Zeroize() {
	full := v[:cap(v)]
	for i := range full {
		full[i].Zeroize()
	}
	clear(full)
}

// Map is a map of wipeable values. Keys are not considered secret; Zeroize
// wipes every value and then empties the map.
type Map[K comparable, V Zeroizer] map[K]V

func (m Map[K, V]) Zeroize() {
	for _, v := range m {
		v.Zeroize()
	}
	clear(m)
}

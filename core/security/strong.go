// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !masking_nozeroize

package security

import (
	"fmt"
	"io"
	"log/slog"
)

// StrongSecret holds a wipeable value of type T and renders it through the
// masking strategy S. Release overwrites T's backing memory.
//
// A StrongSecret is a handle: copies refer to the same value, and releasing
// through any copy wipes it for all of them. The zero value holds nothing and
// reports Released() == true.
//
// Release is not automatic. Either defer Release right after construction or
// use WithSecret.
type StrongSecret[T Zeroizer, S Strategy[T]] struct {
	cell *cell[T]
}

type cell[T Zeroizer] struct {
	value    T
	released bool
}

// NewStrong wraps value with the Redact strategy and takes ownership of it:
// the caller must not use value afterwards.
func NewStrong[T Zeroizer](value T) StrongSecret[T, Redact[T]] {
	return StrongSecret[T, Redact[T]]{cell: &cell[T]{value: value}}
}

// NewStrongWith wraps value with an explicit strategy and takes ownership of
// it.
func NewStrongWith[S Strategy[T], T Zeroizer](value T) StrongSecret[T, S] {
	return StrongSecret[T, S]{cell: &cell[T]{value: value}}
}

// CloneStrong deep copies the wrapped value into a new, independently
// released secret. It only compiles for T that can clone themselves.
func CloneStrong[T interface {
	Zeroizer
	Clone() T
}, S Strategy[T]](s StrongSecret[T, S]) StrongSecret[T, S] {
	if s.Released() {
		return StrongSecret[T, S]{}
	}
	return StrongSecret[T, S]{cell: &cell[T]{value: s.cell.value.Clone()}}
}

// Expose returns the raw value, or the zero value after Release. Slices and
// maps in the result alias the wrapped storage and are wiped by Release.
func (s StrongSecret[T, S]) Expose() T {
	if s.Released() {
		var zero T
		return zero
	}
	return s.cell.value
}

// Use calls fn with the raw value and returns fn's error.
func (s StrongSecret[T, S]) Use(fn func(T) error) error { return fn(s.Expose()) }

// Release wipes the value and marks the secret released. It is idempotent
// and completes before returning.
func (s StrongSecret[T, S]) Release() {
	if s.Released() {
		return
	}
	s.cell.value.Zeroize()
	var zero T
	s.cell.value = zero
	s.cell.released = true
}

// Zeroize implements Zeroizer so secrets can be nested in Vec, Map or in
// other StrongSecrets.
func (s StrongSecret[T, S]) Zeroize() { s.Release() }

// Released reports whether the secret no longer holds a value.
func (s StrongSecret[T, S]) Released() bool {
	return s.cell == nil || s.cell.released
}

// MaskedString renders the value through S.
func (s StrongSecret[T, S]) MaskedString() string { return mask[T, S](s.Expose()) }

func (s StrongSecret[T, S]) String() string   { return s.MaskedString() }
func (s StrongSecret[T, S]) GoString() string { return s.MaskedString() }

func (s StrongSecret[T, S]) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, s.MaskedString())
}

func (s StrongSecret[T, S]) LogValue() slog.Value { return slog.StringValue(s.MaskedString()) }

// replace releases the current value and stores v in a fresh cell.
func (s *StrongSecret[T, S]) replace(v T) {
	s.Release()
	s.cell = &cell[T]{value: v}
}

func (s StrongSecret[T, S]) exposeForSerialization() (any, bool) {
	if gateOf[T, S]() == GateSealed || s.Released() {
		return nil, false
	}
	return s.cell.value, true
}

// EqualStrong compares two byte secrets in constant time. Released secrets
// never compare equal.
func EqualStrong[T interface {
	~[]byte
	Zeroizer
}, S1 Strategy[T], S2 Strategy[T]](a StrongSecret[T, S1], b StrongSecret[T, S2]) bool {
	if a.Released() || b.Released() {
		return false
	}
	return ConstantTimeEqual(a.cell.value, b.cell.value)
}

// WithSecret wraps value, hands the secret to fn and releases it when fn
// returns, fails or panics. The wipe finishes before WithSecret returns or
// the panic continues.
//
//	err := security.WithSecret[security.Redact[security.Bytes]](key, func(k security.StrongSecret[security.Bytes, security.Redact[security.Bytes]]) error {
//		return sign(k.Expose())
//	})
func WithSecret[S Strategy[T], T Zeroizer](value T, fn func(StrongSecret[T, S]) error) error {
	s := NewStrongWith[S](value)
	defer s.Release()
	return fn(s)
}

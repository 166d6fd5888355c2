// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
)

// Secret holds a sensitive value of type T and renders it through the masking
// strategy S. It gives NO wipe guarantee: the memory behind T is left to the
// garbage collector. Use StrongSecret when T can and must be overwritten.
//
// Secret is a value type. Assigning it copies T, which is harmless for
// immutable T such as string; for reference types the copies share storage.
//
// Every formatting hook the Go runtime knows about (fmt verbs, Stringer,
// GoStringer, slog.LogValuer, encoding.TextMarshaler, json.Marshaler) returns
// the masked rendering. Note that fmt cannot call methods on values reached
// through unexported struct fields: keep Secret fields exported or give the
// enclosing type its own String method.
type Secret[T any, S Strategy[T]] struct {
	value T
}

// New wraps value with the Redact strategy.
func New[T any](value T) Secret[T, Redact[T]] {
	return Secret[T, Redact[T]]{value: value}
}

// NewWith wraps value with an explicit strategy:
//
//	pan := security.NewWith[security.CardNumber[string]]("4111111111111111")
func NewWith[S Strategy[T], T any](value T) Secret[T, S] {
	return Secret[T, S]{value: value}
}

// SwitchStrategy re-tags s with the strategy S2 without touching the value.
func SwitchStrategy[S2 Strategy[T], T any, S Strategy[T]](s Secret[T, S]) Secret[T, S2] {
	return Secret[T, S2]{value: s.value}
}

// Cloner is implemented by raw types that can be deep copied.
type Cloner[T any] interface {
	Clone() T
}

// Clone deep copies the wrapped value. It only compiles for T that implement
// Cloner; there is no implicit duplication of secret material.
func Clone[T Cloner[T], S Strategy[T]](s Secret[T, S]) Secret[T, S] {
	return Secret[T, S]{value: s.value.Clone()}
}

// Expose returns the raw value. This is the only way to read it: pass the
// result straight to the collaborator that needs it and do not keep it.
func (s Secret[T, S]) Expose() T { return s.value }

// Use calls fn with the raw value and returns fn's error. Prefer it over
// Expose when the raw value should not outlive a single call.
func (s Secret[T, S]) Use(fn func(T) error) error { return fn(s.value) }

// MaskedString renders the value through S.
func (s Secret[T, S]) MaskedString() string { return mask[T, S](s.value) }

// IsZero reports whether the wrapped value is the zero value of T.
func (s Secret[T, S]) IsZero() bool {
	return reflect.ValueOf(&s.value).Elem().IsZero()
}

// String implements fmt.Stringer with the masked rendering.
func (s Secret[T, S]) String() string { return s.MaskedString() }

// GoString implements fmt.GoStringer so %#v is masked too.
func (s Secret[T, S]) GoString() string { return s.MaskedString() }

// Format implements fmt.Formatter; every verb prints the masked rendering.
func (s Secret[T, S]) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, s.MaskedString())
}

// LogValue implements slog.LogValuer.
func (s Secret[T, S]) LogValue() slog.Value { return slog.StringValue(s.MaskedString()) }

func (s Secret[T, S]) exposeForSerialization() (any, bool) {
	if gateOf[T, S]() == GateSealed {
		return nil, false
	}
	return s.value, true
}

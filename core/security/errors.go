// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnsupportedType is wrapped when a value cannot be mapped to or from T.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrNull is wrapped when a NULL column is scanned into a non-nilable T.
	ErrNull = errors.New("null value")
	// ErrMalformed is wrapped when textual input does not parse as T.
	ErrMalformed = errors.New("malformed value")
	// ErrReleased is wrapped when a released StrongSecret is written out.
	ErrReleased = errors.New("secret released")
)

// DeserializationError reports structured input that cannot be decoded into
// the wrapped type. The message names types only, never input bytes.
type DeserializationError struct {
	Type string
	Err  error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("security: cannot decode secret into %s", e.Type)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// ConversionError reports a value that cannot be converted between T and a
// database column representation.
type ConversionError struct {
	From string
	To   string
	Err  error
}

func (e *ConversionError) Error() string {
	if e.Err != nil && (errors.Is(e.Err, ErrNull) || errors.Is(e.Err, ErrReleased)) {
		return fmt.Sprintf("security: cannot convert %s to %s: %s", e.From, e.To, e.Err)
	}
	return fmt.Sprintf("security: cannot convert %s to %s", e.From, e.To)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

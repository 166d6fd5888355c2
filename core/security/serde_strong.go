// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !masking_noserde && !masking_nozeroize

package security

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errNotJSONString = errors.New("expected a JSON string")

func (s StrongSecret[T, S]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.MaskedString())
}

// UnmarshalJSON decodes data into a fresh T, releasing whatever the secret
// held before. JSON null leaves the secret unchanged.
func (s *StrongSecret[T, S]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		v.Zeroize()
		return &DeserializationError{Type: typeName[T](), Err: err}
	}
	s.replace(v)
	return nil
}

func (s StrongSecret[T, S]) MarshalText() ([]byte, error) {
	return []byte(s.MaskedString()), nil
}

func (s *StrongSecret[T, S]) UnmarshalText(text []byte) error {
	v, err := decodeText[T](text)
	if err != nil {
		v.Zeroize()
		return &DeserializationError{Type: typeName[T](), Err: err}
	}
	s.replace(v)
	return nil
}

func (s StrongSecret[T, S]) MarshalYAML() (any, error) {
	return s.MaskedString(), nil
}

// MarshalJSON emits b as a JSON string. Bytes is raw material: only wrapped
// in a StrongSecret does it get masked.
func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(b))
}

// UnmarshalJSON accepts a JSON string. Unescaped strings are copied straight
// from the input; strings with escapes go through an intermediate Go string
// that cannot be wiped.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errNotJSONString
	}
	body := data[1 : len(data)-1]
	if bytes.IndexByte(body, '\\') < 0 {
		*b = Bytes(bytes.Clone(body))
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*b = Bytes(str)
	return nil
}

// UnmarshalText copies text.
func (b *Bytes) UnmarshalText(text []byte) error {
	*b = Bytes(bytes.Clone(text))
	return nil
}

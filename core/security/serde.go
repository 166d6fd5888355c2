// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !masking_noserde

package security

import (
	"bytes"
	"encoding"
	"encoding/json"
	"reflect"
	"strconv"
)

var jsonNull = []byte("null")

// MarshalJSON emits the masked rendering as a JSON string. Use
// MarshalExposed to emit the raw value.
func (s Secret[T, S]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.MaskedString())
}

// UnmarshalJSON decodes data into T. JSON null leaves the secret unchanged,
// following the encoding/json convention.
func (s *Secret[T, S]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return &DeserializationError{Type: typeName[T](), Err: err}
	}
	s.value = v
	return nil
}

// MarshalText emits the masked rendering.
func (s Secret[T, S]) MarshalText() ([]byte, error) {
	return []byte(s.MaskedString()), nil
}

// UnmarshalText decodes text into T. This is the hook configuration decoders
// (viper/mapstructure, YAML) use to wrap values as they are read.
func (s *Secret[T, S]) UnmarshalText(text []byte) error {
	v, err := decodeText[T](text)
	if err != nil {
		return &DeserializationError{Type: typeName[T](), Err: err}
	}
	s.value = v
	return nil
}

// MarshalYAML emits the masked rendering. It satisfies both gopkg.in/yaml.v3
// and github.com/goccy/go-yaml.
func (s Secret[T, S]) MarshalYAML() (any, error) {
	return s.MaskedString(), nil
}

// decodeText maps textual input onto T without going through an
// intermediate representation that quotes the input in error messages.
func decodeText[T any](text []byte) (T, error) {
	var v T
	if tu, ok := any(&v).(encoding.TextUnmarshaler); ok {
		err := tu.UnmarshalText(text)
		return v, err
	}
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(string(text))
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return v, ErrUnsupportedType
		}
		rv.SetBytes(bytes.Clone(text))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(string(text), 10, rv.Type().Bits())
		if err != nil {
			return v, ErrMalformed
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(string(text), 10, rv.Type().Bits())
		if err != nil {
			return v, ErrMalformed
		}
		rv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(string(text), rv.Type().Bits())
		if err != nil {
			return v, ErrMalformed
		}
		rv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(string(text))
		if err != nil {
			return v, ErrMalformed
		}
		rv.SetBool(b)
	default:
		return v, ErrUnsupportedType
	}
	return v, nil
}

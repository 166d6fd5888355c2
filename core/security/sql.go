// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !masking_nosql

package security

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var timeType = reflect.TypeFor[time.Time]()

// Value implements driver.Valuer and hands the raw value to the database
// driver. This is the persistence path; it is independent of the masked
// JSON/text/YAML hooks.
func (s Secret[T, S]) Value() (driver.Value, error) {
	return encodeColumn(s.value)
}

// Scan implements sql.Scanner. A column that cannot be represented as T is
// reported as a *ConversionError and leaves s unchanged.
func (s *Secret[T, S]) Scan(src any) error {
	v, err := decodeColumn[T](src)
	if err != nil {
		return err
	}
	s.value = v
	return nil
}

func encodeColumn[T any](v T) (driver.Value, error) {
	out, err := driver.DefaultParameterConverter.ConvertValue(v)
	if err != nil {
		return nil, &ConversionError{From: typeName[T](), To: "driver.Value", Err: ErrUnsupportedType}
	}
	return out, nil
}

// decodeColumn converts a driver value into T. Driver buffers are always
// copied since drivers may reuse them after Scan returns.
func decodeColumn[T any](src any) (T, error) {
	var v T
	if sc, ok := any(&v).(sql.Scanner); ok {
		if err := sc.Scan(src); err != nil {
			return v, &ConversionError{From: sourceName(src), To: typeName[T](), Err: err}
		}
		return v, nil
	}

	rv := reflect.ValueOf(&v).Elem()
	if src == nil {
		switch rv.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			return v, nil
		}
		return v, &ConversionError{From: "NULL", To: typeName[T](), Err: ErrNull}
	}

	if err := assignColumn(rv, src); err != nil {
		var zero T
		return zero, &ConversionError{From: sourceName(src), To: typeName[T](), Err: err}
	}
	return v, nil
}

// assignColumn stores a non-NULL driver value into rv. Pointer targets get a
// fresh element which is filled the same way.
func assignColumn(rv reflect.Value, src any) error {
	if rv.Kind() == reflect.Pointer {
		elem := reflect.New(rv.Type().Elem())
		if sc, ok := elem.Interface().(sql.Scanner); ok {
			if err := sc.Scan(src); err != nil {
				return err
			}
		} else if err := assignColumn(elem.Elem(), src); err != nil {
			return err
		}
		rv.Set(elem)
		return nil
	}

	switch s := src.(type) {
	case string:
		return assignText(rv, []byte(s))
	case []byte:
		return assignText(rv, s)
	case int64:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if rv.OverflowInt(s) {
				return ErrUnsupportedType
			}
			rv.SetInt(s)
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if s < 0 || rv.OverflowUint(uint64(s)) {
				return ErrUnsupportedType
			}
			rv.SetUint(uint64(s))
			return nil
		case reflect.Bool:
			if s != 0 && s != 1 {
				return ErrUnsupportedType
			}
			rv.SetBool(s == 1)
			return nil
		}
	case float64:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			if rv.OverflowFloat(s) {
				return ErrUnsupportedType
			}
			rv.SetFloat(s)
			return nil
		}
	case bool:
		if rv.Kind() == reflect.Bool {
			rv.SetBool(s)
			return nil
		}
	case time.Time:
		if rv.Type() == timeType {
			rv.Set(reflect.ValueOf(s))
			return nil
		}
	}

	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(rv.Type()) {
		rv.Set(sv)
		return nil
	}
	return ErrUnsupportedType
}

// assignText handles string and []byte sources. Several drivers (MySQL in
// particular) return numeric columns as text.
func assignText(rv reflect.Value, text []byte) error {
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(string(text))
		return nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return ErrUnsupportedType
		}
		rv.SetBytes(bytes.Clone(text))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(string(text), 10, rv.Type().Bits())
		if err != nil {
			return ErrMalformed
		}
		rv.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(string(text), 10, rv.Type().Bits())
		if err != nil {
			return ErrMalformed
		}
		rv.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(string(text), rv.Type().Bits())
		if err != nil {
			return ErrMalformed
		}
		rv.SetFloat(f)
		return nil
	case reflect.Bool:
		b, err := strconv.ParseBool(string(text))
		if err != nil {
			return ErrMalformed
		}
		rv.SetBool(b)
		return nil
	}
	return ErrUnsupportedType
}

func sourceName(src any) string {
	if src == nil {
		return "NULL"
	}
	return fmt.Sprintf("%T", src)
}

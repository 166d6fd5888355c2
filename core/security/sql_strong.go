// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !masking_nosql && !masking_nozeroize

package security

import "database/sql/driver"

// Value implements driver.Valuer. An empty (zero) secret is written as NULL;
// a released one is refused so a wiped secret is never persisted as empty.
func (s StrongSecret[T, S]) Value() (driver.Value, error) {
	if s.cell == nil {
		return nil, nil
	}
	if s.cell.released {
		return nil, &ConversionError{From: typeName[T](), To: "driver.Value", Err: ErrReleased}
	}
	return encodeColumn(s.cell.value)
}

// Scan implements sql.Scanner. The previous value, if any, is released first.
// NULL resets s to the zero StrongSecret, the value Value writes as NULL.
func (s *StrongSecret[T, S]) Scan(src any) error {
	if src == nil {
		s.Release()
		s.cell = nil
		return nil
	}
	v, err := decodeColumn[T](src)
	if err != nil {
		v.Zeroize()
		return err
	}
	s.replace(v)
	return nil
}

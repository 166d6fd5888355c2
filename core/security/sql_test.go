// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !masking_nosql

package security

import (
	"bytes"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"
)

func roundTrip[T any](t *testing.T, in T) T {
	t.Helper()
	v, err := New(in).Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	var out Secret[T, Redact[T]]
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	return out.Expose()
}

func TestSQLRoundTrip(t *testing.T) {
	if got := roundTrip(t, "sk_live_1"); got != "sk_live_1" {
		t.Fatalf("string round trip: %q", got)
	}
	if got := roundTrip(t, []byte("raw-bytes")); !bytes.Equal(got, []byte("raw-bytes")) {
		t.Fatalf("bytes round trip: %q", got)
	}
	if got := roundTrip(t, 4242); got != 4242 {
		t.Fatalf("int round trip: %d", got)
	}
	if got := roundTrip(t, 3.25); got != 3.25 {
		t.Fatalf("float round trip: %v", got)
	}
	if got := roundTrip(t, true); !got {
		t.Fatalf("bool round trip: %v", got)
	}
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := roundTrip(t, ts); !got.Equal(ts) {
		t.Fatalf("time round trip: %v", got)
	}
	ns := sql.NullString{String: "acct_1", Valid: true}
	if got := roundTrip(t, ns); got != ns {
		t.Fatalf("NullString round trip: %+v", got)
	}

	key := "sk_live_1"
	if got := roundTrip(t, &key); got == nil || *got != key {
		t.Fatalf("*string round trip: %v", got)
	}
	if got := roundTrip(t, &key); got == &key {
		t.Fatalf("*string round trip should allocate a new element")
	}
	n := int64(-77)
	if got := roundTrip(t, &n); got == nil || *got != n {
		t.Fatalf("*int64 round trip: %v", got)
	}
	if got := roundTrip(t, (*string)(nil)); got != nil {
		t.Fatalf("nil *string round trip: %v", *got)
	}
	if got := roundTrip(t, &ns); got == nil || *got != ns {
		t.Fatalf("*NullString round trip: %+v", got)
	}
}

// TestSQLScanPointerErrors checks pointer targets report the element's
// conversion failure.
func TestSQLScanPointerErrors(t *testing.T) {
	var p Secret[*int64, Redact[*int64]]
	err := p.Scan("not-a-number")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if p.Expose() != nil {
		t.Fatalf("failed Scan should leave the secret unchanged")
	}
}

// TestSQLScanTextNumerics covers drivers that return numbers as text.
func TestSQLScanTextNumerics(t *testing.T) {
	var n Secret[int64, Redact[int64]]
	if err := n.Scan([]byte("42")); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if n.Expose() != 42 {
		t.Fatalf("unexpected value: %d", n.Expose())
	}
	var f Secret[float64, Redact[float64]]
	if err := f.Scan("1.5"); err != nil || f.Expose() != 1.5 {
		t.Fatalf("float text scan: %v %v", f.Expose(), err)
	}

	err := n.Scan([]byte("4x2"))
	var ce *ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if strings.Contains(err.Error(), "4x2") {
		t.Fatalf("error leaked the value: %v", err)
	}
	if n.Expose() != 42 {
		t.Fatalf("failed Scan should leave the secret unchanged")
	}
}

func TestSQLScanNull(t *testing.T) {
	var s Secret[string, Redact[string]]
	if err := s.Scan(nil); !errors.Is(err, ErrNull) {
		t.Fatalf("expected ErrNull, got %v", err)
	}
	b := New([]byte("x"))
	if err := b.Scan(nil); err != nil {
		t.Fatalf("NULL into []byte failed: %v", err)
	}
	if b.Expose() != nil {
		t.Fatalf("expected nil after NULL scan")
	}
	var ns Secret[sql.NullString, Redact[sql.NullString]]
	if err := ns.Scan(nil); err != nil || ns.Expose().Valid {
		t.Fatalf("NULL into NullString: %+v %v", ns.Expose(), err)
	}
}

func TestSQLUnsupported(t *testing.T) {
	if _, err := New(map[string]int{"a": 1}).Value(); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType from Value, got %v", err)
	}
	var s Secret[struct{}, Redact[struct{}]]
	if err := s.Scan(int64(1)); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType from Scan, got %v", err)
	}
	var small Secret[int8, Redact[int8]]
	if err := small.Scan(int64(1 << 20)); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected overflow to fail, got %v", err)
	}
}

func TestSQLScanCopiesBuffer(t *testing.T) {
	buf := []byte("sk_live_1")
	var s Secret[[]byte, Redact[[]byte]]
	if err := s.Scan(buf); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	buf[0] = 'X'
	if string(s.Expose()) != "sk_live_1" {
		t.Fatalf("Scan aliased the driver buffer: %q", s.Expose())
	}
}

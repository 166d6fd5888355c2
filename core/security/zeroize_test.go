// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !masking_nozeroize

package security

import (
	"errors"
	"testing"
)

func assertWiped(t *testing.T, b []byte) {
	t.Helper()
	for i, c := range b[:cap(b)] {
		if c != 0 {
			t.Fatalf("byte %d not wiped: %#x", i, c)
		}
	}
}

// TestReleaseWipesFullCapacity checks bytes past len are wiped too.
func TestReleaseWipesFullCapacity(t *testing.T) {
	backing := make(Bytes, 16)
	copy(backing, "stale-key-bytes!")
	s := NewStrong(backing[:4])
	if string(s.Expose()) != "stal" {
		t.Fatalf("unexpected value: %q", s.Expose())
	}
	s.Release()
	assertWiped(t, backing)
	if !s.Released() {
		t.Fatalf("secret should report Released")
	}
	if s.Expose() != nil {
		t.Fatalf("Expose after Release should return the zero value")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	s := NewStrong(Bytes("whsec_abc"))
	s.Release()
	s.Release()
	s.Zeroize()
	if !s.Released() {
		t.Fatalf("secret should stay released")
	}
	if s.MaskedString() != RedactedPlaceholder {
		t.Fatalf("unexpected masked output: %q", s.MaskedString())
	}
}

func TestStrongZeroValue(t *testing.T) {
	var s StrongSecret[Bytes, Redact[Bytes]]
	if !s.Released() {
		t.Fatalf("zero value should report Released")
	}
	s.Release()
	if s.Expose() != nil {
		t.Fatalf("zero value should expose nothing")
	}
}

// TestStrongCopiesShareValue checks releasing through a copy wipes the value
// for every copy.
func TestStrongCopiesShareValue(t *testing.T) {
	raw := Bytes("whsec_shared")
	a := NewStrong(raw)
	b := a
	b.Release()
	if !a.Released() {
		t.Fatalf("copy release should be visible through the original")
	}
	assertWiped(t, raw)
}

type cardHolder struct {
	PAN  StrongSecret[Bytes, CardNumber[Bytes]]
	CVV  StrongSecret[Bytes, Sealed[Bytes]]
	Name string
}

func (c cardHolder) Zeroize() { ZeroizeAll(c.PAN, c.CVV) }

// TestNestedStructZeroize checks a composite wiped through its own Zeroize.
func TestNestedStructZeroize(t *testing.T) {
	pan := Bytes("4111111111111111")
	cvv := Bytes("123")
	holder := NewStrong(cardHolder{
		PAN:  NewStrongWith[CardNumber[Bytes]](pan),
		CVV:  NewStrongWith[Sealed[Bytes]](cvv),
		Name: "Jane Doe",
	})
	if got := holder.Expose().PAN.MaskedString(); got != "411111XXXXXX1111" {
		t.Fatalf("unexpected PAN mask: %q", got)
	}
	holder.Release()
	assertWiped(t, pan)
	assertWiped(t, cvv)
}

func TestVecZeroize(t *testing.T) {
	a, b, c := Bytes("key-a-123"), Bytes("key-b-456"), Bytes("key-c-789")
	v := Vec[StrongSecret[Bytes, Redact[Bytes]]]{NewStrong(a), NewStrong(b), NewStrong(c)}
	v = v[:1]
	v.Zeroize()
	assertWiped(t, a)
	assertWiped(t, b)
	assertWiped(t, c)
	full := v[:cap(v)]
	for i := range full {
		if full[i].cell != nil {
			t.Fatalf("element %d not cleared", i)
		}
	}
}

func TestMapZeroize(t *testing.T) {
	stripe, adyen := Bytes("sk_live_stripe"), Bytes("adyen_key_0001")
	m := Map[string, Bytes]{"stripe": stripe, "adyen": adyen}
	m.Zeroize()
	if len(m) != 0 {
		t.Fatalf("map should be empty, has %d entries", len(m))
	}
	assertWiped(t, stripe)
	assertWiped(t, adyen)
}

func TestStrongSecretNests(t *testing.T) {
	raw := Bytes("inner-token")
	outer := NewStrong(NewStrong(raw))
	outer.Release()
	assertWiped(t, raw)
}

var errSign = errors.New("signing failed")

func TestWithSecretReleasesOnError(t *testing.T) {
	raw := Bytes("hmac-key-material")
	var kept StrongSecret[Bytes, Redact[Bytes]]
	err := WithSecret[Redact[Bytes]](raw, func(s StrongSecret[Bytes, Redact[Bytes]]) error {
		kept = s
		if string(s.Expose()) != "hmac-key-material" {
			t.Fatalf("unexpected value inside WithSecret")
		}
		return errSign
	})
	if !errors.Is(err, errSign) {
		t.Fatalf("expected errSign, got %v", err)
	}
	if !kept.Released() {
		t.Fatalf("secret should be released after WithSecret")
	}
	assertWiped(t, raw)
}

func TestWithSecretReleasesOnPanic(t *testing.T) {
	raw := Bytes("hmac-key-material")
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("panic should propagate")
			}
		}()
		_ = WithSecret[Redact[Bytes]](raw, func(StrongSecret[Bytes, Redact[Bytes]]) error {
			panic("connector exploded")
		})
	}()
	assertWiped(t, raw)
}

func TestCloneStrongIsIndependent(t *testing.T) {
	orig := NewStrong(Bytes("whsec_clone"))
	dup := CloneStrong(orig)
	orig.Release()
	if dup.Released() {
		t.Fatalf("clone should not be released with the original")
	}
	if string(dup.Expose()) != "whsec_clone" {
		t.Fatalf("unexpected clone value: %q", dup.Expose())
	}
	dup.Release()

	if !CloneStrong(orig).Released() {
		t.Fatalf("cloning a released secret should yield a released secret")
	}
}

func TestCloneSecretBytes(t *testing.T) {
	orig := New(Bytes("sk_live_1"))
	dup := Clone(orig)
	orig.Expose()[0] = 'X'
	if string(dup.Expose()) != "sk_live_1" {
		t.Fatalf("clone aliases the original: %q", dup.Expose())
	}
}

func TestEqualStrong(t *testing.T) {
	a := NewStrong(Bytes("whsec_abcd"))
	b := NewStrongWith[Suffix4[Bytes]](Bytes("whsec_abcd"))
	c := NewStrong(Bytes("whsec_abce"))
	if !EqualStrong(a, b) {
		t.Fatalf("equal secrets should compare equal")
	}
	if EqualStrong(a, c) {
		t.Fatalf("different secrets should not compare equal")
	}
	b.Release()
	if EqualStrong(a, b) {
		t.Fatalf("released secret should never compare equal")
	}
}

func TestStrongFormatIsMasked(t *testing.T) {
	s := NewStrongWith[Suffix4[Bytes]](Bytes("whsec_51HabcdWXYZ"))
	if got := s.String(); got != "****WXYZ" {
		t.Fatalf("unexpected String output: %q", got)
	}
	if got := s.GoString(); got != "****WXYZ" {
		t.Fatalf("unexpected GoString output: %q", got)
	}
}

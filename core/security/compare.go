// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import "crypto/subtle"

// ConstantTimeEqual reports whether a and b hold the same bytes. For equal
// lengths the running time depends only on the length: every byte pair is
// XOR-accumulated and the result is checked once at the end.
//
// Different lengths return false immediately. Lengths of verification
// material (MACs, API keys) are treated as public; callers comparing
// variable-length values whose length is itself sensitive must pad both to a
// public fixed length first.
//
// This is the only equality routine for secret material in this module.
func ConstantTimeEqual[T Text](a, b T) bool {
	if len(a) != len(b) {
		return false
	}
	var acc byte
	for i := 0; i < len(a); i++ {
		acc |= a[i] ^ b[i]
	}
	return subtle.ConstantTimeByteEq(acc, 0) == 1
}

// Equal compares two secrets in constant time. The strategies may differ.
func Equal[T Text, S1 Strategy[T], S2 Strategy[T]](a Secret[T, S1], b Secret[T, S2]) bool {
	return ConstantTimeEqual(a.value, b.value)
}

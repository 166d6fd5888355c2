// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import "strings"

// RedactedPlaceholder is the rendering of every secret whose strategy does not
// reveal anything. It does not depend on the value, its type or its length.
const RedactedPlaceholder = "*** REDACTED ***"

// Strategy maps a raw value to its masked rendering. Implementations are
// zero-size types; the wrappers always call the zero value. Mask must be
// deterministic and must not reveal more than the strategy documents.
type Strategy[T any] interface {
	Mask(value T) string
}

// Text is the set of raw types the textual strategies and the constant-time
// comparison operate on.
type Text interface {
	~string | ~[]byte
}

// Gate controls what MarshalExposed may do with a wrapper.
type Gate int

const (
	// GateMasked renders the strategy output by default and the raw value
	// under MarshalExposed.
	GateMasked Gate = iota
	// GateSealed renders the strategy output everywhere, MarshalExposed
	// included.
	GateSealed
)

// Gated is implemented by strategies that want a gate other than GateMasked.
type Gated interface {
	SerializationGate() Gate
}

func mask[T any, S Strategy[T]](value T) string {
	var s S
	return s.Mask(value)
}

func gateOf[T any, S Strategy[T]]() Gate {
	var s S
	if g, ok := any(s).(Gated); ok {
		return g.SerializationGate()
	}
	return GateMasked
}

// Redact renders RedactedPlaceholder for every value. It is the default
// strategy of New and NewStrong.
type Redact[T any] struct{}

func (Redact[T]) Mask(T) string { return RedactedPlaceholder }

// Sealed renders RedactedPlaceholder and refuses MarshalExposed. Use it for
// values that must never leave the process in structured output, such as a
// CVV.
type Sealed[T any] struct{}

func (Sealed[T]) Mask(T) string { return RedactedPlaceholder }

// SerializationGate implements Gated.
func (Sealed[T]) SerializationGate() Gate { return GateSealed }

// CardNumber reveals the first six (BIN) and last four digits of a PAN and
// replaces the rest with 'X'. The length of the number is revealed. Anything
// that is not 13 to 19 ASCII digits renders as RedactedPlaceholder.
type CardNumber[T Text] struct{}

func (CardNumber[T]) Mask(v T) string {
	n := len(v)
	if n < 13 || n > 19 {
		return RedactedPlaceholder
	}
	for i := 0; i < n; i++ {
		if v[i] < '0' || v[i] > '9' {
			return RedactedPlaceholder
		}
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		if i < 6 || i >= n-4 {
			out[i] = v[i]
		} else {
			out[i] = 'X'
		}
	}
	return string(out)
}

// Email reveals the domain of an address. The local part is replaced by a
// fixed five asterisks regardless of its length. Values without a local part
// or a domain render as RedactedPlaceholder.
type Email[T Text] struct{}

func (Email[T]) Mask(v T) string {
	at := -1
	for i := len(v) - 1; i >= 0; i-- {
		if v[i] == '@' {
			at = i
			break
		}
	}
	if at <= 0 || at == len(v)-1 {
		return RedactedPlaceholder
	}
	var b strings.Builder
	b.Grow(6 + len(v) - at - 1)
	b.WriteString("*****@")
	for i := at + 1; i < len(v); i++ {
		b.WriteByte(v[i])
	}
	return b.String()
}

// Suffix4 reveals the last four bytes behind a fixed "****" prefix, for
// identifying API keys and tokens in logs. Values shorter than eight bytes
// render as RedactedPlaceholder so at least half of the value stays hidden.
type Suffix4[T Text] struct{}

func (Suffix4[T]) Mask(v T) string {
	n := len(v)
	if n < 8 {
		return RedactedPlaceholder
	}
	out := [8]byte{'*', '*', '*', '*', v[n-4], v[n-3], v[n-2], v[n-1]}
	return string(out[:])
}

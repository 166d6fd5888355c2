// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package security wraps sensitive values (API keys, card numbers, tokens,
// PII) so they are not accidentally printed, logged, serialized or left in
// memory after use.
//
// Two wrappers exist and the difference matters:
//
//   - Secret[T, S] hides T from every formatting and encoding hook but gives
//     no wipe guarantee. Use it for strings and other values Go cannot
//     overwrite.
//   - StrongSecret[T, S] additionally overwrites the backing memory of T when
//     released. T must implement Zeroizer (Bytes, Vec, Map, or your own type).
//
// The masking policy S is part of the wrapper type: Secret[string,
// CardNumber[string]] always renders as a masked card number, Secret[string,
// Redact[string]] always renders as a constant placeholder. Use
// SwitchStrategy to re-tag a value.
//
// Raw access only happens through Expose, Use, MarshalExposed and the
// database/sql Valuer. Each of those is an egress point: call it as late as
// possible and drop the result right after.
//
// Go has no destructors. StrongSecret values must either be released
// explicitly (defer s.Release()) or created through WithSecret, which releases
// on every exit path including panics. Finalizers are never used.
//
// Build tags drop capabilities entirely instead of degrading them:
//
//	masking_nozeroize  no StrongSecret, WithSecret, Bytes, Vec or Map
//	masking_noserde    no JSON/text/YAML hooks and no MarshalExposed
//	masking_nosql      no database/sql Valuer/Scanner
//
// Code that depends on a dropped capability fails to compile.
package security

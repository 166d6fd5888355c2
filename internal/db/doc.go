// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db is the credential vault: merchant connector credentials stored
// through Bun over SQLite, PostgreSQL or MySQL.
//
// Secret fields travel through the secret wrappers' driver.Valuer and
// sql.Scanner hooks, so the raw values exist only inside the driver call and
// in the caller's Credential. Everything the package logs is limited to the
// query operation, its duration and the error; bun inlines argument values
// into the query text, so query text is never logged.
//
// Testing notes
//   - Prefer NewStoreFromDSN("sqlite", ":memory:") in tests that need real DB
//     semantics and migrations.
package db

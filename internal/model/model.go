// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the domain types shared by the vault, the
// configuration layer and the CLI.
package model

import (
	"time"

	"github.com/toeirei/masking/core/security"
)

// APIKey is a connector API key. Logs show only its last four characters.
type APIKey = security.Secret[string, security.Suffix4[string]]

// WebhookSecret is the shared signing secret a connector uses for webhooks.
// It is wiped when the credential is released.
type WebhookSecret = security.StrongSecret[security.Bytes, security.Redact[security.Bytes]]

// Credential is a merchant's set of secrets for one payment connector.
// A merchant has at most one credential per connector.
type Credential struct {
	ID            int64         `json:"id"`
	MerchantID    string        `json:"merchant_id"`
	Connector     string        `json:"connector"`
	APIKey        APIKey        `json:"api_key"`
	WebhookSecret WebhookSecret `json:"webhook_secret"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Zeroize wipes the credential's wipeable material. Holders of a Credential
// returned by the vault must call it when done.
func (c Credential) Zeroize() {
	c.WebhookSecret.Release()
}

// Credentials is a list of credentials that can be wiped as a whole.
type Credentials = security.Vec[Credential]

// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
	"github.com/toeirei/masking/core/security"
	"github.com/toeirei/masking/internal/logging"
	"github.com/toeirei/masking/internal/model"
)

const (
	rawAPIKey  = "sk_live_51HabcdWXYZ"
	rawWebhook = "whsec_0123456789abcdef"
)

func newTestStore(t *testing.T) *CredentialStore {
	t.Helper()
	s, err := NewStoreFromDSN("sqlite", security.New(":memory:"))
	if err != nil {
		t.Fatalf("NewStoreFromDSN failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newCredential(merchant, connector string) *model.Credential {
	return &model.Credential{
		MerchantID:    merchant,
		Connector:     connector,
		APIKey:        security.NewWith[security.Suffix4[string]](rawAPIKey),
		WebhookSecret: security.NewStrong(security.Bytes(rawWebhook)),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := newCredential("m_1", "stripe")
	if err := s.Put(ctx, c); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if c.ID == 0 {
		t.Fatalf("expected an assigned ID")
	}
	if c.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}

	got, err := s.Get(ctx, "m_1", "stripe")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer got.Zeroize()
	if got.ID != c.ID {
		t.Fatalf("expected ID %d, got %d", c.ID, got.ID)
	}
	if got.APIKey.Expose() != rawAPIKey {
		t.Fatalf("unexpected api key: %q", got.APIKey.Expose())
	}
	if string(got.WebhookSecret.Expose()) != rawWebhook {
		t.Fatalf("unexpected webhook secret: %q", got.WebhookSecret.Expose())
	}
}

// TestColumnsHoldRawValues checks the persistence path writes the raw value,
// not the masked rendering.
func TestColumnsHoldRawValues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, newCredential("m_1", "stripe")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var apiKey string
	var webhook []byte
	row := s.BunDB().QueryRowContext(ctx, "SELECT api_key, webhook_secret FROM merchant_credentials WHERE merchant_id = ?", "m_1")
	if err := row.Scan(&apiKey, &webhook); err != nil {
		t.Fatalf("raw select failed: %v", err)
	}
	if apiKey != rawAPIKey {
		t.Fatalf("api_key column holds %q", apiKey)
	}
	if string(webhook) != rawWebhook {
		t.Fatalf("webhook_secret column holds %q", webhook)
	}

	var count int
	if err := QueryRawInto(ctx, s.BunDB(), &count, "SELECT COUNT(*) FROM merchant_credentials WHERE api_key = ?", rawAPIKey); err != nil {
		t.Fatalf("QueryRawInto failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row, got %d", count)
	}
}

func TestLoadedCredentialRendersMasked(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, newCredential("m_1", "stripe")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get(ctx, "m_1", "stripe")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer got.Zeroize()

	out, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(out), rawAPIKey) || strings.Contains(string(out), rawWebhook) {
		t.Fatalf("JSON leaked a secret: %s", out)
	}
	if !strings.Contains(string(out), `"api_key":"****WXYZ"`) {
		t.Fatalf("unexpected JSON: %s", out)
	}
}

func TestPutDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, newCredential("m_1", "stripe")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	err := s.Put(ctx, newCredential("m_1", "stripe"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if strings.Contains(err.Error(), rawAPIKey) {
		t.Fatalf("error leaked the api key: %v", err)
	}
}

func TestPutValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, newCredential("", "stripe")); err == nil {
		t.Fatalf("expected an error for a missing merchant id")
	}

	c := newCredential("m_1", "stripe")
	c.WebhookSecret.Release()
	if err := s.Put(ctx, c); !errors.Is(err, security.ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
}

func TestPutWithoutWebhookSecret(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := newCredential("m_1", "adyen")
	c.WebhookSecret = model.WebhookSecret{}
	if err := s.Put(ctx, c); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	ok, err := s.VerifyWebhookSecret(ctx, "m_1", "adyen", nil)
	if err != nil {
		t.Fatalf("VerifyWebhookSecret failed: %v", err)
	}
	if ok {
		t.Fatalf("a credential without a webhook secret must not verify")
	}

	got, err := s.Get(ctx, "m_1", "adyen")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer got.Zeroize()
	if !got.WebhookSecret.Released() {
		t.Fatalf("NULL webhook column should load as an empty secret")
	}
	cs, err := s.List(ctx, "m_1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	defer cs.Zeroize()
	if len(cs) != 1 || !cs[0].WebhookSecret.Released() {
		t.Fatalf("List should load the NULL webhook column as an empty secret")
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "m_1", "stripe"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, p := range [][2]string{{"m_2", "stripe"}, {"m_1", "stripe"}, {"m_1", "adyen"}} {
		if err := s.Put(ctx, newCredential(p[0], p[1])); err != nil {
			t.Fatalf("Put %v failed: %v", p, err)
		}
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	defer all.Zeroize()
	if len(all) != 3 {
		t.Fatalf("expected 3 credentials, got %d", len(all))
	}
	if all[0].MerchantID != "m_1" || all[0].Connector != "adyen" {
		t.Fatalf("unexpected order: %s/%s first", all[0].MerchantID, all[0].Connector)
	}

	mine, err := s.List(ctx, "m_1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	defer mine.Zeroize()
	if len(mine) != 2 {
		t.Fatalf("expected 2 credentials for m_1, got %d", len(mine))
	}

	if err := s.Delete(ctx, "m_1", "adyen"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "m_1", "adyen"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRotateAPIKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, newCredential("m_1", "stripe")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	rotated := security.NewWith[security.Suffix4[string]]("sk_live_rotated9876")
	if err := s.RotateAPIKey(ctx, "m_1", "stripe", rotated); err != nil {
		t.Fatalf("RotateAPIKey failed: %v", err)
	}
	got, err := s.Get(ctx, "m_1", "stripe")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer got.Zeroize()
	if got.APIKey.Expose() != "sk_live_rotated9876" {
		t.Fatalf("api key not rotated: %q", got.APIKey.Expose())
	}

	if err := s.RotateAPIKey(ctx, "m_9", "stripe", rotated); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifyWebhookSecret(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, newCredential("m_1", "stripe")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"match", rawWebhook, true},
		{"last byte differs", rawWebhook[:len(rawWebhook)-1] + "0", false},
		{"prefix", rawWebhook[:8], false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.VerifyWebhookSecret(ctx, "m_1", "stripe", []byte(tt.candidate))
			if err != nil {
				t.Fatalf("VerifyWebhookSecret failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, err := s.VerifyWebhookSecret(ctx, "m_1", "adyen", []byte(rawWebhook)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestDebugLoggingOmitsValues checks the query hook never logs argument values.
func TestDebugLoggingOmitsValues(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.L
	logging.L = clog.New(&buf)
	logging.L.SetLevel(clog.DebugLevel)
	SetDebug(true)
	t.Cleanup(func() {
		logging.L = prev
		SetDebug(false)
	})

	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Put(ctx, newCredential("m_1", "stripe")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get(ctx, "m_1", "stripe")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got.Zeroize()

	out := buf.String()
	if !strings.Contains(out, "INSERT") || !strings.Contains(out, "SELECT") {
		t.Fatalf("expected query operations in debug log; got: %s", out)
	}
	if strings.Contains(out, rawAPIKey) || strings.Contains(out, rawWebhook) {
		t.Fatalf("debug log leaked a secret: %s", out)
	}
}

func TestNewStoreFromDSN_Unsupported(t *testing.T) {
	if _, err := NewStoreFromDSN("oracle", security.New("scott/tiger")); err == nil {
		t.Fatalf("expected an error for an unsupported database type")
	} else if strings.Contains(err.Error(), "tiger") {
		t.Fatalf("error leaked the dsn: %v", err)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := RunMigrations(s.BunDB().DB, "sqlite"); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}
	var n int
	if err := s.BunDB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", n)
	}
}

func TestMaintain(t *testing.T) {
	s := newTestStore(t)
	if err := s.Maintain(context.Background()); err != nil {
		t.Fatalf("Maintain failed: %v", err)
	}
}

func TestMapDBError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{errors.New("UNIQUE constraint failed: merchant_credentials.merchant_id"), ErrDuplicate},
		{errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"), ErrDuplicate},
		{errors.New("Error 1062: Duplicate entry"), ErrDuplicate},
	}
	for _, tt := range tests {
		if got := MapDBError(tt.in); !errors.Is(got, tt.want) {
			t.Fatalf("MapDBError(%v) = %v", tt.in, got)
		}
	}
	if MapDBError(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	other := errors.New("connection refused")
	if MapDBError(other) != other {
		t.Fatalf("unrelated errors should pass through")
	}
}

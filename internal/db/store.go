// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/toeirei/masking/core/security"
	"github.com/toeirei/masking/internal/model"
	"github.com/uptrace/bun"
)

// Store is the credential vault used by the CLI and by tests that inject a
// fake. Credentials returned by Get and List hold live StrongSecrets; callers
// must Zeroize them when done.
type Store interface {
	Put(ctx context.Context, c *model.Credential) error
	Get(ctx context.Context, merchantID, connector string) (model.Credential, error)
	List(ctx context.Context, merchantID string) (model.Credentials, error)
	RotateAPIKey(ctx context.Context, merchantID, connector string, key model.APIKey) error
	Delete(ctx context.Context, merchantID, connector string) error
	VerifyWebhookSecret(ctx context.Context, merchantID, connector string, candidate []byte) (bool, error)
	Maintain(ctx context.Context) error
	Close() error
}

var _ Store = (*CredentialStore)(nil)

// CredentialStore is the Bun implementation of Store.
type CredentialStore struct {
	bun    *bun.DB
	dbType string
}

// BunDB returns the underlying Bun handle.
func (s *CredentialStore) BunDB() *bun.DB { return s.bun }

// Put inserts c and sets c.ID. CreatedAt defaults to the current UTC time.
// A second credential for the same merchant and connector is ErrDuplicate.
func (s *CredentialStore) Put(ctx context.Context, c *model.Credential) error {
	if c.MerchantID == "" || c.Connector == "" {
		return fmt.Errorf("merchant id and connector are required")
	}
	// A released webhook secret would otherwise be persisted as NULL.
	if _, err := c.WebhookSecret.Value(); err != nil {
		return fmt.Errorf("webhook secret: %w", err)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	id, err := AddCredentialBun(ctx, s.bun, *c)
	if err != nil {
		return err
	}
	c.ID = id
	dbLogf("db: stored credential %d for %s/%s", id, c.MerchantID, c.Connector)
	return nil
}

// Get returns the credential of merchantID for connector, or ErrNotFound.
func (s *CredentialStore) Get(ctx context.Context, merchantID, connector string) (model.Credential, error) {
	c, err := GetCredentialBun(ctx, s.bun, merchantID, connector)
	if err != nil {
		return model.Credential{}, err
	}
	if c == nil {
		return model.Credential{}, ErrNotFound
	}
	return *c, nil
}

// List returns the credentials of merchantID; an empty merchantID lists all.
func (s *CredentialStore) List(ctx context.Context, merchantID string) (model.Credentials, error) {
	cs, err := ListCredentialsBun(ctx, s.bun, merchantID)
	if err != nil {
		return nil, err
	}
	return model.Credentials(cs), nil
}

// RotateAPIKey replaces the API key of an existing credential.
func (s *CredentialStore) RotateAPIKey(ctx context.Context, merchantID, connector string, key model.APIKey) error {
	n, err := UpdateAPIKeyBun(ctx, s.bun, merchantID, connector, key)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// MySQL reports changed rather than matched rows.
	c, err := s.Get(ctx, merchantID, connector)
	if err != nil {
		return err
	}
	c.Zeroize()
	return nil
}

// Delete removes the credential of merchantID for connector, or returns
// ErrNotFound.
func (s *CredentialStore) Delete(ctx context.Context, merchantID, connector string) error {
	n, err := DeleteCredentialBun(ctx, s.bun, merchantID, connector)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// VerifyWebhookSecret reports whether candidate matches the stored webhook
// secret, comparing in constant time. The loaded secret is wiped before
// returning. A credential without a webhook secret never verifies.
func (s *CredentialStore) VerifyWebhookSecret(ctx context.Context, merchantID, connector string, candidate []byte) (bool, error) {
	c, err := s.Get(ctx, merchantID, connector)
	if err != nil {
		return false, err
	}
	defer c.Zeroize()

	stored := c.WebhookSecret.Expose()
	if len(stored) == 0 {
		return false, nil
	}
	return security.ConstantTimeEqual([]byte(stored), candidate), nil
}

// Close closes the underlying database.
func (s *CredentialStore) Close() error {
	return s.bun.Close()
}

// Maintain runs engine-specific housekeeping: PRAGMA optimize, VACUUM and an
// integrity check on SQLite, VACUUM ANALYZE on PostgreSQL, OPTIMIZE TABLE on
// MySQL.
func (s *CredentialStore) Maintain(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	switch s.dbType {
	case "sqlite":
		// PRAGMA optimize may be unsupported in some environments; treat its
		// errors as non-fatal.
		if _, err := ExecRaw(ctx, s.bun, "PRAGMA optimize"); err != nil {
			dbLogf("db: sqlite optimize failed (ignored): %v", err)
		}
		if _, err := ExecRaw(ctx, s.bun, "VACUUM"); err != nil {
			return fmt.Errorf("sqlite vacuum failed: %w", err)
		}
		var res string
		if err := QueryRawInto(ctx, s.bun, &res, "PRAGMA integrity_check"); err != nil {
			return fmt.Errorf("sqlite integrity_check failed: %w", err)
		}
		if res != "ok" {
			return fmt.Errorf("sqlite integrity_check failed: %s", res)
		}
	case "postgres":
		if _, err := ExecRaw(ctx, s.bun, "VACUUM ANALYZE merchant_credentials"); err != nil {
			return fmt.Errorf("postgres vacuum failed: %w", err)
		}
	case "mysql":
		if _, err := ExecRaw(ctx, s.bun, "OPTIMIZE TABLE merchant_credentials"); err != nil {
			return fmt.Errorf("mysql optimize failed: %w", err)
		}
	default:
		return fmt.Errorf("unsupported db type for maintenance: %s", s.dbType)
	}
	return nil
}

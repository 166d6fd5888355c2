// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/toeirei/masking/internal/model"
	"github.com/uptrace/bun"
)

// CredentialModel maps merchant_credentials. The secret columns use the
// wrappers' own Valuer/Scanner implementations.
type CredentialModel struct {
	bun.BaseModel `bun:"table:merchant_credentials"`
	ID            int64               `bun:"id,pk,autoincrement"`
	MerchantID    string              `bun:"merchant_id"`
	Connector     string              `bun:"connector"`
	APIKey        model.APIKey        `bun:"api_key"`
	WebhookSecret model.WebhookSecret `bun:"webhook_secret"`
	CreatedAt     time.Time           `bun:"created_at"`
}

func credentialModelToModel(m CredentialModel) model.Credential {
	return model.Credential{
		ID:            m.ID,
		MerchantID:    m.MerchantID,
		Connector:     m.Connector,
		APIKey:        m.APIKey,
		WebhookSecret: m.WebhookSecret,
		CreatedAt:     m.CreatedAt,
	}
}

func modelToCredentialModel(c model.Credential) CredentialModel {
	return CredentialModel{
		ID:            c.ID,
		MerchantID:    c.MerchantID,
		Connector:     c.Connector,
		APIKey:        c.APIKey,
		WebhookSecret: c.WebhookSecret,
		CreatedAt:     c.CreatedAt,
	}
}

// AddCredentialBun inserts c and returns the assigned ID.
func AddCredentialBun(ctx context.Context, bdb bun.IDB, c model.Credential) (int64, error) {
	m := modelToCredentialModel(c)
	if _, err := bdb.NewInsert().Model(&m).
		Column("merchant_id", "connector", "api_key", "webhook_secret", "created_at").
		Returning("id").
		Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return m.ID, nil
}

// GetCredentialBun returns the credential for merchantID and connector, or
// nil when there is none.
func GetCredentialBun(ctx context.Context, bdb bun.IDB, merchantID, connector string) (*model.Credential, error) {
	var m CredentialModel
	err := bdb.NewSelect().Model(&m).
		Where("merchant_id = ?", merchantID).
		Where("connector = ?", connector).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c := credentialModelToModel(m)
	return &c, nil
}

// ListCredentialsBun returns the credentials of merchantID, or of every
// merchant when merchantID is empty, ordered by merchant and connector.
func ListCredentialsBun(ctx context.Context, bdb bun.IDB, merchantID string) ([]model.Credential, error) {
	var ms []CredentialModel
	q := bdb.NewSelect().Model(&ms).OrderExpr("merchant_id, connector")
	if merchantID != "" {
		q = q.Where("merchant_id = ?", merchantID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Credential, 0, len(ms))
	for _, m := range ms {
		out = append(out, credentialModelToModel(m))
	}
	return out, nil
}

// UpdateAPIKeyBun replaces the API key and reports how many rows matched.
func UpdateAPIKeyBun(ctx context.Context, bdb bun.IDB, merchantID, connector string, key model.APIKey) (int64, error) {
	res, err := bdb.NewUpdate().Model((*CredentialModel)(nil)).
		Set("api_key = ?", key).
		Where("merchant_id = ?", merchantID).
		Where("connector = ?", connector).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteCredentialBun removes a credential and reports how many rows matched.
func DeleteCredentialBun(ctx context.Context, bdb bun.IDB, merchantID, connector string) (int64, error) {
	res, err := bdb.NewDelete().Model((*CredentialModel)(nil)).
		Where("merchant_id = ?", merchantID).
		Where("connector = ?", connector).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

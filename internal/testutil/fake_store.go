// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil holds test doubles shared by package tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/toeirei/masking/core/security"
	"github.com/toeirei/masking/internal/db"
	"github.com/toeirei/masking/internal/model"
)

// FakeStore is an in-memory db.Store. Stored credentials share secret
// handles with the caller: zeroizing a credential passed to Put or returned
// by Get also wipes the stored copy.
type FakeStore struct {
	mu     sync.Mutex
	nextID int64
	creds  map[[2]string]model.Credential
	closed bool

	maintenances int

	// Err, if set, is returned by every operation.
	Err error
}

var _ db.Store = (*FakeStore)(nil)

// NewFakeStore returns an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{creds: make(map[[2]string]model.Credential)}
}

func (f *FakeStore) Put(_ context.Context, c *model.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	k := [2]string{c.MerchantID, c.Connector}
	if _, ok := f.creds[k]; ok {
		return db.ErrDuplicate
	}
	f.nextID++
	c.ID = f.nextID
	f.creds[k] = *c
	return nil
}

func (f *FakeStore) Get(_ context.Context, merchantID, connector string) (model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return model.Credential{}, f.Err
	}
	c, ok := f.creds[[2]string{merchantID, connector}]
	if !ok {
		return model.Credential{}, db.ErrNotFound
	}
	return c, nil
}

func (f *FakeStore) List(_ context.Context, merchantID string) (model.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out model.Credentials
	for k, c := range f.creds {
		if merchantID == "" || k[0] == merchantID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MerchantID != out[j].MerchantID {
			return out[i].MerchantID < out[j].MerchantID
		}
		return out[i].Connector < out[j].Connector
	})
	return out, nil
}

func (f *FakeStore) RotateAPIKey(_ context.Context, merchantID, connector string, key model.APIKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	k := [2]string{merchantID, connector}
	c, ok := f.creds[k]
	if !ok {
		return db.ErrNotFound
	}
	c.APIKey = key
	f.creds[k] = c
	return nil
}

func (f *FakeStore) Delete(_ context.Context, merchantID, connector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	k := [2]string{merchantID, connector}
	if _, ok := f.creds[k]; !ok {
		return db.ErrNotFound
	}
	delete(f.creds, k)
	return nil
}

func (f *FakeStore) VerifyWebhookSecret(_ context.Context, merchantID, connector string, candidate []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	c, ok := f.creds[[2]string{merchantID, connector}]
	if !ok {
		return false, db.ErrNotFound
	}
	stored := c.WebhookSecret.Expose()
	if len(stored) == 0 {
		return false, nil
	}
	return security.ConstantTimeEqual([]byte(stored), candidate), nil
}

// Maintain counts calls; see Maintenances.
func (f *FakeStore) Maintain(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.maintenances++
	return nil
}

// Maintenances reports how many times Maintain succeeded.
func (f *FakeStore) Maintenances() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maintenances
}

func (f *FakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeStore) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

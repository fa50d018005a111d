// Package secret resolves named credentials from configured backends.
package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/sitekit/internal/db"
	"github.com/kailas-cloud/sitekit/internal/domain"
)

// Store returns the value of a named secret.
// A missing secret yields an error wrapping domain.ErrSecretNotFound.
type Store interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Static serves secrets from an in-memory map (config values).
type Static map[string]string

// GetSecret implements Store.
func (s Static) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", fmt.Errorf("secret %q: %w", name, domain.ErrSecretNotFound)
	}
	return v, nil
}

// KV serves secrets stored as plain string keys under a prefix.
type KV struct {
	store  db.KVStore
	prefix string
}

// NewKV creates a KV backend. Keys are "<prefix>secret:<name>".
func NewKV(store db.KVStore, prefix string) *KV {
	return &KV{store: store, prefix: prefix}
}

// Key returns the storage key for a secret name.
func (k *KV) Key(name string) string {
	return k.prefix + "secret:" + name
}

// GetSecret implements Store.
func (k *KV) GetSecret(ctx context.Context, name string) (string, error) {
	data, err := k.store.Get(ctx, k.Key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", fmt.Errorf("secret %q: %w", name, domain.ErrSecretNotFound)
		}
		return "", fmt.Errorf("get secret %q: %w", name, err)
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", fmt.Errorf("secret %q: %w", name, domain.ErrSecretNotFound)
	}
	return v, nil
}

// Chain tries each backend in order and returns the first hit.
// Backend errors other than not-found stop the lookup.
type Chain []Store

// GetSecret implements Store.
func (c Chain) GetSecret(ctx context.Context, name string) (string, error) {
	for _, s := range c {
		v, err := s.GetSecret(ctx, name)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, domain.ErrSecretNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("secret %q: %w", name, domain.ErrSecretNotFound)
}

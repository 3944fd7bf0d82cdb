// Package storage holds client-side state that outlives a single command:
// the auth token, per-session caches and the ephemeral review snapshot.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"formassist/internal/common/config"
)

// ErrNotFound is returned by Get for missing or expired keys.
var ErrNotFound = errors.New("storage: key not found")

// Store is a string key/value store. A zero ttl means the entry never expires.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Well-known keys.
const (
	KeyAuthToken = "auth_token"
)

// SessionRequirementsKey caches the required document types of a session.
func SessionRequirementsKey(sessionID string) string {
	return fmt.Sprintf("session_%s_reqs", sessionID)
}

// SessionFormKey caches the form type of a session.
func SessionFormKey(sessionID string) string {
	return fmt.Sprintf("session_%s_form", sessionID)
}

// SessionEntitiesKey holds the reviewed entities handed from review to final.
func SessionEntitiesKey(sessionID string) string {
	return fmt.Sprintf("session_%s_entities", sessionID)
}

// SessionUploadsKey records which document types were uploaded.
func SessionUploadsKey(sessionID string) string {
	return fmt.Sprintf("session_%s_uploaded", sessionID)
}

// GetJSON decodes the value stored at key into out.
func GetJSON(ctx context.Context, s Store, key string, out interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes value as JSON and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data), ttl)
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "redis":
		s, err := NewRedis(ctx, cfg.Redis, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		s, err := OpenFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

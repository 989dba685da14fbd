package session

import (
	"context"
	"errors"
)

// Keys used for the persisted auth session.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refresh_token"
	KeyTokenExpiry  = "token_expiry"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("session store closed")

// Store is a durable string key-value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

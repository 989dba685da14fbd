package session

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Tokens reads and writes the auth token keys of a Store.
type Tokens struct {
	store Store
	now   func() time.Time
}

// NewTokens wraps store.
func NewTokens(store Store) *Tokens {
	return &Tokens{store: store, now: time.Now}
}

// AccessToken returns the stored access token, or "" when signed out.
func (t *Tokens) AccessToken(ctx context.Context) (string, error) {
	v, _, err := t.store.Get(ctx, KeyToken)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	return v, nil
}

// RefreshToken returns the stored refresh token, or "".
func (t *Tokens) RefreshToken(ctx context.Context) (string, error) {
	v, _, err := t.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	return v, nil
}

// SetTokens stores a new token pair. An empty refresh token keeps the old
// one; a zero expiresIn clears the expiry.
func (t *Tokens) SetTokens(ctx context.Context, access, refresh string, expiresIn time.Duration) error {
	if err := t.store.Set(ctx, KeyToken, access); err != nil {
		return err
	}
	if refresh != "" {
		if err := t.store.Set(ctx, KeyRefreshToken, refresh); err != nil {
			return err
		}
	}

	if expiresIn <= 0 {
		return t.store.Delete(ctx, KeyTokenExpiry)
	}
	expiry := t.now().Add(expiresIn).UnixMilli()
	return t.store.Set(ctx, KeyTokenExpiry, strconv.FormatInt(expiry, 10))
}

// ClearTokens removes every auth key.
func (t *Tokens) ClearTokens(ctx context.Context) error {
	return t.store.Delete(ctx, KeyToken, KeyRefreshToken, KeyTokenExpiry)
}

// ExpiresAt returns the stored access token expiry, if any.
func (t *Tokens) ExpiresAt(ctx context.Context) (time.Time, bool, error) {
	v, ok, err := t.store.Get(ctx, KeyTokenExpiry)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse token expiry %q: %w", v, err)
	}
	return time.UnixMilli(ms), true, nil
}

// Expired reports whether the access token expires within skew.
// A token without a recorded expiry never expires.
func (t *Tokens) Expired(ctx context.Context, skew time.Duration) (bool, error) {
	at, ok, err := t.ExpiresAt(ctx)
	if err != nil || !ok {
		return false, err
	}
	return !t.now().Add(skew).Before(at), nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/tapsync/internal/api"
	"github.com/rickgao/tapsync/internal/store"
)

// Fallback messages shown when the error carries no user-facing text.
const (
	msgLoginFailed   = "Login failed"
	msgRefreshFailed = "Failed to refresh user data"
)

// API is the part of the REST client the service uses.
type API interface {
	Login(ctx context.Context, initData string) (*api.LoginResponse, error)
	Me(ctx context.Context) (*api.MeResponse, error)
	Refresh(ctx context.Context) error
}

// Tokens is the persisted token pair. session.Tokens implements it.
type Tokens interface {
	AccessToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, access, refresh string, expiresIn time.Duration) error
	ClearTokens(ctx context.Context) error
	Expired(ctx context.Context, skew time.Duration) (bool, error)
}

// Service owns the session lifecycle.
type Service struct {
	api    API
	tokens Tokens
	state  *store.Auth
	logger *slog.Logger

	refreshSkew time.Duration

	mu       sync.Mutex
	onLogout []func(ctx context.Context)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRefreshSkew refreshes stored tokens this long before they expire.
func WithRefreshSkew(d time.Duration) Option {
	return func(s *Service) {
		s.refreshSkew = d
	}
}

// NewService creates a session service writing to state.
func NewService(client API, tokens Tokens, state *store.Auth, opts ...Option) *Service {
	s := &Service{
		api:         client,
		tokens:      tokens,
		state:       state,
		logger:      slog.Default(),
		refreshSkew: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "auth")
	return s
}

// OnLogout registers fn to run after every logout.
func (s *Service) OnLogout(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Login exchanges init-data for a session. On failure the stored session is
// cleared and the error message recorded in the auth state.
func (s *Service) Login(ctx context.Context, initData string) error {
	d, err := ParseInitData(initData)
	if err != nil {
		s.state.SetError(err.Error())
		return err
	}

	s.state.SetLoading(true)

	resp, err := s.api.Login(ctx, d.Raw)
	if err != nil {
		s.clearSession(ctx)
		s.state.SetError(userMessage(err, msgLoginFailed))
		return err
	}

	expiresIn := time.Duration(resp.ExpiresIn) * time.Second
	if err := s.tokens.SetTokens(ctx, resp.Token, resp.RefreshToken, expiresIn); err != nil {
		s.state.SetLoading(false)
		return fmt.Errorf("store tokens: %w", err)
	}
	s.state.SetSession(resp.User, resp.Token)

	attrs := []any{"user_id", resp.User.ID}
	if d.User != nil {
		attrs = append(attrs, "telegram_id", d.User.ID)
	}
	s.logger.Info("logged in", attrs...)
	return nil
}

// Logout clears the stored tokens and the auth state. It never fails on a
// missing session, so the socket can call it on any rejection.
func (s *Service) Logout(ctx context.Context) error {
	err := s.tokens.ClearTokens(ctx)
	s.state.Clear()

	s.mu.Lock()
	hooks := append([]func(context.Context){}, s.onLogout...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}

	s.logger.Info("logged out")
	if err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// RefreshUser reloads the user profile. A rejected session is cleared; other
// failures only record the error.
func (s *Service) RefreshUser(ctx context.Context) error {
	s.state.SetLoading(true)

	resp, err := s.api.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrAuthExpired) || errors.Is(err, api.ErrForbidden) {
			s.clearSession(ctx)
		}
		s.state.SetError(userMessage(err, msgRefreshFailed))
		return err
	}

	s.state.SetUser(resp.User)
	s.state.SetLoading(false)
	return nil
}

// Restore resumes a stored session: the token is refreshed if it is about to
// expire, then the user is reloaded. It returns false when there is no
// stored session.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	expired, err := s.tokens.Expired(ctx, s.refreshSkew)
	if err != nil {
		s.logger.Warn("unreadable token expiry", "error", err)
	}
	if expired {
		if err := s.api.Refresh(ctx); err != nil {
			s.clearSession(ctx)
			s.state.SetError(userMessage(err, msgRefreshFailed))
			return false, fmt.Errorf("refresh session: %w", err)
		}
		if token, err = s.tokens.AccessToken(ctx); err != nil {
			return false, err
		}
	}

	s.state.SetToken(token)
	if err := s.RefreshUser(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) clearSession(ctx context.Context) {
	if err := s.tokens.ClearTokens(ctx); err != nil {
		s.logger.Error("failed to clear tokens", "error", err)
	}
	s.state.Clear()
}

// userMessage prefers the normalized API message.
func userMessage(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

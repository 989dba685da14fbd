package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rickgao/tapsync/internal/api"
	"github.com/rickgao/tapsync/internal/session"
	"github.com/rickgao/tapsync/internal/store"
)

const testInitData = "query_id=q1&auth_date=1700000000&hash=ff"

// fakeAPI returns canned responses.
type fakeAPI struct {
	login      *api.LoginResponse
	loginErr   error
	me         *api.MeResponse
	meErr      error
	refreshErr error

	loginCalls   int
	refreshCalls int
	gotInitData  string

	// onRefresh runs in place of a successful refresh.
	onRefresh func(ctx context.Context) error
}

func (f *fakeAPI) Login(_ context.Context, initData string) (*api.LoginResponse, error) {
	f.loginCalls++
	f.gotInitData = initData
	return f.login, f.loginErr
}

func (f *fakeAPI) Me(context.Context) (*api.MeResponse, error) {
	return f.me, f.meErr
}

func (f *fakeAPI) Refresh(ctx context.Context) error {
	f.refreshCalls++
	if f.refreshErr != nil {
		return f.refreshErr
	}
	if f.onRefresh != nil {
		return f.onRefresh(ctx)
	}
	return nil
}

func newTestService(fa *fakeAPI) (*Service, *session.Tokens, *store.Auth) {
	tokens := session.NewTokens(session.NewMemoryStore())
	state := store.NewAuth("")
	return NewService(fa, tokens, state), tokens, state
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	fa := &fakeAPI{login: &api.LoginResponse{
		User:         store.User{ID: "u1", Username: "wolf"},
		Token:        "access",
		RefreshToken: "refresh",
		ExpiresIn:    3600,
	}}
	svc, tokens, state := newTestService(fa)

	if err := svc.Login(ctx, testInitData); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if fa.gotInitData != testInitData {
		t.Errorf("init data sent = %q", fa.gotInitData)
	}
	s := state.Snapshot()
	if s.User == nil || s.User.ID != "u1" || s.Token != "access" || s.IsLoading || s.Error != "" {
		t.Errorf("state = %+v", s)
	}
	if tok, _ := tokens.AccessToken(ctx); tok != "access" {
		t.Errorf("stored token = %q", tok)
	}
	if rt, _ := tokens.RefreshToken(ctx); rt != "refresh" {
		t.Errorf("stored refresh token = %q", rt)
	}
}

func TestLogin_Failure(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"api error", fmt.Errorf("login: %w", &api.APIError{Code: api.CodeForbidden, StatusCode: 403, Message: "You do not have permission to perform this action."}), "You do not have permission to perform this action."},
		{"other error", errors.New("boom"), "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tokens, state := newTestService(&fakeAPI{loginErr: tt.err})
			tokens.SetTokens(ctx, "stale", "stale-refresh", time.Hour)

			if err := svc.Login(ctx, testInitData); !errors.Is(err, tt.err) {
				t.Fatalf("Login err = %v, want %v", err, tt.err)
			}

			s := state.Snapshot()
			if s.User != nil || s.Token != "" || s.IsLoading {
				t.Errorf("state = %+v, want cleared", s)
			}
			if s.Error != tt.wantMsg {
				t.Errorf("Error = %q, want %q", s.Error, tt.wantMsg)
			}
			if tok, _ := tokens.AccessToken(ctx); tok != "" {
				t.Errorf("stored token = %q, want cleared", tok)
			}
		})
	}
}

func TestLogin_InvalidInitData(t *testing.T) {
	fa := &fakeAPI{}
	svc, _, state := newTestService(fa)

	if err := svc.Login(context.Background(), "user=x"); !errors.Is(err, ErrInvalidInitData) {
		t.Fatalf("err = %v, want ErrInvalidInitData", err)
	}
	if fa.loginCalls != 0 {
		t.Error("invalid init data should not reach the server")
	}
	if state.Snapshot().Error == "" {
		t.Error("Error not recorded")
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, tokens, state := newTestService(&fakeAPI{})
	tokens.SetTokens(ctx, "a", "r", time.Hour)
	state.SetSession(store.User{ID: "u1"}, "a")

	var hooked int
	svc.OnLogout(func(context.Context) { hooked++ })

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if state.Snapshot().Authenticated() {
		t.Error("still authenticated after Logout")
	}
	if tok, _ := tokens.AccessToken(ctx); tok != "" {
		t.Errorf("stored token = %q", tok)
	}
	if hooked != 1 {
		t.Errorf("logout hook ran %d times, want 1", hooked)
	}

	// Logging out twice is harmless.
	if err := svc.Logout(ctx); err != nil {
		t.Errorf("second Logout: %v", err)
	}
}

func TestRefreshUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, _, state := newTestService(&fakeAPI{me: &api.MeResponse{User: store.User{ID: "u1", Level: 4}}})
		state.SetToken("a")

		if err := svc.RefreshUser(ctx); err != nil {
			t.Fatalf("RefreshUser: %v", err)
		}
		s := state.Snapshot()
		if s.User == nil || s.User.Level != 4 || s.IsLoading || s.Token != "a" {
			t.Errorf("state = %+v", s)
		}
	})

	t.Run("expired session clears", func(t *testing.T) {
		expired := &api.APIError{Code: api.CodeAuthExpired, StatusCode: 401, Message: "Session expired. Please login again."}
		svc, tokens, state := newTestService(&fakeAPI{meErr: expired})
		tokens.SetTokens(ctx, "a", "r", time.Hour)
		state.SetToken("a")

		if err := svc.RefreshUser(ctx); !errors.Is(err, api.ErrAuthExpired) {
			t.Fatalf("err = %v", err)
		}
		s := state.Snapshot()
		if s.Token != "" || s.Error != "Session expired. Please login again." {
			t.Errorf("state = %+v", s)
		}
		if tok, _ := tokens.AccessToken(ctx); tok != "" {
			t.Error("token not cleared")
		}
	})

	t.Run("offline keeps session", func(t *testing.T) {
		offline := &api.APIError{Code: api.CodeOffline, Message: "No internet connection. Please check your network."}
		svc, tokens, state := newTestService(&fakeAPI{meErr: offline})
		tokens.SetTokens(ctx, "a", "r", time.Hour)
		state.SetToken("a")

		if err := svc.RefreshUser(ctx); err == nil {
			t.Fatal("expected error")
		}
		if state.Snapshot().Token != "a" {
			t.Error("session cleared on a network error")
		}
		if tok, _ := tokens.AccessToken(ctx); tok != "a" {
			t.Error("stored token cleared on a network error")
		}
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		svc, _, _ := newTestService(&fakeAPI{})
		ok, err := svc.Restore(ctx)
		if ok || err != nil {
			t.Errorf("Restore = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		fa := &fakeAPI{me: &api.MeResponse{User: store.User{ID: "u1"}}}
		svc, tokens, state := newTestService(fa)
		tokens.SetTokens(ctx, "a", "r", time.Hour)

		ok, err := svc.Restore(ctx)
		if !ok || err != nil {
			t.Fatalf("Restore = %v, %v", ok, err)
		}
		if fa.refreshCalls != 0 {
			t.Error("fresh token should not be refreshed")
		}
		if s := state.Snapshot(); s.Token != "a" || s.User == nil {
			t.Errorf("state = %+v", s)
		}
	})

	t.Run("expiring token is refreshed", func(t *testing.T) {
		fa := &fakeAPI{me: &api.MeResponse{User: store.User{ID: "u1"}}}
		svc, tokens, state := newTestService(fa)
		fa.onRefresh = func(ctx context.Context) error {
			return tokens.SetTokens(ctx, "a2", "r2", time.Hour)
		}
		tokens.SetTokens(ctx, "a1", "r1", 30*time.Second)

		if ok, err := svc.Restore(ctx); !ok || err != nil {
			t.Fatalf("Restore = %v, %v", ok, err)
		}
		if fa.refreshCalls != 1 {
			t.Errorf("refresh calls = %d, want 1", fa.refreshCalls)
		}
		if state.Snapshot().Token != "a2" {
			t.Errorf("Token = %q, want refreshed a2", state.Snapshot().Token)
		}
	})

	t.Run("refresh failure clears", func(t *testing.T) {
		fa := &fakeAPI{refreshErr: api.ErrNoRefreshToken}
		svc, tokens, state := newTestService(fa)
		tokens.SetTokens(ctx, "a1", "", 10*time.Second)

		if ok, err := svc.Restore(ctx); ok || err == nil {
			t.Fatalf("Restore = %v, %v; want failure", ok, err)
		}
		if tok, _ := tokens.AccessToken(ctx); tok != "" {
			t.Error("token not cleared")
		}
		if state.Snapshot().Error != msgRefreshFailed {
			t.Errorf("Error = %q", state.Snapshot().Error)
		}
	})
}

package store

import "sync"

// User is the signed-in user's profile.
type User struct {
	ID            string `json:"id"`
	TelegramID    string `json:"telegramId"`
	Username      string `json:"username,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	CoinBalance   int64  `json:"coinBalance"`
	TotalEarned   int64  `json:"totalEarned"`
	Level         int    `json:"level"`
	TapsRemaining int    `json:"tapsRemaining"`
	ReferralCode  string `json:"referralCode"`
}

// UserPatch holds the fields of a partial user update. Nil fields are skipped.
type UserPatch struct {
	ID            string
	Username      *string
	Level         *int
	CoinBalance   *int64
	TapsRemaining *int
}

// AuthState is a snapshot of the Auth container.
type AuthState struct {
	User      *User
	Token     string
	IsLoading bool
	Error     string
}

// Authenticated reports whether a session token is present.
func (s AuthState) Authenticated() bool {
	return s.Token != ""
}

// Auth holds the session user and token.
type Auth struct {
	mu    sync.RWMutex
	state AuthState
}

// NewAuth creates an Auth container, optionally seeded with a stored token.
func NewAuth(token string) *Auth {
	return &Auth{state: AuthState{Token: token}}
}

// Snapshot returns a copy of the current state.
func (a *Auth) Snapshot() AuthState {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := a.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// SetSession records a successful login.
func (a *Auth) SetSession(user User, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.User = &user
	a.state.Token = token
	a.state.IsLoading = false
	a.state.Error = ""
}

// SetUser replaces the user profile.
func (a *Auth) SetUser(user User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.User = &user
}

// SetToken replaces the session token.
func (a *Auth) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Token = token
}

// UpdateUser merges the non-nil fields of p into the user profile. If no user
// is loaded yet, one is created from the patch.
func (a *Auth) UpdateUser(p UserPatch) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var u User
	if a.state.User != nil {
		u = *a.state.User
	}
	if p.ID != "" {
		u.ID = p.ID
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Level != nil {
		u.Level = *p.Level
	}
	if p.CoinBalance != nil {
		u.CoinBalance = *p.CoinBalance
	}
	if p.TapsRemaining != nil {
		u.TapsRemaining = *p.TapsRemaining
	}
	a.state.User = &u
}

// SetLoading sets the loading flag and clears any previous error when starting.
func (a *Auth) SetLoading(loading bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.IsLoading = loading
	if loading {
		a.state.Error = ""
	}
}

// SetError records a failure and ends loading.
func (a *Auth) SetError(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.Error = msg
	a.state.IsLoading = false
}

// Clear drops the user and token, keeping any error message.
func (a *Auth) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.User = nil
	a.state.Token = ""
	a.state.IsLoading = false
}

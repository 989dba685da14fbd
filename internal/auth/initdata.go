package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ErrInvalidInitData is returned for init-data that cannot identify a user.
var ErrInvalidInitData = errors.New("invalid init data")

// InitUser is the Telegram user embedded in init-data.
type InitUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// InitData is the parsed form of the host's signed launch payload.
type InitData struct {
	QueryID  string
	User     *InitUser
	AuthDate time.Time
	Hash     string

	// Raw is the original string, forwarded to the server unchanged.
	Raw string
}

// ParseInitData parses a URL-encoded init-data string. The signature is not
// checked here; the server verifies it on login.
func ParseInitData(raw string) (InitData, error) {
	if raw == "" {
		return InitData{}, fmt.Errorf("%w: empty", ErrInvalidInitData)
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return InitData{}, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	d := InitData{
		QueryID: values.Get("query_id"),
		Hash:    values.Get("hash"),
		Raw:     raw,
	}
	if d.Hash == "" {
		return InitData{}, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}

	if s := values.Get("auth_date"); s != "" {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return InitData{}, fmt.Errorf("%w: auth_date %q", ErrInvalidInitData, s)
		}
		d.AuthDate = time.Unix(sec, 0).UTC()
	}

	if s := values.Get("user"); s != "" {
		var u InitUser
		if err := json.Unmarshal([]byte(s), &u); err != nil {
			return InitData{}, fmt.Errorf("%w: user: %v", ErrInvalidInitData, err)
		}
		if u.ID == 0 {
			return InitData{}, fmt.Errorf("%w: user without id", ErrInvalidInitData)
		}
		d.User = &u
	}

	return d, nil
}

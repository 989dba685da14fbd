package events

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is a single frame on the event socket.
type Envelope struct {
	Event Type            `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// DecodeFrame parses a raw socket frame into a validated event.
func DecodeFrame(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrInvalidPayload)
	}
	return Decode(env.Event, env.Data)
}

// Decode parses the payload of a server event and validates it.
// Locally generated types are not accepted from the wire.
func Decode(t Type, data json.RawMessage) (Event, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		if !IsServerType(t) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, t)
		}
		return nil, fmt.Errorf("%w: %s has no data", ErrInvalidPayload, t)
	}

	var (
		ev  Event
		err error
	)
	switch t {
	case TypeUserUpdate:
		ev, err = decodeAs[UserUpdate](data)
	case TypeUserLevelUp:
		ev, err = decodeAs[LevelUp](data)
	case TypeUserAchievement:
		ev, err = decodeAs[Achievement](data)
	case TypeCoinsUpdate:
		ev, err = decodeAs[CoinsUpdate](data)
	case TypeCoinsTransaction:
		ev, err = decodeAs[CoinsTransaction](data)
	case TypeWithdrawalStatus:
		ev, err = decodeAs[WithdrawalStatus](data)
	case TypeAdImpression:
		ev, err = decodeAs[AdImpression](data)
	case TypeAdClick:
		ev, err = decodeAs[AdClick](data)
	case TypeAdReward:
		ev, err = decodeAs[AdReward](data)
	case TypeTelegramMessage:
		ev, err = decodeAs[TelegramMessage](data)
	case TypeTelegramStatus:
		ev, err = decodeAs[TelegramStatus](data)
	case TypeSystemMaintenance:
		ev, err = decodeAs[SystemMaintenance](data)
	case TypeSystemUpdate:
		ev, err = decodeAs[SystemUpdate](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, t)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, t, err)
	}

	if err := Validate(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Encode builds a socket frame for an outbound event.
func Encode(t Type, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return json.Marshal(Envelope{Event: t, Data: data})
}

// IsServerType reports whether t is a tag the server may push.
func IsServerType(t Type) bool {
	switch t {
	case TypeUserUpdate, TypeUserLevelUp, TypeUserAchievement,
		TypeCoinsUpdate, TypeCoinsTransaction, TypeWithdrawalStatus,
		TypeAdImpression, TypeAdClick, TypeAdReward,
		TypeTelegramMessage, TypeTelegramStatus,
		TypeSystemMaintenance, TypeSystemUpdate:
		return true
	}
	return false
}

// Validate checks the per-type invariants of an event.
func Validate(ev Event) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidPayload, ev.EventType(), fmt.Sprintf(format, args...))
	}

	switch e := ev.(type) {
	case UserUpdate:
		if e.ID == "" {
			return invalid("id is required")
		}
	case LevelUp:
		if e.Level < 1 {
			return invalid("level must be >= 1, got %d", e.Level)
		}
		if e.Experience < 0 || e.ExperienceToNext < 0 {
			return invalid("experience must be >= 0")
		}
		if e.Rewards != nil && e.Rewards.Coins < 0 {
			return invalid("reward coins must be >= 0, got %d", e.Rewards.Coins)
		}
	case Achievement:
		if e.ID == "" {
			return invalid("id is required")
		}
	case CoinsUpdate:
		if e.Balance < 0 {
			return invalid("balance must be >= 0, got %d", e.Balance)
		}
	case CoinsTransaction:
		if e.Balance < 0 {
			return invalid("balance must be >= 0, got %d", e.Balance)
		}
	case WithdrawalStatus:
		if e.ID == "" {
			return invalid("id is required")
		}
		switch e.Status {
		case WithdrawalPending, WithdrawalCompleted, WithdrawalFailed:
		default:
			return invalid("unknown status %q", e.Status)
		}
	case AdImpression:
		if e.ID == "" {
			return invalid("id is required")
		}
	case AdClick:
		if e.ID == "" {
			return invalid("id is required")
		}
	case AdReward:
		if e.ID == "" {
			return invalid("id is required")
		}
		if e.Amount < 0 {
			return invalid("amount must be >= 0, got %d", e.Amount)
		}
	case SystemMaintenance:
		if e.Duration < 0 {
			return invalid("duration must be >= 0, got %d", e.Duration)
		}
	case SystemUpdate:
		if e.Version == "" {
			return invalid("version is required")
		}
	}
	return nil
}

func decodeAs[T Event](data json.RawMessage) (Event, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rickgao/tapsync/internal/events"
	"github.com/rickgao/tapsync/internal/store"
)

// Tables the feed follows.
const (
	TableUsers        = "users"
	TableTransactions = "transactions"
	TableAchievements = "achievements"
)

// Op is the kind of row change.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

var (
	ErrUnknownTable = errors.New("unknown table")
	ErrBadChange    = errors.New("malformed change")
)

// Change is one row change notification.
type Change struct {
	Type   Op              `json:"type"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

// Channels returns the notification channels for userID, one per table.
func Channels(userID string) []string {
	return []string{
		TableUsers + "_" + userID,
		TableTransactions + "_" + userID,
		TableAchievements + "_" + userID,
	}
}

// tableOf returns the table a channel name belongs to.
func tableOf(channel string) string {
	table, _, _ := strings.Cut(channel, "_")
	return table
}

// ParseChange decodes a notification payload.
func ParseChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, fmt.Errorf("%w: %v", ErrBadChange, err)
	}
	if c.Table == "" {
		return Change{}, fmt.Errorf("%w: missing table", ErrBadChange)
	}
	switch c.Type {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return Change{}, fmt.Errorf("%w: unknown type %q", ErrBadChange, c.Type)
	}
	return c, nil
}

type userRecord struct {
	ID            string  `json:"id"`
	Username      *string `json:"username"`
	Level         *int    `json:"level"`
	CoinBalance   *int64  `json:"coin_balance"`
	TapsRemaining *int    `json:"taps_remaining"`
}

type transactionRecord struct {
	ID           string    `json:"id"`
	Amount       int64     `json:"amount"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	BalanceAfter *int64    `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

type achievementRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// Translate maps a row change to the events it implies. Deletes imply none.
//
//   - users insert/update: user:update with the changed profile fields
//   - transactions insert: coins:update when the row carries the resulting
//     balance, otherwise the informational coins:transaction
//   - achievements insert: user:achievement
func Translate(c Change) ([]events.Event, error) {
	if c.Type == OpDelete {
		return nil, nil
	}

	switch c.Table {
	case TableUsers:
		var r userRecord
		if err := decodeRecord(c, &r); err != nil {
			return nil, err
		}
		return []events.Event{events.UserUpdate{
			ID:            r.ID,
			Username:      r.Username,
			Level:         r.Level,
			CoinBalance:   r.CoinBalance,
			TapsRemaining: r.TapsRemaining,
		}}, nil

	case TableTransactions:
		if c.Type != OpInsert {
			return nil, nil
		}
		var r transactionRecord
		if err := decodeRecord(c, &r); err != nil {
			return nil, err
		}
		change := r.Amount
		if r.Type == string(store.Debit) && change > 0 {
			change = -change
		}
		if r.BalanceAfter != nil {
			return []events.Event{events.CoinsUpdate{
				Balance:   *r.BalanceAfter,
				Change:    change,
				Reason:    r.Description,
				Timestamp: r.CreatedAt,
			}}, nil
		}
		return []events.Event{events.CoinsTransaction{
			Change:    change,
			Reason:    r.Description,
			Timestamp: r.CreatedAt,
		}}, nil

	case TableAchievements:
		if c.Type != OpInsert {
			return nil, nil
		}
		var r achievementRecord
		if err := decodeRecord(c, &r); err != nil {
			return nil, err
		}
		return []events.Event{events.Achievement{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Icon:        r.Icon,
			UnlockedAt:  r.UnlockedAt,
		}}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownTable, c.Table)
}

func decodeRecord(c Change, v any) error {
	if len(c.Record) == 0 || string(c.Record) == "null" {
		return fmt.Errorf("%w: %s %s without record", ErrBadChange, c.Type, c.Table)
	}
	if err := json.Unmarshal(c.Record, v); err != nil {
		return fmt.Errorf("%w: %s record: %v", ErrBadChange, c.Table, err)
	}
	return nil
}

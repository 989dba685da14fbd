package events

import (
	"errors"
	"time"
)

// Errors
var (
	ErrUnknownEvent   = errors.New("unknown event type")
	ErrInvalidPayload = errors.New("invalid event payload")
)

// Type is the wire tag of an event.
type Type string

// Server-pushed event types.
const (
	TypeUserUpdate        Type = "user:update"
	TypeUserLevelUp       Type = "user:levelUp"
	TypeUserAchievement   Type = "user:achievement"
	TypeCoinsUpdate       Type = "coins:update"
	TypeCoinsTransaction  Type = "coins:transaction"
	TypeWithdrawalStatus  Type = "withdrawal:status"
	TypeAdImpression      Type = "ad:impression"
	TypeAdClick           Type = "ad:click"
	TypeAdReward          Type = "ad:reward"
	TypeTelegramMessage   Type = "telegram:message"
	TypeTelegramStatus    Type = "telegram:status"
	TypeSystemMaintenance Type = "system:maintenance"
	TypeSystemUpdate      Type = "system:update"
)

// Locally generated event types.
const (
	TypeConnectionFailed Type = "connection:failed"
	TypeSocketError      Type = "error"
)

// Event is implemented by every payload type below. The set is closed:
// Decode only ever produces these.
type Event interface {
	EventType() Type
}

// UserUpdate carries a partial user record; nil fields are left untouched.
type UserUpdate struct {
	ID            string  `json:"id"`
	Username      *string `json:"username,omitempty"`
	Level         *int    `json:"level,omitempty"`
	CoinBalance   *int64  `json:"coinBalance,omitempty"`
	TapsRemaining *int    `json:"tapsRemaining,omitempty"`
}

// LevelRewards is the optional reward bundle attached to a level-up.
type LevelRewards struct {
	Coins int64    `json:"coins"`
	Items []string `json:"items,omitempty"`
}

// LevelUp is pushed when the user reaches a new level.
type LevelUp struct {
	Level            int           `json:"level"`
	Experience       int           `json:"experience"`
	ExperienceToNext int           `json:"experienceToNext"`
	Rewards          *LevelRewards `json:"rewards,omitempty"`
}

// Achievement is pushed when the user unlocks an achievement.
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

// CoinsUpdate carries the new absolute balance and the change that produced it.
type CoinsUpdate struct {
	Balance   int64     `json:"balance"`
	Change    int64     `json:"change"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// CoinsTransaction has the same shape as CoinsUpdate but is informational only.
type CoinsTransaction CoinsUpdate

// WithdrawalState is the lifecycle state of a withdrawal request.
type WithdrawalState string

const (
	WithdrawalPending   WithdrawalState = "pending"
	WithdrawalCompleted WithdrawalState = "completed"
	WithdrawalFailed    WithdrawalState = "failed"
)

// WithdrawalStatus is pushed when a withdrawal changes state.
type WithdrawalStatus struct {
	ID        string          `json:"id"`
	Status    WithdrawalState `json:"status"`
	Amount    int64           `json:"amount"`
	Method    string          `json:"method"`
	Timestamp time.Time       `json:"timestamp"`
}

// AdEvent is the shared shape of the ad:* events.
type AdEvent struct {
	ID        string    `json:"id"`
	Kind      string    `json:"type"` // "impression", "click" or "reward"
	Amount    int64     `json:"amount,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AdImpression is pushed when an ad was shown.
type AdImpression AdEvent

// AdClick is pushed when an ad was clicked.
type AdClick AdEvent

// AdReward is pushed when watching an ad earned coins.
type AdReward AdEvent

// TelegramMessage relays a bot message to the client.
type TelegramMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// TelegramStatus reports the bot link status.
type TelegramStatus struct {
	Connected bool       `json:"connected"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
}

// SystemMaintenance announces a maintenance window.
type SystemMaintenance struct {
	StartTime time.Time `json:"startTime"`
	Duration  int64     `json:"duration"` // seconds
}

// End returns when the maintenance window closes.
func (m SystemMaintenance) End() time.Time {
	return m.StartTime.Add(time.Duration(m.Duration) * time.Second)
}

// SystemUpdate announces a new client version.
type SystemUpdate struct {
	Version string   `json:"version"`
	Changes []string `json:"changes"`
}

// ConnectionFailed is dispatched once the socket gives up reconnecting.
type ConnectionFailed struct {
	Error    string `json:"error"`
	Attempts int    `json:"attempts"`
}

// SocketError reports a transport error to interested listeners.
type SocketError struct {
	Message string `json:"message"`
}

func (UserUpdate) EventType() Type        { return TypeUserUpdate }
func (LevelUp) EventType() Type           { return TypeUserLevelUp }
func (Achievement) EventType() Type       { return TypeUserAchievement }
func (CoinsUpdate) EventType() Type       { return TypeCoinsUpdate }
func (CoinsTransaction) EventType() Type  { return TypeCoinsTransaction }
func (WithdrawalStatus) EventType() Type  { return TypeWithdrawalStatus }
func (AdImpression) EventType() Type      { return TypeAdImpression }
func (AdClick) EventType() Type           { return TypeAdClick }
func (AdReward) EventType() Type          { return TypeAdReward }
func (TelegramMessage) EventType() Type   { return TypeTelegramMessage }
func (TelegramStatus) EventType() Type    { return TypeTelegramStatus }
func (SystemMaintenance) EventType() Type { return TypeSystemMaintenance }
func (SystemUpdate) EventType() Type      { return TypeSystemUpdate }
func (ConnectionFailed) EventType() Type  { return TypeConnectionFailed }
func (SocketError) EventType() Type       { return TypeSocketError }

package connection

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rickgao/tapsync/internal/config"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrUnauthorized    = errors.New("socket authentication rejected")
	ErrNoToken         = errors.New("no auth token")
)

// Close codes the server uses to reject a session.
const (
	CloseSessionExpired = 4001
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // e.g. wss://api.example.com/ws
	Token        string        // Sent as "Authorization: Bearer <token>"
	DialTimeout  time.Duration // Handshake timeout
	PingInterval time.Duration // How often the client pings
	PingTimeout  time.Duration // Max time without ping/pong before considering connection stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		DialTimeout:  10 * time.Second,
		PingInterval: 25 * time.Second,
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// SocketConfig configures the Socket and its reconnection policy.
type SocketConfig struct {
	Client               ClientConfig
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	ReconnectMultiplier  float64
	ReconnectMaxDelay    time.Duration
}

// DefaultSocketConfig returns sensible defaults.
func DefaultSocketConfig() SocketConfig {
	return SocketConfig{
		Client:               DefaultClientConfig(),
		MaxReconnectAttempts: 5,
		ReconnectBaseDelay:   time.Second,
		ReconnectMultiplier:  1.5,
		ReconnectMaxDelay:    30 * time.Second,
	}
}

// SocketConfigFrom maps the file configuration onto a SocketConfig.
func SocketConfigFrom(cfg config.SocketConfig) SocketConfig {
	return SocketConfig{
		Client: ClientConfig{
			URL:          cfg.URL,
			DialTimeout:  cfg.DialTimeout,
			PingInterval: cfg.PingInterval,
			PingTimeout:  cfg.PingTimeout,
			WriteTimeout: cfg.WriteTimeout,
			BufferSize:   cfg.BufferSize,
		},
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		ReconnectBaseDelay:   cfg.ReconnectBaseDelay,
		ReconnectMultiplier:  cfg.ReconnectMultiplier,
		ReconnectMaxDelay:    cfg.ReconnectMaxDelay,
	}
}

// State is the socket lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TokenSource supplies the current access token. An empty token means the
// user is signed out.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// SessionExpirer is told when the server rejects the socket's credentials.
type SessionExpirer interface {
	Logout(ctx context.Context) error
}

// DialFunc creates an unconnected Client.
type DialFunc func(cfg ClientConfig, logger *slog.Logger) Client

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAppName              = "alphawulf"
	DefaultBotUsername          = "AlphaWulfBot"
	DefaultRestURL              = "http://localhost:3000/api"
	DefaultSocketURL            = "ws://localhost:3000/ws"
	DefaultAPITimeout           = 30 * time.Second
	DefaultMaxRetries           = 3
	DefaultRetryBackoff         = 1 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMultiplier  = 1.5
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultDialTimeout          = 10 * time.Second
	DefaultPingInterval         = 25 * time.Second
	DefaultPingTimeout          = 60 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultBufferSize           = 1000
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 4
	DefaultMinConns             = 1
	DefaultPollInterval         = 5 * time.Minute
	DefaultPollTimeout          = 10 * time.Second
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

func (c *ClientConfig) applyDefaults() {
	// App defaults
	if c.App.Name == "" {
		c.App.Name = DefaultAppName
	}
	if c.App.BotUsername == "" {
		c.App.BotUsername = DefaultBotUsername
	}

	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// Socket defaults
	if c.Socket.URL == "" {
		c.Socket.URL = DefaultSocketURL
	}
	if c.Socket.MaxReconnectAttempts == 0 {
		c.Socket.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Socket.ReconnectBaseDelay == 0 {
		c.Socket.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Socket.ReconnectMultiplier == 0 {
		c.Socket.ReconnectMultiplier = DefaultReconnectMultiplier
	}
	if c.Socket.ReconnectMaxDelay == 0 {
		c.Socket.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Socket.DialTimeout == 0 {
		c.Socket.DialTimeout = DefaultDialTimeout
	}
	if c.Socket.PingInterval == 0 {
		c.Socket.PingInterval = DefaultPingInterval
	}
	if c.Socket.PingTimeout == 0 {
		c.Socket.PingTimeout = DefaultPingTimeout
	}
	if c.Socket.WriteTimeout == 0 {
		c.Socket.WriteTimeout = DefaultWriteTimeout
	}
	if c.Socket.BufferSize == 0 {
		c.Socket.BufferSize = DefaultBufferSize
	}

	// Realtime defaults
	applyDBDefaults(&c.Realtime.Database)

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Timeout == 0 {
		c.Poller.Timeout = DefaultPollTimeout
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.API.RestURL == "" {
		return errors.New("api.rest_url is required")
	}
	if _, err := url.ParseRequestURI(c.API.RestURL); err != nil {
		return fmt.Errorf("api.rest_url is invalid: %w", err)
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if err := c.Socket.validate(); err != nil {
		return err
	}

	if c.Realtime.Enabled {
		if err := c.Realtime.Database.validate("realtime.database"); err != nil {
			return err
		}
	}

	if c.Poller.Interval < 0 {
		return errors.New("poller.interval must be >= 0")
	}

	if c.Status.Port < 0 || c.Status.Port > 65535 {
		return fmt.Errorf("status.port must be between 0 and 65535, got %d", c.Status.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (s *SocketConfig) validate() error {
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("socket.url is invalid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("socket.url must use ws or wss, got %q", u.Scheme)
	}
	if s.MaxReconnectAttempts < 1 {
		return errors.New("socket.max_reconnect_attempts must be >= 1")
	}
	if s.ReconnectMultiplier < 1 {
		return fmt.Errorf("socket.reconnect_multiplier must be >= 1, got %v", s.ReconnectMultiplier)
	}
	if s.ReconnectBaseDelay > s.ReconnectMaxDelay {
		return fmt.Errorf("socket.reconnect_base_delay (%v) cannot exceed reconnect_max_delay (%v)", s.ReconnectBaseDelay, s.ReconnectMaxDelay)
	}
	if s.BufferSize < 1 {
		return errors.New("socket.buffer_size must be >= 1")
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

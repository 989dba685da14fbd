package config

import "time"

// ClientConfig is the root configuration for a tapclient process.
type ClientConfig struct {
	App      AppConfig      `yaml:"app"`
	API      APIConfig      `yaml:"api"`
	Socket   SocketConfig   `yaml:"socket"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Session  SessionConfig  `yaml:"session"`
	Poller   PollerConfig   `yaml:"poller"`
	Status   StatusConfig   `yaml:"status"`
	Log      LogConfig      `yaml:"log"`
}

// AppConfig identifies the mini-app this client talks to.
type AppConfig struct {
	Name        string `yaml:"name" env:"TAPSYNC_APP_NAME"`
	BotUsername string `yaml:"bot_username" env:"TAPSYNC_BOT_USERNAME"` // Used to build referral links
}

// APIConfig holds REST API settings.
type APIConfig struct {
	RestURL      string        `yaml:"rest_url" env:"TAPSYNC_API_URL"`
	Timeout      time.Duration `yaml:"timeout" env:"TAPSYNC_API_TIMEOUT"`
	MaxRetries   int           `yaml:"max_retries" env:"TAPSYNC_API_MAX_RETRIES"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// SocketConfig holds event socket and reconnection policy settings.
type SocketConfig struct {
	URL                  string        `yaml:"url" env:"TAPSYNC_SOCKET_URL"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts" env:"TAPSYNC_SOCKET_MAX_RECONNECT_ATTEMPTS"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMultiplier  float64       `yaml:"reconnect_multiplier"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	DialTimeout          time.Duration `yaml:"dial_timeout"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	PingTimeout          time.Duration `yaml:"ping_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	BufferSize           int           `yaml:"buffer_size"`
}

// RealtimeConfig holds the optional Postgres LISTEN/NOTIFY feed.
type RealtimeConfig struct {
	Enabled  bool     `yaml:"enabled" env:"TAPSYNC_REALTIME_ENABLED"`
	Database DBConfig `yaml:"database"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host" env:"TAPSYNC_DB_HOST"`
	Port     int    `yaml:"port" env:"TAPSYNC_DB_PORT"`
	Name     string `yaml:"name" env:"TAPSYNC_DB_NAME"`
	User     string `yaml:"user" env:"TAPSYNC_DB_USER"`
	Password string `yaml:"password" env:"TAPSYNC_DB_PASSWORD"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SessionConfig holds the durable session store settings.
type SessionConfig struct {
	Path string `yaml:"path" env:"TAPSYNC_SESSION_PATH"` // SQLite file; empty keeps the session in memory
}

// PollerConfig holds REST reconciliation settings.
type PollerConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StatusConfig holds the local status endpoint settings.
type StatusConfig struct {
	Port int `yaml:"port" env:"TAPSYNC_STATUS_PORT"` // 0 disables the endpoint
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"TAPSYNC_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"TAPSYNC_LOG_FORMAT"` // text or json
}

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// Credentials stores the session tokens the client authenticates with.
// session.Tokens implements it.
type Credentials interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, access, refresh string, expiresIn time.Duration) error
	ClearTokens(ctx context.Context) error
}

// Client provides access to the backend REST API.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration

	onExpired   func(ctx context.Context)
	onRefreshed func(ctx context.Context, accessToken string)
	refreshes   singleflight.Group
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. creds may be nil for
// unauthenticated use.
func NewClient(baseURL string, creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenRefreshed sets a callback run after each successful token
// refresh with the new access token.
func WithTokenRefreshed(fn func(ctx context.Context, accessToken string)) ClientOption {
	return func(c *Client) {
		c.onRefreshed = fn
	}
}

// WithSessionExpired sets a hook run after the tokens were cleared because
// the session could not be refreshed.
func WithSessionExpired(fn func(ctx context.Context)) ClientOption {
	return func(c *Client) {
		c.onExpired = fn
	}
}

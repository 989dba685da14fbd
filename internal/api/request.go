package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"
)

const refreshPath = "/auth/refresh"

// doRequest performs an HTTP request with the given method and path.
// A non-nil payload is sent as a JSON body.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		token, err := c.creds.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("read token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", transportError(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", transportError(err))
	}

	if resp.StatusCode >= 400 {
		return nil, statusError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Add jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, err := c.doRequest(ctx, method, path, query, payload)
		if err == nil {
			return body, nil
		}

		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do performs an authenticated request. An expired session is refreshed
// once and the request retried. The session is cleared only when the server
// rejects the refresh; a refresh that fails in transit leaves it intact.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, result any) error {
	body, err := c.doWithRetry(ctx, method, path, query, payload)
	if errors.Is(err, ErrAuthExpired) && c.creds != nil {
		if rerr := c.Refresh(ctx); rerr != nil {
			c.logger.Warn("token refresh failed", "path", path, "error", rerr)
			if !refreshRejected(rerr) {
				return fmt.Errorf("refresh session: %w", rerr)
			}
			c.expire(ctx)
			return err
		}
		body, err = c.doWithRetry(ctx, method, path, query, payload)
		if errors.Is(err, ErrAuthExpired) {
			c.expire(ctx)
		}
	}
	if err != nil {
		return err
	}

	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

// get performs a GET request with retries.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

// post performs a POST request with retries.
func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	return c.do(ctx, http.MethodPost, path, nil, payload, result)
}

// Refresh exchanges the stored refresh token for new tokens. Concurrent
// callers share one request.
func (c *Client) Refresh(ctx context.Context) error {
	if c.creds == nil {
		return ErrNoRefreshToken
	}
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

func (c *Client) refresh(ctx context.Context) error {
	rt, err := c.creds.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("read refresh token: %w", err)
	}
	if rt == "" {
		return ErrNoRefreshToken
	}

	body, err := c.doRequest(ctx, http.MethodPost, refreshPath, nil, RefreshRequest{RefreshToken: rt})
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}

	var resp RefreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("unmarshal refresh response: %w", err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("refresh token: empty access token")
	}

	expiresIn := time.Duration(resp.ExpiresIn) * time.Second
	if err := c.creds.SetTokens(ctx, resp.AccessToken, resp.RefreshToken, expiresIn); err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}

	c.logger.Debug("access token refreshed", "expires_in", expiresIn)
	if c.onRefreshed != nil {
		c.onRefreshed(ctx, resp.AccessToken)
	}
	return nil
}

// refreshRejected reports whether a refresh failed because the server
// refused the session rather than because the request did not complete.
func refreshRejected(err error) bool {
	return errors.Is(err, ErrAuthExpired) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNoRefreshToken)
}

func (c *Client) expire(ctx context.Context) {
	if err := c.creds.ClearTokens(ctx); err != nil {
		c.logger.Error("failed to clear tokens", "error", err)
	}
	if c.onExpired != nil {
		c.onExpired(ctx)
	}
}

package api

import (
	"context"
	"fmt"
)

// Login exchanges Telegram init-data for a session.
func (c *Client) Login(ctx context.Context, initData string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/auth/login", LoginRequest{InitData: initData}, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

// Me fetches the signed-in user.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var resp MeResponse
	if err := c.get(ctx, "/auth/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}
	return &resp, nil
}

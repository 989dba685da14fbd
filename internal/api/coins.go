package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetBalance fetches the coin balance.
func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	var resp Balance
	if err := c.get(ctx, "/coins/balance", nil, &resp); err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &resp, nil
}

// Tap records one tap and returns the new balance.
func (c *Client) Tap(ctx context.Context) (*Balance, error) {
	var resp Balance
	if err := c.post(ctx, "/coins/tap", nil, &resp); err != nil {
		return nil, fmt.Errorf("tap: %w", err)
	}
	return &resp, nil
}

// CompleteTask marks a task as done and returns the new balance.
func (c *Client) CompleteTask(ctx context.Context, taskID string) (*Balance, error) {
	var resp Balance
	path := "/coins/task/" + url.PathEscape(taskID) + "/complete"
	if err := c.post(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("complete task %s: %w", taskID, err)
	}
	return &resp, nil
}

// GetTransactions fetches a page of coin transactions.
func (c *Client) GetTransactions(ctx context.Context, opts PageOptions) (*TransactionsResponse, error) {
	var resp TransactionsResponse
	if err := c.get(ctx, "/coins/transactions", pageQuery(opts), &resp); err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	return &resp, nil
}

// pageQuery defaults to page 1 with 10 items.
func pageQuery(opts PageOptions) url.Values {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(opts.Page))
	query.Set("limit", strconv.Itoa(opts.Limit))
	return query
}

package api

import (
	"context"
	"fmt"
)

// GetWithdrawals fetches a page of withdrawal requests.
func (c *Client) GetWithdrawals(ctx context.Context, opts PageOptions) (*WithdrawalsResponse, error) {
	var resp WithdrawalsResponse
	if err := c.get(ctx, "/withdrawals", pageQuery(opts), &resp); err != nil {
		return nil, fmt.Errorf("get withdrawals: %w", err)
	}
	return &resp, nil
}

// CreateWithdrawal requests a UPI payout of amount coins.
func (c *Client) CreateWithdrawal(ctx context.Context, amount int64, upiID string) error {
	if amount <= 0 {
		return fmt.Errorf("create withdrawal: amount must be > 0, got %d", amount)
	}
	if upiID == "" {
		return fmt.Errorf("create withdrawal: upi id is required")
	}

	if err := c.post(ctx, "/withdrawals", CreateWithdrawalRequest{Amount: amount, UPIID: upiID}, nil); err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	return nil
}

package api

import (
	"context"
	"fmt"
	"net/url"
)

// ClaimAdReward claims the coins for a watched ad.
func (c *Client) ClaimAdReward(ctx context.Context, adID string) (int64, error) {
	var resp RewardResponse
	if err := c.post(ctx, "/ads/"+url.PathEscape(adID)+"/reward", nil, &resp); err != nil {
		return 0, fmt.Errorf("claim ad %s: %w", adID, err)
	}
	return resp.Reward, nil
}

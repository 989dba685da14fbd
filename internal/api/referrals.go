package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rickgao/tapsync/internal/store"
)

// GetReferralCode fetches the user's referral code.
func (c *Client) GetReferralCode(ctx context.Context) (string, error) {
	var resp ReferralCodeResponse
	if err := c.get(ctx, "/referrals/code", nil, &resp); err != nil {
		return "", fmt.Errorf("get referral code: %w", err)
	}
	return resp.Code, nil
}

// GetReferralStats fetches the referral count, rewards and history.
func (c *Client) GetReferralStats(ctx context.Context) (*ReferralStats, error) {
	var resp ReferralStats
	if err := c.get(ctx, "/referrals/stats", nil, &resp); err != nil {
		return nil, fmt.Errorf("get referral stats: %w", err)
	}
	return &resp, nil
}

// ClaimReferralReward claims the reward for one referral.
func (c *Client) ClaimReferralReward(ctx context.Context, referralID string) (int64, error) {
	var resp RewardResponse
	path := "/referrals/" + url.PathEscape(referralID) + "/claim"
	if err := c.post(ctx, path, nil, &resp); err != nil {
		return 0, fmt.Errorf("claim referral %s: %w", referralID, err)
	}
	return resp.Reward, nil
}

// ClaimSpecialReward claims a daily, weekly or monthly referral bonus.
func (c *Client) ClaimSpecialReward(ctx context.Context, kind store.SpecialReward) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("claim special reward: unknown kind %q", kind)
	}

	var resp RewardResponse
	if err := c.post(ctx, "/referrals/special-rewards/"+string(kind), nil, &resp); err != nil {
		return 0, fmt.Errorf("claim %s reward: %w", kind, err)
	}
	return resp.Reward, nil
}

// ReportAchievements records newly unlocked referral achievements.
func (c *Client) ReportAchievements(ctx context.Context, achievements []store.ReferralAchievement) error {
	if len(achievements) == 0 {
		return nil
	}
	if err := c.post(ctx, "/referrals/achievements", AchievementsRequest{Achievements: achievements}, nil); err != nil {
		return fmt.Errorf("report achievements: %w", err)
	}
	return nil
}

package api

import (
	"time"

	"github.com/rickgao/tapsync/internal/store"
)

// LoginRequest for POST /auth/login
type LoginRequest struct {
	InitData string `json:"initData"`
}

// LoginResponse from POST /auth/login
type LoginResponse struct {
	User         store.User `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	ExpiresIn    int64      `json:"expiresIn,omitempty"` // seconds
}

// MeResponse from GET /auth/me
type MeResponse struct {
	User store.User `json:"user"`
}

// RefreshRequest for POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse from POST /auth/refresh
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // seconds
}

// Balance from GET /coins/balance, POST /coins/tap and task completion.
type Balance struct {
	CoinBalance   int64      `json:"coinBalance"`
	TotalEarned   int64      `json:"totalEarned"`
	Level         int        `json:"level"`
	TapsRemaining int        `json:"tapsRemaining"`
	ResetTime     *time.Time `json:"resetTime"`
}

// Pagination is attached to paged list responses.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// Transaction is a coin movement as the server reports it.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TransactionsResponse from GET /coins/transactions
type TransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	Pagination   Pagination    `json:"pagination"`
}

// Withdrawal is a cash-out request as the server reports it.
type Withdrawal struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Amount    int64     `json:"amount"`
	AmountINR float64   `json:"amountInr"`
	UPIID     string    `json:"upiId"`
	Status    string    `json:"status"` // pending, approved, rejected
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WithdrawalsResponse from GET /withdrawals
type WithdrawalsResponse struct {
	Withdrawals []Withdrawal `json:"withdrawals"`
	Pagination  Pagination   `json:"pagination"`
}

// CreateWithdrawalRequest for POST /withdrawals
type CreateWithdrawalRequest struct {
	Amount int64  `json:"amount"`
	UPIID  string `json:"upiId"`
}

// ReferralCodeResponse from GET /referrals/code
type ReferralCodeResponse struct {
	Code string `json:"code"`
}

// ReferralStats from GET /referrals/stats
type ReferralStats struct {
	Count   int              `json:"count"`
	Rewards int64            `json:"rewards"`
	History []store.Referral `json:"history"`
}

// RewardResponse from the referral and ad claim endpoints.
type RewardResponse struct {
	Reward int64 `json:"reward"`
}

// AchievementsRequest for POST /referrals/achievements
type AchievementsRequest struct {
	Achievements []store.ReferralAchievement `json:"achievements"`
}

// PageOptions configures a paged list request.
type PageOptions struct {
	Page  int
	Limit int
}

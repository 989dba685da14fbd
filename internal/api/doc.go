// Package api provides the REST client for the tap-to-earn backend.
//
// Endpoints are grouped by resource:
//   - /auth: login with Telegram init-data, current user, token refresh
//   - /coins: balance, taps, tasks, transaction history
//   - /withdrawals: history and new requests
//   - /referrals: code, stats, reward claims, achievements
//   - /ads: ad rewards
//
// Errors are normalized to *APIError with a Code; match them with errors.Is
// against ErrAuthExpired, ErrForbidden, ErrNotFound, ErrRateLimited,
// ErrTimeout and ErrOffline.
package api

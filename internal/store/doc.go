// Package store holds the client-side state containers.
//
// Each container owns one slice of session state:
//   - Auth: signed-in user, token, loading/error flags
//   - Game: coins, level progress, items, rank ladder, ad counters
//   - Achievements: unlocked achievements in arrival order
//   - Transactions: coin transactions and withdrawal requests
//   - Referrals: referral code, tier progress, special-reward claims
//   - System: maintenance notices, client updates, connection health
//
// Containers never write to each other. Setters replace only the fields they
// name, and reads return copies, so callers cannot mutate state in place.
package store

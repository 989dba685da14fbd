package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/tapsync/internal/store"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Querier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id::text, telegram_id::text, username, first_name, last_name,
	coin_balance, total_earned, level, taps_remaining, referral_code`

// Profiles reads the signed-in user's rows directly from the database.
type Profiles struct {
	db Querier
}

// NewProfiles creates a Profiles on db.
func NewProfiles(db Querier) *Profiles {
	return &Profiles{db: db}
}

// User loads one user by id.
func (p *Profiles) User(ctx context.Context, id string) (store.User, error) {
	row := p.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return store.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// UpdateUser applies the non-nil fields of patch and returns the new row.
func (p *Profiles) UpdateUser(ctx context.Context, patch store.UserPatch) (store.User, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE users SET
			username       = COALESCE($2, username),
			level          = COALESCE($3, level),
			coin_balance   = COALESCE($4, coin_balance),
			taps_remaining = COALESCE($5, taps_remaining)
		WHERE id = $1
		RETURNING `+userColumns,
		patch.ID, patch.Username, patch.Level, patch.CoinBalance, patch.TapsRemaining,
	)
	u, err := scanUser(row)
	if err != nil {
		return store.User{}, fmt.Errorf("update user %s: %w", patch.ID, err)
	}
	return u, nil
}

// Transactions loads the newest limit transactions of a user.
func (p *Profiles) Transactions(ctx context.Context, userID string, limit int) ([]store.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := p.db.Query(ctx, `
		SELECT id::text, type, amount, COALESCE(description, ''), created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []store.Transaction
	for rows.Next() {
		var (
			tx  store.Transaction
			typ string
		)
		if err := rows.Scan(&tx.ID, &typ, &tx.Amount, &tx.Reason, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = store.TransactionType(typ)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// Achievements loads a user's achievements, newest first.
func (p *Profiles) Achievements(ctx context.Context, userID string) ([]store.Achievement, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id::text, name, COALESCE(description, ''), COALESCE(icon, ''), unlocked_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY unlocked_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	defer rows.Close()

	var list []store.Achievement
	for rows.Next() {
		var a store.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievements: %w", err)
	}
	return list, nil
}

func scanUser(row pgx.Row) (store.User, error) {
	var (
		u                             store.User
		username, firstName, lastName *string
	)
	err := row.Scan(&u.ID, &u.TelegramID, &username, &firstName, &lastName,
		&u.CoinBalance, &u.TotalEarned, &u.Level, &u.TapsRemaining, &u.ReferralCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.User{}, ErrNotFound
	}
	if err != nil {
		return store.User{}, err
	}

	u.Username = deref(username)
	u.FirstName = deref(firstName)
	u.LastName = deref(lastName)
	return u, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

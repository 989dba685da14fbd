package realtime

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/tapsync/internal/store"
)

// ProfileSource reads the user's rows. database.Profiles implements it.
type ProfileSource interface {
	User(ctx context.Context, id string) (store.User, error)
	Transactions(ctx context.Context, userID string, limit int) ([]store.Transaction, error)
	Achievements(ctx context.Context, userID string) ([]store.Achievement, error)
}

// StoreHydrator reloads the containers from a ProfileSource.
type StoreHydrator struct {
	Profiles     ProfileSource
	Auth         *store.Auth
	Game         *store.Game
	Transactions *store.Transactions
	Achievements *store.Achievements

	// TransactionLimit bounds the reloaded history; 0 means 10.
	TransactionLimit int
}

// Hydrate loads the profile, recent transactions and achievements
// concurrently and writes each to its container.
func (h *StoreHydrator) Hydrate(ctx context.Context, userID string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		u, err := h.Profiles.User(ctx, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		h.Auth.SetUser(u)
		h.Game.SetCoins(u.CoinBalance)
		h.Game.SetLevel(u.Level)
		h.Game.SetTapsRemaining(u.TapsRemaining)
		return nil
	})

	g.Go(func() error {
		txs, err := h.Profiles.Transactions(ctx, userID, h.TransactionLimit)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		h.Transactions.SetTransactions(txs)
		return nil
	})

	g.Go(func() error {
		list, err := h.Profiles.Achievements(ctx, userID)
		if err != nil {
			return fmt.Errorf("load achievements: %w", err)
		}
		// Rows come newest first; the container keeps arrival order.
		slices.Reverse(list)
		h.Achievements.Set(list)
		return nil
	})

	return g.Wait()
}

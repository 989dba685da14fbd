package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/tapsync/internal/api"
	"github.com/rickgao/tapsync/internal/store"
)

// Source is the part of the REST client the poller reads from.
type Source interface {
	GetBalance(ctx context.Context) (*api.Balance, error)
	GetTransactions(ctx context.Context, opts api.PageOptions) (*api.TransactionsResponse, error)
	GetWithdrawals(ctx context.Context, opts api.PageOptions) (*api.WithdrawalsResponse, error)
	GetReferralStats(ctx context.Context) (*api.ReferralStats, error)
	ReportAchievements(ctx context.Context, achievements []store.ReferralAchievement) error
}

// Stores are the containers the poller writes.
type Stores struct {
	Auth         *store.Auth
	Game         *store.Game
	Transactions *store.Transactions
	Referrals    *store.Referrals
	System       *store.System
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 1m)
	Concurrency int           // Max concurrent requests per cycle (default: 4)
	Timeout     time.Duration // Per-request timeout (default: 10s)
	PageSize    int           // History items fetched per cycle (default: 10)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    time.Minute,
		Concurrency: 4,
		Timeout:     10 * time.Second,
		PageSize:    10,
	}
}

// Poller periodically reconciles the containers with the server.
type Poller struct {
	cfg    Config
	src    Source
	stores Stores
	logger *slog.Logger
	now    func() time.Time

	connMu         sync.Mutex
	online         bool
	onConnectivity func(online bool)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, src Source, stores Stores, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	return &Poller{
		cfg:    cfg,
		src:    src,
		stores: stores,
		logger: logger.With("component", "poller"),
		now:    time.Now,
		online: true,
	}
}

// OnConnectivity registers fn to be called when a poll cycle finds the
// network unreachable, and again when a later cycle reaches the server.
// It must be called before Start.
func (p *Poller) OnConnectivity(fn func(online bool)) {
	p.connMu.Lock()
	defer p.connMu.Unlock()
	p.onConnectivity = fn
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll(p.ctx)

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll(p.ctx)
		}
	}
}

// PollOnce runs one reconciliation cycle and returns the first error.
// Every task runs to completion even if another fails.
func (p *Poller) PollOnce(ctx context.Context) error {
	if p.stores.Auth != nil && !p.stores.Auth.Snapshot().Authenticated() {
		p.logger.Debug("signed out, skipping poll")
		return nil
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)

	var (
		mu       sync.Mutex
		firstErr error
		offline  bool
	)
	for name, task := range p.tasks() {
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
			defer cancel()

			if err := task(tctx); err != nil {
				p.logger.Warn("poll task failed", "task", name, "error", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", name, err)
				}
				if errors.Is(err, api.ErrOffline) {
					offline = true
				}
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	if ctx.Err() == nil {
		p.setOnline(!offline)
	}
	return firstErr
}

// setOnline records the connectivity seen by the last cycle and reports
// changes.
func (p *Poller) setOnline(online bool) {
	p.connMu.Lock()
	changed := p.online != online
	p.online = online
	fn := p.onConnectivity
	p.connMu.Unlock()

	if !changed {
		return
	}
	p.logger.Info("connectivity changed", "online", online)
	if p.stores.System != nil {
		p.stores.System.SetOnline(online)
	}
	if fn != nil {
		fn(online)
	}
}

func (p *Poller) pollAll(ctx context.Context) {
	start := time.Now()
	err := p.PollOnce(ctx)
	p.logger.Debug("poll cycle complete",
		"duration", time.Since(start),
		"ok", err == nil,
	)
}

// tasks returns the reconciliation steps for the configured containers.
func (p *Poller) tasks() map[string]func(context.Context) error {
	tasks := make(map[string]func(context.Context) error)
	if p.stores.Game != nil {
		tasks["balance"] = p.pollBalance
	}
	if p.stores.Transactions != nil {
		tasks["transactions"] = p.pollTransactions
		tasks["withdrawals"] = p.pollWithdrawals
	}
	if p.stores.Referrals != nil {
		tasks["referrals"] = p.pollReferrals
	}
	return tasks
}

func (p *Poller) pollBalance(ctx context.Context) error {
	b, err := p.src.GetBalance(ctx)
	if err != nil {
		return err
	}

	p.stores.Game.SetCoins(b.CoinBalance)
	p.stores.Game.SetLevel(b.Level)
	p.stores.Game.SetTapsRemaining(b.TapsRemaining)

	if p.stores.Auth != nil && p.stores.Auth.Snapshot().User != nil {
		p.stores.Auth.UpdateUser(store.UserPatch{
			CoinBalance:   &b.CoinBalance,
			Level:         &b.Level,
			TapsRemaining: &b.TapsRemaining,
		})
	}
	return nil
}

func (p *Poller) pollTransactions(ctx context.Context) error {
	resp, err := p.src.GetTransactions(ctx, api.PageOptions{Page: 1, Limit: p.cfg.PageSize})
	if err != nil {
		return err
	}

	txs := make([]store.Transaction, 0, len(resp.Transactions))
	for _, t := range resp.Transactions {
		txs = append(txs, store.Transaction{
			ID:        t.ID,
			Type:      store.TransactionType(t.Type),
			Amount:    t.Amount,
			Reason:    t.Description,
			Timestamp: t.CreatedAt,
		})
	}
	p.stores.Transactions.SetTransactions(txs)
	return nil
}

func (p *Poller) pollWithdrawals(ctx context.Context) error {
	resp, err := p.src.GetWithdrawals(ctx, api.PageOptions{Page: 1, Limit: p.cfg.PageSize})
	if err != nil {
		return err
	}

	ws := make([]store.Withdrawal, 0, len(resp.Withdrawals))
	for _, w := range resp.Withdrawals {
		ws = append(ws, store.Withdrawal{
			ID:        w.ID,
			Amount:    w.Amount,
			AmountINR: w.AmountINR,
			UPIID:     w.UPIID,
			Method:    "upi",
			Status:    w.Status,
			CreatedAt: w.CreatedAt,
			UpdatedAt: w.UpdatedAt,
		})
	}
	p.stores.Transactions.SetWithdrawals(ws)
	return nil
}

func (p *Poller) pollReferrals(ctx context.Context) error {
	stats, err := p.src.GetReferralStats(ctx)
	if err != nil {
		return err
	}

	p.stores.Referrals.SetStats(stats.Count, stats.Rewards, stats.History)

	unlocked := p.stores.Referrals.UnlockAchievements(p.now())
	if len(unlocked) == 0 {
		return nil
	}
	p.logger.Info("referral achievements unlocked", "count", len(unlocked))
	return p.src.ReportAchievements(ctx, unlocked)
}

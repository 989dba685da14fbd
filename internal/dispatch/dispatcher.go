package dispatch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/tapsync/internal/events"
	"github.com/rickgao/tapsync/internal/store"
)

// AdRewardReason is the transaction reason recorded for ad rewards.
const AdRewardReason = "ad_reward"

// Source is where the dispatcher subscribes. connection.Socket satisfies it.
type Source interface {
	On(t events.Type, h events.Handler) events.ListenerID
	Off(t events.Type, id events.ListenerID) bool
	Has(t events.Type, id events.ListenerID) bool
}

// Stores groups the containers the dispatcher writes to.
type Stores struct {
	Auth         *store.Auth
	Game         *store.Game
	Achievements *store.Achievements
	Transactions *store.Transactions
	System       *store.System
}

type binding struct {
	t  events.Type
	id events.ListenerID
}

// Dispatcher translates inbound events into container mutations.
type Dispatcher struct {
	src    Source
	stores Stores
	logger *slog.Logger
	newID  func() string

	mu       sync.Mutex
	bindings []binding
}

// New creates a dispatcher. Nothing is subscribed until Setup.
func New(src Source, stores Stores, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		src:    src,
		stores: stores,
		logger: logger.With("component", "dispatcher"),
		newID:  uuid.NewString,
	}
}

// Setup subscribes one handler per event tag. Calling it again while bound
// only replaces bindings the source has dropped, e.g. after the socket was
// disconnected. It returns the number of subscriptions made.
func (d *Dispatcher) Setup() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	handlers := d.handlers()
	if d.bindings == nil {
		d.bindings = make([]binding, len(handlers))
	}

	made := 0
	for i, h := range handlers {
		b := d.bindings[i]
		if b.id != 0 && d.src.Has(b.t, b.id) {
			continue
		}
		d.bindings[i] = binding{t: h.t, id: d.src.On(h.t, h.fn)}
		made++
	}

	if made > 0 {
		d.logger.Debug("event handlers bound", "count", made)
	}
	return made
}

// Teardown removes every subscription Setup made and returns how many
// were still attached.
func (d *Dispatcher) Teardown() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, b := range d.bindings {
		if d.src.Off(b.t, b.id) {
			n++
		}
	}
	d.bindings = nil

	if n > 0 {
		d.logger.Debug("event handlers released", "count", n)
	}
	return n
}

// Bound reports whether every subscription Setup made is still attached.
func (d *Dispatcher) Bound() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bindings == nil {
		return false
	}
	for _, b := range d.bindings {
		if !d.src.Has(b.t, b.id) {
			return false
		}
	}
	return true
}

type handler struct {
	t  events.Type
	fn events.Handler
}

func (d *Dispatcher) handlers() []handler {
	return []handler{
		{events.TypeUserUpdate, on(d, d.userUpdate)},
		{events.TypeUserLevelUp, on(d, d.levelUp)},
		{events.TypeUserAchievement, on(d, d.achievement)},
		{events.TypeCoinsUpdate, on(d, d.coinsUpdate)},
		{events.TypeWithdrawalStatus, on(d, d.withdrawalStatus)},
		{events.TypeAdReward, on(d, d.adReward)},
		{events.TypeAdImpression, on(d, d.adImpression)},
		{events.TypeAdClick, on(d, d.adClick)},
		{events.TypeSystemMaintenance, on(d, d.maintenance)},
		{events.TypeSystemUpdate, on(d, d.systemUpdate)},
		{events.TypeConnectionFailed, on(d, d.connectionFailed)},
	}
}

// on adapts a typed handler to events.Handler. Payloads of the wrong type
// are logged and dropped.
func on[T events.Event](d *Dispatcher, fn func(T)) events.Handler {
	return func(ev events.Event) {
		v, ok := ev.(T)
		if !ok {
			d.logger.Warn("unexpected payload", "event", ev.EventType())
			return
		}
		fn(v)
	}
}

func (d *Dispatcher) userUpdate(ev events.UserUpdate) {
	d.stores.Auth.UpdateUser(store.UserPatch{
		ID:            ev.ID,
		Username:      ev.Username,
		Level:         ev.Level,
		CoinBalance:   ev.CoinBalance,
		TapsRemaining: ev.TapsRemaining,
	})
}

func (d *Dispatcher) levelUp(ev events.LevelUp) {
	g := d.stores.Game
	g.SetLevel(ev.Level)
	g.SetExperience(ev.Experience)
	g.SetExperienceToNext(ev.ExperienceToNext)

	if ev.Rewards != nil {
		g.AddCoins(ev.Rewards.Coins)
		g.AddItems(ev.Rewards.Items)
	}
}

func (d *Dispatcher) achievement(ev events.Achievement) {
	d.stores.Achievements.Add(store.Achievement{
		ID:          ev.ID,
		Name:        ev.Name,
		Description: ev.Description,
		Icon:        ev.Icon,
		UnlockedAt:  ev.UnlockedAt,
	})
}

func (d *Dispatcher) coinsUpdate(ev events.CoinsUpdate) {
	d.stores.Game.SetCoins(ev.Balance)
	d.stores.Transactions.Add(store.Transaction{
		ID:        d.newID(),
		Type:      store.Credit,
		Amount:    ev.Change,
		Reason:    ev.Reason,
		Timestamp: ev.Timestamp,
	})
}

func (d *Dispatcher) withdrawalStatus(ev events.WithdrawalStatus) {
	if !d.stores.Transactions.UpdateWithdrawalStatus(ev.ID, string(ev.Status), ev.Timestamp) {
		d.logger.Debug("withdrawal not loaded", "withdrawal_id", ev.ID, "status", ev.Status)
	}
}

func (d *Dispatcher) adReward(ev events.AdReward) {
	d.stores.Game.AddCoins(ev.Amount)
	d.stores.Transactions.Add(store.Transaction{
		ID:        ev.ID,
		Type:      store.Credit,
		Amount:    ev.Amount,
		Reason:    AdRewardReason,
		Timestamp: ev.Timestamp,
	})
}

func (d *Dispatcher) adImpression(events.AdImpression) {
	d.stores.Game.RecordAdImpression()
}

func (d *Dispatcher) adClick(events.AdClick) {
	d.stores.Game.RecordAdClick()
}

func (d *Dispatcher) maintenance(ev events.SystemMaintenance) {
	d.stores.System.SetMaintenance(store.Maintenance{Start: ev.StartTime, End: ev.End()})
	d.logger.Info("maintenance announced",
		"start", ev.StartTime.Format(time.RFC3339),
		"duration", time.Duration(ev.Duration)*time.Second,
	)
}

func (d *Dispatcher) systemUpdate(ev events.SystemUpdate) {
	d.stores.System.SetAvailableUpdate(store.Update{Version: ev.Version, Changes: ev.Changes})
}

func (d *Dispatcher) connectionFailed(ev events.ConnectionFailed) {
	d.stores.System.SetConnectionFailed(ev.Attempts)
}

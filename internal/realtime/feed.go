package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/rickgao/tapsync/internal/events"
)

// ErrNoUser is returned by Run without a user id.
var ErrNoUser = errors.New("realtime: user id is required")

// Sink receives translated events. connection.Socket implements it, so feed
// events reach the same listeners as socket events.
type Sink interface {
	Deliver(ev events.Event) int
}

// Hydrator reloads state that may have changed while the feed was not
// subscribed.
type Hydrator interface {
	Hydrate(ctx context.Context, userID string) error
}

// FeedStats counts notifications by outcome.
type FeedStats struct {
	Received     int64
	Delivered    int64 // events, not notifications
	Dropped      int64
	Resubscribes int64
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithHydrator sets the hydrator run after every subscribe.
func WithHydrator(h Hydrator) FeedOption {
	return func(f *Feed) { f.hydrator = h }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FeedOption {
	return func(f *Feed) { f.logger = logger }
}

// WithRetryDelays sets the resubscribe backoff bounds.
func WithRetryDelays(base, maxDelay time.Duration) FeedOption {
	return func(f *Feed) {
		f.retryBase = base
		f.retryMax = maxDelay
	}
}

// Feed delivers the signed-in user's row changes to a Sink.
type Feed struct {
	connect  Connector
	sink     Sink
	hydrator Hydrator
	logger   *slog.Logger

	retryBase time.Duration
	retryMax  time.Duration
	sleep     func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	stats FeedStats
}

// NewFeed creates a Feed. Nothing connects until Run.
func NewFeed(connect Connector, sink Sink, opts ...FeedOption) *Feed {
	f := &Feed{
		connect:   connect,
		sink:      sink,
		logger:    slog.Default(),
		retryBase: time.Second,
		retryMax:  30 * time.Second,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "realtime")
	return f
}

// Run listens for userID's changes until ctx is done, resubscribing with
// exponential backoff whenever the connection is lost. It returns nil on
// cancellation.
func (f *Feed) Run(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNoUser
	}

	q := newQueue[Notification](64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.deliverLoop(q)
	}()
	defer func() {
		q.close()
		wg.Wait()
	}()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryBase
	b.MaxInterval = f.retryMax
	b.Reset()

	for {
		subscribed, err := f.listen(ctx, userID, q)
		if ctx.Err() != nil {
			f.logger.Info("realtime feed stopped")
			return nil
		}
		if subscribed {
			b.Reset()
		}

		delay := b.NextBackOff()
		f.logger.Warn("realtime feed interrupted, resubscribing",
			"error", err,
			"delay", delay,
		)
		f.mu.Lock()
		f.stats.Resubscribes++
		f.mu.Unlock()

		if err := f.sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

// Stats returns the current counters.
func (f *Feed) Stats() FeedStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

// listen subscribes one connection and pumps its notifications into q until
// it fails. subscribed reports whether every LISTEN succeeded.
func (f *Feed) listen(ctx context.Context, userID string, q *queue[Notification]) (subscribed bool, err error) {
	l, err := f.connect(ctx)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer l.Close()

	for _, ch := range Channels(userID) {
		if err := l.Listen(ctx, ch); err != nil {
			return false, fmt.Errorf("listen %s: %w", ch, err)
		}
	}
	f.logger.Info("realtime feed subscribed", "user_id", userID)

	if f.hydrator != nil {
		if err := f.hydrator.Hydrate(ctx, userID); err != nil {
			f.logger.Warn("hydrate after subscribe failed", "error", err)
		}
	}

	for {
		n, err := l.WaitForNotification(ctx)
		if err != nil {
			return true, fmt.Errorf("wait for notification: %w", err)
		}
		f.mu.Lock()
		f.stats.Received++
		f.mu.Unlock()
		q.push(n)
	}
}

func (f *Feed) deliverLoop(q *queue[Notification]) {
	for {
		n, ok := q.pop()
		if !ok {
			return
		}
		delivered := f.handle(n)

		f.mu.Lock()
		if delivered < 0 {
			f.stats.Dropped++
		} else {
			f.stats.Delivered += int64(delivered)
		}
		f.mu.Unlock()
	}
}

// handle translates one notification and delivers its events. It returns
// the number of events delivered, or -1 if the notification was dropped.
func (f *Feed) handle(n Notification) int {
	c, err := ParseChange(n.Payload)
	if err != nil {
		f.logger.Warn("dropping notification", "channel", n.Channel, "error", err)
		return -1
	}
	if want := tableOf(n.Channel); c.Table != want {
		f.logger.Warn("dropping notification for foreign table",
			"channel", n.Channel,
			"table", c.Table,
		)
		return -1
	}

	evs, err := Translate(c)
	if err != nil {
		f.logger.Warn("dropping untranslatable change", "table", c.Table, "error", err)
		return -1
	}

	delivered := 0
	for _, ev := range evs {
		if err := events.Validate(ev); err != nil {
			f.logger.Warn("dropping invalid event", "error", err)
			continue
		}
		f.sink.Deliver(ev)
		delivered++
	}
	return delivered
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

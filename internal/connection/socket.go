package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cenkalti/backoff/v5"

	"github.com/rickgao/tapsync/internal/events"
)

// Option configures a Socket.
type Option func(*Socket)

// WithDialer replaces the websocket client factory.
func WithDialer(d DialFunc) Option {
	return func(s *Socket) { s.newClient = d }
}

// WithScheduler replaces the reconnect timer source.
func WithScheduler(sched Scheduler) Option {
	return func(s *Socket) { s.sched = sched }
}

// WithSessionExpirer sets who is told when the server rejects the session.
func WithSessionExpirer(e SessionExpirer) Option {
	return func(s *Socket) { s.expirer = e }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Socket) { s.logger = logger }
}

// WithStateObserver registers fn to be called after every state change.
// fn runs without the socket lock held.
func WithStateObserver(fn func(State)) Option {
	return func(s *Socket) { s.observe = fn }
}

// pendingReconnect is the single scheduled reconnect.
type pendingReconnect struct {
	timer Timer
}

// Socket owns at most one live event connection and reconnects it with
// capped exponential backoff. Listeners live in a registry that outlives
// individual connections.
type Socket struct {
	cfg       SocketConfig
	tokens    TokenSource
	expirer   SessionExpirer
	newClient DialFunc
	sched     Scheduler
	logger    *slog.Logger
	observe   func(State)

	listeners *events.Registry

	mu         sync.Mutex
	client     Client
	state      State
	connecting bool
	attempts   int
	backoff    *backoff.ExponentialBackOff
	pending    *pendingReconnect
	gen        uint64 // bumped on teardown; stale dials, timers and pumps compare against it
}

// NewSocket creates a disconnected socket. tokens is consulted on every dial.
func NewSocket(cfg SocketConfig, tokens TokenSource, opts ...Option) *Socket {
	def := DefaultSocketConfig()
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.ReconnectMultiplier < 1 {
		cfg.ReconnectMultiplier = def.ReconnectMultiplier
	}
	if cfg.ReconnectMaxDelay < cfg.ReconnectBaseDelay {
		cfg.ReconnectMaxDelay = max(def.ReconnectMaxDelay, cfg.ReconnectBaseDelay)
	}

	s := &Socket{
		cfg:       cfg,
		tokens:    tokens,
		newClient: NewClient,
		sched:     realScheduler{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "socket")
	s.listeners = events.NewRegistry(s.logger)

	s.backoff = backoff.NewExponentialBackOff()
	s.backoff.InitialInterval = cfg.ReconnectBaseDelay
	s.backoff.Multiplier = cfg.ReconnectMultiplier
	s.backoff.MaxInterval = cfg.ReconnectMaxDelay
	s.backoff.RandomizationFactor = 0
	s.backoff.Reset()

	return s
}

// Connect opens the event connection. It is a no-op while connected, while a
// dial is in flight or while a reconnect is pending. Without a token it logs,
// creates no transport and returns ErrNoToken. A failed dial schedules a
// reconnect and returns the dial error.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.client != nil || s.connecting || s.pending != nil {
		s.mu.Unlock()
		return nil
	}
	s.connecting = true
	s.state = StateConnecting
	gen := s.gen
	s.mu.Unlock()

	s.notify(StateConnecting)
	return s.open(ctx, gen)
}

// Disconnect closes the connection, cancels any pending reconnect and
// removes every listener.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	c := s.client
	s.resetLocked()
	s.state = StateDisconnected
	s.mu.Unlock()

	s.listeners.Clear()
	if c != nil {
		c.Close()
		s.logger.Info("socket disconnected")
	}
	s.notify(StateDisconnected)
}

// SetOffline drops the transport immediately. Listeners stay registered.
func (s *Socket) SetOffline() {
	s.mu.Lock()
	c := s.client
	s.resetLocked()
	s.state = StateDisconnected
	s.mu.Unlock()

	if c != nil {
		c.Close()
	}
	s.logger.Info("network offline, socket closed")
	s.notify(StateDisconnected)
}

// SetOnline dials immediately, cancelling any pending backoff wait.
func (s *Socket) SetOnline(ctx context.Context) error {
	s.mu.Lock()
	s.cancelPendingLocked()
	if s.client != nil || s.connecting {
		s.mu.Unlock()
		return nil
	}
	s.connecting = true
	s.state = StateConnecting
	gen := s.gen
	s.mu.Unlock()

	s.logger.Info("network online, reconnecting")
	s.notify(StateConnecting)
	return s.open(ctx, gen)
}

// On registers h for events of type t. Listeners registered before a
// connection exists receive events once one is established.
func (s *Socket) On(t events.Type, h events.Handler) events.ListenerID {
	return s.listeners.Subscribe(t, h)
}

// Off removes the listener registered under id.
func (s *Socket) Off(t events.Type, id events.ListenerID) bool {
	return s.listeners.Unsubscribe(t, id)
}

// Has reports whether the listener registered under id is still attached.
// Disconnect detaches every listener.
func (s *Socket) Has(t events.Type, id events.ListenerID) bool {
	return s.listeners.Has(t, id)
}

// Emit sends an event to the server. Nothing is queued: when not connected
// the event is dropped and ErrNotConnected returned.
func (s *Socket) Emit(t events.Type, payload any) error {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()

	if c == nil || !c.IsConnected() {
		s.logger.Warn("socket not connected, dropping event", "event", t)
		return ErrNotConnected
	}

	frame, err := events.Encode(t, payload)
	if err != nil {
		return err
	}
	if err := c.Send(frame); err != nil {
		return fmt.Errorf("emit %s: %w", t, err)
	}
	return nil
}

// Deliver dispatches a locally produced event to the registered listeners as
// if it had arrived on the connection. It returns the number of listeners run.
func (s *Socket) Deliver(ev events.Event) int {
	return s.listeners.Dispatch(ev)
}

// IsConnected reports whether a live transport exists.
func (s *Socket) IsConnected() bool {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()
	return c != nil && c.IsConnected()
}

// State returns the current lifecycle state.
func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts returns the number of consecutive failed connection attempts.
func (s *Socket) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// open fetches a token and dials. gen is the generation the caller
// observed when it claimed the connecting flag.
func (s *Socket) open(ctx context.Context, gen uint64) error {
	token, err := s.tokens.AccessToken(ctx)
	if err == nil && token == "" {
		err = ErrNoToken
	} else if err != nil {
		err = fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	if err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.connecting = false
			s.state = StateDisconnected
		}
		s.mu.Unlock()
		s.logger.Warn("no auth token, not connecting", "error", err)
		s.notify(StateDisconnected)
		return err
	}

	cfg := s.cfg.Client
	cfg.Token = token
	c := s.newClient(cfg, s.logger)
	err = c.Connect(ctx)

	s.mu.Lock()
	if s.gen != gen {
		// Torn down while dialing.
		s.mu.Unlock()
		c.Close()
		return nil
	}
	s.connecting = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("socket connect failed", "error", err)
		s.fail(gen, err)
		return fmt.Errorf("connect socket: %w", err)
	}
	s.client = c
	s.attempts = 0
	s.backoff.Reset()
	s.state = StateConnected
	s.mu.Unlock()

	s.logger.Info("socket connected", "url", cfg.URL)
	s.notify(StateConnected)

	go s.pump(gen, c)
	return nil
}

// fail handles a dial error or a lost connection.
func (s *Socket) fail(gen uint64, err error) {
	if errors.Is(err, ErrUnauthorized) {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.resetLocked()
		s.state = StateDisconnected
		s.mu.Unlock()

		s.logger.Warn("socket session rejected, logging out", "error", err)
		s.notify(StateDisconnected)
		if s.expirer != nil {
			if lerr := s.expirer.Logout(context.Background()); lerr != nil {
				s.logger.Error("logout failed", "error", lerr)
			}
		}
		return
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.client = nil
	s.attempts++
	attempts := s.attempts

	if attempts >= s.cfg.MaxReconnectAttempts {
		s.attempts = 0
		s.backoff.Reset()
		s.state = StateFailed
		s.mu.Unlock()

		s.logger.Error("socket reconnection failed, giving up",
			"attempts", attempts,
			"error", err,
		)
		s.notify(StateFailed)
		s.listeners.Dispatch(events.ConnectionFailed{
			Error:    "Failed to connect to server",
			Attempts: attempts,
		})
		return
	}

	delay := s.backoff.NextBackOff()
	p := &pendingReconnect{}
	p.timer = s.sched.AfterFunc(delay, func() { s.reconnect(p) })
	s.pending = p
	s.state = StateReconnecting
	s.mu.Unlock()

	s.logger.Info("socket reconnect scheduled",
		"attempt", attempts,
		"delay", delay,
	)
	s.notify(StateReconnecting)
}

// reconnect runs when the backoff timer p fires.
func (s *Socket) reconnect(p *pendingReconnect) {
	s.mu.Lock()
	if s.pending != p {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.connecting = true
	gen := s.gen
	s.mu.Unlock()

	ctx := context.Background()
	if d := s.cfg.Client.DialTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	s.open(ctx, gen)
}

// pump delivers frames from c to listeners until c dies or is closed.
func (s *Socket) pump(gen uint64, c Client) {
	for {
		select {
		case msg := <-c.Messages():
			s.handleFrame(msg)
		case err := <-c.Errors():
			s.drain(c)
			c.Close()
			s.logger.Warn("socket connection lost", "error", err)
			s.listeners.Dispatch(events.SocketError{Message: err.Error()})
			s.fail(gen, err)
			return
		case <-c.Done():
			return
		}
	}
}

// drain delivers frames that arrived before the connection error.
func (s *Socket) drain(c Client) {
	for {
		select {
		case msg := <-c.Messages():
			s.handleFrame(msg)
		default:
			return
		}
	}
}

func (s *Socket) handleFrame(msg TimestampedMessage) {
	ev, err := events.DecodeFrame(msg.Data)
	if err != nil {
		if errors.Is(err, events.ErrUnknownEvent) {
			s.logger.Debug("ignoring unknown event", "error", err)
		} else {
			s.logger.Warn("dropping invalid frame", "error", err)
		}
		return
	}
	s.listeners.Dispatch(ev)
}

// resetLocked tears down connection state and invalidates in-flight work.
func (s *Socket) resetLocked() {
	s.gen++
	s.client = nil
	s.connecting = false
	s.attempts = 0
	s.backoff.Reset()
	s.cancelPendingLocked()
}

func (s *Socket) cancelPendingLocked() {
	if s.pending != nil {
		s.pending.timer.Stop()
		s.pending = nil
	}
}

func (s *Socket) notify(st State) {
	if s.observe != nil {
		s.observe(st)
	}
}

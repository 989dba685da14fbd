package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/tapsync/internal/api"
	"github.com/rickgao/tapsync/internal/auth"
	"github.com/rickgao/tapsync/internal/config"
	"github.com/rickgao/tapsync/internal/connection"
	"github.com/rickgao/tapsync/internal/database"
	"github.com/rickgao/tapsync/internal/dispatch"
	"github.com/rickgao/tapsync/internal/poller"
	"github.com/rickgao/tapsync/internal/realtime"
	"github.com/rickgao/tapsync/internal/session"
	"github.com/rickgao/tapsync/internal/store"
	"github.com/rickgao/tapsync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/tapclient.yaml", "path to config file")
	initData := flag.String("init-data", os.Getenv("TAPSYNC_INIT_DATA"), "Telegram WebApp init data to sign in with")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting tapclient",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)
	logger.Info("configuration loaded",
		"app", cfg.App.Name,
		"api_url", cfg.API.RestURL,
		"socket_url", cfg.Socket.URL,
		"realtime", cfg.Realtime.Enabled,
	)

	if err := run(cfg, *initData, logger); err != nil {
		logger.Error("tapclient stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("tapclient stopped")
}

// run wires every component and blocks until a shutdown signal or the end
// of the session.
func run(cfg *config.ClientConfig, initData string, logger *slog.Logger) error {
	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open session store
	sessions, err := openSessions(cfg.Session)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer sessions.Close()
	tokens := session.NewTokens(sessions)

	stores := newStores(cfg.App)

	// Create API client. The auth service is created below; the client
	// only calls back into it once a request runs.
	var authSvc *auth.Service
	apiClient := api.NewClient(
		cfg.API.RestURL,
		tokens,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		api.WithTokenRefreshed(func(_ context.Context, token string) {
			stores.auth.SetToken(token)
		}),
		api.WithSessionExpired(func(ctx context.Context) {
			if err := authSvc.Logout(ctx); err != nil {
				logger.Error("logout failed", "error", err)
			}
		}),
	)
	authSvc = auth.NewService(apiClient, tokens, stores.auth, auth.WithLogger(logger))

	// Create event socket and bind the dispatcher before connecting
	sock := connection.NewSocket(
		connection.SocketConfigFrom(cfg.Socket),
		tokens,
		connection.WithLogger(logger),
		connection.WithSessionExpirer(authSvc),
		connection.WithStateObserver(func(st connection.State) {
			logger.Debug("socket state changed", "state", st)
			if st == connection.StateConnected {
				stores.system.ClearConnectionFailed()
			}
		}),
	)
	dispatcher := dispatch.New(sock, dispatch.Stores{
		Auth:         stores.auth,
		Game:         stores.game,
		Achievements: stores.achievements,
		Transactions: stores.transactions,
		System:       stores.system,
	}, logger)
	logger.Info("dispatcher bound", "handlers", dispatcher.Setup())

	// Sign in
	if err := signIn(ctx, authSvc, initData); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	user := stores.auth.Snapshot().User
	if user == nil {
		return errors.New("signed in without a user profile")
	}
	logger.Info("signed in", "user_id", user.ID, "username", user.Username)

	if code, err := apiClient.GetReferralCode(ctx); err != nil {
		logger.Warn("failed to load referral code", "error", err)
	} else {
		logger.Debug("referral link", "link", stores.referrals.SetCode(code))
	}

	g, gctx := errgroup.WithContext(ctx)

	// A logout ends the session for this process
	sessionCtx, endSession := context.WithCancel(gctx)
	defer endSession()
	authSvc.OnLogout(func(context.Context) {
		logger.Warn("session ended")
		sock.Disconnect()
		endSession()
	})

	if err := startSocket(sessionCtx, sock, logger); err != nil {
		return err
	}

	// Start REST reconciliation
	poll := poller.New(poller.Config{
		Interval: cfg.Poller.Interval,
		Timeout:  cfg.Poller.Timeout,
	}, apiClient, poller.Stores{
		Auth:         stores.auth,
		Game:         stores.game,
		Transactions: stores.transactions,
		Referrals:    stores.referrals,
		System:       stores.system,
	}, logger)
	poll.OnConnectivity(connectivityHandler(sessionCtx, sock, logger))
	if err := poll.Start(sessionCtx); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}

	// Start realtime feed
	var feed *realtime.Feed
	if cfg.Realtime.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Realtime.Database.Host,
			"port", cfg.Realtime.Database.Port,
			"database", cfg.Realtime.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Realtime.Database)
		if err != nil {
			endSession()
			sock.Disconnect()
			poll.Stop(context.Background())
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		feed = realtime.NewFeed(realtime.PoolConnector(pool), sock,
			realtime.WithLogger(logger),
			realtime.WithHydrator(&realtime.StoreHydrator{
				Profiles:     database.NewProfiles(pool),
				Auth:         stores.auth,
				Game:         stores.game,
				Transactions: stores.transactions,
				Achievements: stores.achievements,
			}),
		)
		g.Go(func() error {
			return feed.Run(sessionCtx, user.ID)
		})
	}

	// Start status server
	if cfg.Status.Port > 0 {
		statusServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Status.Port),
			Handler:           newStatusHandler(sock, feed, stores),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("starting status server", "port", cfg.Status.Port)
			if err := statusServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-sessionCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return statusServer.Shutdown(shutdownCtx)
		})
	}

	logger.Info("tapclient running", "socket_state", sock.State())

	// Wait for shutdown or session end
	<-sessionCtx.Done()

	logger.Info("shutting down...")

	dispatcher.Teardown()
	sock.Disconnect()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := poll.Stop(shutdownCtx); err != nil {
		logger.Warn("poller did not stop cleanly", "error", err)
	}

	return g.Wait()
}

// socketConnector is the part of the socket startSocket drives.
type socketConnector interface {
	Connect(ctx context.Context) error
}

// startSocket opens the event socket. Only a missing token is fatal: a
// failed dial has already been scheduled for retry, and an exhausted retry
// budget surfaces as connection:failed.
func startSocket(ctx context.Context, sock socketConnector, logger *slog.Logger) error {
	err := sock.Connect(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, connection.ErrNoToken):
		return fmt.Errorf("connect socket: %w", err)
	default:
		logger.Warn("socket not connected yet, retrying in background", "error", err)
		return nil
	}
}

// networkSwitch is the part of the socket driven by connectivity changes.
type networkSwitch interface {
	SetOffline()
	SetOnline(ctx context.Context) error
}

// connectivityHandler drops the socket while the network is unreachable and
// redials as soon as it is back.
func connectivityHandler(ctx context.Context, sock networkSwitch, logger *slog.Logger) func(online bool) {
	return func(online bool) {
		if !online {
			logger.Warn("network unreachable, pausing socket")
			sock.SetOffline()
			return
		}
		logger.Info("network reachable, resuming socket")
		if err := sock.SetOnline(ctx); err != nil {
			logger.Warn("socket not reconnected yet", "error", err)
		}
	}
}

// appStores are the state containers shared by every component.
type appStores struct {
	auth         *store.Auth
	game         *store.Game
	achievements *store.Achievements
	transactions *store.Transactions
	referrals    *store.Referrals
	system       *store.System
}

func newStores(cfg config.AppConfig) appStores {
	return appStores{
		auth:         store.NewAuth(""),
		game:         store.NewGame(),
		achievements: store.NewAchievements(),
		transactions: store.NewTransactions(),
		referrals:    store.NewReferrals(cfg.BotUsername),
		system:       store.NewSystem(),
	}
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openSessions opens the SQLite session store, or an in-memory one when no
// path is configured.
func openSessions(cfg config.SessionConfig) (session.Store, error) {
	if cfg.Path == "" {
		return session.NewMemoryStore(), nil
	}
	return session.Open(cfg.Path)
}

// signIn logs in with initData when given, otherwise resumes the stored
// session.
func signIn(ctx context.Context, svc *auth.Service, initData string) error {
	if initData != "" {
		return svc.Login(ctx, initData)
	}
	ok, err := svc.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no stored session; pass -init-data")
	}
	return nil
}

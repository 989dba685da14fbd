package main

import (
	"encoding/json"
	"net/http"

	"github.com/rickgao/tapsync/internal/connection"
	"github.com/rickgao/tapsync/internal/realtime"
	"github.com/rickgao/tapsync/internal/version"
)

// socketStatus is the part of the socket the status endpoint reports.
type socketStatus interface {
	State() connection.State
	Attempts() int
}

// feedStatus is the part of the realtime feed the status endpoint reports.
type feedStatus interface {
	Stats() realtime.FeedStats
}

// newStatusHandler creates the HTTP handler for the local status endpoint.
// feed may be nil when the realtime feed is disabled.
func newStatusHandler(sock socketStatus, feed *realtime.Feed, stores appStores) http.Handler {
	var fs feedStatus
	if feed != nil {
		fs = feed
	}
	return statusMux(sock, fs, stores)
}

func statusMux(sock socketStatus, feed feedStatus, stores appStores) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status     string         `json:"status"`
			Version    version.Info   `json:"version"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Version:    version.Get(),
			Components: make(map[string]any),
		}

		// Check socket
		st := sock.State()
		health.Components["socket"] = map[string]any{
			"state":    st.String(),
			"attempts": sock.Attempts(),
		}
		switch st {
		case connection.StateFailed:
			health.Status = "unhealthy"
		case connection.StateConnected:
		default:
			health.Status = "degraded"
		}

		// Check session
		if !stores.auth.Snapshot().Authenticated() {
			health.Status = "unhealthy"
			health.Components["session"] = "signed_out"
		} else {
			health.Components["session"] = "signed_in"
		}

		if feed != nil {
			health.Components["realtime"] = feed.Stats()
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("GET /debug/state", func(w http.ResponseWriter, r *http.Request) {
		auth := stores.auth.Snapshot()
		auth.Token = ""

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"auth":         auth,
			"game":         stores.game.Snapshot(),
			"achievements": stores.achievements.List(),
			"transactions": stores.transactions.Snapshot(),
			"referrals":    stores.referrals.Snapshot(),
			"system":       stores.system.Snapshot(),
		})
	})

	return mux
}

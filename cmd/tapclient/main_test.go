package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/rickgao/tapsync/internal/connection"
)

type stubConnector struct{ err error }

func (s stubConnector) Connect(context.Context) error { return s.err }

func TestStartSocket(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"connected", nil, false},
		{"dial failed, retry scheduled", fmt.Errorf("connect socket: %w", errors.New("connection refused")), false},
		{"auth rejected", fmt.Errorf("connect socket: %w", connection.ErrUnauthorized), false},
		{"no token", connection.ErrNoToken, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := startSocket(context.Background(), stubConnector{err: tt.err}, slog.Default())
			if (err != nil) != tt.wantErr {
				t.Fatalf("startSocket() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, connection.ErrNoToken) {
				t.Errorf("error = %v, want ErrNoToken", err)
			}
		})
	}
}

type recordingSwitch struct {
	calls []string
}

func (s *recordingSwitch) SetOffline() { s.calls = append(s.calls, "offline") }

func (s *recordingSwitch) SetOnline(context.Context) error {
	s.calls = append(s.calls, "online")
	return errors.New("dial failed")
}

func TestConnectivityHandler(t *testing.T) {
	sw := &recordingSwitch{}
	h := connectivityHandler(context.Background(), sw, slog.Default())

	h(false)
	h(true)

	if len(sw.calls) != 2 || sw.calls[0] != "offline" || sw.calls[1] != "online" {
		t.Errorf("calls = %v, want [offline online]", sw.calls)
	}
}

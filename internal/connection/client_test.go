package connection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testClientConfig(server *httptest.Server) ClientConfig {
	return ClientConfig{
		URL:          wsURL(server),
		Token:        "test-token",
		DialTimeout:  time.Second,
		PingTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   100,
	}
}

func readUntilClosed(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestClient_Connect(t *testing.T) {
	server := mockWSServer(t, readUntilClosed)
	defer server.Close()

	client := NewClient(testClientConfig(server), nil)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if !client.IsConnected() {
		t.Error("expected IsConnected to return true")
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if client.IsConnected() {
		t.Error("expected IsConnected to return false after Close")
	}

	select {
	case <-client.Done():
	default:
		t.Error("Done not closed after Close")
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	var mu sync.Mutex

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = r.Header.Get("Authorization")
		mu.Unlock()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		readUntilClosed(conn)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	mu.Lock()
	defer mu.Unlock()
	if got != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer test-token")
	}
}

func TestClient_HandshakeUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := NewClient(testClientConfig(server), nil)
		err := client.Connect(context.Background())
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("status %d: err = %v, want ErrUnauthorized", status, err)
		}
		server.Close()
	}
}

func TestClient_HandshakeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server), nil)
	err := client.Connect(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Errorf("500 classified as unauthorized: %v", err)
	}
}

func TestClient_CloseCodeUnauthorized(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		wantAuth bool
	}{
		{"session expired", CloseSessionExpired, true},
		{"policy violation", websocket.ClosePolicyViolation, true},
		{"going away", websocket.CloseGoingAway, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockWSServer(t, func(conn *websocket.Conn) {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(tt.code, "bye"))
				time.Sleep(100 * time.Millisecond)
			})
			defer server.Close()

			client := NewClient(testClientConfig(server), nil)
			if err := client.Connect(context.Background()); err != nil {
				t.Fatalf("Connect failed: %v", err)
			}
			defer client.Close()

			select {
			case err := <-client.Errors():
				if got := errors.Is(err, ErrUnauthorized); got != tt.wantAuth {
					t.Errorf("errors.Is(%v, ErrUnauthorized) = %v, want %v", err, got, tt.wantAuth)
				}
			case <-time.After(time.Second):
				t.Fatal("timeout waiting for error")
			}

			if client.IsConnected() {
				t.Error("expected IsConnected false after remote close")
			}
		})
	}
}

func TestClient_Send(t *testing.T) {
	var received []byte
	var mu sync.Mutex

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			received = msg
			mu.Unlock()
		}
	})
	defer server.Close()

	client := NewClient(testClientConfig(server), nil)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	testMsg := []byte(`{"event":"ad:click","data":{"id":"ad1"}}`)
	if err := client.Send(testMsg); err != nil {
		t.Errorf("Send failed: %v", err)
	}

	// Wait for message to be received
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if string(received) != string(testMsg) {
		t.Errorf("received %q, want %q", received, testMsg)
	}
}

func TestClient_Messages(t *testing.T) {
	testMessages := []string{
		`{"event":"coins:update","data":{"balance":1}}`,
		`{"event":"coins:update","data":{"balance":2}}`,
		`{"event":"coins:update","data":{"balance":3}}`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, msg := range testMessages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		// Keep connection open
		time.Sleep(time.Second)
	})
	defer server.Close()

	client := NewClient(testClientConfig(server), nil)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	var received []string
	timeout := time.After(500 * time.Millisecond)

	for i := 0; i < len(testMessages); i++ {
		select {
		case msg := <-client.Messages():
			received = append(received, string(msg.Data))
			if msg.ReceivedAt.IsZero() {
				t.Error("ReceivedAt should not be zero")
			}
		case <-timeout:
			t.Fatalf("timeout waiting for messages, received %d of %d", len(received), len(testMessages))
		}
	}

	for i, want := range testMessages {
		if received[i] != want {
			t.Errorf("message %d: got %q, want %q", i, received[i], want)
		}
	}
}

func TestClient_SendNotConnected(t *testing.T) {
	cfg := ClientConfig{
		URL:          "ws://localhost:12345",
		PingTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   100,
	}

	client := NewClient(cfg, nil)

	err := client.Send([]byte("test"))
	if err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestClient_ConnectAfterClose(t *testing.T) {
	client := NewClient(DefaultClientConfig(), nil)
	client.Close()

	if err := client.Connect(context.Background()); err != ErrAlreadyClosed {
		t.Errorf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestClient_DoubleClose(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})
	defer server.Close()

	client := NewClient(testClientConfig(server), nil)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// First close should succeed
	if err := client.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}

	// Second close should be no-op
	if err := client.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestClient_PingHandler(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		if err := conn.WriteControl(websocket.PingMessage, []byte("heartbeat"), time.Now().Add(time.Second)); err != nil {
			t.Logf("ping error: %v", err)
			return
		}
		time.Sleep(500 * time.Millisecond)
	})
	defer server.Close()

	client := NewClient(testClientConfig(server), nil)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	// Give time for ping to be processed
	time.Sleep(200 * time.Millisecond)

	if !client.IsConnected() {
		t.Error("expected client to be connected after ping")
	}
}

func TestClient_StaleConnection(t *testing.T) {
	// The server never answers pings: gorilla only replies to pings while a
	// read is in progress, so block without reading.
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})
	defer server.Close()

	cfg := testClientConfig(server)
	cfg.PingInterval = 20 * time.Millisecond
	cfg.PingTimeout = 50 * time.Millisecond

	client := NewClient(cfg, nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	select {
	case err := <-client.Errors():
		if !errors.Is(err, ErrStaleConnection) {
			t.Errorf("err = %v, want ErrStaleConnection", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for stale connection error")
	}
}

func TestDefaultConfigs(t *testing.T) {
	clientCfg := DefaultClientConfig()
	if clientCfg.PingTimeout != 60*time.Second {
		t.Errorf("PingTimeout = %v, want 60s", clientCfg.PingTimeout)
	}
	if clientCfg.BufferSize != 1000 {
		t.Errorf("BufferSize = %d, want 1000", clientCfg.BufferSize)
	}

	sockCfg := DefaultSocketConfig()
	if sockCfg.MaxReconnectAttempts != 5 {
		t.Errorf("MaxReconnectAttempts = %d, want 5", sockCfg.MaxReconnectAttempts)
	}
	if sockCfg.ReconnectBaseDelay != time.Second || sockCfg.ReconnectMaxDelay != 30*time.Second {
		t.Errorf("delays = %v/%v, want 1s/30s", sockCfg.ReconnectBaseDelay, sockCfg.ReconnectMaxDelay)
	}
	if sockCfg.ReconnectMultiplier != 1.5 {
		t.Errorf("ReconnectMultiplier = %v, want 1.5", sockCfg.ReconnectMultiplier)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateConnected:    "connected",
		StateReconnecting: "reconnecting",
		StateFailed:       "failed",
		State(99):         "unknown",
	}
	for st, want := range tests {
		if got := st.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", st, got, want)
		}
	}
}

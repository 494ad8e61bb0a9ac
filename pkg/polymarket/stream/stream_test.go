package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

func newTestServer(handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestFeedConnect(t *testing.T) {
	server := newTestServer(func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	config := DefaultConfig(wsURL(server))
	config.ReconnectEnabled = false

	var mu sync.Mutex
	var connected bool
	feed := New(config, Handlers{
		OnConnect: func() {
			mu.Lock()
			connected = true
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := feed.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer feed.Close()

	mu.Lock()
	if !connected {
		t.Error("OnConnect was not called")
	}
	mu.Unlock()

	if !feed.IsConnected() {
		t.Error("feed should be connected")
	}
	if feed.State() != StateConnected {
		t.Errorf("state = %v, want %v", feed.State(), StateConnected)
	}
}

func TestWatchSendsSubscription(t *testing.T) {
	subscribed := make(chan subscribeMessage, 1)
	server := newTestServer(func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg subscribeMessage
			if json.Unmarshal(data, &msg) == nil {
				subscribed <- msg
			}
		}
	})
	defer server.Close()

	config := DefaultConfig(wsURL(server))
	config.ReconnectEnabled = false

	feed := New(config, Handlers{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := feed.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer feed.Close()

	if err := feed.Watch("0xaaa", "0xbbb"); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	select {
	case msg := <-subscribed:
		if msg.Type != "market" {
			t.Errorf("subscribe type = %s, want market", msg.Type)
		}
		if len(msg.Markets) != 2 {
			t.Errorf("subscribed markets = %v", msg.Markets)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for subscribe message")
	}
}

func TestSettlementDelivery(t *testing.T) {
	server := newTestServer(func(conn *websocket.Conn) {
		// Wait for the watch list before emitting events.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}

		events := []wire{
			{EventType: "price_change", Market: "0xaaa", Price: "0.55"},
			{EventType: "market_resolved", Market: "0xother", Outcome: "Yes", Price: "1"},
			{EventType: "market_resolved", Market: "0xaaa", Outcome: "Yes", Price: "1", Timestamp: 1788300000000},
		}
		for _, ev := range events {
			data, _ := json.Marshal(ev)
			conn.WriteMessage(websocket.TextMessage, data)
		}
		time.Sleep(time.Second)
	})
	defer server.Close()

	config := DefaultConfig(wsURL(server))
	config.ReconnectEnabled = false

	feed := New(config, Handlers{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := feed.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer feed.Close()

	if err := feed.Watch("0xaaa"); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	select {
	case s := <-feed.Settlements():
		// Price changes and unwatched markets never surface.
		if s.ConditionID != "0xaaa" {
			t.Errorf("settlement for %s, want 0xaaa", s.ConditionID)
		}
		if s.Outcome != "YES" {
			t.Errorf("outcome = %s, want YES", s.Outcome)
		}
		if !s.FinalPrice.Equal(decimal.NewFromInt(1)) {
			t.Errorf("final price = %s, want 1", s.FinalPrice)
		}
		if s.At.IsZero() {
			t.Error("settlement time not set")
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for settlement")
	}

	select {
	case s := <-feed.Settlements():
		t.Errorf("unexpected extra settlement: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNormalizeOutcome(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Yes", "YES"},
		{"NO", "NO"},
		{" no ", "NO"},
		{"", "INVALID"},
		{"50-50", "INVALID"},
	}
	for _, tt := range tests {
		if got := normalizeOutcome(tt.in); got != tt.want {
			t.Errorf("normalizeOutcome(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFeedClose(t *testing.T) {
	server := newTestServer(func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	config := DefaultConfig(wsURL(server))
	config.ReconnectEnabled = false

	feed := New(config, Handlers{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := feed.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	feed.Close()
	if feed.State() != StateClosed {
		t.Errorf("state = %v, want %v", feed.State(), StateClosed)
	}
	if err := feed.Watch("0xaaa"); err != nil {
		// Watch after close just updates the list; no error expected
		// because the feed is no longer connected.
		t.Errorf("Watch after close: %v", err)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateReconnecting, "reconnecting"},
		{StateClosed, "closed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

// Package stream provides a websocket feed of market settlements with
// automatic reconnection. The backtest loop uses it to resolve logged
// predictions as soon as markets settle instead of polling Gamma.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// DefaultURL is the Polymarket market-channel websocket endpoint.
const DefaultURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

// State represents the connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Settlement is one market reaching a terminal outcome on the feed.
type Settlement struct {
	ConditionID string
	Outcome     string // YES, NO or INVALID
	FinalPrice  decimal.Decimal
	At          time.Time
}

// Handlers contains callback functions for feed events. All callbacks
// run on the feed's read goroutine and must not block.
type Handlers struct {
	OnConnect     func()
	OnDisconnect  func(err error)
	OnSettlement  func(Settlement)
	OnError       func(err error)
	OnStateChange func(old, new State)
}

// Config holds feed configuration.
type Config struct {
	// URL is the websocket endpoint.
	URL string

	// Reconnect settings
	ReconnectEnabled     bool
	ReconnectMinDelay    time.Duration
	ReconnectMaxDelay    time.Duration
	ReconnectMaxAttempts int // 0 = unlimited

	// Heartbeat settings
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration

	// Read/Write timeouts
	WriteTimeout time.Duration
	ReadTimeout  time.Duration

	// Buffer is the settlement channel capacity.
	Buffer int
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig(url string) Config {
	if url == "" {
		url = DefaultURL
	}
	return Config{
		URL:                  url,
		ReconnectEnabled:     true,
		ReconnectMinDelay:    1 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		ReconnectMaxAttempts: 0, // unlimited
		HeartbeatInterval:    30 * time.Second,
		HeartbeatTimeout:     10 * time.Second,
		WriteTimeout:         10 * time.Second,
		ReadTimeout:          60 * time.Second,
		Buffer:               64,
	}
}

// wire is the subset of the market channel payload the feed cares
// about. Settlement events carry the winning outcome and final price.
type wire struct {
	EventType string `json:"event_type"`
	Market    string `json:"market"`
	Outcome   string `json:"outcome"`
	Price     string `json:"price"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

type subscribeMessage struct {
	Type    string   `json:"type"`
	Markets []string `json:"markets"`
}

// Feed is a settlement feed with reconnection support.
type Feed struct {
	config   Config
	handlers Handlers

	conn   *websocket.Conn
	connMu sync.RWMutex
	state  int32 // atomic State

	settlements chan Settlement

	watched   map[string]struct{}
	watchedMu sync.RWMutex

	closeCh   chan struct{}
	closeOnce sync.Once

	reconnectAttempts int
	lastError         error
	lastErrorMu       sync.RWMutex
}

// New creates a settlement feed.
func New(config Config, handlers Handlers) *Feed {
	if config.Buffer <= 0 {
		config.Buffer = 64
	}
	return &Feed{
		config:      config,
		handlers:    handlers,
		settlements: make(chan Settlement, config.Buffer),
		watched:     make(map[string]struct{}),
		closeCh:     make(chan struct{}),
	}
}

// Settlements returns the channel of settlement events. Events for
// unwatched markets are filtered out; when the channel is full the
// oldest unread events are simply not delivered.
func (f *Feed) Settlements() <-chan Settlement {
	return f.settlements
}

// Connect establishes the websocket connection and starts the read
// and heartbeat loops.
func (f *Feed) Connect(ctx context.Context) error {
	if f.getState() == StateClosed {
		return errors.New("feed is closed")
	}

	f.setState(StateConnecting)

	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, f.config.URL, nil)
	if err != nil {
		f.setState(StateDisconnected)
		f.setLastError(err)
		return fmt.Errorf("dial failed: %w", err)
	}

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()

	f.setState(StateConnected)
	f.reconnectAttempts = 0

	if f.handlers.OnConnect != nil {
		f.handlers.OnConnect()
	}

	if err := f.sendWatchList(); err != nil {
		f.setLastError(err)
	}

	go f.readLoop()
	if f.config.HeartbeatInterval > 0 {
		go f.heartbeatLoop()
	}

	return nil
}

// Watch adds markets to the settlement subscription. The watch list
// survives reconnects.
func (f *Feed) Watch(conditionIDs ...string) error {
	f.watchedMu.Lock()
	for _, id := range conditionIDs {
		f.watched[id] = struct{}{}
	}
	f.watchedMu.Unlock()

	if f.IsConnected() {
		return f.sendWatchList()
	}
	return nil
}

// Unwatch removes markets from the subscription, typically after
// their predictions resolve.
func (f *Feed) Unwatch(conditionIDs ...string) {
	f.watchedMu.Lock()
	for _, id := range conditionIDs {
		delete(f.watched, id)
	}
	f.watchedMu.Unlock()
}

func (f *Feed) sendWatchList() error {
	f.watchedMu.RLock()
	markets := make([]string, 0, len(f.watched))
	for id := range f.watched {
		markets = append(markets, id)
	}
	f.watchedMu.RUnlock()

	if len(markets) == 0 {
		return nil
	}

	data, err := json.Marshal(subscribeMessage{Type: "market", Markets: markets})
	if err != nil {
		return fmt.Errorf("encode subscribe: %w", err)
	}

	f.connMu.RLock()
	conn := f.conn
	f.connMu.RUnlock()
	if conn == nil {
		return errors.New("not connected")
	}

	if f.config.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	return nil
}

// Close shuts the feed down permanently.
func (f *Feed) Close() error {
	f.closeOnce.Do(func() {
		f.setState(StateClosed)
		close(f.closeCh)

		f.connMu.Lock()
		if f.conn != nil {
			f.conn.Close()
		}
		f.connMu.Unlock()
	})
	return nil
}

// State returns the current connection state.
func (f *Feed) State() State {
	return f.getState()
}

// IsConnected returns true if the feed is connected.
func (f *Feed) IsConnected() bool {
	return f.getState() == StateConnected
}

// LastError returns the last error that occurred.
func (f *Feed) LastError() error {
	f.lastErrorMu.RLock()
	defer f.lastErrorMu.RUnlock()
	return f.lastError
}

// --- Internal methods ---

func (f *Feed) getState() State {
	return State(atomic.LoadInt32(&f.state))
}

func (f *Feed) setState(s State) {
	old := State(atomic.SwapInt32(&f.state, int32(s)))
	if old != s && f.handlers.OnStateChange != nil {
		f.handlers.OnStateChange(old, s)
	}
}

func (f *Feed) setLastError(err error) {
	f.lastErrorMu.Lock()
	f.lastError = err
	f.lastErrorMu.Unlock()
}

func (f *Feed) readLoop() {
	defer func() {
		if f.getState() != StateClosed {
			f.handleDisconnect(f.lastError)
		}
	}()

	for {
		select {
		case <-f.closeCh:
			return
		default:
		}

		f.connMu.RLock()
		conn := f.conn
		f.connMu.RUnlock()

		if conn == nil {
			return
		}

		if f.config.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			f.setLastError(err)
			if f.handlers.OnError != nil {
				f.handlers.OnError(err)
			}
			return
		}

		f.handleMessage(data)
	}
}

func (f *Feed) handleMessage(data []byte) {
	var msg wire
	if err := json.Unmarshal(data, &msg); err != nil {
		if f.handlers.OnError != nil {
			f.handlers.OnError(fmt.Errorf("decode message: %w", err))
		}
		return
	}
	if msg.EventType != "market_resolved" {
		return
	}

	f.watchedMu.RLock()
	_, watched := f.watched[msg.Market]
	f.watchedMu.RUnlock()
	if !watched {
		return
	}

	s := Settlement{
		ConditionID: msg.Market,
		Outcome:     normalizeOutcome(msg.Outcome),
		At:          time.UnixMilli(msg.Timestamp).UTC(),
	}
	if price, err := decimal.NewFromString(msg.Price); err == nil {
		s.FinalPrice = price
	}
	if msg.Timestamp == 0 {
		s.At = time.Now().UTC()
	}

	if f.handlers.OnSettlement != nil {
		f.handlers.OnSettlement(s)
	}

	select {
	case f.settlements <- s:
	default:
		// Channel full, drop event; the poller catches up later.
	}
}

func normalizeOutcome(outcome string) string {
	switch strings.ToUpper(strings.TrimSpace(outcome)) {
	case "YES":
		return "YES"
	case "NO":
		return "NO"
	default:
		return "INVALID"
	}
}

func (f *Feed) heartbeatLoop() {
	ticker := time.NewTicker(f.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.closeCh:
			return
		case <-ticker.C:
			if f.getState() != StateConnected {
				continue
			}

			f.connMu.RLock()
			conn := f.conn
			f.connMu.RUnlock()

			if conn == nil {
				continue
			}

			deadline := time.Now().Add(f.config.HeartbeatTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				f.setLastError(err)
				if f.handlers.OnError != nil {
					f.handlers.OnError(fmt.Errorf("heartbeat failed: %w", err))
				}
			}
		}
	}
}

func (f *Feed) handleDisconnect(err error) {
	f.setState(StateDisconnected)

	if f.handlers.OnDisconnect != nil {
		f.handlers.OnDisconnect(err)
	}

	if f.config.ReconnectEnabled && f.getState() != StateClosed {
		go f.reconnect()
	}
}

func (f *Feed) reconnect() {
	f.setState(StateReconnecting)

	for {
		if f.getState() == StateClosed {
			return
		}

		f.reconnectAttempts++

		if f.config.ReconnectMaxAttempts > 0 && f.reconnectAttempts > f.config.ReconnectMaxAttempts {
			f.setState(StateDisconnected)
			if f.handlers.OnError != nil {
				f.handlers.OnError(fmt.Errorf("max reconnect attempts (%d) exceeded", f.config.ReconnectMaxAttempts))
			}
			return
		}

		delay := f.config.ReconnectMinDelay * time.Duration(1<<uint(f.reconnectAttempts-1))
		if delay > f.config.ReconnectMaxDelay {
			delay = f.config.ReconnectMaxDelay
		}

		select {
		case <-f.closeCh:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := f.Connect(ctx)
		cancel()

		if err == nil {
			// Connect re-sends the watch list.
			return
		}

		if f.handlers.OnError != nil {
			f.handlers.OnError(fmt.Errorf("reconnect attempt %d failed: %w", f.reconnectAttempts, err))
		}
	}
}

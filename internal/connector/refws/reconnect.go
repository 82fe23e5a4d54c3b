// Package refws adapts the teacher's WebSocket reconnect manager
// (originally internal/exchange/ws_reconnect.go, a general-purpose
// exponential-backoff reconnecting client) into a live ticker cache: a
// background WS stream that keeps internal/connector/refrest.Connector's
// Ticker() calls cheap and fresh without polling the REST ticker endpoint
// on every offsetToPrice/CrossoverPrice lookup.
package refws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/exchangeapi"
	"github.com/inetpeople/instabot-trader/pkg/utils"
)

// Config mirrors the teacher's WSReconnectConfig field-for-field.
type Config struct {
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	MaxRetries     int // 0 = unlimited
	ConnectTimeout time.Duration
	PingInterval   time.Duration
	PongTimeout    time.Duration
}

// DefaultConfig matches the teacher's DefaultWSReconnectConfig: 2s/4s/8s/16s
// backoff steps.
func DefaultConfig() Config {
	return Config{
		InitialDelay:   2 * time.Second,
		MaxDelay:       16 * time.Second,
		MaxRetries:     0,
		ConnectTimeout: 10 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
	}
}

// ConnState is the teacher's WSConnectionState, renamed for this domain.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s ConnState) String() string {
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

// tickerMessage is the minimal shape a ticker stream push is expected to
// carry: {symbol, bid, ask, last_price}. Adapt Decode for an exchange whose
// push format differs.
type tickerMessage struct {
	Symbol    string `json:"symbol"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	LastPrice string `json:"last_price"`
}

// TickerStream maintains one reconnecting WebSocket connection and a cache
// of the latest exchangeapi.Ticker per symbol, subscribing to each symbol
// added via Subscribe and replaying subscriptions on every reconnect — the
// teacher's resubscribe() behavior, repurposed from generic "subscriptions"
// to ticker-channel subscriptions specifically.
type TickerStream struct {
	exchangeName string
	wsURL        string
	config       Config

	conn   *websocket.Conn
	connMu sync.RWMutex

	state      int32 // atomic ConnState
	retryCount int32 // atomic

	closeChan chan struct{}
	closeOnce sync.Once

	cacheMu sync.RWMutex
	cache   map[string]exchangeapi.Ticker

	subsMu sync.RWMutex
	subs   []string

	// Decode turns one raw WS frame into a tickerMessage; overridable per
	// exchange wire format. Defaults to JSON-decoding tickerMessage.
	Decode func([]byte) (tickerMessage, error)

	log *utils.Logger
}

// NewTickerStream constructs a stream for one exchange endpoint. Call
// Connect to dial; Subscribe before or after Connect (pending subscriptions
// are sent once connected, and replayed on every reconnect).
func NewTickerStream(exchangeName, wsURL string, config Config) *TickerStream {
	return &TickerStream{
		exchangeName: exchangeName,
		wsURL:        wsURL,
		config:       config,
		closeChan:    make(chan struct{}),
		cache:        make(map[string]exchangeapi.Ticker),
		Decode:       decodeJSONTicker,
		log:          utils.L().WithComponent("refws").WithExchange(exchangeName),
	}
}

func decodeJSONTicker(raw []byte) (tickerMessage, error) {
	var m tickerMessage
	err := json.Unmarshal(raw, &m)
	return m, err
}

func (s *TickerStream) GetState() ConnState {
	return ConnState(atomic.LoadInt32(&s.state))
}

func (s *TickerStream) IsConnected() bool {
	return s.GetState() == StateConnected
}

// Subscribe registers symbol for ticker updates, sending the subscription
// immediately if already connected.
func (s *TickerStream) Subscribe(symbol string) {
	s.subsMu.Lock()
	for _, existing := range s.subs {
		if existing == symbol {
			s.subsMu.Unlock()
			return
		}
	}
	s.subs = append(s.subs, symbol)
	s.subsMu.Unlock()

	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()
	if conn != nil && s.IsConnected() {
		_ = conn.WriteJSON(map[string]string{"op": "subscribe", "channel": "ticker", "symbol": symbol})
	}
}

// Ticker returns the last cached ticker for symbol, or ok=false if no
// update has arrived yet.
func (s *TickerStream) Ticker(symbol string) (exchangeapi.Ticker, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	t, ok := s.cache[symbol]
	return t, ok
}

// Connect dials the stream and starts the read/ping pumps.
func (s *TickerStream) Connect(ctx context.Context) error {
	select {
	case <-s.closeChan:
		return fmt.Errorf("refws: stream is closed")
	default:
	}

	atomic.StoreInt32(&s.state, int32(StateConnecting))

	if err := s.dial(ctx); err != nil {
		atomic.StoreInt32(&s.state, int32(StateDisconnected))
		return err
	}

	atomic.StoreInt32(&s.state, int32(StateConnected))
	atomic.StoreInt32(&s.retryCount, 0)

	go s.readPump()
	go s.pingPump()

	s.log.Info("connected", utils.String("url", s.wsURL))
	return nil
}

func (s *TickerStream) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: s.config.ConnectTimeout}
	conn, _, err := dialer.DialContext(dialCtx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("refws: dial: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.resubscribe()
	return nil
}

func (s *TickerStream) resubscribe() {
	s.subsMu.RLock()
	symbols := make([]string, len(s.subs))
	copy(symbols, s.subs)
	s.subsMu.RUnlock()

	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()
	if conn == nil {
		return
	}

	for _, symbol := range symbols {
		if err := conn.WriteJSON(map[string]string{"op": "subscribe", "channel": "ticker", "symbol": symbol}); err != nil {
			s.log.Warn("resubscribe failed", utils.String("symbol", symbol), utils.Err(err))
		}
	}
}

func (s *TickerStream) readPump() {
	defer s.handleDisconnect(nil)

	for {
		select {
		case <-s.closeChan:
			return
		default:
		}

		s.connMu.RLock()
		conn := s.conn
		s.connMu.RUnlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.handleDisconnect(err)
			return
		}

		msg, err := s.Decode(raw)
		if err != nil {
			continue
		}
		s.applyTicker(msg)
	}
}

func (s *TickerStream) applyTicker(msg tickerMessage) {
	bid, err1 := decimal.NewFromString(msg.Bid)
	ask, err2 := decimal.NewFromString(msg.Ask)
	last, err3 := decimal.NewFromString(msg.LastPrice)
	if err1 != nil || err2 != nil || err3 != nil || msg.Symbol == "" {
		return
	}
	s.cacheMu.Lock()
	s.cache[msg.Symbol] = exchangeapi.Ticker{Bid: bid, Ask: ask, LastPrice: last}
	s.cacheMu.Unlock()
}

func (s *TickerStream) pingPump() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closeChan:
			return
		case <-ticker.C:
			s.connMu.RLock()
			conn := s.conn
			s.connMu.RUnlock()
			if conn == nil || s.GetState() != StateConnected {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(s.config.PongTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Warn("ping failed", utils.Err(err))
				s.handleDisconnect(err)
				return
			}
		}
	}
}

func (s *TickerStream) handleDisconnect(err error) {
	select {
	case <-s.closeChan:
		return
	default:
	}

	state := s.GetState()
	if state == StateReconnecting || state == StateClosed {
		return
	}
	atomic.StoreInt32(&s.state, int32(StateReconnecting))

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	if err != nil {
		s.log.Warn("disconnected", utils.Err(err))
	}
	go s.reconnectLoop()
}

func (s *TickerStream) reconnectLoop() {
	delay := s.config.InitialDelay

	for {
		select {
		case <-s.closeChan:
			return
		default:
		}

		retryCount := atomic.AddInt32(&s.retryCount, 1)
		if s.config.MaxRetries > 0 && int(retryCount) > s.config.MaxRetries {
			s.log.Error("max reconnect attempts reached", utils.Int("max_retries", s.config.MaxRetries))
			atomic.StoreInt32(&s.state, int32(StateDisconnected))
			return
		}

		s.log.Info("reconnecting", utils.String("delay", delay.String()), utils.Int("attempt", int(retryCount)))

		select {
		case <-s.closeChan:
			return
		case <-time.After(delay):
		}

		if err := s.dial(context.Background()); err != nil {
			s.log.Warn("reconnect failed", utils.Err(err))
			delay *= 2
			if delay > s.config.MaxDelay {
				delay = s.config.MaxDelay
			}
			continue
		}

		atomic.StoreInt32(&s.state, int32(StateConnected))
		atomic.StoreInt32(&s.retryCount, 0)
		s.log.Info("reconnected")

		go s.readPump()
		go s.pingPump()
		return
	}
}

// Close shuts the stream down; it will not reconnect afterward.
func (s *TickerStream) Close() error {
	s.closeOnce.Do(func() { close(s.closeChan) })
	atomic.StoreInt32(&s.state, int32(StateClosed))

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *TickerStream) RetryCount() int {
	return int(atomic.LoadInt32(&s.retryCount))
}

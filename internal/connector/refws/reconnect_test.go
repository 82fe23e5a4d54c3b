package refws

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplyTickerCachesValidMessage(t *testing.T) {
	s := NewTickerStream("test", "ws://unused", DefaultConfig())
	s.applyTicker(tickerMessage{Symbol: "BTC-PERP", Bid: "1000", Ask: "1001", LastPrice: "1000.5"})

	ticker, ok := s.Ticker("BTC-PERP")
	if !ok {
		t.Fatal("expected a cached ticker")
	}
	if !ticker.Bid.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Bid = %s, want 1000", ticker.Bid)
	}
}

func TestApplyTickerIgnoresMalformedMessage(t *testing.T) {
	s := NewTickerStream("test", "ws://unused", DefaultConfig())
	s.applyTicker(tickerMessage{Symbol: "BTC-PERP", Bid: "not-a-number", Ask: "1001", LastPrice: "1000.5"})

	if _, ok := s.Ticker("BTC-PERP"); ok {
		t.Error("expected no cached ticker for a malformed message")
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	s := NewTickerStream("test", "ws://unused", DefaultConfig())
	s.Subscribe("BTC-PERP")
	s.Subscribe("BTC-PERP")

	if len(s.subs) != 1 {
		t.Errorf("subs = %v, want one entry", s.subs)
	}
}

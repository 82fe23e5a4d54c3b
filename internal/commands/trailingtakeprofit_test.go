package commands

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/connector/fake"
	"github.com/inetpeople/instabot-trader/internal/notify"
	"github.com/inetpeople/instabot-trader/internal/runtime"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
	"github.com/inetpeople/instabot-trader/internal/session"
)

// TestTrailingTakeProfitFreezesTriggerPrice exercises spec.md §8 scenario 3:
// side=sell, offset=100, triggerOffset=50 at ask=1000 never places a stop
// while the crossover price stays under 1050, and crosses exactly at 1050 —
// which only holds if triggerPrice was resolved once against the setup
// ticker rather than re-resolved (and so re-inflated) against every
// subsequent live tick.
func TestTrailingTakeProfitFreezesTriggerPrice(t *testing.T) {
	ex := fake.New()
	ex.Bid = decimal.NewFromInt(1000)
	ex.Ask = decimal.NewFromInt(1000)
	ex.LastPrice = decimal.NewFromInt(1000)
	h := runtime.New("test", ex, time.Millisecond, 4*time.Millisecond, notify.Noop{})
	if err := h.AddSymbol(context.Background(), "BTC-PERP"); err != nil {
		t.Fatalf("AddSymbol() error = %v", err)
	}

	a := args.Bind(defaultsFor("trailingtakeprofit"), nil)
	a["side"] = "sell"
	a["offset"] = "100"
	a["triggerOffset"] = "50"
	a["amount"] = "1"
	cmd, err := NewTrailingTakeProfit(Base{Exchange: h, Symbol: "BTC-PERP", Session: session.New()}, a)
	if err != nil {
		t.Fatalf("NewTrailingTakeProfit() error = %v", err)
	}

	state, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if state != scheduler.KeepGoingBackOff {
		t.Fatalf("Execute() state = %v, want KeepGoingBackOff", state)
	}
	if !cmd.triggerPrice.Equal(decimal.NewFromInt(1050)) {
		t.Fatalf("triggerPrice = %v, want 1050 (frozen at setup ask+50)", cmd.triggerPrice)
	}

	// Tick to 1049: still below the frozen trigger, no stop placed yet. A
	// live-reresolved trigger would instead recompute target=1099 here and
	// never be reachable.
	ex.Bid, ex.Ask, ex.LastPrice = decimal.NewFromInt(1049), decimal.NewFromInt(1049), decimal.NewFromInt(1049)
	if _, err := cmd.BackgroundExecute(context.Background()); err != nil {
		t.Fatalf("BackgroundExecute() error = %v", err)
	}
	if cmd.phase != ttpWaitTrigger {
		t.Fatal("expected phase to still be ttpWaitTrigger at 1049")
	}
	if ex.StopCalls != 0 {
		t.Fatalf("StopCalls = %d, want 0 before crossing", ex.StopCalls)
	}
	if !cmd.triggerPrice.Equal(decimal.NewFromInt(1050)) {
		t.Fatalf("triggerPrice changed to %v after a poll; it must stay frozen", cmd.triggerPrice)
	}

	// Tick to 1050: crosses the frozen trigger, transitions to phase 2 and
	// places the trailing stop.
	ex.Bid, ex.Ask, ex.LastPrice = decimal.NewFromInt(1050), decimal.NewFromInt(1050), decimal.NewFromInt(1050)
	if _, err := cmd.BackgroundExecute(context.Background()); err != nil {
		t.Fatalf("BackgroundExecute() error = %v", err)
	}
	if cmd.phase != ttpTrailing {
		t.Fatal("expected phase to transition to ttpTrailing at 1050")
	}
	if ex.StopCalls != 1 {
		t.Fatalf("StopCalls = %d, want 1 after crossing", ex.StopCalls)
	}
}

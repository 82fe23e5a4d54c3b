package commands

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/connector/fake"
	"github.com/inetpeople/instabot-trader/internal/exchangeapi"
	"github.com/inetpeople/instabot-trader/internal/notify"
	"github.com/inetpeople/instabot-trader/internal/runtime"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
	"github.com/inetpeople/instabot-trader/internal/session"
)

func newPositionTestHandle(ex *fake.Exchange) *runtime.Handle {
	h := runtime.New("test", ex, time.Millisecond, 4*time.Millisecond, notify.Noop{})
	_ = h.AddSymbol(context.Background(), "BTC-PERP")
	return h
}

// TestMarketOrderAppliesCalculatePositionScenario6 exercises spec.md §8
// scenario 6 end to end through marketOrder: defaults {side:buy, amount:0,
// position:""}, position="42" passed, wallet holding 10 btc, ask 1010 ->
// side stays buy, the order amount comes out as the 32 needed to reach
// position 42, not the untouched default amount of 0.
func TestMarketOrderAppliesCalculatePositionScenario6(t *testing.T) {
	ex := fake.New()
	ex.Bid = decimal.NewFromInt(1009)
	ex.Ask = decimal.NewFromInt(1010)
	// Available is set well above the 32 the scenario must produce so the
	// generic wallet clamp in CalculateAmount (a separate concern from the
	// position delta) never interferes with this assertion.
	ex.Balances = []exchangeapi.WalletBalance{{Currency: "BTC", Amount: decimal.NewFromInt(10), Available: decimal.NewFromInt(1000)}}
	h := newPositionTestHandle(ex)

	cmd, err := NewMarketOrder(Base{Exchange: h, Symbol: "BTC-PERP", Session: session.New()}, args.Bind(defaultsFor("marketorder"), nil))
	if err != nil {
		t.Fatalf("NewMarketOrder() error = %v", err)
	}
	cmd.Position = "42"

	if state, err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	} else if state != scheduler.Finished {
		t.Fatalf("Execute() state = %v, want Finished", state)
	}
	if ex.MarketCalls != 1 {
		t.Fatalf("MarketCalls = %d, want 1", ex.MarketCalls)
	}
	var placed *exchangeapi.Order
	for _, o := range ex.Orders {
		placed = o
	}
	if placed == nil {
		t.Fatal("expected an order to have been placed")
	}
	if placed.Side != "buy" {
		t.Errorf("side = %q, want buy", placed.Side)
	}
	if !placed.Amount.Equal(decimal.NewFromInt(32)) {
		t.Errorf("amount = %v, want 32", placed.Amount)
	}
}

// TestMarketOrderPositionAllSkipsCalculatePosition confirms the "all"
// sentinel still only drives isEverything and never routes through
// calculatePosition (which would otherwise fail parsing "all" as a
// decimal).
func TestMarketOrderPositionAllSkipsCalculatePosition(t *testing.T) {
	ex := fake.New()
	ex.Bid = decimal.NewFromInt(100)
	ex.Ask = decimal.NewFromInt(101)
	h := newPositionTestHandle(ex)

	a := args.Bind(defaultsFor("marketorder"), nil)
	a["amount"] = "1"
	a["position"] = "all"
	cmd, err := NewMarketOrder(Base{Exchange: h, Symbol: "BTC-PERP", Session: session.New()}, a)
	if err != nil {
		t.Fatalf("NewMarketOrder() error = %v", err)
	}
	if cmd.Position != "" {
		t.Fatalf("Position = %q, want empty for the all sentinel", cmd.Position)
	}
	if !cmd.IsEverything {
		t.Fatal("expected IsEverything to be true")
	}
	if _, err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
}

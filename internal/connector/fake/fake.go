// Package fake is an in-memory exchangeapi.Port used by the scheduler,
// command and manager tests to drive the literal end-to-end scenarios from
// spec.md §8 without a real exchange connection.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/exchangeapi"
)

// Exchange is a scriptable fake: tests set Bid/Ask/LastPrice directly and
// inspect Orders/Cancelled/Calls after exercising a command.
type Exchange struct {
	mu sync.Mutex

	Bid       decimal.Decimal
	Ask       decimal.Decimal
	LastPrice decimal.Decimal

	Balances []exchangeapi.WalletBalance
	Symbols  map[string]exchangeapi.SymbolDetails

	Orders       map[string]*exchangeapi.Order
	Cancelled    []string
	LimitCalls   int
	MarketCalls  int
	StopCalls    int
	CancelCalls  int
	UpdateCalls  int
	InitCalled   bool
	TermCalled   int
	NextRejected bool // when true, the next order placement call fails
}

func New() *Exchange {
	return &Exchange{
		Symbols: make(map[string]exchangeapi.SymbolDetails),
		Orders:  make(map[string]*exchangeapi.Order),
	}
}

func (e *Exchange) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.InitCalled = true
	return nil
}

func (e *Exchange) AddSymbol(ctx context.Context, symbol string) (*exchangeapi.SymbolDetails, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d, ok := e.Symbols[symbol]; ok {
		return &d, nil
	}
	d := exchangeapi.SymbolDetails{MinOrderSize: decimal.NewFromFloat(0.001), AssetPrecision: 6, PricePrecision: 2}
	e.Symbols[symbol] = d
	return &d, nil
}

func (e *Exchange) Terminate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.TermCalled++
	return nil
}

func (e *Exchange) Ticker(ctx context.Context, symbol string) (exchangeapi.Ticker, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return exchangeapi.Ticker{Bid: e.Bid, Ask: e.Ask, LastPrice: e.LastPrice}, nil
}

func (e *Exchange) WalletBalances(ctx context.Context) ([]exchangeapi.WalletBalance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Balances, nil
}

func (e *Exchange) newID() string { return uuid.NewString() }

func (e *Exchange) LimitOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side string, postOnly, reduceOnly bool) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.LimitCalls++
	if e.NextRejected {
		e.NextRejected = false
		return "", fmt.Errorf("fake: order rejected")
	}
	id := e.newID()
	e.Orders[id] = &exchangeapi.Order{ID: id, Symbol: symbol, OrdType: "limit", Side: side, Amount: amount, Remaining: amount, IsOpen: true}
	return id, nil
}

func (e *Exchange) MarketOrder(ctx context.Context, symbol string, amount decimal.Decimal, side string, isEverything bool) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.MarketCalls++
	id := e.newID()
	e.Orders[id] = &exchangeapi.Order{ID: id, Symbol: symbol, OrdType: "market", Side: side, Amount: amount, Executed: amount, IsFilled: true}
	return id, nil
}

func (e *Exchange) StopOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side, trigger string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StopCalls++
	id := e.newID()
	e.Orders[id] = &exchangeapi.Order{ID: id, Symbol: symbol, OrdType: "stop", Side: side, Amount: amount, Remaining: amount, IsOpen: true}
	return id, nil
}

func (e *Exchange) ActiveOrders(ctx context.Context, symbol, side string) ([]exchangeapi.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []exchangeapi.Order
	for _, o := range e.Orders {
		if o.IsOpen && o.Side == side {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (e *Exchange) CancelOrders(ctx context.Context, orderIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CancelCalls++
	for _, id := range orderIDs {
		e.Cancelled = append(e.Cancelled, id)
		if o, ok := e.Orders[id]; ok {
			o.IsOpen = false
		}
	}
	return nil
}

func (e *Exchange) Order(ctx context.Context, orderID string) (*exchangeapi.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.Orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (e *Exchange) UpdateOrderPrice(ctx context.Context, orderID string, price decimal.Decimal) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.UpdateCalls++
	o, ok := e.Orders[orderID]
	if !ok {
		return "", fmt.Errorf("fake: unknown order %s", orderID)
	}
	delete(e.Orders, orderID)
	newID := e.newID()
	o.ID = newID
	e.Orders[newID] = o
	return newID, nil
}

// Fill marks orderID as filled, for tests driving the "order becomes
// is_filled=true" transition from spec.md §8 scenario 2.
func (e *Exchange) Fill(orderID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o, ok := e.Orders[orderID]; ok {
		o.IsFilled = true
		o.IsOpen = false
		o.Executed = o.Amount
		o.Remaining = decimal.Zero
	}
}

var _ exchangeapi.Port = (*Exchange)(nil)

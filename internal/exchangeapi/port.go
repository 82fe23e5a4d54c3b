// Package exchangeapi declares the narrow capability set a concrete exchange
// connector must implement (spec.md §6 "Exchange API port"). The core never
// depends on a specific exchange SDK directly; internal/connector/* are
// reference implementations against this port.
package exchangeapi

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ticker is the {bid, ask, last_price} triple from spec.md §6.
type Ticker struct {
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	LastPrice decimal.Decimal
}

// WalletBalance is one entry of walletBalances().
type WalletBalance struct {
	Type      string
	Currency  string
	Amount    decimal.Decimal
	Available decimal.Decimal
}

// Order mirrors the order(orderId) response shape. Symbol is not part of
// spec.md §6's literal field list but every connector needs it to re-place
// an order on cancel-then-replace venues (e.g. binance.Connector's
// UpdateOrderPrice), so reference connectors populate it even though the
// core never reads it.
type Order struct {
	ID        string
	Symbol    string
	OrdType   string
	Side      string
	Amount    decimal.Decimal
	Remaining decimal.Decimal
	Executed  decimal.Decimal
	IsFilled  bool
	IsOpen    bool
}

// SymbolDetails is addSymbol's optional response, folded into
// internal/symboldata.Data by the runtime layer.
type SymbolDetails struct {
	MinOrderSize   decimal.Decimal
	AssetPrecision int32
	PricePrecision int32
}

// Port is the exchange API surface spec.md §6 requires. Every method may
// suspend (it is a network call) and may fail; there is no method that is
// guaranteed synchronous.
type Port interface {
	Init(ctx context.Context) error
	AddSymbol(ctx context.Context, symbol string) (*SymbolDetails, error)
	Terminate(ctx context.Context) error

	Ticker(ctx context.Context, symbol string) (Ticker, error)
	WalletBalances(ctx context.Context) ([]WalletBalance, error)

	LimitOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side string, postOnly, reduceOnly bool) (string, error)
	MarketOrder(ctx context.Context, symbol string, amount decimal.Decimal, side string, isEverything bool) (string, error)
	StopOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side, trigger string) (string, error)

	ActiveOrders(ctx context.Context, symbol, side string) ([]Order, error)
	CancelOrders(ctx context.Context, orderIDs []string) error
	Order(ctx context.Context, orderID string) (*Order, error)
	UpdateOrderPrice(ctx context.Context, orderID string, price decimal.Decimal) (string, error)
}

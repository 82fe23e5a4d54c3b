// Package binance is a reference exchangeapi.Port implementation against
// the Binance USD-M futures API via adshao/go-binance/v2/futures, grounded
// in yohannesjx-sniperterminal's ExecutionService (NewCreateOrderService,
// NewGetOrderService, NewCancelOrderService, NewListOpenOrdersService) and
// RomanBarashcov-cryptoMegaBot's binanceclient.Client (testnet base URL
// switch, NewGetAccountService for balances, NewBookTickerService for
// quotes).
package binance

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/exchangeapi"
	"github.com/inetpeople/instabot-trader/pkg/utils"
)

const (
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// Credentials are the fields the manager passes through for a binance-typed
// exchange entry.
type Credentials struct {
	Key        string
	Secret     string
	UseTestnet bool
}

// Connector adapts futures.Client to exchangeapi.Port.
type Connector struct {
	client *futures.Client
	log    *utils.Logger
}

func New(creds Credentials) *Connector {
	client := futures.NewClient(creds.Key, creds.Secret)
	if creds.UseTestnet {
		client.BaseURL = baseURLTestnet
	} else {
		client.BaseURL = baseURLProduction
	}
	return &Connector{client: client, log: utils.L().WithComponent("binance")}
}

func (c *Connector) Init(ctx context.Context) error {
	return c.client.NewPingService().Do(ctx)
}

func (c *Connector) Terminate(ctx context.Context) error {
	return nil
}

func (c *Connector) AddSymbol(ctx context.Context, symbol string) (*exchangeapi.SymbolDetails, error) {
	info, err := c.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: addSymbol: %w", err)
	}
	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		details := &exchangeapi.SymbolDetails{
			AssetPrecision: int32(s.QuantityPrecision),
			PricePrecision: int32(s.PricePrecision),
		}
		if lot := s.LotSizeFilter(); lot != nil {
			if min, err := decimal.NewFromString(lot.MinQuantity); err == nil {
				details.MinOrderSize = min
			}
		}
		return details, nil
	}
	return nil, fmt.Errorf("binance: addSymbol: unknown symbol %s", symbol)
}

func (c *Connector) Ticker(ctx context.Context, symbol string) (exchangeapi.Ticker, error) {
	books, err := c.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return exchangeapi.Ticker{}, fmt.Errorf("binance: ticker: %w", err)
	}
	if len(books) == 0 {
		return exchangeapi.Ticker{}, fmt.Errorf("binance: ticker: no book ticker for %s", symbol)
	}
	bid, err1 := decimal.NewFromString(books[0].BidPrice)
	ask, err2 := decimal.NewFromString(books[0].AskPrice)
	if err1 != nil || err2 != nil {
		return exchangeapi.Ticker{}, fmt.Errorf("binance: ticker: malformed book prices")
	}

	stats, err := c.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	last := bid
	if err == nil && len(stats) > 0 {
		if v, err := decimal.NewFromString(stats[0].LastPrice); err == nil {
			last = v
		}
	}
	return exchangeapi.Ticker{Bid: bid, Ask: ask, LastPrice: last}, nil
}

func (c *Connector) WalletBalances(ctx context.Context) ([]exchangeapi.WalletBalance, error) {
	account, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: walletBalances: %w", err)
	}

	out := make([]exchangeapi.WalletBalance, 0, len(account.Assets))
	for _, a := range account.Assets {
		amount, err1 := decimal.NewFromString(a.WalletBalance)
		available, err2 := decimal.NewFromString(a.AvailableBalance)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, exchangeapi.WalletBalance{Type: "futures", Currency: a.Asset, Amount: amount, Available: available})
	}
	return out, nil
}

func sideType(side string) futures.SideType {
	if side == "sell" {
		return futures.SideTypeSell
	}
	return futures.SideTypeBuy
}

func (c *Connector) LimitOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side string, postOnly, reduceOnly bool) (string, error) {
	tif := futures.TimeInForceTypeGTC
	if postOnly {
		tif = futures.TimeInForceTypeGTX
	}
	res, err := c.client.NewCreateOrderService().
		Symbol(symbol).
		Side(sideType(side)).
		Type(futures.OrderTypeLimit).
		TimeInForce(tif).
		Quantity(amount.String()).
		Price(price.String()).
		ReduceOnly(reduceOnly).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("binance: limitOrder: %w", err)
	}
	return strconv.FormatInt(res.OrderID, 10), nil
}

func (c *Connector) MarketOrder(ctx context.Context, symbol string, amount decimal.Decimal, side string, isEverything bool) (string, error) {
	res, err := c.client.NewCreateOrderService().
		Symbol(symbol).
		Side(sideType(side)).
		Type(futures.OrderTypeMarket).
		Quantity(amount.String()).
		ReduceOnly(isEverything).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("binance: marketOrder: %w", err)
	}
	return strconv.FormatInt(res.OrderID, 10), nil
}

func (c *Connector) StopOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side, trigger string) (string, error) {
	res, err := c.client.NewCreateOrderService().
		Symbol(symbol).
		Side(sideType(side)).
		Type(futures.OrderTypeStopMarket).
		Quantity(amount.String()).
		StopPrice(price.String()).
		WorkingType(futures.WorkingTypeMarkPrice).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("binance: stopOrder: %w", err)
	}
	return strconv.FormatInt(res.OrderID, 10), nil
}

func (c *Connector) ActiveOrders(ctx context.Context, symbol, side string) ([]exchangeapi.Order, error) {
	orders, err := c.client.NewListOpenOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: activeOrders: %w", err)
	}

	out := make([]exchangeapi.Order, 0, len(orders))
	for _, o := range orders {
		if string(o.Side) != "" && !sideMatches(o.Side, side) {
			continue
		}
		out = append(out, toOrder(o.Symbol, o.OrderID, string(o.Type), string(o.Side), o.OrigQuantity, o.ExecutedQuantity, o.Status))
	}
	return out, nil
}

func sideMatches(orderSide futures.SideType, side string) bool {
	return orderSide == sideType(side)
}

func (c *Connector) CancelOrders(ctx context.Context, orderIDs []string) error {
	for _, raw := range orderIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if _, err := c.client.NewCancelOrderService().OrderID(id).Do(ctx); err != nil {
			c.log.Warn("cancelOrders: single cancel failed", utils.String("order_id", raw), utils.Err(err))
		}
	}
	return nil
}

func (c *Connector) Order(ctx context.Context, orderID string) (*exchangeapi.Order, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("binance: order: bad order id %q", orderID)
	}
	// The lookup is by order id only: no symbol is set on NewGetOrderService,
	// and the returned Symbol comes from the response.
	o, err := c.client.NewGetOrderService().OrderID(id).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: order: %w", err)
	}
	order := toOrder(o.Symbol, o.OrderID, string(o.Type), string(o.Side), o.OrigQuantity, o.ExecutedQuantity, o.Status)
	return &order, nil
}

// UpdateOrderPrice implements the port's move-resting-order contract as
// cancel-then-replace, since Binance futures orders have no in-place price
// amend; the returned id is always different from orderID, matching the
// port's "id may differ" note (spec.md §6).
func (c *Connector) UpdateOrderPrice(ctx context.Context, orderID string, price decimal.Decimal) (string, error) {
	existing, err := c.Order(ctx, orderID)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", fmt.Errorf("binance: updateOrderPrice: order %s not found", orderID)
	}
	if err := c.CancelOrders(ctx, []string{orderID}); err != nil {
		return "", err
	}
	if existing.OrdType == string(futures.OrderTypeStopMarket) {
		return c.StopOrder(ctx, existing.Symbol, existing.Remaining, price, existing.Side, "last")
	}
	return c.LimitOrder(ctx, existing.Symbol, existing.Remaining, price, existing.Side, true, false)
}

func toOrder(symbol string, id int64, ordType, side, amount, executed string, status futures.OrderStatusType) exchangeapi.Order {
	amt, _ := decimal.NewFromString(amount)
	exe, _ := decimal.NewFromString(executed)
	isFilled := status == futures.OrderStatusTypeFilled
	isOpen := status == futures.OrderStatusTypeNew || status == futures.OrderStatusTypePartiallyFilled
	return exchangeapi.Order{
		ID:        strconv.FormatInt(id, 10),
		Symbol:    symbol,
		OrdType:   ordType,
		Side:      side,
		Amount:    amt,
		Remaining: amt.Sub(exe),
		Executed:  exe,
		IsFilled:  isFilled,
		IsOpen:    isOpen,
	}
}

var _ exchangeapi.Port = (*Connector)(nil)

// Package refrest is a reference exchangeapi.Port implementation over a
// generic REST exchange API, grounded in 0xtitan6-polymarket-mm's
// internal/exchange.Client: a resty client with per-category rate limiting
// and automatic 5xx retry, plus an optional refws.TickerStream for a
// cheaper Ticker() than hitting the REST endpoint on every call.
package refrest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/connector/refws"
	"github.com/inetpeople/instabot-trader/internal/exchangeapi"
	"github.com/inetpeople/instabot-trader/pkg/ratelimit"
	"github.com/inetpeople/instabot-trader/pkg/retry"
	"github.com/inetpeople/instabot-trader/pkg/utils"
)

// Credentials are the opaque fields the manager passes through from
// internal/manager.Credentials for one exchange connection.
type Credentials struct {
	Key        string
	Secret     string
	Passphrase string
	Endpoint   string
}

// Connector is a generic REST-based exchangeapi.Port. Request/response
// shapes are necessarily exchange-specific; this reference implementation
// assumes a JSON REST API shaped like the common {bid, ask, last_price}
// ticker and {id, ord_type, ...} order conventions spec.md §6 describes,
// the way the teacher assumed a common shape across its six CEX clients.
type Connector struct {
	http   *resty.Client
	creds  Credentials
	rl     *ratelimit.MultiLimiter
	stream *refws.TickerStream // optional; nil means Ticker() always hits REST

	log *utils.Logger
}

// Option customizes a Connector at construction time.
type Option func(*Connector)

// WithTickerStream attaches a live ticker cache so Ticker() avoids a REST
// round trip when the stream already has a fresh value for the symbol.
func WithTickerStream(stream *refws.TickerStream) Option {
	return func(c *Connector) { c.stream = stream }
}

// New constructs a Connector against creds.Endpoint, rate-limited at
// marketRate req/sec for ticker/book reads and orderRate req/sec for order
// mutation endpoints — the same split 0xtitan6-polymarket-mm's RateLimiter
// categories model.
func New(exchangeName string, creds Credentials, marketRate, orderRate float64, opts ...Option) *Connector {
	httpClient := resty.New().
		SetBaseURL(creds.Endpoint).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-KEY", creds.Key)

	rl := ratelimit.NewMultiLimiter()
	rl.Add("market", marketRate, marketRate*2)
	rl.Add("order", orderRate, orderRate*2)

	c := &Connector{
		http:  httpClient,
		creds: creds,
		rl:    rl,
		log:   utils.L().WithComponent("refrest").WithExchange(exchangeName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connector) Init(ctx context.Context) error {
	return nil
}

func (c *Connector) Terminate(ctx context.Context) error {
	if c.stream != nil {
		return c.stream.Close()
	}
	return nil
}

type symbolDetailsResponse struct {
	MinOrderSize   string `json:"min_order_size"`
	AssetPrecision int32  `json:"asset_precision"`
	PricePrecision int32  `json:"price_precision"`
}

func (c *Connector) AddSymbol(ctx context.Context, symbol string) (*exchangeapi.SymbolDetails, error) {
	if err := c.rl.Wait(ctx, "market"); err != nil {
		return nil, err
	}
	if c.stream != nil {
		c.stream.Subscribe(symbol)
	}

	var result symbolDetailsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&result).
		Get("/symbols")
	if err != nil {
		return nil, fmt.Errorf("refrest: addSymbol: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("refrest: addSymbol: status %d: %s", resp.StatusCode(), resp.String())
	}

	minSize, err := decimal.NewFromString(result.MinOrderSize)
	if err != nil {
		return nil, fmt.Errorf("refrest: addSymbol: bad min_order_size: %w", err)
	}
	return &exchangeapi.SymbolDetails{
		MinOrderSize:   minSize,
		AssetPrecision: result.AssetPrecision,
		PricePrecision: result.PricePrecision,
	}, nil
}

type tickerResponse struct {
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	LastPrice string `json:"last_price"`
}

func (c *Connector) Ticker(ctx context.Context, symbol string) (exchangeapi.Ticker, error) {
	if c.stream != nil {
		if t, ok := c.stream.Ticker(symbol); ok {
			return t, nil
		}
	}

	if err := c.rl.Wait(ctx, "market"); err != nil {
		return exchangeapi.Ticker{}, err
	}

	var result tickerResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&result).
		Get("/ticker")
	if err != nil {
		return exchangeapi.Ticker{}, fmt.Errorf("refrest: ticker: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return exchangeapi.Ticker{}, fmt.Errorf("refrest: ticker: status %d: %s", resp.StatusCode(), resp.String())
	}

	bid, err1 := decimal.NewFromString(result.Bid)
	ask, err2 := decimal.NewFromString(result.Ask)
	last, err3 := decimal.NewFromString(result.LastPrice)
	if err1 != nil || err2 != nil || err3 != nil {
		return exchangeapi.Ticker{}, fmt.Errorf("refrest: ticker: malformed price fields")
	}
	return exchangeapi.Ticker{Bid: bid, Ask: ask, LastPrice: last}, nil
}

type walletBalanceResponse struct {
	Type      string `json:"type"`
	Currency  string `json:"currency"`
	Amount    string `json:"amount"`
	Available string `json:"available"`
}

func (c *Connector) WalletBalances(ctx context.Context) ([]exchangeapi.WalletBalance, error) {
	if err := c.rl.Wait(ctx, "market"); err != nil {
		return nil, err
	}

	var result []walletBalanceResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&result).Get("/wallet/balances")
	if err != nil {
		return nil, fmt.Errorf("refrest: walletBalances: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("refrest: walletBalances: status %d: %s", resp.StatusCode(), resp.String())
	}

	out := make([]exchangeapi.WalletBalance, 0, len(result))
	for _, b := range result {
		amount, err1 := decimal.NewFromString(b.Amount)
		available, err2 := decimal.NewFromString(b.Available)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, exchangeapi.WalletBalance{Type: b.Type, Currency: b.Currency, Amount: amount, Available: available})
	}
	return out, nil
}

type orderIDResponse struct {
	ID string `json:"id"`
}

func (c *Connector) LimitOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side string, postOnly, reduceOnly bool) (string, error) {
	return c.placeOrder(ctx, map[string]interface{}{
		"symbol":      symbol,
		"amount":      amount.String(),
		"price":       price.String(),
		"side":        side,
		"post_only":   postOnly,
		"reduce_only": reduceOnly,
		"ord_type":    "limit",
	})
}

func (c *Connector) MarketOrder(ctx context.Context, symbol string, amount decimal.Decimal, side string, isEverything bool) (string, error) {
	return c.placeOrder(ctx, map[string]interface{}{
		"symbol":        symbol,
		"amount":        amount.String(),
		"side":          side,
		"is_everything": isEverything,
		"ord_type":      "market",
	})
}

func (c *Connector) StopOrder(ctx context.Context, symbol string, amount, price decimal.Decimal, side, trigger string) (string, error) {
	return c.placeOrder(ctx, map[string]interface{}{
		"symbol":   symbol,
		"amount":   amount.String(),
		"price":    price.String(),
		"side":     side,
		"trigger":  trigger,
		"ord_type": "stop",
	})
}

func (c *Connector) placeOrder(ctx context.Context, payload map[string]interface{}) (string, error) {
	if err := c.rl.Wait(ctx, "order"); err != nil {
		return "", err
	}

	var result orderIDResponse
	resp, err := c.http.R().SetContext(ctx).SetBody(payload).SetResult(&result).Post("/orders")
	if err != nil {
		return "", fmt.Errorf("refrest: placeOrder: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("refrest: placeOrder: status %d: %s", resp.StatusCode(), resp.String())
	}
	return result.ID, nil
}

func (c *Connector) ActiveOrders(ctx context.Context, symbol, side string) ([]exchangeapi.Order, error) {
	if err := c.rl.Wait(ctx, "market"); err != nil {
		return nil, err
	}

	var result []orderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": symbol, "side": side}).
		SetResult(&result).
		Get("/orders/active")
	if err != nil {
		return nil, fmt.Errorf("refrest: activeOrders: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("refrest: activeOrders: status %d: %s", resp.StatusCode(), resp.String())
	}

	out := make([]exchangeapi.Order, 0, len(result))
	for _, o := range result {
		out = append(out, o.toOrder())
	}
	return out, nil
}

// CancelOrders is retried with retry.AggressiveConfig on top of resty's own
// transport-level 5xx retry: orders must not leak across the manager's
// close grace window (spec.md §5), so cancellation gets its own,
// faster-paced retry layer rather than relying solely on the shared HTTP
// client's defaults.
func (c *Connector) CancelOrders(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return retry.Do(ctx, func() error {
		if err := c.rl.Wait(ctx, "order"); err != nil {
			return retry.Permanent(err)
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(map[string]interface{}{"order_ids": orderIDs}).
			Delete("/orders")
		if err != nil {
			return fmt.Errorf("refrest: cancelOrders: %w", err)
		}
		if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
			return fmt.Errorf("refrest: cancelOrders: status %d: %s", resp.StatusCode(), resp.String())
		}
		return nil
	}, retry.AggressiveConfig())
}

type orderResponse struct {
	ID        string `json:"id"`
	Symbol    string `json:"symbol"`
	OrdType   string `json:"ord_type"`
	Side      string `json:"side"`
	Amount    string `json:"amount"`
	Remaining string `json:"remaining"`
	Executed  string `json:"executed"`
	IsFilled  bool   `json:"is_filled"`
	IsOpen    bool   `json:"is_open"`
}

func (o orderResponse) toOrder() exchangeapi.Order {
	amount, _ := decimal.NewFromString(o.Amount)
	remaining, _ := decimal.NewFromString(o.Remaining)
	executed, _ := decimal.NewFromString(o.Executed)
	return exchangeapi.Order{
		ID:        o.ID,
		Symbol:    o.Symbol,
		OrdType:   o.OrdType,
		Side:      o.Side,
		Amount:    amount,
		Remaining: remaining,
		Executed:  executed,
		IsFilled:  o.IsFilled,
		IsOpen:    o.IsOpen,
	}
}

func (c *Connector) Order(ctx context.Context, orderID string) (*exchangeapi.Order, error) {
	if err := c.rl.Wait(ctx, "market"); err != nil {
		return nil, err
	}

	var result orderResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&result).Get("/orders/" + orderID)
	if err != nil {
		return nil, fmt.Errorf("refrest: order: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("refrest: order: status %d: %s", resp.StatusCode(), resp.String())
	}
	order := result.toOrder()
	return &order, nil
}

func (c *Connector) UpdateOrderPrice(ctx context.Context, orderID string, price decimal.Decimal) (string, error) {
	if err := c.rl.Wait(ctx, "order"); err != nil {
		return "", err
	}

	var result orderIDResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"price": price.String()}).
		SetResult(&result).
		Put("/orders/" + orderID)
	if err != nil {
		return "", fmt.Errorf("refrest: updateOrderPrice: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("refrest: updateOrderPrice: status %d: %s", resp.StatusCode(), resp.String())
	}
	if result.ID == "" {
		return orderID, nil
	}
	return result.ID, nil
}

var _ exchangeapi.Port = (*Connector)(nil)

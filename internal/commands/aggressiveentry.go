package commands

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/cmderr"
	"github.com/inetpeople/instabot-trader/internal/exprx"
	"github.com/inetpeople/instabot-trader/internal/runtime"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
	"github.com/inetpeople/instabot-trader/pkg/utils"
)

const aggressiveEntryMaxPlacementAttempts = 20

// AggressiveEntry implements spec.md §4.3 aggressiveEntry(side, amount,
// position, timeLimit=inf, slippageLimit=empty, tag): a synthetic
// market-taker that chases the top of book with post-only limit orders
// until the full amount fills, a time limit elapses, or slippage blows
// through the limit.
type AggressiveEntry struct {
	Base

	Side          string
	AmountLeft    decimal.Decimal
	Position      string
	TimeLimit     time.Duration // zero means no limit
	SlippageLimit decimal.Decimal
	HasSlippage   bool

	startedAt     int64 // epoch ms
	activeOrderID string
	activePrice   decimal.Decimal
	slippagePrice decimal.Decimal
}

func NewAggressiveEntry(b Base, a args.Args) (*AggressiveEntry, error) {
	side, _, err := args.ValidateSide(a.GetOr("side", "buy"))
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(a.GetOr("amount", "0"))
	if err != nil {
		return nil, err
	}
	position := a.GetOr("position", "")

	var limit time.Duration
	if raw, ok := a.Get("timeLimit"); ok && raw != "" {
		limit, err = exprx.ParseDuration(raw)
		if err != nil {
			return nil, &cmderr.InvalidArgument{Field: "timeLimit", Reason: err.Error()}
		}
	}

	var slip decimal.Decimal
	hasSlip := false
	if raw, ok := a.Get("slippageLimit"); ok && raw != "" {
		slip, err = decimal.NewFromString(raw)
		if err != nil {
			return nil, &cmderr.InvalidArgument{Field: "slippageLimit", Reason: err.Error()}
		}
		hasSlip = true
	}

	b.Tag = a.GetOr("tag", "")
	return &AggressiveEntry{
		Base:          b,
		Side:          side,
		AmountLeft:    amount,
		Position:      position,
		TimeLimit:     limit,
		SlippageLimit: slip,
		HasSlippage:   hasSlip,
	}, nil
}

func (c *AggressiveEntry) Name() string { return "aggressiveEntry" }

func (c *AggressiveEntry) CanCompleteInBackground() bool { return true }

func (c *AggressiveEntry) Execute(ctx context.Context) (scheduler.State, error) {
	if c.Position != "" {
		side, _, amount, err := args.ResolvePosition(ctx, c.Exchange, c.Symbol, c.Position)
		if err != nil {
			return scheduler.Finished, err
		}
		c.Side, c.AmountLeft = side, amount
	}

	c.startedAt = utils.UnixMillis()
	c.Register(c.Side)

	if c.HasSlippage {
		ticker, err := c.Exchange.Port.Ticker(ctx, c.Symbol)
		if err != nil {
			return scheduler.Finished, err
		}
		ref := runtime.SideQuotedPrice(ticker, c.Side)
		c.slippagePrice = ref.Add(c.SlippageLimit.Mul(decimal.NewFromInt(int64(runtime.OffsetFavourableSign(oppositeOf(c.Side))))))
	}

	return c.BackgroundExecute(ctx)
}

func (c *AggressiveEntry) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	minOrderSize := decimal.NewFromFloat(0.00000001)
	if d, ok := c.Exchange.Symbols.Get(c.Symbol); ok {
		minOrderSize = d.MinOrderSize
	}

	if c.AmountLeft.LessThan(minOrderSize) {
		return scheduler.Finished, nil
	}

	if c.TimeLimit > 0 {
		elapsed := time.Duration(utils.UnixMillis()-c.startedAt) * time.Millisecond
		if elapsed >= c.TimeLimit {
			c.cancelActive(ctx)
			return scheduler.Finished, nil
		}
	}

	ticker, err := c.Exchange.Port.Ticker(ctx, c.Symbol)
	if err != nil {
		return scheduler.Finished, err
	}
	price := ticker.Bid
	if c.Side == "sell" {
		price = ticker.Ask
	}

	if c.HasSlippage {
		blown := (c.Side == "buy" && price.GreaterThan(c.slippagePrice)) ||
			(c.Side == "sell" && price.LessThan(c.slippagePrice))
		if blown {
			c.cancelActive(ctx)
			return scheduler.Finished, nil
		}
	}

	if c.activeOrderID == "" {
		return c.placeTopOfBook(ctx, price)
	}

	return c.pollActive(ctx, price)
}

func (c *AggressiveEntry) placeTopOfBook(ctx context.Context, price decimal.Decimal) (scheduler.State, error) {
	amount := c.Exchange.Symbols.RoundAmount(c.Symbol, c.AmountLeft)
	var lastErr error
	for attempt := 0; attempt < aggressiveEntryMaxPlacementAttempts; attempt++ {
		id, err := c.Exchange.Port.LimitOrder(ctx, c.Symbol, amount, price, c.Side, true, false)
		if err == nil {
			c.activeOrderID = id
			c.activePrice = price
			c.Session.Record(c.Tag, id)
			return scheduler.KeepGoingBackOff, nil
		}
		lastErr = err
	}
	return scheduler.Finished, &cmderr.ApiTransient{Op: "limitOrder", Err: lastErr}
}

func (c *AggressiveEntry) pollActive(ctx context.Context, topOfBook decimal.Decimal) (scheduler.State, error) {
	order, err := c.Exchange.Port.Order(ctx, c.activeOrderID)
	if err != nil {
		return scheduler.Finished, err
	}
	if order == nil {
		c.activeOrderID = ""
		return scheduler.KeepGoing, nil
	}

	if order.IsFilled {
		c.AmountLeft = c.AmountLeft.Sub(order.Executed)
		c.activeOrderID = ""
		return scheduler.KeepGoing, nil
	}
	if !order.IsOpen {
		// closed but not filled: abort per spec.md §4.3 step 6.
		return scheduler.Finished, &cmderr.ApiTransient{Op: "order", Err: nil}
	}

	if topOfBook.Equal(c.activePrice) {
		return scheduler.KeepGoingBackOff, nil
	}

	// top of book moved away from our resting price: cancel, book whatever
	// filled so far, reset so the next iteration re-quotes.
	c.Exchange.Port.CancelOrders(ctx, []string{c.activeOrderID})
	c.AmountLeft = c.AmountLeft.Sub(order.Executed)
	c.activeOrderID = ""
	return scheduler.KeepGoing, nil
}

func (c *AggressiveEntry) cancelActive(ctx context.Context) {
	if c.activeOrderID != "" {
		c.Exchange.Port.CancelOrders(ctx, []string{c.activeOrderID})
		c.activeOrderID = ""
	}
}

func (c *AggressiveEntry) OnCancelled(ctx context.Context) error {
	c.cancelActive(ctx)
	return nil
}

func oppositeOf(side string) string {
	if side == "buy" {
		return "sell"
	}
	return "buy"
}

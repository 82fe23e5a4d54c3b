package commands

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

// LimitOrder implements spec.md §4.3 limitOrder(side, amount, offset,
// postOnly=false, reduceOnly=false, tag): one API call, registers under
// session+tag, never suspends.
type LimitOrder struct {
	Base

	Side       string
	Amount     decimal.Decimal
	Offset     string
	PostOnly   bool
	ReduceOnly bool
}

func NewLimitOrder(b Base, a args.Args) (*LimitOrder, error) {
	side, _, err := args.ValidateSide(a.GetOr("side", "buy"))
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(a.GetOr("amount", "0"))
	if err != nil {
		return nil, err
	}
	b.Tag = a.GetOr("tag", "")
	return &LimitOrder{
		Base:       b,
		Side:       side,
		Amount:     amount,
		Offset:     a.GetOr("offset", "0"),
		PostOnly:   a.Bool("postOnly"),
		ReduceOnly: a.Bool("reduceOnly"),
	}, nil
}

func (c *LimitOrder) Name() string { return "limitOrder" }

func (c *LimitOrder) Execute(ctx context.Context) (scheduler.State, error) {
	price, err := args.OffsetToPrice(ctx, c.Exchange, c.Symbol, c.Side, c.Offset)
	if err != nil {
		return scheduler.Finished, err
	}
	amount, err := args.CalculateAmount(ctx, c.Exchange, c.Symbol, c.Side, c.Amount)
	if err != nil {
		return scheduler.Finished, err
	}

	orderID, err := c.Exchange.Port.LimitOrder(ctx, c.Symbol, amount, price, c.Side, c.PostOnly, c.ReduceOnly)
	if err != nil {
		return scheduler.Finished, err
	}
	c.Session.Record(c.Tag, orderID)
	return scheduler.Finished, nil
}

func (c *LimitOrder) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

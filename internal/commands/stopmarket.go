package commands

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

// StopMarketOrder implements spec.md §4.3 stopMarketOrder(side, offset,
// amount, trigger, tag): one API stopOrder call.
type StopMarketOrder struct {
	Base

	Side    string
	Offset  string
	Amount  decimal.Decimal
	Trigger string
}

func NewStopMarketOrder(b Base, a args.Args) (*StopMarketOrder, error) {
	side, _, err := args.ValidateSide(a.GetOr("side", "buy"))
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(a.GetOr("amount", "0"))
	if err != nil {
		return nil, err
	}
	b.Tag = a.GetOr("tag", "")
	return &StopMarketOrder{
		Base:    b,
		Side:    side,
		Offset:  a.GetOr("offset", "0"),
		Amount:  amount,
		Trigger: args.ValidateTrigger(a.GetOr("trigger", "last")),
	}, nil
}

func (c *StopMarketOrder) Name() string { return "stopMarketOrder" }

func (c *StopMarketOrder) Execute(ctx context.Context) (scheduler.State, error) {
	price, err := args.OffsetToPrice(ctx, c.Exchange, c.Symbol, c.Side, c.Offset)
	if err != nil {
		return scheduler.Finished, err
	}
	amount, err := args.CalculateAmount(ctx, c.Exchange, c.Symbol, c.Side, c.Amount)
	if err != nil {
		return scheduler.Finished, err
	}
	orderID, err := c.Exchange.Port.StopOrder(ctx, c.Symbol, amount, price, c.Side, c.Trigger)
	if err != nil {
		return scheduler.Finished, err
	}
	c.Session.Record(c.Tag, orderID)
	return scheduler.Finished, nil
}

func (c *StopMarketOrder) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

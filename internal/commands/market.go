package commands

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

// MarketOrder implements spec.md §4.3 marketOrder(side, amount, position,
// tag): one API call; isEverything is inferred from position=all, a
// concrete numeric position instead runs step 4's calculatePosition
// (spec.md §4.1) before the order is sized.
type MarketOrder struct {
	Base

	Side         string
	Amount       decimal.Decimal
	Position     string
	IsEverything bool
}

func NewMarketOrder(b Base, a args.Args) (*MarketOrder, error) {
	side, _, err := args.ValidateSide(a.GetOr("side", "buy"))
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(a.GetOr("amount", "0"))
	if err != nil {
		return nil, err
	}
	position := strings.ToLower(strings.TrimSpace(a.GetOr("position", "")))
	isEverything := position == "all" || position == "everything"
	b.Tag = a.GetOr("tag", "")
	m := &MarketOrder{
		Base:         b,
		Side:         side,
		Amount:       amount,
		IsEverything: isEverything,
	}
	if position != "" && !isEverything {
		m.Position = position
	}
	return m, nil
}

func (c *MarketOrder) Name() string { return "marketOrder" }

func (c *MarketOrder) Execute(ctx context.Context) (scheduler.State, error) {
	side, rawAmount := c.Side, c.Amount
	if c.Position != "" {
		resolvedSide, _, resolvedAmount, err := args.ResolvePosition(ctx, c.Exchange, c.Symbol, c.Position)
		if err != nil {
			return scheduler.Finished, err
		}
		side, rawAmount = resolvedSide, resolvedAmount
	}

	amount, err := args.CalculateAmount(ctx, c.Exchange, c.Symbol, side, rawAmount)
	if err != nil {
		return scheduler.Finished, err
	}
	orderID, err := c.Exchange.Port.MarketOrder(ctx, c.Symbol, amount, side, c.IsEverything)
	if err != nil {
		return scheduler.Finished, err
	}
	c.Session.Record(c.Tag, orderID)
	return scheduler.Finished, nil
}

func (c *MarketOrder) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

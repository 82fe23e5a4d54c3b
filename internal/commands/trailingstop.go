package commands

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/exprx"
	"github.com/inetpeople/instabot-trader/internal/runtime"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

// TrailingStop implements spec.md §4.3 trailingStop(side, offset, amount,
// position, trigger=last, background=true, tag): places the initial stop
// via stopOrder using the opposite side's offset convention (per §4.1's
// note that a subclass may invoke a second offsetToPrice(oppositeSide) for
// stops), then ratchets the stop price in the background.
type TrailingStop struct {
	Base

	Side         string
	Opposite     string
	Amount       decimal.Decimal
	Position     string
	Trigger      string
	Background   bool
	RawOffset    string
	trailing     exprx.Offset
	orderID      string
	lastPrice    decimal.Decimal
	initialPrice decimal.Decimal
}

func NewTrailingStop(b Base, a args.Args) (*TrailingStop, error) {
	side, opposite, err := args.ValidateSide(a.GetOr("side", "sell"))
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(a.GetOr("amount", "0"))
	if err != nil {
		return nil, err
	}
	b.Tag = a.GetOr("tag", "")
	return &TrailingStop{
		Base:       b,
		Side:       side,
		Opposite:   opposite,
		Amount:     amount,
		Position:   a.GetOr("position", ""),
		Trigger:    args.ValidateTrigger(a.GetOr("trigger", "last")),
		Background: args.ValidateBackground(a.GetOr("background", "true")),
		RawOffset:  a.GetOr("offset", "0"),
	}, nil
}

func (c *TrailingStop) Name() string { return "trailingStop" }

func (c *TrailingStop) CanCompleteInBackground() bool { return c.Background }

func (c *TrailingStop) Execute(ctx context.Context) (scheduler.State, error) {
	side, opposite, rawAmount := c.Side, c.Opposite, c.Amount
	if c.Position != "" {
		resolvedSide, resolvedOpposite, resolvedAmount, err := args.ResolvePosition(ctx, c.Exchange, c.Symbol, c.Position)
		if err != nil {
			return scheduler.Finished, err
		}
		side, opposite, rawAmount = resolvedSide, resolvedOpposite, resolvedAmount
		c.Side, c.Opposite = side, opposite
	}

	off, err := exprx.ParseOffset(c.RawOffset)
	if err != nil {
		return scheduler.Finished, err
	}

	price, err := args.OffsetToPrice(ctx, c.Exchange, c.Symbol, opposite, c.RawOffset)
	if err != nil {
		return scheduler.Finished, err
	}
	amount, err := args.CalculateAmount(ctx, c.Exchange, c.Symbol, side, rawAmount)
	if err != nil {
		return scheduler.Finished, err
	}

	ticker, err := c.Exchange.Port.Ticker(ctx, c.Symbol)
	if err != nil {
		return scheduler.Finished, err
	}

	orderID, err := c.Exchange.Port.StopOrder(ctx, c.Symbol, amount, price, c.Side, c.Trigger)
	if err != nil {
		return scheduler.Finished, err
	}
	c.Session.Record(c.Tag, orderID)
	c.orderID = orderID
	c.lastPrice = price

	// Per spec.md §4.3's trailingStop offset-parsing rule: "@X" is
	// converted to a fixed tick distance up front; "N%" stays percent-based
	// so the trailing distance expands with price.
	if off.Kind == exprx.Absolute {
		initial := runtime.SideQuotedPrice(ticker, c.Opposite)
		c.initialPrice = initial
		c.trailing = exprx.AsTicks(initial, price)
	} else {
		c.trailing = off
	}

	c.Register(c.Side)
	return scheduler.KeepGoingBackOff, nil
}

func (c *TrailingStop) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	order, err := c.Exchange.Port.Order(ctx, c.orderID)
	if err != nil {
		return scheduler.Finished, err
	}
	if order == nil || order.IsFilled || !order.IsOpen {
		return scheduler.Finished, nil
	}

	suggested, err := args.ResolveOffset(ctx, c.Exchange, c.Symbol, c.Opposite, c.trailing)
	if err != nil {
		return scheduler.Finished, err
	}

	moved := false
	if c.Side == "sell" {
		moved = suggested.GreaterThan(c.lastPrice)
	} else {
		moved = suggested.LessThan(c.lastPrice)
	}
	if !moved {
		return scheduler.KeepGoingBackOff, nil
	}

	newID, err := c.Exchange.Port.UpdateOrderPrice(ctx, c.orderID, suggested)
	if err != nil {
		return scheduler.Finished, err
	}
	c.Session.Replace(c.orderID, newID)
	c.orderID = newID
	c.lastPrice = suggested
	return scheduler.KeepGoing, nil
}

func (c *TrailingStop) OnCancelled(ctx context.Context) error {
	if c.orderID == "" {
		return nil
	}
	return c.Exchange.Port.CancelOrders(ctx, []string{c.orderID})
}

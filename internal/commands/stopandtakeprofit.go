package commands

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/exchangeapi"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

// StopAndTakeProfitOrder implements spec.md §4.3 stopAndTakeProfitOrder(side,
// tp, sl, amount, tag): places a post-only reduce-only limit at tp and a
// stop-market at sl, then races them; whichever fills or closes first wins
// and the other leg is cancelled best-effort.
type StopAndTakeProfitOrder struct {
	Base

	Side     string
	Opposite string
	TP       string
	SL       string
	Amount   decimal.Decimal

	tpOrderID string
	slOrderID string
}

func NewStopAndTakeProfitOrder(b Base, a args.Args) (*StopAndTakeProfitOrder, error) {
	side, opposite, err := args.ValidateSide(a.GetOr("side", "sell"))
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(a.GetOr("amount", "0"))
	if err != nil {
		return nil, err
	}
	b.Tag = a.GetOr("tag", "")
	return &StopAndTakeProfitOrder{
		Base:     b,
		Side:     side,
		Opposite: opposite,
		TP:       a.GetOr("tp", "0"),
		SL:       a.GetOr("sl", "0"),
		Amount:   amount,
	}, nil
}

func (c *StopAndTakeProfitOrder) Name() string { return "stopAndTakeProfitOrder" }

// CanCompleteInBackground is false: spec.md §4.3 runs this one in the
// foreground "at maxPollingDelay pace", unlike the rest of the algo-order
// family. PollDelay pins the scheduler's shared poll loop to that pace
// instead of letting it ramp from minPollingDelay.
func (c *StopAndTakeProfitOrder) CanCompleteInBackground() bool { return false }

func (c *StopAndTakeProfitOrder) PollDelay() time.Duration { return c.Exchange.MaxPollingDelay }

func (c *StopAndTakeProfitOrder) Execute(ctx context.Context) (scheduler.State, error) {
	tpPrice, err := args.OffsetToPrice(ctx, c.Exchange, c.Symbol, c.Side, c.TP)
	if err != nil {
		return scheduler.Finished, err
	}
	slPrice, err := args.OffsetToPrice(ctx, c.Exchange, c.Symbol, c.Opposite, c.SL)
	if err != nil {
		return scheduler.Finished, err
	}
	amount, err := args.CalculateAmount(ctx, c.Exchange, c.Symbol, c.Side, c.Amount)
	if err != nil {
		return scheduler.Finished, err
	}

	tpID, err := c.Exchange.Port.LimitOrder(ctx, c.Symbol, amount, tpPrice, c.Side, true, true)
	if err != nil {
		return scheduler.Finished, err
	}
	slID, err := c.Exchange.Port.StopOrder(ctx, c.Symbol, amount, slPrice, c.Side, "last")
	if err != nil {
		c.Exchange.Port.CancelOrders(ctx, []string{tpID})
		return scheduler.Finished, err
	}

	c.tpOrderID, c.slOrderID = tpID, slID
	c.Session.Record(c.Tag, tpID)
	c.Session.Record(c.Tag, slID)
	c.Register(c.Side)
	return scheduler.KeepGoingBackOff, nil
}

func (c *StopAndTakeProfitOrder) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	tp, err := c.Exchange.Port.Order(ctx, c.tpOrderID)
	if err != nil {
		return scheduler.Finished, err
	}
	sl, err := c.Exchange.Port.Order(ctx, c.slOrderID)
	if err != nil {
		return scheduler.Finished, err
	}

	if orderDone(tp) {
		c.cancelBestEffort(ctx, c.slOrderID)
		return scheduler.Finished, nil
	}
	if orderDone(sl) {
		c.cancelBestEffort(ctx, c.tpOrderID)
		return scheduler.Finished, nil
	}
	return scheduler.KeepGoingBackOff, nil
}

// orderDone reports whether an order has filled or otherwise left the book
// (closed-but-unfilled also counts: the leg is no longer racing).
func orderDone(o *exchangeapi.Order) bool {
	if o == nil {
		return true
	}
	return o.IsFilled || !o.IsOpen
}

func (c *StopAndTakeProfitOrder) cancelBestEffort(ctx context.Context, orderID string) {
	// best-effort per spec.md §7 ApiTransient handling for stop-and-TP:
	// ignore errors cancelling the non-winning leg.
	_ = c.Exchange.Port.CancelOrders(ctx, []string{orderID})
}

func (c *StopAndTakeProfitOrder) OnCancelled(ctx context.Context) error {
	c.cancelBestEffort(ctx, c.tpOrderID)
	c.cancelBestEffort(ctx, c.slOrderID)
	return nil
}

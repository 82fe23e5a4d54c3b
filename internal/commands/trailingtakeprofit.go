package commands

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/exprx"
	"github.com/inetpeople/instabot-trader/internal/runtime"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

type ttpPhase int

const (
	ttpWaitTrigger ttpPhase = iota
	ttpTrailing
)

// TrailingTakeProfit implements spec.md §4.3 trailingTakeProfit(side,
// offset, triggerOffset=1%, amount, position, trigger=last,
// background=true, tag): a two-state machine (WAIT_TRIGGER, TRAILING)
// where TRAILING delegates to the trailing-stop subroutine (spec.md §9).
type TrailingTakeProfit struct {
	Base

	Side          string
	Opposite      string
	Amount        decimal.Decimal
	Position      string
	Trigger       string
	Background    bool
	RawOffset     string
	TriggerOffset string

	phase        ttpPhase
	triggerPrice decimal.Decimal
	trail        *TrailingStop
}

func NewTrailingTakeProfit(b Base, a args.Args) (*TrailingTakeProfit, error) {
	side, opposite, err := args.ValidateSide(a.GetOr("side", "sell"))
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(a.GetOr("amount", "0"))
	if err != nil {
		return nil, err
	}
	b.Tag = a.GetOr("tag", "")
	return &TrailingTakeProfit{
		Base:          b,
		Side:          side,
		Opposite:      opposite,
		Amount:        amount,
		Position:      a.GetOr("position", ""),
		Trigger:       args.ValidateTrigger(a.GetOr("trigger", "last")),
		Background:    args.ValidateBackground(a.GetOr("background", "true")),
		RawOffset:     a.GetOr("offset", "0"),
		TriggerOffset: a.GetOr("triggerOffset", "1%"),
	}, nil
}

func (c *TrailingTakeProfit) Name() string { return "trailingTakeProfit" }

func (c *TrailingTakeProfit) CanCompleteInBackground() bool { return c.Background }

// Execute implements spec.md §4.1 step 4 (when position is present) and
// resolves triggerPrice once, against the setup-time ticker, to a fixed
// absolute level: phase 1 waits for the live crossover price to cross that
// frozen level, not a target that keeps tracking the market. It then
// returns KeepGoingBackOff immediately after setup, per spec.md §4.3.
func (c *TrailingTakeProfit) Execute(ctx context.Context) (scheduler.State, error) {
	if c.Position != "" {
		side, opposite, amount, err := args.ResolvePosition(ctx, c.Exchange, c.Symbol, c.Position)
		if err != nil {
			return scheduler.Finished, err
		}
		c.Side, c.Opposite, c.Amount = side, opposite, amount
	}

	spec, err := exprx.ParseOffset(c.TriggerOffset)
	if err != nil {
		return scheduler.Finished, err
	}
	triggerPrice, err := args.ResolveOffset(ctx, c.Exchange, c.Symbol, c.Side, spec)
	if err != nil {
		return scheduler.Finished, err
	}
	c.triggerPrice = triggerPrice
	c.phase = ttpWaitTrigger
	c.Register(c.Side)
	return scheduler.KeepGoingBackOff, nil
}

func (c *TrailingTakeProfit) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	if c.phase == ttpTrailing {
		return c.trail.BackgroundExecute(ctx)
	}

	ticker, err := c.Exchange.Port.Ticker(ctx, c.Symbol)
	if err != nil {
		return scheduler.Finished, err
	}

	cross := runtime.CrossoverPrice(ticker, c.Side)
	crossed := false
	if c.Side == "sell" {
		crossed = cross.GreaterThanOrEqual(c.triggerPrice)
	} else {
		crossed = cross.LessThanOrEqual(c.triggerPrice)
	}
	if !crossed {
		return scheduler.KeepGoingBackOff, nil
	}

	trail := &TrailingStop{
		Base:       c.Base,
		Side:       c.Side,
		Opposite:   c.Opposite,
		Amount:     c.Amount,
		Trigger:    c.Trigger,
		Background: c.Background,
		RawOffset:  c.RawOffset,
	}
	state, err := trail.Execute(ctx)
	if err != nil {
		return scheduler.Finished, err
	}
	// trail.Execute registered its own algo-order entry as a side effect of
	// reusing TrailingStop verbatim; the outer trailingTakeProfit entry
	// (registered once, at setup) is the one the scheduler and cancelOrders
	// actually track, so drop the inner one to avoid an orphaned registry
	// row that never gets removed.
	if inner := trail.AlgoEntry(); inner != nil {
		c.Exchange.Registry.Remove(inner.ID)
	}
	c.trail = trail
	c.phase = ttpTrailing
	return state, nil
}

func (c *TrailingTakeProfit) OnCancelled(ctx context.Context) error {
	if c.phase == ttpTrailing && c.trail != nil {
		return c.trail.OnCancelled(ctx)
	}
	return nil
}

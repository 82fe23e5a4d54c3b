package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/args"
	"github.com/inetpeople/instabot-trader/internal/exprx"
	"github.com/inetpeople/instabot-trader/internal/scheduler"
)

// ScaledOrder is the builder-pattern command supplemented in SPEC_FULL.md
// §C: places Slices limitOrders between From and To offsets (a linear price
// ladder), amount split evenly with the remainder on the last slice, every
// slice tagged identically.
type ScaledOrder struct {
	Base

	Side   string
	Amount decimal.Decimal
	From   string
	To     string
	Slices int

	legs []*LimitOrder
}

// ScaledOrderBuilder mirrors the teacher's small fluent constructors
// (pkg/retry's Retryer.WithOnRetry chain).
type ScaledOrderBuilder struct {
	side   string
	amount decimal.Decimal
	from   string
	to     string
	slices int
	tag    string
}

func NewScaledOrder() *ScaledOrderBuilder {
	return &ScaledOrderBuilder{slices: 1}
}

func (sb *ScaledOrderBuilder) Side(side string) *ScaledOrderBuilder    { sb.side = side; return sb }
func (sb *ScaledOrderBuilder) Amount(a decimal.Decimal) *ScaledOrderBuilder {
	sb.amount = a
	return sb
}
func (sb *ScaledOrderBuilder) From(offset string) *ScaledOrderBuilder { sb.from = offset; return sb }
func (sb *ScaledOrderBuilder) To(offset string) *ScaledOrderBuilder   { sb.to = offset; return sb }
func (sb *ScaledOrderBuilder) Slices(n int) *ScaledOrderBuilder       { sb.slices = n; return sb }
func (sb *ScaledOrderBuilder) Tag(tag string) *ScaledOrderBuilder     { sb.tag = tag; return sb }

func (sb *ScaledOrderBuilder) Build(b Base) (*ScaledOrder, error) {
	side, _, err := args.ValidateSide(sb.side)
	if err != nil {
		return nil, err
	}
	if sb.slices < 1 {
		return nil, fmt.Errorf("commands: scaledOrder requires at least one slice")
	}
	b.Tag = sb.tag
	return &ScaledOrder{
		Base:   b,
		Side:   side,
		Amount: sb.amount,
		From:   sb.from,
		To:     sb.to,
		Slices: sb.slices,
	}, nil
}

// NewScaledOrderFromArgs builds a ScaledOrder from parsed command
// arguments, for uniformity with the rest of the command factory.
func NewScaledOrderFromArgs(b Base, a args.Args) (*ScaledOrder, error) {
	amount, err := decimal.NewFromString(a.GetOr("amount", "0"))
	if err != nil {
		return nil, err
	}
	slices := 1
	if raw, ok := a.Get("slices"); ok {
		fmt.Sscanf(raw, "%d", &slices)
	}
	return NewScaledOrder().
		Side(a.GetOr("side", "buy")).
		Amount(amount).
		From(a.GetOr("from", "0")).
		To(a.GetOr("to", "0")).
		Slices(slices).
		Tag(a.GetOr("tag", "")).
		Build(b)
}

func (c *ScaledOrder) Name() string { return "scaledOrder" }

func (c *ScaledOrder) Execute(ctx context.Context) (scheduler.State, error) {
	fromOff, err := exprx.ParseOffset(c.From)
	if err != nil {
		return scheduler.Finished, err
	}
	toOff, err := exprx.ParseOffset(c.To)
	if err != nil {
		return scheduler.Finished, err
	}

	perSlice := c.Amount.Div(decimal.NewFromInt(int64(c.Slices)))
	remainder := c.Amount.Sub(perSlice.Mul(decimal.NewFromInt(int64(c.Slices - 1))))

	for i := 0; i < c.Slices; i++ {
		frac := decimal.NewFromInt(int64(i))
		if c.Slices > 1 {
			frac = frac.Div(decimal.NewFromInt(int64(c.Slices - 1)))
		}
		legOffset := interpolateOffset(fromOff, toOff, frac)

		amount := perSlice
		if i == c.Slices-1 {
			amount = remainder
		}

		price, err := resolveLegPrice(ctx, c, legOffset)
		if err != nil {
			return scheduler.Finished, err
		}

		orderID, err := c.Exchange.Port.LimitOrder(ctx, c.Symbol, amount, price, c.Side, true, false)
		if err != nil {
			return scheduler.Finished, err
		}
		c.Session.Record(c.Tag, orderID)
	}
	return scheduler.Finished, nil
}

func (c *ScaledOrder) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

func interpolateOffset(from, to exprx.Offset, frac decimal.Decimal) exprx.Offset {
	if from.Kind != to.Kind {
		// mixed-kind ladders fall back to the "to" kind; a from/to pair is
		// expected to share units in practice.
		return to
	}
	delta := to.Value.Sub(from.Value).Mul(frac)
	return exprx.Offset{Kind: from.Kind, Value: from.Value.Add(delta)}
}

func resolveLegPrice(ctx context.Context, c *ScaledOrder, off exprx.Offset) (decimal.Decimal, error) {
	return args.ResolveOffset(ctx, c.Exchange, c.Symbol, c.Side, off)
}

// Package exprx normalizes the small dynamically-typed literals that arrive
// as raw strings out of the parser: offsets, durations and the boolean
// condition grammar consumed by continueIf/stopIf.
package exprx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// OffsetKind tags which of the three offset syntaxes a literal parsed as.
type OffsetKind int

const (
	// Ticks is a plain number: an additive displacement away from the
	// side-quoted price, in the side-favourable direction.
	Ticks OffsetKind = iota
	// Percent is "N%": a percentage of the current side-quoted price.
	Percent
	// Absolute is "@X": an absolute price, ignoring the current quote.
	Absolute
)

// Offset is the resolved tagged union spec.md's design notes ask for in
// place of the dynamically-typed string literal.
type Offset struct {
	Kind  OffsetKind
	Value decimal.Decimal
}

// ParseOffset parses "100", "1%" or "@9000" into a tagged Offset.
func ParseOffset(raw string) (Offset, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Offset{}, fmt.Errorf("exprx: empty offset")
	}

	if strings.HasPrefix(s, "@") {
		v, err := decimal.NewFromString(strings.TrimSpace(s[1:]))
		if err != nil {
			return Offset{}, fmt.Errorf("exprx: invalid absolute offset %q: %w", raw, err)
		}
		return Offset{Kind: Absolute, Value: v}, nil
	}

	if strings.HasSuffix(s, "%") {
		v, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(s, "%")))
		if err != nil {
			return Offset{}, fmt.Errorf("exprx: invalid percent offset %q: %w", raw, err)
		}
		return Offset{Kind: Percent, Value: v}, nil
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return Offset{}, fmt.Errorf("exprx: invalid offset %q: %w", raw, err)
	}
	return Offset{Kind: Ticks, Value: v}, nil
}

// Resolve turns the spec into an absolute price given the current
// side-quoted reference price and whether side is the favourable direction
// (buy favours lower prices, sell favours higher). favourableSign is +1 to
// move the price up, -1 to move it down, applied to the Ticks and Percent
// cases (Absolute ignores it).
func (o Offset) Resolve(sideQuotedPrice decimal.Decimal, favourableSign int) decimal.Decimal {
	switch o.Kind {
	case Absolute:
		return o.Value
	case Percent:
		factor := decimal.NewFromInt(int64(favourableSign)).Mul(o.Value).Div(decimal.NewFromInt(100))
		return sideQuotedPrice.Mul(decimal.NewFromInt(1).Add(factor))
	default: // Ticks
		delta := o.Value.Mul(decimal.NewFromInt(int64(favourableSign)))
		return sideQuotedPrice.Add(delta)
	}
}

// IsExpanding reports whether the offset's absolute distance grows as price
// moves (percent offsets do; absolute and tick offsets, once converted to a
// fixed tick distance, do not). trailingStop applies the same rule by
// checking Kind directly: a "@X" trailing offset is first converted into a
// fixed tick distance, a "N%" offset stays percent-based for the life of the
// order.
func (o Offset) IsExpanding() bool { return o.Kind == Percent }

// AsTicks converts an Absolute-kind offset already resolved against a known
// initial price/orderPrice pair into a fixed Ticks offset, per spec.md
// 4.3's trailingStop offset-parsing rule: "if the user gave @X, compute
// trailingOffset = |initialPrice - orderPrice|".
func AsTicks(initialPrice, orderPrice decimal.Decimal) Offset {
	return Offset{Kind: Ticks, Value: initialPrice.Sub(orderPrice).Abs()}
}

func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

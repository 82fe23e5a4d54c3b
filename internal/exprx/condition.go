package exprx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/pkg/utils"
)

// Context carries the market/time/position facts a condition predicate is
// evaluated against. price tests use (bid+ask)/2; position tests use signed
// position size, per spec.md §6.
type Context struct {
	Bid      decimal.Decimal
	Ask      decimal.Decimal
	Position decimal.Decimal
}

func (c Context) midPrice() decimal.Decimal {
	return c.Bid.Add(c.Ask).Div(decimal.NewFromInt(2))
}

// EvalCondition evaluates one of the condition literals from spec.md §6
// against ctx. value is the condition's single argument where one is
// required (a date, a time-of-day, or a numeric comparison operand).
func EvalCondition(name, value string, ctx Context) (bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	switch name {
	case "always", "true":
		return true, nil
	case "never", "false":
		return false, nil

	case "isafterdate", "isonorafterdate", "isbeforedate", "isonorbeforedate", "issamedate":
		target, err := utils.ParseDateUTC(strings.TrimSpace(value))
		if err != nil {
			return false, fmt.Errorf("exprx: invalid date %q: %w", value, err)
		}
		now := utils.DayStartUTC(utils.FromUnixMillis(utils.UnixMillis()))
		switch name {
		case "isafterdate":
			return now.After(target), nil
		case "isonorafterdate":
			return now.After(target) || now.Equal(target), nil
		case "isbeforedate":
			return now.Before(target), nil
		case "isonorbeforedate":
			return now.Before(target) || now.Equal(target), nil
		default: // issamedate
			return now.Equal(target), nil
		}

	case "isaftertime", "isbeforetime":
		target, err := utils.ParseTimeOfDayUTC(strings.TrimSpace(value))
		if err != nil {
			return false, fmt.Errorf("exprx: invalid time %q: %w", value, err)
		}
		now := utils.FromUnixMillis(utils.UnixMillis())
		if name == "isaftertime" {
			return now.After(target), nil
		}
		return now.Before(target), nil

	case "positionlessthan", "positiongreaterthan", "positionlessthaneq", "positiongreaterthaneq":
		target, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return false, fmt.Errorf("exprx: invalid position operand %q: %w", value, err)
		}
		return compareDecimal(name, "position", ctx.Position, target), nil

	case "positionlong":
		return ctx.Position.IsPositive(), nil
	case "positionshort":
		return ctx.Position.IsNegative(), nil
	case "positionnone":
		return ctx.Position.IsZero(), nil

	case "pricelessthan", "pricegreaterthan", "pricelessthaneq", "pricegreaterthaneq":
		target, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return false, fmt.Errorf("exprx: invalid price operand %q: %w", value, err)
		}
		return compareDecimal(name, "price", ctx.midPrice(), target), nil
	}

	return false, fmt.Errorf("exprx: unknown condition %q", name)
}

func compareDecimal(name, family string, actual, target decimal.Decimal) bool {
	suffix := strings.TrimPrefix(name, family)
	switch suffix {
	case "lessthan":
		return actual.LessThan(target)
	case "greaterthan":
		return actual.GreaterThan(target)
	case "lessthaneq":
		return actual.LessThanOrEqual(target)
	case "greaterthaneq":
		return actual.GreaterThanOrEqual(target)
	}
	return false
}

// MustParseFloat is a small helper for call sites that already validated the
// numeric literal and just need a float64 for logging/metrics.
func MustParseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

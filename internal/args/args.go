// Package args implements the shared argument-normalization layer from
// spec.md §4.1: merging parsed positional/named items with per-command
// defaults, then validateSide/validateTrigger/validateBackground/
// calculatePosition/offsetToPrice/calculateAmount in that fixed order.
package args

import (
	"strings"

	"github.com/inetpeople/instabot-trader/internal/cmderr"
	"github.com/inetpeople/instabot-trader/internal/parser"
	"github.com/inetpeople/instabot-trader/pkg/utils"
)

// Default pairs a command argument name with its declared default literal,
// in declaration order (positional items bind to this order).
type Default struct {
	Name  string
	Value string
}

// Args is the merged name -> raw literal map a command reads its arguments
// from after Bind.
type Args map[string]string

// Bind merges items (positional + named, from the parser) with defaults.
// Positional items (empty Name) bind to defaults in declaration order;
// named items override by name; unknown names are discarded (spec.md
// §4.1).
func Bind(defaults []Default, items []parser.Param) Args {
	out := make(Args, len(defaults))
	for _, d := range defaults {
		out[d.Name] = d.Value
	}

	positional := make([]parser.Param, 0, len(items))
	for _, it := range items {
		if it.Name == "" {
			positional = append(positional, it)
		}
	}
	for i, it := range positional {
		if i >= len(defaults) {
			break
		}
		out[defaults[i].Name] = it.Value
	}

	known := make(map[string]bool, len(defaults))
	for _, d := range defaults {
		known[d.Name] = true
	}
	for _, it := range items {
		if it.Name == "" {
			continue
		}
		if !known[it.Name] {
			continue // unknown names are discarded
		}
		out[it.Name] = it.Value
	}

	return out
}

func (a Args) Get(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

func (a Args) GetOr(name, fallback string) string {
	if v, ok := a[name]; ok && v != "" {
		return v
	}
	return fallback
}

func (a Args) Bool(name string) bool {
	v, ok := a[name]
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// ValidateSide implements spec.md §4.1 step 1: lowercase, require buy/sell,
// set oppositeSide.
func ValidateSide(raw string) (side, opposite string, err error) {
	side = strings.ToLower(strings.TrimSpace(raw))
	switch side {
	case "buy":
		return "buy", "sell", nil
	case "sell":
		return "sell", "buy", nil
	default:
		return "", "", &cmderr.InvalidArgument{Field: "side", Reason: "must be buy or sell, got " + raw}
	}
}

var validTriggers = map[string]bool{"mark": true, "index": true, "last": true}

// ValidateTrigger implements step 2: lowercase; anything outside the enum
// coerces to "last" (a warning, never an error).
func ValidateTrigger(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if validTriggers[t] {
		return t
	}
	utils.L().Warn("unknown trigger, using last", utils.String("trigger", raw))
	return "last"
}

// ValidateBackground implements step 3: only the literal "true"
// (case-insensitive) is true.
func ValidateBackground(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

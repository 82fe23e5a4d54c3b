// Package commands implements the command catalogue from spec.md §4.3:
// limitOrder, marketOrder, stopMarketOrder, scaledOrder, trailingStop,
// trailingTakeProfit, aggressiveEntry, stopAndTakeProfitOrder, wait,
// continueIf, stopIf, notify, cancelOrders and notSupported. Every command
// implements scheduler.Command; the argument normalizer (internal/args) is
// a shared helper, not a base class (spec.md §9: composition over
// inheritance).
package commands

import (
	"context"

	"github.com/inetpeople/instabot-trader/internal/runtime"
	"github.com/inetpeople/instabot-trader/internal/session"
)

// Base holds the {exchange, symbol, session} triple every command receives
// (spec.md §4.3), plus the tag and an optional algo-registry entry for
// commands that may suspend.
type Base struct {
	Exchange *runtime.Handle
	Symbol   string
	Session  *session.Session
	Tag      string

	entry *session.AlgoEntry
}

func (b *Base) Name() string { return "" }

// AlgoEntry satisfies scheduler.Command for commands that never register
// (limitOrder, marketOrder, wait, ...): nil means "never cancelled".
func (b *Base) AlgoEntry() *session.AlgoEntry { return b.entry }

// Register creates and stores an algo-order entry for commands that may
// suspend in the background (trailing family, aggressiveEntry,
// stopAndTakeProfitOrder — spec.md glossary "Algo order").
func (b *Base) Register(side string) *session.AlgoEntry {
	b.entry = b.Exchange.Registry.Register(b.Session.ID, side, b.Tag)
	return b.entry
}

// OnCancelled is the default no-op cancel hook; commands that place broker
// orders override it to cancel them.
func (b *Base) OnCancelled(_ context.Context) error { return nil }

// CanCompleteInBackground defaults to false (the scheduler drives the
// command inline). aggressiveEntry overrides it to true, trailingStop and
// trailingTakeProfit return their background argument, and
// stopAndTakeProfitOrder keeps it false.
func (b *Base) CanCompleteInBackground() bool { return false }

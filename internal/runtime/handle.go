// Package runtime implements the Exchange entity from spec.md §3: the
// handle passed into every command, owning the API port, the symbol table,
// the polling bounds, the background-task set and the algo-order registry.
// This is the "pass an exchange handle into each command" re-architecture
// spec.md §9 asks for in place of shared mutable/global state.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inetpeople/instabot-trader/internal/exchangeapi"
	"github.com/inetpeople/instabot-trader/internal/notify"
	"github.com/inetpeople/instabot-trader/internal/session"
	"github.com/inetpeople/instabot-trader/internal/symboldata"
	"github.com/inetpeople/instabot-trader/pkg/utils"
)

// Handle is one open exchange: a live API port plus everything commands
// running against it share (spec.md §3 Exchange entity).
type Handle struct {
	Name     string
	Port     exchangeapi.Port
	Symbols  *symboldata.Table
	Registry *session.Registry
	Notifier notify.Notifier

	MinPollingDelay time.Duration
	MaxPollingDelay time.Duration

	refMu    sync.Mutex
	refcount int

	tasks sync.WaitGroup
	log   *utils.Logger
}

// New constructs a Handle for one opened exchange. refcount starts at zero;
// the manager increments it immediately after this call.
func New(name string, port exchangeapi.Port, minDelay, maxDelay time.Duration, notifier notify.Notifier) *Handle {
	return &Handle{
		Name:            name,
		Port:            port,
		Symbols:         symboldata.NewTable(),
		Registry:        session.NewRegistry(),
		Notifier:        notifier,
		MinPollingDelay: minDelay,
		MaxPollingDelay: maxDelay,
		log:             utils.L().WithComponent("runtime").WithExchange(name),
	}
}

// AddSymbol calls the port and folds the result into the symbol table
// (spec.md §3 "Populated by addSymbol").
func (h *Handle) AddSymbol(ctx context.Context, symbol string) error {
	details, err := h.Port.AddSymbol(ctx, symbol)
	if err != nil {
		return err
	}
	if details == nil {
		return nil
	}
	h.Symbols.Set(symbol, symboldata.Data{
		MinOrderSize:   details.MinOrderSize,
		AssetPrecision: details.AssetPrecision,
		PricePrecision: details.PricePrecision,
	})
	return nil
}

// Retain/Release implement the reference count from spec.md §3: "exchange
// is torn down only on 0 with a >=500ms defer to let final callbacks
// drain". Both return the new count; a Release that returns 0 tells the
// caller to schedule teardown.
func (h *Handle) Retain() int {
	h.refMu.Lock()
	defer h.refMu.Unlock()
	h.refcount++
	return h.refcount
}

func (h *Handle) Release() int {
	h.refMu.Lock()
	defer h.refMu.Unlock()
	h.refcount--
	return h.refcount
}

func (h *Handle) RefCount() int {
	h.refMu.Lock()
	defer h.refMu.Unlock()
	return h.refcount
}

// AddTask registers fn as a background task; it must become visible to
// WaitForBackgroundTasks before the caller's next action starts (spec.md
// §5 ordering guarantee).
func (h *Handle) AddTask(fn func(context.Context)) {
	h.tasks.Add(1)
	go func() {
		defer h.tasks.Done()
		fn(context.Background())
	}()
}

// WaitForBackgroundTasks blocks until every task added via AddTask has
// returned. Called by executeCommandSequence before it returns, and again
// by the manager before Terminate on final release.
func (h *Handle) WaitForBackgroundTasks() {
	h.tasks.Wait()
}

// PositionToAmount implements spec.md §4.1 step 4: given the exchange's
// current signed position for symbol and a signed target position (e.g. 42),
// compute the {side, amount} needed to move from the current position to the
// target: sell |delta| when the target is below the current position,
// otherwise buy delta (a zero delta returns buy with amount 0).
func (h *Handle) PositionToAmount(ctx context.Context, symbol string, currentPosition, targetPosition decimal.Decimal) (side string, amount decimal.Decimal) {
	delta := targetPosition.Sub(currentPosition)
	if delta.IsNegative() {
		return "sell", delta.Abs()
	}
	return "buy", delta
}

// OffsetFavourableSign returns the sign that exprx.Offset.Resolve applies
// when resolving an offset against the side-quoted price (spec.md §4.1 step
// 5, and the trailing family). It is -1 for buy (favourable direction is
// down) and +1 for sell (favourable direction is up), matching the glossary
// definition of Offset.
func OffsetFavourableSign(side string) int {
	if side == "sell" {
		return 1
	}
	return -1
}

// SideQuotedPrice returns the reference price an offset is resolved
// against: bid for a buy (a buy-offset of 100 rests 100 below the bid, per
// spec.md's glossary), ask for a sell (symmetric maker convention, resting
// above the ask).
func SideQuotedPrice(t exchangeapi.Ticker, side string) decimal.Decimal {
	if side == "buy" {
		return t.Bid
	}
	return t.Ask
}

// CrossoverPrice implements the trailingTakeProfit phase-1 reference price:
// max(bid,ask,last) for a sell, min(bid,ask,last) for a buy (spec.md §4.3).
func CrossoverPrice(t exchangeapi.Ticker, side string) decimal.Decimal {
	vals := []decimal.Decimal{t.Bid, t.Ask, t.LastPrice}
	best := vals[0]
	for _, v := range vals[1:] {
		if side == "sell" {
			if v.GreaterThan(best) {
				best = v
			}
		} else {
			if v.LessThan(best) {
				best = v
			}
		}
	}
	return best
}

func (h *Handle) Logger() *utils.Logger { return h.log }

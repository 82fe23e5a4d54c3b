// Package symboldata holds the per-symbol precision and sizing rules an
// exchange reports back from addSymbol, read by the argument normalizer and
// several commands (spec.md §3 SymbolData).
package symboldata

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Data is the per-symbol table populated by Exchange.AddSymbol.
type Data struct {
	MinOrderSize   decimal.Decimal
	AssetPrecision int32
	PricePrecision int32
}

// Table is a concurrency-safe symbol -> Data map. Per spec.md §5, mutation
// only happens between suspension points on a single exchange's goroutine,
// but the mutex keeps the type safe to share if that discipline is ever
// violated by a future connector.
type Table struct {
	mu   sync.RWMutex
	data map[string]Data
}

func NewTable() *Table {
	return &Table{data: make(map[string]Data)}
}

func (t *Table) Set(symbol string, d Data) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[symbol] = d
}

func (t *Table) Get(symbol string) (Data, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.data[symbol]
	return d, ok
}

// RoundPrice rounds v to the symbol's price precision. Unknown symbols round
// to 8 decimal places, a conservative default that avoids truncating a
// legitimate quote to zero.
func (t *Table) RoundPrice(symbol string, v decimal.Decimal) decimal.Decimal {
	d, ok := t.Get(symbol)
	if !ok {
		return v.Round(8)
	}
	return v.Round(d.PricePrecision)
}

// RoundAmount rounds v to the symbol's asset precision.
func (t *Table) RoundAmount(symbol string, v decimal.Decimal) decimal.Decimal {
	d, ok := t.Get(symbol)
	if !ok {
		return v.Round(8)
	}
	return v.Round(d.AssetPrecision)
}

// ClampToMinOrderSize returns zero if v is below the symbol's minimum order
// size, otherwise v unchanged. A zero result signals ZeroSize to callers.
func (t *Table) ClampToMinOrderSize(symbol string, v decimal.Decimal) decimal.Decimal {
	d, ok := t.Get(symbol)
	if !ok {
		return v
	}
	if v.LessThan(d.MinOrderSize) {
		return decimal.Zero
	}
	return v
}

func (d Data) String() string {
	return fmt.Sprintf("minOrderSize=%s assetPrecision=%d pricePrecision=%d",
		d.MinOrderSize, d.AssetPrecision, d.PricePrecision)
}

// Package strategy ranks instruments by trailing momentum and selects the
// long/short target portfolio for each rebalance cycle.
package strategy

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/signal"
)

// Side labels the desired exposure for an instrument.
type Side string

const (
	// Long marks a top performer to be bought.
	Long Side = "long"
	// Short marks a bottom performer to be sold.
	Short Side = "short"
	// Flat marks an instrument that must carry no position.
	Flat Side = "flat"
)

// Target is one entry of the desired portfolio. Instruments absent from the
// target set are implicitly flat.
type Target struct {
	Symbol      string
	Side        Side
	NotionalUSD decimal.Decimal
}

// Rank returns a copy of the input sorted descending by trailing return, ties
// broken by ascending symbol so identical inputs always produce identical
// orderings. Entries with an empty or duplicate symbol fail with
// ErrInvalidReturn.
func Rank(returns []signal.Return) ([]signal.Return, error) {
	seen := make(map[string]struct{}, len(returns))
	for _, r := range returns {
		if r.Symbol == "" {
			return nil, fmt.Errorf("%w: empty symbol", ErrInvalidReturn)
		}
		if _, dup := seen[r.Symbol]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %s", ErrInvalidReturn, r.Symbol)
		}
		seen[r.Symbol] = struct{}{}
	}

	ranked := make([]signal.Return, len(returns))
	copy(ranked, returns)
	sort.SliceStable(ranked, func(i, j int) bool {
		if cmp := ranked[i].Pct.Cmp(ranked[j].Pct); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	return ranked, nil
}

// ComputeTarget selects the top nLong instruments as longs and the bottom
// nShort as shorts, each sized to the fixed notional. The remainder is flat
// and omitted from the result. If fewer than nLong+nShort instruments are
// ranked the selection fails with ErrInsufficientData; the slices are never
// shrunk to fit a thin universe.
func ComputeTarget(ranked []signal.Return, nLong, nShort int, notional decimal.Decimal) ([]Target, error) {
	if nLong < 0 || nShort < 0 {
		return nil, fmt.Errorf("strategy: negative slice counts %d/%d", nLong, nShort)
	}
	if len(ranked) < nLong+nShort {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(ranked), nLong+nShort)
	}

	targets := make([]Target, 0, nLong+nShort)
	for _, r := range ranked[:nLong] {
		targets = append(targets, Target{Symbol: r.Symbol, Side: Long, NotionalUSD: notional})
	}
	for _, r := range ranked[len(ranked)-nShort:] {
		targets = append(targets, Target{Symbol: r.Symbol, Side: Short, NotionalUSD: notional})
	}
	return targets, nil
}

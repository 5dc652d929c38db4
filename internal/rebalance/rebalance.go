// Package rebalance diffs the exchange-reported position book against the
// strategy's target portfolio and produces the market-order instructions that
// transition one into the other.
package rebalance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/signal"
	"github.com/whoareyou40/longshort/internal/strategy"
)

// Action enumerates the order kinds the executor understands.
type Action string

const (
	// OpenLong buys to establish a long position.
	OpenLong Action = "open_long"
	// OpenShort sells to establish a short position.
	OpenShort Action = "open_short"
	// Close flattens an existing position in full.
	Close Action = "close"
)

// Instruction is one market order to submit. Instructions have no lifecycle:
// they are generated fresh each cycle and handed to the execution layer.
type Instruction struct {
	Symbol     string
	Action     Action
	Quantity   decimal.Decimal
	ReduceOnly bool
	// CloseShort is set on Close instructions when the flattened position is
	// short, so the executor knows to buy back rather than sell.
	CloseShort bool
}

// MissingPriceError reports that an open could not be sized because no mark
// price was available for the symbol.
type MissingPriceError struct {
	Symbol string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("rebalance: no price for %s, cannot size open", e.Symbol)
}

// Diff computes the instruction sequence that moves current to targets.
//
// Held instruments absent from the target set are closed in full; held
// instruments whose target side flipped are closed and reopened; target
// instruments not held are opened at NotionalUSD/price. A held instrument
// whose side already matches its target is left untouched regardless of size
// drift, mirroring the close-all-then-reopen policy rather than partial
// resizing.
//
// All closes precede all opens in the returned slice so that margin freed by
// closing is never assumed available for opens submitted earlier in the same
// cycle. Closes only need the held quantity; if an open cannot be sized the
// whole diff fails with *MissingPriceError and no instructions are returned.
func Diff(current []signal.Position, targets []strategy.Target, prices signal.PriceBook) ([]Instruction, error) {
	want := make(map[string]strategy.Target, len(targets))
	for _, t := range targets {
		if t.Side == strategy.Flat {
			continue
		}
		want[t.Symbol] = t
	}

	held := make(map[string]signal.Position, len(current))
	var closes []Instruction
	for _, pos := range current {
		if pos.Qty.IsZero() {
			continue
		}
		held[pos.Symbol] = pos
		target, selected := want[pos.Symbol]
		if selected && sideMatches(pos, target.Side) {
			continue
		}
		closes = append(closes, Instruction{
			Symbol:     pos.Symbol,
			Action:     Close,
			Quantity:   pos.Qty.Abs(),
			ReduceOnly: true,
			CloseShort: pos.Qty.Sign() < 0,
		})
	}

	var opens []Instruction
	for _, t := range targets {
		if t.Side == strategy.Flat {
			continue
		}
		if pos, ok := held[t.Symbol]; ok && sideMatches(pos, t.Side) {
			continue
		}
		price, ok := prices[t.Symbol]
		if !ok || price.Sign() <= 0 {
			return nil, &MissingPriceError{Symbol: t.Symbol}
		}
		action := OpenLong
		if t.Side == strategy.Short {
			action = OpenShort
		}
		opens = append(opens, Instruction{
			Symbol:   t.Symbol,
			Action:   action,
			Quantity: t.NotionalUSD.Div(price),
		})
	}

	sortInstructions(closes)
	sortInstructions(opens)
	return append(closes, opens...), nil
}

func sideMatches(pos signal.Position, side strategy.Side) bool {
	switch side {
	case strategy.Long:
		return pos.Qty.Sign() > 0
	case strategy.Short:
		return pos.Qty.Sign() < 0
	default:
		return false
	}
}

// sortInstructions keeps output order independent of map iteration.
func sortInstructions(ins []Instruction) {
	sort.Slice(ins, func(i, j int) bool { return ins[i].Symbol < ins[j].Symbol })
}

// Package risk holds pre-trade guard rails applied to each instruction batch
// before anything reaches the exchange.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/rebalance"
	"github.com/whoareyou40/longshort/internal/signal"
)

// Limits caps how much exposure a single cycle may take on.
type Limits struct {
	MaxPositions         int
	MaxNotionalPerTrade  decimal.Decimal
	MaxPortfolioNotional decimal.Decimal
}

// Allow reports whether a single trade of the given notional is within the
// per-trade cap. A zero cap disables the check.
func (l Limits) Allow(notional decimal.Decimal) bool {
	if l.MaxNotionalPerTrade.IsZero() {
		return true
	}
	return notional.Cmp(l.MaxNotionalPerTrade) <= 0
}

// CheckBatch validates a full instruction batch: every open must pass the
// per-trade cap, the number of opens must fit under MaxPositions, and their
// combined notional under MaxPortfolioNotional. Closes are always allowed;
// refusing to flatten a position is never the safer choice.
func (l Limits) CheckBatch(ins []rebalance.Instruction, prices signal.PriceBook) error {
	opens := 0
	portfolio := decimal.Zero
	for _, in := range ins {
		if in.Action == rebalance.Close {
			continue
		}
		opens++
		price, ok := prices[in.Symbol]
		if !ok {
			return fmt.Errorf("risk: no price for %s, cannot value open", in.Symbol)
		}
		notional := in.Quantity.Mul(price)
		if !l.Allow(notional) {
			return fmt.Errorf("risk: %s notional %s exceeds per-trade cap %s",
				in.Symbol, notional.StringFixed(2), l.MaxNotionalPerTrade.StringFixed(2))
		}
		portfolio = portfolio.Add(notional)
	}
	if l.MaxPositions > 0 && opens > l.MaxPositions {
		return fmt.Errorf("risk: %d opens exceed max positions %d", opens, l.MaxPositions)
	}
	if !l.MaxPortfolioNotional.IsZero() && portfolio.Cmp(l.MaxPortfolioNotional) > 0 {
		return fmt.Errorf("risk: portfolio notional %s exceeds cap %s",
			portfolio.StringFixed(2), l.MaxPortfolioNotional.StringFixed(2))
	}
	return nil
}

package exchange

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// SymbolFilter holds the lot-size constraints an order quantity must satisfy.
type SymbolFilter struct {
	StepSize decimal.Decimal
	MinQty   decimal.Decimal
}

// Quantize rounds qty down to the symbol's step size. The second return is
// false when the rounded quantity falls below the minimum order size and the
// order should be skipped.
func (f SymbolFilter) Quantize(qty decimal.Decimal) (decimal.Decimal, bool) {
	if f.StepSize.Sign() > 0 {
		qty = qty.Div(f.StepSize).Floor().Mul(f.StepSize)
	}
	if f.MinQty.Sign() > 0 && qty.Cmp(f.MinQty) < 0 {
		return qty, false
	}
	return qty, qty.Sign() > 0
}

// Filters loads lot-size filters for every listed symbol. Fetched once at
// startup; listing changes take effect on restart.
func (c *Client) Filters(ctx context.Context) (map[string]SymbolFilter, error) {
	info, err := c.api.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch exchange info: %w", err)
	}
	out := make(map[string]SymbolFilter, len(info.Symbols))
	for _, sym := range info.Symbols {
		lot := sym.LotSizeFilter()
		if lot == nil {
			continue
		}
		step, err := decimal.NewFromString(lot.StepSize)
		if err != nil {
			return nil, fmt.Errorf("parse step size %s: %w", sym.Symbol, err)
		}
		minQty, err := decimal.NewFromString(lot.MinQuantity)
		if err != nil {
			return nil, fmt.Errorf("parse min qty %s: %w", sym.Symbol, err)
		}
		out[sym.Symbol] = SymbolFilter{StepSize: step, MinQty: minQty}
	}
	return out, nil
}

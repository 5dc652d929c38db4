// Package signal standardizes payloads shared between market data and strategy layers.
package signal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Return carries the trailing percentage price change for one instrument over
// the configured lookback window. Computed from candle closes by the market
// data layer; immutable within a rebalance cycle.
type Return struct {
	Symbol string
	Pct    decimal.Decimal
	Ts     time.Time
}

// Position is an open perpetual-futures position as reported by the exchange.
// Qty is signed: positive long, negative short. Zero-quantity positions are
// never included in a snapshot.
type Position struct {
	Symbol     string
	Qty        decimal.Decimal
	EntryPrice decimal.Decimal
}

// Side reports the direction of the position as "long" or "short".
func (p Position) Side() string {
	if p.Qty.Sign() < 0 {
		return "short"
	}
	return "long"
}

// PriceBook maps symbols to their latest mark price, used to size new opens.
type PriceBook map[string]decimal.Decimal

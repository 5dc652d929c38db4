// Package paper simulates a futures account so the full rebalance loop can
// run against live market data without touching a real balance.
package paper

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/signal"
)

// Fill records one simulated execution.
type Fill struct {
	Symbol   string          `json:"symbol"`
	Action   string          `json:"action"`
	Qty      decimal.Decimal `json:"qty"`
	Price    decimal.Decimal `json:"price"`
	Realized decimal.Decimal `json:"realized"`
	Ts       time.Time       `json:"ts"`
}

// FillRecorder captures paper fills for later inspection.
type FillRecorder interface {
	Record(Fill)
}

type positionState struct {
	qty   decimal.Decimal // signed: >0 long, <0 short
	entry decimal.Decimal
}

// Account tracks virtual cash, realized PnL, and signed per-symbol positions.
// Opening either direction reserves the full notional as margin; closing
// releases it plus the realized profit or loss.
type Account struct {
	mu           sync.Mutex
	startingCash decimal.Decimal
	cash         decimal.Decimal
	realized     decimal.Decimal
	positions    map[string]positionState
}

// Snapshot is a read-only, marked-to-market view of the account.
type Snapshot struct {
	Cash        decimal.Decimal
	RealizedPnL decimal.Decimal
	Equity      decimal.Decimal
	Positions   map[string]PositionSnapshot
}

// PositionSnapshot exposes one symbol's position with unrealized PnL.
type PositionSnapshot struct {
	Qty        decimal.Decimal
	EntryPrice decimal.Decimal
	Unrealized decimal.Decimal
}

// NewAccount constructs an account with the given starting cash.
func NewAccount(startingCash decimal.Decimal) *Account {
	return &Account{
		startingCash: startingCash,
		cash:         startingCash,
		positions:    make(map[string]positionState),
	}
}

// StartingCash returns the initial bankroll used to compute drawdown.
func (a *Account) StartingCash() decimal.Decimal { return a.startingCash }

// Open establishes a new position. qty is signed; opening on top of an
// existing position in either direction is rejected, matching the strategy's
// no-resizing policy.
func (a *Account) Open(symbol string, qty, price decimal.Decimal) error {
	if qty.IsZero() {
		return errors.New("paper: quantity must be non-zero")
	}
	if price.Sign() <= 0 {
		return errors.New("paper: price must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.positions[symbol]; exists {
		return errors.New("paper: position already open for " + symbol)
	}
	margin := qty.Abs().Mul(price)
	if margin.Cmp(a.cash) > 0 {
		return errors.New("paper: insufficient cash for " + symbol)
	}
	a.cash = a.cash.Sub(margin)
	a.positions[symbol] = positionState{qty: qty, entry: price}
	return nil
}

// Close flattens the symbol in full at the given price and returns the
// realized PnL. Shorts profit when price falls.
func (a *Account) Close(symbol string, price decimal.Decimal) (decimal.Decimal, error) {
	if price.Sign() <= 0 {
		return decimal.Zero, errors.New("paper: price must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	state, ok := a.positions[symbol]
	if !ok {
		return decimal.Zero, errors.New("paper: no open position for " + symbol)
	}
	realized := price.Sub(state.entry).Mul(state.qty)
	margin := state.qty.Abs().Mul(state.entry)
	a.cash = a.cash.Add(margin).Add(realized)
	a.realized = a.realized.Add(realized)
	delete(a.positions, symbol)
	return realized, nil
}

// OpenPositions returns the current book as signed positions, satisfying the
// engine's account source.
func (a *Account) OpenPositions() []signal.Position {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]signal.Position, 0, len(a.positions))
	for sym, state := range a.positions {
		out = append(out, signal.Position{Symbol: sym, Qty: state.qty, EntryPrice: state.entry})
	}
	return out
}

// Position returns the signed quantity held for the symbol, zero if flat.
func (a *Account) Position(symbol string) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[symbol].qty
}

// RealizedPnL returns total closed-trade profit and loss.
func (a *Account) RealizedPnL() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realized
}

// Snapshot marks the book to the supplied prices. Symbols without a price
// contribute their margin but no unrealized PnL.
func (a *Account) Snapshot(prices signal.PriceBook) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make(map[string]PositionSnapshot, len(a.positions))
	equity := a.cash
	for sym, state := range a.positions {
		unrealized := decimal.Zero
		if mark, ok := prices[sym]; ok {
			unrealized = mark.Sub(state.entry).Mul(state.qty)
		}
		positions[sym] = PositionSnapshot{Qty: state.qty, EntryPrice: state.entry, Unrealized: unrealized}
		equity = equity.Add(state.qty.Abs().Mul(state.entry)).Add(unrealized)
	}
	return Snapshot{Cash: a.cash, RealizedPnL: a.realized, Equity: equity, Positions: positions}
}

// Package engine drives the rebalance cycle on a fixed timer: fetch trailing
// returns, rank, select targets, diff against the live position book, and
// submit the resulting orders.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/metrics"
	"github.com/whoareyou40/longshort/internal/rebalance"
	"github.com/whoareyou40/longshort/internal/risk"
	"github.com/whoareyou40/longshort/internal/signal"
	"github.com/whoareyou40/longshort/internal/strategy"
)

// MarketData supplies trailing returns and mark prices for the symbol set.
type MarketData interface {
	TrailingReturns(ctx context.Context, symbols []string, interval string, lookback int) ([]signal.Return, error)
	MarkPrices(ctx context.Context, symbols []string) (signal.PriceBook, error)
}

// AccountSource reports the open position book. Re-read every cycle; the
// engine never caches positions across cycles.
type AccountSource interface {
	OpenPositions(ctx context.Context) ([]signal.Position, error)
}

// Submitter accepts one instruction at a time.
type Submitter interface {
	Submit(ctx context.Context, in rebalance.Instruction) error
}

// Universe optionally refreshes the tradable symbol set each cycle.
type Universe interface {
	TopByVolume(ctx context.Context, quote string, n int) ([]string, error)
}

// Params fixes the strategy knobs for the lifetime of the engine.
type Params struct {
	Symbols        []string
	Interval       time.Duration
	CandleInterval string
	LookbackHours  int
	NotionalUSD    decimal.Decimal
	NLong          int
	NShort         int

	// Universe discovery; zero TopN or nil Universe disables it.
	Quote string
	TopN  int
}

// Engine runs cycles sequentially from a single goroutine, so at most one
// cycle is ever in flight.
type Engine struct {
	log    zerolog.Logger
	md     MarketData
	acct   AccountSource
	sub    Submitter
	uni    Universe
	limits risk.Limits
	params Params
}

// New wires an engine. uni may be nil to trade the fixed symbol list only.
func New(log zerolog.Logger, md MarketData, acct AccountSource, sub Submitter, uni Universe, limits risk.Limits, params Params) *Engine {
	return &Engine{log: log, md: md, acct: acct, sub: sub, uni: uni, limits: limits, params: params}
}

// Run executes a first cycle immediately, then one per interval until the
// context is canceled. A failed cycle is logged and skipped; the next tick
// re-reads everything from the exchange.
func (e *Engine) Run(ctx context.Context) error {
	e.runOnce(ctx)

	ticker := time.NewTicker(e.params.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("engine stopped")
			return ctx.Err()
		case <-ticker.C:
			e.runOnce(ctx)
		}
	}
}

func (e *Engine) runOnce(ctx context.Context) {
	start := time.Now()
	if err := e.Cycle(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		e.log.Error().Err(err).Msg("rebalance cycle failed, will retry next tick")
		return
	}
	metrics.CyclesTotal.WithLabelValues("ok").Inc()
	e.log.Info().Dur("took", time.Since(start)).Msg("rebalance cycle completed")
}

// Cycle performs one full rebalance. Any error before submission aborts the
// cycle with zero instructions emitted and no state mutated; per-instruction
// submit failures are logged and the remaining instructions still run, the
// next cycle reconciling whatever was left undone.
func (e *Engine) Cycle(ctx context.Context) error {
	symbols, err := e.symbols(ctx)
	if err != nil {
		metrics.CycleErrors.WithLabelValues("universe").Inc()
		return err
	}

	returns, err := e.md.TrailingReturns(ctx, symbols, e.params.CandleInterval, e.params.LookbackHours)
	if err != nil {
		metrics.CycleErrors.WithLabelValues("returns").Inc()
		return fmt.Errorf("trailing returns: %w", err)
	}

	ranked, err := strategy.Rank(returns)
	if err != nil {
		metrics.CycleErrors.WithLabelValues("rank").Inc()
		return err
	}
	targets, err := strategy.ComputeTarget(ranked, e.params.NLong, e.params.NShort, e.params.NotionalUSD)
	if err != nil {
		metrics.CycleErrors.WithLabelValues("target").Inc()
		return err
	}
	e.logSelection(ranked, targets)

	current, err := e.acct.OpenPositions(ctx)
	if err != nil {
		metrics.CycleErrors.WithLabelValues("positions").Inc()
		return fmt.Errorf("open positions: %w", err)
	}
	prices, err := e.md.MarkPrices(ctx, targetSymbols(targets))
	if err != nil {
		metrics.CycleErrors.WithLabelValues("prices").Inc()
		return fmt.Errorf("mark prices: %w", err)
	}

	instructions, err := rebalance.Diff(current, targets, prices)
	if err != nil {
		metrics.CycleErrors.WithLabelValues("diff").Inc()
		return err
	}
	if len(instructions) == 0 {
		e.log.Info().Msg("position book already matches target")
		return nil
	}
	if err := e.limits.CheckBatch(instructions, prices); err != nil {
		metrics.CycleErrors.WithLabelValues("risk").Inc()
		return err
	}

	for _, in := range instructions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := e.sub.Submit(ctx, in); err != nil {
			e.log.Error().Err(err).Str("sym", in.Symbol).Str("action", string(in.Action)).Msg("order submission failed")
		}
	}
	return nil
}

func (e *Engine) symbols(ctx context.Context) ([]string, error) {
	if e.uni == nil || e.params.TopN <= 0 {
		return e.params.Symbols, nil
	}
	discovered, err := e.uni.TopByVolume(ctx, e.params.Quote, e.params.TopN)
	if err != nil {
		return nil, fmt.Errorf("universe discovery: %w", err)
	}
	return mergeSymbols(e.params.Symbols, discovered), nil
}

func (e *Engine) logSelection(ranked []signal.Return, targets []strategy.Target) {
	longs := make([]string, 0, e.params.NLong)
	shorts := make([]string, 0, e.params.NShort)
	for _, t := range targets {
		switch t.Side {
		case strategy.Long:
			longs = append(longs, t.Symbol)
		case strategy.Short:
			shorts = append(shorts, t.Symbol)
		}
	}
	e.log.Info().Int("ranked", len(ranked)).Strs("long", longs).Strs("short", shorts).Msg("selected targets")
}

func targetSymbols(targets []strategy.Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Symbol)
	}
	return out
}

func mergeSymbols(manual, discovered []string) []string {
	seen := make(map[string]struct{}, len(manual)+len(discovered))
	var out []string
	for _, set := range [][]string{manual, discovered} {
		for _, sym := range set {
			if _, ok := seen[sym]; ok || sym == "" {
				continue
			}
			seen[sym] = struct{}{}
			out = append(out, sym)
		}
	}
	return out
}

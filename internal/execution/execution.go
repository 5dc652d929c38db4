// Package execution converts rebalance instructions into venue orders.
package execution

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/whoareyou40/longshort/internal/exchange"
	"github.com/whoareyou40/longshort/internal/metrics"
	"github.com/whoareyou40/longshort/internal/rebalance"
)

// Submitter accepts one instruction at a time; implementations decide whether
// it reaches a real venue, a paper account, or only the log.
type Submitter interface {
	Submit(ctx context.Context, in rebalance.Instruction) error
}

// Executor places market orders on the futures venue. Leverage and cross
// margin are configured once per symbol before its first open.
type Executor struct {
	api      *futures.Client
	log      zerolog.Logger
	filters  map[string]exchange.SymbolFilter
	leverage int

	mu         sync.Mutex
	configured map[string]bool
}

// NewExecutor builds a live executor. filters may be nil, in which case
// quantities are sent unrounded and the venue decides.
func NewExecutor(api *futures.Client, filters map[string]exchange.SymbolFilter, leverage int, log zerolog.Logger) *Executor {
	return &Executor{
		api:        api,
		log:        log,
		filters:    filters,
		leverage:   leverage,
		configured: make(map[string]bool),
	}
}

// Submit places one market order. Quantities below the symbol's minimum lot
// are skipped with a warning rather than rejected by the venue.
func (e *Executor) Submit(ctx context.Context, in rebalance.Instruction) error {
	qty := in.Quantity
	if filter, ok := e.filters[in.Symbol]; ok {
		rounded, tradable := filter.Quantize(qty)
		if !tradable {
			e.log.Warn().Str("sym", in.Symbol).Str("action", string(in.Action)).
				Str("qty", qty.String()).Str("min", filter.MinQty.String()).
				Msg("quantity below minimum lot, skipping order")
			return nil
		}
		qty = rounded
	}

	var side futures.SideType
	switch in.Action {
	case rebalance.OpenLong:
		side = futures.SideTypeBuy
	case rebalance.OpenShort:
		side = futures.SideTypeSell
	case rebalance.Close:
		// Closing a long sells, closing a short buys back.
		side = futures.SideTypeSell
		if in.CloseShort {
			side = futures.SideTypeBuy
		}
	default:
		return fmt.Errorf("unknown action %q for %s", in.Action, in.Symbol)
	}

	if in.Action != rebalance.Close {
		if err := e.ensureSymbolSetup(ctx, in.Symbol); err != nil {
			return err
		}
	}

	svc := e.api.NewCreateOrderService().
		Symbol(in.Symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(qty.String()).
		NewClientOrderID(clientOrderID())
	if in.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}
	order, err := svc.Do(ctx)
	if err != nil {
		metrics.OrderErrors.WithLabelValues(in.Symbol, string(in.Action)).Inc()
		return fmt.Errorf("submit %s %s: %w", in.Action, in.Symbol, err)
	}

	metrics.OrdersTotal.WithLabelValues(in.Symbol, string(in.Action)).Inc()
	e.log.Info().Str("sym", in.Symbol).Str("action", string(in.Action)).
		Str("qty", qty.String()).Int64("order_id", order.OrderID).Msg("submitted market order")
	return nil
}

// ensureSymbolSetup applies leverage and cross margin before the first open on
// a symbol. Margin-type errors are expected when the mode is already set.
func (e *Executor) ensureSymbolSetup(ctx context.Context, symbol string) error {
	e.mu.Lock()
	done := e.configured[symbol]
	e.mu.Unlock()
	if done {
		return nil
	}

	if e.leverage > 0 {
		if _, err := e.api.NewChangeLeverageService().Symbol(symbol).Leverage(e.leverage).Do(ctx); err != nil {
			return fmt.Errorf("set leverage %s: %w", symbol, err)
		}
	}
	if err := e.api.NewChangeMarginTypeService().Symbol(symbol).MarginType(futures.MarginTypeCrossed).Do(ctx); err != nil {
		e.log.Debug().Err(err).Str("sym", symbol).Msg("margin type unchanged")
	}

	e.mu.Lock()
	e.configured[symbol] = true
	e.mu.Unlock()
	return nil
}

func clientOrderID() string {
	return "ls-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

package paper

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/metrics"
	"github.com/whoareyou40/longshort/internal/rebalance"
	"github.com/whoareyou40/longshort/internal/signal"
)

// Pricer supplies the mark used to fill a simulated order.
type Pricer interface {
	MarkPrices(ctx context.Context, symbols []string) (signal.PriceBook, error)
}

// Desk glues the paper account behind the engine's submitter and account
// interfaces, filling every instruction immediately at the current mark.
type Desk struct {
	log      zerolog.Logger
	account  *Account
	pricer   Pricer
	recorder FillRecorder
}

// NewDesk builds a paper desk. recorder may be nil.
func NewDesk(account *Account, pricer Pricer, recorder FillRecorder, log zerolog.Logger) *Desk {
	return &Desk{log: log, account: account, pricer: pricer, recorder: recorder}
}

// OpenPositions satisfies the engine's account source.
func (d *Desk) OpenPositions(_ context.Context) ([]signal.Position, error) {
	return d.account.OpenPositions(), nil
}

// Submit fills the instruction against the paper account at the current mark.
func (d *Desk) Submit(ctx context.Context, in rebalance.Instruction) error {
	book, err := d.pricer.MarkPrices(ctx, []string{in.Symbol})
	if err != nil {
		return fmt.Errorf("paper fill price %s: %w", in.Symbol, err)
	}
	price, ok := book[in.Symbol]
	if !ok || price.Sign() <= 0 {
		return fmt.Errorf("paper: no fill price for %s", in.Symbol)
	}

	realized := decimal.Zero
	switch in.Action {
	case rebalance.OpenLong:
		err = d.account.Open(in.Symbol, in.Quantity, price)
	case rebalance.OpenShort:
		err = d.account.Open(in.Symbol, in.Quantity.Neg(), price)
	case rebalance.Close:
		realized, err = d.account.Close(in.Symbol, price)
	default:
		err = fmt.Errorf("paper: unknown action %q", in.Action)
	}
	if err != nil {
		metrics.OrderErrors.WithLabelValues(in.Symbol, string(in.Action)).Inc()
		return err
	}

	fill := Fill{
		Symbol:   in.Symbol,
		Action:   string(in.Action),
		Qty:      in.Quantity,
		Price:    price,
		Realized: realized,
		Ts:       time.Now().UTC(),
	}
	if d.recorder != nil {
		d.recorder.Record(fill)
	}
	metrics.OrdersTotal.WithLabelValues(in.Symbol, string(in.Action)).Inc()
	d.log.Info().Str("sym", in.Symbol).Str("action", string(in.Action)).
		Str("qty", in.Quantity.String()).Str("px", price.String()).
		Str("realized", realized.String()).Msg("paper fill")
	return nil
}

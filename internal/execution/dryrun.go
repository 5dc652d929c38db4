package execution

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/whoareyou40/longshort/internal/metrics"
	"github.com/whoareyou40/longshort/internal/rebalance"
)

// DryRun logs instructions instead of placing them, for rehearsing a config
// against live market data without touching the account.
type DryRun struct{ log zerolog.Logger }

// NewDryRun wraps a zerolog logger as a no-op submitter.
func NewDryRun(log zerolog.Logger) *DryRun { return &DryRun{log: log} }

// Submit records the instruction in the log and order metrics only.
func (d *DryRun) Submit(_ context.Context, in rebalance.Instruction) error {
	metrics.OrdersTotal.WithLabelValues(in.Symbol, string(in.Action)).Inc()
	d.log.Info().Str("sym", in.Symbol).Str("action", string(in.Action)).
		Str("qty", in.Quantity.String()).Bool("reduce_only", in.ReduceOnly).Msg("dry-run order")
	return nil
}

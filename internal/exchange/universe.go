package exchange

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TopByVolume returns the n most actively traded perpetual symbols quoted in
// the given asset, ranked by 24h quote volume. Used when the symbol universe
// is discovered automatically instead of listed by hand.
func (c *Client) TopByVolume(ctx context.Context, quote string, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("exchange: top-n must be positive, got %d", n)
	}
	stats, err := c.api.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch 24h tickers: %w", err)
	}

	type volume struct {
		symbol string
		quote  decimal.Decimal
	}
	candidates := make([]volume, 0, len(stats))
	for _, s := range stats {
		if !strings.HasSuffix(s.Symbol, quote) {
			continue
		}
		vol, err := decimal.NewFromString(s.QuoteVolume)
		if err != nil {
			c.log.Warn().Str("sym", s.Symbol).Str("vol", s.QuoteVolume).Msg("unparseable quote volume, skipping")
			continue
		}
		candidates = append(candidates, volume{symbol: s.Symbol, quote: vol})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if cmp := candidates[i].quote.Cmp(candidates[j].quote); cmp != 0 {
			return cmp > 0
		}
		return candidates[i].symbol < candidates[j].symbol
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, cand := range candidates {
		out[i] = cand.symbol
	}
	return out, nil
}

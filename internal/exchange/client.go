// Package exchange adapts the USD-M futures venue: candle history, position
// book, mark prices, and symbol universe discovery.
package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/metrics"
	"github.com/whoareyou40/longshort/internal/signal"
)

// Client wraps the futures REST client with the shapes the engine consumes.
type Client struct {
	api *futures.Client
	log zerolog.Logger
}

// NewClient builds a venue client. Testnet mode flips the package-level
// endpoint before the underlying client is constructed.
func NewClient(apiKey, apiSecret string, testnet bool, log zerolog.Logger) *Client {
	if testnet {
		futures.UseTestnet = true
	}
	return &Client{api: futures.NewClient(apiKey, apiSecret), log: log}
}

// API exposes the underlying futures client for the execution layer.
func (c *Client) API() *futures.Client { return c.api }

// Ping verifies connectivity before the first cycle runs.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.api.NewPingService().Do(ctx); err != nil {
		return fmt.Errorf("exchange ping: %w", err)
	}
	return nil
}

// TrailingReturns fetches lookback+1 candles per symbol and computes the
// close-over-close percentage change across the window. Symbols with too few
// candles, or a zero base close, are omitted rather than ranked as zero.
func (c *Client) TrailingReturns(ctx context.Context, symbols []string, interval string, lookback int) ([]signal.Return, error) {
	if lookback <= 0 {
		return nil, fmt.Errorf("exchange: lookback must be positive, got %d", lookback)
	}
	out := make([]signal.Return, 0, len(symbols))
	for _, sym := range symbols {
		klines, err := c.api.NewKlinesService().
			Symbol(sym).
			Interval(interval).
			Limit(lookback + 1).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch klines %s: %w", sym, err)
		}
		if len(klines) < lookback+1 {
			c.log.Warn().Str("sym", sym).Int("candles", len(klines)).Int("need", lookback+1).Msg("insufficient history, excluding from ranking")
			continue
		}
		base, err := decimal.NewFromString(klines[len(klines)-1-lookback].Close)
		if err != nil {
			return nil, fmt.Errorf("parse close %s: %w", sym, err)
		}
		last, err := decimal.NewFromString(klines[len(klines)-1].Close)
		if err != nil {
			return nil, fmt.Errorf("parse close %s: %w", sym, err)
		}
		if base.Sign() <= 0 {
			c.log.Warn().Str("sym", sym).Msg("non-positive base close, excluding from ranking")
			continue
		}
		pct := last.Sub(base).Div(base)
		f, _ := pct.Float64()
		metrics.MomentumScore.WithLabelValues(sym).Set(f)
		out = append(out, signal.Return{Symbol: sym, Pct: pct, Ts: time.UnixMilli(klines[len(klines)-1].CloseTime)})
	}
	return out, nil
}

// OpenPositions maps non-zero position risk rows to signed positions.
func (c *Client) OpenPositions(ctx context.Context) ([]signal.Position, error) {
	rows, err := c.api.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}
	var out []signal.Position
	for _, row := range rows {
		qty, err := decimal.NewFromString(row.PositionAmt)
		if err != nil {
			return nil, fmt.Errorf("parse position amount %s: %w", row.Symbol, err)
		}
		if qty.IsZero() {
			continue
		}
		entry, err := decimal.NewFromString(row.EntryPrice)
		if err != nil {
			return nil, fmt.Errorf("parse entry price %s: %w", row.Symbol, err)
		}
		out = append(out, signal.Position{Symbol: row.Symbol, Qty: qty, EntryPrice: entry})
	}
	return out, nil
}

// MarkPrices returns the latest mark price for each requested symbol.
func (c *Client) MarkPrices(ctx context.Context, symbols []string) (signal.PriceBook, error) {
	rows, err := c.api.NewPremiumIndexService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch mark prices: %w", err)
	}
	wanted := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		wanted[sym] = struct{}{}
	}
	book := make(signal.PriceBook, len(symbols))
	for _, row := range rows {
		if _, ok := wanted[row.Symbol]; !ok {
			continue
		}
		price, err := decimal.NewFromString(row.MarkPrice)
		if err != nil {
			return nil, fmt.Errorf("parse mark price %s: %w", row.Symbol, err)
		}
		book[row.Symbol] = price
	}
	return book, nil
}

package exchange

import (
	"context"
	"time"

	"github.com/whoareyou40/longshort/internal/signal"
)

// CachedClient overlays the websocket mark cache on the REST client: fresh
// streamed prices win, anything missing or stale falls back to a REST read.
type CachedClient struct {
	*Client
	feed   *MarkFeed
	maxAge time.Duration
}

// NewCachedClient wraps a client with a running mark feed.
func NewCachedClient(client *Client, feed *MarkFeed, maxAge time.Duration) *CachedClient {
	return &CachedClient{Client: client, feed: feed, maxAge: maxAge}
}

// MarkPrices serves from the stream cache where possible.
func (c *CachedClient) MarkPrices(ctx context.Context, symbols []string) (signal.PriceBook, error) {
	cached := c.feed.Snapshot(c.maxAge)
	out := make(signal.PriceBook, len(symbols))
	var missing []string
	for _, sym := range symbols {
		if price, ok := cached[sym]; ok {
			out[sym] = price
			continue
		}
		missing = append(missing, sym)
	}
	if len(missing) == 0 {
		return out, nil
	}
	rest, err := c.Client.MarkPrices(ctx, missing)
	if err != nil {
		return nil, err
	}
	for sym, price := range rest {
		out[sym] = price
	}
	return out, nil
}

package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/signal"
)

const defaultMarkStreamURL = "wss://fstream.binance.com/stream"

// MarkFeed streams mark-price updates over websocket into an in-memory cache
// so the engine can size orders from fresh prices without an extra REST
// round-trip per cycle.
type MarkFeed struct {
	log     zerolog.Logger
	baseURL string
	symbols []string
	mu      sync.RWMutex
	marks   signal.PriceBook
	updated map[string]time.Time
}

// NewMarkFeed constructs a feed for the given symbols. baseURL is overridable
// for tests and testnet endpoints.
func NewMarkFeed(symbols []string, baseURL string, log zerolog.Logger) *MarkFeed {
	if baseURL == "" {
		baseURL = defaultMarkStreamURL
	}
	return &MarkFeed{
		log:     log,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		symbols: append([]string(nil), symbols...),
		marks:   make(signal.PriceBook),
		updated: make(map[string]time.Time),
	}
}

// Run consumes the stream until the context is canceled, reconnecting with
// exponential backoff on transport errors.
func (f *MarkFeed) Run(ctx context.Context) error {
	if len(f.symbols) == 0 {
		return fmt.Errorf("mark feed requires at least one symbol")
	}

	streams := make([]string, len(f.symbols))
	for i, sym := range f.symbols {
		streams[i] = strings.ToLower(sym) + "@markPrice@1s"
	}
	url := fmt.Sprintf("%s?streams=%s", f.baseURL, strings.Join(streams, "/"))

	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consume(ctx, url); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Msg("mark feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

type markEnvelope struct {
	Stream string     `json:"stream"`
	Data   markUpdate `json:"data"`
}

type markUpdate struct {
	Event     string `json:"e"`
	Symbol    string `json:"s"`
	MarkPrice string `json:"p"`
	EventTime int64  `json:"E"`
}

func (f *MarkFeed) consume(ctx context.Context, url string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.log.Info().Strs("symbols", f.symbols).Msg("connected mark price feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("mark feed ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		var env markEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			f.log.Warn().Err(err).Msg("malformed mark feed payload")
			continue
		}
		f.apply(env.Data)
	}
}

func (f *MarkFeed) apply(update markUpdate) {
	if update.Symbol == "" || update.MarkPrice == "" {
		return
	}
	price, err := decimal.NewFromString(update.MarkPrice)
	if err != nil || price.Sign() <= 0 {
		return
	}
	f.mu.Lock()
	f.marks[update.Symbol] = price
	f.updated[update.Symbol] = time.UnixMilli(update.EventTime)
	f.mu.Unlock()
}

// Snapshot copies the current mark cache. Symbols whose last update is older
// than maxAge are dropped so a stalled stream never sizes an order; maxAge <= 0
// disables the staleness check.
func (f *MarkFeed) Snapshot(maxAge time.Duration) signal.PriceBook {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(signal.PriceBook, len(f.marks))
	cutoff := time.Now().Add(-maxAge)
	for sym, price := range f.marks {
		if maxAge > 0 && f.updated[sym].Before(cutoff) {
			continue
		}
		out[sym] = price
	}
	return out
}

// Binary bot runs the live momentum rebalancer against the futures venue.
package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/config"
	"github.com/whoareyou40/longshort/internal/engine"
	"github.com/whoareyou40/longshort/internal/exchange"
	"github.com/whoareyou40/longshort/internal/execution"
	"github.com/whoareyou40/longshort/internal/metrics"
	"github.com/whoareyou40/longshort/internal/risk"
	"github.com/whoareyou40/longshort/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	dryRun := flag.Bool("dry-run", false, "log orders instead of placing them")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := util.NewLogger("info")
		l.Fatal().Err(err).Msg("load config")
	}
	cfg.FromEnv()

	log := util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := exchange.NewClient(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.Testnet, log)
	if err := client.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("exchange unreachable")
	}
	log.Info().Bool("testnet", cfg.Exchange.Testnet).Msg("exchange connection successful")

	var sub engine.Submitter
	if *dryRun {
		sub = execution.NewDryRun(log)
		log.Info().Msg("dry-run mode, orders will only be logged")
	} else {
		filters, err := client.Filters(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("load symbol filters")
		}
		sub = execution.NewExecutor(client.API(), filters, cfg.Strategy.Leverage, log)
	}

	var uni engine.Universe
	var md engine.MarketData = client
	if cfg.Exchange.AutoUniverse.Enabled {
		// The symbol set changes cycle to cycle, so prices come from REST.
		uni = client
	} else {
		feed := exchange.NewMarkFeed(cfg.Exchange.Symbols, "", log)
		go func() {
			if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("mark feed stopped, falling back to REST prices")
			}
		}()
		md = exchange.NewCachedClient(client, feed, 30*time.Second)
	}

	limits := risk.Limits{
		MaxPositions:         cfg.Risk.MaxPositions,
		MaxNotionalPerTrade:  decimal.NewFromFloat(cfg.Risk.MaxNotionalPerTrade),
		MaxPortfolioNotional: decimal.NewFromFloat(cfg.Risk.MaxPortfolioNotional),
	}
	params := engine.Params{
		Symbols:        cfg.Exchange.Symbols,
		Interval:       time.Duration(cfg.Strategy.IntervalHours) * time.Hour,
		CandleInterval: cfg.Strategy.CandleInterval,
		LookbackHours:  cfg.Strategy.LookbackHours,
		NotionalUSD:    decimal.NewFromFloat(cfg.Strategy.NotionalUSD),
		NLong:          cfg.Strategy.NLong,
		NShort:         cfg.Strategy.NShort,
		Quote:          cfg.Exchange.Quote,
		TopN:           cfg.Exchange.AutoUniverse.TopN,
	}

	eng := engine.New(log, md, client, sub, uni, limits, params)
	log.Info().Dur("interval", params.Interval).Int("n_long", params.NLong).Int("n_short", params.NShort).Msg("rebalancer started")
	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("engine stopped unexpectedly")
	}
	log.Info().Msg("shutting down")
}

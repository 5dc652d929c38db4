// Binary paper runs the rebalance loop against a simulated account, filling
// orders at live mark prices through the venue's public endpoints.
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
	"github.com/whoareyou40/longshort/internal/metrics"
	"github.com/whoareyou40/longshort/internal/paper"
	"github.com/whoareyou40/longshort/internal/risk"
	"github.com/whoareyou40/longshort/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := util.NewLogger("info")
		l.Fatal().Err(err).Msg("load config")
	}

	log := util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Market data only; paper mode needs no credentials.
	client := exchange.NewClient("", "", cfg.Exchange.Testnet, log)
	if err := client.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("exchange unreachable")
	}

	account := paper.NewAccount(decimal.NewFromFloat(cfg.Paper.StartingCash))
	var recorder paper.FillRecorder
	if cfg.Paper.FillsPath != "" {
		jsonl, err := paper.NewJSONLRecorder(cfg.Paper.FillsPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Paper.FillsPath).Msg("open fill recorder")
		}
		defer jsonl.Close()
		recorder = jsonl
	}
	desk := paper.NewDesk(account, client, recorder, log)

	var uni engine.Universe
	if cfg.Exchange.AutoUniverse.Enabled {
		uni = client
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

	eng := engine.New(log, client, desk, desk, uni, limits, params)
	log.Info().Str("starting_cash", account.StartingCash().String()).Msg("paper rebalancer started")
	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("engine stopped unexpectedly")
	}

	snap := account.Snapshot(nil)
	log.Info().Str("cash", snap.Cash.String()).Str("realized", snap.RealizedPnL.String()).Msg("final paper account")
}

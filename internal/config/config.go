// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// AutoUniverse configures automatic selection of the tradable symbol set by
// 24h quote volume instead of (or merged with) the manual list.
type AutoUniverse struct {
	Enabled bool `yaml:"enabled"`
	TopN    int  `yaml:"top_n"`
}

// Exchange describes the futures venue connectivity parameters the bot expects.
type Exchange struct {
	Name         string       `yaml:"name"`
	Symbols      []string     `yaml:"symbols"`
	Quote        string       `yaml:"quote"`
	APIKey       string       `yaml:"api_key"`
	APISecret    string       `yaml:"api_secret"`
	Testnet      bool         `yaml:"testnet"`
	AutoUniverse AutoUniverse `yaml:"auto_universe"`
}

// Strategy groups the momentum selection knobs.
type Strategy struct {
	IntervalHours  int     `yaml:"interval_hours"`
	CandleInterval string  `yaml:"candle_interval"`
	LookbackHours  int     `yaml:"lookback_hours"`
	NotionalUSD    float64 `yaml:"notional_usd"`
	NLong          int     `yaml:"n_long"`
	NShort         int     `yaml:"n_short"`
	Leverage       int     `yaml:"leverage"`
}

// Risk encodes guard-rails for how much size the executor may take on.
type Risk struct {
	MaxPositions         int     `yaml:"max_positions"`
	MaxNotionalPerTrade  float64 `yaml:"max_notional_per_trade"`
	MaxPortfolioNotional float64 `yaml:"max_portfolio_notional"`
}

// Paper captures paper-trading account settings.
type Paper struct {
	StartingCash float64 `yaml:"starting_cash"`
	FillsPath    string  `yaml:"fills_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Exchange Exchange `yaml:"exchange"`
	Strategy Strategy `yaml:"strategy"`
	Risk     Risk     `yaml:"risk"`
	Paper    Paper    `yaml:"paper"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// FromEnv overrides exchange credentials from the environment so keys never
// have to live in the YAML file.
func (c *Config) FromEnv() {
	if v := os.Getenv("EXCHANGE_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("EXCHANGE_API_SECRET"); v != "" {
		c.Exchange.APISecret = v
	}
}

func (c *Config) applyDefaults() {
	if c.Strategy.IntervalHours <= 0 {
		c.Strategy.IntervalHours = 4
	}
	if c.Strategy.CandleInterval == "" {
		c.Strategy.CandleInterval = "1h"
	}
	if c.Strategy.LookbackHours <= 0 {
		c.Strategy.LookbackHours = 24
	}
	if c.Strategy.NLong <= 0 {
		c.Strategy.NLong = 2
	}
	if c.Strategy.NShort <= 0 {
		c.Strategy.NShort = 2
	}
	if c.Strategy.Leverage <= 0 {
		c.Strategy.Leverage = 20
	}
	if c.Exchange.Quote == "" {
		c.Exchange.Quote = "USDT"
	}
}

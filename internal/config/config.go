// Package config defines the top-level configuration for the polygraph
// pipeline and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by POLYGRAPH_* environment
// variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Database   DatabaseConfig   `toml:"database"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the public API endpoints and request timeout.
type PolymarketConfig struct {
	GammaHost         string `toml:"gamma_host"`
	DataHost          string `toml:"data_host"`
	RequestTimeoutSec int    `toml:"request_timeout_sec"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (c PolymarketConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// PipelineConfig holds the knobs of a single ingestion run.
type PipelineConfig struct {
	MaxEvents       int  `toml:"max_events"`
	EventPageSize   int  `toml:"event_page_size"`
	TradePageSize   int  `toml:"trade_page_size"`
	TradesPerMarket int  `toml:"trades_per_market"`
	PaceMs          int  `toml:"pace_ms"`
	FetchWorkers    int  `toml:"fetch_workers"`
	RetryMissing    bool `toml:"retry_missing"`
	BatchSize       int  `toml:"batch_size"`
	TopN            int  `toml:"top_n"`
	Reset           bool `toml:"reset"`
}

// Pace returns the minimum delay between trade pages.
func (c PipelineConfig) Pace() time.Duration {
	return time.Duration(c.PaceMs) * time.Millisecond
}

// Defaults returns the built-in configuration, matching the public
// Polymarket endpoints and their documented limits.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:         "https://gamma-api.polymarket.com",
			DataHost:          "https://data-api.polymarket.com",
			RequestTimeoutSec: 30,
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "polygraph",
			User:          "polygraph",
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Pipeline: PipelineConfig{
			MaxEvents:       150,
			EventPageSize:   100,
			TradePageSize:   500,
			TradesPerMarket: 2000,
			PaceMs:          300,
			FetchWorkers:    1,
			BatchSize:       500,
			TopN:            5,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for values that would make a run
// meaningless or abusive toward the upstream APIs.
func (c *Config) Validate() error {
	var problems []string

	if c.Polymarket.GammaHost == "" {
		problems = append(problems, "polymarket.gamma_host is required")
	}
	if c.Polymarket.DataHost == "" {
		problems = append(problems, "polymarket.data_host is required")
	}
	if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.Database == "" || c.Database.User == "") {
		problems = append(problems, "database.dsn or database.{host,database,user} is required")
	}
	if c.Pipeline.MaxEvents <= 0 {
		problems = append(problems, "pipeline.max_events must be positive")
	}
	if c.Pipeline.TradesPerMarket <= 0 {
		problems = append(problems, "pipeline.trades_per_market must be positive")
	}
	if c.Pipeline.TradePageSize <= 0 || c.Pipeline.TradePageSize > 500 {
		problems = append(problems, "pipeline.trade_page_size must be in (0, 500]")
	}
	if c.Pipeline.FetchWorkers < 1 {
		problems = append(problems, "pipeline.fetch_workers must be at least 1")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug/info/warn/error", c.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

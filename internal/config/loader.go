package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYGRAPH_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load. A missing config
// file is not an error: defaults plus env overrides then apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, err
			}
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYGRAPH_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject credentials at deploy time without touching the
// TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Polymarket.GammaHost, "POLYGRAPH_GAMMA_HOST")
	setStr(&cfg.Polymarket.DataHost, "POLYGRAPH_DATA_HOST")
	setInt(&cfg.Polymarket.RequestTimeoutSec, "POLYGRAPH_REQUEST_TIMEOUT_SEC")

	setStr(&cfg.Database.DSN, "POLYGRAPH_DATABASE_DSN")
	setStr(&cfg.Database.Host, "POLYGRAPH_DATABASE_HOST")
	setInt(&cfg.Database.Port, "POLYGRAPH_DATABASE_PORT")
	setStr(&cfg.Database.Database, "POLYGRAPH_DATABASE_NAME")
	setStr(&cfg.Database.User, "POLYGRAPH_DATABASE_USER")
	setStr(&cfg.Database.Password, "POLYGRAPH_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "POLYGRAPH_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "POLYGRAPH_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "POLYGRAPH_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "POLYGRAPH_DATABASE_RUN_MIGRATIONS")

	setInt(&cfg.Pipeline.MaxEvents, "POLYGRAPH_PIPELINE_MAX_EVENTS")
	setInt(&cfg.Pipeline.EventPageSize, "POLYGRAPH_PIPELINE_EVENT_PAGE_SIZE")
	setInt(&cfg.Pipeline.TradePageSize, "POLYGRAPH_PIPELINE_TRADE_PAGE_SIZE")
	setInt(&cfg.Pipeline.TradesPerMarket, "POLYGRAPH_PIPELINE_TRADES_PER_MARKET")
	setInt(&cfg.Pipeline.PaceMs, "POLYGRAPH_PIPELINE_PACE_MS")
	setInt(&cfg.Pipeline.FetchWorkers, "POLYGRAPH_PIPELINE_FETCH_WORKERS")
	setBool(&cfg.Pipeline.RetryMissing, "POLYGRAPH_PIPELINE_RETRY_MISSING")
	setInt(&cfg.Pipeline.BatchSize, "POLYGRAPH_PIPELINE_BATCH_SIZE")
	setInt(&cfg.Pipeline.TopN, "POLYGRAPH_PIPELINE_TOP_N")
	setBool(&cfg.Pipeline.Reset, "POLYGRAPH_PIPELINE_RESET")

	setStr(&cfg.LogLevel, "POLYGRAPH_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

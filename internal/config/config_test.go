package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Pipeline.TradePageSize != 500 {
		t.Errorf("trade_page_size = %d", cfg.Pipeline.TradePageSize)
	}
	if cfg.Pipeline.TradesPerMarket != 2000 {
		t.Errorf("trades_per_market = %d", cfg.Pipeline.TradesPerMarket)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
log_level = "debug"

[pipeline]
max_events = 25
retry_missing = true

[database]
dsn = "postgres://u:p@localhost:5432/g?sslmode=disable"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Pipeline.MaxEvents != 25 {
		t.Errorf("max_events = %d, want 25", cfg.Pipeline.MaxEvents)
	}
	if !cfg.Pipeline.RetryMissing {
		t.Error("retry_missing should be set from file")
	}
	// Untouched fields keep their defaults.
	if cfg.Pipeline.TradePageSize != 500 {
		t.Errorf("trade_page_size = %d, want default 500", cfg.Pipeline.TradePageSize)
	}
	if cfg.Polymarket.GammaHost != "https://gamma-api.polymarket.com" {
		t.Errorf("gamma_host = %q", cfg.Polymarket.GammaHost)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("merged config should validate: %v", err)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("POLYGRAPH_PIPELINE_MAX_EVENTS", "7")
	t.Setenv("POLYGRAPH_DATABASE_PASSWORD", "secret")
	t.Setenv("POLYGRAPH_PIPELINE_RESET", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Pipeline.MaxEvents != 7 {
		t.Errorf("max_events = %d, want 7", cfg.Pipeline.MaxEvents)
	}
	if cfg.Database.Password != "secret" {
		t.Errorf("password = %q", cfg.Database.Password)
	}
	if !cfg.Pipeline.Reset {
		t.Error("reset should be set from env")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing gamma host", func(c *Config) { c.Polymarket.GammaHost = "" }},
		{"zero max events", func(c *Config) { c.Pipeline.MaxEvents = 0 }},
		{"oversized page", func(c *Config) { c.Pipeline.TradePageSize = 501 }},
		{"zero workers", func(c *Config) { c.Pipeline.FetchWorkers = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"no database target", func(c *Config) {
			c.Database.DSN = ""
			c.Database.Host = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

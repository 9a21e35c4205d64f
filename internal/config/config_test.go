package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/oddsticker/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	content := `
source:
  mode: kalshi

kalshi:
  series_ticker: KXCFP
  timeout: 10s

monitor:
  scale: points
  threshold: 2
  window: 3h
  mover_docs_limit: 25
  refresh_interval: 10s

display:
  time_zone: "America/Chicago"

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

storage:
  db_path: "./data/test.db"

logging:
  level: "debug"
  format: "json"
`
	cfg, err := Load(writeFile(t, "config.yaml", content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.Mode != SourceKalshi {
		t.Errorf("Unexpected source mode: %q", cfg.Source.Mode)
	}
	if cfg.Kalshi.Timeout != 10*time.Second || cfg.Kalshi.Status != "open" {
		t.Errorf("Unexpected kalshi config: %+v", cfg.Kalshi)
	}
	if cfg.Scale() != models.ScalePoints {
		t.Errorf("Unexpected scale: %s", cfg.Scale())
	}
	if cfg.Monitor.Threshold != 2 || cfg.Monitor.Window != 3*time.Hour || cfg.Monitor.MoverDocsLimit != 25 {
		t.Errorf("Unexpected monitor config: %+v", cfg.Monitor)
	}
	if cfg.Monitor.RefreshInterval != 10*time.Second {
		t.Errorf("Unexpected refresh interval: %v", cfg.Monitor.RefreshInterval)
	}
	if !cfg.Monitor.RecordMovers {
		t.Error("monitor.record_movers should default to true in kalshi mode")
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "America/Chicago" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.Mode != SourceStore {
		t.Errorf("source.mode = %q, want store", cfg.Source.Mode)
	}
	if cfg.Monitor.Threshold != 0 {
		t.Errorf("monitor.threshold = %v, want 0", cfg.Monitor.Threshold)
	}
	if cfg.Monitor.Window != 6*time.Hour {
		t.Errorf("monitor.window = %v, want 6h", cfg.Monitor.Window)
	}
	if cfg.Monitor.MoverDocsLimit != 10 {
		t.Errorf("monitor.mover_docs_limit = %d, want 10", cfg.Monitor.MoverDocsLimit)
	}
	if cfg.Monitor.RefreshInterval != 5*time.Second {
		t.Errorf("monitor.refresh_interval = %v, want 5s", cfg.Monitor.RefreshInterval)
	}
	if cfg.Monitor.RecordMovers {
		t.Error("monitor.record_movers should default to false in store mode")
	}
	if cfg.Scale() != models.ScaleProbability {
		t.Errorf("scale = %s, want probability", cfg.Scale())
	}
	if cfg.Display.TimeZone != "America/New_York" {
		t.Errorf("display.time_zone = %q", cfg.Display.TimeZone)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ODDSTICKER_MONITOR_THRESHOLD", "0.03")
	t.Setenv("ODDSTICKER_TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("ODDSTICKER_SOURCE_MODE", "KALSHI")

	cfg, err := Load(writeFile(t, "config.yaml", "monitor:\n  threshold: 0.5\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Monitor.Threshold != 0.03 {
		t.Errorf("threshold = %v, want env override 0.03", cfg.Monitor.Threshold)
	}
	if cfg.Telegram.BotToken != "from-env" {
		t.Errorf("bot_token = %q", cfg.Telegram.BotToken)
	}
	if cfg.Source.Mode != SourceKalshi {
		t.Errorf("source.mode = %q, want normalized kalshi", cfg.Source.Mode)
	}
}

func TestLoadRecordMoversFollowsMode(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"store default", "source:\n  mode: store\n", false},
		{"kalshi default", "source:\n  mode: kalshi\n", true},
		{"polymarket default", "source:\n  mode: polymarket\n", true},
		{"kalshi explicit off", "source:\n  mode: kalshi\nmonitor:\n  record_movers: false\n", false},
		{"store explicit on", "source:\n  mode: store\nmonitor:\n  record_movers: true\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, "config.yaml", tt.content))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Monitor.RecordMovers != tt.want {
				t.Errorf("record_movers = %v, want %v", cfg.Monitor.RecordMovers, tt.want)
			}
		})
	}

	t.Setenv("ODDSTICKER_MONITOR_RECORD_MOVERS", "false")
	cfg, err := Load(writeFile(t, "config.yaml", "source:\n  mode: kalshi\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Monitor.RecordMovers {
		t.Error("env override of record_movers ignored")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "ODDSTICKER_TEST_DOTENV=loaded\nODDSTICKER_TEST_PRESET=from-file\n")
	t.Setenv("ODDSTICKER_TEST_PRESET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("ODDSTICKER_TEST_DOTENV") })

	loaded, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path)
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if !loaded {
		t.Error("expected a file to be loaded")
	}
	if got := os.Getenv("ODDSTICKER_TEST_DOTENV"); got != "loaded" {
		t.Errorf("ODDSTICKER_TEST_DOTENV = %q", got)
	}
	if got := os.Getenv("ODDSTICKER_TEST_PRESET"); got != "from-env" {
		t.Errorf("existing variable was overridden: %q", got)
	}

	loaded, err = LoadDotEnv(filepath.Join(t.TempDir(), "none.env"))
	if err != nil || loaded {
		t.Errorf("missing file: loaded=%v err=%v", loaded, err)
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown source", func(c *Config) { c.Source.Mode = "firestore" }, "source.mode"},
		{"kalshi without ticker", func(c *Config) { c.Source.Mode = SourceKalshi }, "series_ticker"},
		{"kalshi half credentials", func(c *Config) {
			c.Source.Mode = SourceKalshi
			c.Kalshi.SeriesTicker = "KXCFP"
			c.Kalshi.KeyID = "kid"
		}, "set together"},
		{"polymarket without slug", func(c *Config) { c.Source.Mode = SourcePolymarket }, "polymarket.event_slug"},
		{"polymarket zero retries", func(c *Config) {
			c.Source.Mode = SourcePolymarket
			c.Polymarket.EventSlug = "college-football-champion-2026"
			c.Polymarket.MaxRetries = 0
		}, "polymarket.max_retries"},
		{"store mode recording movers", func(c *Config) {
			c.Source.Mode = SourceStore
			c.Monitor.RecordMovers = true
		}, "monitor.record_movers"},
		{"unknown scale", func(c *Config) { c.Monitor.Scale = "odds" }, "monitor.scale"},
		{"negative threshold", func(c *Config) { c.Monitor.Threshold = -0.01 }, "monitor.threshold"},
		{"zero window", func(c *Config) { c.Monitor.Window = 0 }, "monitor.window"},
		{"zero mover docs", func(c *Config) { c.Monitor.MoverDocsLimit = 0 }, "mover_docs_limit"},
		{"fast refresh", func(c *Config) { c.Monitor.RefreshInterval = time.Millisecond }, "refresh_interval"},
		{"bad time zone", func(c *Config) { c.Display.TimeZone = "Mars/Olympus" }, "display.time_zone"},
		{"missing telegram token when enabled", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.ChatID = "1"
		}, "bot_token"},
		{"missing telegram chat when enabled", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.BotToken = "token"
		}, "chat_id"},
		{"missing db path", func(c *Config) { c.Storage.DBPath = "" }, "db_path"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

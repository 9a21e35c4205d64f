package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // display.time_zone must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/rewired-gh/oddsticker/internal/models"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. ODDSTICKER_MONITOR_THRESHOLD.
const EnvPrefix = "ODDSTICKER"

// Quote sources
const (
	SourceStore      = "store"
	SourceKalshi     = "kalshi"
	SourcePolymarket = "polymarket"
)

// Config represents the complete application configuration
type Config struct {
	Source     SourceConfig     `mapstructure:"source"`
	Kalshi     KalshiConfig     `mapstructure:"kalshi"`
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Display    DisplayConfig    `mapstructure:"display"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SourceConfig selects where each poll's quotes come from
type SourceConfig struct {
	Mode string `mapstructure:"mode"` // store reads the current snapshot document; kalshi and polymarket fetch and write it
}

// KalshiConfig holds Kalshi API configuration
type KalshiConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	KeyID          string        `mapstructure:"key_id"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	SeriesTicker   string        `mapstructure:"series_ticker"`
	EventTicker    string        `mapstructure:"event_ticker"`
	Status         string        `mapstructure:"status"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
}

// PolymarketConfig holds Polymarket Gamma API configuration
type PolymarketConfig struct {
	GammaAPIURL    string        `mapstructure:"gamma_api_url"`
	EventSlug      string        `mapstructure:"event_slug"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// MonitorConfig holds delta and mover configuration
type MonitorConfig struct {
	Scale           string        `mapstructure:"scale"`
	Threshold       float64       `mapstructure:"threshold"`
	Window          time.Duration `mapstructure:"window"`
	MoverDocsLimit  int           `mapstructure:"mover_docs_limit"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RecordMovers    bool          `mapstructure:"record_movers"`
}

// DisplayConfig holds terminal dashboard configuration
type DisplayConfig struct {
	TimeZone    string `mapstructure:"time_zone"`
	Title       string `mapstructure:"title"`
	ClearScreen bool   `mapstructure:"clear_screen"`
	NoColor     bool   `mapstructure:"no_color"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped; it reports whether any file was loaded.
func LoadDotEnv(paths ...string) (bool, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	loaded := false
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("failed to load %s: %w", p, err)
		}
		loaded = true
	}
	return loaded, nil
}

// Load reads configuration from file and environment variables.
// An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Source.Mode = strings.ToLower(strings.TrimSpace(cfg.Source.Mode))

	// A store-mode reader shares the mover log with the process that writes
	// the current document, so only the writer records by default.
	if v.IsSet("monitor.record_movers") {
		cfg.Monitor.RecordMovers = v.GetBool("monitor.record_movers")
	} else {
		cfg.Monitor.RecordMovers = cfg.Source.Mode != SourceStore
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("source.mode", SourceStore)

	// Kalshi defaults
	v.SetDefault("kalshi.base_url", "https://api.elections.kalshi.com/trade-api/v2")
	v.SetDefault("kalshi.key_id", "")
	v.SetDefault("kalshi.private_key_path", "")
	v.SetDefault("kalshi.series_ticker", "")
	v.SetDefault("kalshi.event_ticker", "")
	v.SetDefault("kalshi.status", "open")
	v.SetDefault("kalshi.timeout", "30s")
	v.SetDefault("kalshi.max_retries", 3)
	v.SetDefault("kalshi.retry_backoff", "1s")

	// Polymarket defaults
	v.SetDefault("polymarket.gamma_api_url", "https://gamma-api.polymarket.com")
	v.SetDefault("polymarket.event_slug", "")
	v.SetDefault("polymarket.timeout", "30s")
	v.SetDefault("polymarket.max_retries", 3)
	v.SetDefault("polymarket.retry_delay_base", "1s")

	// Monitor defaults
	v.SetDefault("monitor.scale", string(models.ScaleProbability))
	v.SetDefault("monitor.threshold", 0.0) // 0 = record every non-zero move
	v.SetDefault("monitor.window", "6h")
	v.SetDefault("monitor.mover_docs_limit", 10)
	v.SetDefault("monitor.refresh_interval", "5s")

	// Display defaults
	v.SetDefault("display.time_zone", "America/New_York")
	v.SetDefault("display.title", "🏈 CFP Playoff Odds · Live Ticker")
	v.SetDefault("display.clear_screen", true)
	v.SetDefault("display.no_color", false)

	// Telegram defaults
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/oddsticker.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Source config
	switch c.Source.Mode {
	case SourceStore:
		if c.Monitor.RecordMovers {
			return fmt.Errorf("monitor.record_movers must be false in store mode; the writing process records movers")
		}
	case SourceKalshi:
		if err := c.Kalshi.validate(); err != nil {
			return err
		}
	case SourcePolymarket:
		if err := c.Polymarket.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("source.mode must be one of: %s, %s, %s", SourceStore, SourceKalshi, SourcePolymarket)
	}

	// Validate Monitor config
	if _, err := models.ParseScale(c.Monitor.Scale); err != nil {
		return fmt.Errorf("monitor.scale: %w", err)
	}
	if c.Monitor.Threshold < 0 {
		return fmt.Errorf("monitor.threshold must not be negative")
	}
	if c.Monitor.Window <= 0 {
		return fmt.Errorf("monitor.window must be positive")
	}
	if c.Monitor.MoverDocsLimit < 1 {
		return fmt.Errorf("monitor.mover_docs_limit must be at least 1")
	}
	if c.Monitor.RefreshInterval < time.Second {
		return fmt.Errorf("monitor.refresh_interval must be at least 1 second")
	}

	// Validate Display config
	if _, err := c.Location(); err != nil {
		return err
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

func (k KalshiConfig) validate() error {
	if k.BaseURL == "" {
		return fmt.Errorf("kalshi.base_url is required")
	}
	if k.SeriesTicker == "" && k.EventTicker == "" {
		return fmt.Errorf("kalshi.series_ticker or kalshi.event_ticker is required")
	}
	if (k.KeyID == "") != (k.PrivateKeyPath == "") {
		return fmt.Errorf("kalshi.key_id and kalshi.private_key_path must be set together")
	}
	if k.Timeout <= 0 {
		return fmt.Errorf("kalshi.timeout must be positive")
	}
	if k.MaxRetries < 0 {
		return fmt.Errorf("kalshi.max_retries must not be negative")
	}
	return nil
}

func (p PolymarketConfig) validate() error {
	if p.GammaAPIURL == "" {
		return fmt.Errorf("polymarket.gamma_api_url is required")
	}
	if p.EventSlug == "" {
		return fmt.Errorf("polymarket.event_slug is required")
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("polymarket.timeout must be positive")
	}
	if p.MaxRetries < 1 {
		return fmt.Errorf("polymarket.max_retries must be at least 1")
	}
	return nil
}

// Scale returns the configured delta scale.
func (c *Config) Scale() models.Scale {
	s, err := models.ParseScale(c.Monitor.Scale)
	if err != nil {
		return models.ScaleProbability
	}
	return s
}

// Location loads the display time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Display.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("display.time_zone %q: %w", c.Display.TimeZone, err)
	}
	return loc, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MarketConfig is one traded symbol with its share of the total cash
// balance, in percent.
type MarketConfig struct {
	Symbol     string  `yaml:"symbol" validate:"required"`
	Allocation float64 `yaml:"allocation" validate:"gt=0,lte=100"`
}

// Config holds all application configuration.
type Config struct {
	Exchange struct {
		BaseURL   string `yaml:"base_url"`
		AccessKey string `yaml:"access_key" validate:"required"`
		SecretKey string `yaml:"secret_key" validate:"required"`
		Quote     string `yaml:"quote"`
	} `yaml:"exchange"`
	Markets []MarketConfig `yaml:"markets" validate:"min=1,dive"`
	Trade   struct {
		IntervalMinutes int     `yaml:"interval_minutes" validate:"gt=0"`
		CandleInterval  string  `yaml:"candle_interval"`
		CandleCount     int     `yaml:"candle_count" validate:"gt=1"`
		MinOrder        float64 `yaml:"min_order" validate:"gt=0"`
		FeeRate         float64 `yaml:"fee_rate" validate:"gte=0,lt=1"`
		StateFile       string  `yaml:"state_file"`
	} `yaml:"trade"`
	Advisor struct {
		Enabled   bool   `yaml:"enabled"`
		OpenAIKey string `yaml:"openai_key"`
		Model     string `yaml:"model"`
	} `yaml:"advisor"`
	Feeds struct {
		FearGreedURL string `yaml:"fear_greed_url"`
		SerpAPIKey   string `yaml:"serpapi_key"`
	} `yaml:"feeds"`
	Discord struct {
		WebhookURL string `yaml:"webhook_url" validate:"required,url"`
	} `yaml:"discord"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Dashboard struct {
		Addr           string  `yaml:"addr"`
		InitialBalance float64 `yaml:"initial_balance"`
	} `yaml:"dashboard"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("UPBIT_ACCESS_KEY"); v != "" {
		cfg.Exchange.AccessKey = v
	}
	if v := os.Getenv("UPBIT_SECRET_KEY"); v != "" {
		cfg.Exchange.SecretKey = v
	}
	if v := os.Getenv("UPBIT_BASE_URL"); v != "" {
		cfg.Exchange.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Advisor.OpenAIKey = v
	}
	if v := os.Getenv("SERPAPI_API_KEY"); v != "" {
		cfg.Feeds.SerpAPIKey = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TRADE_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Trade.IntervalMinutes = n
		}
	}

	// Defaults
	if cfg.Exchange.Quote == "" {
		cfg.Exchange.Quote = "KRW"
	}
	if len(cfg.Markets) == 0 {
		for _, sym := range []string{"BTC", "DOGE", "XLM", "XRP", "SOL"} {
			cfg.Markets = append(cfg.Markets, MarketConfig{Symbol: sym, Allocation: 20})
		}
	}
	if cfg.Trade.IntervalMinutes == 0 {
		cfg.Trade.IntervalMinutes = 15
	}
	if cfg.Trade.CandleInterval == "" {
		cfg.Trade.CandleInterval = "minute5"
	}
	if cfg.Trade.CandleCount == 0 {
		cfg.Trade.CandleCount = 100
	}
	if cfg.Trade.MinOrder == 0 {
		cfg.Trade.MinOrder = 5000
	}
	if cfg.Trade.FeeRate == 0 {
		cfg.Trade.FeeRate = 0.0005
	}
	if cfg.Trade.StateFile == "" {
		cfg.Trade.StateFile = "data/session_state.json"
	}
	if cfg.Advisor.Model == "" {
		cfg.Advisor.Model = "gpt-4o"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/coinpilot.db"
	}
	if cfg.Dashboard.Addr == "" {
		cfg.Dashboard.Addr = ":8087"
	}

	return cfg, nil
}

// Validate checks that required fields are set and consistent. A
// failure here is fatal: the process must not start half-configured.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	var total float64
	for _, m := range c.Markets {
		total += m.Allocation
	}
	if total > 100 {
		return fmt.Errorf("market allocations sum to %.1f%%, must not exceed 100%%", total)
	}
	if c.Advisor.Enabled && c.Advisor.OpenAIKey == "" {
		return fmt.Errorf("advisor.openai_key is required when the advisor is enabled")
	}
	return nil
}

// Market returns the full market identifier for a symbol, e.g. "KRW-BTC".
func (c *Config) Market(symbol string) string {
	return c.Exchange.Quote + "-" + symbol
}

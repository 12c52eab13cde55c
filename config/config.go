// Package config loads the bot configuration from a YAML file, a local .env,
// and environment overrides. Secrets only ever come from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"spot-trading-bot/internal/risk"
)

type Config struct {
	Mode     string         `yaml:"mode"`
	Symbols  []string       `yaml:"symbols"`
	Binance  BinanceConfig  `yaml:"binance"`
	Trading  TradingConfig  `yaml:"trading"`
	Risk     risk.Config    `yaml:"risk"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	LogsDir  string         `yaml:"logs_dir"`
}

type BinanceConfig struct {
	APIKey     string `yaml:"-"`
	SecretKey  string `yaml:"-"`
	BaseURL    string `yaml:"base_url"`
	TestnetURL string `yaml:"testnet_url"`
	QuoteAsset string `yaml:"quote_asset"`
}

type TradingConfig struct {
	DefaultBalance  float64 `yaml:"default_balance"`
	Leverage        float64 `yaml:"leverage"`
	UseOrderPlan    bool    `yaml:"use_order_plan"`
	MaxDailyLossEUR float64 `yaml:"max_daily_loss_eur"`
}

type ScheduleConfig struct {
	IntervalMin int `yaml:"interval_min"`
	CooldownMin int `yaml:"cooldown_min"`
}

type TelegramConfig struct {
	BotToken string `yaml:"-"`
	ChatID   string `yaml:"-"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Load reads the YAML file at path (optional), layers a local .env, and
// applies environment overrides. Missing config file is not an error; the
// defaults describe a complete paper-mode setup.
func Load(path string) (*Config, error) {
	// Best effort; a missing .env just means env vars come from the shell.
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Risk.MaxProposalPct <= 0 || cfg.Risk.MaxTradePct <= 0 {
		return nil, fmt.Errorf("risk caps must be positive")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Mode:    "paper",
		Symbols: []string{"BTCUSDT"},
		Binance: BinanceConfig{
			BaseURL:    "https://api.binance.com",
			TestnetURL: "https://testnet.binance.vision",
			QuoteAsset: "USDT",
		},
		Trading: TradingConfig{
			DefaultBalance: 10000,
			Leverage:       1,
		},
		Risk: risk.DefaultConfig(),
		Schedule: ScheduleConfig{
			IntervalMin: 10,
			CooldownMin: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		LogsDir: "logs",
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MODE"); v != "" {
		c.Mode = v
	}
	c.Binance.APIKey = os.Getenv("BINANCE_KEY")
	c.Binance.SecretKey = os.Getenv("BINANCE_SECRET")
	c.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	c.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")

	if v := os.Getenv("LOGS_DIR"); v != "" {
		c.LogsDir = v
	}
	if v := envFloat("MAX_DAILY_LOSS_EUR"); v > 0 {
		c.Trading.MaxDailyLossEUR = v
	}
	if v := envInt("SCAN_INTERVAL_MIN"); v > 0 {
		c.Schedule.IntervalMin = v
	}
	if v := envInt("COOLDOWN_MIN"); v > 0 {
		c.Schedule.CooldownMin = v
	}
}

// BinanceBaseURL returns the REST base for the given execution mode.
func (c *Config) BinanceBaseURL(mode string) string {
	if mode == "testnet" {
		return c.Binance.TestnetURL
	}
	return c.Binance.BaseURL
}

func envFloat(key string) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return 0
	}
	return v
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

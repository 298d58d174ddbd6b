package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	DriverSupabase = "supabase"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"

	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Telegram struct {
		Token       string `env:"TELEGRAM_TOKEN,required,notEmpty"`
		Mode        string `env:"BOT_MODE" envDefault:"polling"`
		WebhookURL  string `env:"WEBHOOK_URL"`
		PollTimeout int    `env:"POLL_TIMEOUT" envDefault:"60"`
	}

	Server struct {
		Addr           string `env:"HTTP_ADDR" envDefault:":8080"`
		WebhookPath    string `env:"WEBHOOK_PATH" envDefault:"/api/webhook"`
		MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"false"`
	}

	OpenRouter struct {
		APIKey  string `env:"OPENROUTER_API_KEY,required,notEmpty"`
		URL     string `env:"OPENROUTER_URL" envDefault:"https://openrouter.ai/api/v1/chat/completions"`
		Model   string `env:"OPENROUTER_MODEL" envDefault:"mistralai/mistral-7b-instruct:free"`
		Referer string `env:"OPENROUTER_REFERER" envDefault:"https://github.com/your-repo"`
		Title   string `env:"OPENROUTER_TITLE" envDefault:"Bobina Bot"`
	}

	Etherscan struct {
		APIKey string `env:"ETHERSCAN_API_KEY,required,notEmpty"`
		URL    string `env:"ETHERSCAN_URL" envDefault:"https://api.etherscan.io/api"`
	}

	Store struct {
		Driver string `env:"STORE_DRIVER" envDefault:"supabase"`
		DBPath string `env:"DB_PATH" envDefault:"/data/bot.db"`
	}

	Supabase struct {
		URL     string `env:"SUPABASE_URL"`
		AnonKey string `env:"SUPABASE_ANON_KEY"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Upstream struct {
		Timeout         time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
		MaxRetries      uint64        `env:"UPSTREAM_MAX_RETRIES" envDefault:"0"`
		BreakerFailures uint32        `env:"UPSTREAM_BREAKER_FAILURES" envDefault:"5"`
	}
}

// Load reads an optional .env file and the process environment.
func Load() (*Config, error) {
	// .env is optional; in production variables come from the environment.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on the selected store driver and mode.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverSupabase:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			errs = append(errs, errors.New("missing Supabase credentials: SUPABASE_URL and SUPABASE_ANON_KEY are required"))
		}
	case DriverSQLite:
		if c.Store.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite store"))
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.Telegram.Mode {
	case ModePolling, ModeWebhook:
	default:
		errs = append(errs, fmt.Errorf("unknown BOT_MODE %q", c.Telegram.Mode))
	}

	return errors.Join(errs...)
}

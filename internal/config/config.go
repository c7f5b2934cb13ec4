package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	AppName    string `env:"APP_NAME" env-default:"OpenClaw Backend"`
	Env        string `env:"APP_ENV" env-default:"dev"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
	ServerPort string `env:"SERVER_PORT" env-default:"8080"`

	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Redis     RedisConfig
	HTTP      HTTPConfig
	Twilio    TwilioConfig
	Telegram  TelegramConfig
}

type DatabaseConfig struct {
	// URL is a postgres DSN. When empty the SQLite file at SQLitePath is used.
	URL             string        `env:"DATABASE_URL"`
	SQLitePath      string        `env:"SQLITE_PATH" env-default:"openclaw.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
}

type SchedulerConfig struct {
	Interval  time.Duration `env:"REMINDER_INTERVAL" env-default:"60s"`
	BatchSize int           `env:"REMINDER_BATCH_SIZE" env-default:"0"`
	LockTTL   time.Duration `env:"REMINDER_LOCK_TTL" env-default:"55s"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL"`
}

type HTTPConfig struct {
	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" env-default:"20"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" env-default:"40"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

type TwilioConfig struct {
	AccountSID     string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken      string `env:"TWILIO_AUTH_TOKEN"`
	WhatsAppNumber string `env:"TWILIO_WHATSAPP_NUMBER"`
	Recipient      string `env:"WHATSAPP_RECIPIENT"`
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.WhatsAppNumber != "" && c.Recipient != ""
}

type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `env:"TELEGRAM_CHAT_ID"`
	APIURL   string `env:"TELEGRAM_API_URL" env-default:"https://api.telegram.org"`
}

func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}
	if c.Scheduler.Interval < time.Second {
		return fmt.Errorf("REMINDER_INTERVAL must be at least 1s, got %s", c.Scheduler.Interval)
	}
	if c.Scheduler.BatchSize < 0 {
		return fmt.Errorf("REMINDER_BATCH_SIZE must not be negative")
	}
	if c.Redis.URL != "" && c.Scheduler.LockTTL <= 0 {
		return fmt.Errorf("REMINDER_LOCK_TTL must be positive when REDIS_URL is set")
	}
	if c.HTTP.RateLimitRPS <= 0 || c.HTTP.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

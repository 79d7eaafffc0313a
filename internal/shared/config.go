package shared

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"rentals/internal/domain"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR"`
	MySQLDSN    string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/rentals?parseTime=true&charset=utf8mb4&loc=UTC"`

	// Empty RedisAddr disables both the read cache and the load lock.
	RedisAddr string        `env:"REDIS_ADDR"`
	RedisPass string        `env:"REDIS_PASSWORD"`
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"15m"`

	Load LoadConfig
}

type LoadConfig struct {
	MaxWait time.Duration `env:"LOAD_TX_MAX_WAIT" envDefault:"15s"`
	Timeout time.Duration `env:"LOAD_TX_TIMEOUT" envDefault:"30s"`
	LockKey string        `env:"LOAD_LOCK_KEY" envDefault:"rentals:load:lock"`
	// SourceDir confines sources named over HTTP.
	SourceDir string `env:"LOAD_SOURCE_DIR" envDefault:"data"`
	// Requests per minute accepted by POST /v1/loads.
	RatePerMinute int `env:"LOAD_RATE_PER_MINUTE" envDefault:"6"`
}

func (l LoadConfig) Tx() domain.TxOptions {
	return domain.TxOptions{MaxWait: l.MaxWait, Timeout: l.Timeout}
}

// LoadEnv loads the env files that exist and returns how many it read.
func LoadEnv(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads .env files (when present) and then the process environment.
func Load() (Config, error) {
	if _, err := LoadEnv(".env", ".env.local"); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Load.MaxWait <= 0 {
		return fmt.Errorf("LOAD_TX_MAX_WAIT must be positive, got %s", c.Load.MaxWait)
	}
	if c.Load.Timeout <= 0 {
		return fmt.Errorf("LOAD_TX_TIMEOUT must be positive, got %s", c.Load.Timeout)
	}
	if c.Load.LockKey == "" {
		return fmt.Errorf("LOAD_LOCK_KEY must not be empty")
	}
	if c.Load.RatePerMinute <= 0 {
		return fmt.Errorf("LOAD_RATE_PER_MINUTE must be positive, got %d", c.Load.RatePerMinute)
	}
	if c.CacheTTL < time.Second {
		return fmt.Errorf("CACHE_TTL must be at least 1s, got %s", c.CacheTTL)
	}
	return nil
}

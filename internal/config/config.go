package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Database drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
		RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"60s"`
		MaxBodyBytes    int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Database struct {
		Driver       string `env:"DB_DRIVER" envDefault:"memory"`
		DSN          string `env:"DB_DSN"`
		MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		Migrate      bool   `env:"DB_MIGRATE" envDefault:"true"`
	}
	Engine struct {
		URL           string        `env:"ENGINE_URL" envDefault:"http://localhost:8000"`
		APIKey        string        `env:"ENGINE_API_KEY"`
		Timeout       time.Duration `env:"ENGINE_TIMEOUT" envDefault:"30s"`
		HealthTimeout time.Duration `env:"ENGINE_HEALTH_TIMEOUT" envDefault:"5s"`
		RateLimit     float64       `env:"ENGINE_RATE_LIMIT" envDefault:"20"`
		MaxRetries    int           `env:"ENGINE_MAX_RETRIES" envDefault:"2"`
	}
	Synthesis struct {
		// DefaultNoisy applies when a request leaves the noise flag unset.
		DefaultNoisy bool `env:"SYNTH_DEFAULT_NOISY" envDefault:"true"`
		// ForceGPU, when set, replaces the GPU hint reported by the engine.
		ForceGPU *bool `env:"SYNTH_FORCE_GPU"`
	}
	Cache struct {
		Size           int           `env:"CACHE_SIZE" envDefault:"1024"`
		HealthCacheTTL time.Duration `env:"HEALTH_CACHE_TTL" envDefault:"15s"`
	}
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if cfg.Database.DSN == "" {
			cfg.Database.DSN = "host=localhost port=5432 user=postgres password=postgres dbname=experiments sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	if cfg.Engine.URL == "" {
		return nil, fmt.Errorf("ENGINE_URL must not be empty")
	}
	cfg.Engine.URL = strings.TrimRight(cfg.Engine.URL, "/")

	return cfg, nil
}

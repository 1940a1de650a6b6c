// Package config loads server settings. Values come from built-in defaults,
// then an optional YAML file, then the environment (including a local .env).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Ledger backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the full server configuration.
type Config struct {
	Server   Server      `yaml:"server"`
	Log      Log         `yaml:"log"`
	Ledger   Ledger      `yaml:"ledger"`
	Registry Registry    `yaml:"registry"`
	Redis    RedisConfig `yaml:"redis"`
	Audit    Audit       `yaml:"audit"`
	Limits   Limits      `yaml:"limits"`
	Dev      Dev         `yaml:"dev"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `yaml:"addr" env:"PAPERLEDGER_ADDR"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"PAPERLEDGER_READ_HEADER_TIMEOUT"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"PAPERLEDGER_REQUEST_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"PAPERLEDGER_SHUTDOWN_TIMEOUT"`
	// SignerLeeway tolerates clock skew on request tokens.
	SignerLeeway time.Duration `yaml:"signer_leeway" env:"PAPERLEDGER_SIGNER_LEEWAY"`
}

type Log struct {
	Level  string `yaml:"level" env:"PAPERLEDGER_LOG_LEVEL"`
	Format string `yaml:"format" env:"PAPERLEDGER_LOG_FORMAT"`
}

type Ledger struct {
	Backend     string        `yaml:"backend" env:"PAPERLEDGER_LEDGER"`
	PostgresDSN string        `yaml:"postgres_dsn" env:"DATABASE_URL"`
	KeyPrefix   string        `yaml:"key_prefix" env:"PAPERLEDGER_LEDGER_PREFIX"`
	LockTTL     time.Duration `yaml:"lock_ttl" env:"PAPERLEDGER_LEDGER_LOCK_TTL"`
}

// Registry selects where badge collections and assets are recorded.
type Registry struct {
	Backend   string `yaml:"backend" env:"PAPERLEDGER_REGISTRY"`
	KeyPrefix string `yaml:"key_prefix" env:"PAPERLEDGER_REGISTRY_PREFIX"`
}

// RedisConfig configures the shared Redis client. An empty URL disables it.
type RedisConfig struct {
	URL          string        `yaml:"url" env:"REDIS_URL"`
	PoolSize     int           `yaml:"pool_size" env:"REDIS_POOL_SIZE"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"REDIS_WRITE_TIMEOUT"`
}

// Audit configures event delivery. The last Retain events are kept in
// memory; Kafka is added as a sink when brokers are set.
type Audit struct {
	KafkaBrokers string `yaml:"kafka_brokers" env:"KAFKA_BROKERS"`
	KafkaTopic   string `yaml:"kafka_topic" env:"PAPERLEDGER_AUDIT_TOPIC"`
	Buffer       int    `yaml:"buffer" env:"PAPERLEDGER_AUDIT_BUFFER"`
	Retain       int    `yaml:"retain" env:"PAPERLEDGER_AUDIT_RETAIN"`
}

// Brokers splits the comma separated broker list.
func (a Audit) Brokers() []string {
	var out []string
	for b := range strings.SplitSeq(a.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Limits throttles signed requests per signer. Zero Requests disables it.
type Limits struct {
	Requests int           `yaml:"requests" env:"PAPERLEDGER_SIGNER_RATE_LIMIT"`
	Window   time.Duration `yaml:"window" env:"PAPERLEDGER_SIGNER_RATE_WINDOW"`
}

// Dev holds switches that must stay off in production.
type Dev struct {
	Faucet bool `yaml:"faucet" env:"PAPERLEDGER_DEV_FAUCET"`
}

// Default returns the built-in configuration: an in-memory ledger on :8080.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			RequestTimeout:    30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			SignerLeeway:      5 * time.Second,
		},
		Log:      Log{Level: "info", Format: "json"},
		Ledger:   Ledger{Backend: BackendMemory, KeyPrefix: "ledger:", LockTTL: 10 * time.Second},
		Registry: Registry{Backend: BackendMemory, KeyPrefix: "assets:"},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Audit:  Audit{KafkaTopic: "paperledger.audit", Buffer: 256, Retain: 1024},
		Limits: Limits{Requests: 60, Window: time.Minute},
	}
}

// Load builds the configuration. path may be empty; a missing .env is ignored.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Ledger.PostgresDSN == "" {
			return errors.New("ledger backend postgres requires DATABASE_URL")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("ledger backend redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}
	switch c.Registry.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("registry backend redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown registry backend %q", c.Registry.Backend)
	}
	if c.Limits.Requests > 0 && c.Limits.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if c.Audit.Buffer < 0 {
		return errors.New("audit buffer must not be negative")
	}
	if c.Audit.Retain <= 0 {
		return errors.New("audit retain must be positive")
	}
	return nil
}

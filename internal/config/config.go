// Package config loads seedlinkd's runtime configuration from environment
// variables (and an optional .env file), the way ws/config.go does for its
// WebSocket server.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every tunable of the seedlinkd process.
//
// Tags:
//
//	env: environment variable name
//	envDefault: default value if not set
type Config struct {
	// Server
	ListenAddr string `env:"SEEDLINK_LISTEN_ADDR" envDefault:":18000"`
	Software   string `env:"SEEDLINK_SOFTWARE" envDefault:"SeedLink v3.1"`
	Org        string `env:"SEEDLINK_ORGANIZATION" envDefault:"seedlink-go"`

	// Ring store
	RingCapacity int `env:"SEEDLINK_RING_CAPACITY" envDefault:"16384"`

	// Rate limiting (internal/ratelimit)
	RateLimitEnabled   bool          `env:"SEEDLINK_RATE_LIMIT_ENABLED" envDefault:"true"`
	PerIPRate          float64       `env:"SEEDLINK_RATE_LIMIT_PER_IP_RATE" envDefault:"2"`
	PerIPBurst         int           `env:"SEEDLINK_RATE_LIMIT_PER_IP_BURST" envDefault:"5"`
	GlobalRate         float64       `env:"SEEDLINK_RATE_LIMIT_GLOBAL_RATE" envDefault:"200"`
	GlobalBurst        int           `env:"SEEDLINK_RATE_LIMIT_GLOBAL_BURST" envDefault:"500"`
	RateLimitIdleEvict time.Duration `env:"SEEDLINK_RATE_LIMIT_IDLE_EVICT" envDefault:"10m"`

	// AUTH (internal/auth); empty secret disables verification entirely.
	AuthSecret string `env:"SEEDLINK_AUTH_SECRET" envDefault:""`

	// Host stats (internal/health)
	HealthInterval time.Duration `env:"SEEDLINK_HEALTH_INTERVAL" envDefault:"5s"`
	HealthAddr     string        `env:"SEEDLINK_HEALTH_ADDR" envDefault:":18001"`

	// Prometheus (internal/metrics)
	MetricsEnabled bool   `env:"SEEDLINK_METRICS_ENABLED" envDefault:"true"`
	MetricsAddr    string `env:"SEEDLINK_METRICS_ADDR" envDefault:":18002"`

	// NATS ingest adapter (cmd/seedlink-ingest-nats)
	NATSURL             string        `env:"SEEDLINK_NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSSubject         string        `env:"SEEDLINK_NATS_SUBJECT" envDefault:"seedlink.>"`
	NATSMaxReconnects   int           `env:"SEEDLINK_NATS_MAX_RECONNECTS" envDefault:"60"`
	NATSReconnectWait   time.Duration `env:"SEEDLINK_NATS_RECONNECT_WAIT" envDefault:"2s"`
	NATSReconnectJitter time.Duration `env:"SEEDLINK_NATS_RECONNECT_JITTER" envDefault:"1s"`

	// Kafka/Redpanda ingest adapter (cmd/seedlink-ingest-kafka)
	KafkaBrokers       []string      `env:"SEEDLINK_KAFKA_BROKERS" envSeparator:"," envDefault:"127.0.0.1:9092"`
	KafkaTopics        []string      `env:"SEEDLINK_KAFKA_TOPICS" envSeparator:"," envDefault:"seedlink-records"`
	KafkaConsumerGroup string        `env:"SEEDLINK_KAFKA_CONSUMER_GROUP" envDefault:"seedlink-go"`
	KafkaFetchMaxWait  time.Duration `env:"SEEDLINK_KAFKA_FETCH_MAX_WAIT" envDefault:"500ms"`

	// Logging
	LogLevel  string `env:"SEEDLINK_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"SEEDLINK_LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from an optional .env file then the environment,
// env vars winning over .env contents, matching ws/config.go's precedence.
func Load(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Debug().Msg("no .env file found, using environment variables only")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks range and enum constraints not expressible as env tags.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("SEEDLINK_LISTEN_ADDR is required")
	}
	if c.RingCapacity < 1 {
		return fmt.Errorf("SEEDLINK_RING_CAPACITY must be > 0, got %d", c.RingCapacity)
	}
	if c.PerIPBurst < 1 || c.GlobalBurst < 1 {
		return fmt.Errorf("rate limit burst sizes must be > 0")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("SEEDLINK_LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("SEEDLINK_LOG_FORMAT must be one of json, console (got %q)", c.LogFormat)
	}
	return nil
}

// LogFields logs the loaded configuration as structured fields, Loki-friendly.
func (c *Config) LogFields(logger zerolog.Logger) {
	logger.Info().
		Str("listen_addr", c.ListenAddr).
		Int("ring_capacity", c.RingCapacity).
		Bool("rate_limit_enabled", c.RateLimitEnabled).
		Float64("per_ip_rate", c.PerIPRate).
		Int("per_ip_burst", c.PerIPBurst).
		Bool("auth_enabled", c.AuthSecret != "").
		Dur("health_interval", c.HealthInterval).
		Bool("metrics_enabled", c.MetricsEnabled).
		Str("log_level", c.LogLevel).
		Msg("configuration loaded")
}

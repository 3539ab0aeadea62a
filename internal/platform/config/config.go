// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full process configuration. Field defaults mirror the
// documented engine constants; only secrets and endpoints need setting.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server   ServerConfig
	Auth     AuthConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Engine   EngineConfig
	Audit    AuditConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"22020096"`
}

type AuthConfig struct {
	JWTSigningKey string `envconfig:"JWT_SIGNING_KEY"`
	JWTIssuer     string `envconfig:"JWT_ISSUER" default:"trustline"`
	JWTAudience   string `envconfig:"JWT_AUDIENCE" default:"trustline-api"`
}

// PostgresConfig is optional; without a DSN the in-memory stores are used.
type PostgresConfig struct {
	DSN             string        `envconfig:"DATABASE_URL"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"45m"`
}

// RedisConfig is optional; without a URL notifications stay in memory.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
	InboxLimit   int64         `envconfig:"NOTIFICATION_INBOX_LIMIT" default:"200"`
}

// KafkaConfig enables the audit stream sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string `envconfig:"KAFKA_BROKERS"`
	AuditTopic string   `envconfig:"KAFKA_AUDIT_TOPIC" default:"trustline.audit"`
	Partitions int32    `envconfig:"KAFKA_AUDIT_PARTITIONS" default:"3"`
}

// StorageConfig selects the document file store; an empty bucket keeps files in memory.
type StorageConfig struct {
	S3Bucket string `envconfig:"S3_BUCKET_NAME"`
	S3Prefix string `envconfig:"S3_KEY_PREFIX" default:"documents"`
}

// EngineConfig holds the business thresholds.
type EngineConfig struct {
	ReviewWindow            time.Duration `envconfig:"REVIEW_WINDOW" default:"360h"`
	AutoVerifyThreshold     int           `envconfig:"AUTO_VERIFY_THRESHOLD" default:"70"`
	VerifiedBadgeThreshold  int           `envconfig:"VERIFIED_BADGE_THRESHOLD" default:"80"`
	ReputationRecencyWindow time.Duration `envconfig:"REPUTATION_RECENCY_WINDOW" default:"4320h"`
}

type AuditConfig struct {
	Retention        time.Duration `envconfig:"AUDIT_RETENTION" default:"17520h"`
	HashKey          string        `envconfig:"AUDIT_HASH_KEY"`
	BreakerThreshold int           `envconfig:"AUDIT_BREAKER_THRESHOLD" default:"5"`
	BreakerCooldown  time.Duration `envconfig:"AUDIT_BREAKER_COOLDOWN" default:"1m"`
	// AsyncBuffer > 0 moves audit writes off the request path; 0 keeps them inline.
	AsyncBuffer int `envconfig:"AUDIT_ASYNC_BUFFER" default:"256"`
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (*Config, error) {
	c := new(Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWTSigningKey == "" {
		if c.Environment != "development" {
			return fmt.Errorf("set JWT_SIGNING_KEY")
		}
		// Use a default for development - should be overridden in production
		c.Auth.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if c.Engine.AutoVerifyThreshold < 0 || c.Engine.AutoVerifyThreshold > 100 {
		return fmt.Errorf("AUTO_VERIFY_THRESHOLD must be within [0,100], got %d", c.Engine.AutoVerifyThreshold)
	}
	if c.Engine.VerifiedBadgeThreshold < 0 || c.Engine.VerifiedBadgeThreshold > 100 {
		return fmt.Errorf("VERIFIED_BADGE_THRESHOLD must be within [0,100], got %d", c.Engine.VerifiedBadgeThreshold)
	}
	if c.Engine.ReviewWindow <= 0 {
		return fmt.Errorf("REVIEW_WINDOW must be positive")
	}
	if c.Audit.AsyncBuffer < 0 {
		return fmt.Errorf("AUDIT_ASYNC_BUFFER must not be negative")
	}
	if c.Audit.Retention <= 0 {
		return fmt.Errorf("AUDIT_RETENTION must be positive")
	}
	return nil
}

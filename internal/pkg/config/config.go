package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerAddr      string        `env:"SERVER_ADDR" envDefault:":8080"`
	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9091"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"json"` // json or text
	LogBufferCap int    `env:"LOG_BUFFER_CAP" envDefault:"1000"`
	RedactFields string `env:"REDACT_FIELDS" envDefault:"password,email,token,credit_card,ssn"`

	MaxClientLogBytes int64 `env:"MAX_CLIENT_LOG_BYTES" envDefault:"1048576"` // 1MB

	PostgresURL string `env:"POSTGRES_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR,required"`

	JWTSecret      string        `env:"JWT_SECRET,required"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"720h"` // 30 days
	SecureCookies  bool          `env:"SECURE_COOKIES" envDefault:"true"`
	LoginRatePerIP float64       `env:"LOGIN_RATE_PER_IP" envDefault:"0.5"`
	LoginBurst     int           `env:"LOGIN_BURST" envDefault:"5"`

	FlagCacheTTL time.Duration `env:"FLAG_CACHE_TTL" envDefault:"30s"`

	// Seed admin created on startup when both values are set and the email is unused.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	MailMode string `env:"MAIL_MODE" envDefault:"log"` // log or smtp
	SMTPAddr string `env:"SMTP_ADDR"`
	SMTPFrom string `env:"SMTP_FROM" envDefault:"no-reply@sunrise.local"`

	// Optional downstream shipping. Logs stay in memory when the brokers list is empty.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"app-logs"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

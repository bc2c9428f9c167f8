package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Gateway    GatewayConfig    `validate:"required"`
	Webhook    Webhook          `validate:"required"`
	Auth       AuthConfig
	Sentry     SentryConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxOpenConns           int           `mapstructure:"max_open_conns"`
	MaxIdleConns           int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int           `mapstructure:"conn_max_lifetime_minutes"`
	SlowQueryThreshold     time.Duration `mapstructure:"slow_query_threshold"`
}

// GatewayConfig configures the external payment gateway client
type GatewayConfig struct {
	BaseURL                 string        `mapstructure:"base_url" validate:"required,url"`
	APIKey                  string        `mapstructure:"api_key" validate:"required"`
	APIKeyHeader            string        `mapstructure:"api_key_header"`
	Timeout                 time.Duration `mapstructure:"timeout"`
	RateLimitPerSecond      float64       `mapstructure:"rate_limit_per_second"`
	BreakerFailureThreshold uint32        `mapstructure:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `mapstructure:"breaker_timeout"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	APIKey string `mapstructure:"api_key"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional; real deployments set the variables directly
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billing")

	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)

	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("postgres.slow_query_threshold", 500*time.Millisecond)

	v.SetDefault("gateway.api_key_header", "access_token")
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("gateway.rate_limit_per_second", 10)
	v.SetDefault("gateway.breaker_failure_threshold", 5)
	v.SetDefault("gateway.breaker_timeout", 30*time.Second)

	v.SetDefault("webhook.auth_header", "asaas-access-token")
	v.SetDefault("webhook.topic", "billing.events")
	v.SetDefault("webhook.pubsub", types.MemoryPubSub)
	v.SetDefault("webhook.sweep.enabled", true)
	v.SetDefault("webhook.sweep.schedule", "@every 5m")
	v.SetDefault("webhook.sweep.batch_size", 100)
	v.SetDefault("webhook.sweep.max_attempts", 10)
	v.SetDefault("webhook.sweep.retry_after", 2*time.Minute)
	v.SetDefault("webhook.sweep.concurrency", 4)

	v.SetDefault("sentry.sample_rate", 1.0)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Gateway: GatewayConfig{
			BaseURL:                 "https://sandbox.asaas.com/api/v3",
			APIKeyHeader:            "access_token",
			Timeout:                 30 * time.Second,
			RateLimitPerSecond:      10,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
		Webhook: Webhook{
			AuthHeader: "asaas-access-token",
			Topic:      "billing.events",
			PubSub:     types.MemoryPubSub,
			Sweep: SweepConfig{
				Enabled:     true,
				Schedule:    "@every 5m",
				BatchSize:   100,
				MaxAttempts: 10,
				RetryAfter:  2 * time.Minute,
				Concurrency: 4,
			},
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

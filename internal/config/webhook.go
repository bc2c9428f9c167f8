package config

import (
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// Webhook configures inbound gateway deliveries and what happens after them
type Webhook struct {
	// AuthToken is the shared secret the gateway sends with each delivery.
	// Empty disables the check.
	AuthToken  string           `mapstructure:"auth_token"`
	AuthHeader string           `mapstructure:"auth_header"`
	Topic      string           `mapstructure:"topic" validate:"required"`
	PubSub     types.PubSubType `mapstructure:"pubsub"`
	Sweep      SweepConfig      `mapstructure:"sweep"`
}

// SweepConfig drives the reprocessing of deliveries left unprocessed
type SweepConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Schedule    string        `mapstructure:"schedule"`
	BatchSize   int           `mapstructure:"batch_size"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryAfter  time.Duration `mapstructure:"retry_after"`
	Concurrency int           `mapstructure:"concurrency"`
}

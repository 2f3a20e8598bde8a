// Package config loads the node settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DisseminationStream   = "stream"
	DisseminationFloodSub = "floodsub"
)

var validate = validator.New()

type Config struct {
	Port          int           `env:"CHAKRA_PORT,default=0" validate:"gte=0,lte=65535"`
	Topic         string        `env:"CHAKRA_TOPIC,default=chakra-chat" validate:"required"`
	Dissemination string        `env:"CHAKRA_DISSEMINATION,default=stream" validate:"oneof=stream floodsub"`
	ProbeInterval time.Duration `env:"CHAKRA_PROBE_INTERVAL,default=15s" validate:"gt=0"`
	ProbeTimeout  time.Duration `env:"CHAKRA_PROBE_TIMEOUT,default=20s" validate:"gt=0"`
	DialTimeout   time.Duration `env:"CHAKRA_DIAL_TIMEOUT,default=30s" validate:"gt=0"`
	SendTimeout   time.Duration `env:"CHAKRA_SEND_TIMEOUT,default=10s" validate:"gt=0"`
	ConnLow       int           `env:"CHAKRA_CONN_LOW,default=50" validate:"gte=0"`
	ConnHigh      int           `env:"CHAKRA_CONN_HIGH,default=200" validate:"gtefield=ConnLow"`
	EnableDHT     bool          `env:"CHAKRA_DHT,default=false"`
	Color         bool          `env:"CHAKRA_COLOR,default=true"`
	LogLevel      string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Load reads an optional .env file, then the environment, and validates the
// result.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings, for instance after flags overrode them.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

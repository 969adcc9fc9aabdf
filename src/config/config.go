package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvConfig is the process configuration, read from a .env file with real
// environment variables taking precedence.
type EnvConfig struct {
	TelegramToken         string `mapstructure:"TELEGRAM_TOKEN" validate:"required"`
	AppURL                string `mapstructure:"APP_URL" validate:"required,url"`
	BackendTimeoutSeconds int    `mapstructure:"BACKEND_TIMEOUT_SECONDS" validate:"gte=1,lte=30"`
}

// LoadEnvConfig reads the .env file at path, if present, plus the process
// environment. Validation happens separately in ValidateWithDefaults.
func LoadEnvConfig(path string) (*EnvConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Keys must be registered for AutomaticEnv to pick them up.
	v.SetDefault("TELEGRAM_TOKEN", "")
	v.SetDefault("APP_URL", "")
	v.SetDefault("BACKEND_TIMEOUT_SECONDS", 0)

	// A missing .env is fine; everything can come from the environment.
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	var cfg EnvConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateWithDefaults fills unset optional fields and checks the result.
func (c *EnvConfig) ValidateWithDefaults() error {
	if c.BackendTimeoutSeconds == 0 {
		c.BackendTimeoutSeconds = 5
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

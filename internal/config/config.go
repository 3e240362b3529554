// Package config loads and validates engine configuration from the
// environment and an optional config file. Plan and tariff documents are
// not configuration; they are validated by their own packages.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	ierr "github.com/gridbill/gridbill/internal/errors"
	"github.com/gridbill/gridbill/internal/types"
)

// Configuration holds deployment, logging, and billing defaults.
type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Billing    BillingConfig    `mapstructure:"billing"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

// BillingConfig carries engine-wide defaults applied when a plan or tariff
// does not set its own value.
type BillingConfig struct {
	// Timezone is the default local timezone for series whose plan does not
	// name one.
	Timezone string `mapstructure:"timezone" validate:"required"`
	// Currency is the default invoice currency used for rounding precision.
	Currency string `mapstructure:"currency" validate:"required,len=3"`
	// RollingSpanDays is the default span for rolling-average demand.
	RollingSpanDays int `mapstructure:"rolling_span_days" validate:"gt=0"`
	// MaxParallelCycles caps the per-cycle worker fan-out; 0 means the
	// number of CPUs.
	MaxParallelCycles int `mapstructure:"max_parallel_cycles" validate:"gte=0"`
}

// NewConfig loads configuration from config.yaml (optional) and the
// GRIDBILL_* environment, then validates it.
func NewConfig() (*Configuration, error) {
	// Local .env files are a development convenience only.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("gridbill")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read config file").
				Mark(ierr.ErrValidation)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to unmarshal configuration").
			Mark(ierr.ErrValidation)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.RunModeLocal))
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("billing.timezone", "Australia/Brisbane")
	v.SetDefault("billing.currency", "aud")
	v.SetDefault("billing.rolling_span_days", types.DefaultRollingSpanDays)
	v.SetDefault("billing.max_parallel_cycles", 0)
}

// Validate checks structural constraints and that the default timezone loads.
func (c *Configuration) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return ierr.WithError(err).
			WithHint("Configuration failed validation").
			Mark(ierr.ErrValidation)
	}
	if err := types.ValidateTimezone(c.Billing.Timezone); err != nil {
		return err
	}
	return nil
}

// GetDefaultConfig returns sane defaults for tests and library embedding.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.RunModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Billing: BillingConfig{
			Timezone:        "Australia/Brisbane",
			Currency:        "aud",
			RollingSpanDays: types.DefaultRollingSpanDays,
		},
	}
}

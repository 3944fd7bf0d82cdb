package applicationwizard

import (
	"fmt"
	"time"
)

type Config struct {
	// EphemeralTTL bounds the reviewed-entity snapshot handed to the final step.
	EphemeralTTL    time.Duration `mapstructure:"ephemeral_ttl"`
	StoreTimeout    time.Duration `mapstructure:"store_timeout"`
	NoticeDismiss   time.Duration `mapstructure:"notice_dismiss"`
	DefaultFormType string        `mapstructure:"default_form_type"`
}

func DefaultConfig() *Config {
	return &Config{
		EphemeralTTL:    12 * time.Hour,
		StoreTimeout:    5 * time.Second,
		NoticeDismiss:   3 * time.Second,
		DefaultFormType: "application_form",
	}
}

func (c *Config) Validate() error {
	if c.EphemeralTTL <= 0 {
		return fmt.Errorf("ephemeral_ttl must be positive")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store_timeout must be positive")
	}
	if c.DefaultFormType == "" {
		return fmt.Errorf("default_form_type is required")
	}
	return nil
}

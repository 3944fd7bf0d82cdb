package authsession

import (
	"fmt"
	"time"
)

type Config struct {
	LandingRoute   string        `mapstructure:"landing_route"`
	DashboardRoute string        `mapstructure:"dashboard_route"`
	LoginRoute     string        `mapstructure:"login_route"`
	ExpiryLeeway   time.Duration `mapstructure:"expiry_leeway"`
	StoreTimeout   time.Duration `mapstructure:"store_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		LandingRoute:   "/",
		DashboardRoute: "/dashboard",
		LoginRoute:     "/login?registered=true",
		ExpiryLeeway:   0,
		StoreTimeout:   5 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.LandingRoute == "" {
		return fmt.Errorf("landing_route is required")
	}
	if c.ExpiryLeeway < 0 {
		return fmt.Errorf("expiry_leeway must not be negative")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store_timeout must be positive")
	}
	return nil
}

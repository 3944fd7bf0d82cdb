package accountdashboard

import "fmt"

type Config struct {
	MaxValueLength int `mapstructure:"max_value_length"`
	MaxNameLength  int `mapstructure:"max_name_length"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxValueLength: 1000,
		MaxNameLength:  200,
	}
}

func (c *Config) Validate() error {
	if c.MaxValueLength <= 0 {
		return fmt.Errorf("max_value_length must be positive")
	}
	if c.MaxNameLength <= 0 {
		return fmt.Errorf("max_name_length must be positive")
	}
	return nil
}

package voiceupdate

import (
	"fmt"
	"time"
)

type Config struct {
	MaxDuration      time.Duration `mapstructure:"max_duration"`
	TranscriptExpiry time.Duration `mapstructure:"transcript_expiry"`
	SuccessExpiry    time.Duration `mapstructure:"success_expiry"`
	UploadTimeout    time.Duration `mapstructure:"upload_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxDuration:      60 * time.Second,
		TranscriptExpiry: 3 * time.Second,
		SuccessExpiry:    3 * time.Second,
		UploadTimeout:    2 * time.Minute,
	}
}

func (c *Config) Validate() error {
	if c.MaxDuration <= 0 {
		return fmt.Errorf("max_duration must be positive")
	}
	if c.TranscriptExpiry <= 0 || c.SuccessExpiry <= 0 {
		return fmt.Errorf("notice expiry must be positive")
	}
	if c.UploadTimeout <= 0 {
		return fmt.Errorf("upload_timeout must be positive")
	}
	return nil
}

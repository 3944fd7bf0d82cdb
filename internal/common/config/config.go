// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Export   ExportConfig   `mapstructure:"export"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Registry RegistryConfig `mapstructure:"registry"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig points at the form-filing assistant API.
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Timeout        int    `mapstructure:"timeout"`        // milliseconds
	UploadTimeout  int    `mapstructure:"upload_timeout"` // milliseconds
	ValidateSchema bool   `mapstructure:"validate_schema"`
}

// StorageConfig selects where durable and ephemeral client state lives.
type StorageConfig struct {
	Driver       string      `mapstructure:"driver"` // file, redis, memory
	Path         string      `mapstructure:"path"`
	KeyPrefix    string      `mapstructure:"key_prefix"`
	EphemeralTTL int         `mapstructure:"ephemeral_ttl"` // milliseconds
	Redis        RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ExportConfig selects where downloaded forms are written.
type ExportConfig struct {
	Driver    string      `mapstructure:"driver"` // dir, minio
	Directory string      `mapstructure:"directory"`
	MinIO     MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

// VoiceConfig configures microphone capture.
type VoiceConfig struct {
	Command          string   `mapstructure:"command"`
	Args             []string `mapstructure:"args"`
	MaxDuration      int      `mapstructure:"max_duration"`      // milliseconds
	TranscriptExpiry int      `mapstructure:"transcript_expiry"` // milliseconds
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TextfilePath string `mapstructure:"textfile_path"`
	ServiceName  string `mapstructure:"service_name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RedisURL is used in log lines; the password is never included.
func (r RedisConfig) RedisURL() string {
	return fmt.Sprintf("redis://%s/%d", r.Address, r.DB)
}

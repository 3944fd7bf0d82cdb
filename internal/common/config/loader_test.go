package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: formassist\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 30000, cfg.Backend.Timeout)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "dir", cfg.Export.Driver)
	assert.Equal(t, 3000, cfg.Voice.TranscriptExpiry)
	assert.Equal(t, "formassist", cfg.Metrics.ServiceName)
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("FA_TEST_BACKEND", "https://forms.example.org/")
	path := writeConfig(t, "backend:\n  base_url: ${FA_TEST_BACKEND}\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://forms.example.org", cfg.Backend.BaseURL)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	path := writeConfig(t, "storage:\n  driver: file\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad url", "backend:\n  base_url: ftp://x\n", "base_url"},
		{"redis without address", "storage:\n  driver: redis\n", "storage.redis.address"},
		{"unknown storage", "storage:\n  driver: s3\n", "unknown storage.driver"},
		{"minio without bucket", "export:\n  driver: minio\n  minio:\n    endpoint: localhost:9000\n", "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, GetDuration(3000))
}

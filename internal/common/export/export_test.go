package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"formassist/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSink_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	sink, err := NewDirSink(dir)
	require.NoError(t, err)

	loc, err := sink.Write(context.Background(), "income_certificate_sess-1.json", []byte(`{"a":"b"}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "income_certificate_sess-1.json"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"b"}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDirSink_Overwrites(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)

	_, err = sink.Write(context.Background(), "f.json", []byte("one"), "")
	require.NoError(t, err)
	loc, err := sink.Write(context.Background(), "f.json", []byte("two"), "")
	require.NoError(t, err)

	data, _ := os.ReadFile(loc)
	assert.Equal(t, "two", string(data))
}

func TestDirSink_RejectsPaths(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../x.json", "a/b.json"} {
		_, err := sink.Write(context.Background(), name, []byte("x"), "")
		assert.Error(t, err, name)
	}
}

func TestDirSink_CancelledContext(t *testing.T) {
	sink, err := NewDirSink(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sink.Write(ctx, "f.json", []byte("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateMinIO(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.MinIOConfig
		errMsg string
	}{
		{name: "missing endpoint", cfg: config.MinIOConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"}, errMsg: "endpoint is required"},
		{name: "missing credentials", cfg: config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"}, errMsg: "credentials are required"},
		{name: "missing bucket", cfg: config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}, errMsg: "bucket is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMinIO(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
	assert.NoError(t, validateMinIO(config.MinIOConfig{Endpoint: "e", AccessKey: "a", SecretKey: "s", Bucket: "b"}))
}

func TestMinioSink_ObjectKey(t *testing.T) {
	assert.Equal(t, "f.json", (&MinioSink{}).objectKey("f.json"))
	assert.Equal(t, "forms/2024/f.json", (&MinioSink{prefix: "forms/2024"}).objectKey("f.json"))
}

func TestNew_Drivers(t *testing.T) {
	sink, err := New(config.ExportConfig{Driver: "dir", Directory: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &DirSink{}, sink)

	_, err = New(config.ExportConfig{Driver: "ftp"})
	assert.Error(t, err)

	_, err = New(config.ExportConfig{Driver: "minio"})
	assert.Error(t, err)
}

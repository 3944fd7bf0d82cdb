// Package export writes downloaded forms to their destination.
package export

import (
	"context"
	"fmt"

	"formassist/internal/common/config"
)

// Sink stores one exported file and returns where it ended up.
type Sink interface {
	Write(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// New builds the sink selected by cfg.Driver.
func New(cfg config.ExportConfig) (Sink, error) {
	switch cfg.Driver {
	case "minio":
		sink, err := NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case "dir", "":
		sink, err := NewDirSink(cfg.Directory)
		if err != nil {
			return nil, err
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("unknown export driver %q", cfg.Driver)
	}
}

package documentupload

import (
	"context"

	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
	"formassist/internal/models"
	"formassist/pkg/registry"
)

// Uploader sends one document batch to the backend.
type Uploader interface {
	UploadDocument(ctx context.Context, sessionID, docType string, files []models.SelectedFile) (*models.UploadResponse, error)
}

// CompletionFunc runs after a batch uploads successfully.
type CompletionFunc func(docType string, resp *models.UploadResponse)

type ServiceDependencies struct {
	Uploader Uploader
	Catalog  *registry.Catalog
	Handler  *errors.ErrorHandler
	Logger   logger.Logger
}

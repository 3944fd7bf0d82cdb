// Package documentupload validates per-document file selections and uploads
// each batch to the session.
package documentupload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
	"formassist/internal/common/metrics"
	"formassist/internal/models"
	"formassist/pkg/registry"
)

type Service struct {
	config   *Config
	uploader Uploader
	catalog  *registry.Catalog
	handler  *errors.ErrorHandler
	logger   logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	if deps.Catalog == nil {
		deps.Catalog = registry.Default()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Handler == nil {
		deps.Handler = errors.NewErrorHandler(deps.Logger, nil)
	}

	return &Service{
		config:   config,
		uploader: deps.Uploader,
		catalog:  deps.Catalog,
		handler:  deps.Handler,
		logger:   deps.Logger,
	}, nil
}

// ReadFiles loads files from disk. The content type is sniffed from the
// bytes, never taken from the extension.
func (s *Service) ReadFiles(paths ...string) ([]models.SelectedFile, error) {
	files := make([]models.SelectedFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.NewInvalidInputError("file", err.Error())
		}
		if info.Size() > s.config.MaxFileBytes {
			return nil, errors.NewInvalidInputError("file", fmt.Sprintf("%s exceeds %d bytes", p, s.config.MaxFileBytes))
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.NewInvalidInputError("file", err.Error())
		}
		files = append(files, models.SelectedFile{
			Name:        filepath.Base(p),
			ContentType: mimetype.Detect(data).String(),
			Data:        data,
		})
	}
	return files, nil
}

// NewBatch opens an empty selection for one document type of a session.
func (s *Service) NewBatch(sessionID, docType string, onComplete CompletionFunc) *Batch {
	return &Batch{
		svc:        s,
		sessionID:  sessionID,
		docType:    docType,
		multi:      s.catalog.IsMultiFile(docType),
		onComplete: onComplete,
	}
}

// Batch is the pending selection for one document type. Files and previews
// stay index-aligned.
type Batch struct {
	svc        *Service
	sessionID  string
	docType    string
	multi      bool
	onComplete CompletionFunc

	mu        sync.Mutex
	files     []models.SelectedFile
	previews  []models.Preview
	uploading bool
	uploaded  bool
}

func (b *Batch) DocumentType() string { return b.docType }

// Title is the display title of the batch's document type.
func (b *Batch) Title() string {
	return b.svc.catalog.DocumentTitle(b.docType)
}

// Add accepts incoming into the batch, or rejects the whole selection and
// leaves the batch unchanged.
func (b *Batch) Add(incoming ...models.SelectedFile) error {
	if len(incoming) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := Validate(b.svc.config, b.docType, b.multi, b.files, incoming); err != nil {
		return b.reject("document.select", err)
	}

	previews := make([]models.Preview, 0, len(incoming))
	for _, f := range incoming {
		p, err := Preview(f)
		if err != nil {
			return b.reject("document.preview", err)
		}
		previews = append(previews, p)
	}

	b.files = append(b.files, incoming...)
	b.previews = append(b.previews, previews...)

	b.svc.logger.Debug("Files added to batch", map[string]interface{}{
		"documentType": b.docType,
		"added":        len(incoming),
		"total":        len(b.files),
	})
	return nil
}

func (b *Batch) reject(operation string, err error) error {
	metrics.DocumentRejections.WithLabelValues(b.docType, string(errors.CodeOf(err))).Inc()
	return b.svc.handler.Handle(operation, err)
}

// Remove drops the file at index together with its preview.
func (b *Batch) Remove(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.files) {
		return errors.NewInvalidInputError("index", fmt.Sprintf("no file at position %d", index))
	}
	b.files = append(b.files[:index:index], b.files[index+1:]...)
	b.previews = append(b.previews[:index:index], b.previews[index+1:]...)
	return nil
}

func (b *Batch) Files() []models.SelectedFile {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.SelectedFile, len(b.files))
	copy(out, b.files)
	return out
}

func (b *Batch) Previews() []models.Preview {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Preview, len(b.previews))
	copy(out, b.previews)
	return out
}

func (b *Batch) Uploading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploading
}

// Uploaded reports whether a batch for this document type has gone through.
func (b *Batch) Uploaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploaded
}

// Upload sends every selected file in one request. On success the batch is
// emptied and the completion callback runs; on failure it is kept.
func (b *Batch) Upload(ctx context.Context) (*models.UploadResponse, error) {
	b.mu.Lock()
	if b.uploading {
		b.mu.Unlock()
		return nil, errors.NewInvalidInputError("batch", "upload already in progress")
	}
	if len(b.files) == 0 {
		b.mu.Unlock()
		return nil, b.svc.handler.Handle("document.upload", errors.NewEmptyBatchError(b.docType))
	}
	files := make([]models.SelectedFile, len(b.files))
	copy(files, b.files)
	b.uploading = true
	b.mu.Unlock()

	b.svc.logger.Info("Uploading document batch", map[string]interface{}{
		"sessionId":    b.sessionID,
		"documentType": b.docType,
		"files":        len(files),
	})

	resp, err := b.svc.uploader.UploadDocument(ctx, b.sessionID, b.docType, files)

	b.mu.Lock()
	b.uploading = false
	if err != nil {
		b.mu.Unlock()
		return nil, b.svc.handler.Handle("document.upload", err)
	}
	b.files = nil
	b.previews = nil
	b.uploaded = true
	b.mu.Unlock()

	metrics.DocumentsUploaded.WithLabelValues(b.docType).Inc()
	b.svc.handler.Success(b.Title() + " uploaded successfully!")
	b.svc.logger.Info("Document batch uploaded", map[string]interface{}{
		"sessionId":    b.sessionID,
		"documentType": b.docType,
		"entities":     len(resp.CurrentEntities),
	})

	if b.onComplete != nil {
		b.onComplete(b.docType, resp)
	}
	return resp, nil
}

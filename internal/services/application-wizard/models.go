package applicationwizard

import (
	"context"

	"formassist/internal/common/errors"
	"formassist/internal/common/export"
	"formassist/internal/common/logger"
	"formassist/internal/common/storage"
	"formassist/internal/models"
	documentupload "formassist/internal/services/document-upload"
	"formassist/pkg/registry"
)

// Stage is one step of the application wizard.
type Stage int

const (
	StageSelect Stage = iota + 1
	StageUpload
	StageReview
	StageFinal
)

func (s Stage) String() string {
	switch s {
	case StageSelect:
		return "select"
	case StageUpload:
		return "upload"
	case StageReview:
		return "review"
	case StageFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Progress summarizes the upload step.
type Progress string

const (
	ProgressNone Progress = "none"
	ProgressSome Progress = "some"
	ProgressAll  Progress = "all"
)

// SessionClient is the part of the backend API the wizard drives.
type SessionClient interface {
	InitSession(ctx context.Context, formType, token string) (*models.InitSessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (models.EntityMap, error)
	Finalize(ctx context.Context, sessionID, token string) (models.FinalForm, error)
}

// TokenSource supplies the current bearer token, empty when signed out.
type TokenSource interface {
	Token() string
}

// State is a snapshot of one wizard run.
type State struct {
	Stage             Stage            `json:"stage"`
	SessionID         string           `json:"session_id"`
	FormType          string           `json:"form_type"`
	RequiredDocuments []string         `json:"required_documents"`
	Completed         []string         `json:"completed"`
	Entities          models.EntityMap `json:"entities,omitempty"`
	Final             models.FinalForm `json:"final,omitempty"`
	Editing           bool             `json:"editing"`
	Edited            models.FinalForm `json:"edited,omitempty"`
}

type ServiceDependencies struct {
	Client  SessionClient
	Tokens  TokenSource
	Store   storage.Store
	Uploads *documentupload.Service
	Sink    export.Sink
	Catalog *registry.Catalog
	Handler *errors.ErrorHandler
	Logger  logger.Logger
}

// SourceLabel is the badge shown next to a filled review field.
func SourceLabel(e models.Entity) string {
	if !e.Filled() {
		return ""
	}
	switch e.Source {
	case models.SourceUserEdit:
		return "Edited"
	case models.SourceVoice:
		return "Voice"
	default:
		return "AI Auto-filled"
	}
}

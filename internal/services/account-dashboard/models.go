package accountdashboard

import (
	"context"

	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
	"formassist/internal/models"
)

// AccountClient is the part of the backend API behind the dashboard.
type AccountClient interface {
	DashboardStats(ctx context.Context, token string) (*models.DashboardStats, error)
	DeleteApplication(ctx context.Context, token string, appID int64) (string, error)
	UpdateProfileField(ctx context.Context, token, key, value string) (*models.ProfileFieldResponse, error)
	ClearProfile(ctx context.Context, token string) (string, error)
	UpdateProfile(ctx context.Context, token, fullName string) (*models.User, error)
	ChangePassword(ctx context.Context, token, oldPassword, newPassword string) (string, error)
}

// TokenSource supplies the signed-in user's bearer token.
type TokenSource interface {
	Token() string
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

type ServiceDependencies struct {
	Client    AccountClient
	Tokens    TokenSource
	Confirmer Confirmer
	Handler   *errors.ErrorHandler
	Logger    logger.Logger
}

// Prompts shown before destructive actions.
const (
	DeleteApplicationPrompt = "Are you sure you want to delete this application?"
	ClearProfilePrompt      = "Are you sure you want to clear ALL your saved profile data? This action cannot be undone."
)

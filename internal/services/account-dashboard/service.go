// Package accountdashboard manages the signed-in user's account: usage
// statistics, past applications and the saved profile used for pre-filling.
package accountdashboard

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
	"formassist/internal/models"
)

type Service struct {
	config  *Config
	client  AccountClient
	tokens  TokenSource
	confirm Confirmer
	handler *errors.ErrorHandler
	logger  logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("account client is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if deps.Confirmer == nil {
		// Without a way to ask, destructive actions are declined.
		deps.Confirmer = ConfirmFunc(func(string) bool { return false })
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Handler == nil {
		deps.Handler = errors.NewErrorHandler(deps.Logger, nil)
	}

	return &Service{
		config:  config,
		client:  deps.Client,
		tokens:  deps.Tokens,
		confirm: deps.Confirmer,
		handler: deps.Handler,
		logger:  deps.Logger.WithFields(map[string]interface{}{"component": "account-dashboard"}),
	}, nil
}

// Stats loads the dashboard summary.
func (s *Service) Stats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.client.DashboardStats(ctx, s.tokens.Token())
	if err != nil {
		return nil, s.handler.Handle("dashboard.stats", err)
	}
	s.logger.Debug("Dashboard stats loaded", map[string]interface{}{
		"savedFields":        stats.SavedFieldsCount,
		"activeApplications": stats.ActiveApplicationsCount,
	})
	return stats, nil
}

// DeleteApplication removes one application after confirmation.
func (s *Service) DeleteApplication(ctx context.Context, appID int64) (string, error) {
	if !s.confirm.Confirm(DeleteApplicationPrompt) {
		return "", s.handler.Handle("dashboard.delete", errors.NewActionCancelledError("delete application"))
	}

	msg, err := s.client.DeleteApplication(ctx, s.tokens.Token(), appID)
	if err != nil {
		return "", s.handler.Fail("dashboard.delete", err, "Failed to delete application")
	}
	s.logger.Info("Application deleted", map[string]interface{}{"applicationId": appID})
	return msg, nil
}

// UpdateField changes one saved profile value.
func (s *Service) UpdateField(ctx context.Context, key, value string) (*models.ProfileFieldResponse, error) {
	if strings.TrimSpace(key) == "" {
		return nil, s.handler.Handle("dashboard.update", errors.NewInvalidInputError("field", "field key is required"))
	}
	if utf8.RuneCountInString(value) > s.config.MaxValueLength {
		return nil, s.handler.Handle("dashboard.update", errors.NewInvalidInputError("value",
			fmt.Sprintf("value exceeds %d characters", s.config.MaxValueLength)))
	}

	resp, err := s.client.UpdateProfileField(ctx, s.tokens.Token(), key, value)
	if err != nil {
		return nil, s.handler.Fail("dashboard.update", err, "Failed to update field")
	}
	s.logger.Info("Profile field updated", map[string]interface{}{"key": key})
	return resp, nil
}

// ClearProfile deletes every saved profile value. It always asks first.
func (s *Service) ClearProfile(ctx context.Context) (string, error) {
	if !s.confirm.Confirm(ClearProfilePrompt) {
		return "", s.handler.Handle("dashboard.clear", errors.NewActionCancelledError("clear profile"))
	}

	msg, err := s.client.ClearProfile(ctx, s.tokens.Token())
	if err != nil {
		return "", s.handler.Fail("dashboard.clear", err, "Failed to clear profile data.")
	}
	s.logger.Info("Profile cleared", map[string]interface{}{"message": msg})
	s.handler.Success("All profile data has been cleared.")
	return msg, nil
}

// UpdateName changes the account's display name.
func (s *Service) UpdateName(ctx context.Context, fullName string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, s.handler.Handle("dashboard.name", errors.NewInvalidInputError("name", "name is required"))
	}
	if utf8.RuneCountInString(fullName) > s.config.MaxNameLength {
		return nil, s.handler.Handle("dashboard.name", errors.NewInvalidInputError("name",
			fmt.Sprintf("name exceeds %d characters", s.config.MaxNameLength)))
	}

	user, err := s.client.UpdateProfile(ctx, s.tokens.Token(), fullName)
	if err != nil {
		return nil, s.handler.Fail("dashboard.name", err, "Failed to update profile name")
	}
	s.handler.Success("Profile name updated.")
	return user, nil
}

// ChangePassword replaces the account password. The server's reason is
// shown when it refuses.
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return s.handler.Fail("dashboard.password",
			errors.NewInvalidInputError("password", "both passwords are required"), "Please fill in both fields")
	}

	msg, err := s.client.ChangePassword(ctx, s.tokens.Token(), oldPassword, newPassword)
	if err != nil {
		return s.handler.Handle("dashboard.password", err)
	}
	if msg == "" {
		msg = "Password updated successfully"
	}
	s.logger.Info("Password changed", nil)
	s.handler.Success(msg)
	return nil
}

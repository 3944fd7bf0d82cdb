package authsession

import (
	"context"

	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
	"formassist/internal/common/storage"
	"formassist/internal/models"
)

// AccountClient is the part of the backend the session talks to.
type AccountClient interface {
	Login(ctx context.Context, email, password string) (*models.TokenResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Me(ctx context.Context, token string) (*models.User, error)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

type ServiceDependencies struct {
	Client    AccountClient
	Store     storage.Store
	Handler   *errors.ErrorHandler
	Navigator Navigator
	Logger    logger.Logger
}

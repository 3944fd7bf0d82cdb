package backend

import (
	"context"
	"net/url"
	"strings"

	"formassist/internal/common/errors"
	"formassist/internal/models"
)

// Login exchanges credentials for an access token at /token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out models.TokenResponse
	err := c.do(ctx, call{
		route:  "/token",
		method: "POST",
		path:   "/token",
		body:   strings.NewReader(form.Encode()),
		ctype:  "application/x-www-form-urlencoded",
		schema: schemaToken,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. The caller logs in separately.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var out models.User
	err = c.do(ctx, call{
		route:  "/register",
		method: "POST",
		path:   "/register",
		body:   body,
		ctype:  "application/json",
		schema: schemaUser,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me resolves the user a token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errors.NewNotAuthenticatedError("users/me")
	}
	var out models.User
	err := c.do(ctx, call{
		route:  "/users/me",
		method: "GET",
		path:   "/users/me",
		token:  token,
		authed: true,
		schema: schemaUser,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes the account's display name.
func (c *Client) UpdateProfile(ctx context.Context, token, fullName string) (*models.User, error) {
	if token == "" {
		return nil, errors.NewNotAuthenticatedError("users/profile")
	}
	body, err := jsonBody(models.UpdateProfileRequest{FullName: fullName})
	if err != nil {
		return nil, err
	}
	var out models.User
	err = c.do(ctx, call{
		route:  "/users/profile",
		method: "PUT",
		path:   "/users/profile",
		body:   body,
		ctype:  "application/json",
		token:  token,
		authed: true,
		schema: schemaUser,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces the account password.
func (c *Client) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) (string, error) {
	if token == "" {
		return "", errors.NewNotAuthenticatedError("users/change-password")
	}
	body, err := jsonBody(models.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword})
	if err != nil {
		return "", err
	}
	var out models.MessageResponse
	err = c.do(ctx, call{
		route:  "/users/change-password",
		method: "POST",
		path:   "/users/change-password",
		body:   body,
		ctype:  "application/json",
		token:  token,
		authed: true,
		schema: schemaMessage,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

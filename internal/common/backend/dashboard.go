package backend

import (
	"context"
	"strconv"

	"formassist/internal/common/errors"
	"formassist/internal/models"
)

// DashboardStats returns the account overview.
func (c *Client) DashboardStats(ctx context.Context, token string) (*models.DashboardStats, error) {
	if token == "" {
		return nil, errors.NewNotAuthenticatedError("dashboard/stats")
	}
	var out models.DashboardStats
	err := c.do(ctx, call{
		route:  "/dashboard/stats",
		method: "GET",
		path:   "/dashboard/stats",
		token:  token,
		authed: true,
		schema: schemaStats,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteApplication removes one application history record.
func (c *Client) DeleteApplication(ctx context.Context, token string, appID int64) (string, error) {
	if token == "" {
		return "", errors.NewNotAuthenticatedError("dashboard/application")
	}
	var out models.MessageResponse
	err := c.do(ctx, call{
		route:  "/dashboard/application/{id}",
		method: "DELETE",
		path:   "/dashboard/application/" + strconv.FormatInt(appID, 10),
		token:  token,
		authed: true,
		schema: schemaMessage,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// UpdateProfileField upserts one stored profile value.
func (c *Client) UpdateProfileField(ctx context.Context, token, key, value string) (*models.ProfileFieldResponse, error) {
	if token == "" {
		return nil, errors.NewNotAuthenticatedError("dashboard/profile")
	}
	if key == "" {
		return nil, errors.NewInvalidInputError("key", "profile field key is required")
	}
	body, err := jsonBody(map[string]string{"value": value})
	if err != nil {
		return nil, err
	}
	var out models.ProfileFieldResponse
	err = c.do(ctx, call{
		route:  "/dashboard/profile/{key}",
		method: "PUT",
		path:   "/dashboard/profile/" + pathEscape(key),
		body:   body,
		ctype:  "application/json",
		token:  token,
		authed: true,
		schema: schemaProfile,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearProfile deletes every stored profile value of the account.
func (c *Client) ClearProfile(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.NewNotAuthenticatedError("dashboard/profile/clear")
	}
	var out models.MessageResponse
	err := c.do(ctx, call{
		route:  "/dashboard/profile/clear",
		method: "DELETE",
		path:   "/dashboard/profile/clear",
		token:  token,
		authed: true,
		schema: schemaMessage,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

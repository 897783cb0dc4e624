package client

import (
	"context"
	"net/http"

	"rwid/internal/models"
)

// Login exchanges credentials, or a user ID for impersonation, for a token.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GoogleLogin exchanges a Google ID token for an API token.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	body := models.GoogleLoginRequest{IDToken: idToken}
	if err := c.do(ctx, http.MethodPost, "/api/auth/google", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the user behind token.
func (c *Client) Me(ctx context.Context, token string) (*models.UserView, error) {
	var resp struct {
		User models.UserView `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout revokes token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

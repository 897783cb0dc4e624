package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("Post", 7), fiber.StatusNotFound},
		{NewValidationError("bad"), fiber.StatusBadRequest},
		{NewForbiddenError("no"), fiber.StatusForbidden},
		{NewConflictError("taken"), fiber.StatusConflict},
		{NewDisabledError("off"), fiber.StatusServiceUnavailable},
		{&AppError{Code: CodeRateLimited, Message: "slow down"}, fiber.StatusTooManyRequests},
		{NewLoginError(LoginFailureInvalidCredentials, nil), fiber.StatusUnauthorized},
		{NewLoginError(LoginFailureInProgress, nil), fiber.StatusConflict},
		{fmt.Errorf("wrapped: %w", NewUnauthorizedError("who")), fiber.StatusUnauthorized},
		{&AppError{Code: "SOMETHING_ELSE"}, fiber.StatusInternalServerError},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestAppError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(cause)
	assert.Equal(t, "Internal server error: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "Post with ID 7 not found", NewNotFoundError("Post", 7).Error())
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", NewNotFoundError("Post", 7))))
	assert.False(t, IsNotFound(NewValidationError("nope")))
}

func TestRespond(t *testing.T) {
	render := func(err error) (int, ErrorResponse) {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return Respond(c, err) })
		resp, rerr := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, rerr)
		defer func() { _ = resp.Body.Close() }()
		var body ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	status, body := render(NewInternalError(errors.New("dsn password=hunter2")))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, ErrorResponse{Error: "Internal server error", Code: CodeInternal}, body, "causes of internal errors stay private")

	status, body = render(NewLoginError(LoginFailureMissingToken, errors.New("empty token")))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "LOGIN_MISSING_TOKEN", body.Code)
	assert.Equal(t, "empty token", body.Details)

	status, body = render(errors.New("boom"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, ErrorResponse{Error: "boom"}, body)
}

func TestParseLoginFailure(t *testing.T) {
	kind, ok := ParseLoginFailure("LOGIN_CANCELLED")
	require.True(t, ok)
	assert.Equal(t, LoginFailureCancelled, kind)

	kind, ok = ParseLoginFailure(" not_configured ")
	require.True(t, ok)
	assert.Equal(t, LoginFailureNotConfigured, kind)

	_, ok = ParseLoginFailure("NOT_FOUND")
	assert.False(t, ok)

	assert.Equal(t, LoginFailureCancelled, ClassifyProviderCode("SIGN_IN_CANCELLED"))
	assert.Equal(t, LoginFailureUnknown, ClassifyProviderCode("developer_error"))
}

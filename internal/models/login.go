package models

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// LoginFailure is the closed set of reasons a sign-in attempt can fail.
type LoginFailure string

const (
	LoginFailureInvalidCredentials LoginFailure = "invalid_credentials"
	LoginFailureCancelled          LoginFailure = "cancelled"
	LoginFailureInProgress         LoginFailure = "in_progress"
	LoginFailureServiceUnavailable LoginFailure = "service_unavailable"
	LoginFailureNotConfigured      LoginFailure = "not_configured"
	LoginFailureMissingToken       LoginFailure = "missing_token"
	LoginFailureUnknown            LoginFailure = "unknown"
)

var loginFailures = []LoginFailure{
	LoginFailureInvalidCredentials,
	LoginFailureCancelled,
	LoginFailureInProgress,
	LoginFailureServiceUnavailable,
	LoginFailureNotConfigured,
	LoginFailureMissingToken,
	LoginFailureUnknown,
}

// Message is the user-facing text for the failure.
func (k LoginFailure) Message() string {
	switch k {
	case LoginFailureInvalidCredentials:
		return "Invalid credentials"
	case LoginFailureCancelled:
		return "Sign-in was cancelled"
	case LoginFailureInProgress:
		return "Sign-in already in progress"
	case LoginFailureServiceUnavailable:
		return "Google sign-in service not available"
	case LoginFailureNotConfigured:
		return "Google Sign-In not configured. Please set GOOGLE_WEB_CLIENT_ID in your environment."
	case LoginFailureMissingToken:
		return "Failed to get ID token from Google"
	default:
		return "Login failed"
	}
}

// Code is the wire code used in error envelopes, e.g. LOGIN_INVALID_CREDENTIALS.
func (k LoginFailure) Code() string {
	return "LOGIN_" + strings.ToUpper(string(k))
}

// Status is the HTTP status the server answers with for this failure.
func (k LoginFailure) Status() int {
	switch k {
	case LoginFailureInvalidCredentials, LoginFailureMissingToken:
		return fiber.StatusUnauthorized
	case LoginFailureNotConfigured, LoginFailureServiceUnavailable:
		return fiber.StatusServiceUnavailable
	case LoginFailureInProgress:
		return fiber.StatusConflict
	case LoginFailureCancelled:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// ParseLoginFailure accepts either the kind ("cancelled") or its wire code ("LOGIN_CANCELLED").
func ParseLoginFailure(s string) (LoginFailure, bool) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "LOGIN_"))
	for _, k := range loginFailures {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// ClassifyProviderCode maps a sign-in SDK status code to a failure kind.
func ClassifyProviderCode(code string) LoginFailure {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "sign_in_cancelled", "cancelled", "canceled":
		return LoginFailureCancelled
	case "in_progress":
		return LoginFailureInProgress
	case "play_services_not_available", "service_unavailable":
		return LoginFailureServiceUnavailable
	default:
		return LoginFailureUnknown
	}
}

// LoginRequest is the body of POST /api/auth/login. Either credentials or
// a user ID (impersonation) must be set.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	UserID   string `json:"userId,omitempty"`
}

// IsImpersonation reports whether the request signs in by user ID.
func (r LoginRequest) IsImpersonation() bool {
	return strings.TrimSpace(r.UserID) != "" && r.Username == "" && r.Password == ""
}

// GoogleLoginRequest is the body of POST /api/auth/google.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken"`
}

// AuthResponse is returned by the login endpoints.
type AuthResponse struct {
	Token     string     `json:"token"`
	User      UserView   `json:"user"`
	Principal *Principal `json:"principal,omitempty"`
}

// LoginResult is what the client auth bridge reports to the presentation layer.
type LoginResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Package identity verifies federated sign-in credentials.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

// ErrNotConfigured is returned when Google sign-in has no client ID.
var ErrNotConfigured = errors.New("google sign-in not configured")

// GoogleClaims is the subset of a verified Google ID token the app uses.
type GoogleClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleVerifier validates a Google ID token for this app's audience.
type GoogleVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*GoogleClaims, error)
	Enabled() bool
}

// ValidateFunc matches idtoken.Validate.
type ValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type googleVerifier struct {
	audience string
	validate ValidateFunc
}

// NewGoogleVerifier returns a verifier for the given OAuth web client ID.
// An empty client ID yields a verifier that reports ErrNotConfigured.
func NewGoogleVerifier(clientID string) GoogleVerifier {
	return NewGoogleVerifierWith(clientID, idtoken.Validate)
}

// NewGoogleVerifierWith lets tests substitute token validation.
func NewGoogleVerifierWith(clientID string, validate ValidateFunc) GoogleVerifier {
	return &googleVerifier{audience: strings.TrimSpace(clientID), validate: validate}
}

func (v *googleVerifier) Enabled() bool {
	return v.audience != ""
}

func (v *googleVerifier) Verify(ctx context.Context, rawIDToken string) (*GoogleClaims, error) {
	if !v.Enabled() {
		return nil, ErrNotConfigured
	}
	payload, err := v.validate(ctx, rawIDToken, v.audience)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}
	if payload.Subject == "" {
		return nil, errors.New("google id token has no subject")
	}

	claims := &GoogleClaims{Subject: payload.Subject}
	claims.Email, _ = payload.Claims["email"].(string)
	claims.Name, _ = payload.Claims["name"].(string)
	claims.Picture, _ = payload.Claims["picture"].(string)
	switch verified := payload.Claims["email_verified"].(type) {
	case bool:
		claims.EmailVerified = verified
	case string:
		claims.EmailVerified = verified == "true"
	}
	return claims, nil
}

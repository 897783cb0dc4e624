package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestGoogleVerifier_NotConfigured(t *testing.T) {
	v := NewGoogleVerifier("  ")
	assert.False(t, v.Enabled())

	_, err := v.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGoogleVerifier_MapsClaims(t *testing.T) {
	var gotAudience string
	v := NewGoogleVerifierWith("client-123", func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		gotAudience = audience
		return &idtoken.Payload{
			Subject: "google-sub",
			Claims: map[string]interface{}{
				"email":          "ada@example.com",
				"email_verified": true,
				"name":           "Ada",
				"picture":        "https://example.com/ada.png",
			},
		}, nil
	})

	claims, err := v.Verify(context.Background(), "raw")
	require.NoError(t, err)
	assert.Equal(t, "client-123", gotAudience)
	assert.Equal(t, "google-sub", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, "Ada", claims.Name)
}

func TestGoogleVerifier_PropagatesValidationErrors(t *testing.T) {
	v := NewGoogleVerifierWith("client-123", func(context.Context, string, string) (*idtoken.Payload, error) {
		return nil, errors.New("audience mismatch")
	})

	_, err := v.Verify(context.Background(), "raw")
	assert.ErrorContains(t, err, "audience mismatch")
}

func TestGoogleVerifier_RequiresSubject(t *testing.T) {
	v := NewGoogleVerifierWith("client-123", func(context.Context, string, string) (*idtoken.Payload, error) {
		return &idtoken.Payload{Claims: map[string]interface{}{}}, nil
	})

	_, err := v.Verify(context.Background(), "raw")
	assert.Error(t, err)
}

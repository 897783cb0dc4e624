// Package middleware provides authentication, logging, metrics and rate limiting middleware.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rwid/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token issuer and audience stamped into every API token.
const (
	TokenIssuer   = "rwid-api"
	TokenAudience = "rwid-client"
)

// Fiber locals populated by JWTAuth.
const (
	LocalUserID    = "userID"
	LocalTokenID   = "tokenJTI"
	LocalTokenExp  = "tokenExp"
	LocalRawBearer = "bearerToken"
)

var (
	errMissingToken = errors.New("authorization required")
	errInvalidToken = errors.New("invalid or expired token")
)

// TokenClaims is the validated subset of an API token.
type TokenClaims struct {
	Subject   string
	ID        string
	ExpiresAt time.Time
}

// IssueToken signs a token for uid that expires after ttl.
func IssueToken(secret, uid string, ttl time.Duration) (string, *TokenClaims, error) {
	if secret == "" {
		return "", nil, fmt.Errorf("JWT secret not configured")
	}
	if uid == "" {
		return "", nil, fmt.Errorf("subject is required")
	}

	now := time.Now()
	claims := &TokenClaims{
		Subject:   uid,
		ID:        generateJTI(now),
		ExpiresAt: now.Add(ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.Subject,
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        claims.ID,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// generateJTI creates a unique JWT ID so individual tokens can be revoked
func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
}

// ParseToken validates signature, expiry, issuer and audience.
func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	var rc jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &rc, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if rc.Subject == "" {
		return nil, errInvalidToken
	}

	claims := &TokenClaims{Subject: rc.Subject, ID: rc.ID}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RevocationChecker reports whether a token ID has been revoked.
type RevocationChecker func(ctx context.Context, jti string) bool

// JWTConfig configures JWTAuth.
type JWTConfig struct {
	Secret    string
	IsRevoked RevocationChecker
	// Optional lets requests without a token through unauthenticated.
	Optional bool
}

// JWTAuth validates the bearer token and stores the subject under LocalUserID.
func JWTAuth(cfg JWTConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := BearerToken(c)
		if raw == "" {
			if cfg.Optional {
				return c.Next()
			}
			return unauthorized(c, errMissingToken)
		}

		claims, err := ParseToken(cfg.Secret, raw)
		if err != nil {
			if cfg.Optional {
				return c.Next()
			}
			return unauthorized(c, err)
		}
		if claims.ID != "" && cfg.IsRevoked != nil && cfg.IsRevoked(c.UserContext(), claims.ID) {
			if cfg.Optional {
				return c.Next()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token has been revoked",
				"code":  "UNAUTHORIZED",
			})
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalTokenID, claims.ID)
		c.Locals(LocalTokenExp, claims.ExpiresAt)
		c.Locals(LocalRawBearer, raw)
		c.SetUserContext(observability.WithRequestFields(c.UserContext(), observability.RequestFields{UserID: claims.Subject}))

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, err error) error {
	msg := "Invalid or expired token"
	if errors.Is(err, errMissingToken) {
		msg = "Authorization required"
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
		"code":  "UNAUTHORIZED",
	})
}

// UserID returns the authenticated subject stored by JWTAuth.
func UserID(c *fiber.Ctx) (string, bool) {
	uid, ok := c.Locals(LocalUserID).(string)
	return uid, ok && uid != ""
}

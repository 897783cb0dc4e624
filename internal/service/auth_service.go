package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"rwid/internal/featureflags"
	"rwid/internal/identity"
	"rwid/internal/models"
	"rwid/internal/observability"
	"rwid/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the identity provider: it resolves sign-in attempts to a
// principal and makes sure every principal has a profile.
type AuthService struct {
	accounts repository.AccountRepository
	profiles repository.ProfileRepository
	google   identity.GoogleVerifier
	flags    *featureflags.Set
}

// AuthResult is a resolved sign-in.
type AuthResult struct {
	Principal models.Principal
	Profile   *models.Profile
	User      models.UserView
	// ProfileCreated is true when this sign-in provisioned the profile.
	ProfileCreated bool
}

func NewAuthService(
	accounts repository.AccountRepository,
	profiles repository.ProfileRepository,
	google identity.GoogleVerifier,
	flags *featureflags.Set,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		profiles: profiles,
		google:   google,
		flags:    flags,
	}
}

// LoginWithPassword checks a username or email against the stored bcrypt hash.
func (s *AuthService) LoginWithPassword(ctx context.Context, login, password string) (*AuthResult, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		recordLogin("password", models.LoginFailureInvalidCredentials)
		return nil, models.NewLoginError(models.LoginFailureInvalidCredentials, nil)
	}

	account, err := s.accounts.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if account == nil || account.PasswordHash == "" {
		recordLogin("password", models.LoginFailureInvalidCredentials)
		return nil, models.NewLoginError(models.LoginFailureInvalidCredentials, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		recordLogin("password", models.LoginFailureInvalidCredentials)
		return nil, models.NewLoginError(models.LoginFailureInvalidCredentials, nil)
	}

	recordLogin("password", "")
	return s.EnsureProfile(ctx, account.Principal()), nil
}

// Impersonate signs in as uid without credentials. It is only available
// while the impersonation flag is on.
func (s *AuthService) Impersonate(ctx context.Context, uid string) (*AuthResult, error) {
	uid = strings.TrimSpace(uid)
	if !s.flags.Enabled(featureflags.Impersonation, uid) {
		recordLogin("impersonation", models.LoginFailureNotConfigured)
		return nil, models.NewForbiddenError("Impersonation is disabled")
	}

	account, err := s.accounts.GetByUID(ctx, uid)
	if err != nil {
		if models.IsNotFound(err) {
			recordLogin("impersonation", models.LoginFailureInvalidCredentials)
			return nil, models.NewLoginError(models.LoginFailureInvalidCredentials, nil)
		}
		return nil, err
	}

	observability.GlobalLogger.WarnContext(ctx, "impersonation login", slog.String("uid", uid))
	recordLogin("impersonation", "")
	return s.EnsureProfile(ctx, account.Principal()), nil
}

// SignInWithGoogle verifies a Google ID token and signs in the matching
// account, creating it on first use.
func (s *AuthService) SignInWithGoogle(ctx context.Context, rawIDToken string) (*AuthResult, error) {
	if s.google == nil || !s.google.Enabled() {
		recordLogin("google", models.LoginFailureNotConfigured)
		return nil, models.NewLoginError(models.LoginFailureNotConfigured, nil)
	}
	if strings.TrimSpace(rawIDToken) == "" {
		recordLogin("google", models.LoginFailureMissingToken)
		return nil, models.NewLoginError(models.LoginFailureMissingToken, nil)
	}

	claims, err := s.google.Verify(ctx, rawIDToken)
	if err != nil {
		if errors.Is(err, identity.ErrNotConfigured) {
			recordLogin("google", models.LoginFailureNotConfigured)
			return nil, models.NewLoginError(models.LoginFailureNotConfigured, err)
		}
		recordLogin("google", models.LoginFailureInvalidCredentials)
		return nil, models.NewLoginError(models.LoginFailureInvalidCredentials, err)
	}

	account, err := s.accounts.GetByProviderSubject(ctx, models.ProviderGoogle, claims.Subject)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account, err = s.createGoogleAccount(ctx, claims)
		if err != nil {
			return nil, err
		}
	}

	recordLogin("google", "")
	return s.EnsureProfile(ctx, account.Principal()), nil
}

func (s *AuthService) createGoogleAccount(ctx context.Context, claims *identity.GoogleClaims) (*models.Account, error) {
	subject := claims.Subject
	account := &models.Account{
		UID:             uuid.NewString(),
		DisplayName:     claims.Name,
		PhotoURL:        claims.Picture,
		Provider:        models.ProviderGoogle,
		ProviderSubject: &subject,
	}
	if claims.Email != "" && claims.EmailVerified {
		email := strings.ToLower(claims.Email)
		account.Email = &email
	}

	err := s.accounts.Create(ctx, account)
	if err != nil && account.Email != nil && isConflict(err) {
		// The email already belongs to a password account. Keep them apart.
		account.Email = nil
		err = s.accounts.Create(ctx, account)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// EnsureProfile reads users/{uid} and creates it on first sight. Any
// failure falls back to a view built from the principal's own claims.
func (s *AuthService) EnsureProfile(ctx context.Context, principal models.Principal) *AuthResult {
	result := &AuthResult{Principal: principal}

	profile, err := s.profiles.GetByUserID(ctx, principal.UID)
	if err != nil && models.IsNotFound(err) {
		fresh := models.NewProfileFor(principal)
		var created bool
		created, err = s.profiles.CreateIfAbsent(ctx, &fresh)
		if err == nil {
			result.ProfileCreated = created
			if created {
				profile = &fresh
			} else {
				profile, err = s.profiles.GetByUserID(ctx, principal.UID)
			}
		}
	}
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "profile resolution failed, using provider claims",
			slog.String("uid", principal.UID),
			slog.String("error", err.Error()),
		)
		result.User = models.NewUserView(principal, nil)
		return result
	}

	result.Profile = profile
	result.User = models.NewUserView(principal, profile)
	return result
}

// Me returns the user view for an authenticated uid.
func (s *AuthService) Me(ctx context.Context, uid string) (*models.UserView, error) {
	account, err := s.accounts.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	user := s.EnsureProfile(ctx, account.Principal()).User
	return &user, nil
}

// GetProfile returns users/{uid}.
func (s *AuthService) GetProfile(ctx context.Context, uid string) (*models.Profile, error) {
	return s.profiles.GetByUserID(ctx, uid)
}

// CreateProfile writes users/{uid} unless it already exists. Only the user
// may create their own profile, and the role is always the base tier.
func (s *AuthService) CreateProfile(ctx context.Context, actorID, uid string, in models.Profile) (*models.Profile, bool, error) {
	if actorID == "" || actorID != uid {
		return nil, false, models.NewForbiddenError("You can only create your own profile")
	}

	profile := models.Profile{
		UserID:      uid,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Email:       strings.TrimSpace(in.Email),
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
		Role:        models.DefaultRole,
	}
	created, err := s.profiles.CreateIfAbsent(ctx, &profile)
	if err != nil {
		return nil, false, err
	}
	if created {
		return &profile, true, nil
	}

	existing, err := s.profiles.GetByUserID(ctx, uid)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func recordLogin(method string, failure models.LoginFailure) {
	outcome := "success"
	if failure != "" {
		outcome = string(failure)
	}
	observability.LoginAttempts.WithLabelValues(method, outcome).Inc()
}

func isConflict(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeConflict
}

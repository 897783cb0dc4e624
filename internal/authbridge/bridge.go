// Package authbridge keeps the app's notion of the signed-in user in step
// with the identity provider. It provisions a profile the first time a
// principal is seen, persists the session, and never leaves the app waiting
// on a provider that does not answer.
package authbridge

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"rwid/internal/models"
	"rwid/internal/observability"
	"rwid/internal/session"
)

// DefaultWatchdogTimeout bounds how long Loading stays true after Start.
const DefaultWatchdogTimeout = 5 * time.Second

// Provider announces the signed-in principal. Subscribe calls fn with the
// current state once it is known and on every change.
type Provider interface {
	Subscribe(fn func(*models.Principal)) (unsubscribe func())
	SignInWithGoogle(ctx context.Context, idToken string) error
	SignOut(ctx context.Context) error
}

// ProfileStore reads and creates users/{uid} documents.
type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (*models.Profile, bool, error)
	CreateProfile(ctx context.Context, uid string, profile models.Profile) error
}

// Facade is the REST login surface.
type Facade interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Me(ctx context.Context, token string) (*models.UserView, error)
	Logout(ctx context.Context, token string) error
}

// GoogleSignIn obtains Google ID tokens on the device.
type GoogleSignIn interface {
	IDToken(ctx context.Context) (string, error)
	SignOut(ctx context.Context) error
}

// ProviderError is a sign-in SDK failure carrying the SDK's status code.
type ProviderError struct {
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error { return e.Err }

// State is what the presentation layer renders from.
type State struct {
	User    *models.UserView
	Loading bool
}

// Options wires a Bridge.
type Options struct {
	Provider        Provider
	Profiles        ProfileStore
	Facade          Facade
	Google          GoogleSignIn
	Sessions        session.Store
	GoogleClientID  string
	WatchdogTimeout time.Duration
	// OnChange is called after every state change, outside the bridge's lock.
	OnChange func(State)
}

// Bridge is the auth state bridge.
type Bridge struct {
	opts Options

	mu          sync.Mutex
	state       State
	closed      bool
	watchdog    *time.Timer
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
}

// New returns a bridge that has not been started.
func New(opts Options) *Bridge {
	if opts.WatchdogTimeout <= 0 {
		opts.WatchdogTimeout = DefaultWatchdogTimeout
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if strings.TrimSpace(opts.GoogleClientID) == "" {
		observability.GlobalLogger.Warn("Google Sign-In disabled: GOOGLE_WEB_CLIENT_ID is not set")
	}
	return &Bridge{opts: opts, ctx: context.Background(), cancel: func() {}}
}

// Start subscribes to the provider and arms the watchdog.
func (b *Bridge) Start(ctx context.Context) {
	b.mu.Lock()
	if b.closed || b.unsubscribe != nil {
		b.mu.Unlock()
		return
	}
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.state.Loading = true
	b.watchdog = time.AfterFunc(b.opts.WatchdogTimeout, b.expireLoading)
	snapshot := b.state
	b.mu.Unlock()
	b.notify(snapshot)

	unsubscribe := b.opts.Provider.Subscribe(b.handlePrincipal)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		unsubscribe()
		return
	}
	b.unsubscribe = unsubscribe
	b.mu.Unlock()
}

// Close stops the watchdog and ignores any later provider events.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	if b.watchdog != nil {
		b.watchdog.Stop()
	}
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.cancel()
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// State returns a snapshot of the current state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyState(b.state)
}

// GoogleEnabled reports whether Google sign-in is configured.
func (b *Bridge) GoogleEnabled() bool {
	return strings.TrimSpace(b.opts.GoogleClientID) != "" && b.opts.Google != nil
}

func (b *Bridge) expireLoading() {
	b.mu.Lock()
	if b.closed || !b.state.Loading {
		b.mu.Unlock()
		return
	}
	b.state.Loading = false
	snapshot := copyState(b.state)
	b.mu.Unlock()

	observability.GlobalLogger.Warn("auth state did not resolve in time, continuing signed out",
		slog.Duration("timeout", b.opts.WatchdogTimeout))
	b.notify(snapshot)
}

func (b *Bridge) handlePrincipal(principal *models.Principal) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	ctx := b.ctx
	b.mu.Unlock()

	if principal == nil {
		b.setUser(nil)
		return
	}
	user := b.resolveUser(ctx, *principal)
	b.setUser(&user)
}

// resolveUser reads the profile behind principal, creating it on first
// sight. Any failure falls back to the principal's own claims.
func (b *Bridge) resolveUser(ctx context.Context, principal models.Principal) models.UserView {
	log := observability.GlobalLogger
	profile, found, err := b.opts.Profiles.GetProfile(ctx, principal.UID)
	if err != nil {
		log.WarnContext(ctx, "profile read failed, using provider claims",
			slog.String("uid", principal.UID), slog.String("error", err.Error()))
		return models.NewUserView(principal, nil)
	}
	if found {
		return models.NewUserView(principal, profile)
	}

	fresh := models.NewProfileFor(principal)
	if err := b.opts.Profiles.CreateProfile(ctx, principal.UID, fresh); err != nil {
		log.WarnContext(ctx, "profile create failed, using provider claims",
			slog.String("uid", principal.UID), slog.String("error", err.Error()))
		return models.NewUserView(principal, nil)
	}
	log.InfoContext(ctx, "profile created", slog.String("uid", principal.UID))
	return models.NewUserView(principal, &fresh)
}

func (b *Bridge) setUser(user *models.UserView) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.state.User = user
	b.state.Loading = false
	if b.watchdog != nil {
		b.watchdog.Stop()
	}
	snapshot := copyState(b.state)
	b.mu.Unlock()
	b.notify(snapshot)
}

func (b *Bridge) notify(s State) {
	if b.opts.OnChange != nil {
		b.opts.OnChange(s)
	}
}

func copyState(s State) State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// LoginWithCredentials signs in with a username and password. The session is
// written only on success.
func (b *Bridge) LoginWithCredentials(ctx context.Context, username, password string) models.LoginResult {
	return b.loginViaFacade(ctx, models.LoginRequest{Username: username, Password: password})
}

// LoginAs signs in as uid without credentials. It only works where the
// server allows impersonation.
func (b *Bridge) LoginAs(ctx context.Context, uid string) models.LoginResult {
	res := b.loginViaFacade(ctx, models.LoginRequest{UserID: uid})
	if !res.OK {
		observability.GlobalLogger.ErrorContext(ctx, "impersonation login failed",
			slog.String("uid", uid), slog.String("error", res.Error))
	}
	return res
}

func (b *Bridge) loginViaFacade(ctx context.Context, req models.LoginRequest) models.LoginResult {
	resp, err := b.opts.Facade.Login(ctx, req)
	if err != nil {
		return failure(err)
	}
	user, err := b.opts.Facade.Me(ctx, resp.Token)
	if err != nil {
		return failure(err)
	}
	if err := b.opts.Sessions.Write(ctx, session.Record{
		UserID: user.ID,
		Role:   user.Role,
		Token:  resp.Token,
	}); err != nil {
		return failure(err)
	}
	b.setUser(user)
	return models.LoginResult{OK: true}
}

// LoginWithGoogle obtains a Google ID token and signs in to the provider.
// The user arrives through the provider subscription.
func (b *Bridge) LoginWithGoogle(ctx context.Context) models.LoginResult {
	if strings.TrimSpace(b.opts.GoogleClientID) == "" {
		return failureOf(models.LoginFailureNotConfigured)
	}
	if b.opts.Google == nil {
		return failureOf(models.LoginFailureServiceUnavailable)
	}

	idToken, err := b.opts.Google.IDToken(ctx)
	if err != nil {
		return failure(err)
	}
	if strings.TrimSpace(idToken) == "" {
		return failureOf(models.LoginFailureMissingToken)
	}
	if err := b.opts.Provider.SignInWithGoogle(ctx, idToken); err != nil {
		return failure(err)
	}
	return models.LoginResult{OK: true}
}

// Logout signs out everywhere. Server-side revocation is best effort.
func (b *Bridge) Logout(ctx context.Context) {
	log := observability.GlobalLogger
	if err := b.opts.Provider.SignOut(ctx); err != nil {
		log.WarnContext(ctx, "provider sign-out failed", slog.String("error", err.Error()))
	}
	if b.opts.Google != nil {
		if err := b.opts.Google.SignOut(ctx); err != nil {
			log.WarnContext(ctx, "google sign-out failed", slog.String("error", err.Error()))
		}
	}

	var token string
	if rec, err := b.opts.Sessions.Read(ctx); err == nil && rec != nil {
		token = rec.Token
	}
	if err := b.opts.Sessions.Clear(ctx); err != nil {
		log.WarnContext(ctx, "session clear failed", slog.String("error", err.Error()))
	}
	if token != "" {
		if err := b.opts.Facade.Logout(ctx, token); err != nil {
			log.DebugContext(ctx, "server logout failed", slog.String("error", err.Error()))
		}
	}
	b.setUser(nil)
}

type loginFailurer interface {
	LoginFailure() (models.LoginFailure, bool)
}

type publicMessager interface {
	PublicMessage() string
}

func failureOf(kind models.LoginFailure) models.LoginResult {
	return models.LoginResult{OK: false, Error: kind.Message()}
}

// failure turns err into the message shown on the login screen.
func failure(err error) models.LoginResult {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return failureOf(models.ClassifyProviderCode(providerErr.Code))
	}
	var lf loginFailurer
	if errors.As(err, &lf) {
		if kind, ok := lf.LoginFailure(); ok {
			return failureOf(kind)
		}
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.LoginResult{OK: false, Error: appErr.Message}
	}
	var pm publicMessager
	if errors.As(err, &pm) && pm.PublicMessage() != "" {
		return models.LoginResult{OK: false, Error: pm.PublicMessage()}
	}
	return failureOf(models.LoginFailureUnknown)
}

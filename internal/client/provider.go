package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"rwid/internal/models"
	"rwid/internal/observability"
	"rwid/internal/session"
)

// Provider is the client-side view of the identity provider. It announces the
// signed-in principal to subscribers whenever it changes.
type Provider struct {
	api *Client

	mu       sync.Mutex
	resolved bool
	current  *models.Principal
	subs     map[int]func(*models.Principal)
	nextID   int
}

// NewProvider returns a provider that has not yet resolved its state.
func NewProvider(api *Client) *Provider {
	return &Provider{api: api, subs: make(map[int]func(*models.Principal))}
}

// Subscribe registers fn for state changes. If the state is already known fn
// is called with it immediately.
func (p *Provider) Subscribe(fn func(*models.Principal)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	resolved, current := p.resolved, clonePrincipal(p.current)
	p.mu.Unlock()

	if resolved {
		fn(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Restore resolves the initial state from the stored session token.
func (p *Provider) Restore(ctx context.Context) error {
	token := p.api.bearer(ctx)
	if token == "" {
		p.emit(nil)
		return nil
	}
	user, err := p.api.Me(ctx, token)
	if err != nil {
		// Only a rejected token ends the session; outages and throttling
		// leave it for the next attempt.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			_ = p.api.sessions.Clear(ctx)
			p.emit(nil)
			return nil
		}
		return fmt.Errorf("restore session: %w", err)
	}
	p.emit(&models.Principal{
		UID:         user.ID,
		DisplayName: user.Name,
		Email:       user.Email,
		PhotoURL:    user.AvatarURL,
	})
	return nil
}

// SignInWithGoogle exchanges a Google ID token, stores the session and
// announces the new principal.
func (p *Provider) SignInWithGoogle(ctx context.Context, idToken string) error {
	resp, err := p.api.GoogleLogin(ctx, idToken)
	if err != nil {
		return err
	}
	if err := p.api.sessions.Write(ctx, session.Record{
		UserID: resp.User.ID,
		Role:   resp.User.Role,
		Token:  resp.Token,
	}); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "session write failed", slog.String("error", err.Error()))
	}

	principal := resp.Principal
	if principal == nil {
		principal = &models.Principal{
			UID:         resp.User.ID,
			DisplayName: resp.User.Name,
			Email:       resp.User.Email,
			PhotoURL:    resp.User.AvatarURL,
		}
	}
	p.emit(principal)
	return nil
}

// SignOut announces the signed-out state.
func (p *Provider) SignOut(_ context.Context) error {
	p.emit(nil)
	return nil
}

// Current returns the last announced principal.
func (p *Provider) Current() *models.Principal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return clonePrincipal(p.current)
}

func (p *Provider) emit(principal *models.Principal) {
	p.mu.Lock()
	p.resolved = true
	p.current = clonePrincipal(principal)
	subs := make([]func(*models.Principal), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(clonePrincipal(principal))
	}
}

func clonePrincipal(p *models.Principal) *models.Principal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

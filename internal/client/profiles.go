package client

import (
	"context"
	"net/http"
	"net/url"

	"rwid/internal/models"
)

// ProfileStore reads and provisions users/{uid} documents through the API.
type ProfileStore struct {
	api *Client
}

// Profiles returns the profile store backed by c.
func (c *Client) Profiles() *ProfileStore {
	return &ProfileStore{api: c}
}

// GetProfile returns the profile for uid. A missing profile is reported as
// found == false with no error.
func (s *ProfileStore) GetProfile(ctx context.Context, uid string) (*models.Profile, bool, error) {
	var profile models.Profile
	err := s.api.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(uid), s.api.bearer(ctx), nil, &profile)
	if IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &profile, true, nil
}

// CreateProfile writes the profile for uid unless one already exists.
func (s *ProfileStore) CreateProfile(ctx context.Context, uid string, profile models.Profile) error {
	return s.api.do(ctx, http.MethodPut, "/api/profiles/"+url.PathEscape(uid), s.api.bearer(ctx), profile, nil)
}

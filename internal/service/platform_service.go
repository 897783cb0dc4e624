package service

import (
	"context"
	"log/slog"

	"rwid/internal/cache"
	"rwid/internal/models"
	"rwid/internal/observability"
	"rwid/internal/repository"
	"rwid/internal/validation"
)

// PlatformService answers the home, platform and community screens.
type PlatformService struct {
	platforms repository.PlatformRepository
	accounts  repository.AccountRepository
}

func NewPlatformService(platforms repository.PlatformRepository, accounts repository.AccountRepository) *PlatformService {
	return &PlatformService{platforms: platforms, accounts: accounts}
}

// FetchVisiblePlatforms returns public platforms, newest first. When the
// ordered query fails it retries once without ordering.
func (s *PlatformService) FetchVisiblePlatforms(ctx context.Context) ([]models.Platform, error) {
	platforms := []models.Platform{}
	err := cache.Aside(ctx, cache.PublicPlatformsKey, &platforms, cache.PlatformListTTL, func() error {
		list, err := s.platforms.ListPublic(ctx, true)
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "ordered platform query failed, retrying unordered",
				slog.String("error", err.Error()),
			)
			list, err = s.platforms.ListPublic(ctx, false)
		}
		if err != nil {
			return err
		}
		platforms = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return platforms, nil
}

// GetPlatformBySlug resolves a platform or returns a NOT_FOUND AppError.
func (s *PlatformService) GetPlatformBySlug(ctx context.Context, slug string) (*models.Platform, error) {
	slug = validation.NormalizeSlug(slug)
	if slug == "" || len(slug) > 64 {
		return nil, models.NewNotFoundError("Platform", slug)
	}
	return s.platforms.GetBySlug(ctx, slug)
}

func (s *PlatformService) ListCommunities(ctx context.Context, slug string) (*models.Platform, []models.Community, error) {
	platform, err := s.GetPlatformBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	communities, err := s.platforms.ListCommunities(ctx, platform.ID)
	if err != nil {
		return nil, nil, err
	}
	return platform, communities, nil
}

// CommunityView is a community together with the viewer's standing in it.
type CommunityView struct {
	Platform  *models.Platform
	Community *models.Community
	Access    models.CommunityAccess
}

// GetCommunity loads a community of the platform and checks the viewer's access.
// An empty viewerID is an anonymous visitor.
func (s *PlatformService) GetCommunity(ctx context.Context, slug string, communityID uint, viewerID string) (*CommunityView, error) {
	platform, err := s.GetPlatformBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	community, err := s.platforms.GetCommunity(ctx, platform.ID, communityID)
	if err != nil {
		return nil, err
	}
	access, err := s.CheckCommunityAccess(ctx, viewerID, platform, community.ID)
	if err != nil {
		return nil, err
	}
	return &CommunityView{Platform: platform, Community: community, Access: access}, nil
}

// CheckCommunityAccess decides whether viewerID may read the full feed of a
// community and whether they may post to it. The owner always has access.
// Anyone else needs a membership that is paid or lists the community.
func (s *PlatformService) CheckCommunityAccess(ctx context.Context, viewerID string, platform *models.Platform, communityID uint) (models.CommunityAccess, error) {
	var access models.CommunityAccess
	if viewerID == "" {
		return access, nil
	}

	if platform.IsOwner(viewerID) {
		access.IsOwner = true
		access.HasAccess = true
		access.CanPost = true
		return access, nil
	}

	member, err := s.platforms.GetMember(ctx, platform.ID, viewerID)
	if err != nil {
		return access, err
	}
	access.HasAccess = member.CanAccess(communityID)

	if s.accounts != nil {
		account, err := s.accounts.GetByUID(ctx, viewerID)
		if err != nil && !models.IsNotFound(err) {
			return access, err
		}
		if account != nil && account.IsAdmin {
			access.HasAccess = true
			access.CanPost = true
		}
	}
	return access, nil
}

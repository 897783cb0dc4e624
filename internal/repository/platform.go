package repository

import (
	"context"
	"errors"
	"log/slog"

	"rwid/internal/cache"
	"rwid/internal/models"
	"rwid/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlatformRepository defines persistence operations for platforms, their
// communities and their members.
type PlatformRepository interface {
	// ListPublic returns public platforms, newest first when ordered is true.
	ListPublic(ctx context.Context, ordered bool) ([]models.Platform, error)
	GetBySlug(ctx context.Context, slug string) (*models.Platform, error)
	GetByID(ctx context.Context, id uint) (*models.Platform, error)
	Create(ctx context.Context, platform *models.Platform) error

	ListCommunities(ctx context.Context, platformID uint) ([]models.Community, error)
	GetCommunity(ctx context.Context, platformID, communityID uint) (*models.Community, error)
	CreateCommunity(ctx context.Context, community *models.Community) error

	// GetMember returns nil, nil when uid has no membership record.
	GetMember(ctx context.Context, platformID uint, uid string) (*models.PlatformMember, error)
	UpsertMember(ctx context.Context, member *models.PlatformMember) error
}

type platformRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewPlatformRepository returns a new PlatformRepository implementation.
func NewPlatformRepository(db *gorm.DB) PlatformRepository {
	return &platformRepository{
		db:      db,
		log:     observability.NewRepoLogger("platforms"),
		metrics: observability.NewDatabaseMetrics("platforms"),
	}
}

func (r *platformRepository) ListPublic(ctx context.Context, ordered bool) ([]models.Platform, error) {
	defer r.metrics.TrackQuery("select")()

	q := r.db.WithContext(ctx).Where("public = ?", true)
	if ordered {
		q = q.Order("created_at DESC")
	}

	platforms := []models.Platform{}
	if err := q.Find(&platforms).Error; err != nil {
		r.log.Failed(ctx, "list_public", err)
		return nil, models.NewInternalError(err)
	}
	return platforms, nil
}

func (r *platformRepository) GetBySlug(ctx context.Context, slug string) (*models.Platform, error) {
	var platform models.Platform
	err := cache.Aside(ctx, cache.PlatformSlugKey(slug), &platform, cache.PlatformTTL, func() error {
		defer r.metrics.TrackQuery("select")()
		if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&platform).Error; err != nil {
			return lookupError(err, "Platform", slug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &platform, nil
}

func (r *platformRepository) GetByID(ctx context.Context, id uint) (*models.Platform, error) {
	defer r.metrics.TrackQuery("select")()

	var platform models.Platform
	if err := r.db.WithContext(ctx).First(&platform, id).Error; err != nil {
		return nil, lookupError(err, "Platform", id)
	}
	return &platform, nil
}

func (r *platformRepository) Create(ctx context.Context, platform *models.Platform) error {
	defer r.metrics.TrackQuery("insert")()

	if err := r.db.WithContext(ctx).Create(platform).Error; err != nil {
		if isDuplicate(err) {
			return models.NewConflictError("Platform slug already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePlatform(ctx, platform.ID, platform.Slug)
	r.log.Changed(ctx, "create", slog.Uint64("platform_id", uint64(platform.ID)), slog.String("slug", platform.Slug))
	return nil
}

func (r *platformRepository) ListCommunities(ctx context.Context, platformID uint) ([]models.Community, error) {
	communities := []models.Community{}
	err := cache.Aside(ctx, cache.PlatformCommunitiesKey(platformID), &communities, cache.CommunityTTL, func() error {
		defer r.metrics.TrackQuery("select")()
		if err := r.db.WithContext(ctx).
			Where("platform_id = ?", platformID).
			Order("created_at ASC, id ASC").
			Find(&communities).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return communities, nil
}

func (r *platformRepository) GetCommunity(ctx context.Context, platformID, communityID uint) (*models.Community, error) {
	defer r.metrics.TrackQuery("select")()

	var community models.Community
	err := r.db.WithContext(ctx).
		Where("id = ? AND platform_id = ?", communityID, platformID).
		First(&community).Error
	if err != nil {
		return nil, lookupError(err, "Community", communityID)
	}
	return &community, nil
}

func (r *platformRepository) CreateCommunity(ctx context.Context, community *models.Community) error {
	defer r.metrics.TrackQuery("insert")()

	if err := r.db.WithContext(ctx).Create(community).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.PlatformCommunitiesKey(community.PlatformID))
	return nil
}

func (r *platformRepository) GetMember(ctx context.Context, platformID uint, uid string) (*models.PlatformMember, error) {
	defer r.metrics.TrackQuery("select")()

	var member models.PlatformMember
	err := r.db.WithContext(ctx).
		Where("platform_id = ? AND user_id = ?", platformID, uid).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}

	if err := r.db.WithContext(ctx).
		Model(&models.MemberCommunity{}).
		Where("platform_id = ? AND user_id = ?", platformID, uid).
		Order("community_id ASC").
		Pluck("community_id", &member.CommunityIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &member, nil
}

func (r *platformRepository) UpsertMember(ctx context.Context, member *models.PlatformMember) error {
	defer r.metrics.TrackQuery("upsert")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"has_paid", "updated_at"}),
		}).Create(member).Error; err != nil {
			return err
		}

		if err := tx.Where("platform_id = ? AND user_id = ?", member.PlatformID, member.UserID).
			Delete(&models.MemberCommunity{}).Error; err != nil {
			return err
		}
		for _, communityID := range member.CommunityIDs {
			row := models.MemberCommunity{
				PlatformID:  member.PlatformID,
				UserID:      member.UserID,
				CommunityID: communityID,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.Failed(ctx, "upsert_member", err)
		return models.NewInternalError(err)
	}
	return nil
}

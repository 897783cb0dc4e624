package repository

import (
	"context"
	"log/slog"

	"rwid/internal/cache"
	"rwid/internal/models"
	"rwid/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository persists users/{uid} profile documents.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, uid string) (*models.Profile, error)
	// CreateIfAbsent inserts the profile unless one already exists for the
	// same user. created reports whether this call wrote the row.
	CreateIfAbsent(ctx context.Context, profile *models.Profile) (created bool, err error)
	Update(ctx context.Context, profile *models.Profile) error
}

type profileRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{
		db:      db,
		log:     observability.NewRepoLogger("profiles"),
		metrics: observability.NewDatabaseMetrics("profiles"),
	}
}

func (r *profileRepository) GetByUserID(ctx context.Context, uid string) (*models.Profile, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(uid), &profile, cache.ProfileTTL, func() error {
		defer r.metrics.TrackQuery("select")()
		if err := r.db.WithContext(ctx).Where("user_id = ?", uid).First(&profile).Error; err != nil {
			return lookupError(err, "Profile", uid)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) CreateIfAbsent(ctx context.Context, profile *models.Profile) (bool, error) {
	defer r.metrics.TrackQuery("insert")()

	if profile.Role == "" {
		profile.Role = models.DefaultRole
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(profile)
	if result.Error != nil {
		r.log.Failed(ctx, "create_if_absent", result.Error)
		return false, models.NewInternalError(result.Error)
	}

	created := result.RowsAffected == 1
	if created {
		cache.InvalidateProfile(ctx, profile.UserID)
		r.log.Changed(ctx, "create", slog.String("uid", profile.UserID), slog.String("role", string(profile.Role)))
	}
	return created, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	defer r.metrics.TrackQuery("update")()

	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, profile.UserID)
	return nil
}

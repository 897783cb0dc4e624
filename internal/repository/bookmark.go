package repository

import (
	"context"

	"rwid/internal/models"
	"rwid/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookmarkRepository persists the users/{uid}/bookmarks collection.
type BookmarkRepository interface {
	// Toggle removes the bookmark if present, otherwise adds it, and reports
	// the resulting state.
	Toggle(ctx context.Context, uid string, platformID, postID uint) (bool, error)
	BookmarkedPostIDs(ctx context.Context, uid string, postIDs []uint) ([]uint, error)
	ListByUser(ctx context.Context, uid string, limit int) ([]models.Bookmark, error)
}

type bookmarkRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewBookmarkRepository returns a new BookmarkRepository implementation.
func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{
		db:      db,
		log:     observability.NewRepoLogger("bookmarks"),
		metrics: observability.NewDatabaseMetrics("bookmarks"),
	}
}

func (r *bookmarkRepository) Toggle(ctx context.Context, uid string, platformID, postID uint) (bool, error) {
	defer r.metrics.TrackQuery("toggle")()

	key := models.BookmarkKey(platformID, postID)
	var bookmarked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed := tx.Where("user_id = ? AND bookmark_key = ?", uid, key).Delete(&models.Bookmark{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected > 0 {
			bookmarked = false
			return nil
		}

		// A concurrent toggle may have inserted the same key since the delete;
		// the bookmark exists either way.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Bookmark{
			UserID:     uid,
			Key:        key,
			PlatformID: platformID,
			PostID:     postID,
		}).Error; err != nil {
			return err
		}
		bookmarked = true
		return nil
	})
	if err != nil {
		r.log.Failed(ctx, "toggle", err)
		return false, models.NewInternalError(err)
	}
	return bookmarked, nil
}

func (r *bookmarkRepository) BookmarkedPostIDs(ctx context.Context, uid string, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 || uid == "" {
		return nil, nil
	}
	defer r.metrics.TrackQuery("select")()

	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Bookmark{}).
		Where("user_id = ? AND post_id IN ?", uid, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *bookmarkRepository) ListByUser(ctx context.Context, uid string, limit int) ([]models.Bookmark, error) {
	defer r.metrics.TrackQuery("select")()

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	bookmarks := []models.Bookmark{}
	if err := r.db.WithContext(ctx).
		Preload("Post").
		Where("user_id = ?", uid).
		Order("created_at DESC").
		Limit(limit).
		Find(&bookmarks).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookmarks, nil
}

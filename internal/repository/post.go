package repository

import (
	"context"
	"log/slog"

	"rwid/internal/models"
	"rwid/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post and reaction data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// ListByCommunity returns the newest posts of a community, optionally
	// restricted to pinned ones.
	ListByCommunity(ctx context.Context, communityID uint, onlyPinned bool, limit int) ([]*models.Post, error)
	// ToggleLike flips the viewer's reaction and adjusts the counter in one
	// transaction.
	ToggleLike(ctx context.Context, postID uint, uid string) (*models.LikeResult, error)
	LikedPostIDs(ctx context.Context, uid string, postIDs []uint) ([]uint, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		db:      db,
		log:     observability.NewRepoLogger("posts"),
		metrics: observability.NewDatabaseMetrics("posts"),
	}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer r.metrics.TrackQuery("insert")()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.Failed(ctx, "create", err)
		return models.NewInternalError(err)
	}
	r.log.Changed(ctx, "create", slog.Uint64("post_id", uint64(post.ID)), slog.Uint64("community_id", uint64(post.CommunityID)))
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer r.metrics.TrackQuery("select")()

	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, lookupError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) ListByCommunity(ctx context.Context, communityID uint, onlyPinned bool, limit int) ([]*models.Post, error) {
	defer r.metrics.TrackQuery("select")()

	if limit <= 0 || limit > models.FeedPageSize {
		limit = models.FeedPageSize
	}

	q := r.db.WithContext(ctx).Where("community_id = ?", communityID)
	if onlyPinned {
		q = q.Where("pinned = ?", true)
	}

	posts := []*models.Post{}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&posts).Error; err != nil {
		r.log.Failed(ctx, "list_by_community", err)
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ToggleLike(ctx context.Context, postID uint, uid string) (*models.LikeResult, error) {
	defer r.metrics.TrackQuery("toggle_like")()

	result := &models.LikeResult{PostID: postID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
			return models.NewInternalError(err)
		}
		if exists == 0 {
			return models.NewNotFoundError("Post", postID)
		}

		removed := tx.Where("post_id = ? AND user_id = ?", postID, uid).Delete(&models.Reaction{})
		if removed.Error != nil {
			return models.NewInternalError(removed.Error)
		}

		if removed.RowsAffected > 0 {
			if err := tx.Model(&models.Post{}).
				Where("id = ? AND likes > 0", postID).
				UpdateColumn("likes", gorm.Expr("likes - 1")).Error; err != nil {
				return models.NewInternalError(err)
			}
			result.Liked = false
		} else {
			inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Reaction{
				PostID: postID,
				UserID: uid,
				Type:   models.ReactionLike,
			})
			if inserted.Error != nil {
				return models.NewInternalError(inserted.Error)
			}
			if inserted.RowsAffected == 1 {
				if err := tx.Model(&models.Post{}).
					Where("id = ?", postID).
					UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
					return models.NewInternalError(err)
				}
			}
			result.Liked = true
		}

		var likes []int
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Pluck("likes", &likes).Error; err != nil {
			return models.NewInternalError(err)
		}
		if len(likes) > 0 {
			result.Likes = likes[0]
		}
		return nil
	})
	if err != nil {
		r.log.Failed(ctx, "toggle_like", err)
		return nil, err
	}

	r.log.Changed(ctx, "toggle_like", slog.Uint64("post_id", uint64(postID)), slog.Bool("liked", result.Liked), slog.Int("likes", result.Likes))
	return result, nil
}

func (r *postRepository) LikedPostIDs(ctx context.Context, uid string, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 || uid == "" {
		return nil, nil
	}
	defer r.metrics.TrackQuery("select")()

	var liked []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("user_id = ? AND post_id IN ?", uid, postIDs).
		Pluck("post_id", &liked).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return liked, nil
}

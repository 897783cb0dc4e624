package service

import (
	"context"
	"time"

	"rwid/internal/repository"

	"github.com/graph-gophers/dataloader/v7"
)

type feedLoadersKey struct{}

// FeedLoaders batches the per-post viewer lookups of one request. A feed of N
// posts costs one reactions query and one bookmarks query instead of 2N.
type FeedLoaders struct {
	Liked      *dataloader.Loader[uint, bool]
	Bookmarked *dataloader.Loader[uint, bool]
}

// NewFeedLoaders builds loaders scoped to a single viewer. They cache for the
// lifetime of the value, so create one per request.
func NewFeedLoaders(posts repository.PostRepository, bookmarks repository.BookmarkRepository, viewerID string) *FeedLoaders {
	return &FeedLoaders{
		Liked: dataloader.NewBatchedLoader(
			membershipBatch(func(ctx context.Context, ids []uint) ([]uint, error) {
				return posts.LikedPostIDs(ctx, viewerID, ids)
			}),
			dataloader.WithWait[uint, bool](time.Millisecond),
		),
		Bookmarked: dataloader.NewBatchedLoader(
			membershipBatch(func(ctx context.Context, ids []uint) ([]uint, error) {
				return bookmarks.BookmarkedPostIDs(ctx, viewerID, ids)
			}),
			dataloader.WithWait[uint, bool](time.Millisecond),
		),
	}
}

// WithFeedLoaders attaches request-scoped loaders to ctx.
func WithFeedLoaders(ctx context.Context, l *FeedLoaders) context.Context {
	return context.WithValue(ctx, feedLoadersKey{}, l)
}

// FeedLoadersFrom returns the loaders attached to ctx, or nil.
func FeedLoadersFrom(ctx context.Context) *FeedLoaders {
	l, _ := ctx.Value(feedLoadersKey{}).(*FeedLoaders)
	return l
}

// membershipBatch turns "which of these IDs are in the set" into one bool per key.
func membershipBatch(lookup func(context.Context, []uint) ([]uint, error)) dataloader.BatchFunc[uint, bool] {
	return func(ctx context.Context, keys []uint) []*dataloader.Result[bool] {
		results := make([]*dataloader.Result[bool], len(keys))

		found, err := lookup(ctx, keys)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[bool]{Error: err}
			}
			return results
		}

		set := make(map[uint]struct{}, len(found))
		for _, id := range found {
			set[id] = struct{}{}
		}
		for i, key := range keys {
			_, ok := set[key]
			results[i] = &dataloader.Result[bool]{Data: ok}
		}
		return results
	}
}

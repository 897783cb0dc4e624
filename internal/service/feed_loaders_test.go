package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"rwid/internal/models"
	"rwid/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingPostRepo records LikedPostIDs batches.
type countingPostRepo struct {
	repository.PostRepository
	mu      sync.Mutex
	batches [][]uint
	liked   []uint
	err     error
}

func (r *countingPostRepo) LikedPostIDs(_ context.Context, _ string, ids []uint) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]uint(nil), ids...))
	return r.liked, r.err
}

type emptyBookmarkRepo struct {
	repository.BookmarkRepository
}

func (emptyBookmarkRepo) BookmarkedPostIDs(context.Context, string, []uint) ([]uint, error) {
	return nil, nil
}

func (emptyBookmarkRepo) ListByUser(context.Context, string, int) ([]models.Bookmark, error) {
	return nil, nil
}

func TestFeedLoaders_BatchesLookups(t *testing.T) {
	posts := &countingPostRepo{liked: []uint{2, 4}}
	loaders := NewFeedLoaders(posts, emptyBookmarkRepo{}, "u-1")

	got, errs := loaders.Liked.LoadMany(bg, []uint{1, 2, 3, 4})()
	require.NoError(t, firstError(errs))
	assert.Equal(t, []bool{false, true, false, true}, got)

	posts.mu.Lock()
	defer posts.mu.Unlock()
	require.Len(t, posts.batches, 1)
	assert.ElementsMatch(t, []uint{1, 2, 3, 4}, posts.batches[0])
}

func TestFeedLoaders_PropagatesBatchError(t *testing.T) {
	posts := &countingPostRepo{err: errors.New("db down")}
	loaders := NewFeedLoaders(posts, emptyBookmarkRepo{}, "u-1")

	_, err := loaders.Liked.Load(bg, 7)()
	assert.ErrorContains(t, err, "db down")
}

func TestFeedLoadersFrom(t *testing.T) {
	assert.Nil(t, FeedLoadersFrom(bg))

	loaders := NewFeedLoaders(&countingPostRepo{}, emptyBookmarkRepo{}, "u-1")
	assert.Same(t, loaders, FeedLoadersFrom(WithFeedLoaders(bg, loaders)))
}

package models

import (
	"fmt"
	"time"
)

// FeedPageSize is the number of posts a feed load returns.
const FeedPageSize = 50

// Post is a feed item authored within a community. Author fields are a
// snapshot taken when the post was written.
type Post struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	PlatformID    uint   `gorm:"not null;index" json:"platformId"`
	CommunityID   uint   `gorm:"not null;index:idx_posts_community_created,priority:1" json:"communityId"`
	CommunityName string `gorm:"size:120" json:"communityName"`
	AuthorID      string `gorm:"size:36;not null;index" json:"authorId"`
	AuthorName    string `gorm:"size:120" json:"authorName"`
	AuthorAvatar  string `json:"authorAvatar,omitempty"`
	Title         string `gorm:"size:300" json:"title,omitempty"`
	Content       string `gorm:"type:text;not null" json:"content"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Likes         int    `gorm:"not null;default:0" json:"likes"`
	Comments      int    `gorm:"not null;default:0" json:"comments"`
	Pinned        bool   `gorm:"not null;default:false;index" json:"pinned"`
	// IsLiked is computed for the requesting viewer
	IsLiked bool `gorm:"-" json:"isLiked"`
	// IsBookmarked is computed for the requesting viewer
	IsBookmarked bool      `gorm:"-" json:"isBookmarked"`
	CreatedAt    time.Time `gorm:"index:idx_posts_community_created,priority:2" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ReactionLike is the only reaction type.
const ReactionLike = "like"

// Reaction is platforms/{id}/posts/{id}/reactions/{uid}. Its presence is the
// liked state.
type Reaction struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"postId"`
	UserID    string    `gorm:"primaryKey;size:36;index" json:"uid"`
	Type      string    `gorm:"size:20;not null;default:'like'" json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Bookmark is users/{uid}/bookmarks/{platformId_postId}.
type Bookmark struct {
	UserID     string    `gorm:"primaryKey;size:36" json:"uid"`
	Key        string    `gorm:"column:bookmark_key;primaryKey;size:64" json:"id"`
	PlatformID uint      `gorm:"not null" json:"platformId"`
	PostID     uint      `gorm:"not null;index" json:"postId"`
	Post       *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// BookmarkKey builds the bookmark document ID for a post.
func BookmarkKey(platformID, postID uint) string {
	return fmt.Sprintf("%d_%d", platformID, postID)
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	PostID uint `json:"postId"`
	Liked  bool `json:"liked"`
	Likes  int  `json:"likes"`
}

// BookmarkResult is the outcome of a bookmark toggle.
type BookmarkResult struct {
	PostID     uint `json:"postId"`
	Bookmarked bool `json:"bookmarked"`
}

// EmptyState is the text shown when a feed has no posts.
type EmptyState struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// FeedEmptyState returns the empty-state text for a feed.
func FeedEmptyState(onlyPinned bool) EmptyState {
	if onlyPinned {
		return EmptyState{Title: "No pinned posts", Message: "Subscribe to see all posts"}
	}
	return EmptyState{Title: "No posts yet", Message: "Be the first to start the conversation!"}
}

// Feed is the result of loading a community feed.
type Feed struct {
	Posts      []*Post     `json:"posts"`
	OnlyPinned bool        `json:"onlyPinned"`
	Empty      *EmptyState `json:"empty,omitempty"`
}

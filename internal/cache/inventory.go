package cache

import (
	"context"
	"fmt"
	"time"
)

// Key layouts for cached read models.
const (
	PublicPlatformsKey   = "platforms:public"
	PlatformSlugPrefix   = "platform:slug:%s"
	PlatformCommunitiesP = "platform:%d:communities"
	ProfileKeyPrefix     = "profile:%s"
)

// TTLs for cached read models.
const (
	PlatformListTTL = 2 * time.Minute
	PlatformTTL     = 10 * time.Minute
	CommunityTTL    = 5 * time.Minute
	ProfileTTL      = 5 * time.Minute
)

// PlatformSlugKey caches a platform looked up by slug.
func PlatformSlugKey(slug string) string {
	return fmt.Sprintf(PlatformSlugPrefix, slug)
}

// PlatformCommunitiesKey caches the community list of one platform.
func PlatformCommunitiesKey(platformID uint) string {
	return fmt.Sprintf(PlatformCommunitiesP, platformID)
}

// ProfileKey caches a user's profile document.
func ProfileKey(uid string) string {
	return fmt.Sprintf(ProfileKeyPrefix, uid)
}

// Invalidate drops a cached key. It is a no-op without Redis.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidatePlatform drops every cached view of a platform.
func InvalidatePlatform(ctx context.Context, platformID uint, slug string) {
	Invalidate(ctx, PublicPlatformsKey)
	Invalidate(ctx, PlatformCommunitiesKey(platformID))
	if slug != "" {
		Invalidate(ctx, PlatformSlugKey(slug))
	}
}

// InvalidateProfile drops the cached profile for uid.
func InvalidateProfile(ctx context.Context, uid string) {
	Invalidate(ctx, ProfileKey(uid))
}

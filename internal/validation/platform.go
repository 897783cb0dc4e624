package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// A slug is 3-64 characters of lowercase letters, digits and single inner
// hyphens.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

const (
	minSlugLen = 3
	maxSlugLen = 64
)

// ErrSlugFormat reports a slug that does not match slugPattern or its
// length bounds.
var ErrSlugFormat = errors.New("slug must be 3-64 lowercase letters, digits and single hyphens")

// Top-level path segments a platform slug may not shadow.
var reservedSlugs = []string{
	"admin", "api", "auth", "bookmarks", "health", "login",
	"metrics", "platforms", "posts", "profiles", "swagger", "users",
}

// ValidatePlatformSlug checks a normalized slug.
func ValidatePlatformSlug(slug string) error {
	if len(slug) < minSlugLen || len(slug) > maxSlugLen || !slugPattern.MatchString(slug) {
		return ErrSlugFormat
	}
	for _, r := range reservedSlugs {
		if slug == r {
			return fmt.Errorf("slug %q is reserved", slug)
		}
	}
	return nil
}

// NormalizeSlug lowercases and trims a slug taken from a URL or catalog.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

package validation

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	maxPostContentLen = 10000
	maxPostTitleLen   = 300
)

// ErrEmptyContent is returned for posts without any non-blank content.
var ErrEmptyContent = errors.New("Please enter some content")

// ValidatePostContent checks the composer input and returns the trimmed content.
func ValidatePostContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(trimmed) > maxPostContentLen {
		return "", errors.New("content too long (max 10000 characters)")
	}
	return trimmed, nil
}

// ValidatePostTitle accepts an empty title.
func ValidatePostTitle(title string) error {
	if utf8.RuneCountInString(title) > maxPostTitleLen {
		return errors.New("title too long (max 300 characters)")
	}
	return nil
}

// ValidateImageURL accepts an empty value or an absolute http(s) URL.
func ValidateImageURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("imageUrl must be an absolute http(s) URL")
	}
	return nil
}

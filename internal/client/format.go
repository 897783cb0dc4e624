package client

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// ExcerptLength is the number of characters a post card shows before "...".
const ExcerptLength = 200

// FormatRelative renders t relative to now: "just now", "5 minutes ago", up
// to a week, then the calendar date.
func FormatRelative(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff/time.Minute), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff/time.Hour), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff/(24*time.Hour)), "day")
	}
	return t.Format("January 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Excerpt shortens content longer than ExcerptLength characters. The second
// result reports whether it was truncated.
func Excerpt(content string) (string, bool) {
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content, false
	}
	runes := []rune(content)
	return string(runes[:ExcerptLength]) + "...", true
}

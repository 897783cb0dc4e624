package client

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRelative(t *testing.T) {
	now := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"seconds", now.Add(-30 * time.Second), "just now"},
		{"one minute", now.Add(-time.Minute), "1 minute ago"},
		{"minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"hours", now.Add(-3 * time.Hour), "3 hours ago"},
		{"days", now.Add(-2 * 24 * time.Hour), "2 days ago"},
		{"older", now.Add(-10 * 24 * time.Hour), "March 10, 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRelative(tt.t, now))
		})
	}
}

func TestExcerpt(t *testing.T) {
	short, truncated := Excerpt("hello")
	assert.Equal(t, "hello", short)
	assert.False(t, truncated)

	exact := strings.Repeat("a", ExcerptLength)
	out, truncated := Excerpt(exact)
	assert.Equal(t, exact, out)
	assert.False(t, truncated)

	long := strings.Repeat("é", ExcerptLength+1)
	out, truncated = Excerpt(long)
	assert.True(t, truncated)
	assert.Equal(t, strings.Repeat("é", ExcerptLength)+"...", out)
}

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePlatformSlug(t *testing.T) {
	t.Parallel()

	for _, slug := range []string{"rwid", "creator-studio", "lab-2", "abc", "a1-b2-c3"} {
		assert.NoError(t, ValidatePlatformSlug(slug), slug)
	}

	for _, slug := range []string{"ab", "Studio", "growth_lab", "growth lab", "-lab", "lab-", "lab--two", ""} {
		assert.ErrorIs(t, ValidatePlatformSlug(slug), ErrSlugFormat, slug)
	}
	assert.ErrorIs(t, ValidatePlatformSlug(string(make([]byte, 65))), ErrSlugFormat)

	assert.EqualError(t, ValidatePlatformSlug("swagger"), `slug "swagger" is reserved`)
	assert.EqualError(t, ValidatePlatformSlug("platforms"), `slug "platforms" is reserved`)
}

func TestNormalizeSlug(t *testing.T) {
	assert.Equal(t, "growthlab", NormalizeSlug("  GrowthLab "))
	assert.Equal(t, "", NormalizeSlug("   "))
}

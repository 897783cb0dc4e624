package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePostContent(t *testing.T) {
	t.Parallel()

	_, err := ValidatePostContent("   \n\t ")
	require.ErrorIs(t, err, ErrEmptyContent)
	assert.Equal(t, "Please enter some content", err.Error())

	got, err := ValidatePostContent("  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = ValidatePostContent(strings.Repeat("x", 10001))
	assert.Error(t, err)
}

func TestValidateImageURL(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateImageURL(""))
	assert.NoError(t, ValidateImageURL("https://cdn.example.com/a.png"))
	assert.Error(t, ValidateImageURL("ftp://cdn.example.com/a.png"))
	assert.Error(t, ValidateImageURL("not a url"))
}

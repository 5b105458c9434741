package validation_test

import (
	"errors"
	"testing"

	"github.com/coursetutor/backend/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldErrors(t *testing.T) {
	fields := validation.FieldErrors{}
	require.NoError(t, fields.Err())

	fields.Add("title", "Title is required")
	fields.Add("title", "ignored")
	fields.Add("author", "Author is required")

	err := fields.Err()
	require.Error(t, err)

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Title is required", verr.Fields["title"])
	assert.Equal(t, "validation failed: author: Author is required; title: Title is required", err.Error())
}

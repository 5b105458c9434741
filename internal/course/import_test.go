package course_test

import (
	"strings"
	"testing"

	"github.com/coursetutor/backend/internal/course"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImport(t *testing.T) {
	t.Run("defaults and order", func(t *testing.T) {
		drafts, err := course.ParseImport(strings.NewReader(`[
			{
				"title": "TypeScript Basics",
				"description": "Types for JavaScript",
				"lessons": [
					{"title": "Generics", "content": "...", "order": 2},
					{"content": "# Getting Started", "order": 1}
				]
			}
		]`))
		require.NoError(t, err)
		require.Len(t, drafts, 1)

		d := drafts[0]
		assert.Equal(t, "Anonymous", d.Author)
		assert.Equal(t, "beginner", d.Difficulty)
		assert.Equal(t, 1, d.EstimatedHours)
		require.Len(t, d.Lessons, 2)
		assert.Equal(t, "Lesson 1", d.Lessons[0].Title)
		assert.Equal(t, "Generics", d.Lessons[1].Title)
		assert.Empty(t, d.Validate())
	})

	t.Run("not an array", func(t *testing.T) {
		_, err := course.ParseImport(strings.NewReader(`{"title": "x"}`))
		require.ErrorIs(t, err, course.ErrImportFormat)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := course.ParseImport(strings.NewReader(`[{"title": "x", "description": "y", "lessons": []}]`))
		require.EqualError(t, err, "course 1: at least one lesson is required")

		_, err = course.ParseImport(strings.NewReader(`[{"title": "x", "description": "y", "lessons": [{}]}, {"title": "z"}]`))
		require.EqualError(t, err, "course 2: description is required")
	})
}

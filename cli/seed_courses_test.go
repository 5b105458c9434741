package cli_test

import (
	"context"
	"strings"
	"testing"

	"github.com/coursetutor/backend/cli"
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/useraccount"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedFile = `[
	{
		"title": "Intro to Go",
		"description": "Learn the basics",
		"difficulty": "BEGINNER",
		"lessons": [
			{"title": "Types", "content": "ints and strings", "order": 2},
			{"title": "Hello", "content": "fmt.Println", "order": 1,
			 "quiz": {"questions": [{"prompt": "Print?", "options": ["fmt", "log"], "correctIndex": 0}]}}
		]
	},
	{
		"title": "Concurrency",
		"description": "Goroutines and channels",
		"author": "Rob",
		"difficulty": "advanced",
		"estimatedHours": 4,
		"lessons": [{"content": "go func()"}]
	}
]`

func TestSeedCourses(t *testing.T) {
	t.Run("should create the courses owned by the system", func(t *testing.T) {
		tc := NewTestContext(t)
		ctx := context.Background()

		result, err := tc.GetContext(t).SeedCourses(ctx, strings.NewReader(seedFile), "")
		require.NoError(t, err)
		assert.Equal(t, cli.SeedResult{Created: 2}, result)

		courses, total, err := tc.courses.List(ctx, course.Filter{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, c := range courses {
			assert.Equal(t, cli.SystemOwnerID, c.OwnerID)
		}

		intro, _, err := tc.courses.List(ctx, course.Filter{Query: "Intro"})
		require.NoError(t, err)
		require.Len(t, intro, 1)

		full, err := tc.courses.Get(ctx, intro[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "Anonymous", full.Author)
		assert.Equal(t, course.DifficultyBeginner, full.Difficulty)
		require.Len(t, full.Lessons, 2)
		assert.Equal(t, "Hello", full.Lessons[0].Title)
		require.NotNil(t, full.Lessons[0].Quiz)
	})

	t.Run("should skip existing courses", func(t *testing.T) {
		tc := NewTestContext(t)
		ctx := context.Background()
		cliCtx := tc.GetContext(t)

		_, err := cliCtx.SeedCourses(ctx, strings.NewReader(seedFile), "")
		require.NoError(t, err)

		result, err := cliCtx.SeedCourses(ctx, strings.NewReader(seedFile), "")
		require.NoError(t, err)
		assert.Equal(t, cli.SeedResult{Skipped: 2}, result)
	})

	t.Run("should assign the owner", func(t *testing.T) {
		tc := NewTestContext(t)
		ctx := context.Background()

		owner, err := tc.useraccount.Register(ctx, useraccount.RegisterRequest{
			Email:    "author@example.com",
			Name:     "Author",
			Password: "password123",
		})
		require.NoError(t, err)

		_, err = tc.GetContext(t).SeedCourses(ctx, strings.NewReader(seedFile), "author@example.com")
		require.NoError(t, err)

		courses, _, err := tc.courses.List(ctx, course.Filter{})
		require.NoError(t, err)
		for _, c := range courses {
			assert.Equal(t, owner.ID, c.OwnerID)
		}

		_, err = tc.GetContext(t).SeedCourses(ctx, strings.NewReader(seedFile), "nobody@example.com")
		require.ErrorIs(t, err, useraccount.ErrUserNotFound)
	})

	t.Run("should reject malformed files", func(t *testing.T) {
		tc := NewTestContext(t)

		_, err := tc.GetContext(t).SeedCourses(context.Background(), strings.NewReader(`{"title": "x"}`), "")
		require.ErrorIs(t, err, course.ErrImportFormat)
	})
}

package analytics_test

import (
	"context"
	"testing"

	"github.com/coursetutor/backend/internal/analytics"
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/enrollment"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/testhelper"
	"github.com/coursetutor/backend/internal/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	analytics   *analytics.Service
	courses     *course.Service
	enrollments *enrollment.Service
}

func setup(t *testing.T) fixture {
	t.Helper()

	s := testhelper.NewStore(t)
	eventService := events.NewEventService(s)
	courses := course.NewService(s, eventService)
	enrollments := enrollment.NewService(s, courses, eventService)

	return fixture{
		analytics:   analytics.NewService(s, enrollments),
		courses:     courses,
		enrollments: enrollments,
	}
}

func (f fixture) createCourse(t *testing.T, owner, title string, lessons int) course.Course {
	t.Helper()

	d := course.Draft{
		Title:          title,
		Description:    "Basics",
		Author:         "Gopher",
		Difficulty:     "beginner",
		EstimatedHours: 1,
	}
	for range lessons {
		d.AddLesson(course.LessonDraft{Title: "Lesson", Content: "Content"})
	}

	c, err := f.courses.Create(context.Background(), owner, d)
	require.NoError(t, err)
	return c
}

func TestCourse(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.createCourse(t, "owner", "Intro to Go", 2)

	f.analytics.RecordView(ctx, c.ID, "user-1")
	f.analytics.RecordView(ctx, c.ID, "user-1")
	f.analytics.RecordView(ctx, c.ID, "user-2")
	f.analytics.RecordView(ctx, c.ID, "")
	workers.Global.Wait()

	for _, user := range []string{"user-1", "user-2"} {
		_, err := f.enrollments.Enroll(ctx, user, c.ID)
		require.NoError(t, err)
	}
	for _, index := range []int{0, 1} {
		_, err := f.enrollments.CompleteLesson(ctx, "user-1", c.ID, index)
		require.NoError(t, err)
	}
	_, err := f.enrollments.CompleteLesson(ctx, "user-2", c.ID, 0)
	require.NoError(t, err)
	workers.Global.Wait()

	got, err := f.analytics.Course(ctx, c.ID, c.Title)
	require.NoError(t, err)
	assert.Equal(t, analytics.CourseAnalytics{
		CourseID:             c.ID,
		CourseTitle:          "Intro to Go",
		TotalViews:           4,
		UniqueViewers:        2,
		TotalEnrollments:     2,
		CompletedEnrollments: 1,
		CompletionRate:       50,
		AverageProgress:      75,
	}, got)
}

func TestCourse_NoActivity(t *testing.T) {
	f := setup(t)
	c := f.createCourse(t, "owner", "Empty", 1)

	got, err := f.analytics.Course(context.Background(), c.ID, c.Title)
	require.NoError(t, err)
	assert.Zero(t, got.TotalViews)
	assert.Zero(t, got.CompletionRate)
	assert.Zero(t, got.AverageProgress)
}

func TestOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.createCourse(t, "owner", "First", 1)
	second := f.createCourse(t, "owner", "Second", 1)
	f.createCourse(t, "someone-else", "Other", 1)

	f.analytics.RecordView(ctx, second.ID, "user-1")
	workers.Global.Wait()

	got, err := f.analytics.Owner(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[string]analytics.CourseAnalytics{}
	for _, a := range got {
		byID[a.CourseID] = a
	}
	assert.Equal(t, "First", byID[first.ID].CourseTitle)
	assert.Zero(t, byID[first.ID].TotalViews)
	assert.Equal(t, 1, byID[second.ID].TotalViews)

	none, err := f.analytics.Owner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

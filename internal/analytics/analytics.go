// Package analytics records course page views and summarizes how a
// course is doing for its author.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/enrollment"
	"github.com/coursetutor/backend/internal/metrics"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/workers"
	"github.com/google/uuid"
)

// CourseAnalytics is the view and enrollment summary of a course.
// CompletionRate and AverageProgress are percentages.
type CourseAnalytics struct {
	CourseID             string  `json:"courseId"`
	CourseTitle          string  `json:"courseTitle"`
	TotalViews           int     `json:"totalViews"`
	UniqueViewers        int     `json:"uniqueViewers"`
	TotalEnrollments     int     `json:"totalEnrollments"`
	CompletedEnrollments int     `json:"completedEnrollments"`
	CompletionRate       float64 `json:"completionRate"`
	AverageProgress      float64 `json:"averageProgress"`
}

// EnrollmentLister lists the enrollments of a course with their progress
// against the current lessons.
type EnrollmentLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]enrollment.Enrollment, error)
}

type Service struct {
	store       *store.Store
	enrollments EnrollmentLister
}

func NewService(s *store.Store, enrollments EnrollmentLister) *Service {
	return &Service{
		store:       s,
		enrollments: enrollments,
	}
}

// RecordView records a view of a course in the background. userID is
// empty for anonymous viewers.
func (s *Service) RecordView(ctx context.Context, courseID, userID string) {
	ctx = context.WithoutCancel(ctx)

	workers.Global.Go(func() {
		if err := s.recordView(ctx, courseID, userID); err != nil {
			slog.Error("failed to record course view", "course_id", courseID, "user_id", userID, "error", err)
		}
	})
}

func (s *Service) recordView(ctx context.Context, courseID, userID string) error {
	_, err := store.ExecBuilt(ctx, s.store, s.store.Builder().
		Insert("course_views").
		Columns("id", "course_id", "user_id", "viewed_at").
		Values(uuid.NewString(), courseID, userID, time.Now()))
	if err != nil {
		return fmt.Errorf("insert course view: %w", err)
	}

	metrics.RecordCourseView(userID != "")
	return nil
}

// Course summarizes a course.
func (s *Service) Course(ctx context.Context, courseID, title string) (CourseAnalytics, error) {
	a := CourseAnalytics{
		CourseID:    courseID,
		CourseTitle: title,
	}

	b := s.store.Builder()

	var err error
	a.TotalViews, err = store.Count(ctx, s.store, b.
		Select(entsql.Count("*")).
		From(entsql.Table("course_views")).
		Where(entsql.EQ("course_id", courseID)))
	if err != nil {
		return CourseAnalytics{}, fmt.Errorf("count course views: %w", err)
	}

	a.UniqueViewers, err = store.Count(ctx, s.store, b.
		Select(entsql.Count(entsql.Distinct("user_id"))).
		From(entsql.Table("course_views")).
		Where(entsql.And(
			entsql.EQ("course_id", courseID),
			entsql.NEQ("user_id", ""),
		)))
	if err != nil {
		return CourseAnalytics{}, fmt.Errorf("count course viewers: %w", err)
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return CourseAnalytics{}, err
	}

	progress := 0
	for _, e := range enrollments {
		if e.CompletedAt != nil {
			a.CompletedEnrollments++
		}
		progress += e.Progress
	}

	a.TotalEnrollments = len(enrollments)
	if a.TotalEnrollments > 0 {
		a.CompletionRate = percentage(float64(a.CompletedEnrollments) / float64(a.TotalEnrollments) * 100)
		a.AverageProgress = percentage(float64(progress) / float64(a.TotalEnrollments))
	}

	return a, nil
}

// Owner summarizes every course owned by ownerID, newest course first.
func (s *Service) Owner(ctx context.Context, ownerID string) ([]CourseAnalytics, error) {
	type ownedCourse struct{ id, title string }
	var courses []ownedCourse

	err := store.QueryBuilt(ctx, s.store, s.store.Builder().
		Select("id", "title").
		From(entsql.Table("courses")).
		Where(entsql.EQ("owner_id", ownerID)).
		OrderBy(entsql.Desc("created_at")), func(rows *entsql.Rows) error {
		var c ownedCourse
		if err := rows.Scan(&c.id, &c.title); err != nil {
			return err
		}

		courses = append(courses, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query owned courses: %w", err)
	}

	result := make([]CourseAnalytics, 0, len(courses))
	for _, c := range courses {
		a, err := s.Course(ctx, c.id, c.title)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}

	return result, nil
}

func percentage(v float64) float64 {
	return math.Round(v*10) / 10
}

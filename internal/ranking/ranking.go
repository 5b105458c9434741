// Package ranking ranks the learners by points or by completed quizzes.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/coursetutor/backend/internal/store"
	"github.com/samber/lo"
)

// By is what the learners are ranked by.
type By string

const (
	ByPoints           By = "points"
	ByCompletedQuizzes By = "completed_quizzes"
)

// Period is the time range the scores are counted in.
type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
	PeriodAll    Period = "all"
)

var (
	ErrInvalidBy     = errors.New("by must be one of points, completed_quizzes")
	ErrInvalidPeriod = errors.New("period must be one of daily, weekly, all")
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter selects and pages the ranking.
type Filter struct {
	By     By
	Period Period
	Limit  int
	Offset int
}

func (f Filter) Validate() error {
	switch f.By {
	case ByPoints, ByCompletedQuizzes:
	default:
		return ErrInvalidBy
	}

	switch f.Period {
	case PeriodDaily, PeriodWeekly, PeriodAll:
	default:
		return ErrInvalidPeriod
	}

	return nil
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}

	return min(f.Limit, MaxLimit)
}

// Entry is a ranked learner.
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Score  int    `json:"score"`
}

// Service handles ranking operations.
type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// userScore is the score of a user in the time range.
type userScore struct {
	UserID string
	Score  int
}

// GetRanking returns a page of the ranking, highest score first, and the
// number of ranked users.
func (s *Service) GetRanking(ctx context.Context, filter Filter) ([]Entry, int, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	since := startOf(filter.Period, time.Now())

	var (
		scores []userScore
		err    error
	)
	switch filter.By {
	case ByPoints:
		scores, err = s.scoresByPoints(ctx, since)
	case ByCompletedQuizzes:
		scores, err = s.scoresByCompletedQuizzes(ctx, since)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get user scores: %w", err)
	}

	sortScores(scores)

	total := len(scores)
	start := min(max(filter.Offset, 0), total)
	end := min(start+filter.limit(), total)
	page := scores[start:end]

	users, err := s.users(ctx, lo.Map(page, func(us userScore, _ int) string { return us.UserID }))
	if err != nil {
		return nil, 0, fmt.Errorf("fetch users: %w", err)
	}

	entries := make([]Entry, 0, len(page))
	for i, us := range page {
		entry := Entry{
			Rank:   start + i + 1,
			UserID: us.UserID,
			Score:  us.Score,
		}
		if u, ok := users[us.UserID]; ok {
			entry.Name = u.Name
			entry.Avatar = u.Avatar
		}
		entries = append(entries, entry)
	}

	return entries, total, nil
}

// startOf returns the start of the period containing now. Weeks start
// on Monday.
func startOf(period Period, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch period {
	case PeriodDaily:
		return today
	case PeriodWeekly:
		daysToMonday := int(now.Weekday() - time.Monday)
		if daysToMonday < 0 {
			daysToMonday += 7
		}
		return today.AddDate(0, 0, -daysToMonday)
	default:
		return time.Time{}
	}
}

// scoresByPoints sums the points granted in the time range.
func (s *Service) scoresByPoints(ctx context.Context, since time.Time) ([]userScore, error) {
	var scores []userScore

	selector := s.store.Builder().
		Select("user_id", entsql.As(entsql.Sum("points"), "total_score")).
		From(entsql.Table("points")).
		GroupBy("user_id")
	if !since.IsZero() {
		selector.Where(entsql.GTE("granted_at", since))
	}

	err := store.QueryBuilt(ctx, s.store, selector, func(rows *entsql.Rows) error {
		var us userScore
		if err := rows.Scan(&us.UserID, &us.Score); err != nil {
			return err
		}
		scores = append(scores, us)
		return nil
	})

	return scores, err
}

// scoresByCompletedQuizzes counts the distinct quizzes finished in the
// time range.
func (s *Service) scoresByCompletedQuizzes(ctx context.Context, since time.Time) ([]userScore, error) {
	var scores []userScore

	selector := s.store.Builder().
		Select("user_id", entsql.As("COUNT(DISTINCT quiz_id)", "completed_quizzes")).
		From(entsql.Table("quiz_attempts")).
		GroupBy("user_id")
	if !since.IsZero() {
		selector.Where(entsql.GTE("completed_at", since))
	}

	err := store.QueryBuilt(ctx, s.store, selector, func(rows *entsql.Rows) error {
		var us userScore
		if err := rows.Scan(&us.UserID, &us.Score); err != nil {
			return err
		}
		scores = append(scores, us)
		return nil
	})

	return scores, err
}

// sortScores orders by score, highest first. Ties are ordered by user ID
// so the pages are stable.
func sortScores(scores []userScore) {
	slices.SortFunc(scores, func(a, b userScore) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		if a.UserID < b.UserID {
			return -1
		}
		if a.UserID > b.UserID {
			return 1
		}
		return 0
	})
}

type rankedUser struct {
	Name   string
	Avatar string
}

func (s *Service) users(ctx context.Context, ids []string) (map[string]rankedUser, error) {
	users := make(map[string]rankedUser, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	err := store.QueryBuilt(ctx, s.store, s.store.Builder().
		Select("id", "name", "avatar").
		From(entsql.Table("users")).
		Where(entsql.In("id", lo.ToAnySlice(ids)...)), func(rows *entsql.Rows) error {
		var (
			id string
			u  rankedUser
		)
		if err := rows.Scan(&id, &u.Name, &u.Avatar); err != nil {
			return err
		}
		users[id] = u
		return nil
	})

	return users, err
}

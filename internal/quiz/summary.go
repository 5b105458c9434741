package quiz

import (
	"context"
	"math"
	"slices"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/samber/lo"
)

// RecentAttemptsLimit is the number of attempts listed on the dashboard.
const RecentAttemptsLimit = 10

// QuizProgress is the standing of a learner on one quiz of a course.
type QuizProgress struct {
	LessonIndex  int     `json:"lessonIndex"`
	LessonID     string  `json:"lessonId"`
	LessonTitle  string  `json:"lessonTitle"`
	QuizID       string  `json:"quizId"`
	AttemptCount int     `json:"attemptCount"`
	BestScore    int     `json:"bestScore"`
	LatestScore  int     `json:"latestScore"`
	BestMastery  Mastery `json:"bestMastery,omitempty"`
}

// CourseSummary is the standing of a learner on the quizzes of a course.
// Scores are the best attempt of each quiz taken. A lesson is weak below
// proficient and strong at expert.
type CourseSummary struct {
	CourseID         string         `json:"courseId"`
	CourseTitle      string         `json:"courseTitle"`
	TotalQuizzes     int            `json:"totalQuizzes"`
	CompletedQuizzes int            `json:"completedQuizzes"`
	AverageScore     int            `json:"averageScore"`
	OverallMastery   Mastery        `json:"overallMastery,omitempty"`
	Quizzes          []QuizProgress `json:"quizzes"`
	WeakLessons      []string       `json:"weakLessons"`
	StrongLessons    []string       `json:"strongLessons"`
	LastAttemptAt    *time.Time     `json:"lastAttemptAt,omitempty"`
}

// DailyScore is the mean score of the attempts finished on a day (UTC).
type DailyScore struct {
	Date         string `json:"date"`
	AverageScore int    `json:"averageScore"`
	Attempts     int    `json:"attempts"`
}

// Dashboard summarises the quiz activity of a learner.
type Dashboard struct {
	TotalAttempts  int             `json:"totalAttempts"`
	QuizzesTaken   int             `json:"quizzesTaken"`
	AverageScore   int             `json:"averageScore"`
	OverallMastery Mastery         `json:"overallMastery,omitempty"`
	Courses        []CourseSummary `json:"courses"`
	RecentAttempts []Attempt       `json:"recentAttempts"`
	ScoreHistory   []DailyScore    `json:"scoreHistory"`
}

// CourseSummary summarises the attempts of a user on the quizzes a
// course currently has. Attempts on quizzes removed since are ignored.
func (s *Service) CourseSummary(ctx context.Context, userID, courseID string) (CourseSummary, error) {
	title, targets, err := s.source.CourseQuizzes(ctx, courseID)
	if err != nil {
		return CourseSummary{}, err
	}

	attempts, err := s.courseAttempts(ctx, userID, courseID)
	if err != nil {
		return CourseSummary{}, err
	}

	return summarize(courseID, title, targets, attempts), nil
}

func (s *Service) courseAttempts(ctx context.Context, userID, courseID string) ([]Attempt, error) {
	return queryAttempts(ctx, s.store, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("course_id", courseID),
	))
}

func summarize(courseID, title string, targets []Target, attempts []Attempt) CourseSummary {
	summary := CourseSummary{
		CourseID:      courseID,
		CourseTitle:   title,
		TotalQuizzes:  len(targets),
		Quizzes:       make([]QuizProgress, 0, len(targets)),
		WeakLessons:   []string{},
		StrongLessons: []string{},
	}

	byQuiz := map[string][]Attempt{}
	for _, a := range attempts {
		byQuiz[a.QuizID] = append(byQuiz[a.QuizID], a)
	}

	total := 0
	for _, target := range targets {
		stats := NewStats(target.Quiz.ID, byQuiz[target.Quiz.ID])
		progress := QuizProgress{
			LessonIndex:  target.LessonIndex,
			LessonID:     target.LessonID,
			LessonTitle:  target.LessonTitle,
			QuizID:       target.Quiz.ID,
			AttemptCount: stats.AttemptCount,
			BestScore:    stats.BestScore,
			LatestScore:  stats.LatestScore,
			BestMastery:  stats.BestMastery,
		}
		summary.Quizzes = append(summary.Quizzes, progress)

		if stats.AttemptCount == 0 {
			continue
		}

		summary.CompletedQuizzes++
		total += stats.BestScore

		switch stats.BestMastery {
		case MasteryExpert:
			summary.StrongLessons = append(summary.StrongLessons, target.LessonTitle)
		case MasteryNovice, MasteryDeveloping:
			summary.WeakLessons = append(summary.WeakLessons, target.LessonTitle)
		}

		latest := stats.History[0].CompletedAt
		if summary.LastAttemptAt == nil || latest.After(*summary.LastAttemptAt) {
			summary.LastAttemptAt = &latest
		}
	}

	if summary.CompletedQuizzes > 0 {
		summary.AverageScore = mean(total, summary.CompletedQuizzes)
		summary.OverallMastery = MasteryFor(summary.AverageScore)
	}

	return summary
}

// Dashboard summarises the attempts of a user finished between from and
// to. A nil bound is open. The course summaries cover every course the
// user attempted a quiz of in that window, most recent first.
func (s *Service) Dashboard(ctx context.Context, userID string, from, to *time.Time) (Dashboard, error) {
	attempts, err := listUserAttempts(ctx, s.store, userID, from, to)
	if err != nil {
		return Dashboard{}, err
	}

	dashboard := Dashboard{
		TotalAttempts:  len(attempts),
		Courses:        []CourseSummary{},
		RecentAttempts: attempts[:min(len(attempts), RecentAttemptsLimit)],
		ScoreHistory:   dailyScores(attempts),
	}

	dashboard.QuizzesTaken = len(lo.Uniq(lo.Map(attempts, func(a Attempt, _ int) string { return a.QuizID })))
	if len(attempts) > 0 {
		total := lo.SumBy(attempts, func(a Attempt) int { return a.Percentage })
		dashboard.AverageScore = mean(total, len(attempts))
		dashboard.OverallMastery = MasteryFor(dashboard.AverageScore)
	}

	// newest first, so the most recently practiced course leads
	courseIDs := lo.Uniq(lo.Map(attempts, func(a Attempt, _ int) string { return a.CourseID }))
	for _, courseID := range courseIDs {
		title, targets, err := s.source.CourseQuizzes(ctx, courseID)
		if err != nil {
			return Dashboard{}, err
		}

		inCourse := lo.Filter(attempts, func(a Attempt, _ int) bool { return a.CourseID == courseID })
		dashboard.Courses = append(dashboard.Courses, summarize(courseID, title, targets, inCourse))
	}

	return dashboard, nil
}

// dailyScores groups attempts ordered newest first into days, oldest day
// first.
func dailyScores(attempts []Attempt) []DailyScore {
	days := []DailyScore{}
	totals := map[string]int{}

	for _, a := range slices.Backward(attempts) {
		date := a.CompletedAt.UTC().Format(time.DateOnly)
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, DailyScore{Date: date})
		}

		days[len(days)-1].Attempts++
		totals[date] += a.Percentage
	}

	for i := range days {
		days[i].AverageScore = mean(totals[days[i].Date], days[i].Attempts)
	}

	return days
}

func mean(total, count int) int {
	return int(math.Round(float64(total) / float64(count)))
}

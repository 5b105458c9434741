// Package quiz implements the lesson quiz: its question bank, the
// progression state machine a learner walks through, and the attempts
// recorded when a run reaches its results.
package quiz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Question is a multiple-choice question with exactly one correct option.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Quiz is the ordered question set following a lesson.
type Quiz struct {
	ID        string     `json:"id"`
	LessonID  string     `json:"lessonId"`
	Questions []Question `json:"questions"`
}

var ErrInvalidQuiz = errors.New("invalid quiz")

// Validate checks every question. The option count may vary between
// questions but each one needs at least two.
func (q Quiz) Validate() error {
	for i, question := range q.Questions {
		n := i + 1

		if strings.TrimSpace(question.Prompt) == "" {
			return fmt.Errorf("%w: question %d prompt is required", ErrInvalidQuiz, n)
		}
		if len(question.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least 2 options", ErrInvalidQuiz, n)
		}
		for j, option := range question.Options {
			if strings.TrimSpace(option) == "" {
				return fmt.Errorf("%w: question %d option %d is empty", ErrInvalidQuiz, n, j+1)
			}
		}
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
			return fmt.Errorf("%w: question %d correct answer is out of range", ErrInvalidQuiz, n)
		}
	}

	return nil
}

// AssignIDs fills the missing quiz and question IDs and binds the quiz
// to lessonID.
func (q *Quiz) AssignIDs(lessonID string) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.LessonID = lessonID

	for i := range q.Questions {
		if q.Questions[i].ID == "" {
			q.Questions[i].ID = uuid.NewString()
		}
	}
}

// Mastery is the level a score percentage falls into.
type Mastery string

const (
	MasteryNovice     Mastery = "novice"
	MasteryDeveloping Mastery = "developing"
	MasteryProficient Mastery = "proficient"
	MasteryExpert     Mastery = "expert"
)

// MasteryFor returns the mastery level of a 0-100 percentage.
func MasteryFor(percentage int) Mastery {
	switch {
	case percentage >= 86:
		return MasteryExpert
	case percentage >= 71:
		return MasteryProficient
	case percentage >= 41:
		return MasteryDeveloping
	default:
		return MasteryNovice
	}
}

// Attempt is a completed quiz run.
type Attempt struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	CourseID       string    `json:"courseId"`
	LessonID       string    `json:"lessonId"`
	QuizID         string    `json:"quizId"`
	CorrectCount   int       `json:"correctCount"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     int       `json:"percentage"`
	Mastery        Mastery   `json:"mastery"`
	Answers        []Answer  `json:"answers"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Stats summarises the attempts of a user on a quiz.
type Stats struct {
	QuizID       string    `json:"quizId"`
	BestScore    int       `json:"bestScore"`
	LatestScore  int       `json:"latestScore"`
	AttemptCount int       `json:"attemptCount"`
	BestMastery  Mastery   `json:"bestMastery,omitempty"`
	History      []Attempt `json:"history"`
}

// NewStats summarises attempts ordered newest first.
func NewStats(quizID string, attempts []Attempt) Stats {
	stats := Stats{
		QuizID:       quizID,
		AttemptCount: len(attempts),
		History:      attempts,
	}
	if len(attempts) == 0 {
		stats.History = []Attempt{}
		return stats
	}

	stats.LatestScore = attempts[0].Percentage
	for _, a := range attempts {
		stats.BestScore = max(stats.BestScore, a.Percentage)
	}
	stats.BestMastery = MasteryFor(stats.BestScore)

	return stats
}

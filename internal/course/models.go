// Package course manages the courses and their ordered lessons.
package course

import (
	"errors"
	"strings"
	"time"

	"github.com/coursetutor/backend/internal/quiz"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrForbidden      = errors.New("not allowed to modify this course")
	ErrLessonIndex    = errors.New("lesson index out of range")
)

// Difficulty is stored lower-case. Clients may send any case.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

var ErrInvalidDifficulty = errors.New("difficulty must be one of beginner, intermediate, advanced")

// ParseDifficulty parses a difficulty case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return d, nil
	default:
		return "", ErrInvalidDifficulty
	}
}

// Lesson is a content unit of a course, optionally followed by a quiz.
type Lesson struct {
	ID       string     `json:"id"`
	Position int        `json:"position"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Quiz     *quiz.Quiz `json:"quiz,omitempty"`
}

type Course struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"ownerId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Author         string     `json:"author"`
	Difficulty     Difficulty `json:"difficulty"`
	EstimatedHours int        `json:"estimatedHours"`
	Lessons        []Lesson   `json:"lessons"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// LessonView is a lesson whose quiz answers are hidden.
type LessonView struct {
	ID       string         `json:"id"`
	Position int            `json:"position"`
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Quiz     *quiz.QuizView `json:"quiz,omitempty"`
}

// View is a course as a learner sees it.
type View struct {
	Course
	Lessons []LessonView `json:"lessons"`
}

// LearnerView hides the quiz answers of every lesson.
func (c Course) LearnerView() View {
	view := View{
		Course:  c,
		Lessons: make([]LessonView, len(c.Lessons)),
	}
	view.Course.Lessons = nil

	for i, l := range c.Lessons {
		view.Lessons[i] = LessonView{
			ID:       l.ID,
			Position: l.Position,
			Title:    l.Title,
			Content:  l.Content,
		}
		if l.Quiz != nil {
			q := l.Quiz.LearnerView()
			view.Lessons[i].Quiz = &q
		}
	}

	return view
}

// Summary is a course without its lessons, as listed in the catalogue.
type Summary struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"ownerId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Author         string     `json:"author"`
	Difficulty     Difficulty `json:"difficulty"`
	EstimatedHours int        `json:"estimatedHours"`
	LessonCount    int        `json:"lessonCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Filter narrows the course list.
type Filter struct {
	Difficulty Difficulty
	Query      string // matched against title, description and author
	Limit      int
	Offset     int
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// EffectiveLimit is the page size after applying the default and the cap.
func (f Filter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return f.Limit
	}
}

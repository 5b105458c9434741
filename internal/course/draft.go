package course

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coursetutor/backend/internal/quiz"
	"github.com/coursetutor/backend/internal/validation"
)

// LessonDraft is an editable lesson. ID is empty for a new lesson and
// kept for an existing one, so its quiz attempts stay attached.
type LessonDraft struct {
	ID      string     `json:"id,omitempty"`
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Quiz    *quiz.Quiz `json:"quiz,omitempty"`
}

// Draft is the course form: the course fields and the lesson list,
// edited locally and submitted as a whole.
type Draft struct {
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Author         string        `json:"author"`
	Difficulty     string        `json:"difficulty"`
	EstimatedHours int           `json:"estimatedHours"`
	Lessons        []LessonDraft `json:"lessons"`
}

// DraftOf returns the form of an existing course.
func DraftOf(c Course) Draft {
	d := Draft{
		Title:          c.Title,
		Description:    c.Description,
		Author:         c.Author,
		Difficulty:     string(c.Difficulty),
		EstimatedHours: c.EstimatedHours,
		Lessons:        make([]LessonDraft, 0, len(c.Lessons)),
	}
	for _, l := range c.Lessons {
		d.Lessons = append(d.Lessons, LessonDraft{
			ID:      l.ID,
			Title:   l.Title,
			Content: l.Content,
			Quiz:    l.Quiz,
		})
	}

	return d
}

func (d *Draft) checkIndex(i int) error {
	if i < 0 || i >= len(d.Lessons) {
		return fmt.Errorf("%w: %d", ErrLessonIndex, i)
	}

	return nil
}

// AddLesson appends a lesson.
func (d *Draft) AddLesson(lesson LessonDraft) {
	d.Lessons = append(d.Lessons, lesson)
}

// UpdateLesson replaces the lesson at i.
func (d *Draft) UpdateLesson(i int, lesson LessonDraft) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}

	d.Lessons[i] = lesson
	return nil
}

// RemoveLesson removes the lesson at i.
func (d *Draft) RemoveLesson(i int) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}

	d.Lessons = slices.Delete(d.Lessons, i, i+1)
	return nil
}

// MoveLessonUp swaps the lesson at i with the previous one. It reports
// false when there is nothing to swap with.
func (d *Draft) MoveLessonUp(i int) bool {
	if i <= 0 || i >= len(d.Lessons) {
		return false
	}

	d.Lessons[i-1], d.Lessons[i] = d.Lessons[i], d.Lessons[i-1]
	return true
}

// MoveLessonDown swaps the lesson at i with the next one. It reports
// false when there is nothing to swap with.
func (d *Draft) MoveLessonDown(i int) bool {
	if i < 0 || i >= len(d.Lessons)-1 {
		return false
	}

	d.Lessons[i], d.Lessons[i+1] = d.Lessons[i+1], d.Lessons[i]
	return true
}

// MoveLesson moves the lesson at from to index to, shifting the lessons
// in between.
func (d *Draft) MoveLesson(from, to int) error {
	if err := d.checkIndex(from); err != nil {
		return err
	}
	if err := d.checkIndex(to); err != nil {
		return err
	}

	lesson := d.Lessons[from]
	d.Lessons = slices.Delete(d.Lessons, from, from+1)
	d.Lessons = slices.Insert(d.Lessons, to, lesson)

	return nil
}

// Validate returns the per-field messages of the form. A course may
// have no lessons.
func (d Draft) Validate() validation.FieldErrors {
	fields := validation.FieldErrors{}

	if strings.TrimSpace(d.Title) == "" {
		fields.Add("title", "Title is required")
	}
	if strings.TrimSpace(d.Description) == "" {
		fields.Add("description", "Description is required")
	}
	if strings.TrimSpace(d.Author) == "" {
		fields.Add("author", "Author is required")
	}
	if d.EstimatedHours < 1 {
		fields.Add("estimatedHours", "Estimated hours must be at least 1")
	}
	if _, err := ParseDifficulty(d.Difficulty); err != nil {
		fields.Add("difficulty", "Difficulty must be one of beginner, intermediate, advanced")
	}

	for i, lesson := range d.Lessons {
		prefix := fmt.Sprintf("lessons[%d]", i)

		if strings.TrimSpace(lesson.Title) == "" {
			fields.Add(prefix+".title", "Lesson title is required")
		}
		if strings.TrimSpace(lesson.Content) == "" {
			fields.Add(prefix+".content", "Lesson content is required")
		}
		if lesson.Quiz != nil {
			if err := lesson.Quiz.Validate(); err != nil {
				fields.Add(prefix+".quiz", quizMessage(err))
			}
		}
	}

	return fields
}

// quizMessage turns a quiz validation error into a form message.
func quizMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, quiz.ErrInvalidQuiz) {
		msg = strings.TrimPrefix(msg, quiz.ErrInvalidQuiz.Error()+": ")
	}

	r, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(r)) + msg[size:]
}

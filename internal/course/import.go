package course

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// ImportedCourse is a course as written in an import file. Missing
// optional fields get defaults.
type ImportedCourse struct {
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Author         string           `json:"author"`
	Difficulty     string           `json:"difficulty"`
	EstimatedHours int              `json:"estimatedHours"`
	Lessons        []ImportedLesson `json:"lessons"`
}

type ImportedLesson struct {
	LessonDraft
	Order int `json:"order"`
}

const (
	defaultImportAuthor     = "Anonymous"
	defaultImportDifficulty = DifficultyBeginner
)

var ErrImportFormat = errors.New("import must be a JSON array of courses")

// ParseImport reads a JSON array of courses into drafts. Every course
// needs a title, a description and at least one lesson.
func ParseImport(r io.Reader) ([]Draft, error) {
	var imported []ImportedCourse
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportFormat, err)
	}

	drafts := make([]Draft, 0, len(imported))
	for i, c := range imported {
		n := i + 1

		if strings.TrimSpace(c.Title) == "" {
			return nil, fmt.Errorf("course %d: title is required", n)
		}
		if strings.TrimSpace(c.Description) == "" {
			return nil, fmt.Errorf("course %d: description is required", n)
		}
		if len(c.Lessons) == 0 {
			return nil, fmt.Errorf("course %d: at least one lesson is required", n)
		}

		d := Draft{
			Title:          c.Title,
			Description:    c.Description,
			Author:         c.Author,
			Difficulty:     c.Difficulty,
			EstimatedHours: c.EstimatedHours,
		}
		if strings.TrimSpace(d.Author) == "" {
			d.Author = defaultImportAuthor
		}
		if d.Difficulty == "" {
			d.Difficulty = string(defaultImportDifficulty)
		}
		if d.EstimatedHours < 1 {
			d.EstimatedHours = 1
		}

		lessons := sortedByOrder(c.Lessons)
		for j, l := range lessons {
			if strings.TrimSpace(l.Title) == "" {
				l.Title = fmt.Sprintf("Lesson %d", j+1)
			}
			d.AddLesson(l.LessonDraft)
		}

		drafts = append(drafts, d)
	}

	return drafts, nil
}

// sortedByOrder orders lessons by their explicit order, falling back to
// their position in the file.
func sortedByOrder(lessons []ImportedLesson) []ImportedLesson {
	sorted := make([]ImportedLesson, len(lessons))
	copy(sorted, lessons)

	for i := range sorted {
		if sorted[i].Order <= 0 {
			sorted[i].Order = i + 1
		}
	}
	slices.SortStableFunc(sorted, func(a, b ImportedLesson) int {
		return cmp.Compare(a.Order, b.Order)
	})

	return sorted
}

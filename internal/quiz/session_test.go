package quiz_test

import (
	"testing"

	"github.com/coursetutor/backend/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:       "quiz-1",
		LessonID: "lesson-1",
		Questions: []quiz.Question{
			{ID: "q1", Prompt: "2 + 2?", Options: []string{"3", "4", "5", "22"}, CorrectIndex: 1, Explanation: "Basic addition."},
			{ID: "q2", Prompt: "Capital of France?", Options: []string{"Paris", "Rome", "Berlin", "Madrid"}, CorrectIndex: 0},
			{ID: "q3", Prompt: "Go keyword for goroutines?", Options: []string{"async", "go", "spawn", "thread"}, CorrectIndex: 1},
		},
	}
}

func answerAll(t *testing.T, s *quiz.Session, options ...int) {
	t.Helper()

	for i, option := range options {
		require.NoError(t, s.Select(option))
		_, err := s.Submit()
		require.NoError(t, err)

		if i == len(options)-1 {
			assert.Equal(t, quiz.ActionSeeResults, s.NextAction())
		} else {
			assert.Equal(t, quiz.ActionNextQuestion, s.NextAction())
		}
		require.NoError(t, s.Next())
	}
}

func TestSession_Progression(t *testing.T) {
	s := quiz.NewSession(sampleQuiz())
	assert.Equal(t, quiz.PhaseIdle, s.Phase)

	require.NoError(t, s.Start())
	assert.Equal(t, quiz.PhaseAnswering, s.Phase)
	assert.Equal(t, 0, s.Index)
	assert.False(t, s.CanSubmit())

	require.NoError(t, s.Select(0))
	require.NoError(t, s.Select(1), "re-selecting replaces the previous selection")
	assert.True(t, s.CanSubmit())

	feedback, err := s.Submit()
	require.NoError(t, err)
	assert.True(t, feedback.Correct)
	assert.Equal(t, 1, feedback.CorrectIndex)
	assert.Equal(t, "4", feedback.CorrectOption)
	assert.Equal(t, "Basic addition.", feedback.Explanation)
	assert.Equal(t, quiz.PhaseFeedback, s.Phase)

	require.NoError(t, s.Next())
	assert.Equal(t, quiz.PhaseAnswering, s.Phase)
	assert.Equal(t, 1, s.Index)
	assert.Nil(t, s.Selected)

	require.NoError(t, s.Select(2))
	feedback, err = s.Submit()
	require.NoError(t, err)
	assert.False(t, feedback.Correct)
	assert.Equal(t, "Paris", feedback.CorrectOption)
	require.NoError(t, s.Next())

	require.NoError(t, s.Select(1))
	_, err = s.Submit()
	require.NoError(t, err)
	assert.Equal(t, quiz.ActionSeeResults, s.NextAction())
	require.NoError(t, s.Next())
	assert.Equal(t, quiz.PhaseResults, s.Phase)

	results, err := s.Results()
	require.NoError(t, err)
	assert.Equal(t, 2, results.CorrectCount)
	assert.Equal(t, 3, results.TotalQuestions)
	assert.Equal(t, 67, results.Percentage)
	assert.Equal(t, quiz.MasteryDeveloping, results.Mastery)
	require.Len(t, results.Breakdown, 3)
	assert.Equal(t, "Berlin", results.Breakdown[1].Chosen)
	assert.Equal(t, "Paris", results.Breakdown[1].CorrectOption)
	assert.False(t, results.Breakdown[1].Correct)
}

func TestSession_SubmitRequiresSelection(t *testing.T) {
	s := quiz.NewSession(sampleQuiz())
	require.NoError(t, s.Start())

	_, err := s.Submit()
	require.ErrorIs(t, err, quiz.ErrNoSelection)
	assert.Equal(t, quiz.PhaseAnswering, s.Phase)
}

func TestSession_SelectOutOfRange(t *testing.T) {
	s := quiz.NewSession(sampleQuiz())
	require.NoError(t, s.Start())

	require.ErrorIs(t, s.Select(-1), quiz.ErrOptionOutOfRange)
	require.ErrorIs(t, s.Select(4), quiz.ErrOptionOutOfRange)
	assert.Nil(t, s.Selected)
}

func TestSession_EmptyQuiz(t *testing.T) {
	s := quiz.NewSession(quiz.Quiz{ID: "empty"})

	require.ErrorIs(t, s.Start(), quiz.ErrEmptyQuiz)
	assert.Equal(t, quiz.PhaseIdle, s.Phase)
}

func TestSession_InvalidTransitions(t *testing.T) {
	s := quiz.NewSession(sampleQuiz())

	require.ErrorIs(t, s.Select(0), quiz.ErrInvalidTransition)
	require.ErrorIs(t, s.Next(), quiz.ErrInvalidTransition)
	require.ErrorIs(t, s.Retake(), quiz.ErrInvalidTransition)
	_, err := s.Results()
	require.ErrorIs(t, err, quiz.ErrInvalidTransition)

	require.NoError(t, s.Start())
	require.ErrorIs(t, s.Start(), quiz.ErrInvalidTransition)
	require.ErrorIs(t, s.Next(), quiz.ErrInvalidTransition, "next before submit")

	require.NoError(t, s.Select(0))
	_, err = s.Submit()
	require.NoError(t, err)
	require.ErrorIs(t, s.Select(1), quiz.ErrInvalidTransition, "select during feedback")
	_, err = s.Submit()
	require.ErrorIs(t, err, quiz.ErrInvalidTransition, "double submit")
}

func TestSession_Retake(t *testing.T) {
	s := quiz.NewSession(sampleQuiz())
	require.NoError(t, s.Start())
	answerAll(t, s, 1, 0, 1)

	results, err := s.Results()
	require.NoError(t, err)
	assert.Equal(t, 100, results.Percentage)
	assert.Equal(t, quiz.ActionRetake, s.NextAction())

	require.NoError(t, s.Retake())
	assert.Equal(t, quiz.PhaseAnswering, s.Phase)
	assert.Equal(t, 0, s.Index)
	assert.Empty(t, s.Answers)
	assert.Nil(t, s.Selected)

	answerAll(t, s, 0, 1, 2)
	results, err = s.Results()
	require.NoError(t, err)
	assert.Equal(t, 0, results.Percentage)
	assert.Equal(t, quiz.MasteryNovice, results.Mastery)
}

func TestSession_View(t *testing.T) {
	s := quiz.NewSession(sampleQuiz())
	require.NoError(t, s.Start())

	view := s.View()
	assert.Equal(t, quiz.PhaseAnswering, view.Phase)
	assert.Equal(t, 3, view.TotalQuestions)
	require.NotNil(t, view.Question)
	assert.Equal(t, "2 + 2?", view.Question.Prompt)
	assert.Nil(t, view.Feedback)
	assert.Nil(t, view.Results)
	assert.False(t, view.CanSubmit)

	require.NoError(t, s.Select(1))
	_, err := s.Submit()
	require.NoError(t, err)

	view = s.View()
	require.NotNil(t, view.Feedback)
	assert.True(t, view.Feedback.Correct)
	assert.Equal(t, quiz.ActionNextQuestion, view.NextAction)

	require.NoError(t, s.Next())
	answerAll(t, s, 0, 1)

	view = s.View()
	assert.Nil(t, view.Question)
	require.NotNil(t, view.Results)
	assert.Equal(t, 100, view.Results.Percentage)
}

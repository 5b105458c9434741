package cli

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coursetutor/backend/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID: "quiz-1",
		Questions: []quiz.Question{
			{ID: "q1", Prompt: "Zero value of int?", Options: []string{"nil", "0", "1"}, CorrectIndex: 1},
			{ID: "q2", Prompt: "Keyword for constants?", Options: []string{"const", "let"}, CorrectIndex: 0, Explanation: "Go uses const."},
		},
	}
}

func press(m *quizModel, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestQuizModel(t *testing.T) {
	m, err := newQuizModel(sampleQuiz())
	require.NoError(t, err)
	assert.Contains(t, m.View(), "Question 1 of 2")
	assert.Contains(t, m.View(), "Zero value of int?")

	press(m, "down")
	assert.Equal(t, 1, m.cursor)

	press(m, "enter")
	assert.Equal(t, quiz.PhaseFeedback, m.session.Phase)
	assert.Contains(t, m.View(), "Correct!")
	assert.Contains(t, m.View(), quiz.ActionNextQuestion)

	press(m, "enter")
	assert.Equal(t, quiz.PhaseAnswering, m.session.Phase)
	assert.Equal(t, 0, m.cursor)

	// wrong answer: select "let", then submit
	press(m, "up", " ", "enter")
	assert.Equal(t, quiz.PhaseFeedback, m.session.Phase)
	view := m.View()
	assert.Contains(t, view, "Incorrect. The answer is const.")
	assert.Contains(t, view, "Go uses const.")
	assert.Contains(t, view, quiz.ActionSeeResults)

	press(m, "enter")
	require.Equal(t, quiz.PhaseResults, m.session.Phase)
	view = m.View()
	assert.Contains(t, view, "Score: 50% (1/2 correct)")
	assert.Contains(t, view, string(quiz.MasteryDeveloping))

	press(m, "r")
	assert.Equal(t, quiz.PhaseAnswering, m.session.Phase)
	assert.Equal(t, 0, m.session.Index)
	assert.Empty(t, m.session.Answers)

	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestQuizModel_EmptyQuiz(t *testing.T) {
	_, err := newQuizModel(quiz.Quiz{ID: "empty"})
	require.ErrorIs(t, err, quiz.ErrEmptyQuiz)
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/coursetutor/backend/internal/quiz"
)

// TakeQuiz runs the quiz of a lesson in the terminal. Nothing is
// recorded; it lets authors try their quizzes.
func (c *Context) TakeQuiz(ctx context.Context, courseID string, lessonIndex int) error {
	target, err := c.courses.LessonQuiz(ctx, courseID, lessonIndex)
	if err != nil {
		return fmt.Errorf("get quiz: %w", err)
	}

	model, err := newQuizModel(target.Quiz)
	if err != nil {
		return err
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}

	return nil
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	masteryStyles = map[quiz.Mastery]lipgloss.Style{
		quiz.MasteryNovice:     wrongStyle,
		quiz.MasteryDeveloping: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		quiz.MasteryProficient: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		quiz.MasteryExpert:     correctStyle,
	}
)

// quizModel is the Bubble Tea model driving a quiz.Session.
type quizModel struct {
	session  *quiz.Session
	cursor   int
	progress progress.Model
	err      error
}

func newQuizModel(q quiz.Quiz) (*quizModel, error) {
	session := quiz.NewSession(q)
	if err := session.Start(); err != nil {
		return nil, err
	}

	prog := progress.New(progress.WithScaledGradient("#FF7CCB", "#FDFF8C"))
	prog.Width = 40

	return &quizModel{session: session, progress: prog}, nil
}

func (m *quizModel) Init() tea.Cmd {
	return nil
}

func (m *quizModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	}

	m.err = nil

	switch m.session.Phase {
	case quiz.PhaseAnswering:
		options := len(m.session.Question().Options)
		switch key.String() {
		case "up", "k":
			m.cursor = (m.cursor - 1 + options) % options
		case "down", "j":
			m.cursor = (m.cursor + 1) % options
		case " ":
			m.err = m.session.Select(m.cursor)
		case "enter":
			if m.session.Selected == nil {
				m.err = m.session.Select(m.cursor)
			}
			if m.err == nil {
				_, m.err = m.session.Submit()
			}
		}
	case quiz.PhaseFeedback:
		if key.String() == "enter" {
			m.err = m.session.Next()
			m.cursor = 0
		}
	case quiz.PhaseResults:
		switch key.String() {
		case "r":
			m.err = m.session.Retake()
			m.cursor = 0
		case "enter":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *quizModel) View() string {
	var b strings.Builder
	b.WriteString("\n")

	switch m.session.Phase {
	case quiz.PhaseAnswering, quiz.PhaseFeedback:
		m.viewQuestion(&b)
	case quiz.PhaseResults:
		m.viewResults(&b)
	}

	if m.err != nil {
		b.WriteString("\n" + wrongStyle.Render(m.err.Error()) + "\n")
	}

	return b.String()
}

func (m *quizModel) viewQuestion(b *strings.Builder) {
	total := len(m.session.Quiz.Questions)
	question := m.session.Question()

	fmt.Fprintf(b, "Question %d of %d  %s\n\n", m.session.Index+1, total,
		m.progress.ViewAs(float64(m.session.Index)/float64(total)))
	b.WriteString(titleStyle.Render(question.Prompt) + "\n\n")

	feedback, feedbackErr := m.session.Feedback()
	for i, option := range question.Options {
		marker := "  "
		if m.session.Phase == quiz.PhaseAnswering && i == m.cursor {
			marker = cursorStyle.Render("> ")
		}

		check := "( )"
		if m.session.Selected != nil && *m.session.Selected == i {
			check = "(•)"
		}

		line := fmt.Sprintf("%s%s %s", marker, check, option)
		if feedbackErr == nil {
			switch {
			case i == feedback.CorrectIndex:
				line = correctStyle.Render(line + "  ✓")
			case i == feedback.Selected:
				line = wrongStyle.Render(line + "  ✗")
			}
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if feedbackErr == nil {
		if feedback.Correct {
			b.WriteString(correctStyle.Render("Correct!") + "\n")
		} else {
			b.WriteString(wrongStyle.Render("Incorrect. The answer is "+feedback.CorrectOption+".") + "\n")
		}
		if feedback.Explanation != "" {
			b.WriteString(feedback.Explanation + "\n")
		}
		b.WriteString(hintStyle.Render("\nenter: "+m.session.NextAction()+"  q: quit") + "\n")
		return
	}

	b.WriteString(hintStyle.Render("↑/↓: move  space: select  enter: submit  q: quit") + "\n")
}

func (m *quizModel) viewResults(b *strings.Builder) {
	results, err := m.session.Results()
	if err != nil {
		b.WriteString(wrongStyle.Render(err.Error()) + "\n")
		return
	}

	b.WriteString(titleStyle.Render("Quiz Complete!") + "\n\n")
	fmt.Fprintf(b, "Score: %d%% (%d/%d correct)\n", results.Percentage, results.CorrectCount, results.TotalQuestions)
	b.WriteString("Mastery: " + masteryStyles[results.Mastery].Render(string(results.Mastery)) + "\n\n")

	for i, item := range results.Breakdown {
		mark := correctStyle.Render("✓")
		if !item.Correct {
			mark = wrongStyle.Render("✗")
		}
		fmt.Fprintf(b, "%s %d. %s\n", mark, i+1, item.Prompt)
		if !item.Correct {
			fmt.Fprintf(b, "     your answer: %s, correct: %s\n", item.Chosen, item.CorrectOption)
		}
	}

	b.WriteString(hintStyle.Render("\nr: "+quiz.ActionRetake+"  enter/q: quit") + "\n")
}

package quiz

// QuestionView is a question without its answer.
type QuestionView struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// QuizView is a quiz without its answers and explanations.
type QuizView struct {
	ID        string         `json:"id"`
	LessonID  string         `json:"lessonId"`
	Questions []QuestionView `json:"questions"`
}

// LearnerView strips the answers from the quiz.
func (q Quiz) LearnerView() QuizView {
	view := QuizView{
		ID:        q.ID,
		LessonID:  q.LessonID,
		Questions: make([]QuestionView, len(q.Questions)),
	}
	for i, question := range q.Questions {
		view.Questions[i] = QuestionView{
			ID:      question.ID,
			Prompt:  question.Prompt,
			Options: question.Options,
		}
	}

	return view
}

// View is what the learner sees of a session.
type View struct {
	Phase          Phase         `json:"phase"`
	QuestionIndex  int           `json:"questionIndex"`
	TotalQuestions int           `json:"totalQuestions"`
	Question       *QuestionView `json:"question,omitempty"`
	Selected       *int          `json:"selected,omitempty"`
	CanSubmit      bool          `json:"canSubmit"`
	Feedback       *Feedback     `json:"feedback,omitempty"`
	NextAction     string        `json:"nextAction,omitempty"`
	Results        *Results      `json:"results,omitempty"`
}

// View renders the session for the learner. The correct option is only
// revealed once the question has been submitted.
func (s *Session) View() View {
	view := View{
		Phase:          s.Phase,
		QuestionIndex:  s.Index,
		TotalQuestions: len(s.Quiz.Questions),
		Selected:       s.Selected,
		CanSubmit:      s.CanSubmit(),
		NextAction:     s.NextAction(),
	}

	switch s.Phase {
	case PhaseAnswering, PhaseFeedback:
		question := s.Question()
		view.Question = &QuestionView{
			ID:      question.ID,
			Prompt:  question.Prompt,
			Options: question.Options,
		}
	}

	if feedback, err := s.Feedback(); err == nil {
		view.Feedback = &feedback
	}
	if results, err := s.Results(); err == nil {
		view.Results = &results
	}

	return view
}

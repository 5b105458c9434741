package quiz

import (
	"errors"
	"math"
)

var (
	ErrEmptyQuiz         = errors.New("quiz has no questions")
	ErrOptionOutOfRange  = errors.New("option out of range")
	ErrNoSelection       = errors.New("no option selected")
	ErrInvalidTransition = errors.New("invalid transition")
)

// Phase is the state of a Session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseAnswering Phase = "answering"
	PhaseFeedback  Phase = "feedback"
	PhaseResults   Phase = "results"
)

const (
	ActionNextQuestion = "Next Question"
	ActionSeeResults   = "See Results"
	ActionRetake       = "Retake Quiz"
)

// Answer is the submitted option of a question.
type Answer struct {
	QuestionID string `json:"questionId"`
	Selected   int    `json:"selected"`
	Correct    bool   `json:"correct"`
}

// Session is a single learner's run through a quiz:
//
//	idle -> answering(0) -> feedback(0) -> answering(1) ... -> feedback(n) -> results
//
// Retake moves results back to answering(0). A Session is a plain value
// so it can be stored between requests.
type Session struct {
	Quiz     Quiz     `json:"quiz"`
	Phase    Phase    `json:"phase"`
	Index    int      `json:"index"`
	Selected *int     `json:"selected,omitempty"`
	Answers  []Answer `json:"answers"`

	// Version is bumped on every stored transition.
	Version int `json:"version"`
}

// NewSession returns an idle session over q.
func NewSession(q Quiz) *Session {
	return &Session{
		Quiz:    q,
		Phase:   PhaseIdle,
		Answers: []Answer{},
	}
}

// Start shows the first question.
func (s *Session) Start() error {
	if s.Phase != PhaseIdle {
		return ErrInvalidTransition
	}
	if len(s.Quiz.Questions) == 0 {
		return ErrEmptyQuiz
	}

	s.answer(0)
	return nil
}

func (s *Session) answer(index int) {
	s.Phase = PhaseAnswering
	s.Index = index
	s.Selected = nil
}

// Question returns the current question.
func (s *Session) Question() Question {
	return s.Quiz.Questions[s.Index]
}

// Select picks an option of the current question, replacing any
// previous pick.
func (s *Session) Select(option int) error {
	if s.Phase != PhaseAnswering {
		return ErrInvalidTransition
	}
	if option < 0 || option >= len(s.Question().Options) {
		return ErrOptionOutOfRange
	}

	s.Selected = &option
	return nil
}

// CanSubmit reports whether Submit would be accepted.
func (s *Session) CanSubmit() bool {
	return s.Phase == PhaseAnswering && s.Selected != nil
}

// Submit grades the selected option and shows its feedback.
func (s *Session) Submit() (Feedback, error) {
	if s.Phase != PhaseAnswering {
		return Feedback{}, ErrInvalidTransition
	}
	if s.Selected == nil {
		return Feedback{}, ErrNoSelection
	}

	question := s.Question()
	s.Answers = append(s.Answers, Answer{
		QuestionID: question.ID,
		Selected:   *s.Selected,
		Correct:    *s.Selected == question.CorrectIndex,
	})
	s.Phase = PhaseFeedback

	return s.Feedback()
}

// Feedback describes the answer to the current question.
type Feedback struct {
	Correct       bool   `json:"correct"`
	Selected      int    `json:"selected"`
	CorrectIndex  int    `json:"correctIndex"`
	CorrectOption string `json:"correctOption"`
	Explanation   string `json:"explanation,omitempty"`
}

// Feedback returns the feedback of the question just submitted.
func (s *Session) Feedback() (Feedback, error) {
	if s.Phase != PhaseFeedback {
		return Feedback{}, ErrInvalidTransition
	}

	question := s.Question()
	answer := s.Answers[len(s.Answers)-1]

	return Feedback{
		Correct:       answer.Correct,
		Selected:      answer.Selected,
		CorrectIndex:  question.CorrectIndex,
		CorrectOption: question.Options[question.CorrectIndex],
		Explanation:   question.Explanation,
	}, nil
}

func (s *Session) isLast() bool {
	return s.Index == len(s.Quiz.Questions)-1
}

// NextAction is the label of the control leaving the feedback phase.
func (s *Session) NextAction() string {
	switch s.Phase {
	case PhaseFeedback:
		if s.isLast() {
			return ActionSeeResults
		}
		return ActionNextQuestion
	case PhaseResults:
		return ActionRetake
	default:
		return ""
	}
}

// Next advances from feedback to the next question, or to the results
// after the last one.
func (s *Session) Next() error {
	if s.Phase != PhaseFeedback {
		return ErrInvalidTransition
	}

	if s.isLast() {
		s.Phase = PhaseResults
		s.Selected = nil
		return nil
	}

	s.answer(s.Index + 1)
	return nil
}

// Results is the outcome of a finished run.
type Results struct {
	CorrectCount   int             `json:"correctCount"`
	TotalQuestions int             `json:"totalQuestions"`
	Percentage     int             `json:"percentage"`
	Mastery        Mastery         `json:"mastery"`
	Breakdown      []BreakdownItem `json:"breakdown"`
}

// BreakdownItem is the right/wrong line of one question.
type BreakdownItem struct {
	Prompt        string `json:"prompt"`
	Chosen        string `json:"chosen"`
	CorrectOption string `json:"correctOption"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation,omitempty"`
}

// Results aggregates the answers once the run is over.
func (s *Session) Results() (Results, error) {
	if s.Phase != PhaseResults {
		return Results{}, ErrInvalidTransition
	}

	results := Results{
		TotalQuestions: len(s.Quiz.Questions),
		Breakdown:      make([]BreakdownItem, 0, len(s.Answers)),
	}
	for i, answer := range s.Answers {
		question := s.Quiz.Questions[i]
		if answer.Correct {
			results.CorrectCount++
		}

		results.Breakdown = append(results.Breakdown, BreakdownItem{
			Prompt:        question.Prompt,
			Chosen:        question.Options[answer.Selected],
			CorrectOption: question.Options[question.CorrectIndex],
			Correct:       answer.Correct,
			Explanation:   question.Explanation,
		})
	}

	results.Percentage = Percentage(results.CorrectCount, results.TotalQuestions)
	results.Mastery = MasteryFor(results.Percentage)

	return results, nil
}

// Percentage returns correct/total as a rounded 0-100 score.
func Percentage(correct, total int) int {
	if total == 0 {
		return 0
	}

	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Retake clears every answer and goes back to the first question.
func (s *Session) Retake() error {
	if s.Phase != PhaseResults {
		return ErrInvalidTransition
	}

	s.Answers = []Answer{}
	s.answer(0)
	return nil
}

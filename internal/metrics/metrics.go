package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginTotal tracks the total number of user logins
	LoginTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coursetutor_login_total",
			Help: "Total number of user logins",
		},
	)

	// EventTotal tracks the total number of events by event type
	EventTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursetutor_event_total",
			Help: "Total number of events by event type",
		},
		[]string{"event_type"},
	)

	// QuizAnswerTotal tracks the submitted quiz answers by correctness
	QuizAnswerTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursetutor_quiz_answer_total",
			Help: "Total number of submitted quiz answers by correctness",
		},
		[]string{"correct"},
	)

	// QuizCompletedTotal tracks the finished quiz attempts by mastery level
	QuizCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursetutor_quiz_completed_total",
			Help: "Total number of finished quiz attempts by mastery level",
		},
		[]string{"mastery"},
	)

	LessonCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coursetutor_lesson_completed_total",
			Help: "Total number of lessons marked as completed",
		},
	)

	CourseViewTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursetutor_course_view_total",
			Help: "Total number of course page views by viewer kind",
		},
		[]string{"viewer"},
	)
)

// RecordLogin records a user login
func RecordLogin() {
	LoginTotal.Inc()
}

// RecordEvent records an event with the given event type
func RecordEvent(eventType string) {
	EventTotal.WithLabelValues(eventType).Inc()
}

func RecordQuizAnswer(correct bool) {
	if correct {
		QuizAnswerTotal.WithLabelValues("true").Inc()
		return
	}

	QuizAnswerTotal.WithLabelValues("false").Inc()
}

func RecordQuizCompleted(mastery string) {
	QuizCompletedTotal.WithLabelValues(mastery).Inc()
}

func RecordLessonCompleted() {
	LessonCompletedTotal.Inc()
}

// RecordCourseView records a course page view by a signed-in or an
// anonymous viewer.
func RecordCourseView(signedIn bool) {
	if signedIn {
		CourseViewTotal.WithLabelValues("user").Inc()
		return
	}

	CourseViewTotal.WithLabelValues("anonymous").Inc()
}

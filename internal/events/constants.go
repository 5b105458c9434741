package events

type EventType string

const (
	EventTypeRegister EventType = "register"
	EventTypeLogin    EventType = "login"
	EventTypeLogout   EventType = "logout"

	EventTypeCourseCreated EventType = "course_created"
	EventTypeCourseUpdated EventType = "course_updated"
	EventTypeCourseDeleted EventType = "course_deleted"

	EventTypeEnrolled        EventType = "enrolled"
	EventTypeLessonCompleted EventType = "lesson_completed"
	EventTypeQuizCompleted   EventType = "quiz_completed"

	// Internal usage
	EventTypeGrantPoint EventType = "grant_point"
)

// Payload keys shared by the event producers and the handlers.
const (
	PayloadCourseID   = "course_id"
	PayloadLessonID   = "lesson_id"
	PayloadQuizID     = "quiz_id"
	PayloadPercentage = "percentage"
	PayloadMastery    = "mastery"
)

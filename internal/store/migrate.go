package store

import (
	"context"
	"fmt"
	"log/slog"
)

// migrations are idempotent and portable between SQLite and PostgreSQL.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		avatar TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'student',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		author TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		estimated_hours INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_courses_difficulty ON courses(difficulty)`,
	`CREATE INDEX IF NOT EXISTS idx_courses_owner_id ON courses(owner_id)`,
	`CREATE TABLE IF NOT EXISTS lessons (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		quiz TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lessons_course_position ON lessons(course_id, position)`,
	`CREATE TABLE IF NOT EXISTS enrollments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		completed_lessons TEXT NOT NULL DEFAULT '[]',
		progress INTEGER NOT NULL DEFAULT 0,
		current_lesson_id TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP NULL,
		UNIQUE(user_id, course_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_enrollments_user_id ON enrollments(user_id)`,
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		lesson_id TEXT NOT NULL,
		quiz_id TEXT NOT NULL,
		correct_count INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		percentage INTEGER NOT NULL,
		mastery TEXT NOT NULL,
		answers TEXT NOT NULL DEFAULT '[]',
		completed_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_user_quiz ON quiz_attempts(user_id, quiz_id)`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		user_id TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '{}',
		triggered_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_user_type ON events(user_id, type)`,
	`CREATE TABLE IF NOT EXISTS points (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		description TEXT NOT NULL,
		points INTEGER NOT NULL,
		granted_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_points_user_id ON points(user_id)`,
	`CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		lesson_id TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE(user_id, lesson_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookmarks_user_course ON bookmarks(user_id, course_id)`,
	`CREATE TABLE IF NOT EXISTS course_views (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL DEFAULT '',
		viewed_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_course_views_course_id ON course_views(course_id)`,
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if err := s.drv.Exec(ctx, migration, []any{}, nil); err != nil {
			return fmt.Errorf("run migration %d: %w", i, err)
		}
	}

	slog.Debug("database migrated", "dialect", s.Dialect(), "statements", len(migrations))
	return nil
}

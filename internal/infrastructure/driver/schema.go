package driver

import (
	"context"
	"fmt"
	"strings"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		username VARCHAR(80) NOT NULL UNIQUE,
		email VARCHAR(120) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		display_name VARCHAR(120) NOT NULL,
		bio TEXT NOT NULL,
		theme VARCHAR(32) NOT NULL,
		avatar_url VARCHAR(255) NOT NULL,
		login_retry INT NOT NULL,
		last_login {{ts}} NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id VARCHAR(64) PRIMARY KEY,
		theme VARCHAR(32) NOT NULL,
		focus_music VARCHAR(64) NOT NULL,
		daily_goal_minutes INT NOT NULL,
		notifications_enabled BOOLEAN NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS decks (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		name VARCHAR(120) NOT NULL,
		created_at {{ts}} NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS flashcards (
		id VARCHAR(64) PRIMARY KEY,
		deck_id VARCHAR(64) NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		FOREIGN KEY (deck_id) REFERENCES decks (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS flashcard_progress (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		flashcard_id VARCHAR(64) NOT NULL,
		repetitions INT NOT NULL,
		ease_factor DOUBLE PRECISION NOT NULL,
		interval_days INT NOT NULL,
		last_reviewed {{ts}} NULL,
		next_review {{ts}} NULL,
		version INT NOT NULL,
		UNIQUE (user_id, flashcard_id),
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (flashcard_id) REFERENCES flashcards (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		title VARCHAR(150) NOT NULL,
		content TEXT NOT NULL,
		summary TEXT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(50) NOT NULL UNIQUE,
		color VARCHAR(16) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS note_tags (
		note_id VARCHAR(64) NOT NULL,
		tag_id VARCHAR(64) NOT NULL,
		PRIMARY KEY (note_id, tag_id),
		FOREIGN KEY (note_id) REFERENCES notes (id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS quizzes (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		title VARCHAR(140) NOT NULL,
		time_limit INT NOT NULL,
		created_at {{ts}} NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id VARCHAR(64) PRIMARY KEY,
		quiz_id VARCHAR(64) NOT NULL,
		position INT NOT NULL,
		question_text TEXT NOT NULL,
		correct_answer TEXT NOT NULL,
		options TEXT NOT NULL,
		explanation TEXT NULL,
		FOREIGN KEY (quiz_id) REFERENCES quizzes (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_results (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		quiz_id VARCHAR(64) NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		answers TEXT NOT NULL,
		duration_seconds INT NOT NULL,
		completed_at {{ts}} NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (quiz_id) REFERENCES quizzes (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS study_sessions (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		start_time {{ts}} NOT NULL,
		end_time {{ts}} NULL,
		session_type VARCHAR(50) NOT NULL,
		duration INT NULL,
		focus_score INT NULL,
		notes TEXT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
}

func timestampType(d Dialect) string {
	switch d {
	case DialectMySQL:
		return "DATETIME(6)"
	case DialectPostgres:
		return "TIMESTAMPTZ"
	default:
		return "TIMESTAMP"
	}
}

// SchemaStatements render the bootstrap DDL for the given dialect
func SchemaStatements(d Dialect) []string {
	ts := timestampType(d)
	out := make([]string, 0, len(schemaStatements))
	for _, stmt := range schemaStatements {
		out = append(out, strings.ReplaceAll(stmt, "{{ts}}", ts))
	}
	return out
}

// EnsureSchema create missing tables, safe to call on every start
func EnsureSchema(ctx context.Context, conn ITransactionalDB) error {
	for _, stmt := range SchemaStatements(conn.Dialect()) {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

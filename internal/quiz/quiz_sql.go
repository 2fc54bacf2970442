package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
)

type QuizSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ QuizRepository = &QuizSQL{}

func NewQuizRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *QuizSQL {
	return &QuizSQL{Conn, UUIDGenerator}
}

func (repo *QuizSQL) queryQuizzes(ctx context.Context, query string, args ...interface{}) ([]*QuizModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*QuizModel, 0)
	for rows.Next() {
		item := new(QuizModel)
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &item.TimeLimit, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// ListQuizzes newest first, questions not loaded
func (repo *QuizSQL) ListQuizzes(ctx context.Context, userID string) ([]*QuizModel, error) {
	return repo.queryQuizzes(ctx, `SELECT id, user_id, title, time_limit, created_at FROM quizzes
	WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

// FindQuiz quiz with its questions in generation order, nil when not owned
func (repo *QuizSQL) FindQuiz(ctx context.Context, userID, quizID string) (*QuizModel, error) {
	quizzes, err := repo.queryQuizzes(ctx, `SELECT id, user_id, title, time_limit, created_at FROM quizzes
	WHERE id = $1 AND user_id = $2`, quizID, userID)
	if err != nil || len(quizzes) == 0 {
		return nil, err
	}
	quiz := quizzes[0]

	rows, err := repo.Conn.QueryContext(ctx, `SELECT id, quiz_id, position, question_text, correct_answer, options, explanation
	FROM questions WHERE quiz_id = $1 ORDER BY position`, quiz.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quiz.Questions = make([]*QuestionModel, 0)
	for rows.Next() {
		var (
			q       = new(QuestionModel)
			options string
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Position, &q.QuestionText, &q.CorrectAnswer, &options, &q.Explanation); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options of question %s: %w", q.ID, err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz, rows.Err()
}

// SaveQuiz insert the quiz and its questions in one transaction
func (repo *QuizSQL) SaveQuiz(ctx context.Context, quiz *QuizModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	quiz.ID = id
	quiz.CreatedAt = time.Now().UTC()
	for i, q := range quiz.Questions {
		if q.ID, err = repo.UUIDGenerator.Generate(); err != nil {
			return err
		}
		q.QuizID = quiz.ID
		q.Position = i
	}

	return driver.WithTx(ctx, repo.Conn, nil, func(tx driver.ITransactionalDB) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO quizzes (id, user_id, title, time_limit, created_at)
		VALUES ($1, $2, $3, $4, $5)`, quiz.ID, quiz.UserID, quiz.Title, quiz.TimeLimit, quiz.CreatedAt); err != nil {
			return err
		}
		for _, q := range quiz.Questions {
			options, err := json.Marshal(q.Options)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO questions (id, quiz_id, position, question_text, correct_answer,
			options, explanation) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				q.ID, q.QuizID, q.Position, q.QuestionText, q.CorrectAnswer, string(options), q.Explanation); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteQuiz questions and results go with the quiz
func (repo *QuizSQL) DeleteQuiz(ctx context.Context, userID, quizID string) (bool, error) {
	res, err := repo.Conn.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1 AND user_id = $2`, quizID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (repo *QuizSQL) SaveResult(ctx context.Context, result *ResultModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	result.ID = id
	result.CompletedAt = time.Now().UTC()
	answers, err := json.Marshal(result.Breakdown)
	if err != nil {
		return err
	}
	_, err = repo.Conn.ExecContext(ctx, `INSERT INTO quiz_results (id, user_id, quiz_id, score, answers, duration_seconds,
	completed_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`, result.ID, result.UserID, result.QuizID, result.Score,
		string(answers), result.DurationSeconds, result.CompletedAt)
	return err
}

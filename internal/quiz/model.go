package quiz

import (
	"context"
	"errors"
	"time"
)

// generation defaults
const (
	DefaultTitle        = "Smart Quiz"
	DefaultNumQuestions = 5
	DefaultTimeLimit    = 120 // seconds
)

var (
	// ErrQuizNotFound quiz missing or owned by someone else
	ErrQuizNotFound = errors.New("Quiz not found")
	// ErrEmptyNotes nothing to generate questions from
	ErrEmptyNotes = errors.New("notes are required")
	// ErrGenerationFailed the generator produced no question
	ErrGenerationFailed = errors.New("Unable to generate quiz questions")
)

type QuestionModel struct {
	ID            string   `json:"id"`
	QuizID        string   `json:"-"`
	Position      int      `json:"-"`
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"-"`
	Explanation   *string  `json:"-"`
}

type QuizModel struct {
	ID        string           `json:"id"`
	UserID    string           `json:"-"`
	Title     string           `json:"title"`
	TimeLimit int              `json:"time_limit"`
	CreatedAt time.Time        `json:"created_at"`
	Questions []*QuestionModel `json:"questions,omitempty"`
}

type GenerateRequest struct {
	Notes        string `json:"notes"`
	Title        string `json:"title" validate:"max=140"`
	NumQuestions int    `json:"num_questions" validate:"min=0,max=50"`
	TimeLimit    int    `json:"time_limit" validate:"min=0"`
}

type SubmittedAnswer struct {
	QuestionID string  `json:"question_id"`
	Answer     *string `json:"answer"`
}

type AttemptRequest struct {
	Answers         []*SubmittedAnswer `json:"answers"`
	DurationSeconds int                `json:"duration_seconds" validate:"min=0"`
}

type AnswerResult struct {
	QuestionID    string  `json:"question_id"`
	Submitted     *string `json:"submitted"`
	CorrectAnswer string  `json:"correct_answer"`
	IsCorrect     bool    `json:"is_correct"`
}

type ResultModel struct {
	ID              string          `json:"id"`
	UserID          string          `json:"-"`
	QuizID          string          `json:"quiz_id"`
	Score           float64         `json:"score"`
	Breakdown       []*AnswerResult `json:"breakdown"`
	DurationSeconds int             `json:"duration_seconds"`
	CompletedAt     time.Time       `json:"completed_at"`
}

type QuizRepository interface {
	ListQuizzes(ctx context.Context, userID string) ([]*QuizModel, error)
	FindQuiz(ctx context.Context, userID, quizID string) (*QuizModel, error)
	SaveQuiz(ctx context.Context, quiz *QuizModel) error
	DeleteQuiz(ctx context.Context, userID, quizID string) (bool, error)
	SaveResult(ctx context.Context, result *ResultModel) error
}

type QuizUseCase interface {
	ListQuizzes(ctx context.Context, userID string) ([]*QuizModel, error)
	Generate(ctx context.Context, userID string, req *GenerateRequest) (*QuizModel, error)
	GetQuiz(ctx context.Context, userID, quizID string) (*QuizModel, error)
	DeleteQuiz(ctx context.Context, userID, quizID string) error
	SubmitAttempt(ctx context.Context, userID, quizID string, req *AttemptRequest) (*ResultModel, error)
}

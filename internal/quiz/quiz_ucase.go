package quiz

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pot-code/brain-trails/internal/textgen"
	"go.elastic.co/apm"
)

// QuizUseCaseImpl ...
type QuizUseCaseImpl struct {
	QuizRepository QuizRepository
	Generator      textgen.Generator
}

var _ QuizUseCase = &QuizUseCaseImpl{}

// NewQuizUseCase ...
func NewQuizUseCase(QuizRepository QuizRepository, Generator textgen.Generator) *QuizUseCaseImpl {
	return &QuizUseCaseImpl{QuizRepository, Generator}
}

func (qu *QuizUseCaseImpl) ListQuizzes(ctx context.Context, userID string) ([]*QuizModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "QuizUseCaseImpl.ListQuizzes", "service")
	defer apmSpan.End()

	return qu.QuizRepository.ListQuizzes(ctx, userID)
}

// Generate write questions about the notes and persist them as a new quiz
func (qu *QuizUseCaseImpl) Generate(ctx context.Context, userID string, req *GenerateRequest) (*QuizModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "QuizUseCaseImpl.Generate", "service")
	defer apmSpan.End()

	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		return nil, ErrEmptyNotes
	}
	n := req.NumQuestions
	if n <= 0 {
		n = DefaultNumQuestions
	}

	items, err := qu.Generator.GenerateQuiz(ctx, notes, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	quiz := &QuizModel{
		UserID:    userID,
		Title:     strings.TrimSpace(req.Title),
		TimeLimit: req.TimeLimit,
	}
	if quiz.Title == "" {
		quiz.Title = DefaultTitle
	}
	if quiz.TimeLimit <= 0 {
		quiz.TimeLimit = DefaultTimeLimit
	}
	for _, item := range items {
		if strings.TrimSpace(item.Question) == "" || strings.TrimSpace(item.CorrectAnswer) == "" {
			continue
		}
		q := &QuestionModel{
			QuestionText:  item.Question,
			Options:       item.Options,
			CorrectAnswer: item.CorrectAnswer,
		}
		if item.Explanation != "" {
			explanation := item.Explanation
			q.Explanation = &explanation
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if len(quiz.Questions) == 0 {
		return nil, ErrGenerationFailed
	}

	if err := qu.QuizRepository.SaveQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// GetQuiz quiz with its questions, answers are not exposed
func (qu *QuizUseCaseImpl) GetQuiz(ctx context.Context, userID, quizID string) (*QuizModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "QuizUseCaseImpl.GetQuiz", "service")
	defer apmSpan.End()

	quiz, err := qu.QuizRepository.FindQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

func (qu *QuizUseCaseImpl) DeleteQuiz(ctx context.Context, userID, quizID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "QuizUseCaseImpl.DeleteQuiz", "service")
	defer apmSpan.End()

	ok, err := qu.QuizRepository.DeleteQuiz(ctx, userID, quizID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrQuizNotFound
	}
	return nil
}

// SubmitAttempt grade the answers and record the result. Unanswered questions count as
// wrong, answers to unknown questions are ignored.
func (qu *QuizUseCaseImpl) SubmitAttempt(ctx context.Context, userID, quizID string, req *AttemptRequest) (*ResultModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "QuizUseCaseImpl.SubmitAttempt", "service")
	defer apmSpan.End()

	quiz, err := qu.GetQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	submitted := make(map[string]*string, len(req.Answers))
	for _, a := range req.Answers {
		if a != nil {
			submitted[a.QuestionID] = a.Answer
		}
	}

	result := &ResultModel{
		UserID:          userID,
		QuizID:          quiz.ID,
		Breakdown:       make([]*AnswerResult, 0, len(quiz.Questions)),
		DurationSeconds: req.DurationSeconds,
	}
	correct := 0
	for _, q := range quiz.Questions {
		answer := submitted[q.ID]
		item := &AnswerResult{
			QuestionID:    q.ID,
			Submitted:     answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     answer != nil && sameAnswer(*answer, q.CorrectAnswer),
		}
		if item.IsCorrect {
			correct++
		}
		result.Breakdown = append(result.Breakdown, item)
	}
	result.Score = Score(correct, len(quiz.Questions))

	if err := qu.QuizRepository.SaveResult(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func sameAnswer(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Score percentage of correct answers rounded to two decimals, zero for an empty quiz
func Score(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*10000) / 100
}

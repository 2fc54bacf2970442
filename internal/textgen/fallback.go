package textgen

import (
	"context"

	"go.uber.org/zap"
)

// Fallback asks Primary first and answers from Secondary when Primary fails or returns
// nothing. The primary error is logged, never returned; only a Secondary error surfaces.
type Fallback struct {
	Primary   Generator
	Secondary Generator
	Logger    *zap.Logger
}

var _ Generator = &Fallback{}

func (f *Fallback) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

func (f *Fallback) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	summary, err := f.Primary.Summarize(ctx, text, maxSentences)
	if err == nil && summary != "" {
		return summary, nil
	}
	if err != nil {
		f.logger().Warn("primary summarizer failed, using fallback", zap.Error(err))
	}
	return f.Secondary.Summarize(ctx, text, maxSentences)
}

func (f *Fallback) GenerateQuiz(ctx context.Context, text string, n int) ([]*QuizItem, error) {
	items, err := f.Primary.GenerateQuiz(ctx, text, n)
	if err == nil && len(items) > 0 {
		return items, nil
	}
	if err != nil {
		f.logger().Warn("primary quiz generator failed, using fallback", zap.Error(err))
	}
	return f.Secondary.GenerateQuiz(ctx, text, n)
}

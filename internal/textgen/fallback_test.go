package textgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	args := m.Called(ctx, text, maxSentences)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) GenerateQuiz(ctx context.Context, text string, n int) ([]*QuizItem, error) {
	args := m.Called(ctx, text, n)
	items, _ := args.Get(0).([]*QuizItem)
	return items, args.Error(1)
}

func TestFallback_UsesPrimaryWhenItWorks(t *testing.T) {
	primary, secondary := new(mockGenerator), new(mockGenerator)
	primary.On("Summarize", mock.Anything, "text", 3).Return("model summary", nil)

	f := &Fallback{Primary: primary, Secondary: secondary}
	out, err := f.Summarize(context.Background(), "text", 3)
	require.NoError(t, err)
	assert.Equal(t, "model summary", out)
	secondary.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything)
}

func TestFallback_SwitchesOnErrorOrEmpty(t *testing.T) {
	primary, secondary := new(mockGenerator), new(mockGenerator)
	primary.On("Summarize", mock.Anything, "text", 3).Return("", errors.New("rate limited"))
	secondary.On("Summarize", mock.Anything, "text", 3).Return("heuristic summary", nil)
	primary.On("GenerateQuiz", mock.Anything, "text", 2).Return(nil, nil)
	secondary.On("GenerateQuiz", mock.Anything, "text", 2).Return([]*QuizItem{{Question: "q"}}, nil)

	f := &Fallback{Primary: primary, Secondary: secondary, Logger: zap.NewNop()}
	out, err := f.Summarize(context.Background(), "text", 3)
	require.NoError(t, err)
	assert.Equal(t, "heuristic summary", out)

	items, err := f.GenerateQuiz(context.Background(), "text", 2)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}

func TestNew_SelectsProvider(t *testing.T) {
	assert.IsType(t, &Heuristic{}, New(&Config{Provider: ProviderHeuristic}, nil))
	assert.IsType(t, &OpenAI{}, New(&Config{Provider: ProviderOpenAI}, nil))
	assert.IsType(t, &Fallback{}, New(&Config{Provider: ProviderOpenAI, Fallback: true}, zap.NewNop()))
}

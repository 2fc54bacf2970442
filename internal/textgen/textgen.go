// Package textgen produces note summaries and quiz questions, either from a hosted
// OpenAI compatible model or from local sentence heuristics.
package textgen

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// provider names accepted by New
const (
	ProviderHeuristic = "heuristic"
	ProviderOpenAI    = "openai"
)

// ErrNoContent generation produced nothing usable
var ErrNoContent = errors.New("generator returned no content")

// QuizItem one generated multiple choice question
type QuizItem struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Generator summarizes text and writes quiz questions about it.
//
// Empty input yields an empty result and no error.
type Generator interface {
	Summarize(ctx context.Context, text string, maxSentences int) (string, error)
	GenerateQuiz(ctx context.Context, text string, n int) ([]*QuizItem, error)
}

type Config struct {
	Provider      string
	BaseURL       string
	APIKey        string
	Model         string
	MaxInputChars int
	Timeout       time.Duration
	MaxRetries    int
	Fallback      bool
}

// New build the configured generator, the model backed one is wrapped with a heuristic
// fallback when cfg.Fallback is set
func New(cfg *Config, logger *zap.Logger) Generator {
	heuristic := NewHeuristic(cfg.MaxInputChars)
	if cfg.Provider != ProviderOpenAI {
		return heuristic
	}
	model := NewOpenAI(cfg, logger)
	if !cfg.Fallback {
		return model
	}
	return &Fallback{Primary: model, Secondary: heuristic, Logger: logger}
}

// prepare trim and cut text to at most limit bytes without splitting a rune
func prepare(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	summarySystemPrompt = "You summarize study notes for a student. Answer with the summary only."
	quizSystemPrompt    = "You write multiple choice quizzes for students. Answer with JSON only."
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("chat completion http %d: %s", e.StatusCode, e.Body)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var he *httpError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	// transport failure
	return true
}

// OpenAI generator backed by an OpenAI compatible chat completions endpoint
type OpenAI struct {
	baseURL       string
	apiKey        string
	model         string
	maxInputChars int
	maxRetries    int
	backoff       time.Duration
	httpClient    *http.Client
	logger        *zap.Logger
}

var _ Generator = &OpenAI{}

func NewOpenAI(cfg *Config, logger *zap.Logger) *OpenAI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAI{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		maxInputChars: cfg.MaxInputChars,
		maxRetries:    cfg.MaxRetries,
		backoff:       time.Second,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        logger,
	}
}

func (o *OpenAI) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	text = prepare(text, o.maxInputChars)
	if text == "" {
		return "", nil
	}
	if maxSentences <= 0 {
		maxSentences = 3
	}
	prompt := fmt.Sprintf("Summarize the following notes in at most %d sentences.\n\n%s", maxSentences, text)
	out, err := o.complete(ctx, summarySystemPrompt, prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrNoContent
	}
	return out, nil
}

func (o *OpenAI) GenerateQuiz(ctx context.Context, text string, n int) ([]*QuizItem, error) {
	text = prepare(text, o.maxInputChars)
	if text == "" || n <= 0 {
		return nil, nil
	}
	prompt := fmt.Sprintf(`Write %d multiple choice questions about the notes below.
Respond with a JSON array of objects with the keys "question", "options" (4 strings) and
"correct_answer" (one of the options). Optionally add "explanation".

%s`, n, text)
	out, err := o.complete(ctx, quizSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	items, err := parseQuizItems(out)
	if err != nil {
		return nil, err
	}
	if len(items) > n {
		items = items[:n]
	}
	if len(items) == 0 {
		return nil, ErrNoContent
	}
	return items, nil
}

// parseQuizItems decode the JSON array embedded in a model reply, dropping invalid items
func parseQuizItems(reply string) ([]*QuizItem, error) {
	start, end := strings.Index(reply, "["), strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in reply", ErrNoContent)
	}
	var raw []*QuizItem
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode quiz reply: %w", err)
	}

	items := make([]*QuizItem, 0, len(raw))
	for _, item := range raw {
		if item == nil {
			continue
		}
		item.Question = strings.TrimSpace(item.Question)
		item.CorrectAnswer = strings.TrimSpace(item.CorrectAnswer)
		if item.Question == "" || item.CorrectAnswer == "" {
			continue
		}
		found := false
		for _, opt := range item.Options {
			if strings.EqualFold(strings.TrimSpace(opt), item.CorrectAnswer) {
				found = true
				break
			}
		}
		if !found {
			item.Options = append(item.Options, item.CorrectAnswer)
		}
		items = append(items, item)
	}
	return items, nil
}

func (o *OpenAI) complete(ctx context.Context, system, prompt string) (string, error) {
	body := &chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	}
	var resp chatResponse
	if err := o.doWithRetry(ctx, "/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoContent
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAI) doOnce(ctx context.Context, path string, body interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func (o *OpenAI) doWithRetry(ctx context.Context, path string, body interface{}, out interface{}) error {
	backoff := o.backoff
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := o.doOnce(ctx, path, body)
		if err == nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("failed to decode chat completion: %w", err)
			}
			return nil
		}
		if !isRetryable(err) || attempt >= o.maxRetries {
			return err
		}

		o.logger.Warn("chat completion retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", o.maxRetries),
			zap.Duration("sleep", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

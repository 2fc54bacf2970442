package textgen

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
)

const (
	optionCount     = 4
	minQuizSentence = 6 // words
)

// Heuristic sentence based generator, no network involved
type Heuristic struct {
	MaxInputChars int
}

var _ Generator = &Heuristic{}

func NewHeuristic(maxInputChars int) *Heuristic {
	return &Heuristic{MaxInputChars: maxInputChars}
}

func splitSentences(text string, terminators ...string) []string {
	for _, t := range terminators {
		text = strings.ReplaceAll(text, t, ".")
	}
	var out []string
	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Summarize the leading sentences joined with ". "
func (h *Heuristic) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	text = prepare(text, h.MaxInputChars)
	if text == "" {
		return "", nil
	}
	sentences := splitSentences(text, "!")
	if maxSentences > 0 && len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}
	return strings.Join(sentences, ". "), nil
}

// GenerateQuiz fill in the blank questions on the last word of long enough sentences
func (h *Heuristic) GenerateQuiz(ctx context.Context, text string, n int) ([]*QuizItem, error) {
	text = prepare(text, h.MaxInputChars)
	if text == "" || n <= 0 {
		return nil, nil
	}
	pool := splitSentences(text, "?")
	if len(pool) > 2*n {
		pool = pool[:2*n]
	}

	var items []*QuizItem
	for i, sentence := range pool {
		if len(items) >= n {
			break
		}
		words := strings.Fields(sentence)
		if len(words) < minQuizSentence {
			continue
		}
		answer := strings.Trim(words[len(words)-1], ",")
		var candidates []string
		for j, other := range pool {
			if j == i || other == sentence {
				continue
			}
			fields := strings.Fields(other)
			candidates = append(candidates, fields[len(fields)-1])
		}
		items = append(items, &QuizItem{
			Question:      fmt.Sprintf("What word best completes: %s ___ ?", strings.Join(words[:len(words)-1], " ")),
			CorrectAnswer: answer,
			Options:       buildOptions(answer, candidates),
		})
	}
	return items, nil
}

// buildOptions answer plus up to three distinct distractors, padded and shuffled with a
// seed derived from the answer so the same input always gives the same order
func buildOptions(answer string, candidates []string) []string {
	options := []string{answer}
	seen := map[string]bool{strings.ToLower(answer): true}
	for _, c := range candidates {
		if len(options) >= optionCount {
			break
		}
		c = strings.Trim(strings.TrimSpace(c), ".,")
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		options = append(options, c)
	}
	for i := 1; len(options) < optionCount; i++ {
		options = append(options, fmt.Sprintf("Option %d", i))
	}
	rng := rand.New(rand.NewSource(int64(len(answer))))
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

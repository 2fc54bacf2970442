package textgen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const notes = `Photosynthesis converts light energy into chemical energy inside plants.
The process takes place in the chloroplasts of green leaf cells. Short one.
Plants absorb carbon dioxide through tiny pores called stomata? Oxygen is released into the air as a byproduct.`

func TestHeuristic_Summarize(t *testing.T) {
	h := NewHeuristic(4000)
	ctx := context.Background()

	summary, err := h.Summarize(ctx, notes, 2)
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light energy into chemical energy inside plants. "+
		"The process takes place in the chloroplasts of green leaf cells", summary)

	summary, err = h.Summarize(ctx, "First! Second. Third", 5)
	require.NoError(t, err)
	assert.Equal(t, "First. Second. Third", summary)

	summary, err = h.Summarize(ctx, "   ", 3)
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestHeuristic_GenerateQuiz(t *testing.T) {
	h := NewHeuristic(4000)
	items, err := h.GenerateQuiz(context.Background(), notes, 3)
	require.NoError(t, err)
	require.Len(t, items, 3)

	first := items[0]
	assert.Equal(t, "What word best completes: Photosynthesis converts light energy into chemical energy inside ___ ?", first.Question)
	assert.Equal(t, "plants", first.CorrectAnswer)
	assert.Len(t, first.Options, 4)
	assert.Contains(t, first.Options, "plants")
	assert.Contains(t, first.Options, "cells")

	// sentences under six words are skipped
	for _, item := range items {
		assert.NotContains(t, item.Question, "Short one")
	}

	again, err := h.GenerateQuiz(context.Background(), notes, 3)
	require.NoError(t, err)
	assert.Equal(t, first.Options, again[0].Options, "option order is deterministic")
}

func TestHeuristic_GenerateQuizLimitsPool(t *testing.T) {
	h := NewHeuristic(4000)
	// only the first 2n sentences are considered
	text := "One two three. Four five six. Alpha beta gamma delta epsilon zeta eta."
	items, err := h.GenerateQuiz(context.Background(), text, 1)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = h.GenerateQuiz(context.Background(), "", 3)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBuildOptions(t *testing.T) {
	opts := buildOptions("Paris", []string{"paris", "Rome.", "Rome", " ", "Berlin", "Madrid", "Lisbon"})
	assert.Len(t, opts, 4)
	assert.ElementsMatch(t, []string{"Paris", "Rome", "Berlin", "Madrid"}, opts)

	opts = buildOptions("x", nil)
	assert.ElementsMatch(t, []string{"x", "Option 1", "Option 2", "Option 3"}, opts)
}

func TestPrepare(t *testing.T) {
	assert.Equal(t, "abc", prepare("  abc  ", 10))
	assert.Equal(t, "ab", prepare("abcdef", 2))
	// never splits a multi-byte rune
	assert.Equal(t, "é", prepare("éé", 3))
	assert.Equal(t, strings.Repeat("a", 5), prepare(strings.Repeat("a", 5), 0))
}

package textgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func newTestOpenAI(url string, retries int) *OpenAI {
	o := NewOpenAI(&Config{BaseURL: url + "/", APIKey: "k", Model: "m", MaxInputChars: 4000, MaxRetries: retries, Timeout: 5 * time.Second}, zap.NewNop())
	o.backoff = time.Millisecond
	return o
}

func TestOpenAI_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "m", req.Model)
		if !assert.Len(t, req.Messages, 2) {
			return
		}
		assert.Contains(t, req.Messages[1].Content, "at most 2 sentences")
		reply(w, "  Plants make food.  ")
	}))
	defer srv.Close()

	summary, err := newTestOpenAI(srv.URL, 0).Summarize(context.Background(), "Plants make food from light.", 2)
	require.NoError(t, err)
	assert.Equal(t, "Plants make food.", summary)
}

func TestOpenAI_GenerateQuiz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(w, "```json\n"+`[
			{"question": "Where does photosynthesis happen?", "options": ["Roots", "Chloroplasts", "Stem", "Soil"], "correct_answer": "Chloroplasts"},
			{"question": "", "options": [], "correct_answer": "x"},
			{"question": "What gas is released?", "options": ["Nitrogen", "Helium"], "correct_answer": "Oxygen"}
		]`+"\n```")
	}))
	defer srv.Close()

	items, err := newTestOpenAI(srv.URL, 0).GenerateQuiz(context.Background(), "notes", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Chloroplasts", items[0].CorrectAnswer)
	assert.Contains(t, items[1].Options, "Oxygen")
}

func TestOpenAI_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		reply(w, "ok")
	}))
	defer srv.Close()

	summary, err := newTestOpenAI(srv.URL, 2).Summarize(context.Background(), "text", 1)
	require.NoError(t, err)
	assert.Equal(t, "ok", summary)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestOpenAI_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestOpenAI(srv.URL, 3).Summarize(context.Background(), "text", 1)
	var he *httpError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestParseQuizItems_NoArray(t *testing.T) {
	_, err := parseQuizItems("sorry, I cannot help")
	assert.ErrorIs(t, err, ErrNoContent)
}

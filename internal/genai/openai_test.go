package genai_test

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

	"github.com/jmalhotra/tripforge/backend/internal/domain"
	"github.com/jmalhotra/tripforge/backend/internal/genai"
)

// completionBody is the minimal chat-completion response shape the client
// reads back.
func completionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
	}
}

// newClient points an OpenAIClient at the given test server with fast retries.
func newClient(srv *httptest.Server) *genai.OpenAIClient {
	return genai.NewOpenAIClient(genai.Config{
		APIKey:    "test-key",
		Model:     "gpt-4o-mini",
		BaseURL:   srv.URL + "/v1",
		RetryBase: time.Millisecond,
	})
}

func TestGenerate_ReturnsRawText(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		gotPrompt = req.Messages[1].Content

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody(`[{"day":1,"activities":[]}]`))
	}))
	defer srv.Close()

	got, err := newClient(srv).Generate(context.Background(), "make me a plan")

	require.NoError(t, err)
	assert.Equal(t, `[{"day":1,"activities":[]}]`, got)
	assert.Equal(t, "make me a plan", gotPrompt)
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("[]"))
	}))
	defer srv.Close()

	got, err := newClient(srv).Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "[]", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerate_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newClient(srv).Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_EmptyPayloadFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("   "))
	}))
	defer srv.Close()

	_, err := newClient(srv).Generate(context.Background(), "prompt")

	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestGenerate_ExhaustedRetriesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"down"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newClient(srv).Generate(context.Background(), "prompt")

	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

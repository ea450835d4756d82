package llm

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
)

func completionServer(t *testing.T, failFirst int, seen *map[string]any) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if int(n) <= failFirst {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable"}}`))
			return
		}

		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "qwen-plus",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "<p>ok</p>"}}],
			"usage": {"prompt_tokens": 11, "completion_tokens": 3, "total_tokens": 14}
		}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestChat(t *testing.T) {
	var body map[string]any
	srv, calls := completionServer(t, 0, &body)

	c := NewClient(Config{APIKey: "test-key", Endpoint: srv.URL})
	resp, err := c.Chat(context.Background(), ChatRequest{
		SystemPrompt: "You are an analyst.",
		UserPrompt:   "Summarise.",
		Temperature:  0.3,
		MaxTokens:    200,
		JSONMode:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, "<p>ok</p>", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 14, resp.Usage.TotalTokens)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	assert.Equal(t, ModelQwenPlus, body["model"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestChatNoRetryByDefault(t *testing.T) {
	srv, calls := completionServer(t, 1, nil)

	c := NewClient(Config{APIKey: "test-key", Endpoint: srv.URL})
	_, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "x"})

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestChatRetriesPerPolicy(t *testing.T) {
	srv, calls := completionServer(t, 2, nil)

	c := NewClient(Config{
		APIKey:   "test-key",
		Endpoint: srv.URL,
		Policy:   Policy{Retries: 2, RetryWait: time.Millisecond},
	})
	resp, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", resp.Content)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestChatTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(Config{
		APIKey:   "test-key",
		Endpoint: srv.URL,
		Policy:   Policy{Timeout: 50 * time.Millisecond},
	})
	_, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "x"})
	assert.Error(t, err)
}

package openaicompat_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/no-bike/software-aibot/internal/config"
	"github.com/no-bike/software-aibot/internal/llm/openaicompat"
	"github.com/no-bike/software-aibot/pkg/api"
)

func TestAdapterChat(t *testing.T) {
	// Mock Server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"created": 1677652288,
			"model": "deepseek-chat",
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": "Hello there!"
				},
				"finish_reason": "stop"
			}],
			"usage": {
				"prompt_tokens": 9,
				"completion_tokens": 12,
				"total_tokens": 21
			}
		}`))
	}))
	defer server.Close()

	adapter := openaicompat.New(config.ProviderConfig{
		ID:      "deepseek-test",
		Type:    "deepseek",
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
	}, "deepseek")

	resp, err := adapter.Chat(context.Background(), &api.ChatRequest{
		Model: "deepseek-chat",
		Messages: []api.ChatMessage{
			{Role: "user", Content: "Hi"},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "Hello there!", resp.Choices[0].Message.Content)
	assert.Equal(t, 21, resp.Usage.TotalTokens)
	assert.Equal(t, "deepseek-test", adapter.Name())
	assert.Equal(t, "deepseek", adapter.Type())
}

func TestAdapterChatUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer server.Close()

	adapter := openaicompat.New(config.ProviderConfig{
		ID:      "p",
		Type:    "deepseek",
		APIKey:  "bad-key",
		BaseURL: server.URL,
	}, "deepseek")

	_, err := adapter.Chat(context.Background(), &api.ChatRequest{
		Model:    "deepseek-chat",
		Messages: []api.ChatMessage{{Role: "user", Content: "Hi"}},
	})

	require.Error(t, err)
	var problem *api.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, http.StatusUnauthorized, problem.Status)
	assert.Equal(t, "Invalid API key", problem.Detail)
}

func TestAdapterExtraHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "org-42", r.Header.Get("X-Org"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}]}`))
	}))
	defer server.Close()

	adapter := openaicompat.New(config.ProviderConfig{
		ID:      "p",
		Type:    "custom",
		APIKey:  "k",
		BaseURL: server.URL,
		Config:  map[string]string{"header:X-Org": "org-42"},
	}, "custom")

	_, err := adapter.Chat(context.Background(), &api.ChatRequest{
		Model:    "m",
		Messages: []api.ChatMessage{{Role: "user", Content: "Hi"}},
	})
	require.NoError(t, err)
}

func TestAdapterStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		chunks := []string{
			`data: {"choices": [{"index": 0, "delta": {"role": "assistant", "content": "Hel"}}]}`,
			`data: {"choices": [{"index": 0, "delta": {"content": "lo"}}]}`,
			`: keep-alive`,
			`data: [DONE]`,
		}
		for _, c := range chunks {
			_, _ = w.Write([]byte(c + "\n\n"))
		}
	}))
	defer server.Close()

	adapter := openaicompat.New(config.ProviderConfig{
		ID:      "p",
		Type:    "deepseek",
		APIKey:  "k",
		BaseURL: server.URL,
	}, "deepseek")

	ch, err := adapter.Stream(context.Background(), &api.ChatRequest{
		Model:    "deepseek-chat",
		Messages: []api.ChatMessage{{Role: "user", Content: "Hi"}},
	})
	require.NoError(t, err)

	var got string
	for result := range ch {
		require.NoError(t, result.Err)
		if len(result.Response.Choices) > 0 && result.Response.Choices[0].Delta != nil {
			got += result.Response.Choices[0].Delta.Content
		}
	}

	assert.Equal(t, "Hello", got)
}

func TestAdapterHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"object": "list", "data": []}`))
	}))
	defer server.Close()

	adapter := openaicompat.New(config.ProviderConfig{
		ID:      "p",
		Type:    "deepseek",
		APIKey:  "k",
		BaseURL: server.URL,
	}, "deepseek")

	assert.NoError(t, adapter.Health(context.Background()))
}

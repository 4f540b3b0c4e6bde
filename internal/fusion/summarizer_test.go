package fusion_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/no-bike/software-aibot/internal/fusion"
	"github.com/no-bike/software-aibot/pkg/api"
)

func TestChatSummarizerSummarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deepseek-chat", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		// the user prompt carries the query and every candidate with its
		// source model and quality score
		prompt := req.Messages[1].Content
		assert.Contains(t, prompt, "什么是围棋")
		assert.Contains(t, prompt, "model-a")
		assert.Contains(t, prompt, "质量分数: 2")
		assert.Contains(t, prompt, "first answer")
		assert.Contains(t, prompt, "second answer")

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "deepseek-chat",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "融合后的答案"},
				"finish_reason": "stop"
			}]
		}`))
	}))
	defer server.Close()

	summarizer := fusion.NewChatSummarizer(server.URL, "test-key", "deepseek-chat", 5*time.Second)

	out, err := summarizer.Summarize(context.Background(), "什么是围棋", []api.Candidate{
		{ModelID: "model-a", Content: "first answer", Rank: 1, QualityScore: 2},
		{ModelID: "model-b", Content: "second answer", Rank: 2, QualityScore: 1},
	}, "")

	require.NoError(t, err)
	assert.Equal(t, "融合后的答案", out)
}

func TestChatSummarizerIncludesInstruction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[1].Content, "回答要简短")

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	summarizer := fusion.NewChatSummarizer(server.URL, "k", "deepseek-chat", 5*time.Second)

	_, err := summarizer.Summarize(context.Background(), "q", []api.Candidate{
		{ModelID: "m", Content: "c"},
	}, "回答要简短")
	require.NoError(t, err)
}

func TestChatSummarizerNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	summarizer := fusion.NewChatSummarizer(server.URL, "k", "deepseek-chat", 5*time.Second)

	_, err := summarizer.Summarize(context.Background(), "q", []api.Candidate{{ModelID: "m", Content: "c"}}, "")
	assert.Error(t, err)
}

func TestChatSummarizerUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	summarizer := fusion.NewChatSummarizer(server.URL, "k", "deepseek-chat", 5*time.Second)

	_, err := summarizer.Summarize(context.Background(), "q", []api.Candidate{{ModelID: "m", Content: "c"}}, "")
	assert.Error(t, err)
}

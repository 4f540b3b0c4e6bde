package fusion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/no-bike/software-aibot/internal/httpclient"
	"github.com/no-bike/software-aibot/pkg/api"
)

// Summarizer synthesizes one answer from the top-k ranked candidates via a
// remote large model. It is the primary strategy for Chinese input and the
// generative fallback when the local fuser is unavailable or degenerate.
type Summarizer interface {
	Summarize(ctx context.Context, query string, top []api.Candidate, instruction string) (string, error)
}

const summarizerSystemPrompt = "你是一个专业的AI回答融合专家。你的任务是将多个AI模型的回答进行智能融合，" +
	"生成一个更准确、更全面、更有用的综合答案。请保持客观、准确，并尽可能结合各个回答的优点。"

// ChatSummarizer calls an OpenAI-compatible chat-completions endpoint. The
// call is synchronous request/response with a fixed timeout, never streaming.
type ChatSummarizer struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewChatSummarizer(baseURL, apiKey, model string, timeout time.Duration) *ChatSummarizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatSummarizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *ChatSummarizer) Summarize(ctx context.Context, query string, top []api.Candidate, instruction string) (string, error) {
	req := api.ChatRequest{
		Model: s.model,
		Messages: []api.ChatMessage{
			{Role: "system", Content: summarizerSystemPrompt},
			{Role: "user", Content: buildFusionPrompt(query, top, instruction)},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
		Stream:      false,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + s.apiKey,
	}

	var resp api.ChatResponse
	url := s.baseURL + "/chat/completions"
	if err := httpclient.SendRequest(ctx, s.client, "POST", url, headers, &req, &resp); err != nil {
		return "", fmt.Errorf("summarizer call failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return "", fmt.Errorf("summarizer returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// buildFusionPrompt labels every candidate with its source model and quality
// score, then instructs the remote model to reconcile overlapping claims,
// contrast differing viewpoints, correct factual errors and answer directly
// with no meta-commentary.
func buildFusionPrompt(query string, top []api.Candidate, instruction string) string {
	var b strings.Builder

	if instruction != "" {
		fmt.Fprintf(&b, "**任务指令**: %s\n\n", instruction)
	}

	fmt.Fprintf(&b, "**用户问题**: %s\n\n", query)
	b.WriteString("**多个AI模型的回答**:")

	for i, c := range top {
		modelID := c.ModelID
		if modelID == "" {
			modelID = fmt.Sprintf("模型%d", i+1)
		}
		fmt.Fprintf(&b, "\n\n**回答 %d (来源: %s, 质量分数: %d)**:\n%s", i+1, modelID, c.QualityScore, c.Content)
	}

	b.WriteString(`

**融合要求**:
1. 请仔细分析上述各个AI模型的回答
2. 识别每个回答的优点和不足
3. 将这些回答的优势部分进行智能融合
4. 生成一个更准确、更全面、更有条理的综合答案
5. 确保答案逻辑清晰，信息完整
6. 如果发现回答之间有冲突，请给出平衡的观点或说明不同角度
7. 如果发现错误信息，请指出并纠正

**请直接给出融合后的最终答案，不需要额外的说明或分析过程**:`)

	return b.String()
}

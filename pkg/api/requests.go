package api

// ChatRequest is the OpenAI-compatible chat completion request accepted by the
// gateway and forwarded to upstream providers.
type ChatRequest struct {
	// message array is required, dive in and deep validate
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`

	// the model to send the request to (e.g. "deepseek-chat", "moonshot-v1-8k")
	Model string `json:"model" binding:"required"`

	// Enable streaming, defaults to `false` (empty)
	Stream bool `json:"stream,omitempty"`

	// LLM Parameters
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`

	// ConversationID, when set, attaches the exchange to a stored conversation.
	ConversationID string `json:"conversation_id,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// MultiChatRequest fans a single user message out to several configured models
// and optionally fuses their answers into one.
type MultiChatRequest struct {
	Message        string   `json:"message" binding:"required"`
	ModelIDs       []string `json:"model_ids" binding:"required,min=1"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Fuse           bool     `json:"fuse,omitempty"`
	TopK           int      `json:"top_k,omitempty"`
	Instruction    string   `json:"instruction,omitempty"`
}

type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
	System    Role = "system"
)

package llm

import (
	"context"

	"github.com/no-bike/software-aibot/pkg/api"
)

// Provider is a chat backend the gateway can dispatch to. Implementations are
// purely sources of candidate content; they hold their own credentials.
type Provider interface {
	Name() string
	Type() string // e.g. "deepseek", "moonshot"
	Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)
	Stream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error)
	Health(ctx context.Context) error
}

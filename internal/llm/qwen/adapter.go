package qwen

import (
	"github.com/no-bike/software-aibot/internal/config"
	"github.com/no-bike/software-aibot/internal/llm"
	"github.com/no-bike/software-aibot/internal/llm/openaicompat"
)

func init() {
	llm.Register("qwen", New)
}

// New wires Qwen through DashScope's OpenAI compatible mode.
func New(cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}
	return openaicompat.New(cfg, "qwen"), nil
}

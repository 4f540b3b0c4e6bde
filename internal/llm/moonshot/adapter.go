package moonshot

import (
	"github.com/no-bike/software-aibot/internal/config"
	"github.com/no-bike/software-aibot/internal/llm"
	"github.com/no-bike/software-aibot/internal/llm/openaicompat"
)

func init() {
	llm.Register("moonshot", New)
}

func New(cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.moonshot.cn/v1"
	}
	return openaicompat.New(cfg, "moonshot"), nil
}

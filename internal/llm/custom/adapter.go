package custom

import (
	"fmt"

	"github.com/no-bike/software-aibot/internal/config"
	"github.com/no-bike/software-aibot/internal/llm"
	"github.com/no-bike/software-aibot/internal/llm/openaicompat"
)

func init() {
	llm.Register("custom", New)
}

// New builds a user-defined OpenAI-compatible provider. Unlike the built-in
// types there is no default endpoint, so the base URL is mandatory.
func New(cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("custom provider %q requires a base_url", cfg.ID)
	}
	return openaicompat.New(cfg, "custom"), nil
}

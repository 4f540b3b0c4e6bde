package spark

import (
	"github.com/no-bike/software-aibot/internal/config"
	"github.com/no-bike/software-aibot/internal/llm"
	"github.com/no-bike/software-aibot/internal/llm/openaicompat"
)

func init() {
	llm.Register("spark", New)
}

// New wires iFlytek Spark X1 through its HTTP chat endpoint.
func New(cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://spark-api-open.xf-yun.com/v1"
	}
	return openaicompat.New(cfg, "spark"), nil
}

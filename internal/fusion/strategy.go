package fusion

import (
	"context"

	"github.com/no-bike/software-aibot/pkg/api"
)

// strategy is one fusion approach in the fallback chain.
type strategy struct {
	method api.FusionMethod
	run    func(ctx context.Context) (string, error)
}

// runChain tries each strategy in order and returns the first success. The
// caller guarantees the last strategy is total, so a non-empty chain always
// produces a result; diagnostic carries the message of the last absorbed
// failure.
func runChain(ctx context.Context, chain []strategy) (content string, method api.FusionMethod, diagnostic string) {
	for _, s := range chain {
		out, err := s.run(ctx)
		if err != nil {
			diagnostic = err.Error()
			continue
		}
		return out, s.method, diagnostic
	}
	// unreachable when the chain ends in a total strategy
	return "", api.MethodError, diagnostic
}

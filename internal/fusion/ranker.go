package fusion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/no-bike/software-aibot/internal/httpclient"
)

// Ranker produces a total quality order over candidate answers. Rank returns,
// for each input position, an integer rank (1 = best) forming a bijection onto
// 1..N. The underlying pairwise-comparison model is opaque to this package.
type Ranker interface {
	Rank(ctx context.Context, query string, candidates []string, instruction string) ([]int, error)
}

// PairRanker talks to a pairwise-ranking inference sidecar over HTTP.
type PairRanker struct {
	baseURL string
	client  *http.Client
}

func NewPairRanker(baseURL string, timeout time.Duration) *PairRanker {
	return &PairRanker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Warmup asks the sidecar to pull its model weights into memory. This is the
// expensive part of the lazy load.
func (r *PairRanker) Warmup(ctx context.Context) error {
	return httpclient.SendRequest(ctx, r.client, "POST", r.baseURL+"/warmup", nil, nil, nil)
}

type rankRequest struct {
	Query       string   `json:"query"`
	Candidates  []string `json:"candidates"`
	Instruction string   `json:"instruction,omitempty"`
}

type rankResponse struct {
	Ranks []int `json:"ranks"`
}

func (r *PairRanker) Rank(ctx context.Context, query string, candidates []string, instruction string) ([]int, error) {
	var resp rankResponse
	req := rankRequest{Query: query, Candidates: candidates, Instruction: instruction}

	if err := httpclient.SendRequest(ctx, r.client, "POST", r.baseURL+"/rank", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("ranker call failed: %w", err)
	}

	if err := validatePermutation(resp.Ranks, len(candidates)); err != nil {
		return nil, err
	}

	return resp.Ranks, nil
}

// validatePermutation checks that ranks is a bijection onto 1..n.
func validatePermutation(ranks []int, n int) error {
	if len(ranks) != n {
		return fmt.Errorf("ranker returned %d ranks for %d candidates", len(ranks), n)
	}
	seen := make([]bool, n)
	for _, rk := range ranks {
		if rk < 1 || rk > n || seen[rk-1] {
			return fmt.Errorf("ranker output is not a permutation of 1..%d: %v", n, ranks)
		}
		seen[rk-1] = true
	}
	return nil
}

package fusion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/no-bike/software-aibot/internal/httpclient"
)

// FuseOptions widens the generative model's input window for a single call.
// The limits are call-scoped parameters, never mutations of shared model
// state, so concurrent requests cannot leak configuration into each other.
type FuseOptions struct {
	MaxLength          int
	CandidateMaxLength int
}

// Fuser synthesizes a new answer conditioned on the query, instruction and
// the top-k candidate texts. The sequence-to-sequence model behind it is
// opaque to this package.
type Fuser interface {
	Fuse(ctx context.Context, query string, candidates []string, instruction string, opts FuseOptions) (string, error)
}

// GenFuser talks to a generative-fusion inference sidecar over HTTP.
type GenFuser struct {
	baseURL string
	client  *http.Client
}

func NewGenFuser(baseURL string, timeout time.Duration) *GenFuser {
	return &GenFuser{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Warmup asks the sidecar to pull its model weights into memory.
func (f *GenFuser) Warmup(ctx context.Context) error {
	return httpclient.SendRequest(ctx, f.client, "POST", f.baseURL+"/warmup", nil, nil, nil)
}

type fuseRequest struct {
	Query       string   `json:"query"`
	Candidates  []string `json:"candidates"`
	Instruction string   `json:"instruction,omitempty"`

	// Per-call length limits; the combined top-k input routinely exceeds the
	// model's defaults.
	MaxLength          int `json:"max_length,omitempty"`
	CandidateMaxLength int `json:"candidate_max_length,omitempty"`
}

type fuseResponse struct {
	Fused string `json:"fused"`
}

func (f *GenFuser) Fuse(ctx context.Context, query string, candidates []string, instruction string, opts FuseOptions) (string, error) {
	req := fuseRequest{
		Query:              query,
		Candidates:         candidates,
		Instruction:        instruction,
		MaxLength:          opts.MaxLength,
		CandidateMaxLength: opts.CandidateMaxLength,
	}

	var resp fuseResponse
	if err := httpclient.SendRequest(ctx, f.client, "POST", f.baseURL+"/fuse", nil, req, &resp); err != nil {
		return "", fmt.Errorf("fuser call failed: %w", err)
	}

	return resp.Fused, nil
}

// DegenerateOutput is the default quality gate: a high fraction of literal '?'
// characters signals a decode failure in some generative backends. The
// threshold is a placeholder heuristic, kept behind the QualityGate hook on
// the engine so it can be replaced with a calibrated confidence signal.
func DegenerateOutput(s string) bool {
	if s == "" {
		return true
	}
	runes := []rune(s)
	marks := 0
	for _, r := range runes {
		if r == '?' {
			marks++
		}
	}
	return float64(marks) > float64(len(runes))*0.3
}

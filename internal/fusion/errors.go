package fusion

import (
	"errors"
	"fmt"
)

// ErrNoCandidates is the one failure fusion cannot paper over: zero candidates
// were supplied where at least one is required. It is surfaced to the caller
// as a rejected request.
var ErrNoCandidates = errors.New("fusion: no candidates supplied")

// ErrDegenerateOutput marks generative output rejected by the quality gate.
var ErrDegenerateOutput = errors.New("fusion: degenerate fuser output")

// LoadError wraps a failed lazy model initialization. Recovered locally by the
// orchestrator, never surfaced to end users.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("model load failed: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// GenerationError wraps a runtime failure of the fuser or summarizer. Triggers
// a cascade to the next fallback level.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

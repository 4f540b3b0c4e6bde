package fusion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/no-bike/software-aibot/pkg/api"
)

// Options tunes the orchestrator. Zero values fall back to defaults.
type Options struct {
	DefaultTopK  int
	StageTimeout time.Duration
	FuseOptions  FuseOptions

	// QualityGate rejects degenerate generative output. Defaults to the
	// '?'-ratio heuristic in DegenerateOutput.
	QualityGate func(string) bool
}

// Engine sequences ranking, strategy selection, fusion and fallback. It owns
// the lazy-load lifecycle of the ranker and fuser, which are process-wide
// singletons shared across concurrent requests.
type Engine struct {
	logger     *zap.Logger
	ranker     *Resource[Ranker]
	fuser      *Resource[Fuser]
	summarizer Summarizer
	opts       Options
	tracer     trace.Tracer
}

func NewEngine(logger *zap.Logger, ranker *Resource[Ranker], fuser *Resource[Fuser], summarizer Summarizer, opts Options) *Engine {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 3
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = 60 * time.Second
	}
	if opts.FuseOptions.MaxLength <= 0 {
		opts.FuseOptions.MaxLength = 2048
	}
	if opts.FuseOptions.CandidateMaxLength <= 0 {
		opts.FuseOptions.CandidateMaxLength = 1024
	}
	if opts.QualityGate == nil {
		opts.QualityGate = DegenerateOutput
	}

	return &Engine{
		logger:     logger,
		ranker:     ranker,
		fuser:      fuser,
		summarizer: summarizer,
		opts:       opts,
		tracer:     otel.Tracer("fusion"),
	}
}

// Status reports which pipeline stages are currently available.
func (e *Engine) Status() map[string]bool {
	return map[string]bool{
		"ranker_loaded":         e.ranker.Loaded(),
		"fuser_loaded":          e.fuser.Loaded(),
		"summarizer_configured": e.summarizer != nil,
	}
}

// RankResponses orders candidates by quality, best first. Ranking failures
// degrade to identity order; the only rejected input is an empty candidate
// set.
func (e *Engine) RankResponses(ctx context.Context, query string, candidates []api.Candidate, instruction string) ([]api.Candidate, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return e.rank(ctx, query, candidates, instruction), nil
}

// FuseResponses synthesizes one answer from candidates taken in their given
// order (no ranking). The fallback chain guarantees a non-empty result for
// any non-empty input.
func (e *Engine) FuseResponses(ctx context.Context, query string, candidates []api.Candidate, instruction string, topK int) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	content, _, _, _ := e.fuse(ctx, query, candidates, instruction, topK)
	return content, nil
}

// RankAndFuse is the primary entry point: rank, gate on language, fuse,
// cascade on failure. It never returns an error for well-formed input with at
// least one candidate.
func (e *Engine) RankAndFuse(ctx context.Context, req *api.FusionRequest) (res *api.FusionResult, err error) {
	if len(req.Candidates) == 0 {
		return nil, ErrNoCandidates
	}

	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "fusion.rank_and_fuse")
	defer span.End()

	// Fusion enhances, it does not gate: a panic anywhere below degrades to
	// the first candidate rather than surfacing to the chat flow.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("fusion orchestrator panic", zap.Any("panic", r))
			res = &api.FusionResult{
				FusedContent:      req.Candidates[0].Content,
				RankedResponses:   req.Candidates,
				FusionMethod:      api.MethodError,
				Language:          DetectLanguage(req.Query),
				ProcessingSeconds: time.Since(start).Seconds(),
				Diagnostic:        fmt.Sprint(r),
			}
			err = nil
		}
	}()

	mode := req.Mode
	if mode == "" {
		mode = api.ModeRankAndFuse
	}

	result := &api.FusionResult{}

	switch mode {
	case api.ModeRankOnly:
		ranked := e.rank(ctx, req.Query, req.Candidates, req.Instruction)
		result.RankedResponses = ranked
		result.BestResponse = &ranked[0]
		result.FusedContent = ranked[0].Content
		result.FusionMethod = api.MethodRankOnly
		result.Language = DetectLanguage(contentsOf(req.Query, ranked)...)

	case api.ModeFuseOnly:
		ordered := cloneCandidates(req.Candidates)
		content, method, lang, diag := e.fuse(ctx, req.Query, ordered, req.Instruction, req.TopK)
		result.RankedResponses = ordered
		result.FusedContent = content
		result.FusionMethod = method
		result.Language = lang
		result.Diagnostic = diag

	default:
		ranked := e.rank(ctx, req.Query, req.Candidates, req.Instruction)
		content, method, lang, diag := e.fuse(ctx, req.Query, ranked, req.Instruction, req.TopK)
		result.RankedResponses = ranked
		result.BestResponse = &ranked[0]
		result.FusedContent = content
		result.FusionMethod = method
		result.Language = lang
		result.Diagnostic = diag
	}

	result.ProcessingSeconds = time.Since(start).Seconds()

	span.SetAttributes(
		attribute.String("fusion.method", string(result.FusionMethod)),
		attribute.String("fusion.language", string(result.Language)),
		attribute.Int("fusion.candidates", len(req.Candidates)),
	)

	e.logger.Info("fusion complete",
		zap.String("mode", string(mode)),
		zap.String("method", string(result.FusionMethod)),
		zap.String("language", string(result.Language)),
		zap.Float64("seconds", result.ProcessingSeconds),
	)

	return result, nil
}

// rank produces a ranked copy of candidates, best first. It cannot fail:
// model-load or scoring errors degrade to identity order so ranking is never
// a hard dependency for returning some answer.
func (e *Engine) rank(ctx context.Context, query string, candidates []api.Candidate, instruction string) []api.Candidate {
	n := len(candidates)

	if n == 1 {
		out := cloneCandidates(candidates)
		out[0].Rank = 1
		out[0].QualityScore = 1
		return out
	}

	ranker, err := e.ranker.Get(ctx)
	if err != nil {
		e.logger.Warn("ranker unavailable, using identity order", zap.Error(err))
		return identityRank(candidates)
	}

	stageCtx, cancel := context.WithTimeout(ctx, e.opts.StageTimeout)
	defer cancel()

	contents := make([]string, n)
	for i, c := range candidates {
		contents[i] = c.Content
	}

	ranks, err := ranker.Rank(stageCtx, query, contents, instruction)
	if err != nil {
		e.logger.Warn("ranking failed, using identity order", zap.Error(err))
		return identityRank(candidates)
	}

	// reorder so position 0 holds rank 1
	out := make([]api.Candidate, n)
	for i, rk := range ranks {
		c := candidates[i]
		c.Rank = rk
		c.QualityScore = n - rk + 1
		out[rk-1] = c
	}
	return out
}

// fuse slices top-k from the ordered candidates, picks the strategy chain by
// language and runs it. The terminal concatenation strategy is total, so this
// always yields content for a non-empty input.
func (e *Engine) fuse(ctx context.Context, query string, ordered []api.Candidate, instruction string, topK int) (string, api.FusionMethod, api.Language, string) {
	if topK <= 0 {
		topK = e.opts.DefaultTopK
	}
	if topK > len(ordered) {
		topK = len(ordered)
	}
	top := ordered[:topK]

	lang := DetectLanguage(contentsOf(query, top)...)

	if len(ordered) == 1 {
		// single candidate: nothing to synthesize
		return ordered[0].Content, api.MethodSimpleConcat, lang, ""
	}

	concat := strategy{
		method: api.MethodSimpleConcat,
		run: func(context.Context) (string, error) {
			return SimpleConcat(ordered, topK), nil
		},
	}
	summarize := strategy{
		method: api.MethodDeepSeekChinese,
		run: func(ctx context.Context) (string, error) {
			return e.summarize(ctx, query, top, instruction)
		},
	}
	genfuse := strategy{
		method: api.MethodGenFuserEnglish,
		run: func(ctx context.Context) (string, error) {
			return e.genFuse(ctx, query, top, instruction)
		},
	}

	var chain []strategy
	if lang == api.LanguageChinese {
		// the remote summarizer handles Chinese far better than the local
		// fuser, so it takes priority regardless of fuser availability
		chain = []strategy{summarize, concat}
	} else {
		chain = []strategy{genfuse, summarize, concat}
	}

	content, method, diag := runChain(ctx, chain)
	if diag != "" {
		e.logger.Warn("fusion degraded",
			zap.String("method", string(method)),
			zap.String("diagnostic", diag),
		)
	}
	return content, method, lang, diag
}

func (e *Engine) genFuse(ctx context.Context, query string, top []api.Candidate, instruction string) (string, error) {
	fuser, err := e.fuser.Get(ctx)
	if err != nil {
		return "", err
	}

	stageCtx, cancel := context.WithTimeout(ctx, e.opts.StageTimeout)
	defer cancel()

	contents := make([]string, len(top))
	for i, c := range top {
		contents[i] = c.Content
	}

	out, err := fuser.Fuse(stageCtx, query, contents, instruction, e.opts.FuseOptions)
	if err != nil {
		return "", &GenerationError{Stage: "fuser", Err: err}
	}

	if e.opts.QualityGate(out) {
		return "", ErrDegenerateOutput
	}

	return out, nil
}

func (e *Engine) summarize(ctx context.Context, query string, top []api.Candidate, instruction string) (string, error) {
	if e.summarizer == nil {
		return "", errors.New("summarizer not configured")
	}

	out, err := e.summarizer.Summarize(ctx, query, top, instruction)
	if err != nil {
		return "", &GenerationError{Stage: "summarizer", Err: err}
	}
	if out == "" {
		return "", &GenerationError{Stage: "summarizer", Err: errors.New("empty response")}
	}
	return out, nil
}

func identityRank(candidates []api.Candidate) []api.Candidate {
	n := len(candidates)
	out := cloneCandidates(candidates)
	for i := range out {
		out[i].Rank = i + 1
		out[i].QualityScore = n - i
	}
	return out
}

func cloneCandidates(candidates []api.Candidate) []api.Candidate {
	out := make([]api.Candidate, len(candidates))
	copy(out, candidates)
	return out
}

func contentsOf(query string, candidates []api.Candidate) []string {
	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, query)
	for _, c := range candidates {
		texts = append(texts, c.Content)
	}
	return texts
}

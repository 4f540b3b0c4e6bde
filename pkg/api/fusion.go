package api

// Candidate is one model's answer to a query, before or after ranking.
type Candidate struct {
	ModelID string `json:"modelId"`
	Content string `json:"content"`

	// Rank is assigned by the ranker: 1..N, 1 = best. Zero means unranked.
	Rank int `json:"rank,omitempty"`

	// QualityScore is derived from Rank as N-rank+1. Display/ordering only.
	QualityScore int `json:"quality_score,omitempty"`
}

// FusionMode selects which stages of the pipeline run.
type FusionMode string

const (
	ModeRankOnly    FusionMode = "rank_only"
	ModeFuseOnly    FusionMode = "fuse_only"
	ModeRankAndFuse FusionMode = "rank_and_fuse"
)

// FusionMethod tags the code path that actually produced the fused content.
type FusionMethod string

const (
	MethodGenFuserEnglish FusionMethod = "genfuser_english"
	MethodDeepSeekChinese FusionMethod = "deepseek_chinese"
	MethodSimpleConcat    FusionMethod = "fallback_simple_concat"
	MethodRankOnly        FusionMethod = "rank_only"
	MethodError           FusionMethod = "error"
)

type Language string

const (
	LanguageChinese Language = "chinese"
	LanguageEnglish Language = "english"
)

type FusionRequest struct {
	Query       string      `json:"query" binding:"required"`
	Candidates  []Candidate `json:"candidates" binding:"required,min=1,dive"`
	Instruction string      `json:"instruction,omitempty"`
	TopK        int         `json:"top_k,omitempty"`
	Mode        FusionMode  `json:"mode,omitempty" binding:"omitempty,oneof=rank_only fuse_only rank_and_fuse"`
}

type FusionResult struct {
	FusedContent    string       `json:"fused_content"`
	RankedResponses []Candidate  `json:"ranked_responses"`
	BestResponse    *Candidate   `json:"best_response,omitempty"`
	FusionMethod    FusionMethod `json:"fusion_method"`
	Language        Language     `json:"language_detected"`

	// ProcessingSeconds is wall-clock duration of the whole operation.
	ProcessingSeconds float64 `json:"processing_time_seconds"`

	// Diagnostic carries the message of an absorbed failure, if any.
	Diagnostic string `json:"diagnostic,omitempty"`
}

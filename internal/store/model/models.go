package model

import (
	"database/sql"
	"time"
)

type Conversation struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Models    string    `db:"models" json:"models"` // JSON-encoded model ID list
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	Role           string    `db:"role" json:"role"`
	ModelID        string    `db:"model_id" json:"model_id,omitempty"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// FusionLog records one fusion operation's provenance for observability.
type FusionLog struct {
	ID             string         `db:"id" json:"id"`
	ConversationID sql.NullString `db:"conversation_id" json:"conversation_id,omitempty"`
	Query          string         `db:"query" json:"query"`
	Mode           string         `db:"mode" json:"mode"`
	Method         string         `db:"method" json:"method"`
	Language       string         `db:"language" json:"language"`
	CandidateCount int            `db:"candidate_count" json:"candidate_count"`
	TopK           int            `db:"top_k" json:"top_k"`
	LatencyMS      int64          `db:"latency_ms" json:"latency_ms"`
	Diagnostic     string         `db:"diagnostic" json:"diagnostic,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// Share is a public read-only link to a conversation.
type Share struct {
	ID             string       `db:"id" json:"id"`
	ConversationID string       `db:"conversation_id" json:"conversation_id"`
	Token          string       `db:"token" json:"token"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	ExpiresAt      sql.NullTime `db:"expires_at" json:"expires_at,omitempty"`
}

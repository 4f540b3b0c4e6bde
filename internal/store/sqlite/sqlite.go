package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/no-bike/software-aibot/internal/store"
	"github.com/no-bike/software-aibot/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Conversations() store.ConversationRepository {
	return &conversationRepo{db: r.executor}
}

func (r *SqliteRepository) Messages() store.MessageRepository {
	return &messageRepo{db: r.executor}
}

func (r *SqliteRepository) FusionLogs() store.FusionLogRepository {
	return &fusionLogRepo{db: r.executor}
}

func (r *SqliteRepository) Shares() store.ShareRepository {
	return &shareRepo{db: r.executor}
}

type conversationRepo struct {
	db DB
}

func (r *conversationRepo) Create(ctx context.Context, conv *model.Conversation) error {
	query := `
	INSERT INTO conversations (id, title, models, created_at, updated_at)
	VALUES (:id, :title, :models, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, conv)
	return err
}

func (r *conversationRepo) Get(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT * FROM conversations WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) List(ctx context.Context, limit int) ([]model.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	var convs []model.Conversation
	err := r.db.SelectContext(ctx, &convs,
		`SELECT * FROM conversations ORDER BY updated_at DESC LIMIT ?`, limit)
	return convs, err
}

func (r *conversationRepo) UpdateTitle(ctx context.Context, id, title string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, title, id)
	return err
}

func (r *conversationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	return err
}

type messageRepo struct {
	db DB
}

func (r *messageRepo) Create(ctx context.Context, msg *model.Message) error {
	query := `
	INSERT INTO messages (id, conversation_id, role, model_id, content, created_at)
	VALUES (:id, :conversation_id, :role, :model_id, :content, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, msg)
	return err
}

func (r *messageRepo) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT * FROM messages WHERE conversation_id = ? ORDER BY created_at ASC`, conversationID)
	return msgs, err
}

type fusionLogRepo struct {
	db DB
}

func (r *fusionLogRepo) Log(ctx context.Context, log *model.FusionLog) error {
	query := `
	INSERT INTO fusion_logs (id, conversation_id, query, mode, method, language, candidate_count, top_k, latency_ms, diagnostic, created_at)
	VALUES (:id, :conversation_id, :query, :mode, :method, :language, :candidate_count, :top_k, :latency_ms, :diagnostic, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, log)
	return err
}

func (r *fusionLogRepo) GetRecent(ctx context.Context, limit int) ([]model.FusionLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var logs []model.FusionLog
	err := r.db.SelectContext(ctx, &logs,
		`SELECT * FROM fusion_logs ORDER BY created_at DESC LIMIT ?`, limit)
	return logs, err
}

type shareRepo struct {
	db DB
}

func (r *shareRepo) Create(ctx context.Context, share *model.Share) error {
	query := `
	INSERT INTO shares (id, conversation_id, token, created_at, expires_at)
	VALUES (:id, :conversation_id, :token, :created_at, :expires_at)`
	_, err := r.db.NamedExecContext(ctx, query, share)
	return err
}

func (r *shareRepo) GetByToken(ctx context.Context, token string) (*model.Share, error) {
	var share model.Share
	err := r.db.GetContext(ctx, &share,
		`SELECT * FROM shares WHERE token = ? AND (expires_at IS NULL OR expires_at > CURRENT_TIMESTAMP)`, token)
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *shareRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE id = ?`, id)
	return err
}

package analytics_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/no-bike/software-aibot/internal/analytics"
	"github.com/no-bike/software-aibot/internal/store"
	"github.com/no-bike/software-aibot/internal/store/model"
)

// logOnlyRepo implements just the fusion-log surface of store.Repository.
type logOnlyRepo struct {
	mu   sync.Mutex
	logs []model.FusionLog
}

func (r *logOnlyRepo) Conversations() store.ConversationRepository { return nil }
func (r *logOnlyRepo) Messages() store.MessageRepository           { return nil }
func (r *logOnlyRepo) Shares() store.ShareRepository               { return nil }
func (r *logOnlyRepo) FusionLogs() store.FusionLogRepository       { return (*logOnlyLogs)(r) }

func (r *logOnlyRepo) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	return fn(r)
}

func (r *logOnlyRepo) Close() error { return nil }

func (r *logOnlyRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

type logOnlyLogs logOnlyRepo

func (r *logOnlyLogs) Log(ctx context.Context, log *model.FusionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *logOnlyLogs) GetRecent(ctx context.Context, limit int) ([]model.FusionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs, nil
}

func TestIngestorFlushesOnStop(t *testing.T) {
	repo := &logOnlyRepo{}
	ing := analytics.NewIngestor(zap.NewNop(), repo)

	ing.Start(context.Background())

	for i := 0; i < 5; i++ {
		ing.Log(&model.FusionLog{ID: "log", Method: "genfuser_english"})
	}
	ing.Stop()

	assert.Eventually(t, func() bool {
		return repo.count() == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIngestorFlushesOnContextCancel(t *testing.T) {
	repo := &logOnlyRepo{}
	ing := analytics.NewIngestor(zap.NewNop(), repo)

	ctx, cancel := context.WithCancel(context.Background())
	ing.Start(ctx)

	ing.Log(&model.FusionLog{ID: "log-1"})

	// give the worker a moment to pull the log off the channel
	time.Sleep(50 * time.Millisecond)
	cancel()

	assert.Eventually(t, func() bool {
		return repo.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

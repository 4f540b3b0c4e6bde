package gateway_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/no-bike/software-aibot/internal/analytics"
	"github.com/no-bike/software-aibot/internal/fusion"
	"github.com/no-bike/software-aibot/internal/gateway"
	"github.com/no-bike/software-aibot/internal/store"
	"github.com/no-bike/software-aibot/internal/store/model"
	"github.com/no-bike/software-aibot/pkg/api"
)

// memRepo is an in-memory store.Repository for exercising the multi-chat flow
// without SQLite.
type memRepo struct {
	mu            sync.Mutex
	conversations map[string]*model.Conversation
	messages      map[string][]model.Message
	fusionLogs    []model.FusionLog
	shares        map[string]*model.Share
}

func newMemRepo() *memRepo {
	return &memRepo{
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]model.Message),
		shares:        make(map[string]*model.Share),
	}
}

func (r *memRepo) Conversations() store.ConversationRepository { return (*memConvRepo)(r) }
func (r *memRepo) Messages() store.MessageRepository           { return (*memMsgRepo)(r) }
func (r *memRepo) FusionLogs() store.FusionLogRepository       { return (*memLogRepo)(r) }
func (r *memRepo) Shares() store.ShareRepository               { return (*memShareRepo)(r) }

func (r *memRepo) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	return fn(r)
}

func (r *memRepo) Close() error { return nil }

type memConvRepo memRepo

func (r *memConvRepo) Create(ctx context.Context, conv *model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conv.ID] = conv
	return nil
}

func (r *memConvRepo) Get(ctx context.Context, id string) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return conv, nil
}

func (r *memConvRepo) List(ctx context.Context, limit int) ([]model.Conversation, error) {
	return nil, errors.New("not implemented")
}

func (r *memConvRepo) UpdateTitle(ctx context.Context, id, title string) error { return nil }
func (r *memConvRepo) Delete(ctx context.Context, id string) error             { return nil }

type memMsgRepo memRepo

func (r *memMsgRepo) Create(ctx context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], *msg)
	return nil
}

func (r *memMsgRepo) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[conversationID], nil
}

type memLogRepo memRepo

func (r *memLogRepo) Log(ctx context.Context, log *model.FusionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fusionLogs = append(r.fusionLogs, *log)
	return nil
}

func (r *memLogRepo) GetRecent(ctx context.Context, limit int) ([]model.FusionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fusionLogs, nil
}

type memShareRepo memRepo

func (r *memShareRepo) Create(ctx context.Context, share *model.Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shares[share.Token] = share
	return nil
}

func (r *memShareRepo) GetByToken(ctx context.Context, token string) (*model.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	share, ok := r.shares[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return share, nil
}

func (r *memShareRepo) Delete(ctx context.Context, id string) error { return nil }

// recordingIngestor captures fusion logs synchronously.
type recordingIngestor struct {
	mu   sync.Mutex
	logs []*model.FusionLog
}

func (r *recordingIngestor) Log(log *model.FusionLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
}

func (r *recordingIngestor) Start(ctx context.Context) {}
func (r *recordingIngestor) Stop()                     {}

var _ analytics.Ingestor = (*recordingIngestor)(nil)

func newTestEngine() *fusion.Engine {
	ranker := fusion.NewResource(func(ctx context.Context) (fusion.Ranker, error) {
		return nil, errors.New("no ranker in tests")
	})
	fuser := fusion.NewResource(func(ctx context.Context) (fusion.Fuser, error) {
		return nil, errors.New("no fuser in tests")
	})
	return fusion.NewEngine(zap.NewNop(), ranker, fuser, nil, fusion.Options{})
}

func newMultiChatFixture(t *testing.T) (*gateway.MultiChat, *memRepo, *recordingIngestor) {
	t.Helper()

	svc := gateway.NewService(zap.NewNop(), nil)
	svc.RegisterProvider(&fakeProvider{name: "p1", reply: "answer one"}, map[string]string{"m1": "m1"})
	svc.RegisterProvider(&fakeProvider{name: "p2", reply: "answer two"}, map[string]string{"m2": "m2"})

	repo := newMemRepo()
	ingestor := &recordingIngestor{}
	mc := gateway.NewMultiChat(zap.NewNop(), svc, newTestEngine(), repo, ingestor)
	return mc, repo, ingestor
}

func TestMultiChatWithoutFusion(t *testing.T) {
	mc, repo, ingestor := newMultiChatFixture(t)

	resp, err := mc.Handle(context.Background(), &api.MultiChatRequest{
		Message:  "hello",
		ModelIDs: []string{"m1", "m2"},
	})

	require.NoError(t, err)
	require.Len(t, resp.Responses, 2)
	assert.Nil(t, resp.Fusion)
	assert.Empty(t, ingestor.logs)
	assert.Empty(t, repo.conversations)
}

func TestMultiChatWithFusionFallsBackToConcat(t *testing.T) {
	// ranker and fuser are unavailable and no summarizer is configured, so
	// the fused content must come from concatenation
	mc, _, ingestor := newMultiChatFixture(t)

	resp, err := mc.Handle(context.Background(), &api.MultiChatRequest{
		Message:  "hello",
		ModelIDs: []string{"m1", "m2"},
		Fuse:     true,
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Fusion)
	assert.Equal(t, api.MethodSimpleConcat, resp.Fusion.FusionMethod)
	assert.Contains(t, resp.Fusion.FusedContent, "answer one")

	require.Len(t, ingestor.logs, 1)
	assert.Equal(t, string(api.MethodSimpleConcat), ingestor.logs[0].Method)
	assert.Equal(t, 2, ingestor.logs[0].CandidateCount)
}

func TestMultiChatCreatesConversationAndPersists(t *testing.T) {
	mc, repo, _ := newMultiChatFixture(t)

	_, err := mc.Handle(context.Background(), &api.MultiChatRequest{
		Message:        "first question",
		ModelIDs:       []string{"m1", "m2"},
		ConversationID: "conv-1",
	})
	require.NoError(t, err)

	conv, err := repo.Conversations().Get(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "first question", conv.Title)

	msgs, err := repo.Messages().ListByConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "m1", msgs[1].ModelID)
	assert.Equal(t, "m2", msgs[2].ModelID)
}

func TestMultiChatReplaysHistory(t *testing.T) {
	svc := gateway.NewService(zap.NewNop(), nil)
	recorder := &recordingProvider{}
	svc.RegisterProvider(recorder, map[string]string{"rec": "rec"})

	repo := newMemRepo()
	mc := gateway.NewMultiChat(zap.NewNop(), svc, newTestEngine(), repo, &recordingIngestor{})

	_, err := mc.Handle(context.Background(), &api.MultiChatRequest{
		Message:        "first",
		ModelIDs:       []string{"rec"},
		ConversationID: "conv-h",
	})
	require.NoError(t, err)

	_, err = mc.Handle(context.Background(), &api.MultiChatRequest{
		Message:        "second",
		ModelIDs:       []string{"rec"},
		ConversationID: "conv-h",
	})
	require.NoError(t, err)

	// the second call must carry the persisted first exchange plus the new
	// user message
	require.Len(t, recorder.lastMessages, 3)
	assert.Equal(t, "first", recorder.lastMessages[0].Content)
	assert.Equal(t, "assistant", recorder.lastMessages[1].Role)
	assert.Equal(t, "second", recorder.lastMessages[2].Content)
}

func TestMultiChatFusionMessagePersisted(t *testing.T) {
	mc, repo, _ := newMultiChatFixture(t)

	_, err := mc.Handle(context.Background(), &api.MultiChatRequest{
		Message:        "question",
		ModelIDs:       []string{"m1", "m2"},
		ConversationID: "conv-f",
		Fuse:           true,
	})
	require.NoError(t, err)

	msgs, err := repo.Messages().ListByConversation(context.Background(), "conv-f")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "fusion", msgs[3].ModelID)
	assert.NotEmpty(t, msgs[3].Content)
}

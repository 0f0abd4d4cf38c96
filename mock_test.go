package promodex

import (
	"context"
	"time"

	"github.com/kailas-cloud/promodex/internal/db"
	"github.com/kailas-cloud/promodex/internal/domain"
	answeruc "github.com/kailas-cloud/promodex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/promodex/internal/usecase/health"
	syncuc "github.com/kailas-cloud/promodex/internal/usecase/sync"
)

// --- syncUseCase mock ---

type mockSyncUC struct {
	reconcileFn func(ctx context.Context, promos []domain.Promo) (syncuc.Report, error)
}

func (m *mockSyncUC) Reconcile(ctx context.Context, promos []domain.Promo) (syncuc.Report, error) {
	return m.reconcileFn(ctx, promos)
}

// --- queryUseCase mock ---

type mockQueryUC struct {
	searchFn func(ctx context.Context, query string, k int) ([]domain.Result, error)
}

func (m *mockQueryUC) Search(ctx context.Context, query string, k int) ([]domain.Result, error) {
	return m.searchFn(ctx, query, k)
}

// --- answerUseCase mock ---

type mockAnswerUC struct {
	askFn func(ctx context.Context, question string, k, maxDescChars int) (answeruc.Answer, error)
}

func (m *mockAnswerUC) Ask(ctx context.Context, question string, k, maxDescChars int) (answeruc.Answer, error) {
	return m.askFn(ctx, question, k, maxDescChars)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// --- db.Store mock ---

type mockStore struct {
	pingErr    error
	chunks     int
	chunksErr  error
	parents    []string
	parentsErr error
	closed     bool
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }

func (m *mockStore) UpsertChunks(_ context.Context, _ []db.StoredChunk) error { return nil }

func (m *mockStore) DeleteParent(_ context.Context, _ string) (int, error) { return 0, nil }

func (m *mockStore) ParentIDs(_ context.Context) ([]string, error) {
	return m.parents, m.parentsErr
}

func (m *mockStore) CountChunks(_ context.Context) (int, error) {
	return m.chunks, m.chunksErr
}

func (m *mockStore) SearchKNN(_ context.Context, _ []float32, _ int) ([]db.Hit, error) {
	return nil, nil
}

func (m *mockStore) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Set(_ context.Context, _ string, _ []byte) error { return nil }

func (m *mockStore) SetWithTTL(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

func (m *mockStore) IncrBy(_ context.Context, _ string, _ int64) error { return nil }

func (m *mockStore) Expire(_ context.Context, _ string, _ time.Duration, _ bool) error {
	return nil
}

func (m *mockStore) EnsureSchema(_ context.Context, _ int) error { return nil }

func (m *mockStore) DropSchema(_ context.Context) error { return nil }

func (m *mockStore) Close() { m.closed = true }

func (m *mockStore) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// --- public Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// mockBatchEmbedder also implements the public BatchEmbedder.
type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

// --- Completer mock ---

type mockCompleter struct {
	fn func(ctx context.Context, system, user string) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return m.fn(ctx, system, user)
}

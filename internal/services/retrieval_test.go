package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
	"github.com/nisschay/Edu-Rag/internal/vectorindex"
)

// chunkRowStore serves GetByIDs from memory so chunk retrieval tests
// stay hermetic.
type chunkRowStore struct {
	rows map[uuid.UUID]*domain.Chunk
}

func (s *chunkRowStore) Create(ctx context.Context, tx *gorm.DB, chunks []*domain.Chunk) ([]*domain.Chunk, error) {
	return chunks, nil
}

func (s *chunkRowStore) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Chunk, error) {
	out := make([]*domain.Chunk, 0, len(ids))
	for _, id := range ids {
		if row, ok := s.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *chunkRowStore) ListByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*domain.Chunk, error) {
	return nil, nil
}

func (s *chunkRowStore) ListUnembeddedByTopic(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]*domain.Chunk, error) {
	return nil, nil
}

func (s *chunkRowStore) SetEmbeddingID(ctx context.Context, tx *gorm.DB, id uuid.UUID, embeddingID int64) error {
	return nil
}

func (s *chunkRowStore) DeleteBySourceFile(ctx context.Context, tx *gorm.DB, fileID uuid.UUID) error {
	return nil
}

type staticEmbedder struct {
	vector []float32
}

func (s staticEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = append([]float32(nil), s.vector...)
	}
	return out, nil
}

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func seedSummaryIndex(t *testing.T, userID uuid.UUID) (*vectorindex.Index[domain.SummaryMeta], domain.SummaryMeta, domain.SummaryMeta) {
	t.Helper()
	log := testLog(t)
	ix := vectorindex.New[domain.SummaryMeta](3, log)

	subjectID := uuid.New()
	unitID := uuid.New()
	topicID := uuid.New()

	topicMeta := domain.SummaryMeta{
		SummaryID:   uuid.New(),
		SummaryType: domain.SummaryTypeTopic,
		UserID:      userID,
		SubjectID:   subjectID,
		UnitID:      unitID,
		TopicID:     &topicID,
	}
	unitMeta := domain.SummaryMeta{
		SummaryID:   uuid.New(),
		SummaryType: domain.SummaryTypeUnit,
		UserID:      userID,
		SubjectID:   subjectID,
		UnitID:      unitID,
	}
	_, err := ix.Add([][]float32{{1, 0, 0}, {0.9, 0.1, 0}}, []domain.SummaryMeta{topicMeta, unitMeta})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}
	return ix, topicMeta, unitMeta
}

func TestSearchTopicSummariesFiltersByType(t *testing.T) {
	userID := uuid.New()
	ix, topicMeta, _ := seedSummaryIndex(t, userID)
	svc := NewRetrievalService(staticEmbedder{vector: []float32{1, 0, 0}}, nil, ix, nil, testLog(t))

	results, err := svc.SearchTopicSummaries(context.Background(), domain.ScopeFilter{UserID: &userID}, "rome", 5)
	if err != nil {
		t.Fatalf("SearchTopicSummaries: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results: want=1 got=%d", len(results))
	}
	if results[0].SummaryID != topicMeta.SummaryID || results[0].SummaryType != domain.SummaryTypeTopic {
		t.Fatalf("wrong hit: %+v", results[0])
	}
}

func TestSearchUnitSummariesIgnoresTopicScope(t *testing.T) {
	userID := uuid.New()
	ix, topicMeta, unitMeta := seedSummaryIndex(t, userID)
	svc := NewRetrievalService(staticEmbedder{vector: []float32{1, 0, 0}}, nil, ix, nil, testLog(t))

	// Unit summaries carry no topic id, so a topic-scoped search must
	// still surface them.
	filter := domain.ScopeFilter{UserID: &userID, TopicID: topicMeta.TopicID}
	results, err := svc.SearchUnitSummaries(context.Background(), filter, "rome", 5)
	if err != nil {
		t.Fatalf("SearchUnitSummaries: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results: want=1 got=%d", len(results))
	}
	if results[0].SummaryID != unitMeta.SummaryID {
		t.Fatalf("wrong hit: %+v", results[0])
	}
}

func TestSearchSummariesScopedToOtherUserIsEmpty(t *testing.T) {
	userID := uuid.New()
	ix, _, _ := seedSummaryIndex(t, userID)
	svc := NewRetrievalService(staticEmbedder{vector: []float32{1, 0, 0}}, nil, ix, nil, testLog(t))

	otherUser := uuid.New()
	results, err := svc.SearchTopicSummaries(context.Background(), domain.ScopeFilter{UserID: &otherUser}, "rome", 5)
	if err != nil {
		t.Fatalf("SearchTopicSummaries: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("cross-user leak: %+v", results)
	}
}

func TestRetrieveChunksCarriesScopeFromMetadata(t *testing.T) {
	userID := uuid.New()
	meta := domain.ChunkMeta{
		ChunkID:      uuid.New(),
		UserID:       userID,
		SubjectID:    uuid.New(),
		UnitID:       uuid.New(),
		TopicID:      uuid.New(),
		SourceFileID: uuid.New(),
	}
	ix := vectorindex.New[domain.ChunkMeta](3, testLog(t))
	if _, err := ix.Add([][]float32{{1, 0, 0}}, []domain.ChunkMeta{meta}); err != nil {
		t.Fatalf("seed index: %v", err)
	}
	rows := &chunkRowStore{rows: map[uuid.UUID]*domain.Chunk{
		meta.ChunkID: {ID: meta.ChunkID, Text: "Rome was founded on the Tiber."},
	}}
	svc := NewRetrievalService(staticEmbedder{vector: []float32{1, 0, 0}}, ix, nil, rows, testLog(t))

	results, err := svc.RetrieveChunks(context.Background(), domain.ScopeFilter{UserID: &userID}, "rome", 5)
	if err != nil {
		t.Fatalf("RetrieveChunks: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results: want=1 got=%d", len(results))
	}
	got := results[0]
	if got.Text != "Rome was founded on the Tiber." {
		t.Fatalf("text: %q", got.Text)
	}
	// The row store deliberately carries no scope columns; every scope
	// field must come from the index metadata alone.
	if got.SourceFileID != meta.SourceFileID {
		t.Fatalf("source file: want=%s got=%s", meta.SourceFileID, got.SourceFileID)
	}
	if got.TopicID != meta.TopicID || got.UnitID != meta.UnitID || got.SubjectID != meta.SubjectID {
		t.Fatalf("scope mismatch: %+v", got)
	}
}

func TestRetrieveChunksRejectsEmptyQuery(t *testing.T) {
	userID := uuid.New()
	ix := vectorindex.New[domain.ChunkMeta](3, testLog(t))
	svc := NewRetrievalService(staticEmbedder{vector: []float32{1, 0, 0}}, ix, nil, nil, testLog(t))

	if _, err := svc.RetrieveChunks(context.Background(), domain.ScopeFilter{UserID: &userID}, "   ", 5); err == nil {
		t.Fatal("blank query should be rejected")
	}
}

package repos

import (
	"context"
	"testing"

	"github.com/nisschay/Edu-Rag/internal/data/repos/testutil"
	"github.com/nisschay/Edu-Rag/internal/domain"
)

func TestTopicSummaryUpsertReplacesExisting(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()

	s := seedHierarchy(t, tx)
	repo := NewTopicSummaryRepo(db, log)

	first, err := repo.Upsert(ctx, tx, &domain.TopicSummary{
		UserID:           s.user.ID,
		SubjectID:        s.subject.ID,
		UnitID:           s.unit.ID,
		TopicID:          s.topic.ID,
		SummaryText:      "first pass",
		TokenCount:       2,
		SourceChunkCount: 3,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second, err := repo.Upsert(ctx, tx, &domain.TopicSummary{
		UserID:           s.user.ID,
		SubjectID:        s.subject.ID,
		UnitID:           s.unit.ID,
		TopicID:          s.topic.ID,
		SummaryText:      "second pass",
		TokenCount:       2,
		SourceChunkCount: 5,
	})
	if err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert must reuse the row: first=%s second=%s", first.ID, second.ID)
	}
	if second.SummaryText != "second pass" || second.SourceChunkCount != 5 {
		t.Fatalf("replaced fields: text=%q count=%d", second.SummaryText, second.SourceChunkCount)
	}

	all, err := repo.ListByUnit(ctx, tx, s.unit.ID)
	if err != nil {
		t.Fatalf("ListByUnit: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("summaries per topic: want=1 got=%d", len(all))
	}
}

func TestUnitSummaryUpsertAndClearEmbedding(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()

	s := seedHierarchy(t, tx)
	repo := NewUnitSummaryRepo(db, log)

	embedding := int64(7)
	created, err := repo.Upsert(ctx, tx, &domain.UnitSummary{
		UserID:           s.user.ID,
		SubjectID:        s.subject.ID,
		UnitID:           s.unit.ID,
		SummaryText:      "unit overview",
		TokenCount:       2,
		SourceTopicCount: 1,
		EmbeddingID:      &embedding,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if created.EmbeddingID == nil || *created.EmbeddingID != 7 {
		t.Fatalf("embedding id not persisted: %v", created.EmbeddingID)
	}

	if err := repo.UpdateFields(ctx, tx, created.ID, map[string]interface{}{"embedding_id": nil}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByUnit(ctx, tx, s.unit.ID)
	if err != nil {
		t.Fatalf("GetByUnit: %v", err)
	}
	if got.EmbeddingID != nil {
		t.Fatalf("embedding id should be cleared, got %v", *got.EmbeddingID)
	}
}

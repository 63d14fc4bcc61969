package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/clients/openai"
	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/data/repos/testutil"
	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/vectorindex"
)

type fieldCounter struct{}

func (fieldCounter) Count(text string) int { return len(strings.Fields(text)) }

func newSummaryService(t *testing.T, db *gorm.DB, gen Generator) (*SummaryService, *vectorindex.Index[domain.SummaryMeta], string) {
	t.Helper()
	log := testutil.Logger(t)
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "summaries.idx")
	metaPath := filepath.Join(dir, "summaries.meta.json")
	ix := vectorindex.New[domain.SummaryMeta](3, log)
	svc := NewSummaryService(SummaryDeps{
		Subjects:      repos.NewSubjectRepo(db, log),
		Units:         repos.NewUnitRepo(db, log),
		Topics:        repos.NewTopicRepo(db, log),
		Chunks:        repos.NewChunkRepo(db, log),
		TopicSums:     repos.NewTopicSummaryRepo(db, log),
		UnitSums:      repos.NewUnitSummaryRepo(db, log),
		Generator:     gen,
		Embedder:      staticEmbedder{vector: []float32{1, 0, 0}},
		Counter:       fieldCounter{},
		SummaryIndex:  ix,
		IndexPath:     indexPath,
		IndexMetaPath: metaPath,
	}, log)
	return svc, ix, indexPath
}

func seedChunks(t *testing.T, db *gorm.DB, fx scopeFixture, texts ...string) {
	t.Helper()
	file := &domain.File{
		TopicID:  fx.topic.ID,
		Filename: "notes.txt",
		Filepath: "/tmp/notes.txt",
		FileType: "txt",
		Status:   domain.FileStatusReady,
	}
	if err := db.Create(file).Error; err != nil {
		t.Fatalf("seed file: %v", err)
	}
	for i, text := range texts {
		chunk := &domain.Chunk{
			UserID:       fx.user.ID,
			SubjectID:    fx.subject.ID,
			UnitID:       fx.unit.ID,
			TopicID:      fx.topic.ID,
			SourceFileID: file.ID,
			ChunkIndex:   i,
			Text:         text,
			TokenCount:   len(strings.Fields(text)),
		}
		if err := db.Create(chunk).Error; err != nil {
			t.Fatalf("seed chunk: %v", err)
		}
	}
}

func TestGenerateForUnitBuildsAndEmbedsSummaries(t *testing.T) {
	db := testutil.DB(t)
	fx := seedScope(t, db)
	seedChunks(t, db, fx, "Rome was founded on the Tiber.", "The republic replaced the kings.")

	gen := &fakeGenerator{responses: []openai.Answer{
		{Text: "Topic summary about Rome."},
		{Text: "Unit summary about antiquity."},
	}}
	svc, ix, indexPath := newSummaryService(t, db, gen)

	if err := svc.GenerateForUnit(context.Background(), fx.unit.ID); err != nil {
		t.Fatalf("GenerateForUnit: %v", err)
	}

	var topicSummary domain.TopicSummary
	if err := db.Where("topic_id = ?", fx.topic.ID).First(&topicSummary).Error; err != nil {
		t.Fatalf("load topic summary: %v", err)
	}
	if topicSummary.SummaryText != "Topic summary about Rome." {
		t.Fatalf("topic summary text: %q", topicSummary.SummaryText)
	}
	if topicSummary.SourceChunkCount != 2 {
		t.Fatalf("source chunk count: want=2 got=%d", topicSummary.SourceChunkCount)
	}
	if topicSummary.EmbeddingID == nil {
		t.Fatal("topic summary was not embedded")
	}
	meta, err := ix.Resolve(vectorindex.HandleFromInt64(*topicSummary.EmbeddingID))
	if err != nil {
		t.Fatalf("resolve topic summary handle: %v", err)
	}
	if meta.SummaryID != topicSummary.ID || meta.SummaryType != domain.SummaryTypeTopic {
		t.Fatalf("wrong index meta: %+v", meta)
	}

	var unitSummary domain.UnitSummary
	if err := db.Where("unit_id = ?", fx.unit.ID).First(&unitSummary).Error; err != nil {
		t.Fatalf("load unit summary: %v", err)
	}
	if unitSummary.EmbeddingID == nil {
		t.Fatal("unit summary was not embedded")
	}
	if unitSummary.SourceTopicCount != 1 {
		t.Fatalf("source topic count: want=1 got=%d", unitSummary.SourceTopicCount)
	}

	// The unit summary prompt is built from the topic summary.
	if !strings.Contains(gen.prompts[1], "## Rome\nTopic summary about Rome.") {
		t.Fatalf("unit prompt missing topic summary:\n%s", gen.prompts[1])
	}
	if _, err := os.Stat(indexPath); err != nil {
		t.Fatalf("summary index not saved: %v", err)
	}
}

func TestGenerateTopicSummaryIdempotentWithoutForce(t *testing.T) {
	db := testutil.DB(t)
	fx := seedScope(t, db)
	existing := seedTopicSummaryRow(t, db, fx, "Already summarized.", 3)

	gen := &fakeGenerator{}
	svc, _, _ := newSummaryService(t, db, gen)

	summary, regenerated, err := svc.GenerateTopicSummary(context.Background(), fx.topic, false)
	if err != nil {
		t.Fatalf("GenerateTopicSummary: %v", err)
	}
	if regenerated {
		t.Fatal("existing summary must not be regenerated without force")
	}
	if summary.ID != existing.ID {
		t.Fatalf("summary id: want=%s got=%s", existing.ID, summary.ID)
	}
	if len(gen.prompts) != 0 {
		t.Fatal("generator must not run for an existing summary")
	}
}

func TestDegradedSummaryIsNotPersisted(t *testing.T) {
	db := testutil.DB(t)
	fx := seedScope(t, db)
	seedChunks(t, db, fx, "Rome was founded on the Tiber.")

	gen := &fakeGenerator{responses: []openai.Answer{
		{Text: "The system is busy. Please try again later.", Degraded: true, Reason: "rate limited"},
	}}
	svc, _, _ := newSummaryService(t, db, gen)

	if _, _, err := svc.GenerateTopicSummary(context.Background(), fx.topic, true); err == nil {
		t.Fatal("degraded output must be rejected")
	}
	var count int64
	db.Model(&domain.TopicSummary{}).Where("topic_id = ?", fx.topic.ID).Count(&count)
	if count != 0 {
		t.Fatalf("degraded summary was persisted: count=%d", count)
	}
}

func TestGenerateTopicSummaryWithoutChunksFails(t *testing.T) {
	db := testutil.DB(t)
	fx := seedScope(t, db)

	svc, _, _ := newSummaryService(t, db, &fakeGenerator{})
	if _, _, err := svc.GenerateTopicSummary(context.Background(), fx.topic, true); err == nil {
		t.Fatal("summary generation requires chunks")
	}
}

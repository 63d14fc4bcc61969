package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/ingestion/chunker"
	"github.com/nisschay/Edu-Rag/internal/ingestion/extractor"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
	"github.com/nisschay/Edu-Rag/internal/vectorindex"
)

// Embedder is the slice of the model client the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// SummaryGenerator regenerates the summaries for a processed unit. It is
// best-effort from the pipeline's point of view.
type SummaryGenerator interface {
	GenerateForUnit(ctx context.Context, unitID uuid.UUID) error
}

type Deps struct {
	Units      repos.UnitRepo
	Subjects   repos.SubjectRepo
	Topics     repos.TopicRepo
	Files      repos.FileRepo
	Chunks     repos.ChunkRepo
	States     repos.ProcessingStateRepo
	Extractor  extractor.Extractor
	Chunker    *chunker.Chunker
	Embedder   Embedder
	ChunkIndex *vectorindex.Index[domain.ChunkMeta]
	Summaries  SummaryGenerator

	IndexPath     string
	IndexMetaPath string
}

// Pipeline runs the strict serial unit pipeline:
// extract -> chunk -> embed -> summarize -> ready.
// Any failure before the summary step marks the whole unit failed and
// stops; the summary step alone is best-effort.
type Pipeline struct {
	deps Deps
	log  *logger.Logger
}

func New(deps Deps, baseLog *logger.Logger) *Pipeline {
	return &Pipeline{deps: deps, log: baseLog.With("component", "pipeline")}
}

// ProcessUnit runs the full pipeline for one unit. Callers serialize
// runs per unit; the pipeline itself assumes it is the only writer of
// the unit's processing state while running.
func (p *Pipeline) ProcessUnit(ctx context.Context, unitID uuid.UUID) error {
	log := p.log.With("unit_id", unitID)

	unit, err := p.deps.Units.GetByID(ctx, nil, unitID)
	if err != nil {
		log.Error("unit not found", "error", err)
		return fmt.Errorf("load unit %s: %w", unitID, err)
	}
	subject, err := p.deps.Subjects.GetByID(ctx, nil, unit.SubjectID)
	if err != nil {
		return fmt.Errorf("load subject %s: %w", unit.SubjectID, err)
	}

	if _, err := p.deps.States.Ensure(ctx, nil, unitID); err != nil {
		return fmt.Errorf("ensure processing state: %w", err)
	}
	if err := p.deps.States.UpdateFields(ctx, nil, unitID, map[string]interface{}{
		"status":     domain.UnitStatusProcessing,
		"last_error": nil,
	}); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	log.Info("processing started")

	topics, err := p.deps.Topics.ListByUnit(ctx, nil, unitID)
	if err != nil {
		return p.fail(ctx, unitID, fmt.Sprintf("Listing topics failed: %v", err))
	}
	topicIDs := make([]uuid.UUID, len(topics))
	for i, t := range topics {
		topicIDs[i] = t.ID
	}
	files, err := p.deps.Files.ListByTopicIDs(ctx, nil, topicIDs)
	if err != nil {
		return p.fail(ctx, unitID, fmt.Sprintf("Listing files failed: %v", err))
	}

	if len(files) == 0 {
		log.Warn("no files in unit")
		return p.deps.States.UpdateFields(ctx, nil, unitID, map[string]interface{}{
			"status":    domain.UnitStatusReady,
			"has_files": false,
		})
	}
	if err := p.deps.States.UpdateFields(ctx, nil, unitID, map[string]interface{}{
		"has_files": true,
	}); err != nil {
		return fmt.Errorf("mark has_files: %w", err)
	}

	if err := p.extractAll(ctx, unitID, files); err != nil {
		return err
	}

	totalChunks, err := p.chunkAll(ctx, files)
	if err != nil {
		return p.fail(ctx, unitID, fmt.Sprintf("Chunking failed: %v", err))
	}
	if err := p.deps.States.UpdateFields(ctx, nil, unitID, map[string]interface{}{
		"chunk_count": totalChunks,
	}); err != nil {
		return fmt.Errorf("record chunk count: %w", err)
	}

	if err := p.embedAll(ctx, subject.UserID, subject.ID, unit, topics); err != nil {
		return p.fail(ctx, unitID, fmt.Sprintf("Embedding failed: %v", err))
	}
	if err := p.deps.States.UpdateFields(ctx, nil, unitID, map[string]interface{}{
		"embeddings_ready": true,
	}); err != nil {
		return fmt.Errorf("mark embeddings ready: %w", err)
	}

	if p.deps.Summaries != nil {
		if err := p.deps.Summaries.GenerateForUnit(ctx, unitID); err != nil {
			log.Warn("summary generation incomplete", "error", err)
		}
	}

	if err := p.deps.States.UpdateFields(ctx, nil, unitID, map[string]interface{}{
		"status":     domain.UnitStatusReady,
		"last_error": nil,
	}); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}
	log.Info("processing succeeded", "chunks", totalChunks)
	return nil
}

// fail records the error message verbatim and flips the unit to failed.
func (p *Pipeline) fail(ctx context.Context, unitID uuid.UUID, msg string) error {
	p.log.Error("pipeline failed", "unit_id", unitID, "error", msg)
	if err := p.deps.States.UpdateFields(ctx, nil, unitID, map[string]interface{}{
		"status":     domain.UnitStatusFailed,
		"last_error": msg,
	}); err != nil {
		p.log.Error("failed to record failure", "unit_id", unitID, "error", err)
	}
	return fmt.Errorf("%s", msg)
}

func (p *Pipeline) extractAll(ctx context.Context, unitID uuid.UUID, files []*domain.File) error {
	for _, file := range files {
		if file.ExtractedText != nil && *file.ExtractedText != "" {
			continue
		}
		text, err := p.deps.Extractor.Extract(file.Filepath, file.FileType)
		if err != nil {
			cause := err.Error()
			if uerr := p.deps.Files.UpdateFields(ctx, nil, file.ID, map[string]interface{}{
				"status":           domain.FileStatusFailed,
				"processing_error": cause,
			}); uerr != nil {
				p.log.Error("failed to record file failure", "file_id", file.ID, "error", uerr)
			}
			return p.fail(ctx, unitID, fmt.Sprintf("Failed to extract %s: %v", file.Filename, err))
		}
		file.ExtractedText = &text
		if err := p.deps.Files.UpdateFields(ctx, nil, file.ID, map[string]interface{}{
			"extracted_text": text,
			"status":         domain.FileStatusReady,
		}); err != nil {
			return p.fail(ctx, unitID, fmt.Sprintf("Failed to persist extraction for %s: %v", file.Filename, err))
		}
	}
	return p.deps.States.UpdateFields(ctx, nil, unitID, map[string]interface{}{
		"text_extracted": true,
	})
}

// chunkAll wipes and recreates the chunks of every file so reruns never
// duplicate rows.
func (p *Pipeline) chunkAll(ctx context.Context, files []*domain.File) (int, error) {
	total := 0
	for _, file := range files {
		if file.ExtractedText == nil || *file.ExtractedText == "" {
			continue
		}
		topic, err := p.deps.Topics.GetByID(ctx, nil, file.TopicID)
		if err != nil {
			return 0, fmt.Errorf("load topic %s: %w", file.TopicID, err)
		}
		unit, err := p.deps.Units.GetByID(ctx, nil, topic.UnitID)
		if err != nil {
			return 0, fmt.Errorf("load unit %s: %w", topic.UnitID, err)
		}
		subject, err := p.deps.Subjects.GetByID(ctx, nil, unit.SubjectID)
		if err != nil {
			return 0, fmt.Errorf("load subject %s: %w", unit.SubjectID, err)
		}

		if err := p.deps.Chunks.DeleteBySourceFile(ctx, nil, file.ID); err != nil {
			return 0, fmt.Errorf("clear chunks for %s: %w", file.Filename, err)
		}

		pieces := p.deps.Chunker.ChunkText(*file.ExtractedText)
		rows := make([]*domain.Chunk, len(pieces))
		for i, piece := range pieces {
			rows[i] = &domain.Chunk{
				UserID:       subject.UserID,
				SubjectID:    subject.ID,
				UnitID:       unit.ID,
				TopicID:      topic.ID,
				SourceFileID: file.ID,
				ChunkIndex:   piece.Index,
				Text:         piece.Text,
				TokenCount:   piece.TokenCount,
			}
		}
		if _, err := p.deps.Chunks.Create(ctx, nil, rows); err != nil {
			return 0, fmt.Errorf("store chunks for %s: %w", file.Filename, err)
		}
		total += len(rows)
	}
	return total, nil
}

// embedAll embeds every not-yet-embedded chunk topic by topic, records
// the vector handle on each row and saves the index once at the end.
func (p *Pipeline) embedAll(ctx context.Context, userID, subjectID uuid.UUID, unit *domain.Unit, topics []*domain.Topic) error {
	embedded := 0
	for _, topic := range topics {
		pending, err := p.deps.Chunks.ListUnembeddedByTopic(ctx, nil, topic.ID)
		if err != nil {
			return fmt.Errorf("list pending chunks for topic %s: %w", topic.ID, err)
		}
		if len(pending) == 0 {
			continue
		}

		texts := make([]string, len(pending))
		for i, c := range pending {
			texts[i] = c.Text
		}
		vectors, err := p.deps.Embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed topic %s: %w", topic.ID, err)
		}

		metas := make([]domain.ChunkMeta, len(pending))
		for i, c := range pending {
			metas[i] = domain.ChunkMeta{
				ChunkID:      c.ID,
				UserID:       userID,
				SubjectID:    subjectID,
				UnitID:       unit.ID,
				TopicID:      topic.ID,
				SourceFileID: c.SourceFileID,
			}
		}
		handles, err := p.deps.ChunkIndex.Add(vectors, metas)
		if err != nil {
			return fmt.Errorf("index topic %s: %w", topic.ID, err)
		}
		for i, c := range pending {
			if err := p.deps.Chunks.SetEmbeddingID(ctx, nil, c.ID, handles[i].Int64()); err != nil {
				return fmt.Errorf("record embedding for chunk %s: %w", c.ID, err)
			}
		}
		embedded += len(pending)
	}

	if embedded > 0 {
		if err := p.deps.ChunkIndex.Save(p.deps.IndexPath, p.deps.IndexMetaPath); err != nil {
			return fmt.Errorf("save chunk index: %w", err)
		}
	}
	p.log.Info("embedding complete", "unit_id", unit.ID, "embedded", embedded)
	return nil
}

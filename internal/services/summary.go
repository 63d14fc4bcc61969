package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/clients/openai"
	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
	"github.com/nisschay/Edu-Rag/internal/platform/tokenizer"
	"github.com/nisschay/Edu-Rag/internal/vectorindex"
)

const (
	topicSummaryMaxTokens = 400
	unitSummaryMaxTokens  = 600
)

// Generator is the slice of the model client that produces text.
type Generator interface {
	Generate(ctx context.Context, req openai.GenerateRequest) (openai.Answer, error)
}

// SummaryService builds the hierarchical summaries: topic summaries from
// chunk text, unit summaries from topic summaries, both embedded into
// the summary index. Degraded model output is never persisted.
type SummaryService struct {
	subjects     repos.SubjectRepo
	units        repos.UnitRepo
	topics       repos.TopicRepo
	chunks       repos.ChunkRepo
	topicSums    repos.TopicSummaryRepo
	unitSums     repos.UnitSummaryRepo
	generator    Generator
	embedder     Embedder
	counter      tokenizer.Counter
	summaryIndex *vectorindex.Index[domain.SummaryMeta]

	indexPath     string
	indexMetaPath string
	log           *logger.Logger
}

type SummaryDeps struct {
	Subjects     repos.SubjectRepo
	Units        repos.UnitRepo
	Topics       repos.TopicRepo
	Chunks       repos.ChunkRepo
	TopicSums    repos.TopicSummaryRepo
	UnitSums     repos.UnitSummaryRepo
	Generator    Generator
	Embedder     Embedder
	Counter      tokenizer.Counter
	SummaryIndex *vectorindex.Index[domain.SummaryMeta]

	IndexPath     string
	IndexMetaPath string
}

func NewSummaryService(deps SummaryDeps, baseLog *logger.Logger) *SummaryService {
	return &SummaryService{
		subjects:      deps.Subjects,
		units:         deps.Units,
		topics:        deps.Topics,
		chunks:        deps.Chunks,
		topicSums:     deps.TopicSums,
		unitSums:      deps.UnitSums,
		generator:     deps.Generator,
		embedder:      deps.Embedder,
		counter:       deps.Counter,
		summaryIndex:  deps.SummaryIndex,
		indexPath:     deps.IndexPath,
		indexMetaPath: deps.IndexMetaPath,
		log:           baseLog.With("service", "SummaryService"),
	}
}

// GenerateTopicSummary creates or refreshes the summary of one topic.
// Without force an existing summary is returned untouched.
func (s *SummaryService) GenerateTopicSummary(ctx context.Context, topic *domain.Topic, force bool) (*domain.TopicSummary, bool, error) {
	existing, err := s.topicSums.GetByTopic(ctx, nil, topic.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("load existing summary: %w", err)
	}
	if existing != nil && !force {
		return existing, false, nil
	}

	chunks, err := s.chunks.ListByTopic(ctx, nil, topic.ID)
	if err != nil {
		return nil, false, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, false, fmt.Errorf("no chunks found for topic %s, run chunking first", topic.ID)
	}

	unit, err := s.units.GetByID(ctx, nil, topic.UnitID)
	if err != nil {
		return nil, false, fmt.Errorf("load unit: %w", err)
	}
	subject, err := s.subjects.GetByID(ctx, nil, unit.SubjectID)
	if err != nil {
		return nil, false, fmt.Errorf("load subject: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	prompt := renderPrompt(topicSummaryPrompt, map[string]string{
		"topic_title":  topic.Title,
		"subject_name": subject.Name,
		"unit_title":   unit.Title,
		"chunks_text":  strings.Join(texts, "\n\n---\n\n"),
	})

	answer, err := s.generator.Generate(ctx, openai.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   topicSummaryMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, false, fmt.Errorf("generate topic summary: %w", err)
	}
	if answer.Degraded {
		return nil, false, fmt.Errorf("topic summary generation degraded: %s", answer.Reason)
	}

	summary, err := s.topicSums.Upsert(ctx, nil, &domain.TopicSummary{
		UserID:           subject.UserID,
		SubjectID:        subject.ID,
		UnitID:           unit.ID,
		TopicID:          topic.ID,
		SummaryText:      answer.Text,
		TokenCount:       s.counter.Count(answer.Text),
		SourceChunkCount: len(chunks),
		EmbeddingID:      nil,
	})
	if err != nil {
		return nil, false, fmt.Errorf("store topic summary: %w", err)
	}
	s.log.Info("topic summary generated", "topic_id", topic.ID, "tokens", summary.TokenCount, "chunks", len(chunks))
	return summary, existing != nil, nil
}

// GenerateUnitSummary creates or refreshes the summary of one unit from
// its topic summaries.
func (s *SummaryService) GenerateUnitSummary(ctx context.Context, unit *domain.Unit, force bool) (*domain.UnitSummary, bool, error) {
	existing, err := s.unitSums.GetByUnit(ctx, nil, unit.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("load existing summary: %w", err)
	}
	if existing != nil && !force {
		return existing, false, nil
	}

	topicSummaries, err := s.topicSums.ListByUnit(ctx, nil, unit.ID)
	if err != nil {
		return nil, false, fmt.Errorf("load topic summaries: %w", err)
	}
	if len(topicSummaries) == 0 {
		return nil, false, fmt.Errorf("no topic summaries found for unit %s, generate topic summaries first", unit.ID)
	}

	subject, err := s.subjects.GetByID(ctx, nil, unit.SubjectID)
	if err != nil {
		return nil, false, fmt.Errorf("load subject: %w", err)
	}

	parts := make([]string, 0, len(topicSummaries))
	for _, ts := range topicSummaries {
		topic, err := s.topics.GetByID(ctx, nil, ts.TopicID)
		if err != nil {
			return nil, false, fmt.Errorf("load topic %s: %w", ts.TopicID, err)
		}
		parts = append(parts, fmt.Sprintf("## %s\n%s", topic.Title, ts.SummaryText))
	}
	prompt := renderPrompt(unitSummaryPrompt, map[string]string{
		"unit_title":           unit.Title,
		"subject_name":         subject.Name,
		"topic_summaries_text": strings.Join(parts, "\n\n"),
	})

	answer, err := s.generator.Generate(ctx, openai.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   unitSummaryMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, false, fmt.Errorf("generate unit summary: %w", err)
	}
	if answer.Degraded {
		return nil, false, fmt.Errorf("unit summary generation degraded: %s", answer.Reason)
	}

	summary, err := s.unitSums.Upsert(ctx, nil, &domain.UnitSummary{
		UserID:           subject.UserID,
		SubjectID:        subject.ID,
		UnitID:           unit.ID,
		SummaryText:      answer.Text,
		TokenCount:       s.counter.Count(answer.Text),
		SourceTopicCount: len(topicSummaries),
		EmbeddingID:      nil,
	})
	if err != nil {
		return nil, false, fmt.Errorf("store unit summary: %w", err)
	}
	s.log.Info("unit summary generated", "unit_id", unit.ID, "tokens", summary.TokenCount, "topics", len(topicSummaries))
	return summary, existing != nil, nil
}

// EmbedTopicSummary indexes a topic summary unless it already carries an
// embedding handle.
func (s *SummaryService) EmbedTopicSummary(ctx context.Context, summary *domain.TopicSummary) (bool, error) {
	if summary.EmbeddingID != nil {
		return false, nil
	}
	vectors, err := s.embedder.Embed(ctx, []string{summary.SummaryText})
	if err != nil {
		return false, fmt.Errorf("embed topic summary: %w", err)
	}
	topicID := summary.TopicID
	handles, err := s.summaryIndex.Add(vectors, []domain.SummaryMeta{{
		SummaryID:   summary.ID,
		SummaryType: domain.SummaryTypeTopic,
		UserID:      summary.UserID,
		SubjectID:   summary.SubjectID,
		UnitID:      summary.UnitID,
		TopicID:     &topicID,
	}})
	if err != nil {
		return false, fmt.Errorf("index topic summary: %w", err)
	}
	packed := handles[0].Int64()
	if err := s.topicSums.UpdateFields(ctx, nil, summary.ID, map[string]interface{}{
		"embedding_id": packed,
	}); err != nil {
		return false, fmt.Errorf("record summary embedding: %w", err)
	}
	summary.EmbeddingID = &packed
	if err := s.summaryIndex.Save(s.indexPath, s.indexMetaPath); err != nil {
		return false, fmt.Errorf("save summary index: %w", err)
	}
	return true, nil
}

// EmbedUnitSummary indexes a unit summary unless already embedded.
func (s *SummaryService) EmbedUnitSummary(ctx context.Context, summary *domain.UnitSummary) (bool, error) {
	if summary.EmbeddingID != nil {
		return false, nil
	}
	vectors, err := s.embedder.Embed(ctx, []string{summary.SummaryText})
	if err != nil {
		return false, fmt.Errorf("embed unit summary: %w", err)
	}
	handles, err := s.summaryIndex.Add(vectors, []domain.SummaryMeta{{
		SummaryID:   summary.ID,
		SummaryType: domain.SummaryTypeUnit,
		UserID:      summary.UserID,
		SubjectID:   summary.SubjectID,
		UnitID:      summary.UnitID,
	}})
	if err != nil {
		return false, fmt.Errorf("index unit summary: %w", err)
	}
	packed := handles[0].Int64()
	if err := s.unitSums.UpdateFields(ctx, nil, summary.ID, map[string]interface{}{
		"embedding_id": packed,
	}); err != nil {
		return false, fmt.Errorf("record summary embedding: %w", err)
	}
	summary.EmbeddingID = &packed
	if err := s.summaryIndex.Save(s.indexPath, s.indexMetaPath); err != nil {
		return false, fmt.Errorf("save summary index: %w", err)
	}
	return true, nil
}

// GenerateForUnit regenerates every summary for a unit after a pipeline
// run. Topics without chunks are skipped; the first hard failure stops
// the pass and is reported to the caller, which treats it as
// best-effort.
func (s *SummaryService) GenerateForUnit(ctx context.Context, unitID uuid.UUID) error {
	unit, err := s.units.GetByID(ctx, nil, unitID)
	if err != nil {
		return fmt.Errorf("load unit: %w", err)
	}
	topics, err := s.topics.ListByUnit(ctx, nil, unitID)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}

	summarized := 0
	for _, topic := range topics {
		chunks, err := s.chunks.ListByTopic(ctx, nil, topic.ID)
		if err != nil {
			return fmt.Errorf("list chunks for topic %s: %w", topic.ID, err)
		}
		if len(chunks) == 0 {
			continue
		}
		summary, _, err := s.GenerateTopicSummary(ctx, topic, true)
		if err != nil {
			return err
		}
		if _, err := s.EmbedTopicSummary(ctx, summary); err != nil {
			return err
		}
		summarized++
	}

	if summarized == 0 {
		s.log.Warn("no topic summaries produced for unit", "unit_id", unitID)
		return nil
	}

	unitSummary, _, err := s.GenerateUnitSummary(ctx, unit, true)
	if err != nil {
		return err
	}
	if _, err := s.EmbedUnitSummary(ctx, unitSummary); err != nil {
		return err
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
	"github.com/nisschay/Edu-Rag/internal/vectorindex"
)

// Embedder is the slice of the model client retrieval needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// RetrievedChunk is one chunk hit joined back to its stored text.
type RetrievedChunk struct {
	ChunkID      uuid.UUID
	Text         string
	Score        float32
	SourceFileID uuid.UUID
	TopicID      uuid.UUID
	UnitID       uuid.UUID
	SubjectID    uuid.UUID
}

// SummaryResult is one summary-index hit.
type SummaryResult struct {
	SummaryID   uuid.UUID
	SummaryType string
	Score       float32
}

// Retriever is what the chat orchestrator consumes.
type Retriever interface {
	RetrieveChunks(ctx context.Context, filter domain.ScopeFilter, query string, topK int) ([]RetrievedChunk, error)
	SearchTopicSummaries(ctx context.Context, filter domain.ScopeFilter, query string, topK int) ([]SummaryResult, error)
	SearchUnitSummaries(ctx context.Context, filter domain.ScopeFilter, query string, topK int) ([]SummaryResult, error)
}

// RetrievalService embeds queries and searches the two vector indexes,
// joining chunk hits back to their database rows.
type RetrievalService struct {
	embedder     Embedder
	chunkIndex   *vectorindex.Index[domain.ChunkMeta]
	summaryIndex *vectorindex.Index[domain.SummaryMeta]
	chunks       repos.ChunkRepo
	log          *logger.Logger
}

func NewRetrievalService(
	embedder Embedder,
	chunkIndex *vectorindex.Index[domain.ChunkMeta],
	summaryIndex *vectorindex.Index[domain.SummaryMeta],
	chunks repos.ChunkRepo,
	baseLog *logger.Logger,
) *RetrievalService {
	return &RetrievalService{
		embedder:     embedder,
		chunkIndex:   chunkIndex,
		summaryIndex: summaryIndex,
		chunks:       chunks,
		log:          baseLog.With("service", "RetrievalService"),
	}
}

func (s *RetrievalService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}
	return vectors[0], nil
}

func (s *RetrievalService) RetrieveChunks(ctx context.Context, filter domain.ScopeFilter, query string, topK int) ([]RetrievedChunk, error) {
	queryVec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	results, err := s.chunkIndex.Search(queryVec, topK, filter.MatchesChunk)
	if err != nil {
		return nil, fmt.Errorf("search chunk index: %w", err)
	}
	if len(results) == 0 {
		return []RetrievedChunk{}, nil
	}

	ids := make([]uuid.UUID, len(results))
	for i, r := range results {
		ids[i] = r.Meta.ChunkID
	}
	rows, err := s.chunks.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load chunk rows: %w", err)
	}
	byID := make(map[uuid.UUID]*domain.Chunk, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	retrieved := make([]RetrievedChunk, 0, len(results))
	for _, r := range results {
		row, ok := byID[r.Meta.ChunkID]
		if !ok {
			// Superseded index entry whose row was wiped on rerun.
			continue
		}
		retrieved = append(retrieved, RetrievedChunk{
			ChunkID:      r.Meta.ChunkID,
			Text:         row.Text,
			Score:        r.Score,
			SourceFileID: r.Meta.SourceFileID,
			TopicID:      r.Meta.TopicID,
			UnitID:       r.Meta.UnitID,
			SubjectID:    r.Meta.SubjectID,
		})
	}
	s.log.Debug("retrieved chunks", "query_len", len(query), "hits", len(retrieved))
	return retrieved, nil
}

func (s *RetrievalService) SearchTopicSummaries(ctx context.Context, filter domain.ScopeFilter, query string, topK int) ([]SummaryResult, error) {
	filter.SummaryType = domain.SummaryTypeTopic
	return s.searchSummaries(ctx, filter, query, topK)
}

func (s *RetrievalService) SearchUnitSummaries(ctx context.Context, filter domain.ScopeFilter, query string, topK int) ([]SummaryResult, error) {
	filter.SummaryType = domain.SummaryTypeUnit
	// Unit summaries carry no topic id; a topic-scoped search must not
	// exclude them.
	filter.TopicID = nil
	return s.searchSummaries(ctx, filter, query, topK)
}

func (s *RetrievalService) searchSummaries(ctx context.Context, filter domain.ScopeFilter, query string, topK int) ([]SummaryResult, error) {
	queryVec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	results, err := s.summaryIndex.Search(queryVec, topK, filter.MatchesSummary)
	if err != nil {
		return nil, fmt.Errorf("search summary index: %w", err)
	}
	out := make([]SummaryResult, len(results))
	for i, r := range results {
		out[i] = SummaryResult{
			SummaryID:   r.Meta.SummaryID,
			SummaryType: r.Meta.SummaryType,
			Score:       r.Score,
		}
	}
	return out, nil
}

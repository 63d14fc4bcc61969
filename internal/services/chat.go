package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nisschay/Edu-Rag/internal/clients/openai"
	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/domain"
	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

const (
	unitSummaryTopK  = 3
	topicSummaryTopK = 5
	chunkTopK        = 8

	intentMaxTokens = 50
	chatMaxTokens   = 1024
	chatTemperature = 0.7

	noContextFallback = "No relevant content found in the uploaded materials."
)

const (
	SourceTypeChunk        = "chunk"
	SourceTypeTopicSummary = "topic_summary"
	SourceTypeUnitSummary  = "unit_summary"
)

// Source is one piece of material a chat answer was grounded on.
type Source struct {
	Type  string    `json:"type"`
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Score float32   `json:"score"`
}

// ChatRequest scopes a chat message. SubjectID, UnitID and TopicID may
// all be nil for a flexible chat across everything the user uploaded.
type ChatRequest struct {
	UserID    uuid.UUID
	SubjectID *uuid.UUID
	UnitID    *uuid.UUID
	TopicID   *uuid.UUID
	Message   string
}

// ChatResult is the orchestrator's answer. Degraded marks responses the
// model layer substituted after exhausting retries.
type ChatResult struct {
	Answer        string   `json:"answer"`
	Intent        Intent   `json:"intent"`
	Sources       []Source `json:"sources"`
	ContextTokens int      `json:"context_tokens"`
	Degraded      bool     `json:"degraded"`
}

// ChatService classifies intent, picks a retrieval tier for it, builds
// the grounding context and asks the model for an answer.
type ChatService struct {
	subjects  repos.SubjectRepo
	units     repos.UnitRepo
	topics    repos.TopicRepo
	files     repos.FileRepo
	topicSums repos.TopicSummaryRepo
	unitSums  repos.UnitSummaryRepo
	retriever Retriever
	generator Generator
	log       *logger.Logger
}

type ChatDeps struct {
	Subjects  repos.SubjectRepo
	Units     repos.UnitRepo
	Topics    repos.TopicRepo
	Files     repos.FileRepo
	TopicSums repos.TopicSummaryRepo
	UnitSums  repos.UnitSummaryRepo
	Retriever Retriever
	Generator Generator
}

func NewChatService(deps ChatDeps, baseLog *logger.Logger) *ChatService {
	return &ChatService{
		subjects:  deps.Subjects,
		units:     deps.Units,
		topics:    deps.Topics,
		files:     deps.Files,
		topicSums: deps.TopicSums,
		unitSums:  deps.UnitSums,
		retriever: deps.Retriever,
		generator: deps.Generator,
		log:       baseLog.With("service", "ChatService"),
	}
}

func (s *ChatService) classifyIntent(ctx context.Context, message, subjectName, unitTitle, topicTitle string) Intent {
	prompt := renderPrompt(intentClassificationPrompt, map[string]string{
		"message":      message,
		"subject_name": subjectName,
		"unit_title":   unitTitle,
		"topic_title":  topicTitle,
	})
	answer, err := s.generator.Generate(ctx, openai.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   intentMaxTokens,
		Temperature: 0,
	})
	if err != nil || answer.Degraded {
		s.log.Warn("intent classification unavailable, defaulting", "degraded", answer.Degraded, "error", err)
		return IntentExplainTopic
	}
	intent := coerceIntent(answer.Text)
	s.log.Debug("classified intent", "intent", intent)
	return intent
}

// scopeReady reports whether every file inside the scope has finished
// processing. It mirrors the upload state machine: pending or
// processing files block chat, an all-failed scope blocks with a
// re-upload hint, and an empty scope is trivially ready.
func (s *ChatService) scopeReady(ctx context.Context, subjectID, unitID, topicID *uuid.UUID) (bool, string, error) {
	topicIDs, err := s.scopeTopicIDs(ctx, subjectID, unitID, topicID)
	if err != nil {
		return false, "", err
	}
	if len(topicIDs) == 0 {
		return true, "", nil
	}
	files, err := s.files.ListByTopicIDs(ctx, nil, topicIDs)
	if err != nil {
		return false, "", fmt.Errorf("list files in scope: %w", err)
	}
	if len(files) == 0 {
		return true, "", nil
	}
	failed := 0
	for _, f := range files {
		switch f.Status {
		case domain.FileStatusPending, domain.FileStatusProcessing:
			return false, "Your material is still being processed. Try again shortly.", nil
		case domain.FileStatusFailed:
			failed++
		}
	}
	if failed == len(files) {
		return false, "The uploaded material failed to process. Please try re-uploading.", nil
	}
	return true, "", nil
}

func (s *ChatService) scopeTopicIDs(ctx context.Context, subjectID, unitID, topicID *uuid.UUID) ([]uuid.UUID, error) {
	switch {
	case topicID != nil:
		return []uuid.UUID{*topicID}, nil
	case unitID != nil:
		topics, err := s.topics.ListByUnit(ctx, nil, *unitID)
		if err != nil {
			return nil, fmt.Errorf("list topics in unit: %w", err)
		}
		ids := make([]uuid.UUID, len(topics))
		for i, t := range topics {
			ids[i] = t.ID
		}
		return ids, nil
	case subjectID != nil:
		units, err := s.units.ListBySubject(ctx, nil, *subjectID)
		if err != nil {
			return nil, fmt.Errorf("list units in subject: %w", err)
		}
		var ids []uuid.UUID
		for _, u := range units {
			topics, err := s.topics.ListByUnit(ctx, nil, u.ID)
			if err != nil {
				return nil, fmt.Errorf("list topics in unit: %w", err)
			}
			for _, t := range topics {
				ids = append(ids, t.ID)
			}
		}
		return ids, nil
	default:
		return nil, nil
	}
}

// retrieveUnitSummaryContext searches unit summaries and assembles
// their context block with titles and stored token counts.
func (s *ChatService) retrieveUnitSummaryContext(ctx context.Context, filter domain.ScopeFilter, query string, topK int) (string, int, []Source, error) {
	results, err := s.retriever.SearchUnitSummaries(ctx, filter, query, topK)
	if err != nil {
		return "", 0, nil, err
	}
	ids := make([]uuid.UUID, len(results))
	for i, r := range results {
		ids[i] = r.SummaryID
	}
	rows, err := s.unitSums.GetByIDs(ctx, nil, ids)
	if err != nil {
		return "", 0, nil, fmt.Errorf("load unit summaries: %w", err)
	}
	byID := make(map[uuid.UUID]*domain.UnitSummary, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	var (
		parts   []string
		tokens  int
		sources []Source
	)
	for _, r := range results {
		row, ok := byID[r.SummaryID]
		if !ok {
			continue
		}
		unit, err := s.units.GetByID(ctx, nil, row.UnitID)
		if err != nil {
			return "", 0, nil, fmt.Errorf("load unit %s: %w", row.UnitID, err)
		}
		parts = append(parts, fmt.Sprintf("## %s\n%s", unit.Title, row.SummaryText))
		tokens += row.TokenCount
		sources = append(sources, Source{
			Type:  SourceTypeUnitSummary,
			ID:    row.ID,
			Title: fmt.Sprintf("Unit Summary: %s", unit.Title),
			Score: r.Score,
		})
	}
	return strings.Join(parts, "\n\n"), tokens, sources, nil
}

func (s *ChatService) retrieveTopicSummaryContext(ctx context.Context, filter domain.ScopeFilter, query string, topK int) (string, int, []Source, error) {
	results, err := s.retriever.SearchTopicSummaries(ctx, filter, query, topK)
	if err != nil {
		return "", 0, nil, err
	}
	ids := make([]uuid.UUID, len(results))
	for i, r := range results {
		ids[i] = r.SummaryID
	}
	rows, err := s.topicSums.GetByIDs(ctx, nil, ids)
	if err != nil {
		return "", 0, nil, fmt.Errorf("load topic summaries: %w", err)
	}
	byID := make(map[uuid.UUID]*domain.TopicSummary, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	var (
		parts   []string
		tokens  int
		sources []Source
	)
	for _, r := range results {
		row, ok := byID[r.SummaryID]
		if !ok {
			continue
		}
		topic, err := s.topics.GetByID(ctx, nil, row.TopicID)
		if err != nil {
			return "", 0, nil, fmt.Errorf("load topic %s: %w", row.TopicID, err)
		}
		parts = append(parts, fmt.Sprintf("## %s\n%s", topic.Title, row.SummaryText))
		tokens += row.TokenCount
		sources = append(sources, Source{
			Type:  SourceTypeTopicSummary,
			ID:    row.ID,
			Title: fmt.Sprintf("Topic Summary: %s", topic.Title),
			Score: r.Score,
		})
	}
	return strings.Join(parts, "\n\n"), tokens, sources, nil
}

func (s *ChatService) retrieveChunkContext(ctx context.Context, filter domain.ScopeFilter, query string, topK int) (string, int, []Source, error) {
	chunks, err := s.retriever.RetrieveChunks(ctx, filter, query, topK)
	if err != nil {
		return "", 0, nil, err
	}
	var (
		parts   []string
		tokens  int
		sources []Source
	)
	for i, c := range chunks {
		parts = append(parts, c.Text)
		// Rough estimate at four characters per token.
		tokens += len(c.Text) / 4
		sources = append(sources, Source{
			Type:  SourceTypeChunk,
			ID:    c.ChunkID,
			Title: fmt.Sprintf("Excerpt %d", i+1),
			Score: c.Score,
		})
	}
	return strings.Join(parts, "\n\n---\n\n"), tokens, sources, nil
}

func (s *ChatService) generate(ctx context.Context, intent Intent, contextText, message, subjectName, unitTitle, topicTitle string) (openai.Answer, error) {
	summaryContext := contextText
	prompt := renderPrompt(chatPromptTemplate(intent), map[string]string{
		"context":         contextText,
		"summary_context": summaryContext,
		"chunk_context":   "",
		"message":         message,
		"subject_name":    orDefault(subjectName, "the subject"),
		"unit_title":      orDefault(unitTitle, "the unit"),
		"topic_title":     orDefault(topicTitle, "the topic"),
	})
	return s.generator.Generate(ctx, openai.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// Chat answers a message scoped to a subject, optionally narrowed to a
// unit or topic. The intent chooses the retrieval tier: unit summaries
// for broad teaching and revision, topic summaries for overviews and
// question generation, raw chunks for detail questions.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if req.SubjectID == nil {
		return nil, fmt.Errorf("subject id is required")
	}

	subjectName := "Unknown Subject"
	unitTitle := "Unknown Unit"
	topicTitle := "Unknown Topic"

	subject, err := s.subjects.GetByID(ctx, nil, *req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("load subject: %w", err)
	}
	subjectName = subject.Name

	unitID := req.UnitID
	if req.TopicID != nil {
		topic, err := s.topics.GetByID(ctx, nil, *req.TopicID)
		if err != nil {
			return nil, fmt.Errorf("load topic: %w", err)
		}
		topicTitle = topic.Title
		unitID = &topic.UnitID
	}
	if unitID != nil {
		unit, err := s.units.GetByID(ctx, nil, *unitID)
		if err != nil {
			return nil, fmt.Errorf("load unit: %w", err)
		}
		unitTitle = unit.Title
	}

	intent := s.classifyIntent(ctx, req.Message, subjectName, unitTitle, topicTitle)

	filter := domain.ScopeFilter{
		UserID:    &req.UserID,
		SubjectID: req.SubjectID,
		UnitID:    unitID,
		TopicID:   req.TopicID,
	}

	var (
		contextText string
		tokens      int
		sources     []Source
	)
	switch intent {
	case IntentTeachFromStart, IntentRevise:
		contextText, tokens, sources, err = s.retrieveUnitSummaryContext(ctx, filter, req.Message, unitSummaryTopK)
		if err != nil {
			return nil, err
		}
		if contextText == "" {
			contextText, tokens, sources, err = s.retrieveTopicSummaryContext(ctx, filter, req.Message, topicSummaryTopK)
			if err != nil {
				return nil, err
			}
		}
	case IntentExplainDetail:
		if req.TopicID == nil || unitID == nil {
			s.log.Warn("detail question without topic scope, using topic summaries")
			contextText, tokens, sources, err = s.retrieveTopicSummaryContext(ctx, filter, req.Message, topicSummaryTopK)
		} else {
			contextText, tokens, sources, err = s.retrieveChunkContext(ctx, filter, req.Message, chunkTopK)
		}
		if err != nil {
			return nil, err
		}
	default: // explain_topic, generate_questions
		contextText, tokens, sources, err = s.retrieveTopicSummaryContext(ctx, filter, req.Message, topicSummaryTopK)
		if err != nil {
			return nil, err
		}
	}

	if contextText == "" {
		s.log.Warn("no context retrieved", "intent", intent)
		contextText = noContextFallback
	}

	answer, err := s.generate(ctx, intent, contextText, req.Message, subjectName, unitTitle, topicTitle)
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = []Source{}
	}
	s.log.Info("chat completed", "intent", intent, "sources", len(sources), "context_tokens", tokens, "degraded", answer.Degraded)
	return &ChatResult{
		Answer:        answer.Text,
		Intent:        intent,
		Sources:       sources,
		ContextTokens: tokens,
		Degraded:      answer.Degraded,
	}, nil
}

// ChatFlexible accepts any combination of scope fields and degrades
// gracefully: a bare request searches everything the user uploaded, a
// unit or subject request answers from summaries at that level.
func (s *ChatService) ChatFlexible(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	ready, notReadyMessage, err := s.scopeReady(ctx, req.SubjectID, req.UnitID, req.TopicID)
	if err != nil {
		return nil, err
	}
	if !ready {
		return staticResult(notReadyMessage), nil
	}

	if req.SubjectID == nil && req.UnitID == nil && req.TopicID == nil {
		count, err := s.files.CountReadyByUser(ctx, nil, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("count ready files: %w", err)
		}
		if count == 0 {
			return staticResult("Welcome! I'm ready to help. To get started, you can create a subject and upload some study materials, or just ask me a general question if you've already uploaded something!"), nil
		}
		return s.chatGlobal(ctx, req.UserID, req.Message)
	}

	if req.TopicID != nil {
		result, err := s.Chat(ctx, req)
		if err == nil {
			return result, nil
		}
		s.log.Error("topic chat failed", "error", err)
		if req.UnitID == nil && req.SubjectID == nil {
			return staticResult("I encountered an issue accessing that topic. Please try another one or check back later."), nil
		}
	}

	subjectID := req.SubjectID
	if subjectID == nil && req.UnitID != nil {
		unit, err := s.units.GetByID(ctx, nil, *req.UnitID)
		if err != nil {
			return staticResult("I couldn't find that unit. Please select a valid unit."), nil
		}
		subjectID = &unit.SubjectID
	}

	if req.UnitID != nil {
		filter := domain.ScopeFilter{UserID: &req.UserID, SubjectID: subjectID, UnitID: req.UnitID}
		contextText, tokens, sources, err := s.retrieveUnitSummaryContext(ctx, filter, req.Message, unitSummaryTopK)
		if err != nil {
			return nil, err
		}
		if contextText == "" {
			return staticResult("No study material has been uploaded for this unit yet. Try uploading some content!"), nil
		}
		unit, err := s.units.GetByID(ctx, nil, *req.UnitID)
		if err != nil {
			return nil, fmt.Errorf("load unit: %w", err)
		}
		answer, err := s.generate(ctx, IntentExplainTopic, contextText, req.Message, "", unit.Title, "")
		if err != nil {
			return nil, err
		}
		return &ChatResult{
			Answer:        answer.Text,
			Intent:        IntentExplainTopic,
			Sources:       sources,
			ContextTokens: tokens,
			Degraded:      answer.Degraded,
		}, nil
	}

	subject, err := s.subjects.GetByID(ctx, nil, *subjectID)
	if err != nil {
		return staticResult("That subject doesn't seem to exist. Please create one to get started."), nil
	}
	filter := domain.ScopeFilter{UserID: &req.UserID, SubjectID: subjectID}
	contextText, tokens, sources, err := s.retrieveUnitSummaryContext(ctx, filter, req.Message, topicSummaryTopK)
	if err != nil {
		return nil, err
	}
	if contextText == "" {
		return staticResult(fmt.Sprintf("No material uploaded for %s yet. Upload some units and topics to start learning!", subject.Name)), nil
	}
	answer, err := s.generate(ctx, IntentTeachFromStart, contextText, req.Message, subject.Name, "", "")
	if err != nil {
		return nil, err
	}
	return &ChatResult{
		Answer:        answer.Text,
		Intent:        IntentTeachFromStart,
		Sources:       sources,
		ContextTokens: tokens,
		Degraded:      answer.Degraded,
	}, nil
}

// chatGlobal answers across every subject the user owns, preferring
// topic summaries and falling back to unit summaries.
func (s *ChatService) chatGlobal(ctx context.Context, userID uuid.UUID, message string) (*ChatResult, error) {
	intent := s.classifyIntent(ctx, message, "All Subjects", "All Units", "All Topics")

	filter := domain.ScopeFilter{UserID: &userID}
	contextText, tokens, sources, err := s.retrieveTopicSummaryContext(ctx, filter, message, topicSummaryTopK)
	if err != nil {
		return nil, err
	}
	if contextText == "" {
		contextText, tokens, sources, err = s.retrieveUnitSummaryContext(ctx, filter, message, unitSummaryTopK)
		if err != nil {
			return nil, err
		}
	}
	if contextText == "" {
		result := staticResult("I couldn't find any relevant information in your uploaded materials. Could you please provide more details or upload more content?")
		result.Intent = intent
		return result, nil
	}

	answer, err := s.generate(ctx, intent, contextText, message, "Your Materials", "Multiple Units", "Multiple Topics")
	if err != nil {
		return nil, err
	}
	return &ChatResult{
		Answer:        answer.Text,
		Intent:        intent,
		Sources:       sources,
		ContextTokens: tokens,
		Degraded:      answer.Degraded,
	}, nil
}

func staticResult(answer string) *ChatResult {
	return &ChatResult{
		Answer:        answer,
		Intent:        IntentExplainTopic,
		Sources:       []Source{},
		ContextTokens: 0,
	}
}

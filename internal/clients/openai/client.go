package openai

import (
	"context"
	"fmt"
	"sort"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nisschay/Edu-Rag/internal/platform/logger"
	"github.com/nisschay/Edu-Rag/internal/platform/retry"
)

const (
	busyMessage    = "The system is busy. Please try again later."
	apologyMessage = "I apologize, but I am unable to process your request at the moment due to a system error."
)

// Client is the single gateway to the embedding and chat models. All
// calls go through the shared pacer and retry policy.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Generate(ctx context.Context, req GenerateRequest) (Answer, error)
}

type GenerateRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Answer is a degraded-success result: Text is always usable, and
// Degraded marks fallback copy produced after the model stayed
// unreachable. Degraded answers must never be persisted or embedded.
type Answer struct {
	Text     string
	Degraded bool
	Reason   string
}

type Config struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Retry          retry.Config
}

type client struct {
	api   *goopenai.Client
	cfg   Config
	pacer *retry.Pacer
	log   *logger.Logger
}

func NewClient(cfg Config, pacer *retry.Pacer, baseLog *logger.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = string(goopenai.SmallEmbedding3)
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = goopenai.GPT4oMini
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Default()
	}
	return &client{
		api:   goopenai.NewClientWithConfig(apiCfg),
		cfg:   cfg,
		pacer: pacer,
		log:   baseLog.With("client", "openai"),
	}, nil
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp goopenai.EmbeddingResponse
	err := retry.Do(ctx, c.log, c.cfg.Retry, "embed", func(ctx context.Context) error {
		if err := c.pacer.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		var callErr error
		resp, callErr = c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequestStrings{
			Input: texts,
			Model: goopenai.EmbeddingModel(c.cfg.EmbeddingModel),
		})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed %d texts: got %d embeddings back", len(texts), len(resp.Data))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

func (c *client) Generate(ctx context.Context, req GenerateRequest) (Answer, error) {
	messages := []goopenai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	var resp goopenai.ChatCompletionResponse
	err := retry.Do(ctx, c.log, c.cfg.Retry, "generate", func(ctx context.Context) error {
		if err := c.pacer.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		var callErr error
		resp, callErr = c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
			Model:       c.cfg.ChatModel,
			Messages:    messages,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		})
		return callErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return Answer{}, ctx.Err()
		}
		text := apologyMessage
		if retry.IsRateLimit(err) {
			text = busyMessage
		}
		c.log.Error("generation degraded after retries", "error", err)
		return Answer{Text: text, Degraded: true, Reason: err.Error()}, nil
	}
	if len(resp.Choices) == 0 {
		return Answer{Text: apologyMessage, Degraded: true, Reason: "empty completion"}, nil
	}
	return Answer{Text: resp.Choices[0].Message.Content}, nil
}

package chunker

import (
	"regexp"
	"strings"

	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

const (
	DefaultMinChunkSize   = 300
	DefaultMaxChunkSize   = 600
	DefaultOverlapPercent = 0.15
)

// TokenCounter is satisfied by the shared tokenizer. Taking the small
// interface keeps the chunker testable without loading a BPE.
type TokenCounter interface {
	Count(text string) int
}

// Chunk is one segment of source text, sized in tokens. StartOffset and
// EndOffset are character positions in the cleaned source, counted over
// the emitted chunk texts with a single separator between them, so
// overlap-carried sentences are attributed to the chunk they were first
// emitted in.
type Chunk struct {
	Text        string
	Index       int
	TokenCount  int
	StartOffset int
	EndOffset   int
}

// Chunker splits text into overlapping token-bounded segments, keeping
// sentence boundaries where possible and falling back to word boundaries
// for sentences that alone exceed the maximum size.
type Chunker struct {
	minChunkSize   int
	maxChunkSize   int
	overlapPercent float64
	counter        TokenCounter
	log            *logger.Logger
}

func New(counter TokenCounter, baseLog *logger.Logger) *Chunker {
	return NewWithSizes(counter, baseLog, DefaultMinChunkSize, DefaultMaxChunkSize, DefaultOverlapPercent)
}

func NewWithSizes(counter TokenCounter, baseLog *logger.Logger, minSize, maxSize int, overlap float64) *Chunker {
	return &Chunker{
		minChunkSize:   minSize,
		maxChunkSize:   maxSize,
		overlapPercent: overlap,
		counter:        counter,
		log:            baseLog.With("component", "chunker"),
	}
}

// Matches the last terminator before inter-sentence whitespace.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		// Cut just after the terminator; the whitespace is dropped.
		s := strings.TrimSpace(text[start : loc[0]+1])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// ChunkText splits text deterministically. Identical input always yields
// identical chunks. Empty or whitespace-only input yields no chunks, and
// text at or under the maximum size comes back as one chunk.
func (c *Chunker) ChunkText(text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		c.log.Warn("empty text provided for chunking")
		return []Chunk{}
	}

	totalTokens := c.counter.Count(text)
	if totalTokens <= c.maxChunkSize {
		return []Chunk{{Text: text, Index: 0, TokenCount: totalTokens, StartOffset: 0, EndOffset: len(text)}}
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		sentences = []string{text}
	}

	overlapTokens := int(float64(c.maxChunkSize) * c.overlapPercent)
	targetSize := c.maxChunkSize - overlapTokens

	var (
		chunks       []Chunk
		buffer       []string
		bufferTokens int
		chunkIndex   int
		charPos      int
	)

	flush := func(tokens int) {
		chunkText := strings.Join(buffer, " ")
		chunks = append(chunks, Chunk{
			Text:        chunkText,
			Index:       chunkIndex,
			TokenCount:  tokens,
			StartOffset: charPos,
			EndOffset:   charPos + len(chunkText),
		})
		chunkIndex++
		charPos += len(chunkText) + 1
	}

	for _, sentence := range sentences {
		sentenceTokens := c.counter.Count(sentence)

		if sentenceTokens > c.maxChunkSize {
			if len(buffer) > 0 {
				flush(bufferTokens)
				buffer = nil
				bufferTokens = 0
			}

			words := strings.Fields(sentence)
			var wordBuffer []string
			wordTokens := 0
			for _, word := range words {
				wt := c.counter.Count(word + " ")
				if wordTokens+wt > c.maxChunkSize && len(wordBuffer) > 0 {
					buffer = wordBuffer
					flush(wordTokens)
					keep := int(float64(len(wordBuffer)) * c.overlapPercent)
					if keep < 1 {
						keep = 1
					}
					wordBuffer = wordBuffer[len(wordBuffer)-keep:]
					wordTokens = c.counter.Count(strings.Join(wordBuffer, " "))
				}
				wordBuffer = append(wordBuffer, word)
				wordTokens += wt
			}
			if len(wordBuffer) > 0 {
				buffer = []string{strings.Join(wordBuffer, " ")}
				bufferTokens = wordTokens
			} else {
				buffer = nil
				bufferTokens = 0
			}
			continue
		}

		if bufferTokens+sentenceTokens > targetSize && len(buffer) > 0 {
			flush(bufferTokens)

			// Carry trailing sentences that fit inside the overlap budget.
			overlapCount := 0
			overlapTokenCount := 0
			for j := len(buffer) - 1; j >= 0; j-- {
				st := c.counter.Count(buffer[j])
				if overlapTokenCount+st > overlapTokens {
					break
				}
				overlapCount++
				overlapTokenCount += st
			}
			if overlapCount > 0 {
				buffer = buffer[len(buffer)-overlapCount:]
				bufferTokens = overlapTokenCount
			} else {
				buffer = nil
				bufferTokens = 0
			}
		}

		buffer = append(buffer, sentence)
		bufferTokens += sentenceTokens
	}

	if len(buffer) > 0 {
		chunkText := strings.Join(buffer, " ")
		chunks = append(chunks, Chunk{
			Text:        chunkText,
			Index:       chunkIndex,
			TokenCount:  c.counter.Count(chunkText),
			StartOffset: charPos,
			EndOffset:   charPos + len(chunkText),
		})
	}

	c.log.Debug("chunked text", "total_tokens", totalTokens, "chunks", len(chunks))
	return chunks
}

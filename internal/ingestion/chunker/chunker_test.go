package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

// wordCounter counts whitespace-separated words, which keeps the token
// math in tests exact without loading a BPE.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func newChunker(t *testing.T, minSize, maxSize int, overlap float64) *Chunker {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewWithSizes(wordCounter{}, log, minSize, maxSize, overlap)
}

func sentenceOfWords(n int, tag string) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", tag, i)
	}
	return strings.Join(words, " ") + "."
}

func TestChunkTextEmpty(t *testing.T) {
	c := newChunker(t, 30, 60, 0.2)
	if got := c.ChunkText("   \n\t  "); len(got) != 0 {
		t.Fatalf("whitespace input: want=0 chunks got=%d", len(got))
	}
	if got := c.ChunkText(""); len(got) != 0 {
		t.Fatalf("empty input: want=0 chunks got=%d", len(got))
	}
}

func TestChunkTextSingleChunkWhenSmall(t *testing.T) {
	c := newChunker(t, 30, 60, 0.2)
	text := sentenceOfWords(20, "w")
	chunks := c.ChunkText(text)
	if len(chunks) != 1 {
		t.Fatalf("chunks: want=1 got=%d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Fatalf("single chunk must keep the text verbatim")
	}
	if chunks[0].TokenCount != 20 {
		t.Fatalf("token count: want=20 got=%d", chunks[0].TokenCount)
	}
	if chunks[0].Index != 0 {
		t.Fatalf("index: want=0 got=%d", chunks[0].Index)
	}
}

func TestChunkTextSentenceOverlap(t *testing.T) {
	c := newChunker(t, 30, 60, 0.2)
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		sb.WriteString(sentenceOfWords(10, fmt.Sprintf("s%d_", i)))
		sb.WriteString(" ")
	}
	chunks := c.ChunkText(sb.String())
	if len(chunks) < 2 {
		t.Fatalf("chunks: want>=2 got=%d", len(chunks))
	}
	for _, ch := range chunks {
		if ch.TokenCount > 60 {
			t.Fatalf("chunk %d exceeds max: %d tokens", ch.Index, ch.TokenCount)
		}
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Index != i {
			t.Fatalf("indexes must be ordinal: want=%d got=%d", i, chunks[i].Index)
		}
		prev := chunks[i-1].Text
		lastSentence := prev[strings.LastIndex(prev[:len(prev)-1], ".")+2:]
		if !strings.HasPrefix(chunks[i].Text, lastSentence) {
			t.Fatalf("chunk %d must start with the previous chunk's trailing sentence:\nprev tail: %q\nnext head: %q",
				i, lastSentence, chunks[i].Text[:40])
		}
	}
}

func TestChunkTextOffsets(t *testing.T) {
	c := newChunker(t, 30, 60, 0.2)

	small := sentenceOfWords(20, "w")
	single := c.ChunkText(small)
	if len(single) != 1 {
		t.Fatalf("chunks: want=1 got=%d", len(single))
	}
	if single[0].StartOffset != 0 || single[0].EndOffset != len(small) {
		t.Fatalf("single chunk offsets: want=[0,%d] got=[%d,%d]",
			len(small), single[0].StartOffset, single[0].EndOffset)
	}

	var sb strings.Builder
	for i := 0; i < 12; i++ {
		sb.WriteString(sentenceOfWords(10, fmt.Sprintf("o%d_", i)))
		sb.WriteString(" ")
	}
	chunks := c.ChunkText(sb.String())
	if len(chunks) < 2 {
		t.Fatalf("chunks: want>=2 got=%d", len(chunks))
	}
	if chunks[0].StartOffset != 0 {
		t.Fatalf("first chunk must start at 0, got %d", chunks[0].StartOffset)
	}
	for i, ch := range chunks {
		if ch.EndOffset-ch.StartOffset != len(ch.Text) {
			t.Fatalf("chunk %d offsets do not span its text: [%d,%d] len=%d",
				i, ch.StartOffset, ch.EndOffset, len(ch.Text))
		}
		if i > 0 && ch.StartOffset != chunks[i-1].EndOffset+1 {
			t.Fatalf("chunk %d must start one separator past chunk %d: start=%d prev_end=%d",
				i, i-1, ch.StartOffset, chunks[i-1].EndOffset)
		}
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	c := newChunker(t, 30, 60, 0.2)
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString(sentenceOfWords(7, fmt.Sprintf("d%d_", i)))
		sb.WriteString(" ")
	}
	first := c.ChunkText(sb.String())
	second := c.ChunkText(sb.String())
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical input must produce identical chunks")
	}
}

func TestChunkTextOversizedSentenceWordSplit(t *testing.T) {
	c := newChunker(t, 30, 60, 0.2)
	// One 200-word sentence with no internal terminators.
	words := make([]string, 200)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	text := strings.Join(words, " ") + ". " + sentenceOfWords(10, "tail")

	chunks := c.ChunkText(text)
	if len(chunks) < 3 {
		t.Fatalf("long sentence must be word-split: want>=3 chunks got=%d", len(chunks))
	}
	for _, ch := range chunks {
		// Word accounting adds one token of slack per flushed word.
		if ch.TokenCount > 61 {
			t.Fatalf("chunk %d exceeds max after word split: %d tokens", ch.Index, ch.TokenCount)
		}
		if ch.Text == "" {
			t.Fatalf("chunk %d is empty", ch.Index)
		}
	}
	last := chunks[len(chunks)-1]
	if !strings.Contains(last.Text, "tail0") {
		t.Fatalf("trailing sentence lost: %q", last.Text)
	}
}

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"One. Two! Three?", []string{"One.", "Two!", "Three?"}},
		{"No terminator here", []string{"No terminator here"}},
		{"Spaced...   out. Done.", []string{"Spaced...", "out.", "Done."}},
		{"", nil},
	}
	for _, tc := range cases {
		got := splitSentences(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitSentences(%q): want=%v got=%v", tc.in, tc.want, got)
		}
	}
}

package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// Counter reports subword token counts for a piece of text. The chunker,
// summary sizing and context accounting all share one Counter so every
// budget is measured with the same encoding.
type Counter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// New returns a Counter backed by the cl100k_base encoding. Loading the
// encoding may download the BPE ranks on first use.
func New() (Counter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encodingName, err)
	}
	return &tiktokenCounter{enc: enc}, nil
}

func (c *tiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

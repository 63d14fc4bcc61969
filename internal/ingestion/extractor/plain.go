package extractor

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	// Latin-1 fallback: every byte maps 1:1 to the same code point.
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(rune(b))
	}
	return sb.String(), nil
}

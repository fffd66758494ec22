package chunker

import (
	"errors"
	"strings"
)

var ErrInvalidWindow = errors.New("chunk overlap must be smaller than chunk size")

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// TokenChunker splits text into overlapping windows of whitespace-delimited
// tokens. Window i starts at token offset i*(size-overlap) and holds up to
// size tokens joined by single spaces.
type TokenChunker struct {
	size    int
	overlap int
}

func NewTokenChunker(size, overlap int) (*TokenChunker, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		return nil, ErrInvalidWindow
	}

	return &TokenChunker{
		size:    size,
		overlap: overlap,
	}, nil
}

// Chunk is pure and deterministic. Empty or whitespace-only input yields nil.
func (c *TokenChunker) Chunk(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	step := c.size - c.overlap

	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, strings.Join(tokens[start:end], " "))

		if end == len(tokens) {
			break
		}
	}

	return chunks
}

func (c *TokenChunker) Size() int    { return c.size }
func (c *TokenChunker) Overlap() int { return c.overlap }

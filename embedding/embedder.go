// Package embedding maps text to fixed-length vectors without a trained
// model. Words are hashed into a small number of vector positions with
// position-decayed weights, so equal inputs always produce bit-identical
// vectors on every platform.
package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"unicode"
)

const (
	// DefaultDimension matches the collection configuration of the vector
	// index.
	DefaultDimension = 384

	// maxWords caps how many leading words contribute to a vector.
	maxWords = 50

	// minWordLength excludes short stop-ish tokens ("a", "of", "is").
	minWordLength = 3

	// positionsPerWord is how many vector positions each word hash feeds.
	positionsPerWord = 3
)

type Embedder struct {
	dim int
}

func NewEmbedder(dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultDimension
	}

	return &Embedder{dim: dim}
}

func (e *Embedder) Dimension() int { return e.dim }

// Embed returns the L2-normalized bag-of-words hash vector for text.
// A text with no usable words yields the zero vector.
func (e *Embedder) Embed(text string) []float32 {
	vec := make([]float32, e.dim)

	words := tokenize(text)
	if len(words) > maxWords {
		words = words[:maxWords]
	}

	for i, word := range words {
		weight := float32(1) / float32(i+1)

		hash := sha256.Sum256([]byte(word))
		for p := 0; p < positionsPerWord; p++ {
			pos := binary.BigEndian.Uint32(hash[p*4:p*4+4]) % uint32(e.dim)
			vec[pos] += weight
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}

	if norm == 0 {
		return vec
	}

	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}

	return vec
}

// tokenize lowercases the text and extracts alphanumeric runs, discarding
// words shorter than minWordLength.
func tokenize(text string) []string {
	runs := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	words := runs[:0]
	for _, run := range runs {
		if len([]rune(run)) < minWordLength {
			continue
		}
		words = append(words, run)
	}

	return words
}

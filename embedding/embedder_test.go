package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbedDeterministic(t *testing.T) {
	assert := assert.New(t)

	e := NewEmbedder(DefaultDimension)

	a := e.Embed("raft consensus leader election")
	b := e.Embed("raft consensus leader election")

	assert.Equal(a, b, "equal inputs must produce bit-identical vectors")
	assert.Len(a, DefaultDimension)
}

func TestEmbedUnitNorm(t *testing.T) {
	assert := assert.New(t)

	e := NewEmbedder(64)

	vec := e.Embed("the quick brown fox jumps over the lazy dog")

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}

	assert.InDelta(1.0, math.Sqrt(norm), 1e-5)
}

func TestEmbedNoUsableWords(t *testing.T) {
	assert := assert.New(t)

	e := NewEmbedder(64)

	// every token is below the minimum word length
	vec := e.Embed("a of is to")

	assert.Len(vec, 64)
	for _, v := range vec {
		assert.Zero(v)
	}

	vec = e.Embed("")
	for _, v := range vec {
		assert.Zero(v)
	}
}

func TestEmbedCaseAndPunctuationInsensitive(t *testing.T) {
	assert := assert.New(t)

	e := NewEmbedder(DefaultDimension)

	a := e.Embed("Raft, Consensus!")
	b := e.Embed("raft consensus")

	assert.Equal(a, b)
}

func TestEmbedDistinguishesTexts(t *testing.T) {
	assert := assert.New(t)

	e := NewEmbedder(DefaultDimension)

	a := e.Embed("raft consensus leader election")
	b := e.Embed("gophers dig burrow networks")

	assert.NotEqual(a, b)
}

func TestNewEmbedderDefaults(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(DefaultDimension, NewEmbedder(0).Dimension())
	assert.Equal(128, NewEmbedder(128).Dimension())
}

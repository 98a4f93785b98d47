package memory

import (
	"context"
	"regexp"
	"strings"
	"sync"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// TermFrequencyEmbedder is a deterministic, dependency-free Embedder used
// for tests and local runs when no real embedding-model collaborator is
// configured. It builds a fixed-width term-frequency vector over a
// vocabulary learned incrementally from the text it sees, grounded on
// kart-io-sentinel-x's SimpleEmbedder (TF-vector + cosine similarity).
//
// This is explicitly a placeholder: spec §1 places vector-store embedding
// models out of scope, so production use supplies a real Embedder.
type TermFrequencyEmbedder struct {
	mu         sync.Mutex
	dimensions int
	vocabulary map[string]int
}

// NewTermFrequencyEmbedder returns an embedder producing vectors of the
// given width (dimensions <= 0 defaults to 256).
func NewTermFrequencyEmbedder(dimensions int) *TermFrequencyEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &TermFrequencyEmbedder{
		dimensions: dimensions,
		vocabulary: make(map[string]int),
	}
}

// Embed implements Embedder.
func (e *TermFrequencyEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	vec := make([]float64, e.dimensions)

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tok := range tokens {
		idx, ok := e.vocabulary[tok]
		if !ok {
			idx = len(e.vocabulary) % e.dimensions
			e.vocabulary[tok] = idx
		}
		vec[idx%e.dimensions]++
	}
	return vec, nil
}

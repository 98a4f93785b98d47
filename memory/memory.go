// Package memory implements the append-only memory bank (spec C1): atomic
// facts extracted from a subject's utterances, stored with an embedding and
// searchable by similarity.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/deepnoodle-ai/biographer/internal/idgen"
)

// Memory is a single atomic fact or episode captured from the subject.
type Memory struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Text         string            `json:"text"`
	Importance   int               `json:"importance"` // 1-10
	Metadata     map[string]string `json:"metadata,omitempty"`
	SourceQuote  string            `json:"source_quote"`
	SessionID    int               `json:"session_id"`
	Embedding    []float64         `json:"embedding,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Embedder turns text into a fixed-shape vector. The real embedding model
// is an external collaborator (spec §1); this interface is the seam.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Bank is the append-only content-addressed memory store for one user.
// Safe for concurrent use: writes serialize, searches read a snapshot.
type Bank struct {
	mu       sync.RWMutex
	byID     map[string]*Memory
	order    []string // insertion order, also id-uniqueness source of truth
	embedder Embedder
	idSeq    IDGenerator
}

// IDGenerator mints opaque, unique memory identifiers.
type IDGenerator func() string

// NewBank creates an empty memory bank. embedder may be nil if the caller
// only intends to Load a previously saved bank (embeddings already present).
func NewBank(embedder Embedder, idGen IDGenerator) *Bank {
	if idGen == nil {
		idGen = idgen.New
	}
	return &Bank{
		byID:     make(map[string]*Memory),
		embedder: embedder,
		idSeq:    idGen,
	}
}

// AddMemory mints a new identifier, computes an embedding, and stores the
// memory. No deduplication is performed here — that is an Orchestrator
// concern (spec §4.1).
func (b *Bank) AddMemory(ctx context.Context, title, text string, importance int, sessionID int, sourceQuote string, metadata map[string]string) (*Memory, error) {
	if text == "" {
		return nil, fmt.Errorf("memory: text is required")
	}
	var embedding []float64
	if b.embedder != nil {
		var err error
		embedding, err = b.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("memory: embed: %w", err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.idSeq()
	for _, exists := b.byID[id]; exists; _, exists = b.byID[id] {
		id = b.idSeq()
	}
	m := &Memory{
		ID:          id,
		Title:       title,
		Text:        text,
		Importance:  importance,
		Metadata:    metadata,
		SourceQuote: sourceQuote,
		SessionID:   sessionID,
		Embedding:   embedding,
		CreatedAt:   time.Now(),
	}
	b.byID[id] = m
	b.order = append(b.order, id)
	return m, nil
}

// ScoredMemory pairs a memory with its similarity to a search query.
type ScoredMemory struct {
	Memory     *Memory
	Similarity float64
}

// Search returns the top-k memories ranked by cosine similarity to query,
// ties broken by importance then recency (spec §4.1).
func (b *Bank) Search(ctx context.Context, query string, k int) ([]ScoredMemory, error) {
	if k <= 0 {
		return nil, nil
	}
	if b.embedder == nil {
		return nil, fmt.Errorf("memory: no embedder configured for search")
	}
	queryVec, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("memory: embed query: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	results := make([]ScoredMemory, 0, len(b.order))
	for _, id := range b.order {
		m := b.byID[id]
		results = append(results, ScoredMemory{
			Memory:     m,
			Similarity: CosineSimilarity(queryVec, m.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, c := results[i], results[j]
		if a.Similarity != c.Similarity {
			return a.Similarity > c.Similarity
		}
		if a.Memory.Importance != c.Memory.Importance {
			return a.Memory.Importance > c.Memory.Importance
		}
		return a.Memory.CreatedAt.After(c.Memory.CreatedAt)
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// GetByIDs returns memories in the same order as the requested ids. Missing
// ids are silently skipped (spec does not define behavior for unknown ids
// beyond "stable order matching input").
func (b *Bank) GetByIDs(ids []string) []*Memory {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Memory, 0, len(ids))
	for _, id := range ids {
		if m, ok := b.byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// FormatForPrompt emits a deterministic tagged serialization of the given
// memory ids, stable because downstream tests assert on it (spec §4.1).
func (b *Bank) FormatForPrompt(ids []string, includeSource bool) string {
	memories := b.GetByIDs(ids)
	var out string
	for _, m := range memories {
		out += fmt.Sprintf("[MEM_%s] %s: %s", m.ID, m.Title, m.Text)
		if includeSource && m.SourceQuote != "" {
			out += fmt.Sprintf(" (source: %q)", m.SourceQuote)
		}
		out += "\n"
	}
	return out
}

// All returns every memory in insertion order. Used by save and by the
// Orchestrator when assembling a rolling conversation summary.
func (b *Bank) All() []*Memory {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Memory, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.byID[id])
	}
	return out
}

// Len reports the number of memories currently in the bank.
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Rebuild recomputes every memory's embedding using embedder. This is the
// one explicit rebuild path named by the spec's invariant that "embeddings
// [are] regenerated only on explicit rebuild."
func (b *Bank) Rebuild(ctx context.Context, embedder Embedder) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.order {
		m := b.byID[id]
		vec, err := embedder.Embed(ctx, m.Text)
		if err != nil {
			return fmt.Errorf("memory: rebuild %s: %w", id, err)
		}
		m.Embedding = vec
	}
	b.embedder = embedder
	return nil
}

// LoadSnapshot replaces the bank's contents with previously persisted
// memories, preserving their ids and creation order. Used by store.Load.
func (b *Bank) LoadSnapshot(memories []*Memory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byID = make(map[string]*Memory, len(memories))
	b.order = make([]string, 0, len(memories))
	for _, m := range memories {
		b.byID[m.ID] = m
		b.order = append(b.order, m.ID)
	}
}

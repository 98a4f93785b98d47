// Package question implements the question bank (spec C2): historical
// (actually asked) and proposed (candidate follow-up) questions, searchable
// by similarity for duplicate detection.
package question

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/deepnoodle-ai/biographer/internal/idgen"
	"github.com/deepnoodle-ai/biographer/memory"
)

// Kind distinguishes a question actually asked in a session from one merely
// proposed as a candidate follow-up.
type Kind string

const (
	Historical Kind = "historical"
	Proposed   Kind = "proposed"
)

// DefaultDuplicateThreshold is used when config does not override it. It
// matches the worked example in spec §8 scenario 3.
const DefaultDuplicateThreshold = 0.85

// Question is a single bank record; historical and proposed questions share
// this shape (spec §3).
type Question struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Kind        Kind      `json:"kind"`
	Proposer    string    `json:"proposer"`
	SessionID   int       `json:"session_id"`
	Embedding   []float64 `json:"embedding,omitempty"`
	AnsweredBy  []string  `json:"answered_by,omitempty"` // memory ids, historical only
}

// Bank stores questions of a single kind for a session or across sessions.
// The historical bank is append-only and persists across sessions; the
// proposed bank is ephemeral, scoped to the current session (spec §4.2).
type Bank struct {
	mu       sync.RWMutex
	byID     map[string]*Question
	order    []string
	kind     Kind
	embedder memory.Embedder
}

// NewBank creates an empty bank of the given kind.
func NewBank(kind Kind, embedder memory.Embedder) *Bank {
	return &Bank{
		byID:     make(map[string]*Question),
		kind:     kind,
		embedder: embedder,
	}
}

// Kind reports whether this is the historical or proposed bank.
func (b *Bank) Kind() Kind { return b.kind }

// AddQuestion records a new question, embedding its content for later
// similarity search. answeredBy is only meaningful for historical questions.
func (b *Bank) AddQuestion(ctx context.Context, content, proposer string, sessionID int, answeredBy []string) (*Question, error) {
	if content == "" {
		return nil, fmt.Errorf("question: content is required")
	}
	var embedding []float64
	if b.embedder != nil {
		var err error
		embedding, err = b.embedder.Embed(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("question: embed: %w", err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	q := &Question{
		ID:         idgen.New(),
		Content:    content,
		Kind:       b.kind,
		Proposer:   proposer,
		SessionID:  sessionID,
		Embedding:  embedding,
		AnsweredBy: answeredBy,
	}
	b.byID[q.ID] = q
	b.order = append(b.order, q.ID)
	return q, nil
}

// ScoredQuestion pairs a question with its similarity to a search query.
type ScoredQuestion struct {
	Question   *Question
	Similarity float64
}

// Search returns the top-k most similar questions to query.
func (b *Bank) Search(ctx context.Context, query string, k int) ([]ScoredQuestion, error) {
	if k <= 0 || b.embedder == nil {
		return nil, nil
	}
	queryVec, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("question: embed query: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	results := make([]ScoredQuestion, 0, len(b.order))
	for _, id := range b.order {
		q := b.byID[id]
		results = append(results, ScoredQuestion{
			Question:   q,
			Similarity: memory.CosineSimilarity(queryVec, q.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// All returns every question in insertion order.
func (b *Bank) All() []*Question {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Question, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.byID[id])
	}
	return out
}

// LoadSnapshot replaces the bank's contents, used when restoring a
// persisted historical bank.
func (b *Bank) LoadSnapshot(questions []*Question) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byID = make(map[string]*Question, len(questions))
	b.order = make([]string, 0, len(questions))
	for _, q := range questions {
		b.byID[q.ID] = q
		b.order = append(b.order, q.ID)
	}
}

// CombinedSearch searches both the historical and proposed banks, merges by
// content (case-sensitive exact match de-duplication), and sorts by
// similarity descending — used by the Scribe to detect near-duplicate
// follow-ups before committing them (spec §4.2).
func CombinedSearch(ctx context.Context, historical, proposed *Bank, query string, k int) ([]ScoredQuestion, error) {
	var all []ScoredQuestion
	if historical != nil {
		results, err := historical.Search(ctx, query, k)
		if err != nil {
			return nil, err
		}
		all = append(all, results...)
	}
	if proposed != nil {
		results, err := proposed.Search(ctx, query, k)
		if err != nil {
			return nil, err
		}
		all = append(all, results...)
	}
	seen := make(map[string]bool, len(all))
	deduped := all[:0:0]
	for _, r := range all {
		if seen[r.Question.Content] {
			continue
		}
		seen[r.Question.Content] = true
		deduped = append(deduped, r)
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Similarity > deduped[j].Similarity
	})
	if len(deduped) > k {
		deduped = deduped[:k]
	}
	return deduped, nil
}

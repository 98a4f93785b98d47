package question

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/biographer/memory"
	"github.com/stretchr/testify/require"
)

func TestBankAddQuestionAndAll(t *testing.T) {
	ctx := context.Background()
	bank := NewBank(Historical, memory.NewTermFrequencyEmbedder(64))

	q, err := bank.AddQuestion(ctx, "What was your childhood home like?", "interviewer", 1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, q.ID)
	require.Equal(t, Historical, q.Kind)

	all := bank.All()
	require.Len(t, all, 1)
	require.Equal(t, q, all[0])
}

func TestBankAddQuestionRejectsEmptyContent(t *testing.T) {
	ctx := context.Background()
	bank := NewBank(Proposed, memory.NewTermFrequencyEmbedder(64))
	_, err := bank.AddQuestion(ctx, "", "scribe", 1, nil)
	require.Error(t, err)
}

func TestBankSearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	embedder := memory.NewTermFrequencyEmbedder(64)
	bank := NewBank(Historical, embedder)

	_, _ = bank.AddQuestion(ctx, "Tell me about your favorite pet growing up", "interviewer", 1, nil)
	close, _ := bank.AddQuestion(ctx, "What was your first pet like as a child", "interviewer", 1, nil)

	results, err := bank.Search(ctx, "What was your first pet like as a child", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, close.ID, results[0].Question.ID)
}

func TestCombinedSearchDedupesByContent(t *testing.T) {
	ctx := context.Background()
	embedder := memory.NewTermFrequencyEmbedder(64)
	historical := NewBank(Historical, embedder)
	proposed := NewBank(Proposed, embedder)

	_, _ = historical.AddQuestion(ctx, "What did you study in college?", "interviewer", 1, nil)
	_, _ = proposed.AddQuestion(ctx, "What did you study in college?", "scribe", 1, nil)

	results, err := CombinedSearch(ctx, historical, proposed, "What did you study in college?", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestCombinedSearchHandlesNilBanks(t *testing.T) {
	ctx := context.Background()
	embedder := memory.NewTermFrequencyEmbedder(64)
	proposed := NewBank(Proposed, embedder)
	_, _ = proposed.AddQuestion(ctx, "Any siblings?", "scribe", 1, nil)

	results, err := CombinedSearch(ctx, nil, proposed, "Any siblings?", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestLoadSnapshotPreservesOrder(t *testing.T) {
	bank := NewBank(Historical, nil)
	bank.LoadSnapshot([]*Question{
		{ID: "a", Content: "first"},
		{ID: "b", Content: "second"},
	})
	all := bank.All()
	require.Len(t, all, 2)
	require.Equal(t, "a", all[0].ID)
	require.Equal(t, "b", all[1].ID)
}

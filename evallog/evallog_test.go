package evallog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogQuestionSimilarityWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir, 1)
	require.NoError(t, err)

	require.NoError(t, logger.LogQuestionSimilarity("scribe", "Where did you grow up?", []string{"What town were you raised in?"}, []float64{0.9}, true, "What town were you raised in?", "near-duplicate phrasing"))
	require.NoError(t, logger.LogQuestionSimilarity("scribe", "What was your first job?", nil, nil, false, "", ""))

	data, err := os.ReadFile(filepath.Join(dir, "question_similarity.csv"))
	require.NoError(t, err)
	lines := splitLines(string(data))
	require.Len(t, lines, 3) // header + 2 rows
	require.Contains(t, lines[0], "Timestamp")
}

func TestLogResponseLatencyComputesSeconds(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir, 1)
	require.NoError(t, err)

	start := time.Now()
	end := start.Add(2500 * time.Millisecond)
	require.NoError(t, logger.LogResponseLatency("msg-1", start, end, 42))

	data, err := os.ReadFile(filepath.Join(dir, "response_latency.csv"))
	require.NoError(t, err)
	require.Contains(t, string(data), "2.500")
}

func TestLogFeedbackAppendsRows(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir, 3)
	require.NoError(t, err)

	require.NoError(t, logger.LogFeedback("m1", "User", "like", "great answer"))
	require.NoError(t, logger.LogFeedback("m2", "User", "skip", ""))

	lines := mustLines(t, filepath.Join(dir, "feedback.csv"))
	require.Len(t, lines, 3)
}

func mustLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return splitLines(string(data))
}

func splitLines(s string) []string {
	var lines []string
	cur := ""
	for _, r := range s {
		if r == '\n' {
			lines = append(lines, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

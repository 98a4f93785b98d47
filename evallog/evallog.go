// Package evallog implements the evaluation-logging half of C11: simple
// append-only CSV logs next to the session's persisted state, grounded on
// original_source's EvaluationLogger (header-written-once, one row per
// event) and on the teacher's encoding/csv usage in cmd/dive/cli/compare.go.
package evallog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Logger appends rows to named CSV files under a per-user logs directory,
// writing the header exactly once per file.
type Logger struct {
	mu      sync.Mutex
	dir     string
	session int
}

// New creates a Logger rooted at dir (typically config.Config.LogsDir
// joined with the user id) for the given session id.
func New(dir string, sessionID int) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Logger{dir: dir, session: sessionID}, nil
}

// appendRow opens name (creating it with header if absent) and appends
// row. Safe for concurrent use across all of a Logger's methods.
func (l *Logger) appendRow(name string, header, row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.dir, name)
	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if needsHeader {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	return w.Write(row)
}

// LogQuestionSimilarity records a duplicate-question check result (spec
// §4.2 policy decision).
func (l *Logger) LogQuestionSimilarity(proposer, targetQuestion string, similar []string, scores []float64, isDuplicate bool, matchedQuestion, explanation string) error {
	scoreStrs := make([]string, len(scores))
	for i, s := range scores {
		scoreStrs[i] = strconv.FormatFloat(s, 'f', 2, 64)
	}
	row := []string{
		time.Now().Format(time.RFC3339),
		proposer,
		strconv.Itoa(l.session),
		targetQuestion,
		strings.Join(similar, "; "),
		strings.Join(scoreStrs, "; "),
		strconv.FormatBool(isDuplicate),
		matchedQuestion,
		explanation,
	}
	header := []string{
		"Timestamp", "Proposer", "Session ID", "Target Question",
		"Similar Questions", "Similarity Scores", "Is Duplicate",
		"Matched Question", "Explanation",
	}
	return l.appendRow("question_similarity.csv", header, row)
}

// LogResponseLatency records the delay between a user message and the
// Interviewer's response to it.
func (l *Logger) LogResponseLatency(messageID string, userMessageTime, responseTime time.Time, userMessageLength int) error {
	latency := responseTime.Sub(userMessageTime).Seconds()
	row := []string{
		messageID,
		strconv.Itoa(l.session),
		userMessageTime.Format(time.RFC3339),
		responseTime.Format(time.RFC3339),
		strconv.FormatFloat(latency, 'f', 3, 64),
		strconv.Itoa(userMessageLength),
	}
	header := []string{
		"Message ID", "Session ID", "User Message Timestamp",
		"Response Timestamp", "Latency Seconds", "User Message Length",
	}
	return l.appendRow("response_latency.csv", header, row)
}

// LogBiographyUpdateTime records how long an incremental or final
// Orchestrator update took (spec §4.9: "accumulated auto-update time is
// recorded").
func (l *Logger) LogBiographyUpdateTime(updateKind string, memoryCount int, duration time.Duration) error {
	row := []string{
		time.Now().Format(time.RFC3339),
		strconv.Itoa(l.session),
		updateKind,
		strconv.Itoa(memoryCount),
		strconv.FormatFloat(duration.Seconds(), 'f', 3, 64),
	}
	header := []string{"Timestamp", "Session ID", "Update Kind", "Memory Count", "Duration Seconds"}
	return l.appendRow("biography_update_times.csv", header, row)
}

// LogFeedback records a `like`/`skip` router message for later review
// (spec §4.5: "like is recorded only (feedback log)").
func (l *Logger) LogFeedback(messageID, role, feedbackType, content string) error {
	row := []string{
		time.Now().Format(time.RFC3339),
		strconv.Itoa(l.session),
		messageID,
		role,
		feedbackType,
		content,
	}
	header := []string{"Timestamp", "Session ID", "Message ID", "Role", "Type", "Content"}
	if err := l.appendRow("feedback.csv", header, row); err != nil {
		return fmt.Errorf("evallog: log feedback: %w", err)
	}
	return nil
}

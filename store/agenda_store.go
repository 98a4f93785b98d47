package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/deepnoodle-ai/biographer/agenda"
)

// AgendaStore persists per-session agenda snapshots under
// root/<userID>/session_agenda_<sessionID>.json.
type AgendaStore struct {
	root string
}

func NewAgendaStore(root string) *AgendaStore {
	return &AgendaStore{root: root}
}

var agendaFilePattern = regexp.MustCompile(`^session_agenda_(\d+)\.json$`)

// Save writes ag's current snapshot.
func (s *AgendaStore) Save(userID string, ag *agenda.Agenda) error {
	dir, err := userDir(s.root, userID)
	if err != nil {
		return err
	}
	snapshot := ag.Snapshot()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("session_agenda_%d.json", snapshot.SessionID))
	return writeFileAtomic(path, data, 0o644)
}

// LoadLast returns the most recently saved agenda for userID. found is
// false if no prior session agenda exists — the caller should construct an
// initial agenda via agenda.Bootstrap in that case (spec §4.4 lifecycle).
func (s *AgendaStore) LoadLast(userID string) (ag *agenda.Agenda, found bool, err error) {
	dir, err := userDir(s.root, userID)
	if err != nil {
		return nil, false, err
	}
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "session_agenda_*.json"))
	if err != nil {
		return nil, false, err
	}

	latestSessionID := -1
	var latestPath string
	for _, m := range matches {
		sub := agendaFilePattern.FindStringSubmatch(filepath.Base(m))
		if sub == nil {
			continue
		}
		id, err := strconv.Atoi(sub[1])
		if err != nil {
			continue
		}
		if id > latestSessionID {
			latestSessionID = id
			latestPath = m
		}
	}
	if latestPath == "" {
		return nil, false, nil
	}

	data, err := os.ReadFile(latestPath)
	if err != nil {
		return nil, false, err
	}
	var snapshot agenda.Agenda
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, err
	}
	restored := agenda.New(snapshot.SessionID)
	for _, e := range snapshot.UserPortrait {
		restored.SetPortraitEntry(e.Key, e.Value)
	}
	restored.SetLastMeetingSummary(snapshot.LastMeetingSummary)
	restored.Topics = snapshot.Topics
	restored.Notes = snapshot.Notes
	return restored, true, nil
}

// Package agenda implements the session agenda (spec C4): the user
// portrait, last-meeting summary, and nested interview-question tree that
// is the coordination artifact between the Interviewer and the Scribe.
package agenda

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// PortraitEntry is one durable fact about the subject (e.g. "Name" ->
// "Alice"). A slice rather than a map because the spec requires a stable
// render order (insertion order).
type PortraitEntry struct {
	Key   string
	Value string
}

// Question is a node in a topic's interview-question tree. IDs are
// sequential per parent and dotted, e.g. "1", "1.1", "1.1.1", up to a
// maximum depth of 4.
type Question struct {
	ID       string      `json:"id"`
	Text     string      `json:"text"`
	Notes    []string    `json:"notes,omitempty"`
	Children []*Question `json:"children,omitempty"`
}

// Answered reports whether this question or any of its descendants has at
// least one note attached (spec §4.4 invariant).
func (q *Question) Answered() bool {
	if len(q.Notes) > 0 {
		return true
	}
	for _, c := range q.Children {
		if c.Answered() {
			return true
		}
	}
	return false
}

func (q *Question) find(id string) *Question {
	if q.ID == id {
		return q
	}
	for _, c := range q.Children {
		if found := c.find(id); found != nil {
			return found
		}
	}
	return nil
}

// MaxQuestionDepth is the deepest an id path may nest (spec §4.4: "max
// depth 4").
const MaxQuestionDepth = 4

func questionDepth(id string) int {
	if id == "" {
		return 0
	}
	return strings.Count(id, ".") + 1
}

// Topic groups a rooted tree of interview questions under a name (e.g.
// "Childhood", "Career").
type Topic struct {
	Name      string      `json:"name"`
	Questions []*Question `json:"questions"`
}

func (t *Topic) find(id string) *Question {
	for _, q := range t.Questions {
		if found := q.find(id); found != nil {
			return found
		}
	}
	return nil
}

// Agenda is the per-session coordination artifact: portrait, summary,
// topics, and free-form notes.
type Agenda struct {
	mu sync.RWMutex

	SessionID          int              `json:"session_id"`
	UserPortrait       []PortraitEntry  `json:"user_portrait"`
	LastMeetingSummary string           `json:"last_meeting_summary"`
	Topics             []*Topic         `json:"topics"`
	Notes              []string         `json:"notes,omitempty"`
}

// New creates an empty agenda for sessionID (the first session for a user
// is 1, per spec §3).
func New(sessionID int) *Agenda {
	return &Agenda{SessionID: sessionID}
}

// SetPortraitEntry inserts or updates a portrait key, preserving the
// existing position on update and appending on insert.
func (a *Agenda) SetPortraitEntry(key, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.UserPortrait {
		if a.UserPortrait[i].Key == key {
			a.UserPortrait[i].Value = value
			return
		}
	}
	a.UserPortrait = append(a.UserPortrait, PortraitEntry{Key: key, Value: value})
}

// GetUserPortraitStr renders the portrait as "Key: Value" lines in
// insertion order (spec §4.4).
func (a *Agenda) GetUserPortraitStr() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var b strings.Builder
	for _, e := range a.UserPortrait {
		fmt.Fprintf(&b, "%s: %s\n", e.Key, e.Value)
	}
	return b.String()
}

// GetQuestionsAndNotesStr renders every topic's question tree. Each
// question renders as "[ID] {id}: {text}" followed by its notes as
// "[note] ..." lines; when hideAnswered is true, answered questions
// collapse to "[ID] {id}: (Answered)" with their notes omitted, so the
// prompt stays compact without re-surfacing settled ground (spec §4.4).
func (a *Agenda) GetQuestionsAndNotesStr(hideAnswered bool) string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var b strings.Builder
	var render func(q *Question, indent string)
	render = func(q *Question, indent string) {
		answered := q.Answered()
		text := q.Text
		if hideAnswered && answered {
			text = "(Answered)"
		}
		fmt.Fprintf(&b, "%s[ID] %s: %s\n", indent, q.ID, text)
		if !(hideAnswered && answered) {
			for _, note := range q.Notes {
				fmt.Fprintf(&b, "%s  [note] %s\n", indent, note)
			}
		}
		for _, c := range q.Children {
			render(c, indent+"  ")
		}
	}

	for _, topic := range a.Topics {
		fmt.Fprintf(&b, "## %s\n", topic.Name)
		for _, q := range topic.Questions {
			render(q, "")
		}
	}
	return b.String()
}

func (a *Agenda) findTopic(name string) *Topic {
	for _, t := range a.Topics {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// nextSiblingID computes the next sequential id among siblings, e.g. given
// existing ["1.1", "1.2"] under parent "1" it returns "1.3"; with no
// siblings under parent "1" it returns "1.1"; with no parent it returns the
// next top-level id, e.g. "2".
func nextSiblingID(parentID string, siblings []*Question) string {
	max := 0
	for _, s := range siblings {
		parts := strings.Split(s.ID, ".")
		last := parts[len(parts)-1]
		if n, err := strconv.Atoi(last); err == nil && n > max {
			max = n
		}
	}
	next := max + 1
	if parentID == "" {
		return strconv.Itoa(next)
	}
	return fmt.Sprintf("%s.%d", parentID, next)
}

// AddInterviewQuestion adds a question to topic's tree. If id is empty, the
// next sequential id is assigned under parentID (top-level if parentID is
// empty). parentText is accepted for compatibility with the tool-call
// contract (spec §4.4's note_tools shape) but is not itself stored — the
// parent is looked up by parentID.
func (a *Agenda) AddInterviewQuestion(topicName, text, id, parentID, parentText string) (*Question, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	topic := a.findTopic(topicName)
	if topic == nil {
		topic = &Topic{Name: topicName}
		a.Topics = append(a.Topics, topic)
	}

	var siblings *[]*Question
	if parentID == "" {
		siblings = &topic.Questions
	} else {
		parent := topic.find(parentID)
		if parent == nil {
			return nil, fmt.Errorf("agenda: parent question %q not found in topic %q", parentID, topicName)
		}
		siblings = &parent.Children
	}

	if id == "" {
		id = nextSiblingID(parentID, *siblings)
	}
	if questionDepth(id) > MaxQuestionDepth {
		return nil, fmt.Errorf("agenda: question id %q exceeds max depth %d", id, MaxQuestionDepth)
	}

	q := &Question{ID: id, Text: text}
	*siblings = append(*siblings, q)
	return q, nil
}

// AddNote appends a note either to a specific question (by id, searched
// across all topics) or, if questionID is empty, to the agenda's unbound
// notes.
func (a *Agenda) AddNote(questionID, note string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if questionID == "" {
		a.Notes = append(a.Notes, note)
		return nil
	}
	for _, topic := range a.Topics {
		if q := topic.find(questionID); q != nil {
			q.Notes = append(q.Notes, note)
			return nil
		}
	}
	return fmt.Errorf("agenda: question %q not found", questionID)
}

// DeleteInterviewQuestion removes a question (and its children) by id from
// whichever topic contains it. Returns false if not found.
func (a *Agenda) DeleteInterviewQuestion(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	var remove func(list *[]*Question) bool
	remove = func(list *[]*Question) bool {
		for i, q := range *list {
			if q.ID == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return true
			}
			if remove(&q.Children) {
				return true
			}
		}
		return false
	}
	for _, topic := range a.Topics {
		if remove(&topic.Questions) {
			return true
		}
	}
	return false
}

// ClearQuestions removes all topics (and their question trees), used by the
// Orchestrator's end-of-session agenda rewrite (spec §4.4/§4.8). Portrait,
// summary, and unbound notes are left untouched.
func (a *Agenda) ClearQuestions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Topics = nil
}

// SetLastMeetingSummary replaces the last-meeting summary string.
func (a *Agenda) SetLastMeetingSummary(summary string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.LastMeetingSummary = summary
}

// Snapshot returns a value copy of the agenda's fields for persistence
// (store.AgendaStore serializes this).
func (a *Agenda) Snapshot() Agenda {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Agenda{
		SessionID:          a.SessionID,
		UserPortrait:       append([]PortraitEntry(nil), a.UserPortrait...),
		LastMeetingSummary: a.LastMeetingSummary,
		Topics:             a.Topics,
		Notes:              append([]string(nil), a.Notes...),
	}
}

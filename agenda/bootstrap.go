package agenda

import (
	"github.com/goccy/go-yaml"
)

// seedDocument is the shape of the YAML seed file used to construct the
// very first agenda for a brand-new user (spec §4.4 lifecycle: "or
// construct an initial one with seed questions").
type seedDocument struct {
	Topics []seedTopic `yaml:"topics"`
}

type seedTopic struct {
	Name      string         `yaml:"name"`
	Questions []seedQuestion `yaml:"questions"`
}

type seedQuestion struct {
	Text     string         `yaml:"text"`
	Children []seedQuestion `yaml:"children,omitempty"`
}

// defaultSeedYAML is used when Bootstrap is given a nil or empty seedYAML.
// It mirrors the original implementation's opening baseline topics.
const defaultSeedYAML = `
topics:
  - name: Childhood
    questions:
      - text: Where did you grow up?
      - text: What is your earliest memory?
  - name: Family
    questions:
      - text: Tell me about your parents.
      - text: Do you have siblings?
  - name: Career
    questions:
      - text: How did you choose your profession?
`

// Bootstrap constructs the initial agenda for sessionID from seedYAML. A
// nil or empty seedYAML falls back to a small built-in default so the
// Interviewer always has somewhere to start (spec §4.4, §4.9 "cold start").
func Bootstrap(sessionID int, seedYAML []byte) (*Agenda, error) {
	if len(seedYAML) == 0 {
		seedYAML = []byte(defaultSeedYAML)
	}

	var doc seedDocument
	if err := yaml.Unmarshal(seedYAML, &doc); err != nil {
		return nil, err
	}

	a := New(sessionID)
	var buildQuestions func(parentID string, seeds []seedQuestion) []*Question
	buildQuestions = func(parentID string, seeds []seedQuestion) []*Question {
		var out []*Question
		for _, sq := range seeds {
			id := nextSiblingID(parentID, out)
			q := &Question{ID: id, Text: sq.Text}
			q.Children = buildQuestions(id, sq.Children)
			out = append(out, q)
		}
		return out
	}

	for _, st := range doc.Topics {
		topic := &Topic{Name: st.Name, Questions: buildQuestions("", st.Questions)}
		a.Topics = append(a.Topics, topic)
	}
	return a, nil
}

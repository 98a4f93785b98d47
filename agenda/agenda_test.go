package agenda

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPortraitPreservesOrderAndUpdates(t *testing.T) {
	a := New(1)
	a.SetPortraitEntry("Name", "Alice")
	a.SetPortraitEntry("Age", "34")
	a.SetPortraitEntry("Name", "Alice Smith")

	require.Equal(t, "Name: Alice Smith\nAge: 34\n", a.GetUserPortraitStr())
}

func TestAddInterviewQuestionAutoAssignsSequentialIDs(t *testing.T) {
	a := New(1)
	q1, err := a.AddInterviewQuestion("Childhood", "Where did you grow up?", "", "", "")
	require.NoError(t, err)
	require.Equal(t, "1", q1.ID)

	q2, err := a.AddInterviewQuestion("Childhood", "What's your earliest memory?", "", "", "")
	require.NoError(t, err)
	require.Equal(t, "2", q2.ID)

	child, err := a.AddInterviewQuestion("Childhood", "Which town?", "", q1.ID, q1.Text)
	require.NoError(t, err)
	require.Equal(t, "1.1", child.ID)
}

func TestAddInterviewQuestionRejectsUnknownParent(t *testing.T) {
	a := New(1)
	_, err := a.AddInterviewQuestion("Childhood", "x", "", "9.9", "")
	require.Error(t, err)
}

func TestAddInterviewQuestionRejectsDepthOverflow(t *testing.T) {
	a := New(1)
	_, err := a.AddInterviewQuestion("Childhood", "too deep", "1.1.1.1.1", "", "")
	require.Error(t, err)
}

func TestAnsweredPropagatesFromNotes(t *testing.T) {
	a := New(1)
	parent, _ := a.AddInterviewQuestion("Career", "How did you choose your profession?", "", "", "")
	child, _ := a.AddInterviewQuestion("Career", "Who influenced you?", "", parent.ID, parent.Text)

	require.False(t, parent.Answered())
	require.NoError(t, a.AddNote(child.ID, "My mentor in college."))
	require.True(t, parent.Answered())
}

func TestGetQuestionsAndNotesStrHidesAnsweredWhenRequested(t *testing.T) {
	a := New(1)
	q, _ := a.AddInterviewQuestion("Career", "How did you choose your profession?", "", "", "")
	require.NoError(t, a.AddNote(q.ID, "Loved building things as a kid."))

	visible := a.GetQuestionsAndNotesStr(false)
	require.Contains(t, visible, "How did you choose your profession?")
	require.Contains(t, visible, "[note] Loved building things as a kid.")

	hidden := a.GetQuestionsAndNotesStr(true)
	require.Contains(t, hidden, "(Answered)")
	require.NotContains(t, hidden, "[note] Loved building things as a kid.")
}

func TestDeleteInterviewQuestionRemovesSubtree(t *testing.T) {
	a := New(1)
	q, _ := a.AddInterviewQuestion("Career", "How did you choose your profession?", "", "", "")
	require.True(t, a.DeleteInterviewQuestion(q.ID))
	require.False(t, a.DeleteInterviewQuestion(q.ID))
}

func TestClearQuestionsKeepsPortraitAndSummary(t *testing.T) {
	a := New(1)
	a.SetPortraitEntry("Name", "Alice")
	a.SetLastMeetingSummary("Talked about career.")
	_, _ = a.AddInterviewQuestion("Career", "x", "", "", "")

	a.ClearQuestions()
	require.Empty(t, a.Topics)
	require.Equal(t, "Alice", a.UserPortrait[0].Value)
	require.Equal(t, "Talked about career.", a.LastMeetingSummary)
}

func TestBootstrapUsesDefaultSeedWhenEmpty(t *testing.T) {
	a, err := Bootstrap(1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, a.Topics)
	require.Equal(t, "Childhood", a.Topics[0].Name)
	require.Equal(t, "1", a.Topics[0].Questions[0].ID)
}

func TestBootstrapParsesCustomSeed(t *testing.T) {
	seed := []byte(`
topics:
  - name: Travel
    questions:
      - text: Where have you traveled?
        children:
          - text: What was the most memorable trip?
`)
	a, err := Bootstrap(2, seed)
	require.NoError(t, err)
	require.Len(t, a.Topics, 1)
	require.Equal(t, "Travel", a.Topics[0].Name)
	require.Equal(t, "1.1", a.Topics[0].Questions[0].Children[0].ID)
}

package interviewer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/biographer/agenda"
	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/memory"
	"github.com/deepnoodle-ai/biographer/router"
)

type scriptedLLM struct {
	responses []string
	calls     int
}

func (f *scriptedLLM) Generate(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (*llm.Response, error) {
	text := f.responses[f.calls]
	if f.calls < len(f.responses)-1 {
		f.calls++
	}
	return &llm.Response{
		Role:    llm.Assistant,
		Content: []llm.Content{&llm.TextContent{Text: text}},
	}, nil
}

func (f *scriptedLLM) Stream(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (llm.Stream, error) {
	return nil, nil
}

func (f *scriptedLLM) SupportsStreaming() bool { return false }

type capturingSubscriber struct {
	messages []*router.Message
}

func (c *capturingSubscriber) OnMessage(ctx context.Context, msg *router.Message) error {
	c.messages = append(c.messages, msg)
	return nil
}

func newTestSession(t *testing.T) (*Session, *router.Router) {
	t.Helper()
	r := router.New(nil)
	ag := agenda.New(1)
	embedder := memory.NewTermFrequencyEmbedder(16)
	bank := memory.NewBank(embedder, nil)
	return &Session{Router: r, Agenda: ag, MemoryBank: bank, UserID: "alice"}, r
}

func TestOpenPostsOpeningQuestionToRouter(t *testing.T) {
	ctx := context.Background()
	session, r := newTestSession(t)
	sub := &capturingSubscriber{}
	r.Subscribe(ctx, router.RoleInterviewer, sub)

	model := &scriptedLLM{responses: []string{
		"<tool_calls><respond_to_user><response>Hi there, what's on your mind today?</response></respond_to_user></tool_calls>",
	}}
	iv := New(Config{UserID: "alice"}, model, session)
	require.NoError(t, iv.Open(ctx))

	require.Eventually(t, func() bool { return len(sub.messages) == 1 }, time.Second, time.Millisecond)
}

func TestTakeTurnRecallsBeforeResponding(t *testing.T) {
	ctx := context.Background()
	session, r := newTestSession(t)
	sub := &capturingSubscriber{}
	r.Subscribe(ctx, router.RoleInterviewer, sub)
	_, err := session.MemoryBank.AddMemory(ctx, "Childhood home", "grew up in a small town", 5, 1, "quote", nil)
	require.NoError(t, err)

	model := &scriptedLLM{responses: []string{
		"<tool_calls><recall><reasoning>need context</reasoning><query>childhood home</query></recall></tool_calls>",
		"<tool_calls><respond_to_user><response>Tell me more about that town.</response></respond_to_user></tool_calls>",
	}}
	iv := New(Config{UserID: "alice", MaxConsiderationIterations: 3}, model, session)
	msg := &router.Message{Role: router.RoleUser, Content: "I grew up in a small town."}
	require.NoError(t, iv.OnMessage(ctx, msg))

	require.Eventually(t, func() bool { return len(sub.messages) == 1 }, time.Second, time.Millisecond)
	require.Contains(t, sub.messages[0].Content, "Tell me more")
}

func TestTakeTurnStopsAtMaxConsiderationIterations(t *testing.T) {
	ctx := context.Background()
	session, r := newTestSession(t)
	sub := &capturingSubscriber{}
	r.Subscribe(ctx, router.RoleInterviewer, sub)

	model := &scriptedLLM{responses: []string{
		"<tool_calls><recall><reasoning>x</reasoning><query>x</query></recall></tool_calls>",
	}}
	iv := New(Config{UserID: "alice", MaxConsiderationIterations: 2}, model, session)
	msg := &router.Message{Role: router.RoleUser, Content: "hello"}
	require.NoError(t, iv.OnMessage(ctx, msg))
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, sub.messages)
}

func TestEndConversationFlipsRouterInProgress(t *testing.T) {
	ctx := context.Background()
	session, r := newTestSession(t)
	sub := &capturingSubscriber{}
	r.Subscribe(ctx, router.RoleInterviewer, sub)

	model := &scriptedLLM{responses: []string{
		"<tool_calls><end_conversation><response>Thanks for sharing today.</response></end_conversation></tool_calls>",
	}}
	iv := New(Config{UserID: "alice"}, model, session)
	msg := &router.Message{Role: router.RoleUser, Content: "I need to go now."}
	require.NoError(t, iv.OnMessage(ctx, msg))
	require.Eventually(t, func() bool { return !r.InProgress() }, time.Second, time.Millisecond)
}

func TestOnMessageIgnoresNonUserMessages(t *testing.T) {
	ctx := context.Background()
	session, r := newTestSession(t)
	sub := &capturingSubscriber{}
	r.Subscribe(ctx, router.RoleInterviewer, sub)

	model := &scriptedLLM{responses: []string{"<tool_calls></tool_calls>"}}
	iv := New(Config{UserID: "alice"}, model, session)
	err := iv.OnMessage(ctx, &router.Message{Role: router.RoleInterviewer, Content: "echo"})
	require.NoError(t, err)
	require.Empty(t, sub.messages)
}

func TestBaselineModeCyclesThemes(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(t)
	model := &scriptedLLM{responses: []string{
		"<tool_calls><respond_to_user><response>q1</response></respond_to_user></tool_calls>",
	}}
	iv := New(Config{UserID: "alice", Mode: PromptBaseline}, model, session)
	first := iv.nextTheme()
	second := iv.nextTheme()
	require.NotEqual(t, first, second)
	require.Equal(t, BaselineThemes[0], first)
	require.Equal(t, BaselineThemes[1], second)
}

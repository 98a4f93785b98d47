package main

import (
	"bufio"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/router"
)

func TestRootCmdRequiresUserID(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)
}

func TestRootCmdFlagDefaults(t *testing.T) {
	cmd := rootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--user_id", "alice"}))
	require.Equal(t, "alice", flagUserID)
	require.False(t, flagVoiceInput)
	require.False(t, flagVoiceOutput)
	require.False(t, flagUserAgent)
	require.False(t, flagRestart)
	require.Equal(t, 0, flagMaxTurns)
}

func TestStdinSubscriberStopsAtMaxTurns(t *testing.T) {
	ctx := context.Background()
	r := router.New(nil)
	r.SetInProgress(true)

	in := strings.NewReader("hello there\n")
	sub := &stdinSubscriber{router: r, reader: bufio.NewReader(in), maxTurns: 1}

	require.NoError(t, sub.OnMessage(ctx, &router.Message{Role: router.RoleInterviewer, Content: "Tell me about your childhood"}))
	require.Equal(t, 1, sub.turns)
	require.True(t, r.InProgress())

	require.NoError(t, sub.OnMessage(ctx, &router.Message{Role: router.RoleInterviewer, Content: "Anything else?"}))
	require.False(t, r.InProgress())
}

func TestSimulatedSubscriberPostsGeneratedReply(t *testing.T) {
	ctx := context.Background()
	r := router.New(nil)
	r.SetInProgress(true)

	model := &fixedReplyLLM{text: "I grew up near the coast."}
	sub := &simulatedSubscriber{router: r, model: model, maxTurns: 2}

	require.NoError(t, sub.OnMessage(ctx, &router.Message{Role: router.RoleInterviewer, Content: "Where did you grow up?"}))

	require.Eventually(t, func() bool {
		hist := r.History()
		for _, m := range hist {
			if m.Role == router.RoleUser && strings.Contains(m.Content, "coast") {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

type fixedReplyLLM struct {
	text string
}

func (f *fixedReplyLLM) Generate(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (*llm.Response, error) {
	return &llm.Response{Role: llm.Assistant, Content: []llm.Content{&llm.TextContent{Text: f.text}}}, nil
}
func (f *fixedReplyLLM) Stream(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (llm.Stream, error) {
	return nil, nil
}
func (f *fixedReplyLLM) SupportsStreaming() bool { return false }

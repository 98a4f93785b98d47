package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/router"
)

// stdinSubscriber prints Interviewer messages and reads the subject's
// typed reply from in, posting it back as a User message. Grounded on
// original_source's interview_session/user/user.py's on_message
// (show_last_message_history + input()).
type stdinSubscriber struct {
	router   *router.Router
	reader   *bufio.Reader
	maxTurns int
	turns    int
}

func stdinUserLoop(ctx context.Context, r *router.Router, in io.Reader, maxTurns int) {
	sub := &stdinSubscriber{router: r, reader: bufio.NewReader(in), maxTurns: maxTurns}
	r.Subscribe(ctx, router.RoleInterviewer, sub)
}

func (s *stdinSubscriber) OnMessage(ctx context.Context, msg *router.Message) error {
	if msg == nil {
		return nil
	}
	fmt.Printf("%s: %s\n", msg.Role, msg.Content)

	if s.maxTurns > 0 && s.turns >= s.maxTurns {
		s.router.SetInProgress(false)
		return nil
	}

	fmt.Print("User: ")
	line, err := s.reader.ReadString('\n')
	if err != nil && line == "" {
		s.router.SetInProgress(false)
		return nil
	}
	s.turns++
	s.router.Post(ctx, router.RoleUser, router.TypeConversation, trimNewline(line))
	return nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// simulatedSubscriber drives the --user_agent mode: instead of reading from
// stdin, it asks model for a plausible reply to the Interviewer's last
// message, standing in for original_source's (unported) UserAgent.
type simulatedSubscriber struct {
	router   *router.Router
	model    llm.LLM
	maxTurns int
	turns    int
}

func simulatedUserLoop(ctx context.Context, r *router.Router, model llm.LLM, maxTurns int) {
	sub := &simulatedSubscriber{router: r, model: model, maxTurns: maxTurns}
	r.Subscribe(ctx, router.RoleInterviewer, sub)
}

func (s *simulatedSubscriber) OnMessage(ctx context.Context, msg *router.Message) error {
	if msg == nil {
		return nil
	}
	if s.maxTurns > 0 && s.turns >= s.maxTurns {
		s.router.SetInProgress(false)
		return nil
	}

	prompt := fmt.Sprintf(
		"You are roleplaying as the interview subject. Reply in 1-3 sentences to:\n%s",
		msg.Content)
	resp, err := s.model.Generate(ctx, []*llm.Message{llm.NewUserTextMessage(prompt)})
	if err != nil {
		return err
	}
	s.turns++
	s.router.Post(ctx, router.RoleUser, router.TypeConversation, resp.Message().Text())
	return nil
}

// Package interviewer implements the Interviewer agent (spec C6): the
// conversational front-end that greets the subject, asks questions drawn
// from the session agenda and recalled memories, and posts its replies back
// through the router. Grounded on original_source's
// agents/interviewer/prompts.py (persona, tool descriptions, output format)
// and agents/base_agent.py's event-stream/tool-dispatch pattern, with the
// control flow ported from interview_session.py's on_message/run lifecycle.
package interviewer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/deepnoodle-ai/biographer/agenda"
	"github.com/deepnoodle-ai/biographer/config"
	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/memory"
	"github.com/deepnoodle-ai/biographer/router"
	"github.com/deepnoodle-ai/biographer/slogger"
	"github.com/deepnoodle-ai/biographer/toolcall"
)

// PromptMode selects between the normal agenda-driven interview and the
// baseline fixed-theme interview used for evaluation comparisons (spec
// §4.6, ported from the "normal" vs "baseline" prompt_type distinction in
// the original prompts.py).
type PromptMode string

const (
	PromptNormal   PromptMode = "normal"
	PromptBaseline PromptMode = "baseline"
)

// BaselineThemes are the seven life-narrative themes the baseline prompt
// cycles through, taken directly from the original's BASELINE_INSTRUCTIONS.
var BaselineThemes = []string{
	"High Point in Life",
	"Low Point in Life",
	"Turning Point in Life",
	"Positive Childhood Memories",
	"Negative Childhood Memories",
	"Adult Memories",
	"Future Script",
}

// Session is the state the Interviewer reads from and posts to.
// cmd/biographer fills it in for a real session; tests build one directly.
type Session struct {
	Router       *router.Router
	Agenda       *agenda.Agenda
	MemoryBank   *memory.Bank
	UserID       string
	LastSummary  string
}

// Config configures a new Interviewer.
type Config struct {
	UserID string
	Mode   PromptMode
	// MaxConsiderationIterations bounds the recall/respond-to-user decision
	// loop per turn (spec §4.6 "bounded consideration loop").
	MaxConsiderationIterations int
}

// Interviewer subscribes to User messages and replies via the router. It
// implements router.Subscriber.
type Interviewer struct {
	cfg     Config
	llm     llm.LLM
	session *Session

	mu           sync.Mutex
	chatHistory  []string
	themeCursor  int
}

// New creates an Interviewer bound to session. model drives both tool
// consideration and final responses.
func New(cfg Config, model llm.LLM, session *Session) *Interviewer {
	if cfg.MaxConsiderationIterations <= 0 {
		cfg.MaxConsiderationIterations = 3
	}
	if cfg.Mode == "" {
		cfg.Mode = PromptNormal
	}
	return &Interviewer{cfg: cfg, llm: model, session: session}
}

// NewFromConfig builds an Interviewer's Config from the application-wide
// config.Config (spec §4.6), selecting the baseline prompt mode when
// UseBaselinePrompt is set (spec §4.6 "evaluation comparisons").
func NewFromConfig(appCfg config.Config, userID string, model llm.LLM, session *Session) *Interviewer {
	mode := PromptNormal
	if appCfg.UseBaselinePrompt {
		mode = PromptBaseline
	}
	cfg := Config{
		UserID:                     userID,
		Mode:                       mode,
		MaxConsiderationIterations: appCfg.MaxConsiderationIterations,
	}
	return New(cfg, model, session)
}

// OnMessage handles an incoming router message. Only User messages (or a
// nil initial message, used to open the conversation) trigger a turn.
func (iv *Interviewer) OnMessage(ctx context.Context, msg *router.Message) error {
	if msg != nil && msg.Role != router.RoleUser {
		return nil
	}
	return iv.takeTurn(ctx, msg)
}

// Open starts the conversation before any user message has been received,
// mirroring interview_session.py's `await self._interviewer.on_message(None)`.
func (iv *Interviewer) Open(ctx context.Context) error {
	return iv.takeTurn(ctx, nil)
}

func (iv *Interviewer) takeTurn(ctx context.Context, msg *router.Message) error {
	log := slogger.Ctx(ctx).With("agent", "Interviewer")

	if msg != nil {
		iv.recordEvent(msg.Role, msg.Content)
	}

	iterations := 0
	for iterations < iv.cfg.MaxConsiderationIterations {
		prompt := iv.buildPrompt(msg == nil)
		resp, err := iv.llm.Generate(ctx, []*llm.Message{llm.NewUserTextMessage(prompt)},
			llm.WithSystemPrompt(personaPrompt(iv.cfg.Mode)))
		if err != nil {
			return fmt.Errorf("interviewer: generate: %w", err)
		}
		raw := resp.Message().Text()

		calls, err := toolcall.Parse(raw)
		if err != nil {
			log.Warn("interviewer: failed to parse tool calls", "error", err)
			break
		}

		acted := false
		for _, call := range calls {
			switch call.Tool {
			case "recall":
				query := call.Get("query")
				iv.recallAndRecord(ctx, query)
				acted = true
			case "respond_to_user":
				response := call.Get("response")
				iv.respond(ctx, response)
				return nil
			case "end_conversation":
				iv.respond(ctx, call.Get("response"))
				if iv.session.Router != nil {
					iv.session.Router.SetInProgress(false)
				}
				return nil
			}
		}
		if !acted {
			break
		}
		iterations++
	}
	if iterations >= iv.cfg.MaxConsiderationIterations {
		log.Warn("interviewer: exceeded max consideration iterations", "limit", iv.cfg.MaxConsiderationIterations)
	}
	return nil
}

func (iv *Interviewer) recallAndRecord(ctx context.Context, query string) {
	if query == "" || iv.session.MemoryBank == nil {
		return
	}
	results, err := iv.session.MemoryBank.Search(ctx, query, 5)
	if err != nil {
		slogger.Ctx(ctx).Error("interviewer: recall failed", "error", err)
		return
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Memory.ID
	}
	formatted := iv.session.MemoryBank.FormatForPrompt(ids, true)
	iv.recordEvent(router.Role("system"), formatted)
}

func (iv *Interviewer) respond(ctx context.Context, text string) {
	iv.recordEvent(router.RoleInterviewer, text)
	if iv.session.Router != nil {
		iv.session.Router.Post(ctx, router.RoleInterviewer, router.TypeConversation, text)
	}
}

func (iv *Interviewer) recordEvent(role router.Role, content string) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.chatHistory = append(iv.chatHistory, fmt.Sprintf("<%s>\n%s\n</%s>", role, content, role))
}

func (iv *Interviewer) eventStreamStr() string {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return strings.Join(iv.chatHistory, "\n")
}

func (iv *Interviewer) buildPrompt(isOpening bool) string {
	var b strings.Builder
	b.WriteString(personaPrompt(iv.cfg.Mode))
	b.WriteString("\n\n")

	if iv.session.Agenda != nil {
		b.WriteString("<user_portrait>\n")
		b.WriteString(iv.session.Agenda.GetUserPortraitStr())
		b.WriteString("</user_portrait>\n\n")
	}
	if iv.session.LastSummary != "" {
		b.WriteString("<last_meeting_summary>\n")
		b.WriteString(iv.session.LastSummary)
		b.WriteString("\n</last_meeting_summary>\n\n")
	}
	b.WriteString("<chat_history>\n")
	b.WriteString(iv.eventStreamStr())
	b.WriteString("\n</chat_history>\n\n")

	if iv.cfg.Mode == PromptNormal && iv.session.Agenda != nil {
		b.WriteString("<questions_and_notes>\n")
		b.WriteString(iv.session.Agenda.GetQuestionsAndNotesStr(false))
		b.WriteString("\n</questions_and_notes>\n\n")
	}
	if iv.cfg.Mode == PromptBaseline {
		theme := iv.nextTheme()
		b.WriteString(fmt.Sprintf("<selected_theme>\n%s\n</selected_theme>\n\n", theme))
	}

	if isOpening {
		b.WriteString(openingInstructions)
	} else {
		b.WriteString(instructionsFor(iv.cfg.Mode))
	}
	b.WriteString("\n\n")
	b.WriteString(outputFormatFor(iv.cfg.Mode))
	return b.String()
}

func (iv *Interviewer) nextTheme() string {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	theme := BaselineThemes[iv.themeCursor%len(BaselineThemes)]
	iv.themeCursor++
	return theme
}

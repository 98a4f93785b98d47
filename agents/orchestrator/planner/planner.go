// Package planner implements the Planner subteam member of the Biography
// Orchestrator (spec C8): given new memories (or a user edit request), it
// decides which biography sections to touch and proposes follow-up
// questions, grounded on original_source's
// agents/biography_team/planner/prompts.py (ADD_NEW_MEMORY_PROMPT,
// USER_ADD_PROMPT, USER_COMMENT_PROMPT).
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/biographer/biography"
	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/memory"
	"github.com/deepnoodle-ai/biographer/toolcall"
)

// ActionType mirrors the original's Plan.action_type values.
type ActionType string

const (
	ActionMemoryUpdate ActionType = "memory_update"
	ActionUserAdd      ActionType = "user_add"
	ActionUserUpdate   ActionType = "user_update"
)

// Plan is one unit of work the SectionWriter will carry out.
type Plan struct {
	ActionType   ActionType
	SectionPath  string
	SectionTitle string
	UpdatePlan   string
	MemoryIDs    []string
}

// FollowUpQuestion is a candidate question surfaced while planning, handed
// off to the agenda once the biography update settles (spec §4.8).
type FollowUpQuestion struct {
	Content string
	Context string
}

// Request describes what triggered planning.
type Request struct {
	// NewMemories drives the default memory_update planning path.
	NewMemories []*memory.Memory
	// UserSectionPath/UserPrompt drive a user-initiated "add section" plan.
	UserSectionPath string
	UserPrompt      string
	// UserSectionTitle/UserSelectedText/UserComment drive a user comment-edit plan.
	UserSectionTitle string
	UserSelectedText string
	UserComment      string
	StyleHint        string
}

// Config configures a new Planner.
type Config struct {
	// MaxRetries bounds how many times Plan re-prompts the LLM after a
	// structurally invalid plan (spec §4.8 "invalid plans are rejected and
	// the Planner is re-prompted, bounded retries"; §7 "planning errors are
	// retried up to a configured bound... reported as an update-level
	// failure").
	MaxRetries int
}

// Planner produces Plans and FollowUpQuestions for a given Request.
type Planner struct {
	cfg Config
	llm llm.LLM
}

func New(cfg Config, model llm.LLM) *Planner {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Planner{cfg: cfg, llm: model}
}

// Plan calls the LLM, validating every proposed Plan's SectionPath against
// the tree's no-gap sibling invariant before returning it. A structurally
// invalid plan triggers a re-prompt (folding the validation error into the
// next prompt, mirroring sectionwriter's recallNote accumulation pattern),
// bounded by Config.MaxRetries; exhausting retries is an update-level
// failure reported by the caller (spec §4.8, §7).
func (p *Planner) Plan(ctx context.Context, tree *biography.Tree, req Request) ([]Plan, []FollowUpQuestion, error) {
	var validationNote string
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		prompt := p.buildPrompt(tree, req, validationNote)
		resp, err := p.llm.Generate(ctx, []*llm.Message{llm.NewUserTextMessage(prompt)})
		if err != nil {
			return nil, nil, fmt.Errorf("planner: generate: %w", err)
		}
		calls, err := toolcall.Parse(resp.Message().Text())
		if err != nil {
			return nil, nil, fmt.Errorf("planner: parse: %w", err)
		}

		var plans []Plan
		var questions []FollowUpQuestion
		for _, c := range calls {
			switch c.Tool {
			case "add_plan":
				action := ActionType(c.Get("action_type"))
				if action == "" {
					action = ActionMemoryUpdate
				}
				plans = append(plans, Plan{
					ActionType:   action,
					SectionPath:  c.Get("section_path"),
					SectionTitle: c.Get("section_title"),
					UpdatePlan:   c.Get("update_plan"),
					MemoryIDs:    c.All("memory_id"),
				})
			case "add_follow_up_question":
				questions = append(questions, FollowUpQuestion{
					Content: c.Get("content"),
					Context: c.Get("context"),
				})
			}
		}

		if err := validatePlans(tree, plans); err != nil {
			lastErr = err
			validationNote = err.Error()
			continue
		}
		return plans, questions, nil
	}
	return nil, nil, fmt.Errorf("planner: invalid plan after %d retries: %w", p.cfg.MaxRetries, lastErr)
}

// validatePlans checks every plan's SectionPath (when set) against the
// tree's no-gap sibling invariant without mutating it.
func validatePlans(tree *biography.Tree, plans []Plan) error {
	for _, pl := range plans {
		if pl.SectionPath == "" {
			continue
		}
		if err := tree.ValidateNewSectionPath(pl.SectionPath); err != nil {
			return fmt.Errorf("planner: plan for %q: %w", pl.SectionPath, err)
		}
	}
	return nil
}

func (p *Planner) buildPrompt(tree *biography.Tree, req Request, validationNote string) string {
	var b strings.Builder
	b.WriteString("<planner_persona>\n")
	b.WriteString("You are a biography expert responsible for planning and organizing life stories.\n")
	b.WriteString("</planner_persona>\n\n")

	b.WriteString("<biography_structure_and_content>\n")
	b.WriteString(tree.Render(true))
	b.WriteString("\n</biography_structure_and_content>\n\n")

	if validationNote != "" {
		fmt.Fprintf(&b, "<previous_plan_rejected>\n%s\nRevise the section path so it has no gap in the numbering.\n</previous_plan_rejected>\n\n", validationNote)
	}

	switch {
	case req.UserSectionPath != "":
		fmt.Fprintf(&b, "<user_request>\nRequested path: %s\nUser's prompt:\n%s\n</user_request>\n\n",
			req.UserSectionPath, req.UserPrompt)
		b.WriteString(sectionPathFormat)
		b.WriteString("\n\n")
		b.WriteString(userAddOutputFormat)
	case req.UserComment != "":
		fmt.Fprintf(&b, "<user_feedback>\nSection: %s\nSelected text: %s\nComment: %s\n</user_feedback>\n\n",
			req.UserSectionTitle, req.UserSelectedText, req.UserComment)
		b.WriteString(userCommentOutputFormat)
	default:
		b.WriteString("<new_information>\n")
		for _, m := range req.NewMemories {
			fmt.Fprintf(&b, "[MEM_%s] %s: %s\n", m.ID, m.Title, m.Text)
		}
		b.WriteString("</new_information>\n\n")
		b.WriteString(sectionPathFormat)
		b.WriteString("\n\n")
		b.WriteString(memoryUpdateOutputFormat)
	}
	return b.String()
}

// Package sectionwriter implements the Section Writer subteam member of the
// Biography Orchestrator (spec C8): given a single Plan, it updates or
// creates the targeted biography section, recalling additional memories
// first if it needs more context. Grounded on original_source's
// agents/biography_team/section_writer/section_writer.py (update_section's
// bounded recall-then-write loop, _get_prompt's three-way action_type
// branch) and agents/biography_team/session_summary_writer/
// session_summary_writer.py for the user_add/user_update prompt shapes.
package sectionwriter

import (
	"context"
	"errors"
	"fmt"

	"github.com/deepnoodle-ai/biographer/agents/orchestrator/planner"
	"github.com/deepnoodle-ai/biographer/biography"
	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/memory"
	"github.com/deepnoodle-ai/biographer/slogger"
	"github.com/deepnoodle-ai/biographer/toolcall"
)

// Result reports the outcome of updating a single section.
type Result struct {
	Success bool
	Message string
}

// Config configures a new SectionWriter.
type Config struct {
	MaxConsiderationIterations int
	BiographyStyle             string
}

// SectionWriter updates one biography section per call to UpdateSection,
// sharing the Tree and MemoryBank with the rest of the orchestrator.
type SectionWriter struct {
	cfg        Config
	llm        llm.LLM
	tree       *biography.Tree
	memoryBank *memory.Bank

	followUps []planner.FollowUpQuestion
}

func New(cfg Config, model llm.LLM, tree *biography.Tree, memoryBank *memory.Bank) *SectionWriter {
	if cfg.MaxConsiderationIterations <= 0 {
		cfg.MaxConsiderationIterations = 3
	}
	if cfg.BiographyStyle == "" {
		cfg.BiographyStyle = "chronological"
	}
	return &SectionWriter{cfg: cfg, llm: model, tree: tree, memoryBank: memoryBank}
}

// FollowUpQuestions drains and returns the follow-up questions accumulated
// across calls to UpdateSection so far.
func (w *SectionWriter) FollowUpQuestions() []planner.FollowUpQuestion {
	out := w.followUps
	w.followUps = nil
	return out
}

// UpdateSection carries out plan: it loops up to MaxConsiderationIterations,
// handling a recall tool call by folding the results into a one-shot event
// note and re-prompting, or handling a section update/create/follow-up tool
// call and returning immediately (spec §4.8).
func (w *SectionWriter) UpdateSection(ctx context.Context, plan planner.Plan) Result {
	var recallNote string
	iterations := 0
	for iterations < w.cfg.MaxConsiderationIterations {
		prompt, err := w.buildPrompt(plan, recallNote)
		if err != nil {
			return Result{Success: false, Message: err.Error()}
		}
		resp, err := w.llm.Generate(ctx, []*llm.Message{llm.NewUserTextMessage(prompt)})
		if err != nil {
			return Result{Success: false, Message: fmt.Sprintf("sectionwriter: generate: %v", err)}
		}
		raw := resp.Message().Text()

		calls, err := toolcall.Parse(raw)
		if err != nil {
			return Result{Success: false, Message: fmt.Sprintf("sectionwriter: parse: %v", err)}
		}

		if containsRecall(calls) {
			recallNote = w.handleRecall(ctx, calls)
			iterations++
			continue
		}

		if err := w.handleSectionCalls(ctx, calls); err != nil {
			slogger.Ctx(ctx).Error("sectionwriter: section call failed", "error", err)
			return Result{Success: false, Message: fmt.Sprintf("sectionwriter: %v", err)}
		}
		return Result{Success: true, Message: "section updated successfully"}
	}
	return Result{Success: false, Message: "max iterations reached when updating section"}
}

func containsRecall(calls []toolcall.Call) bool {
	for _, c := range calls {
		if c.Tool == "recall" {
			return true
		}
	}
	return false
}

func (w *SectionWriter) handleRecall(ctx context.Context, calls []toolcall.Call) string {
	var note string
	for _, c := range calls {
		if c.Tool != "recall" {
			continue
		}
		query := c.Get("query")
		if query == "" || w.memoryBank == nil {
			continue
		}
		results, err := w.memoryBank.Search(ctx, query, 5)
		if err != nil {
			note += fmt.Sprintf("recall %q failed: %v\n", query, err)
			continue
		}
		ids := make([]string, len(results))
		for i, r := range results {
			ids[i] = r.Memory.ID
		}
		note += w.memoryBank.FormatForPrompt(ids, true) + "\n"
	}
	return note
}

func (w *SectionWriter) handleSectionCalls(ctx context.Context, calls []toolcall.Call) error {
	var errs []error
	for _, c := range calls {
		switch c.Tool {
		case "add_section":
			if _, err := w.tree.AddSection(ctx, c.Get("section_path"), c.Get("content")); err != nil {
				errs = append(errs, fmt.Errorf("add_section %q: %w", c.Get("section_path"), err))
			}
		case "update_section":
			content := c.Get("content")
			if _, err := w.tree.UpdateSection(ctx, c.Get("section_path"), c.Get("section_title"), &content, c.Get("new_title")); err != nil {
				errs = append(errs, fmt.Errorf("update_section %q: %w", c.Get("section_path"), err))
			}
		case "add_follow_up_question":
			w.followUps = append(w.followUps, planner.FollowUpQuestion{
				Content: c.Get("content"),
				Context: c.Get("context"),
			})
		}
	}
	return errors.Join(errs...)
}

func (w *SectionWriter) buildPrompt(plan planner.Plan, recallNote string) (string, error) {
	style := biographyStyleInstructions(w.cfg.BiographyStyle)

	switch plan.ActionType {
	case planner.ActionUserAdd:
		return fmt.Sprintf(userAddSectionPromptTemplate,
			plan.SectionPath, plan.UpdatePlan, recallNote, style,
			toolDescriptions("recall", "add_section")), nil

	case planner.ActionUserUpdate:
		section, err := w.tree.GetSection("", plan.SectionTitle, false)
		if err != nil {
			return "", fmt.Errorf("sectionwriter: get section: %w", err)
		}
		current := ""
		if section != nil {
			current = section.Content
		}
		return fmt.Sprintf(userCommentEditPromptTemplate,
			plan.SectionTitle, current, plan.UpdatePlan, recallNote, style,
			toolDescriptions("recall", "update_section")), nil

	default:
		section, err := w.tree.GetSection(plan.SectionPath, plan.SectionTitle, false)
		if err != nil {
			return "", fmt.Errorf("sectionwriter: get section: %w", err)
		}
		current := ""
		if section != nil {
			current = section.Content
		}
		identifier := fmt.Sprintf("<section_title>%s</section_title>", plan.SectionTitle)
		if plan.SectionPath != "" {
			identifier = fmt.Sprintf("<section_path>%s</section_path>", plan.SectionPath)
		}
		return fmt.Sprintf(sectionWriterPromptTemplate,
			identifier, plan.UpdatePlan, current, w.formattedMemories(plan.MemoryIDs), style,
			toolDescriptions("add_section", "update_section", "add_follow_up_question")), nil
	}
}

func (w *SectionWriter) formattedMemories(memoryIDs []string) string {
	if len(memoryIDs) == 0 || w.memoryBank == nil {
		return "No relevant memories provided."
	}
	return w.memoryBank.FormatForPrompt(memoryIDs, true)
}

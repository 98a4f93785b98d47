// Package orchestrator implements the Biography Orchestrator (spec C8): it
// turns newly scribed memories (or a direct user edit request) into
// concrete biography section updates, dispatching one Section-Writer per
// Plan concurrently and persisting the result. Grounded on
// original_source's interview_session.py's update_biography_and_notes and
// the teacher's single-active-task gating pattern, adapted to an explicit
// Go state machine.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/deepnoodle-ai/biographer/agenda"
	"github.com/deepnoodle-ai/biographer/agents/orchestrator/planner"
	"github.com/deepnoodle-ai/biographer/agents/orchestrator/sectionwriter"
	"github.com/deepnoodle-ai/biographer/biography"
	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/memory"
	"github.com/deepnoodle-ai/biographer/slogger"
	"github.com/deepnoodle-ai/biographer/store"
)

// State is a stage in the Orchestrator's update cycle (spec §4.8).
type State string

const (
	StateIdle        State = "idle"
	StatePlanning    State = "planning"
	StateDispatching State = "dispatching"
	StateWriting     State = "writing"
	StateSaving      State = "saving"
)

// Config configures a new Orchestrator.
type Config struct {
	UserID                     string
	BiographyStyle             string
	MaxConsiderationIterations int
	MaxPlanRetries             int
}

// Orchestrator owns the biography Tree and agenda for one session, and
// coordinates the Planner and per-plan SectionWriters around them. At most
// one update runs at a time, enforced by a single-slot channel semaphore
// (spec §4.8, "at most one incremental update in flight").
type Orchestrator struct {
	cfg        Config
	llm        llm.LLM
	tree       *biography.Tree
	agenda     *agenda.Agenda
	memoryBank *memory.Bank
	plan       *planner.Planner
	bioStore   *store.BiographyStore
	agendaStore *store.AgendaStore

	stateMu sync.Mutex
	state   State

	slot chan struct{}
}

func New(cfg Config, model llm.LLM, tree *biography.Tree, ag *agenda.Agenda, memoryBank *memory.Bank, bioStore *store.BiographyStore, agendaStore *store.AgendaStore) *Orchestrator {
	if cfg.MaxConsiderationIterations <= 0 {
		cfg.MaxConsiderationIterations = 3
	}
	o := &Orchestrator{
		cfg:         cfg,
		llm:         model,
		tree:        tree,
		agenda:      ag,
		memoryBank:  memoryBank,
		plan:        planner.New(planner.Config{MaxRetries: cfg.MaxPlanRetries}, model),
		bioStore:    bioStore,
		agendaStore: agendaStore,
		state:       StateIdle,
		slot:        make(chan struct{}, 1),
	}
	o.slot <- struct{}{}
	return o
}

// State reports the current stage, for monitoring/tests.
func (o *Orchestrator) State() State {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(ctx context.Context, s State) {
	o.stateMu.Lock()
	prev := o.state
	o.state = s
	o.stateMu.Unlock()
	slogger.Ctx(ctx).Info("orchestrator: state transition", "from", prev, "to", s)
}

// TriggerIncrementalUpdate runs a memory-driven planning pass and section
// writes for newMemories. If an update is already in flight, the call is a
// no-op (spec §4.8 single-slot gate) — the caller (Engine) is expected to
// retry on the next check interval.
func (o *Orchestrator) TriggerIncrementalUpdate(ctx context.Context, newMemories []*memory.Memory) error {
	return o.withSlot(ctx, func() error {
		return o.run(ctx, planner.Request{NewMemories: newMemories}, false)
	})
}

// TriggerUserEdit runs a user-initiated add-section or comment-edit plan.
func (o *Orchestrator) TriggerUserEdit(ctx context.Context, req planner.Request) error {
	return o.withSlot(ctx, func() error {
		return o.run(ctx, req, false)
	})
}

// FinalUpdate runs one last incremental update for any outstanding
// memories and then rebuilds the agenda's question set from carryover
// (unanswered) questions plus any follow-ups the Planner/SectionWriters
// proposed this round (spec §4.8 [EXPANDED], grounded on
// interview_session.py's update_biography_and_notes final-pass behavior).
func (o *Orchestrator) FinalUpdate(ctx context.Context, remainingMemories []*memory.Memory) error {
	return o.withSlot(ctx, func() error {
		return o.run(ctx, planner.Request{NewMemories: remainingMemories}, true)
	})
}

func (o *Orchestrator) withSlot(ctx context.Context, fn func() error) error {
	select {
	case <-o.slot:
	default:
		slogger.Ctx(ctx).Warn("orchestrator: update already in flight, skipping")
		return nil
	}
	defer func() { o.slot <- struct{}{} }()
	return fn()
}

func (o *Orchestrator) run(ctx context.Context, req planner.Request, final bool) error {
	o.setState(ctx, StatePlanning)
	plans, followUps, err := o.plan.Plan(ctx, o.tree, req)
	if err != nil {
		o.setState(ctx, StateIdle)
		return fmt.Errorf("orchestrator: plan: %w", err)
	}

	o.setState(ctx, StateDispatching)
	writers := make([]*sectionwriter.SectionWriter, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range plans {
		i, p := i, p
		w := sectionwriter.New(sectionwriter.Config{
			MaxConsiderationIterations: o.cfg.MaxConsiderationIterations,
			BiographyStyle:             o.cfg.BiographyStyle,
		}, o.llm, o.tree, o.memoryBank)
		writers[i] = w
		g.Go(func() error {
			result := w.UpdateSection(gctx, p)
			if !result.Success {
				slogger.Ctx(gctx).Warn("orchestrator: section update failed", "section", p.SectionPath, "message", result.Message)
			}
			return nil
		})
	}
	o.setState(ctx, StateWriting)
	_ = g.Wait()

	for _, w := range writers {
		followUps = append(followUps, w.FollowUpQuestions()...)
	}
	if o.agenda != nil {
		if final {
			topics := o.agenda.Snapshot().Topics
			o.agenda.ClearQuestions()
			var carry func(topic string, qs []*agenda.Question, parentID string)
			carry = func(topic string, qs []*agenda.Question, parentID string) {
				for _, q := range qs {
					if q.Answered() {
						continue
					}
					nq, err := o.agenda.AddInterviewQuestion(topic, q.Text, "", parentID, "")
					if err != nil {
						slogger.Ctx(ctx).Warn("orchestrator: carry over question failed", "error", err)
						continue
					}
					carry(topic, q.Children, nq.ID)
				}
			}
			for _, t := range topics {
				carry(t.Name, t.Questions, "")
			}
		}
		for _, fq := range followUps {
			if _, err := o.agenda.AddInterviewQuestion("Follow-up", fq.Content, "", "", fq.Context); err != nil {
				slogger.Ctx(ctx).Warn("orchestrator: add follow-up question failed", "error", err)
			}
		}
	}

	o.setState(ctx, StateSaving)
	if o.bioStore != nil {
		if err := o.bioStore.Save(ctx, o.tree, true); err != nil {
			slogger.Ctx(ctx).Error("orchestrator: save biography failed", "error", err)
		}
	}
	if o.agendaStore != nil && o.agenda != nil {
		if err := o.agendaStore.Save(o.cfg.UserID, o.agenda); err != nil {
			slogger.Ctx(ctx).Error("orchestrator: save agenda failed", "error", err)
		}
	}
	o.setState(ctx, StateIdle)
	return nil
}

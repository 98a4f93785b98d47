// Package scribe implements the Session Scribe agent (spec C7): it listens
// to Interviewer/User Q&A pairs and, for each pair, runs two independent
// update pipelines concurrently — one that writes session-agenda notes and
// proposes follow-up questions (guarded by notesMu), and one that extracts
// memories and historical questions into the persistent banks (guarded by
// memoryMu) — mirroring original_source's NoteTaker/SessionScribe
// _locked_write_notes_and_questions / _locked_write_memory_and_question_bank
// split (agents/note_taker/note_taker.py, agents/session_scribe/session_scribe.py).
package scribe

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/deepnoodle-ai/biographer/agenda"
	"github.com/deepnoodle-ai/biographer/evallog"
	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/memory"
	"github.com/deepnoodle-ai/biographer/question"
	"github.com/deepnoodle-ai/biographer/router"
	"github.com/deepnoodle-ai/biographer/slogger"
	"github.com/deepnoodle-ai/biographer/toolcall"
)

// Session bundles the shared state the Scribe reads from and writes to.
type Session struct {
	// SessionID is the session-of-origin stamped onto every memory and
	// historical question this Scribe writes (spec §3, "a memory always
	// carries its session-of-origin"). Mirrors Agenda.SessionID.
	SessionID      int
	Agenda         *agenda.Agenda
	MemoryBank     *memory.Bank
	HistoricalBank *question.Bank
	ProposedBank   *question.Bank
	UserID         string
}

// Config configures a Scribe.
type Config struct {
	MaxConsiderationIterations int
	DuplicateThreshold         float64
}

// Scribe implements router.Subscriber. It pairs each User message with the
// immediately preceding Interviewer message and processes the pair.
type Scribe struct {
	cfg     Config
	llm     llm.LLM
	session *Session
	logger  *evallog.Logger

	mu               sync.Mutex
	lastInterviewer  *router.Message

	tasksMu       sync.Mutex
	pendingTasks  int
	processingCh  chan struct{}

	notesMu  sync.Mutex
	memoryMu sync.Mutex

	newMemoriesMu sync.Mutex
	newMemories   []*memory.Memory
}

// New creates a Scribe bound to session. evalLogger may be nil to disable
// duplicate-question and timing logging.
func New(cfg Config, model llm.LLM, session *Session, evalLogger *evallog.Logger) *Scribe {
	if cfg.MaxConsiderationIterations <= 0 {
		cfg.MaxConsiderationIterations = 3
	}
	if cfg.DuplicateThreshold <= 0 {
		cfg.DuplicateThreshold = question.DefaultDuplicateThreshold
	}
	s := &Scribe{cfg: cfg, llm: model, session: session, logger: evalLogger}
	s.processingCh = closedChan()
	return s
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// OnMessage tracks Interviewer messages and, on each subsequent User
// message, spawns the two concurrent update pipelines for the Q&A pair.
func (s *Scribe) OnMessage(ctx context.Context, msg *router.Message) error {
	switch msg.Role {
	case router.RoleInterviewer:
		s.mu.Lock()
		s.lastInterviewer = msg
		s.mu.Unlock()
	case router.RoleUser:
		s.mu.Lock()
		interviewerMsg := s.lastInterviewer
		s.lastInterviewer = nil
		s.mu.Unlock()
		if interviewerMsg != nil {
			go s.processPair(ctx, interviewerMsg, msg)
		}
	}
	return nil
}

func (s *Scribe) processPair(ctx context.Context, interviewerMsg, userMsg *router.Message) {
	s.incPendingTasks()
	defer s.decPendingTasks()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writeNotesAndQuestions(ctx, interviewerMsg, userMsg)
	}()
	go func() {
		defer wg.Done()
		s.writeMemoryAndQuestionBank(ctx, interviewerMsg, userMsg)
	}()
	wg.Wait()
}

func (s *Scribe) incPendingTasks() {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()
	s.pendingTasks++
	if s.pendingTasks == 1 {
		s.processingCh = make(chan struct{})
	}
}

func (s *Scribe) decPendingTasks() {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()
	s.pendingTasks--
	if s.pendingTasks <= 0 {
		s.pendingTasks = 0
		close(s.processingCh)
	}
}

// processingComplete returns the channel current at call time; it is
// recreated whenever the pending-task count transitions 0 -> 1 (spec §4.7
// "bounded wait for in-flight updates", ported from the asyncio
// Lock/counter pattern the same way biography.Tree ports its write-guard).
func (s *Scribe) processingComplete() chan struct{} {
	s.tasksMu.Lock()
	defer s.tasksMu.Unlock()
	return s.processingCh
}

// GetSessionMemories waits up to 300s for in-flight updates to settle, then
// returns every memory added so far this session (spec §4.7, ported from
// note_taker.py's get_session_memories 5-minute timeout).
func (s *Scribe) GetSessionMemories(ctx context.Context) []*memory.Memory {
	ch := s.processingComplete()
	select {
	case <-ch:
	case <-time.After(300 * time.Second):
		slogger.Ctx(ctx).Warn("scribe: timeout waiting for memory updates")
	case <-ctx.Done():
	}
	s.newMemoriesMu.Lock()
	defer s.newMemoriesMu.Unlock()
	out := make([]*memory.Memory, len(s.newMemories))
	copy(out, s.newMemories)
	return out
}

func (s *Scribe) recordNewMemory(m *memory.Memory) {
	s.newMemoriesMu.Lock()
	defer s.newMemoriesMu.Unlock()
	s.newMemories = append(s.newMemories, m)
}

func (s *Scribe) writeNotesAndQuestions(ctx context.Context, interviewerMsg, userMsg *router.Message) {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()

	s.updateSessionAgenda(ctx, interviewerMsg, userMsg)
	s.proposeFollowups(ctx, interviewerMsg, userMsg)
}

func (s *Scribe) updateSessionAgenda(ctx context.Context, interviewerMsg, userMsg *router.Message) {
	prompt := s.formatUpdateAgendaPrompt(interviewerMsg, userMsg)
	resp, err := s.llm.Generate(ctx, []*llm.Message{llm.NewUserTextMessage(prompt)})
	if err != nil {
		slogger.Ctx(ctx).Error("scribe: update session agenda failed", "error", err)
		return
	}
	s.applyAgendaToolCalls(resp.Message().Text())
}

// proposeFollowups implements the bounded consider-and-propose loop: a
// proposed question is checked against both question banks, and a near
// duplicate is dropped unless the model explicitly asks to proceed via a
// <proceed>true</proceed> decision (spec §4.2 duplicate policy, §4.7 loop
// bound), ported from session_scribe.py's _propose_followups.
func (s *Scribe) proposeFollowups(ctx context.Context, interviewerMsg, userMsg *router.Message) {
	var similar []question.ScoredQuestion
	iterations := 0
	for iterations < s.cfg.MaxConsiderationIterations {
		prompt := s.formatFollowupsPrompt(similar)
		resp, err := s.llm.Generate(ctx, []*llm.Message{llm.NewUserTextMessage(prompt)})
		if err != nil {
			slogger.Ctx(ctx).Error("scribe: propose followups failed", "error", err)
			return
		}
		raw := resp.Message().Text()

		if proceed, ok := toolcall.ExtractBool(raw, "proceed"); ok && proceed {
			s.applyAgendaToolCalls(raw)
			return
		}

		calls, err := toolcall.Parse(raw)
		if err != nil {
			return
		}

		proposed := proposedQuestionTexts(calls)
		if len(proposed) == 0 {
			if containsRecall(calls) {
				s.dispatchRecall(ctx, calls)
				iterations++
				continue
			}
			return
		}

		similar = s.findSimilarQuestions(ctx, proposed)
		if len(similar) == 0 {
			s.applyAgendaToolCalls(raw)
			return
		}
		iterations++
	}
	slogger.Ctx(ctx).Warn("scribe: exceeded max consideration iterations", "limit", s.cfg.MaxConsiderationIterations)
}

func proposedQuestionTexts(calls []toolcall.Call) []string {
	var out []string
	for _, c := range calls {
		if c.Tool == "add_interview_question" {
			if q := c.Get("question"); q != "" {
				out = append(out, q)
			}
		}
	}
	return out
}

func containsRecall(calls []toolcall.Call) bool {
	for _, c := range calls {
		if c.Tool == "recall" {
			return true
		}
	}
	return false
}

func (s *Scribe) dispatchRecall(ctx context.Context, calls []toolcall.Call) {
	for _, c := range calls {
		if c.Tool != "recall" {
			continue
		}
		query := c.Get("query")
		if query == "" || s.session.MemoryBank == nil {
			continue
		}
		if _, err := s.session.MemoryBank.Search(ctx, query, 5); err != nil {
			slogger.Ctx(ctx).Error("scribe: recall failed", "error", err)
		}
	}
}

func (s *Scribe) findSimilarQuestions(ctx context.Context, proposed []string) []question.ScoredQuestion {
	var all []question.ScoredQuestion
	for _, text := range proposed {
		results, err := question.CombinedSearch(ctx, s.session.HistoricalBank, s.session.ProposedBank, text, 3)
		if err != nil {
			slogger.Ctx(ctx).Error("scribe: search similar questions failed", "error", err)
			continue
		}
		isDup := len(results) > 0 && results[0].Similarity >= s.cfg.DuplicateThreshold
		if s.logger != nil {
			similarTexts := make([]string, len(results))
			scores := make([]float64, len(results))
			for i, r := range results {
				similarTexts[i] = r.Question.Content
				scores[i] = r.Similarity
			}
			matched := ""
			if isDup {
				matched = results[0].Question.Content
			}
			_ = s.logger.LogQuestionSimilarity("scribe", text, similarTexts, scores, isDup, matched, "")
		}
		if isDup {
			all = append(all, results...)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Similarity > all[j].Similarity })
	if len(all) > 3 {
		all = all[:3]
	}
	return all
}

func (s *Scribe) applyAgendaToolCalls(raw string) {
	calls, err := toolcall.Parse(raw)
	if err != nil {
		return
	}
	for _, c := range calls {
		switch c.Tool {
		case "add_interview_question":
			s.addInterviewQuestion(c)
		case "update_session_note":
			s.updateSessionNote(c)
		}
	}
}

func (s *Scribe) addInterviewQuestion(c toolcall.Call) {
	if s.session.Agenda == nil {
		return
	}
	if s.session.ProposedBank != nil {
		_, _ = s.session.ProposedBank.AddQuestion(context.Background(), c.Get("question"), "scribe", s.session.SessionID, nil)
	}
	_, _ = s.session.Agenda.AddInterviewQuestion(c.Get("topic"), c.Get("question"), c.Get("question_id"), c.Get("parent_id"), c.Get("parent_text"))
}

func (s *Scribe) updateSessionNote(c toolcall.Call) {
	if s.session.Agenda == nil {
		return
	}
	_ = s.session.Agenda.AddNote(c.Get("question_id"), c.Get("note"))
}

func (s *Scribe) writeMemoryAndQuestionBank(ctx context.Context, interviewerMsg, userMsg *router.Message) {
	s.memoryMu.Lock()
	defer s.memoryMu.Unlock()

	prompt := s.formatMemoryQuestionPrompt(interviewerMsg, userMsg)
	resp, err := s.llm.Generate(ctx, []*llm.Message{llm.NewUserTextMessage(prompt)})
	if err != nil {
		slogger.Ctx(ctx).Error("scribe: update memory and question bank failed", "error", err)
		return
	}
	calls, err := toolcall.Parse(resp.Message().Text())
	if err != nil {
		return
	}
	for _, c := range calls {
		switch c.Tool {
		case "update_memory_bank":
			s.addMemory(ctx, c)
		case "add_historical_question":
			s.addHistoricalQuestion(ctx, c)
		}
	}
}

// parseImportance parses the model's <importance_score>1-10</importance_score>
// tool argument, falling back to a neutral mid-range score if it's missing
// or unparseable.
func parseImportance(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 5
	}
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

func (s *Scribe) addMemory(ctx context.Context, c toolcall.Call) {
	if s.session.MemoryBank == nil {
		return
	}
	importance := parseImportance(c.Get("importance_score"))
	m, err := s.session.MemoryBank.AddMemory(ctx, c.Get("title"), c.Get("text"), importance, s.session.SessionID, c.Get("source_quote"), nil)
	if err != nil {
		slogger.Ctx(ctx).Error("scribe: add memory failed", "error", err)
		return
	}
	s.recordNewMemory(m)
}

func (s *Scribe) addHistoricalQuestion(ctx context.Context, c toolcall.Call) {
	if s.session.HistoricalBank == nil {
		return
	}
	if _, err := s.session.HistoricalBank.AddQuestion(ctx, c.Get("question"), "scribe", s.session.SessionID, c.All("memory_id")); err != nil {
		slogger.Ctx(ctx).Error("scribe: add historical question failed", "error", err)
	}
}

func (s *Scribe) formatUpdateAgendaPrompt(interviewerMsg, userMsg *router.Message) string {
	return fmt.Sprintf(updateAgendaPromptTemplate,
		interviewerMsg.Content, userMsg.Content,
		s.session.Agenda.GetQuestionsAndNotesStr(true))
}

func (s *Scribe) formatFollowupsPrompt(similar []question.ScoredQuestion) string {
	note := ""
	if len(similar) > 0 {
		note = "The following similar questions already exist; confirm with <proceed>true</proceed> to add anyway, or propose a different question:\n"
		for _, sc := range similar {
			note += fmt.Sprintf("- %s (similarity %.2f)\n", sc.Question.Content, sc.Similarity)
		}
	}
	return fmt.Sprintf(followupsPromptTemplate, s.session.Agenda.GetQuestionsAndNotesStr(false), note)
}

func (s *Scribe) formatMemoryQuestionPrompt(interviewerMsg, userMsg *router.Message) string {
	return fmt.Sprintf(memoryQuestionPromptTemplate, interviewerMsg.Content, userMsg.Content)
}

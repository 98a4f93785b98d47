// Package engine implements the Session Engine (spec C9): the lifecycle
// that opens a conversation, drives the Interviewer/Scribe/Orchestrator
// through a single session, and tears everything down on completion,
// timeout, or signal. Grounded on original_source's
// interview_session/interview_session.py's run()/_notify_participants()/
// _check_and_trigger_biography_update()/_setup_signal_handlers().
package engine

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/deepnoodle-ai/biographer/agents/interviewer"
	"github.com/deepnoodle-ai/biographer/agents/orchestrator"
	"github.com/deepnoodle-ai/biographer/agents/scribe"
	"github.com/deepnoodle-ai/biographer/config"
	"github.com/deepnoodle-ai/biographer/router"
	"github.com/deepnoodle-ai/biographer/slogger"
)

// Config configures a new Engine.
type Config struct {
	UserID                   string
	SessionTimeoutMinutes    int
	MemoryThresholdForUpdate int
	CheckInterval            int
	FinalUpdateTimeout       time.Duration
	// MaxTurns bounds the session to at most this many user messages
	// before the Engine ends it itself (spec §4.9, one of the Engine's
	// own three termination checks alongside timeout and signal). 0 means
	// unbounded.
	MaxTurns int
}

// Engine wires the Router, Interviewer, Scribe, and Orchestrator together
// for one interview session.
type Engine struct {
	cfg          Config
	router       *router.Router
	interviewer  *interviewer.Interviewer
	scribe       *scribe.Scribe
	orchestrator *orchestrator.Orchestrator

	mu                     sync.Mutex
	userMessageCount       int
	biographyUpdateRunning bool
	lastActivity           time.Time
}

// New builds an Engine from its fully-wired collaborators. Use
// NewFromAppConfig to derive Config from config.Config's named defaults.
func New(cfg Config, r *router.Router, iv *interviewer.Interviewer, sc *scribe.Scribe, orch *orchestrator.Orchestrator) *Engine {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 1
	}
	if cfg.FinalUpdateTimeout <= 0 {
		cfg.FinalUpdateTimeout = 300 * time.Second
	}
	return &Engine{cfg: cfg, router: r, interviewer: iv, scribe: sc, orchestrator: orch, lastActivity: time.Now()}
}

// NewFromAppConfig derives engine.Config from the application-wide
// config.Config (spec §4.9, checkInterval = max(1, threshold/5)). maxTurns
// is CLI-only (the --max_turns flag), not part of config.Config's
// env-driven defaults.
func NewFromAppConfig(appCfg config.Config, userID string, maxTurns int, r *router.Router, iv *interviewer.Interviewer, sc *scribe.Scribe, orch *orchestrator.Orchestrator) *Engine {
	return New(Config{
		UserID:                   userID,
		SessionTimeoutMinutes:    appCfg.SessionTimeoutMinutes,
		MemoryThresholdForUpdate: appCfg.MemoryThresholdForUpdate,
		CheckInterval:            appCfg.CheckInterval(),
		MaxTurns:                 maxTurns,
	}, r, iv, sc, orch)
}

// OnMessage implements router.Subscriber: it tracks session activity and,
// every CheckInterval user messages, triggers an incremental biography
// update if one is not already running (spec §4.9).
func (e *Engine) OnMessage(ctx context.Context, msg *router.Message) error {
	if msg == nil || msg.Role != router.RoleUser {
		return nil
	}
	e.mu.Lock()
	e.lastActivity = time.Now()
	e.userMessageCount++
	shouldCheck := e.userMessageCount%e.cfg.CheckInterval == 0 && !e.biographyUpdateRunning
	if shouldCheck {
		e.biographyUpdateRunning = true
	}
	maxTurnsReached := e.cfg.MaxTurns > 0 && e.userMessageCount >= e.cfg.MaxTurns
	e.mu.Unlock()

	if shouldCheck {
		go e.checkAndTriggerUpdate(ctx)
	}
	if maxTurnsReached {
		slogger.Ctx(ctx).Info("engine: max turns reached", "max_turns", e.cfg.MaxTurns)
		e.router.SetInProgress(false)
	}
	return nil
}

func (e *Engine) checkAndTriggerUpdate(ctx context.Context) {
	defer func() {
		e.mu.Lock()
		e.biographyUpdateRunning = false
		e.mu.Unlock()
	}()

	memories := e.scribe.GetSessionMemories(ctx)
	if len(memories) < e.cfg.MemoryThresholdForUpdate {
		return
	}
	if err := e.orchestrator.TriggerIncrementalUpdate(ctx, memories); err != nil {
		slogger.Ctx(ctx).Error("engine: incremental biography update failed", "error", err)
	}
}

// Run opens the conversation and blocks until the session ends (the
// Interviewer ends it via router.SetInProgress(false), the subject's
// inactivity exceeds SessionTimeoutMinutes, or ctx is canceled by a signal),
// then runs the teardown sequence: a final biography update bounded by
// FinalUpdateTimeout (spec §4.9).
func (e *Engine) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.router.Subscribe(ctx, router.RoleUser, e)

	if err := e.interviewer.Open(ctx); err != nil {
		slogger.Ctx(ctx).Error("engine: failed to open conversation", "error", err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.Duration(e.cfg.SessionTimeoutMinutes) * time.Minute

loop:
	for {
		select {
		case <-ctx.Done():
			e.router.SetInProgress(false)
			break loop
		case <-ticker.C:
			if !e.router.InProgress() {
				break loop
			}
			e.mu.Lock()
			idle := time.Since(e.lastActivity)
			e.mu.Unlock()
			if timeout > 0 && idle > timeout {
				slogger.Ctx(ctx).Warn("engine: session timed out", "idle", idle)
				e.router.SetInProgress(false)
				break loop
			}
		}
	}

	return e.teardown(context.Background())
}

func (e *Engine) teardown(ctx context.Context) error {
	finalCtx, cancel := context.WithTimeout(ctx, e.cfg.FinalUpdateTimeout)
	defer cancel()

	memories := e.scribe.GetSessionMemories(finalCtx)
	if err := e.orchestrator.FinalUpdate(finalCtx, memories); err != nil {
		slogger.Ctx(ctx).Error("engine: final biography update failed", "error", err)
		return err
	}
	return nil
}

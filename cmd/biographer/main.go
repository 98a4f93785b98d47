// Command biographer runs an interview session in terminal mode (spec §6).
// Grounded on the teacher's cmd/dive/cli/root.go for the cobra skeleton and
// original_source's interview_session.py's run()/teardown lifecycle.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deepnoodle-ai/biographer/agenda"
	"github.com/deepnoodle-ai/biographer/agents/interviewer"
	"github.com/deepnoodle-ai/biographer/agents/orchestrator"
	"github.com/deepnoodle-ai/biographer/agents/scribe"
	"github.com/deepnoodle-ai/biographer/config"
	"github.com/deepnoodle-ai/biographer/engine"
	"github.com/deepnoodle-ai/biographer/evallog"
	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/llm/anthropic"
	"github.com/deepnoodle-ai/biographer/memory"
	"github.com/deepnoodle-ai/biographer/question"
	"github.com/deepnoodle-ai/biographer/router"
	"github.com/deepnoodle-ai/biographer/slogger"
	"github.com/deepnoodle-ai/biographer/store"
	"github.com/spf13/cobra"
)

var (
	flagUserID      string
	flagVoiceInput  bool
	flagVoiceOutput bool
	flagUserAgent   bool
	flagRestart     bool
	flagMaxTurns    int
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "biographer",
		Short: "Runs a biography interview session in terminal mode",
		RunE:  runTerminal,
	}
	cmd.Flags().StringVar(&flagUserID, "user_id", "", "subject's user id (required)")
	cmd.Flags().BoolVar(&flagVoiceInput, "voice_input", false, "enable voice input (no-op if unsupported)")
	cmd.Flags().BoolVar(&flagVoiceOutput, "voice_output", false, "enable voice output (no-op if unsupported)")
	cmd.Flags().BoolVar(&flagUserAgent, "user_agent", false, "use a simulated user instead of stdin")
	cmd.Flags().BoolVar(&flagRestart, "restart", false, "purge this user's persisted data before starting")
	cmd.Flags().IntVar(&flagMaxTurns, "max_turns", 0, "stop after N user turns (0 = unbounded)")
	_ = cmd.MarkFlagRequired("user_id")
	return cmd
}

func runTerminal(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("biographer: loading config: %w", err)
	}
	ctx = slogger.WithLogger(ctx, slogger.New(slogger.LevelInfo))

	if flagRestart {
		if err := store.PurgeUserData(appCfg.DataDir, flagUserID); err != nil {
			return fmt.Errorf("biographer: restart: %w", err)
		}
	}

	model := anthropic.New()

	bioStore := store.NewBiographyStore(appCfg.DataDir)
	agendaStore := store.NewAgendaStore(appCfg.DataDir)
	memoryBankStore := store.NewMemoryBankStore(appCfg.DataDir)
	questionBankStore := store.NewQuestionBankStore(appCfg.DataDir)

	embedder := memory.NewTermFrequencyEmbedder(64)

	memoryBank, err := memoryBankStore.Load(flagUserID, embedder)
	if err != nil {
		return fmt.Errorf("biographer: loading memory bank: %w", err)
	}
	historicalBank, err := questionBankStore.Load(flagUserID, embedder)
	if err != nil {
		return fmt.Errorf("biographer: loading historical question bank: %w", err)
	}
	proposedBank := question.NewBank(question.Proposed, embedder)

	ag, found, err := agendaStore.LoadLast(flagUserID)
	if err != nil {
		return fmt.Errorf("biographer: loading agenda: %w", err)
	}
	if !found {
		ag, err = agenda.Bootstrap(1, nil)
		if err != nil {
			return fmt.Errorf("biographer: bootstrapping agenda: %w", err)
		}
	}

	tree, err := bioStore.Load(flagUserID, 0)
	if err != nil {
		return fmt.Errorf("biographer: loading biography: %w", err)
	}

	evalLogger, err := evallog.New(filepath.Join(appCfg.LogsDir, flagUserID), ag.SessionID)
	if err != nil {
		return fmt.Errorf("biographer: creating evaluation logger: %w", err)
	}

	r := router.New(nil)

	ivSession := &interviewer.Session{
		Router:     r,
		Agenda:     ag,
		MemoryBank: memoryBank,
		UserID:     flagUserID,
	}
	iv := interviewer.NewFromConfig(appCfg, flagUserID, model, ivSession)
	r.Subscribe(ctx, router.RoleUser, iv)

	scribeSession := &scribe.Session{
		SessionID:      ag.SessionID,
		Agenda:         ag,
		MemoryBank:     memoryBank,
		HistoricalBank: historicalBank,
		ProposedBank:   proposedBank,
		UserID:         flagUserID,
	}
	sc := scribe.New(scribe.Config{
		MaxConsiderationIterations: appCfg.MaxConsiderationIterations,
		DuplicateThreshold:         appCfg.DuplicateQuestionThreshold,
	}, model, scribeSession, evalLogger)
	r.Subscribe(ctx, router.RoleInterviewer, sc)
	r.Subscribe(ctx, router.RoleUser, sc)

	orch := orchestrator.New(orchestrator.Config{
		UserID:                     flagUserID,
		MaxConsiderationIterations: appCfg.MaxConsiderationIterations,
	}, model, tree, ag, memoryBank, bioStore, agendaStore)

	eng := engine.NewFromAppConfig(appCfg, flagUserID, flagMaxTurns, r, iv, sc, orch)

	if flagUserAgent {
		go runSimulatedUser(ctx, r, model, flagMaxTurns)
	} else {
		go runStdinUser(ctx, r, flagMaxTurns)
	}

	if err := eng.Run(ctx); err != nil {
		return fmt.Errorf("biographer: session error: %w", err)
	}

	if err := memoryBankStore.Save(flagUserID, memoryBank); err != nil {
		slogger.Ctx(ctx).Error("biographer: saving memory bank failed", "error", err)
	}
	if err := questionBankStore.Save(flagUserID, historicalBank); err != nil {
		slogger.Ctx(ctx).Error("biographer: saving question bank failed", "error", err)
	}
	return nil
}

func runStdinUser(ctx context.Context, r *router.Router, maxTurns int) {
	stdinUserLoop(ctx, r, os.Stdin, maxTurns)
}

func runSimulatedUser(ctx context.Context, r *router.Router, model llm.LLM, maxTurns int) {
	simulatedUserLoop(ctx, r, model, maxTurns)
}

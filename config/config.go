// Package config loads the engine's runtime configuration once at startup
// into an explicit Config struct. Every downstream package receives the
// fields it needs through constructor arguments — nothing reads os.Getenv
// at call time (spec §9 redesign flag: "eliminate global env-driven
// bounds").
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds every environment-derived knob named in spec §6/§9.
type Config struct {
	// DataDir is the root directory under which per-user persisted state
	// (biography snapshots, memory/question banks, agendas) is stored.
	DataDir string

	// LogsDir is the root directory for evaluation CSVs and session logs.
	LogsDir string

	// MaxEventsLen bounds the replay window kept for an agent's event
	// stream when composing prompts (spec §3, Event).
	MaxEventsLen int

	// MaxConsiderationIterations bounds the Interviewer's and
	// Section-Writer's tool-call consideration loops.
	MaxConsiderationIterations int

	// SessionTimeoutMinutes is the inactivity window after which the
	// Engine marks a session timed out.
	SessionTimeoutMinutes int

	// MemoryThresholdForUpdate is the unprocessed-memory count that
	// triggers an incremental biography update.
	MemoryThresholdForUpdate int

	// UseBaselinePrompt selects the Interviewer's baseline (fixed
	// seven-theme) prompt mode instead of the adaptive normal mode.
	UseBaselinePrompt bool

	// DuplicateQuestionThreshold is the similarity above which a proposed
	// follow-up question is treated as a likely duplicate (spec §4.2,
	// default resolved in DESIGN.md Open Questions to 0.85).
	DuplicateQuestionThreshold float64

	// WorkerPoolSize is loaded from WORKER_POOL_SIZE (default 8), but no
	// package reads it: no worker pool is built, and LLM invocations and
	// persistence writes run on the goroutine that makes them.
	WorkerPoolSize int
}

// CheckInterval returns the Session Engine's auto-update poll interval in
// user messages: max(1, threshold/5), per spec §4.9.
func (c Config) CheckInterval() int {
	n := c.MemoryThresholdForUpdate / 5
	if n < 1 {
		return 1
	}
	return n
}

// Load reads configuration from the environment via viper, applying the
// defaults named in spec §6.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", "data")
	v.SetDefault("logs_dir", "logs")
	v.SetDefault("max_events_len", 30)
	v.SetDefault("max_consideration_iterations", 3)
	v.SetDefault("session_timeout_minutes", 10)
	v.SetDefault("memory_threshold_for_update", 15)
	v.SetDefault("use_baseline_prompt", false)
	v.SetDefault("duplicate_question_threshold", 0.85)
	v.SetDefault("worker_pool_size", 8)

	cfg := Config{
		DataDir:                    v.GetString("data_dir"),
		LogsDir:                    v.GetString("logs_dir"),
		MaxEventsLen:               v.GetInt("max_events_len"),
		MaxConsiderationIterations: v.GetInt("max_consideration_iterations"),
		SessionTimeoutMinutes:      v.GetInt("session_timeout_minutes"),
		MemoryThresholdForUpdate:   v.GetInt("memory_threshold_for_update"),
		UseBaselinePrompt:          v.GetBool("use_baseline_prompt"),
		DuplicateQuestionThreshold: v.GetFloat64("duplicate_question_threshold"),
		WorkerPoolSize:             v.GetInt("worker_pool_size"),
	}
	return cfg, nil
}

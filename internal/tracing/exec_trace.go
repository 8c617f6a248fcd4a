package tracing

import (
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"

	"entrylist/internal/config"

	"github.com/rs/zerolog/log"
)

var (
	execTraceMu     sync.Mutex
	execTraceActive bool
)

// ShouldStartExecTrace reports whether cfg asks for a runtime trace of scope.
func ShouldStartExecTrace(cfg config.TelemetryConfig, scope string) bool {
	if !cfg.ExecTrace {
		return false
	}
	return cfg.ExecTraceScope == "" || cfg.ExecTraceScope == scope
}

// StartExecTrace records a Go runtime execution trace of one refresh run. The
// returned function stops it. Only one trace runs at a time; extra calls and
// disabled scopes get a no-op.
func StartExecTrace(cfg config.TelemetryConfig, scope, runID string) (stop func()) {
	if !ShouldStartExecTrace(cfg, scope) {
		return func() {}
	}

	execTraceMu.Lock()
	defer execTraceMu.Unlock()
	if execTraceActive {
		log.Debug().Str("scope", scope).Msg("Exec trace already active, skipping")
		return func() {}
	}

	startedAt := time.Now()
	if err := os.MkdirAll(cfg.ExecTraceDir, 0o755); err != nil {
		log.Warn().Err(err).Msg("Failed to create traces directory; skipping exec trace")
		return func() {}
	}

	fileName := filepath.Join(cfg.ExecTraceDir, scope+"-"+runID+"-"+startedAt.UTC().Format("20060102T150405Z")+".out")
	f, err := os.Create(fileName)
	if err != nil {
		log.Warn().Err(err).Str("file", fileName).Msg("Failed to create exec trace file; skipping exec trace")
		return func() {}
	}

	if err := trace.Start(f); err != nil {
		_ = f.Close()
		log.Warn().Err(err).Str("file", fileName).Msg("Failed to start exec trace")
		return func() {}
	}
	execTraceActive = true

	log.Info().Str("scope", scope).Str("run_id", runID).Str("file", fileName).Msg("Go exec trace started")

	return func() {
		trace.Stop()
		_ = f.Close()

		execTraceMu.Lock()
		execTraceActive = false
		execTraceMu.Unlock()

		log.Info().
			Str("scope", scope).
			Str("run_id", runID).
			Dur("duration", time.Since(startedAt)).
			Str("file", fileName).
			Msg("Go exec trace stopped")
	}
}

func IsExecTraceActive() bool {
	execTraceMu.Lock()
	defer execTraceMu.Unlock()
	return execTraceActive
}

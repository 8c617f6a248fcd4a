package engine

import (
	"context"
	"time"

	"entrylist/internal/runner"

	"github.com/rs/zerolog/log"
)

// StartProcessing polls the page every interval. A running loop is replaced.
func (e *Engine) StartProcessing(ctx context.Context, interval time.Duration) error {
	target := e.Target()
	if target == nil {
		return ErrNotInitialized
	}
	if interval < e.minInterval {
		log.Warn().Dur("interval", interval).Dur("min", e.minInterval).Msg("Poll interval too short, not polling")
		return ErrIntervalTooShort
	}

	e.pollMu.Lock()
	defer e.pollMu.Unlock()

	e.stopLocked(false)

	if e.runner == nil {
		r, err := runner.NewRunner()
		if err != nil {
			return err
		}
		r.Start()
		e.runner = r
		e.ownRunner = true
	}

	pollCtx, cancel := context.WithCancel(ctx)
	name := e.newJobName(target.Name())
	err := e.runner.Every(name, interval, func() {
		if pollCtx.Err() != nil {
			return
		}
		if err := e.ProcessAll(pollCtx); err != nil {
			log.Warn().Err(err).Str("site", target.Name()).Msg("Processing pass failed")
		}
	})
	if err != nil {
		cancel()
		return err
	}

	e.jobName = name
	e.cancel = cancel
	e.polling = true

	log.Info().Str("site", target.Name()).Dur("interval", interval).Msg("Polling started")
	return nil
}

// StopProcessing stops the polling loop. It reports whether one was running.
func (e *Engine) StopProcessing() bool {
	e.pollMu.Lock()
	defer e.pollMu.Unlock()
	return e.stopLocked(true)
}

func (e *Engine) Polling() bool {
	e.pollMu.Lock()
	defer e.pollMu.Unlock()
	return e.polling
}

func (e *Engine) stopLocked(verbose bool) bool {
	if !e.polling {
		if verbose {
			log.Info().Msg("Polling not active, nothing to be stopped")
		}
		return false
	}

	e.cancel()
	e.runner.Remove(e.jobName)
	e.polling = false
	e.cancel = nil
	e.jobName = ""

	if verbose {
		log.Info().Msg("Polling stopped")
	}
	return true
}

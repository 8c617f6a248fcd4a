package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	ErrRunnerCreate  = errors.New("failed to create runner")
	ErrRunnerNotInit = errors.New("runner not initialized")
)

var (
	globalRunner *Runner
	initOnce     sync.Once
	initError    error
)

// InitializeRunner creates and starts the process-wide runner used for
// scheduled jobs such as list refreshes.
func InitializeRunner() (*Runner, error) {
	initOnce.Do(func() {
		r, err := NewRunner()
		if err != nil {
			log.Err(err).Msg("Failed to create runner")
			initError = ErrRunnerCreate
			return
		}

		globalRunner = r
		globalRunner.Start()
		log.Info().Msg("Global scheduler runner initialized and started")
	})

	return globalRunner, initError
}

// GetRunner returns the global runner instance
func GetRunner() (*Runner, error) {
	if globalRunner == nil {
		return nil, ErrRunnerNotInit
	}
	return globalRunner, nil
}

// ShutdownRunner stops the global runner
func ShutdownRunner(ctx context.Context) error {
	if globalRunner == nil {
		return nil
	}
	return globalRunner.Stop(ctx)
}

package runner

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrFailedToCreateScheduler = errors.New("failed to create scheduler")
	ErrTaskAlreadyExists       = errors.New("task already registered")
	ErrFailedToCreateJob       = errors.New("failed to create job")
	ErrTaskNotFound            = errors.New("task not found")
)

// Runner manages named recurring tasks. A task never overlaps itself: a run
// that is still going when the next one is due pushes the next one back.
type Runner struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewRunner creates a new scheduler runner
func NewRunner() (*Runner, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		),
	)

	if err != nil {
		log.Error().Err(err).Msg("Failed to create scheduler")
		return nil, ErrFailedToCreateScheduler
	}

	return &Runner{
		scheduler: scheduler,
		jobs:      make(map[string]gocron.Job),
	}, nil
}

// Every runs task every interval, starting one interval from now.
func (r *Runner) Every(name string, interval time.Duration, task func()) error {
	if err := r.add(name, gocron.DurationJob(interval), task); err != nil {
		return err
	}
	log.Debug().Str("task", name).Dur("interval", interval).Msg("Task registered with scheduler")
	return nil
}

// Cron runs task on a six-field cron schedule (seconds first).
func (r *Runner) Cron(name, schedule string, task func()) error {
	if err := r.add(name, gocron.CronJob(schedule, true), task); err != nil {
		return err
	}

	next, _ := r.NextRun(name)
	log.Info().Str("task", name).Str("cron", schedule).Time("next_run", next).Msg("Task registered with scheduler")
	return nil
}

func (r *Runner) add(name string, def gocron.JobDefinition, task func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[name]; exists {
		log.Error().Str("task", name).Msg("Task already registered")
		return ErrTaskAlreadyExists
	}

	job, err := r.scheduler.NewJob(
		def,
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithTags(strings.Split(name, ":")...),
	)
	if err != nil {
		log.Error().Err(err).Str("task", name).Msg("Failed to schedule task")
		return errors.Join(ErrFailedToCreateJob, err)
	}

	r.jobs[name] = job
	return nil
}

// Remove unschedules a task. It reports whether the task existed.
func (r *Runner) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[name]
	if !exists {
		return false
	}

	if err := r.scheduler.RemoveJob(job.ID()); err != nil {
		log.Error().Err(err).Str("task", name).Msg("Failed to remove task")
	}
	delete(r.jobs, name)

	return true
}

func (r *Runner) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.jobs[name]
	return exists
}

func (r *Runner) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Start begins the scheduler
func (r *Runner) Start() {
	r.scheduler.Start()
	log.Debug().Int("jobs", len(r.jobs)).Msg("Scheduler started")
}

// Stop halts the scheduler and waits for running tasks
func (r *Runner) Stop(ctx context.Context) error {
	return r.scheduler.Shutdown()
}

// NextRun returns the next scheduled run of a task
func (r *Runner) NextRun(name string) (time.Time, error) {
	r.mu.RLock()
	job, exists := r.jobs[name]
	r.mu.RUnlock()

	if !exists {
		return time.Time{}, ErrTaskNotFound
	}

	return job.NextRun()
}

// RunNow triggers a task immediately, outside its schedule.
func (r *Runner) RunNow(name string) error {
	r.mu.RLock()
	job, exists := r.jobs[name]
	r.mu.RUnlock()

	if !exists {
		return ErrTaskNotFound
	}

	return job.RunNow()
}

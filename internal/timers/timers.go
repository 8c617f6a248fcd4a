// Package timers keeps cumulative named stopwatches: a timer can be started
// and stopped many times and reports the sum of its running spans.
package timers

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrTimerRunning  = errors.New("timer already running")
	ErrTimerNotFound = errors.New("no timer with that name")
	ErrTimerStopped  = errors.New("timer is not running")
)

type timer struct {
	total   time.Duration
	started time.Time
	running bool
}

type Set struct {
	mu     sync.Mutex
	timers map[string]*timer
	now    func() time.Time
}

func New() *Set {
	return &Set{timers: make(map[string]*timer), now: time.Now}
}

// Start creates or resumes a timer. A running timer is left alone unless force
// is set, in which case its current span is discarded and restarted.
func (s *Set) Start(name string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[name]
	if !ok {
		t = &timer{}
		s.timers[name] = t
	}

	if t.running && !force {
		log.Error().Str("timer", name).Msg("Timer already running")
		return ErrTimerRunning
	}

	t.started = s.now()
	t.running = true
	return nil
}

// Stop adds the current span to the total and returns the total.
func (s *Set) Stop(name string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[name]
	if !ok || !t.running {
		log.Error().Str("timer", name).Msg("No running timer with that name")
		return 0, ErrTimerStopped
	}

	t.total += s.now().Sub(t.started)
	t.running = false
	return t.total, nil
}

// Cancel stops a timer without recording the current span.
func (s *Set) Cancel(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[name]
	if !ok {
		return ErrTimerNotFound
	}
	t.running = false
	return nil
}

// Reset zeroes a timer, stopping it if needed.
func (s *Set) Reset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.timers[name]; !ok {
		return ErrTimerNotFound
	}
	s.timers[name] = &timer{}
	return nil
}

// Get returns the total of a timer, including the current span if running.
func (s *Set) Get(name string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[name]
	if !ok {
		return 0, ErrTimerNotFound
	}
	if t.running {
		return t.total + s.now().Sub(t.started), nil
	}
	return t.total, nil
}

// Track starts name and returns the matching stop function.
func (s *Set) Track(name string) func() {
	if err := s.Start(name, true); err != nil {
		return func() {}
	}
	return func() { _, _ = s.Stop(name) }
}

// Snapshot returns the totals of every timer.
func (s *Set) Snapshot() map[string]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make(map[string]time.Duration, len(s.timers))
	for name, t := range s.timers {
		out[name] = t.total
		if t.running {
			out[name] += now.Sub(t.started)
		}
	}
	return out
}

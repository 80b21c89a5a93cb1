// Package scheduler re-runs a refresh function at a configurable interval.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/prefs"
)

// State describes whether the scheduler is armed and at which interval.
type State struct {
	Armed    bool          `json:"armed"`
	Interval time.Duration `json:"interval"`
}

func (s State) String() string {
	if !s.Armed {
		return "disabled"
	}
	return "every " + s.Interval.String()
}

// Scheduler owns at most one running timer.
type Scheduler struct {
	refresh func()
	unit    time.Duration

	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a disabled scheduler that calls refresh on every tick.
func New(refresh func()) *Scheduler {
	return &Scheduler{refresh: refresh, unit: time.Minute}
}

// SetInterval rearms the scheduler with d, cancelling any running timer.
// d <= 0 disables it.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mu.Lock()
	if d == s.interval && (d <= 0 || s.cancel != nil) {
		s.mu.Unlock()
		return
	}
	prevDone := s.stopLocked()
	if d > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		s.interval = d
		s.cancel = cancel
		s.done = done
		go s.run(ctx, d, done)
		log.Printf("Auto-refresh armed every %s", d)
	} else {
		log.Println("Auto-refresh disabled")
	}
	s.mu.Unlock()

	if prevDone != nil {
		<-prevDone
	}
}

// SetIntervalMinutes is SetInterval in whole minutes; 0 disables.
func (s *Scheduler) SetIntervalMinutes(n int) {
	s.SetInterval(time.Duration(n) * s.unit)
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Armed: s.cancel != nil, Interval: s.interval}
}

// Stop disables the scheduler and waits for the timer goroutine to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	done := s.stopLocked()
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Scheduler) stopLocked() chan struct{} {
	done := s.done
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = nil
	s.done = nil
	s.interval = 0
	return done
}

func (s *Scheduler) run(ctx context.Context, d time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.refresh()
		}
	}
}

// IntervalSource provides the configured interval and its changes.
type IntervalSource interface {
	AutoRefreshInterval() int
	Subscribe() (<-chan prefs.Change, func())
}

// Watch arms the scheduler from src and rearms it whenever the interval
// setting changes, until ctx is done.
func (s *Scheduler) Watch(ctx context.Context, src IntervalSource) {
	changes, unsubscribe := src.Subscribe()
	defer unsubscribe()
	defer s.Stop()

	s.SetIntervalMinutes(src.AutoRefreshInterval())
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if c.Key == prefs.KeyAutoRefreshInterval {
				s.SetIntervalMinutes(src.AutoRefreshInterval())
			}
		}
	}
}

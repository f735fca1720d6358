package timer

import (
	log "log/slog"
	"sync"
	"time"
)

// Scheduler fires one-shot callbacks after a delay, on their own
// goroutines. Callbacks run independently of whatever the interaction
// loop is doing and may overlap with it and with each other. There is
// no cancellation and nothing survives a restart.
type Scheduler struct {
	mu      sync.Mutex
	pending int
}

func NewScheduler() *Scheduler { return &Scheduler{} }

func (s *Scheduler) Schedule(d time.Duration, label string, fn func()) {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	log.Info("Timer scheduled", "label", label, "fires_in", d)

	time.AfterFunc(d, func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()

		log.Info("Timer fired", "label", label)
		if fn != nil {
			fn()
		}
	})
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

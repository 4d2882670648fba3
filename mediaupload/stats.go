package mediaupload

import (
	"sync"
	"time"
)

type phaseStats struct {
	sum      time.Duration
	finished int64
}

// Stats tracks phase durations across all attempts of an Uploader.
type Stats struct {
	phases map[Phase]*phaseStats
	mu     sync.Mutex
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{phases: map[Phase]*phaseStats{}}
}

// Update records a successful phase duration.
func (s *Stats) Update(phase Phase, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.phases[phase]
	if !ok {
		p = &phaseStats{}
		s.phases[phase] = p
	}
	p.sum += d
	p.finished++
}

// Average returns the average duration of the completed phase calls.
func (s *Stats) Average(phase Phase) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.phases[phase]
	if !ok || p.finished == 0 {
		return 0
	}
	return p.sum / time.Duration(p.finished)
}

// FinishedCount returns the number of completed calls of the phase.
func (s *Stats) FinishedCount(phase Phase) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.phases[phase]; ok {
		return p.finished
	}
	return 0
}

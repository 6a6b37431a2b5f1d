package controllers

import (
	"sync"
	"time"
)

// RefreshState holds the process-wide timestamp of the last completed
// refresh. It is initialized at process start and written only after a
// refresh pass fully succeeds. Injected rather than global so tests can
// observe it.
type RefreshState struct {
	mu   sync.Mutex
	last time.Time
}

// NewRefreshState creates the state, stamped with the current time.
func NewRefreshState() *RefreshState {
	return &RefreshState{last: time.Now()}
}

// LastRefresh returns when the last refresh pass completed.
func (s *RefreshState) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// MarkCompleted records a successful refresh completion time.
func (s *RefreshState) MarkCompleted(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = t
}

// Due reports whether more than interval has passed since the last refresh.
func (s *RefreshState) Due(interval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.last) > interval
}

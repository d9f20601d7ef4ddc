package supervisor

import "sync"

// Shutdown is a write-once broadcast. Once fired it stays fired, so a
// reader that checks late still observes it.
type Shutdown struct {
	once sync.Once
	ch   chan struct{}
}

// NewShutdown creates an unfired Shutdown
func NewShutdown() *Shutdown {
	return &Shutdown{ch: make(chan struct{})}
}

// Fire broadcasts the shutdown. Calls after the first have no effect.
func (s *Shutdown) Fire() {
	s.once.Do(func() {
		close(s.ch)
	})
}

// Done returns a channel that is closed once Fire has been called
func (s *Shutdown) Done() <-chan struct{} {
	return s.ch
}

// Fired reports whether Fire has been called
func (s *Shutdown) Fired() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

package publisher

import (
	"sync/atomic"
)

// Shutdown is a write-once flag shared by the Listener (writer) and the Loop (reader).
//
// The zero value is not usable; create one with NewShutdown.
type Shutdown struct {
	requested atomic.Bool
	done      chan struct{}
}

// NewShutdown returns a Shutdown that has not been requested.
func NewShutdown() *Shutdown {
	return &Shutdown{done: make(chan struct{})}
}

// Request trips the flag. It reports whether this call made the transition;
// later calls are no-ops and return false.
func (s *Shutdown) Request() bool {
	if !s.requested.CompareAndSwap(false, true) {
		return false
	}
	close(s.done)
	return true
}

// Requested reports whether Request has been called.
func (s *Shutdown) Requested() bool {
	return s.requested.Load()
}

// Done returns a channel that is closed once shutdown is requested.
func (s *Shutdown) Done() <-chan struct{} {
	return s.done
}

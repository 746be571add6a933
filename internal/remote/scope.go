package remote

import (
	"context"
	"sync"
)

// Scope tracks the one current request of a logical operation such as a
// directory listing or a search. Starting a new request cancels the previous
// one and bumps the generation token so late results can be recognized.
type Scope struct {
	mu     sync.Mutex
	token  int
	cancel context.CancelFunc
}

// Begin cancels any in-flight request and returns a context and token for a new one.
func (s *Scope) Begin(parent context.Context) (context.Context, int) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.token++
	s.cancel = cancel
	token := s.token
	s.mu.Unlock()

	return ctx, token
}

// Cancel aborts the current request and invalidates its token.
func (s *Scope) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.token++
}

// Finish releases the context of token if it is still current.
func (s *Scope) Finish(token int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == token && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// IsCurrent reports whether token belongs to the latest request.
func (s *Scope) IsCurrent(token int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token == token
}

// Token returns the latest generation.
func (s *Scope) Token() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// InFlight reports whether the current request has not finished yet.
func (s *Scope) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

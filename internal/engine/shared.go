package engine

import "sync"

// Shared holds an Engine that may be replaced from another goroutine, for
// example by the snapshot watcher after a reload.
type Shared struct {
	mu sync.RWMutex
	e  Engine
}

// NewShared wraps e.
func NewShared(e Engine) *Shared {
	return &Shared{e: e}
}

// Read runs fn with the current engine under a read lock.
func (s *Shared) Read(fn func(Engine) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.e)
}

// Write runs fn with the current engine under the write lock.
func (s *Shared) Write(fn func(Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.e)
}

// Swap replaces the engine and returns the previous one.
func (s *Shared) Swap(e Engine) Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.e
	s.e = e
	return old
}

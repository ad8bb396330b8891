// Package rwmutex is the reader/writer lock backend, adapted from the
// teacher's innodb latch: a thin sync.RWMutex wrapper with nothing added.
package rwmutex

import "sync"

// Lock is a reader/writer lock-group primitive.
type Lock struct {
	mu sync.RWMutex
}

// New returns a fresh reader/writer lock.
func New() *Lock { return &Lock{} }

func (l *Lock) Lock()    { l.mu.Lock() }
func (l *Lock) Unlock()  { l.mu.Unlock() }
func (l *Lock) RLock()   { l.mu.RLock() }
func (l *Lock) RUnlock() { l.mu.RUnlock() }

// Package mutex is the writer-only lock backend (spec §4.6): readers
// serialize with writers behind a plain sync.Mutex. The core dispatcher
// must remain correct under this backend, just as it is under rwmutex.
package mutex

import "sync"

// Lock is a writer-only lock-group primitive; RLock/RUnlock alias
// Lock/Unlock.
type Lock struct {
	mu sync.Mutex
}

// New returns a fresh writer-only lock.
func New() *Lock { return &Lock{} }

func (l *Lock) Lock()    { l.mu.Lock() }
func (l *Lock) Unlock()  { l.mu.Unlock() }
func (l *Lock) RLock()   { l.mu.Lock() }
func (l *Lock) RUnlock() { l.mu.Unlock() }

package rwmutex

import "testing"

func TestConcurrentReaders(t *testing.T) {
	l := New()
	l.RLock()
	defer l.RUnlock()

	done := make(chan struct{})
	go func() {
		l.RLock()
		l.RUnlock()
		close(done)
	}()
	<-done
}

func TestWriterExcludesReaders(t *testing.T) {
	l := New()
	l.Lock()
	l.Unlock()
	l.RLock()
	l.RUnlock()
}

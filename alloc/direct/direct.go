// Package direct is the exact-size allocator backend: no rounding, so
// the reported delta always equals newSize - oldSize. Selectable through
// the benchmark harness's alloc config setting, and used by the config
// tests.
package direct

import "github.com/uszram/store/alloc"

// Allocator allocates exactly the requested size with make([]byte, n).
type Allocator struct{}

// New returns an exact-size allocator.
func New() *Allocator { return &Allocator{} }

func (a *Allocator) Name() string { return "direct" }

func (a *Allocator) Reallocate(buf []byte, oldSize, newSize int) ([]byte, int64) {
	if newSize == 0 {
		return nil, -int64(oldSize)
	}
	out := make([]byte, newSize)
	copy(out, buf)
	return out, int64(newSize) - int64(oldSize)
}

var _ alloc.Allocator = (*Allocator)(nil)

// Package sizeclass is the default allocator backend: it rounds every
// request up to one of a fixed table of size classes, the way the Go
// runtime's small-object allocator does, so that Store.reallocate's
// reported delta can differ from the caller's requested delta (spec
// §4.5's "may differ... under a size-class allocator" clause).
package sizeclass

import "github.com/uszram/store/alloc"

// classes is a compact geometric size-class table in the spirit of the Go
// runtime's class_to_size (67 entries tuned for general-purpose
// allocation); a compressed block store only ever allocates up to one
// page, so this table stops doubling once classes exceed a few typical
// page sizes and just tracks exact sizes above that, matching
// class_to_size's own "large objects bypass the class table" behavior.
var classes = []int{
	8, 16, 24, 32, 48, 64, 80, 96, 112, 128,
	160, 192, 224, 256, 320, 384, 448, 512,
	640, 768, 896, 1024, 1280, 1536, 1792, 2048,
	2560, 3072, 3584, 4096, 5120, 6144, 7168, 8192,
	10240, 12288, 14336, 16384, 20480, 24576, 28672, 32768,
}

// classFor returns the smallest size class >= n, or n itself if n exceeds
// every class (a "large object", allocated at its exact size).
func classFor(n int) int {
	if n == 0 {
		return 0
	}
	for _, c := range classes {
		if c >= n {
			return c
		}
	}
	return n
}

// Allocator rounds every allocation up to its size class.
type Allocator struct{}

// New returns a size-class allocator.
func New() *Allocator { return &Allocator{} }

func (a *Allocator) Name() string { return "sizeclass" }

func (a *Allocator) Reallocate(buf []byte, oldSize, newSize int) ([]byte, int64) {
	oldActual := classFor(oldSize)
	newActual := classFor(newSize)

	if newSize == 0 {
		return nil, int64(0) - int64(oldActual)
	}
	if oldSize == 0 {
		return make([]byte, newActual), int64(newActual)
	}
	if newActual == oldActual && newSize <= oldSize {
		// Same size class: reuse in place, no delta. Covers spec
		// §4.5's "new_size < old_size: may reuse" case whenever the
		// shrink doesn't cross a class boundary.
		return buf[:cap(buf)][:newActual], 0
	}
	out := make([]byte, newActual)
	copy(out, buf)
	return out, int64(newActual) - int64(oldActual)
}

var _ alloc.Allocator = (*Allocator)(nil)

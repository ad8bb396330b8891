// Package compressor defines the capability set the page engine consumes
// to compress and decompress whole pages and to skip that work entirely
// when a backend can prove it unnecessary (spec §4.3 / component C1).
// Concrete backends live in subpackages (lz4, lz4block, snappy, zstd);
// the engine holds one Compressor chosen at Store construction time.
//
// The engine owns block-order permutation (package cache) and the
// per-page huge/compressed state; a Compressor only ever sees whole-page
// byte buffers in the permutation the engine hands it, and logical block
// ranges for its write/delete bookkeeping. This keeps C1 and C4 decoupled
// exactly as spec §2's data-flow describes: C5 consults C4 to remap
// offsets, then calls C1 with already-resolved byte ranges.
package compressor

import "errors"

// ErrCorrupt is returned by Decompress when stored bytes fail to decode.
// The engine attributes it to the page being operated on and never
// retries.
var ErrCorrupt = errors.New("compressor: corrupt data")

// BlockRange is a contiguous run of logical block indices, in block
// units (not bytes).
type BlockRange struct {
	Offset int
	Count  int
}

// End returns the exclusive end of the range.
func (r BlockRange) End() int { return r.Offset + r.Count }

// PageState is a backend's opaque per-page companion state. Simple
// backends share NopPageState: total size always equals the primary
// allocation and freeing is a no-op, satisfying spec §4.3's "equals
// primary_size for simple backends" clause without a type switch in the
// engine.
type PageState interface {
	// TotalSize is primarySize plus any secondary heap reachable from
	// the page's compressed bytes.
	TotalSize(primarySize int) int
	// FreeReachable releases any secondary heap and returns the number
	// of bytes freed. No-op (returns 0) for simple backends.
	FreeReachable() int64
	// Reset clears per-page backend state, e.g. on Store.DeletePages.
	Reset()
}

// NopPageState is the PageState used by backends with no secondary heap.
// lz4, snappy, and zstd all share this value.
type NopPageState struct{}

func (NopPageState) TotalSize(primarySize int) int { return primarySize }
func (NopPageState) FreeReachable() int64          { return 0 }
func (NopPageState) Reset()                        {}

// Compressor is the capability set of spec §4.3.
type Compressor interface {
	// Name identifies the backend for logging and benchmark reporting.
	Name() string

	// NewPageState returns the per-page companion state for a freshly
	// allocated page. Called once per page, not once per operation.
	NewPageState(blockSize, blocksPerPage int) PageState

	// Compress compresses src (exactly one page, in whatever block
	// order the engine has arranged it) into dst, which has capacity
	// maxNonHugeBytes. Returns the compressed size, or 0 if it would
	// exceed that budget (the engine reads 0 as "make huge").
	Compress(dst, src []byte) int

	// Decompress decompresses at least the first prefixBytes of
	// compressed into dst (a full page_size buffer), in the same block
	// order Compress was given. Backends that cannot do partial
	// decompression decompress the whole page, treating prefixBytes
	// only as a hint.
	Decompress(ps PageState, compressed []byte, prefixBytes int, dst []byte) error

	// CanSkipWrite reports whether writing newData over blk, whose
	// current contents are oldData, requires no change to the
	// compressed representation at all — the write_blocks_hint fast
	// path (spec §9's Open Question on the hint's purpose). Only ever
	// consulted when oldData is available. Simple backends always
	// return false.
	CanSkipWrite(ps PageState, blk BlockRange, newData, oldData []byte) bool

	// CanSkipDelete reports whether blk is already known to be entirely
	// zero, letting delete_blocks skip decompression. Simple backends
	// always return false.
	CanSkipDelete(ps PageState, blk BlockRange) bool

	// NoteWrite updates ps's bookkeeping to record that blk now holds
	// newData (logical order). The engine calls it whenever it patches
	// newData into the page, before any recompression; a write skipped
	// via CanSkipWrite does not call it. No-op for simple backends.
	NoteWrite(ps PageState, blk BlockRange, blockSize int, newData []byte)

	// NoteDelete is NoteWrite with the new content implicitly zero.
	NoteDelete(ps PageState, blk BlockRange)
}

// ZeroReporter is optionally implemented by a PageState that can
// certify, without decompressing, that the whole page is currently all
// zero. The engine checks for it via a type assertion after CanSkipDelete
// skips recompression; backends without zero-tracking simply don't
// implement it, and the engine falls back to scanning the decompressed
// page with AllZero.
type ZeroReporter interface {
	AllZero() bool
}

// PatchRange copies newData into raw at blk's byte offsets.
func PatchRange(raw []byte, blockSize int, blk BlockRange, newData []byte) {
	start := blk.Offset * blockSize
	n := blk.Count * blockSize
	copy(raw[start:start+n], newData)
}

// ZeroRange zeroes blk's byte offsets in raw.
func ZeroRange(raw []byte, blockSize int, blk BlockRange) {
	start := blk.Offset * blockSize
	n := blk.Count * blockSize
	for i := start; i < start+n; i++ {
		raw[i] = 0
	}
}

// AllZero reports whether raw is entirely zero bytes.
func AllZero(raw []byte) bool {
	for _, b := range raw {
		if b != 0 {
			return false
		}
	}
	return true
}

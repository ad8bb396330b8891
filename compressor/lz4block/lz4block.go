// Package lz4block is the block-aware LZ4 backend (spec §1's "block-aware
// LZ4 variant", spec §9's write_blocks_hint and delete_blocks Open
// Questions). Real LZ4 streams still require a full decompress/recompress
// to change any byte, so this backend cannot patch compressed bytes in
// place — what it adds over plain lz4 is a per-page table tracking which
// logical blocks are currently all zero, letting write_blocks_hint skip
// decompression entirely when the hint proves nothing changed, and
// letting delete_blocks skip decompression when every targeted block is
// already known zero (freeing the page when every other block is too).
package lz4block

import (
	"bytes"

	"github.com/pierrec/lz4/v4"

	"github.com/uszram/store/compressor"
)

// State is the per-page companion table: one bit per logical block, set
// when that block's raw content is known to be all zero.
type State struct {
	zero []bool
}

func newState(blocksPerPage int) *State {
	s := &State{zero: make([]bool, blocksPerPage)}
	for i := range s.zero {
		s.zero[i] = true // a freshly allocated page starts all zero
	}
	return s
}

// TotalSize excludes the zero bitmap: it lives inline in State, not in
// the allocator-managed heap that comprDataSize tracks, so it is not
// part of the page's counted heap footprint any more than the State
// struct itself is. Only the primary compressed allocation counts.
func (s *State) TotalSize(primarySize int) int { return primarySize }

// FreeReachable has nothing to release: the bitmap lives inline in
// State, not behind a separate pointer, so there is no secondary heap to
// free.
func (s *State) FreeReachable() int64 { return 0 }

// Reset marks every block zero again, as on a fresh page.
func (s *State) Reset() {
	for i := range s.zero {
		s.zero[i] = true
	}
}

func (s *State) allZero() bool {
	for _, z := range s.zero {
		if !z {
			return false
		}
	}
	return true
}

// Compressor is the block-aware LZ4 backend.
type Compressor struct{}

// New returns a block-aware LZ4 backend.
func New() *Compressor { return &Compressor{} }

func (c *Compressor) Name() string { return "lz4block" }

func (c *Compressor) NewPageState(blockSize, blocksPerPage int) compressor.PageState {
	return newState(blocksPerPage)
}

func (c *Compressor) Compress(dst, src []byte) int {
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil || n == 0 || n > len(dst) {
		return 0
	}
	return n
}

func (c *Compressor) Decompress(ps compressor.PageState, compressed []byte, prefixBytes int, dst []byte) error {
	_, err := lz4.UncompressBlock(compressed, dst)
	if err != nil {
		return compressor.ErrCorrupt
	}
	return nil
}

// CanSkipWrite skips recompression when oldData (the bytes blk
// previously held) is byte-identical to newData: the compressed page is
// already correct.
func (c *Compressor) CanSkipWrite(ps compressor.PageState, blk compressor.BlockRange, newData, oldData []byte) bool {
	return oldData != nil && bytes.Equal(oldData, newData)
}

// CanSkipDelete skips recompression when every block of blk is already
// known zero; the rest of the page is not consulted (see State.AllZero).
func (c *Compressor) CanSkipDelete(ps compressor.PageState, blk compressor.BlockRange) bool {
	st := ps.(*State)
	for i := blk.Offset; i < blk.End(); i++ {
		if !st.zero[i] {
			return false
		}
	}
	return true
}

func (c *Compressor) NoteWrite(ps compressor.PageState, blk compressor.BlockRange, blockSize int, newData []byte) {
	st := ps.(*State)
	for i := 0; i < blk.Count; i++ {
		start := i * blockSize
		st.zero[blk.Offset+i] = allZeroBytes(newData[start : start+blockSize])
	}
}

func (c *Compressor) NoteDelete(ps compressor.PageState, blk compressor.BlockRange) {
	st := ps.(*State)
	for i := blk.Offset; i < blk.End(); i++ {
		st.zero[i] = true
	}
}

func allZeroBytes(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// AllZero reports whether every block on the page is currently known
// zero, letting the engine certify Empty in O(1) via compressor.ZeroReporter
// after a delete that CanSkipDelete already determined needed no
// recompression.
func (s *State) AllZero() bool { return s.allZero() }

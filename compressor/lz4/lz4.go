// Package lz4 is the plain LZ4 compressor backend (spec §4.3): a single
// lz4.CompressBlock/UncompressBlock pair per page, no per-page side
// state and no write/delete shortcuts.
package lz4

import (
	"github.com/pierrec/lz4/v4"

	"github.com/uszram/store/compressor"
)

// Compressor wraps the pierrec/lz4 block API.
type Compressor struct{}

// New returns a plain LZ4 backend.
func New() *Compressor { return &Compressor{} }

func (c *Compressor) Name() string { return "lz4" }

func (c *Compressor) NewPageState(blockSize, blocksPerPage int) compressor.PageState {
	return compressor.NopPageState{}
}

// Compress implements spec §4.3's "returns 0 if it would exceed
// max_non_huge_bytes" convention directly: lz4.CompressBlock itself
// returns n==0 for incompressible input, and a dst too small for the
// result is reported as an error, which this also folds into 0.
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

func (c *Compressor) CanSkipWrite(ps compressor.PageState, blk compressor.BlockRange, newData, oldData []byte) bool {
	return false
}

func (c *Compressor) CanSkipDelete(ps compressor.PageState, blk compressor.BlockRange) bool {
	return false
}

func (c *Compressor) NoteWrite(ps compressor.PageState, blk compressor.BlockRange, blockSize int, newData []byte) {
}

func (c *Compressor) NoteDelete(ps compressor.PageState, blk compressor.BlockRange) {}

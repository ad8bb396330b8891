// Package snappy is the plain Snappy compressor backend: a second simple
// (non-block-aware) backend with a different compressibility/throughput
// profile than lz4, selectable through the benchmark harness's codec
// config setting.
package snappy

import (
	"github.com/golang/snappy"

	"github.com/uszram/store/compressor"
)

// Compressor wraps github.com/golang/snappy.
type Compressor struct{}

// New returns a Snappy backend.
func New() *Compressor { return &Compressor{} }

func (c *Compressor) Name() string { return "snappy" }

func (c *Compressor) NewPageState(blockSize, blocksPerPage int) compressor.PageState {
	return compressor.NopPageState{}
}

// Compress reports 0 (meaning "make huge") whenever the encoded form
// would not fit in dst, since snappy.Encode does not itself reject
// incompressible input the way lz4.CompressBlock does.
func (c *Compressor) Compress(dst, src []byte) int {
	enc := snappy.Encode(nil, src)
	if len(enc) > len(dst) {
		return 0
	}
	copy(dst, enc)
	return len(enc)
}

func (c *Compressor) Decompress(ps compressor.PageState, compressed []byte, prefixBytes int, dst []byte) error {
	out, err := snappy.Decode(nil, compressed)
	if err != nil {
		return compressor.ErrCorrupt
	}
	copy(dst, out)
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

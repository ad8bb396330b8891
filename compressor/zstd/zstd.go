// Package zstd is the Zstandard compressor backend, wrapping
// github.com/klauspost/compress/zstd with one long-lived encoder/decoder
// pair reused across every call, matching the retrieved cache-engine
// reference's compression-engine shape.
package zstd

import (
	"github.com/klauspost/compress/zstd"

	"github.com/uszram/store/compressor"
)

// Compressor wraps a single zstd encoder/decoder pair. Both
// *zstd.Encoder and *zstd.Decoder are safe for concurrent use by
// multiple goroutines, so one instance serves the whole Store.
type Compressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New builds a zstd backend at the SpeedBetterCompression level. Panics if
// the underlying library fails to construct an encoder/decoder, which
// only happens on invalid options — a programmer error, not a runtime
// one.
func New() *Compressor {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		panic(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	return &Compressor{enc: enc, dec: dec}
}

func (c *Compressor) Name() string { return "zstd" }

func (c *Compressor) NewPageState(blockSize, blocksPerPage int) compressor.PageState {
	return compressor.NopPageState{}
}

func (c *Compressor) Compress(dst, src []byte) int {
	enc := c.enc.EncodeAll(src, nil)
	if len(enc) > len(dst) {
		return 0
	}
	copy(dst, enc)
	return len(enc)
}

func (c *Compressor) Decompress(ps compressor.PageState, compressed []byte, prefixBytes int, dst []byte) error {
	out, err := c.dec.DecodeAll(compressed, nil)
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

// Close releases the encoder/decoder's background resources. Store.Exit
// does not call it; it is safe to call once, after the Store using this
// backend has exited, since no further Compress/Decompress calls are
// permitted afterward.
func (c *Compressor) Close() {
	_ = c.enc.Close()
	c.dec.Close()
}

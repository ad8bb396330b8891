package zstd

import (
	"bytes"
	"testing"

	"github.com/uszram/store/compressor"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	c := New()
	defer c.Close()

	src := bytes.Repeat([]byte("uszram page content "), 50)
	dst := make([]byte, len(src))
	n := c.Compress(dst, src)
	if n == 0 {
		t.Fatal("expected compressible input to succeed")
	}

	out := make([]byte, len(src))
	if err := c.Decompress(nil, dst[:n], len(src), out); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatal("round trip produced different bytes")
	}
}

func TestCompressTooSmallDstSignalsHuge(t *testing.T) {
	c := New()
	defer c.Close()

	src := make([]byte, 4096)
	for i := range src {
		src[i] = byte(i * 37)
	}
	dst := make([]byte, 1)
	if n := c.Compress(dst, src); n != 0 {
		t.Fatalf("expected 0 (huge) for an undersized dst, got %d", n)
	}
}

func TestDecompressCorruptInputReportsErrCorrupt(t *testing.T) {
	c := New()
	defer c.Close()

	out := make([]byte, 16)
	err := c.Decompress(nil, []byte{0x00, 0x01, 0x02}, 16, out)
	if err != compressor.ErrCorrupt {
		t.Fatalf("expected compressor.ErrCorrupt decompressing garbage input, got %v", err)
	}
}

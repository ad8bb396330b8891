package lz4

import (
	"bytes"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	c := New()
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
	src := make([]byte, 4096)
	for i := range src {
		src[i] = byte(i) // a repeating 0..255 ramp: compressible, but not into one byte
	}
	dst := make([]byte, 1) // far too small
	if n := c.Compress(dst, src); n != 0 {
		t.Fatalf("expected 0 (huge) for an undersized dst, got %d", n)
	}
}

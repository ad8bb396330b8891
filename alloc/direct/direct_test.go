package direct

import (
	"bytes"
	"testing"
)

func TestReallocateExactSizing(t *testing.T) {
	a := New()
	buf, delta := a.Reallocate(nil, 0, 10)
	if len(buf) != 10 || delta != 10 {
		t.Fatalf("fresh alloc: len=%d delta=%d, want len=10 delta=10", len(buf), delta)
	}

	copy(buf, []byte("0123456789"))
	grown, delta2 := a.Reallocate(buf, 10, 20)
	if len(grown) != 20 || delta2 != 10 {
		t.Fatalf("grow: len=%d delta=%d, want len=20 delta=10", len(grown), delta2)
	}
	if !bytes.Equal(grown[:10], buf) {
		t.Fatal("grow must preserve old content")
	}

	freed, delta3 := a.Reallocate(grown, 20, 0)
	if freed != nil || delta3 != -20 {
		t.Fatalf("free: buf=%v delta=%d, want nil -20", freed, delta3)
	}
}

package cache

import "testing"

func fillSequential(blocksPerPage, blockSize int) []byte {
	data := make([]byte, blocksPerPage*blockSize)
	for b := 0; b < blocksPerPage; b++ {
		for i := 0; i < blockSize; i++ {
			data[b*blockSize+i] = byte(b)
		}
	}
	return data
}

func TestNewIsNaturalOrder(t *testing.T) {
	m := New()
	if m.Cur0 != 0 || m.Cur1 != 1 || m.Next0 != 0 || m.Next1 != 1 {
		t.Fatalf("New() not in natural order: %+v", m)
	}
}

func TestCachePageInPlaceRoundTrip(t *testing.T) {
	const blockSize = 8
	const blocksPerPage = 6
	m := New()
	m.Next0, m.Next1 = 3, 1 // promote block 3 to the front

	data := fillSequential(blocksPerPage, blockSize)
	orig := append([]byte(nil), data...)

	m.CachePageInPlace(data, blockSize, blocksPerPage)
	if m.Cur0 != 3 || m.Cur1 != 1 {
		t.Fatalf("CachePageInPlace did not commit next as cur: %+v", m)
	}
	// Block 3 must now be at physical slot 0, block 1 at slot 1.
	if data[0] != 3 {
		t.Fatalf("expected block 3 at physical slot 0, got %d", data[0])
	}
	if data[blockSize] != 1 {
		t.Fatalf("expected block 1 at physical slot 1, got %d", data[blockSize])
	}

	m.Uncache(data, blockSize, blocksPerPage)
	for i := range data {
		if data[i] != orig[i] {
			t.Fatalf("Uncache did not invert CachePageInPlace at byte %d: got %d want %d", i, data[i], orig[i])
		}
	}
}

func TestBytesNeededCachedPair(t *testing.T) {
	m := Meta{Cur0: 5, Cur1: 2}
	if n := m.BytesNeeded(64, BlockRange{Offset: 5, Count: 1}); n != 64 {
		t.Errorf("single cached block: got %d want 64", n)
	}
	if n := m.BytesNeeded(64, BlockRange{Offset: 2, Count: 1}); n != 128 {
		t.Errorf("second cached block: got %d want 128", n)
	}
}

func TestBytesNeededUncachedFallsBackToTailExtent(t *testing.T) {
	// cur0/cur1 sit at physical slots 0/1 regardless of their logical
	// value, so a cached index at or beyond the range's end still
	// occupies a slot ahead of the range and pushes its physical tail
	// back by one block each.
	m := Meta{Cur0: 7, Cur1: 9}
	n := m.BytesNeeded(64, BlockRange{Offset: 0, Count: 5})
	if n != (5+2)*64 {
		t.Errorf("got %d want %d", n, (5+2)*64)
	}

	m2 := Meta{Cur0: 0, Cur1: 1}
	n2 := m2.BytesNeeded(64, BlockRange{Offset: 4, Count: 1})
	if n2 != 5*64 {
		t.Errorf("got %d want %d", n2, 5*64)
	}
}

func TestRangesReconstructLogicalRange(t *testing.T) {
	m := Meta{Cur0: 4, Cur1: 1}
	blk := BlockRange{Offset: 0, Count: 6}
	ranges := rangesFor(m.Cur0, m.Cur1, blk)

	total := uint32(0)
	logical := blk.Offset
	for _, r := range ranges {
		for p := r.Offset; p < r.End(); p++ {
			if want := uint32(physicalPos(m.Cur0, m.Cur1, uint8(logical))); p != want {
				t.Fatalf("logical block %d read from physical slot %d, want slot %d: %+v", logical, p, want, ranges)
			}
			logical++
		}
		total += r.Count
	}
	if total != blk.Count {
		t.Fatalf("ranges do not cover the whole logical range: %+v", ranges)
	}
	if len(ranges) > MaxRanges {
		t.Fatalf("got %d ranges, want at most %d", len(ranges), MaxRanges)
	}
}

func TestLogReadPromotesRepeatedBlock(t *testing.T) {
	m := New() // next = (0, 1)
	// Block 5 is read three times in a row: the first read makes it
	// cand0, the second arms its counter, the third promotes it into next.
	for i := 0; i < 3; i++ {
		m.LogRead(BlockRange{Offset: 5, Count: 1})
	}
	if m.Next0 != 5 && m.Next1 != 5 {
		t.Fatalf("block 5 was never promoted into next: %+v", m)
	}
}

func TestResetRestoresNaturalOrder(t *testing.T) {
	m := Meta{Cur0: 7, Cur1: 2, Next0: 7, Next1: 2, Cand0: 3, Cand0Count: 2}
	m.Reset()
	if m.Cur0 != 0 || m.Cur1 != 1 || m.Cand0 != 0 || m.Cand0Count != 0 {
		t.Fatalf("Reset did not restore natural order: %+v", m)
	}
}

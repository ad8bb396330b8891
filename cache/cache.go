// Package cache implements the block-order permutation cache (spec §4.4):
// a per-page heuristic that keeps the two most frequently read blocks at
// the front of the compressed page so that reading them requires
// decompressing as little of the page as possible.
package cache

// BlockRange is a half-open range of block indices: [Offset, Offset+Count).
// Depending on context it addresses logical or physical block positions.
type BlockRange struct {
	Offset uint32
	Count  uint32
}

// End returns the exclusive end of the range.
func (r BlockRange) End() uint32 { return r.Offset + r.Count }

// MaxRanges bounds the number of physical sub-ranges Ranges can return for
// any single logical range: at most one chunk before the first cached
// slot, the cached block itself, one chunk before the second cached slot,
// that block itself, and one trailing chunk.
const MaxRanges = 5

// Meta is the per-page cache state: the permutation currently on disk
// (cur0, cur1), the permutation that will be written on the next
// recompression (next0, next1), and the promotion candidates (cand0,
// cand1), each with a saturating 2-bit recency counter.
//
// A page holds at most 256 blocks (blocksPerPage is 1..=256), so uint8 is
// always wide enough to address one.
type Meta struct {
	Cur0, Cur1   uint8
	Next0, Next1 uint8
	Cand0, Cand1 uint8
	Cand0Count   uint8
	Cand1Count   uint8
}

// New returns a cache in natural order: both the cur and next pairs are
// (0, 1), no candidates. This is spec §3 invariant 3's state at init/reset.
func New() Meta {
	return Meta{Cur1: 1, Next1: 1}
}

// Reset restores natural order and zeroes the candidate state.
func (m *Meta) Reset() {
	*m = New()
}

// LogRead updates the cache state to reflect that blk was just served by a
// read. It implements spec §4.4's read-logging algorithm: a block read
// twice before both next-blocks are each read gets promoted into next,
// displacing whichever next-block went unread in the interval.
func (m *Meta) LogRead(blk BlockRange) {
	for b := blk.Offset; b < blk.End(); b++ {
		blk8 := uint8(b)
		switch {
		case blk8 == m.Next0:
			m.Cand0Count &= 1
			m.Cand1Count &= 1

		case blk8 == m.Next1:
			m.Next0, m.Next1 = m.Next1, m.Next0
			m.Cand0Count >>= 1
			m.Cand1Count >>= 1

		case blk8 == m.Cand0:
			if m.Cand0Count != 0 {
				promoted := m.Cand0
				m.Cand0 = m.Next1
				m.Next1 = m.Next0
				m.Next0 = promoted
				m.Cand0Count = 0
			} else {
				m.Cand0Count = 0b11
			}

		case blk8 == m.Cand1:
			displaced := m.Cand1
			m.Cand1 = m.Cand0
			if m.Cand1Count != 0 {
				m.Cand0 = m.Next1
				m.Next1 = m.Next0
				m.Next0 = displaced
				m.Cand1Count = m.Cand0Count
				m.Cand0Count = 0
			} else {
				m.Cand0 = displaced
				m.Cand1Count = m.Cand0Count
				m.Cand0Count = 0b11
			}

		default:
			m.Cand1 = m.Cand0
			m.Cand1Count = m.Cand0Count
			m.Cand0 = blk8
			m.Cand0Count = 0
		}
	}
}

// BytesNeeded returns the prefix of the compressed page, in bytes, that
// must be decompressed to cover blk, given the permutation currently on
// disk (cur0 at physical slot 0, cur1 at physical slot 1).
func (m Meta) BytesNeeded(blockSize int, blk BlockRange) int {
	if blk.Count <= 2 {
		cached := [2]uint8{m.Cur0, m.Cur1}
		found := 0
		for i, c := range cached {
			for j := uint32(0); j < blk.Count; j++ {
				if uint8(blk.Offset+j) == c {
					found++
				}
			}
			if found == int(blk.Count) {
				return (i + 1) * blockSize
			}
		}
	}
	end := blk.End()
	extra := 0
	if uint32(m.Cur0) >= end {
		extra++
	}
	if uint32(m.Cur1) >= end {
		extra++
	}
	return (int(end) + extra) * blockSize
}

// physicalPos maps a logical block index to its physical slot inside the
// permuted page: idx0 always sits at slot 0, idx1 always at slot 1
// (regardless of which is numerically larger), and every other block is
// packed, in ascending logical order, starting at slot 2.
func physicalPos(idx0, idx1, logical uint8) int {
	switch logical {
	case idx0:
		return 0
	case idx1:
		return 1
	}
	p := 2 + int(logical)
	if idx0 < logical {
		p--
	}
	if idx1 < logical {
		p--
	}
	return p
}

// Ranges maps a logical block range to the disjoint physical sub-ranges
// that, concatenated in the order returned, reconstruct it — at most
// MaxRanges of them, per spec §4.4's range-splitting query. Uses the
// permutation currently on disk (cur0, cur1).
func (m Meta) Ranges(blk BlockRange) []BlockRange {
	return rangesFor(m.Cur0, m.Cur1, blk)
}

func rangesFor(idx0, idx1 uint8, blk BlockRange) []BlockRange {
	var out []BlockRange
	appendRange := func(offset, count uint32) {
		if count == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].End() == offset {
			out[n-1].Count += count
			return
		}
		out = append(out, BlockRange{Offset: offset, Count: count})
	}

	cur := blk.Offset
	end := blk.End()
	for cur < end {
		next := end
		slot := -1
		if uint32(idx0) >= cur && uint32(idx0) < end && uint32(idx0) < next {
			next = uint32(idx0)
			slot = 0
		}
		if uint32(idx1) >= cur && uint32(idx1) < end && uint32(idx1) < next {
			next = uint32(idx1)
			slot = 1
		}
		if next > cur {
			appendRange(uint32(physicalPos(idx0, idx1, uint8(cur))), next-cur)
		}
		if slot >= 0 {
			appendRange(uint32(slot), 1)
			cur = next + 1
		} else {
			cur = next
		}
	}
	return out
}

// permute rewrites data (blocksPerPage contiguous blocks of blockSize
// bytes) according to the permutation that places idx0 at physical slot 0
// and idx1 at physical slot 1. toPhysical copies logical->physical order;
// otherwise it copies physical->logical (the inverse).
func permute(data []byte, blockSize, blocksPerPage int, idx0, idx1 uint8, toPhysical bool) []byte {
	out := make([]byte, len(data))
	for l := 0; l < blocksPerPage; l++ {
		p := physicalPos(idx0, idx1, uint8(l))
		var srcOff, dstOff int
		if toPhysical {
			srcOff, dstOff = l*blockSize, p*blockSize
		} else {
			srcOff, dstOff = p*blockSize, l*blockSize
		}
		copy(out[dstOff:dstOff+blockSize], data[srcOff:srcOff+blockSize])
	}
	return out
}

// Uncache restores logical block order in data, which currently holds a
// full page in the permutation described by (cur0, cur1). Used when a
// full page must be returned to the caller in natural order.
func (m Meta) Uncache(data []byte, blockSize, blocksPerPage int) {
	if m.Cur0 == 0 && m.Cur1 == 1 {
		return
	}
	out := permute(data, blockSize, blocksPerPage, m.Cur0, m.Cur1, false)
	copy(data, out)
}

// CachePageOutOfPlace permutes src (a full raw page in logical order) into
// dst according to the pending (next0, next1) permutation, then commits
// that permutation as the new cur pair. Called just before compressing a
// page.
func (m *Meta) CachePageOutOfPlace(src, dst []byte, blockSize, blocksPerPage int) {
	out := permute(src, blockSize, blocksPerPage, m.Next0, m.Next1, true)
	copy(dst, out)
	m.Cur0, m.Cur1 = m.Next0, m.Next1
}

// CachePageInPlace is CachePageOutOfPlace for callers that only have one
// buffer to permute.
func (m *Meta) CachePageInPlace(data []byte, blockSize, blocksPerPage int) {
	out := permute(data, blockSize, blocksPerPage, m.Next0, m.Next1, true)
	copy(data, out)
	m.Cur0, m.Cur1 = m.Next0, m.Next1
}

package uszram

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uszram/store/alloc/sizeclass"
	"github.com/uszram/store/compressor/lz4block"
	"github.com/uszram/store/lock"
	"github.com/uszram/store/lock/rwmutex"
)

func testConfig() Config {
	return Config{
		BlockShift:        8,  // 256-byte blocks
		PageShift:         12, // 4096-byte pages, blocks_per_page = 16
		BlockCount:        64, // 4 pages
		MaxNonHugePercent: 50,
		HugeWait:          64,
		PagesPerLockGroup: 4,
		Compressor:        lz4block.New(),
		Allocator:         sizeclass.New(),
		NewLock:           func() lock.Lock { return rwmutex.New() },
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := testConfig()
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

// Scenario 1: Empty.
func TestEmptyStore(t *testing.T) {
	s := newTestStore(t)
	out := make([]byte, s.PageSize())
	require.NoError(t, s.ReadPages(0, 1, out))
	for _, b := range out {
		assert.Equal(t, byte(0), b)
	}
	assert.False(t, s.PageExists(0))
	assert.Equal(t, int64(0), s.Stats().TotalHeap)
}

// Scenario 2: single write/read round trip.
func TestSingleWriteRead(t *testing.T) {
	s := newTestStore(t)
	in := make([]byte, s.PageSize())
	for i := range in {
		in[i] = byte(i % 251)
	}
	require.NoError(t, s.WritePages(0, 1, in))

	out := make([]byte, s.PageSize())
	require.NoError(t, s.ReadPages(0, 1, out))
	assert.Equal(t, in, out)
	assert.Equal(t, int64(1), s.Stats().PagesStored)
}

// Scenario 3: huge page stability under the deferred-recompression rule.
func TestHugePageStability(t *testing.T) {
	s := newTestStore(t)
	randomPage := make([]byte, s.PageSize())
	_, err := rand.Read(randomPage)
	require.NoError(t, err)
	require.NoError(t, s.WritePages(0, 1, randomPage))
	require.True(t, s.PageIsHuge(0))
	assert.Equal(t, int64(1), s.Stats().HugePages)

	zeroBlock := make([]byte, s.BlockSize())
	for i := 0; i < int(s.cfg.HugeWait)-1; i++ {
		require.NoError(t, s.WriteBlocks(0, 1, zeroBlock))
		require.True(t, s.PageIsHuge(0), "page should remain huge before huge_wait is reached")
	}
	// The huge_wait-th write attempts recompression; it may or may not
	// succeed depending on the resulting page's compressibility, but it
	// must not error and the counter must have reset.
	require.NoError(t, s.WriteBlocks(0, 1, zeroBlock))
	if s.PageIsHuge(0) {
		assert.Equal(t, uint32(0), s.pt.pages[0].meta.SizeOrCounter)
	}
}

// Scenario 4: delete-empties-page with a block-aware compressor.
func TestDeleteEmptiesPage(t *testing.T) {
	s := newTestStore(t)
	in := make([]byte, s.PageSize())
	for i := range in {
		in[i] = byte(i%200 + 1) // never zero
	}
	require.NoError(t, s.WritePages(0, 1, in))
	require.True(t, s.PageExists(0))

	require.NoError(t, s.DeleteBlocks(0, uint64(s.cfg.blocksPerPage())))
	assert.False(t, s.PageExists(0))
	assert.Equal(t, int64(0), s.Stats().PagesStored)

	out := make([]byte, s.PageSize())
	require.NoError(t, s.ReadPages(0, 1, out))
	for _, b := range out {
		assert.Equal(t, byte(0), b)
	}
}

// Delete idempotence.
func TestDeleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	in := make([]byte, s.PageSize())
	for i := range in {
		in[i] = byte(i%200 + 1)
	}
	require.NoError(t, s.WritePages(0, 2, append(in, in...)))
	require.NoError(t, s.DeletePages(0, 2))
	before := s.Stats().PagesStored
	require.NoError(t, s.DeletePages(0, 2))
	assert.Equal(t, before, s.Stats().PagesStored)
	assert.Equal(t, int64(0), s.Stats().PagesStored)
}

// Scenario 6: cross-page block write, partial/full/partial split.
func TestCrossPageBlockWrite(t *testing.T) {
	s := newTestStore(t)
	blockSize := uint64(s.BlockSize())

	blkAddr := uint64(14)
	blocks := uint64(20) // touches pages 0 (partial: 14,15), 1 (full), 2 (partial: 0,1)
	data := make([]byte, blocks*blockSize)
	for i := range data {
		data[i] = byte(i % 256)
	}
	require.NoError(t, s.WriteBlocks(blkAddr, blocks, data))

	out := make([]byte, blocks*blockSize)
	require.NoError(t, s.ReadBlocks(blkAddr, blocks, out))
	assert.Equal(t, data, out)

	assert.True(t, s.PageExists(0))
	assert.True(t, s.PageExists(1))
	assert.True(t, s.PageExists(2))
	assert.False(t, s.PageExists(3))
}

// Round-trip property across a handful of overlapping writes.
func TestRoundTripOverlapping(t *testing.T) {
	s := newTestStore(t)
	blockSize := uint64(s.BlockSize())

	a := make([]byte, 5*blockSize)
	for i := range a {
		a[i] = 0xAA
	}
	b := make([]byte, 3*blockSize)
	for i := range b {
		b[i] = 0xBB
	}
	require.NoError(t, s.WriteBlocks(2, 5, a))
	require.NoError(t, s.WriteBlocks(4, 3, b))

	out := make([]byte, 7*blockSize)
	require.NoError(t, s.ReadBlocks(2, 7, out))
	assert.Equal(t, a[:2*blockSize], out[:2*blockSize])
	assert.Equal(t, b, out[2*blockSize:5*blockSize])
}

// Counter coherence: total_heap == sum(page_heap), pages_stored and
// huge_pages match direct counts.
func TestCounterCoherence(t *testing.T) {
	s := newTestStore(t)
	in := make([]byte, s.PageSize())
	for i := range in {
		in[i] = byte(i % 251)
	}
	require.NoError(t, s.WritePages(0, 1, in))
	require.NoError(t, s.WritePages(2, 1, in))

	var wantHeap int64
	var wantStored, wantHuge int64
	for pg := uint32(0); pg < s.PageCount(); pg++ {
		if s.PageExists(pg) {
			wantStored++
			wantHeap += int64(s.PageHeap(pg))
		}
		if s.PageIsHuge(pg) {
			wantHuge++
		}
	}
	st := s.Stats()
	assert.Equal(t, wantHeap, st.TotalHeap)
	assert.Equal(t, wantStored, st.PagesStored)
	assert.Equal(t, wantHuge, st.HugePages)
}

// BadRange validation.
func TestBadRange(t *testing.T) {
	s := newTestStore(t)
	err := s.ReadBlocks(s.BlockCount()-1, 2, make([]byte, 2*uint64(s.BlockSize())))
	require.Error(t, err)
	assert.Equal(t, BadRange, Cause(err))

	err = s.WritePages(s.PageCount(), 1, make([]byte, s.PageSize()))
	require.Error(t, err)
	assert.Equal(t, BadRange, Cause(err))
}

// count == 0 is a no-op success, not an error.
func TestZeroCountIsNoop(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.ReadBlocks(0, 0, nil))
	assert.NoError(t, s.WriteBlocks(0, 0, nil))
	assert.NoError(t, s.DeletePages(0, 0))
}

func TestExit(t *testing.T) {
	s := newTestStore(t)
	in := make([]byte, s.PageSize())
	require.NoError(t, s.WritePages(0, 1, in))
	require.NoError(t, s.Exit())
	assert.Equal(t, int64(0), s.Stats().PagesStored)
	assert.Equal(t, int64(0), s.Stats().NumCompr)
}

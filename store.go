// Package uszram is a user-space, compressed, in-memory block store
// modeled on the Linux zram driver: a fixed logical address space of
// equally sized blocks, grouped into fixed-size pages, each stored
// transparently compressed (or raw when incompressible).
package uszram

import "sync"

// Store is the page table, lock table, statistics, and pluggable
// backends for one compressed block store (component C8). Its lifecycle
// methods (New/Exit/DeleteAll) are not safe to call concurrently with
// other operations or each other, matching spec §5's single-owner
// lifecycle contract.
type Store struct {
	cfg Config
	pt  *pageTable
	st  stats

	rawPool   sync.Pool // page_size scratch buffers
	comprPool sync.Pool // max_non_huge_bytes scratch buffers
}

// New validates cfg and allocates the page table, lock table, and
// per-page compressor/cache state — the "init" operation of spec §6.
// Unlike the source's idempotent init/exit pair, a Go Store is a single
// value constructed once; calling New twice simply produces two
// independent stores, so there is no "already initialized" error to
// model.
func New(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Store{cfg: cfg, pt: newPageTable(cfg)}

	pageSize := cfg.pageSize()
	maxNonHuge := cfg.maxNonHugeBytes()
	s.rawPool.New = func() interface{} {
		buf := make([]byte, pageSize)
		return &buf
	}
	s.comprPool.New = func() interface{} {
		buf := make([]byte, maxNonHuge)
		return &buf
	}
	return s, nil
}

func (s *Store) getRaw() *[]byte   { return s.rawPool.Get().(*[]byte) }
func (s *Store) putRaw(b *[]byte)  { s.rawPool.Put(b) }
func (s *Store) getCompr() *[]byte { return s.comprPool.Get().(*[]byte) }
func (s *Store) putCompr(b *[]byte) {
	s.comprPool.Put(b)
}

// Exit deletes every page and zeros the compression-attempt counters
// (spec §6's "exit" operation). It is not safe to call concurrently with
// other operations.
func (s *Store) Exit() error {
	for pg := uint32(0); pg < s.pt.pageCount(); pg++ {
		s.pt.resetPage(s, pg)
	}
	s.st.reset()
	return nil
}

// PageCount returns page_count.
func (s *Store) PageCount() uint32 { return s.pt.pageCount() }

// BlockCount returns block_count.
func (s *Store) BlockCount() uint64 { return s.cfg.BlockCount }

// PageSize returns page_size in bytes.
func (s *Store) PageSize() int { return s.cfg.pageSize() }

// BlockSize returns block_size in bytes.
func (s *Store) BlockSize() int { return s.cfg.blockSize() }

// PageExists reports page_exists(pg).
func (s *Store) PageExists(pg uint32) bool {
	if pg >= s.pt.pageCount() {
		return false
	}
	return s.pt.pages[pg].exists()
}

// PageIsHuge reports page_is_huge(pg).
func (s *Store) PageIsHuge(pg uint32) bool {
	if pg >= s.pt.pageCount() {
		return false
	}
	return s.pt.pages[pg].meta.Huge
}

// PageHeap returns the allocator-visible footprint of one page: the
// primary compressed allocation, plus any block-aware backend's
// separately-allocated secondary heap (not counting inline companion
// state that the allocator never sees, such as lz4block's zero bitmap).
func (s *Store) PageHeap(pg uint32) int {
	if pg >= s.pt.pageCount() {
		return 0
	}
	p := &s.pt.pages[pg]
	return p.ps.TotalSize(p.primarySize())
}

// TotalHeap returns the current total compressed footprint across every
// page (the comprDataSize counter).
func (s *Store) TotalHeap() int64 { return s.Stats().TotalHeap }

// PageInfo is the per-page introspection snapshot of SPEC_FULL §6.
type PageInfo struct {
	Exists         bool
	Huge           bool
	CompressedSize int
	Cur0, Cur1     uint8
}

// PageReport returns a snapshot of one page's state for introspection.
func (s *Store) PageReport(pg uint32) PageInfo {
	if pg >= s.pt.pageCount() {
		return PageInfo{}
	}
	p := &s.pt.pages[pg]
	size := 0
	if p.exists() && !p.meta.Huge {
		size = int(p.meta.SizeOrCounter)
	}
	return PageInfo{
		Exists:         p.exists(),
		Huge:           p.meta.Huge,
		CompressedSize: size,
		Cur0:           p.cacheMeta.Cur0,
		Cur1:           p.cacheMeta.Cur1,
	}
}

// CAS is a read-modify-write helper built on write_blocks_hint (spec §4.1,
// folded into "benchmark only" by the distilled spec but carried over
// from the original workload generator's check-then-update pattern): it
// reads blk_addr's current bytes, compares them to old, and if they
// match, writes new via write_blocks_hint so a block-aware backend can
// skip recompression when old == new. Returns false without writing if
// the current contents don't match old.
func (s *Store) CAS(blkAddr uint64, blocks uint64, old, new []byte) (bool, error) {
	cur := make([]byte, blocks*uint64(s.cfg.blockSize()))
	if err := s.ReadBlocks(blkAddr, blocks, cur); err != nil {
		return false, err
	}
	for i := range cur {
		if cur[i] != old[i] {
			return false, nil
		}
	}
	if err := s.WriteBlocksHint(blkAddr, blocks, new, old); err != nil {
		return false, err
	}
	return true, nil
}

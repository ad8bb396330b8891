package uszram

import (
	"github.com/uszram/store/cache"
	"github.com/uszram/store/compressor"
	"github.com/uszram/store/lock"
)

// compressorMeta is spec §3's per-page bitfield, reshaped per §9's
// REDESIGN FLAGS into an explicit struct: Huge is the high bit, and
// SizeOrCounter holds either the compressed byte length (when !Huge) or
// the huge-page update counter bounded by huge_wait (when Huge). The
// packing is not observable to callers.
type compressorMeta struct {
	Huge          bool
	SizeOrCounter uint32
}

// page is one logical page's record (spec §3). data is nil/empty iff the
// page does not exist (invariant 1); its length is the stored byte count
// (page_size when huge, compressed_size otherwise) and its capacity is
// the allocator-visible primary size, which a size-class allocator may
// round up.
type page struct {
	data      []byte
	meta      compressorMeta
	cacheMeta cache.Meta
	ps        compressor.PageState
}

func (p *page) exists() bool { return len(p.data) > 0 }

// primarySize is the allocator-visible size of p.data (its capacity),
// used by C2's reallocate as both old_size and (via totalSize) a
// component of total_size.
func (p *page) primarySize() int { return cap(p.data) }

// pageTable is the arena of page records and the lock-group table, sized
// once at Init per spec §3's "Lifecycles" clause.
type pageTable struct {
	pages             []page
	locks             []lock.Lock
	pagesPerLockGroup uint32
	blocksPerPage     uint32
}

func newPageTable(cfg Config) *pageTable {
	pc := cfg.pageCount()
	lc := cfg.lockCount()
	blocksPerPage := cfg.blocksPerPage()

	pt := &pageTable{
		pages:             make([]page, pc),
		locks:             make([]lock.Lock, lc),
		pagesPerLockGroup: cfg.PagesPerLockGroup,
		blocksPerPage:     blocksPerPage,
	}
	for i := range pt.pages {
		pt.pages[i].cacheMeta = cache.New()
		pt.pages[i].ps = cfg.Compressor.NewPageState(cfg.blockSize(), int(blocksPerPage))
	}
	for i := range pt.locks {
		pt.locks[i] = cfg.NewLock()
	}
	return pt
}

func (pt *pageTable) pageCount() uint32 { return uint32(len(pt.pages)) }

func (pt *pageTable) lockFor(pg uint32) lock.Lock {
	return pt.locks[pg/pt.pagesPerLockGroup]
}

// lockGroupOf returns the lock-group index a page belongs to (the same
// index lockFor uses).
func (pt *pageTable) lockGroupOf(pg uint32) uint32 {
	return pg / pt.pagesPerLockGroup
}

// resetPage restores a page to Empty: frees its buffer via the
// allocator, resets its cache and compressor state. Caller holds the
// page's write lock.
func (pt *pageTable) resetPage(s *Store, pg uint32) {
	p := &pt.pages[pg]
	if !p.exists() {
		return
	}
	freed := p.ps.FreeReachable()
	_, delta := s.cfg.Allocator.Reallocate(p.data, p.primarySize(), 0)
	s.st.addComprDataSize(delta - freed)
	if p.meta.Huge {
		s.st.addHugePages(-1)
	}
	s.st.addPagesStored(-1)
	p.data = nil
	p.meta = compressorMeta{}
	p.cacheMeta.Reset()
	p.ps.Reset()
}

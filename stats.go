package uszram

import "sync/atomic"

// stats holds the five counters of spec §5/§6, each modified under a
// page lock but read without one — atomics avoid torn reads, matching
// the teacher's buffer_pool hit/miss/dirty counter idiom.
type stats struct {
	comprDataSize int64 // current total compressed bytes across all pages
	pagesStored   int64 // #{pg : page_exists(pg)}
	hugePages     int64 // #{pg : page_is_huge(pg)}
	numCompr      int64 // compression attempts, successful or not
	failedCompr   int64 // compression attempts that yielded 0 (made huge)
}

func (s *stats) addComprDataSize(delta int64) { atomic.AddInt64(&s.comprDataSize, delta) }
func (s *stats) addPagesStored(delta int64)    { atomic.AddInt64(&s.pagesStored, delta) }
func (s *stats) addHugePages(delta int64)      { atomic.AddInt64(&s.hugePages, delta) }
func (s *stats) incNumCompr()                  { atomic.AddInt64(&s.numCompr, 1) }
func (s *stats) incFailedCompr()               { atomic.AddInt64(&s.failedCompr, 1) }

// resetAttempts zeros the compression-attempt counters, per spec
// invariant 4: "monotonically non-decreasing except across a full exit".
func (s *stats) resetAttempts() {
	atomic.StoreInt64(&s.numCompr, 0)
	atomic.StoreInt64(&s.failedCompr, 0)
}

func (s *stats) reset() {
	atomic.StoreInt64(&s.comprDataSize, 0)
	atomic.StoreInt64(&s.pagesStored, 0)
	atomic.StoreInt64(&s.hugePages, 0)
	s.resetAttempts()
}

// Stats is a point-in-time snapshot of the store's counters.
type Stats struct {
	TotalHeap    int64
	PagesStored  int64
	HugePages    int64
	NumCompr     int64
	FailedCompr  int64
	TotalSize    int64
}

// CompressionRatio returns TotalSize/TotalHeap, or 0 when nothing is
// stored yet. TotalSize is PagesStored * page_size (the logical bytes
// those pages represent), TotalHeap the actual compressed footprint.
func (st Stats) CompressionRatio() float64 {
	if st.TotalHeap == 0 {
		return 0
	}
	return float64(st.TotalSize) / float64(st.TotalHeap)
}

// Stats returns a snapshot of the store's counters (spec §6
// introspection: total_size, total_heap, pages_stored, huge_pages,
// num_compr, failed_compr).
func (s *Store) Stats() Stats {
	pagesStored := atomic.LoadInt64(&s.st.pagesStored)
	return Stats{
		TotalHeap:   atomic.LoadInt64(&s.st.comprDataSize),
		PagesStored: pagesStored,
		HugePages:   atomic.LoadInt64(&s.st.hugePages),
		NumCompr:    atomic.LoadInt64(&s.st.numCompr),
		FailedCompr: atomic.LoadInt64(&s.st.failedCompr),
		TotalSize:   pagesStored * int64(s.cfg.pageSize()),
	}
}

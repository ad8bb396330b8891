package uszram

import (
	"github.com/uszram/store/cache"
	"github.com/uszram/store/compressor"
)

// page lifecycle (spec §4.2): Empty (data empty) -> Compressed (first
// write, or a write that stays compressible) -> Huge (a write whose
// compressed form would exceed max_non_huge_bytes) -> Compressed again
// (a deferred re-compression attempt, made once huge_wait block updates
// have accumulated, succeeds)
// -> Empty (delete_blocks zeros every remaining block, or delete_page).
// There is no separate type tag in the page record: meta.Huge carries
// the state, and len(data) == 0 carries Empty.

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// readPage implements read_page (spec §4.2): full decompression plus
// block-order de-permutation via C4 for a Compressed page, a verbatim
// copy for Huge, zeros for Empty.
func (s *Store) readPage(pg uint32, out []byte) error {
	l := s.pt.lockFor(pg)
	l.RLock()
	defer l.RUnlock()

	p := &s.pt.pages[pg]
	if !p.exists() {
		zero(out)
		return nil
	}
	if p.meta.Huge {
		copy(out, p.data)
		return nil
	}

	rawp := s.getRaw()
	defer s.putRaw(rawp)
	buf := (*rawp)[:s.cfg.pageSize()]
	if err := s.cfg.Compressor.Decompress(p.ps, p.data, s.cfg.pageSize(), buf); err != nil {
		s.cfg.logger().Debugf("uszram: page %d: %s backend rejected stored bytes: %v", pg, s.cfg.Compressor.Name(), err)
		return corrupt("ReadPage", err)
	}
	p.cacheMeta.Uncache(buf, s.cfg.blockSize(), int(s.cfg.blocksPerPage()))
	copy(out, buf)
	return nil
}

// readBlocks implements read_blocks (spec §4.2/§4.4): a prefix
// decompression sized by C4 to cover exactly blk, followed by a
// scatter-gather copy driven by C4's range split, avoiding a full
// de-permutation. The read is logged into the cache metadata under the
// read lock; concurrent readers racing on that update is accepted, same
// as the block-order heuristic it feeds tolerates in the source.
func (s *Store) readBlocks(pg uint32, blk cache.BlockRange, out []byte) error {
	l := s.pt.lockFor(pg)
	l.RLock()
	defer l.RUnlock()

	p := &s.pt.pages[pg]
	p.cacheMeta.LogRead(blk)

	if !p.exists() {
		zero(out)
		return nil
	}
	blockSize := s.cfg.blockSize()
	if p.meta.Huge {
		start := int(blk.Offset) * blockSize
		copy(out, p.data[start:start+len(out)])
		return nil
	}

	bytesNeeded := p.cacheMeta.BytesNeeded(blockSize, blk)
	rawp := s.getRaw()
	defer s.putRaw(rawp)
	buf := (*rawp)[:s.cfg.pageSize()]
	if err := s.cfg.Compressor.Decompress(p.ps, p.data, bytesNeeded, buf); err != nil {
		s.cfg.logger().Debugf("uszram: page %d: %s backend rejected stored bytes: %v", pg, s.cfg.Compressor.Name(), err)
		return corrupt("ReadBlocks", err)
	}

	pos := 0
	for _, r := range p.cacheMeta.Ranges(blk) {
		n := int(r.Count) * blockSize
		off := int(r.Offset) * blockSize
		copy(out[pos:pos+n], buf[off:off+n])
		pos += n
	}
	return nil
}

// writeBlocks implements write_blocks / write_blocks_hint (spec §4.2):
// hint (nil for write_blocks) lets a block-aware compressor prove the
// write is a no-op before anything is decompressed. A Huge page is
// patched directly and only reattempts compression once HugeWait block
// updates have accumulated (the deferred-recompression rule); everything
// else goes
// through the full decompress-patch-recompress cycle.
func (s *Store) writeBlocks(pg uint32, blk cache.BlockRange, newData, hint []byte) error {
	l := s.pt.lockFor(pg)
	l.Lock()
	defer l.Unlock()

	p := &s.pt.pages[pg]
	blockSize := s.cfg.blockSize()
	cblk := compressor.BlockRange{Offset: int(blk.Offset), Count: int(blk.Count)}

	if hint != nil && s.cfg.Compressor.CanSkipWrite(p.ps, cblk, newData, hint) {
		return nil
	}

	if p.exists() && p.meta.Huge {
		compressor.PatchRange(p.data, blockSize, cblk, newData)
		s.cfg.Compressor.NoteWrite(p.ps, cblk, blockSize, newData)
		p.meta.SizeOrCounter += uint32(blk.Count)
		if p.meta.SizeOrCounter >= uint32(s.cfg.HugeWait) {
			s.compressAndStore(pg, p.data)
		}
		return nil
	}

	rawp := s.getRaw()
	defer s.putRaw(rawp)
	buf := (*rawp)[:s.cfg.pageSize()]
	if !p.exists() {
		zero(buf)
	} else {
		if err := s.cfg.Compressor.Decompress(p.ps, p.data, s.cfg.pageSize(), buf); err != nil {
			s.cfg.logger().Debugf("uszram: page %d: %s backend rejected stored bytes: %v", pg, s.cfg.Compressor.Name(), err)
			return corrupt("WriteBlocks", err)
		}
		p.cacheMeta.Uncache(buf, blockSize, int(s.cfg.blocksPerPage()))
	}

	compressor.PatchRange(buf, blockSize, cblk, newData)
	s.cfg.Compressor.NoteWrite(p.ps, cblk, blockSize, newData)
	s.compressAndStore(pg, buf)
	return nil
}

// writePage implements the whole-page case of write_blocks (spec §4.2):
// a full-page write bypasses the read-modify path entirely, since every
// block is being replaced there is nothing to decompress or patch —
// newData goes straight to compressAndStore, which applies the pending
// block-order permutation as for any other write (or stores it verbatim
// in natural order if it turns out huge).
func (s *Store) writePage(pg uint32, newData []byte) error {
	l := s.pt.lockFor(pg)
	l.Lock()
	defer l.Unlock()

	p := &s.pt.pages[pg]
	blockSize := s.cfg.blockSize()
	cblk := compressor.BlockRange{Offset: 0, Count: int(s.cfg.blocksPerPage())}

	s.cfg.Compressor.NoteWrite(p.ps, cblk, blockSize, newData)
	s.compressAndStore(pg, newData)
	return nil
}

// deleteBlocks implements delete_blocks (spec §4.2): the write path with
// zeros as the patch, except the page transitions to Empty instead of
// being re-stored whenever the result is entirely zero — detected via
// CanSkipDelete/ZeroReporter in O(1) for a block-aware compressor, or by
// scanning the decompressed page for every other backend.
func (s *Store) deleteBlocks(pg uint32, blk cache.BlockRange) error {
	l := s.pt.lockFor(pg)
	l.Lock()
	defer l.Unlock()

	p := &s.pt.pages[pg]
	if !p.exists() {
		return nil
	}
	blockSize := s.cfg.blockSize()
	cblk := compressor.BlockRange{Offset: int(blk.Offset), Count: int(blk.Count)}

	if p.meta.Huge {
		compressor.ZeroRange(p.data, blockSize, cblk)
		s.cfg.Compressor.NoteDelete(p.ps, cblk)
		p.meta.SizeOrCounter += uint32(blk.Count)
		if compressor.AllZero(p.data) {
			s.pt.resetPage(s, pg)
			return nil
		}
		if p.meta.SizeOrCounter >= uint32(s.cfg.HugeWait) {
			s.compressAndStore(pg, p.data)
		}
		return nil
	}

	if s.cfg.Compressor.CanSkipDelete(p.ps, cblk) {
		if zr, ok := p.ps.(compressor.ZeroReporter); ok && zr.AllZero() {
			s.pt.resetPage(s, pg)
		}
		return nil
	}

	rawp := s.getRaw()
	defer s.putRaw(rawp)
	buf := (*rawp)[:s.cfg.pageSize()]
	if err := s.cfg.Compressor.Decompress(p.ps, p.data, s.cfg.pageSize(), buf); err != nil {
		s.cfg.logger().Debugf("uszram: page %d: %s backend rejected stored bytes: %v", pg, s.cfg.Compressor.Name(), err)
		return corrupt("DeleteBlocks", err)
	}
	p.cacheMeta.Uncache(buf, blockSize, int(s.cfg.blocksPerPage()))
	compressor.ZeroRange(buf, blockSize, cblk)
	s.cfg.Compressor.NoteDelete(p.ps, cblk)

	if compressor.AllZero(buf) {
		s.pt.resetPage(s, pg)
		return nil
	}
	s.compressAndStore(pg, buf)
	return nil
}

// deletePage implements delete_pages' per-page step: an unconditional
// reset to Empty, regardless of content.
func (s *Store) deletePage(pg uint32) {
	l := s.pt.lockFor(pg)
	l.Lock()
	defer l.Unlock()
	s.pt.resetPage(s, pg)
}

// compressAndStore is the shared tail of every write/delete path that
// produced a full raw page in logical block order: it asks C4 to
// permute toward the pending (next0, next1) permutation, compresses via
// C1, and on failure falls back to Huge storing the page verbatim in
// natural order — the cache permutation is only ever meaningful for a
// Compressed page, so a Huge transition resets it rather than keeping a
// permutation nothing will read through.
func (s *Store) compressAndStore(pg uint32, rawLogical []byte) {
	p := &s.pt.pages[pg]
	blockSize := s.cfg.blockSize()
	blocksPerPage := int(s.cfg.blocksPerPage())
	pageSize := s.cfg.pageSize()

	oldSize := p.primarySize()
	wasExists := p.exists()
	wasHuge := p.meta.Huge

	physp := s.getRaw()
	defer s.putRaw(physp)
	physical := (*physp)[:pageSize]
	nextMeta := p.cacheMeta
	nextMeta.CachePageOutOfPlace(rawLogical, physical, blockSize, blocksPerPage)

	comprp := s.getCompr()
	defer s.putCompr(comprp)
	s.cfg.logger().Debugf("uszram: page %d: attempting recompression (was huge=%v)", pg, wasHuge)
	n := s.cfg.Compressor.Compress(*comprp, physical)
	s.st.incNumCompr()

	var content []byte
	var newSize int
	var huge bool
	if n > 0 {
		p.cacheMeta = nextMeta
		content = (*comprp)[:n]
		newSize = n
		huge = false
	} else {
		s.st.incFailedCompr()
		p.cacheMeta.Reset()
		content = rawLogical
		newSize = pageSize
		huge = true
	}

	out, delta := s.cfg.Allocator.Reallocate(p.data, oldSize, newSize)
	copy(out, content)
	p.data = out[:newSize]
	p.meta.Huge = huge
	if huge {
		p.meta.SizeOrCounter = 0
	} else {
		p.meta.SizeOrCounter = uint32(newSize)
	}

	s.st.addComprDataSize(delta)
	if !wasExists {
		s.st.addPagesStored(1)
	}
	switch {
	case huge && !wasHuge:
		s.st.addHugePages(1)
		s.cfg.logger().Debugf("uszram: page %d: transitioned to huge (%d bytes)", pg, newSize)
	case !huge && wasHuge:
		s.st.addHugePages(-1)
		s.cfg.logger().Debugf("uszram: page %d: recompressed out of huge (%d -> %d bytes)", pg, oldSize, newSize)
	}
}

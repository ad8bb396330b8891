package uszram

import "github.com/uszram/store/cache"

// Package-level request dispatcher (C6, spec §4.1): the public API
// surface. Every method validates its range, splits it across page and
// lock-group boundaries, and invokes the page engine (engine.go) once
// per affected page, holding at most one page lock at a time.

func (s *Store) blockRange(blkAddr, blocks uint64) error {
	if blkAddr+blocks < blkAddr || blkAddr+blocks > s.cfg.BlockCount {
		return badRange("blockRange")
	}
	return nil
}

func (s *Store) pageRange(pgAddr, pages uint32) error {
	if uint64(pgAddr)+uint64(pages) > uint64(s.pt.pageCount()) {
		return badRange("pageRange")
	}
	return nil
}

// forEachPageBlockRange splits [blkAddr, blkAddr+blocks) at page
// boundaries, visiting affected pages in ascending order. The first and
// last pages may be partial; every interior page is the full page
// (spec §4.1's range-splitting rule).
func (s *Store) forEachPageBlockRange(blkAddr, blocks uint64, fn func(pg uint32, blk cache.BlockRange, bufOff uint64) error) error {
	bpp := uint64(s.cfg.blocksPerPage())
	blockSize := uint64(s.cfg.blockSize())
	end := blkAddr + blocks
	bufOff := uint64(0)
	for cur := blkAddr; cur < end; {
		pg := uint32(cur / bpp)
		offsetInPage := cur - uint64(pg)*bpp
		count := bpp - offsetInPage
		if cur+count > end {
			count = end - cur
		}
		blk := cache.BlockRange{Offset: uint32(offsetInPage), Count: uint32(count)}
		if err := fn(pg, blk, bufOff); err != nil {
			return err
		}
		bufOff += count * blockSize
		cur += count
	}
	return nil
}

// ReadPages reads pages page-granular pages starting at pgAddr into out
// (len(out) must be pages*PageSize()).
func (s *Store) ReadPages(pgAddr, pages uint32, out []byte) error {
	if pages == 0 {
		return nil
	}
	if err := s.pageRange(pgAddr, pages); err != nil {
		return err
	}
	pageSize := s.cfg.pageSize()
	for i := uint32(0); i < pages; i++ {
		start := int(i) * pageSize
		if err := s.readPage(pgAddr+i, out[start:start+pageSize]); err != nil {
			return err
		}
	}
	return nil
}

// ReadBlocks reads blocks logical blocks starting at blkAddr into out
// (len(out) must be blocks*BlockSize()).
func (s *Store) ReadBlocks(blkAddr, blocks uint64, out []byte) error {
	if blocks == 0 {
		return nil
	}
	if err := s.blockRange(blkAddr, blocks); err != nil {
		return err
	}
	blockSize := uint64(s.cfg.blockSize())
	return s.forEachPageBlockRange(blkAddr, blocks, func(pg uint32, blk cache.BlockRange, bufOff uint64) error {
		n := uint64(blk.Count) * blockSize
		return s.readBlocks(pg, blk, out[bufOff:bufOff+n])
	})
}

// WritePages overwrites pages page-granular pages starting at pgAddr
// with in (len(in) must be pages*PageSize()); compresses the caller's
// buffer directly rather than going through the read-modify path (spec
// §4.2's "write for a whole page" carve-out).
func (s *Store) WritePages(pgAddr, pages uint32, in []byte) error {
	if pages == 0 {
		return nil
	}
	if err := s.pageRange(pgAddr, pages); err != nil {
		return err
	}
	pageSize := s.cfg.pageSize()
	for i := uint32(0); i < pages; i++ {
		start := int(i) * pageSize
		if err := s.writePage(pgAddr+i, in[start:start+pageSize]); err != nil {
			return err
		}
	}
	return nil
}

// WriteBlocks overwrites blocks logical blocks starting at blkAddr with
// in (len(in) must be blocks*BlockSize()).
func (s *Store) WriteBlocks(blkAddr, blocks uint64, in []byte) error {
	return s.writeBlocksDispatch(blkAddr, blocks, in, nil)
}

// WriteBlocksHint is WriteBlocks with orig, the caller-asserted current
// contents of the affected blocks, passed through to the compressor so
// a block-aware backend can skip recompression entirely when orig ==
// in. Passing an orig that does not match the blocks' actual current
// contents is a caller error; the store does not re-verify it (doing so
// would require the full decompression the hint exists to avoid).
func (s *Store) WriteBlocksHint(blkAddr, blocks uint64, in, orig []byte) error {
	return s.writeBlocksDispatch(blkAddr, blocks, in, orig)
}

func (s *Store) writeBlocksDispatch(blkAddr, blocks uint64, in, orig []byte) error {
	if blocks == 0 {
		return nil
	}
	if err := s.blockRange(blkAddr, blocks); err != nil {
		return err
	}
	blockSize := uint64(s.cfg.blockSize())
	return s.forEachPageBlockRange(blkAddr, blocks, func(pg uint32, blk cache.BlockRange, bufOff uint64) error {
		n := uint64(blk.Count) * blockSize
		var hint []byte
		if orig != nil {
			hint = orig[bufOff : bufOff+n]
		}
		return s.writeBlocks(pg, blk, in[bufOff:bufOff+n], hint)
	})
}

// DeletePages resets pages page-granular pages starting at pgAddr to
// Empty.
func (s *Store) DeletePages(pgAddr, pages uint32) error {
	if pages == 0 {
		return nil
	}
	if err := s.pageRange(pgAddr, pages); err != nil {
		return err
	}
	for i := uint32(0); i < pages; i++ {
		s.deletePage(pgAddr + i)
	}
	return nil
}

// DeleteBlocks zeros blocks logical blocks starting at blkAddr,
// transitioning any page that becomes entirely zero to Empty.
func (s *Store) DeleteBlocks(blkAddr, blocks uint64) error {
	if blocks == 0 {
		return nil
	}
	if err := s.blockRange(blkAddr, blocks); err != nil {
		return err
	}
	return s.forEachPageBlockRange(blkAddr, blocks, func(pg uint32, blk cache.BlockRange, bufOff uint64) error {
		return s.deleteBlocks(pg, blk)
	})
}

// DeleteAll resets every page to Empty without draining the
// compression-attempt counters (that is Exit's job, not delete_all's).
func (s *Store) DeleteAll() error {
	for pg := uint32(0); pg < s.pt.pageCount(); pg++ {
		s.deletePage(pg)
	}
	return nil
}

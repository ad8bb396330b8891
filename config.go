package uszram

import (
	"github.com/sirupsen/logrus"

	"github.com/uszram/store/alloc"
	"github.com/uszram/store/compressor"
	"github.com/uszram/store/lock"
	"github.com/uszram/store/logger"
)

// Config is the immutable startup configuration of spec §3, plus the
// domain-stack additions that select the pluggable backends: which
// Compressor, Allocator, and Lock implementation the store uses.
type Config struct {
	BlockShift        uint
	PageShift         uint
	BlockCount        uint64
	MaxNonHugePercent uint // 1..=100
	HugeWait          uint // 1..=64
	PagesPerLockGroup uint32

	Compressor compressor.Compressor
	Allocator  alloc.Allocator
	NewLock    func() lock.Lock

	// Logger is the ambient logging sink; nil falls back to the
	// package-level default logger, mirroring the teacher's
	// "global logger" convention.
	Logger *logrus.Logger
}

func (c Config) blockSize() int { return 1 << c.BlockShift }
func (c Config) pageSize() int  { return 1 << c.PageShift }

func (c Config) blocksPerPage() uint32 {
	return uint32(1) << (c.PageShift - c.BlockShift)
}

func (c Config) pageCount() uint32 {
	bpp := uint64(c.blocksPerPage())
	return uint32((c.BlockCount + bpp - 1) / bpp)
}

func (c Config) lockCount() uint32 {
	pc := uint64(c.pageCount())
	ppg := uint64(c.PagesPerLockGroup)
	return uint32((pc + ppg - 1) / ppg)
}

func (c Config) maxNonHugeBytes() int {
	n := c.pageSize() * int(c.MaxNonHugePercent) / 100
	if n < 1 {
		n = 1
	}
	return n
}

func (c Config) logger() *logrus.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Logger
}

// validate checks the invariants spec §3 requires of Config before a
// Store can be built from it.
func (c Config) validate() error {
	if c.PageShift < c.BlockShift {
		return errConfig("page_shift must be >= block_shift")
	}
	if bpp := c.blocksPerPage(); bpp < 1 || bpp > 256 {
		return errConfig("blocks_per_page must be in 1..=256")
	}
	if c.BlockCount == 0 {
		return errConfig("block_count must be > 0")
	}
	if c.MaxNonHugePercent < 1 || c.MaxNonHugePercent > 100 {
		return errConfig("max_non_huge_percent must be in 1..=100")
	}
	if c.HugeWait < 1 || c.HugeWait > 64 {
		return errConfig("huge_wait must be in 1..=64")
	}
	if c.PagesPerLockGroup == 0 {
		return errConfig("pages_per_lock_group must be > 0")
	}
	if c.Compressor == nil {
		return errConfig("Compressor is required")
	}
	if c.Allocator == nil {
		return errConfig("Allocator is required")
	}
	if c.NewLock == nil {
		return errConfig("NewLock is required")
	}
	return nil
}

func errConfig(msg string) error {
	return &Error{Code: BadRange, Op: "Config.validate", Err: errString(msg)}
}

type errString string

func (e errString) Error() string { return string(e) }

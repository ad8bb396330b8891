package uszram

import (
	"testing"

	"github.com/uszram/store/alloc/direct"
	"github.com/uszram/store/compressor/lz4"
	"github.com/uszram/store/lock"
	"github.com/uszram/store/lock/rwmutex"
)

func validConfig() Config {
	return Config{
		BlockShift:        8,
		PageShift:         12,
		BlockCount:        64,
		MaxNonHugePercent: 50,
		HugeWait:          8,
		PagesPerLockGroup: 4,
		Compressor:        lz4.New(),
		Allocator:         direct.New(),
		NewLock:           func() lock.Lock { return rwmutex.New() },
	}
}

func TestConfigDerivedSizes(t *testing.T) {
	c := validConfig()
	if got := c.blockSize(); got != 256 {
		t.Errorf("blockSize() = %d, want 256", got)
	}
	if got := c.pageSize(); got != 4096 {
		t.Errorf("pageSize() = %d, want 4096", got)
	}
	if got := c.blocksPerPage(); got != 16 {
		t.Errorf("blocksPerPage() = %d, want 16", got)
	}
	if got := c.pageCount(); got != 4 {
		t.Errorf("pageCount() = %d, want 4", got)
	}
	if got := c.lockCount(); got != 1 {
		t.Errorf("lockCount() = %d, want 1", got)
	}
}

func TestConfigValidateRejectsBadFields(t *testing.T) {
	base := validConfig()

	bad := base
	bad.PageShift = 2
	bad.BlockShift = 4
	if err := bad.validate(); err == nil {
		t.Error("page_shift < block_shift should be rejected")
	}

	bad = base
	bad.BlockCount = 0
	if err := bad.validate(); err == nil {
		t.Error("block_count == 0 should be rejected")
	}

	bad = base
	bad.MaxNonHugePercent = 0
	if err := bad.validate(); err == nil {
		t.Error("max_non_huge_percent == 0 should be rejected")
	}

	bad = base
	bad.HugeWait = 0
	if err := bad.validate(); err == nil {
		t.Error("huge_wait == 0 should be rejected")
	}

	bad = base
	bad.Compressor = nil
	if err := bad.validate(); err == nil {
		t.Error("nil Compressor should be rejected")
	}

	if err := base.validate(); err != nil {
		t.Errorf("expected valid config to pass, got %v", err)
	}
}

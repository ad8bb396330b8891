// Command uszram-bench replays a synthetic read/write workload
// against a uszram.Store and reports throughput and compression
// statistics, the Go counterpart of the original project's
// test/workload.c benchmark driver.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	store "github.com/uszram/store"
	"github.com/uszram/store/alloc"
	"github.com/uszram/store/alloc/direct"
	"github.com/uszram/store/alloc/sizeclass"
	"github.com/uszram/store/compressor"
	"github.com/uszram/store/compressor/lz4"
	"github.com/uszram/store/compressor/lz4block"
	"github.com/uszram/store/compressor/snappy"
	"github.com/uszram/store/compressor/zstd"
	"github.com/uszram/store/lock"
	"github.com/uszram/store/lock/mutex"
	"github.com/uszram/store/lock/rwmutex"
	"github.com/uszram/store/logger"
)

// fileConfig is the on-disk TOML shape: the store's sizing parameters,
// the backend names to wire up, and the workload to replay.
type fileConfig struct {
	BlockShift        uint   `toml:"block_shift"`
	PageShift         uint   `toml:"page_shift"`
	BlockCount        uint64 `toml:"block_count"`
	MaxNonHugePercent uint   `toml:"max_non_huge_percent"`
	HugeWait          uint   `toml:"huge_wait"`
	PagesPerLockGroup uint32 `toml:"pages_per_lock_group"`

	Codec string `toml:"codec"` // lz4 | lz4block | snappy | zstd
	Alloc string `toml:"alloc"` // sizeclass | direct
	Lock  string `toml:"lock"`  // rwmutex | mutex

	Workload Workload `toml:"workload"`
}

func newCompressor(name string) (compressor.Compressor, func(), error) {
	switch name {
	case "", "lz4":
		return lz4.New(), func() {}, nil
	case "lz4block":
		return lz4block.New(), func() {}, nil
	case "snappy":
		return snappy.New(), func() {}, nil
	case "zstd":
		z := zstd.New()
		return z, z.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown codec %q", name)
	}
}

func newAllocator(name string) (alloc.Allocator, error) {
	switch name {
	case "", "sizeclass":
		return sizeclass.New(), nil
	case "direct":
		return direct.New(), nil
	default:
		return nil, fmt.Errorf("unknown alloc %q", name)
	}
}

func newLockFactory(name string) (func() lock.Lock, error) {
	switch name {
	case "", "rwmutex":
		return func() lock.Lock { return rwmutex.New() }, nil
	case "mutex":
		return func() lock.Lock { return mutex.New() }, nil
	default:
		return nil, fmt.Errorf("unknown lock %q", name)
	}
}

func run() error {
	path := flag.String("config", "bench.toml", "path to a TOML workload config")
	flag.Parse()

	var fc fileConfig
	if err := loadTOML(*path, &fc); err != nil {
		return err
	}

	compr, closeCompr, err := newCompressor(fc.Codec)
	if err != nil {
		return err
	}
	defer closeCompr()

	allocator, err := newAllocator(fc.Alloc)
	if err != nil {
		return err
	}
	lockFactory, err := newLockFactory(fc.Lock)
	if err != nil {
		return err
	}

	cfg := store.Config{
		BlockShift:        fc.BlockShift,
		PageShift:         fc.PageShift,
		BlockCount:        fc.BlockCount,
		MaxNonHugePercent: fc.MaxNonHugePercent,
		HugeWait:          fc.HugeWait,
		PagesPerLockGroup: fc.PagesPerLockGroup,
		Compressor:        compr,
		Allocator:         allocator,
		NewLock:           lockFactory,
	}

	s, err := store.New(cfg)
	if err != nil {
		return fmt.Errorf("store.New: %w", err)
	}
	defer s.Exit()

	log := logger.Logger
	log.Infof("uszram-bench: codec=%s alloc=%s lock=%s pages=%d blocks=%d",
		compr.Name(), allocator.Name(), fc.Lock, s.PageCount(), cfg.BlockCount)

	fc.Workload.DataDir = defaultString(fc.Workload.DataDir, "data")
	dur, err := runWorkload(s, &fc.Workload)
	if err != nil {
		return err
	}

	st := s.Stats()
	log.Infof("%d requests in %.4f s", fc.Workload.RequestCount, dur.Seconds())
	log.Infof("pages_stored=%d huge_pages=%d num_compr=%d failed_compr=%d",
		st.PagesStored, st.HugePages, st.NumCompr, st.FailedCompr)
	log.Infof("total_size=%d total_heap=%d ratio=%.3f",
		st.TotalSize, st.TotalHeap, st.CompressionRatio())
	return nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func loadTOML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "uszram-bench:", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	store "github.com/uszram/store"
)

// rwWorkload is one side (read or write) of a workload: what fraction of
// its requests are block-granular rather than page-granular, and how
// many pages/blocks each request touches.
type rwWorkload struct {
	PercentBlks uint8  `toml:"percent_blks"`
	PageGroup   uint32 `toml:"page_group"`
	BlockGroup  uint32 `toml:"block_group"`
}

// Workload is everything needed to run one benchmark pass, mirroring
// the original workload generator's struct one-for-one (percent_writes,
// compr_min/max selecting which of the preloaded cr{k}-{k+1}.raw
// buffers a write draws from, request_count split evenly across
// thread_count goroutines).
type Workload struct {
	PercentWrites uint8  `toml:"percent_writes"`
	ComprMin      uint8  `toml:"compr_min"`
	ComprMax      uint8  `toml:"compr_max"`
	RequestCount  uint64 `toml:"request_count"`
	ThreadCount   uint   `toml:"thread_count"`

	Read  rwWorkload `toml:"read"`
	Write rwWorkload `toml:"write"`

	DataDir string `toml:"data_dir"`
}

func loadWriteData(w *Workload, writeBufSize int) ([][]byte, error) {
	if w.ComprMax > 12 || w.ComprMax <= w.ComprMin {
		return nil, fmt.Errorf("workload: compr_min/compr_max out of range")
	}
	n := w.ComprMax - w.ComprMin
	data := make([][]byte, n)
	for i := uint8(0); i < n; i++ {
		name := fmt.Sprintf("%s/cr%d-%d.raw", w.DataDir, w.ComprMin+i, w.ComprMin+i+1)
		buf, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("workload: reading %s: %w", name, err)
		}
		if len(buf) < writeBufSize {
			return nil, fmt.Errorf("workload: %s is smaller than one write buffer", name)
		}
		data[i] = buf[:writeBufSize]
	}
	return data, nil
}

// runThread is one goroutine's share of the workload: req random
// operations, each independently deciding read vs write and page- vs
// block-granular via the same percentage thresholds as the thread in
// the original generator.
func runThread(s *store.Store, w *Workload, writeData [][]byte, req uint64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	blockSize := s.BlockSize()
	pageSize := s.PageSize()

	readBufSize := int(w.Read.PageGroup) * pageSize
	if blkBuf := int(w.Read.BlockGroup) * blockSize; blkBuf > readBufSize {
		readBufSize = blkBuf
	}
	readBuf := make([]byte, readBufSize)

	for i := uint64(0); i < req; i++ {
		write := rng.Intn(100) < int(w.PercentWrites)
		if write {
			blk := rng.Intn(100) < int(w.Write.PercentBlks)
			comprIdx := rng.Intn(len(writeData))
			data := writeData[comprIdx]
			if blk {
				count := uint64(w.Write.BlockGroup)
				addr := uint64(rng.Int63()) % s.BlockCount()
				_ = s.WriteBlocks(addr, count, data[:count*uint64(blockSize)])
			} else {
				count := w.Write.PageGroup
				addr := uint32(rng.Int63()) % s.PageCount()
				_ = s.WritePages(addr, count, data[:uint32(count)*uint32(pageSize)])
			}
		} else {
			blk := rng.Intn(100) < int(w.Read.PercentBlks)
			if blk {
				count := uint64(w.Read.BlockGroup)
				addr := uint64(rng.Int63()) % s.BlockCount()
				_ = s.ReadBlocks(addr, count, readBuf[:count*uint64(blockSize)])
			} else {
				count := w.Read.PageGroup
				addr := uint32(rng.Int63()) % s.PageCount()
				_ = s.ReadPages(addr, count, readBuf[:uint32(count)*uint32(pageSize)])
			}
		}
	}
}

// runWorkload replays w against s across w.ThreadCount goroutines,
// splitting request_count as evenly as the original generator does
// (thread 0 absorbs the remainder), and returns the wall-clock duration.
func runWorkload(s *store.Store, w *Workload) (time.Duration, error) {
	if w.ThreadCount == 0 {
		return 0, fmt.Errorf("workload: thread_count must be > 0")
	}

	writeBufSize := int(w.Write.PageGroup) * s.PageSize()
	if blkBuf := int(w.Write.BlockGroup) * s.BlockSize(); blkBuf > writeBufSize {
		writeBufSize = blkBuf
	}
	writeData, err := loadWriteData(w, writeBufSize)
	if err != nil {
		return 0, err
	}

	perThread := w.RequestCount / uint64(w.ThreadCount)
	remainder := w.RequestCount % uint64(w.ThreadCount)

	var wg sync.WaitGroup
	start := time.Now()
	for id := uint(0); id < w.ThreadCount; id++ {
		req := perThread
		if id == 0 {
			req += remainder
		}
		seed := time.Now().UnixNano() + int64(id)
		wg.Add(1)
		go func(req uint64, seed int64) {
			defer wg.Done()
			runThread(s, w, writeData, req, seed)
		}(req, seed)
	}
	wg.Wait()
	return time.Since(start), nil
}

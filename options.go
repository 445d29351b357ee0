package bonsai

import (
	"github.com/pbnjay/memory"

	"github.com/cchudant/bonsai-trie/metrics"
)

const defaultHistoryCacheSize = 32

type journalConfig struct {
	metrics        metrics.Metrics
	batchSizeLimit int
	cacheSize      int
}

func defaultJournalConfig() journalConfig {
	return journalConfig{
		batchSizeLimit: defaultBatchSizeLimit(),
		cacheSize:      defaultHistoryCacheSize,
	}
}

// defaultBatchSizeLimit caps a single backing-store flush at 100 MiB, or an
// eighth of total system memory on smaller hosts.
func defaultBatchSizeLimit() int {
	limit := uint64(100 * 1024 * 1024)
	if total := memory.TotalMemory(); total > 0 && total/8 < limit {
		limit = total / 8
	}
	return int(limit)
}

// Option is a function that configures a JournalStore.
type Option func(*journalConfig)

func EnableMetrics(metrics metrics.Metrics) Option {
	return func(cfg *journalConfig) {
		cfg.metrics = metrics
	}
}

// BatchSizeLimit bounds the bytes buffered in one backing-store write batch
// before it is flushed and reused. Zero disables the chunking.
func BatchSizeLimit(limit int) Option {
	return func(cfg *journalConfig) {
		cfg.batchSizeLimit = limit
	}
}

// HistoryCacheSize sets how many decoded change batches are kept in memory.
func HistoryCacheSize(size int) Option {
	return func(cfg *journalConfig) {
		if size > 0 {
			cfg.cacheSize = size
		}
	}
}

package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cchudant/bonsai-trie/metrics"
)

var _ metrics.Metrics = (*Collector)(nil)

func NewCollector() *Collector {
	historyLength := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "journal_history_length",
		Help: "The number of committed versions currently retained in the journal",
	})
	commitRecords := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "journal_commit_records",
		Help: "The number of records flushed by the latest commit",
	})
	batchSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "journal_batch_size",
		Help: "The approximate byte size of the open change batch",
	})
	batchKeys := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "journal_batch_keys",
		Help: "The number of keys touched in the open change batch",
	})
	commitNum := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "journal_commit_total",
		Help: "The total number of commits flushed",
	})
	prunedNum := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "journal_pruned_versions",
		Help: "The number of versions removed by the latest prune",
	})
	prometheus.MustRegister(
		historyLength,
		commitRecords,
		batchSize,
		batchKeys,
		commitNum,
		prunedNum)

	return &Collector{
		historyLength: historyLength,
		commitRecords: commitRecords,
		batchSize:     batchSize,
		batchKeys:     batchKeys,
		commitNum:     commitNum,
		prunedNum:     prunedNum,
	}
}

type Collector struct {
	historyLength prometheus.Gauge
	commitRecords prometheus.Gauge
	batchSize     prometheus.Gauge
	batchKeys     prometheus.Gauge
	commitNum     prometheus.Counter
	prunedNum     prometheus.Gauge
}

func (c *Collector) HistoryLength(n int) {
	c.historyLength.Set(float64(n))
}

func (c *Collector) CommitRecords(n int) {
	c.commitRecords.Set(float64(n))
}

func (c *Collector) BatchSize(size uint64) {
	c.batchSize.Set(float64(size))
}

func (c *Collector) BatchKeys(n int) {
	c.batchKeys.Set(float64(n))
}

func (c *Collector) CommitNum() {
	c.commitNum.Inc()
}

func (c *Collector) PrunedNum(n int) {
	c.prunedNum.Set(float64(n))
}

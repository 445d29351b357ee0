package metrics

type Metrics interface {
	// The number of committed versions currently retained in the journal
	HistoryLength(int)
	// The number of records flushed by the latest commit
	CommitRecords(int)
	// The approximate byte size of the open change batch
	BatchSize(uint64)
	// The number of keys touched in the open change batch
	BatchKeys(int)
	// One more commit has been flushed
	CommitNum()
	// The number of versions removed by the latest prune
	PrunedNum(int)
}

// Copyright 2024 the bonsai-trie authors. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package bonsai

import (
	"bytes"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/cchudant/bonsai-trie/database"
	"github.com/cchudant/bonsai-trie/metrics"
)

// idQueueKey is the meta record the committed identifier queue is persisted
// under, so the journal can be reopened over an existing backing store.
var idQueueKey = []byte("changeIDQueue")

// prunePoolSize bounds the workers deleting version ranges during a prune.
const prunePoolSize = 8

// JournalStore drives a ChangeStore over a backing key-value store. It is
// the single place that honors the exactly-once commit contract: Commit
// flushes the open batch, appends the identifier and resets the batch in one
// call. It assumes a single writer; only the history read paths may run
// concurrently with each other.
type JournalStore[ID Id] struct {
	db       database.JournalDB
	store    *ChangeStore[ID]
	decodeID func([]byte) (ID, error)

	cache          *lru.Cache // id bytes -> *ChangeBatch
	metrics        metrics.Metrics
	batchSizeLimit int
	batchSize      int // approximate bytes held by the open batch
}

// NewJournalStore opens a journal over db, recovering the committed
// identifier queue if one was persisted there. decodeID rebuilds an
// identifier from its ToBytes form during that recovery.
func NewJournalStore[ID Id](db database.JournalDB, decodeID func([]byte) (ID, error), opts ...Option) (*JournalStore[ID], error) {
	cfg := defaultJournalConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cache, err := lru.New(cfg.cacheSize)
	if err != nil {
		return nil, err
	}
	journal := &JournalStore[ID]{
		db:             db,
		store:          NewChangeStore[ID](),
		decodeID:       decodeID,
		cache:          cache,
		metrics:        cfg.metrics,
		batchSizeLimit: cfg.batchSizeLimit,
	}
	if err := journal.loadIDQueue(); err != nil {
		return nil, err
	}
	return journal, nil
}

// Store exposes the underlying ChangeStore.
func (s *JournalStore[ID]) Store() *ChangeStore[ID] {
	return s.store
}

// CurrentChanges returns the open, not-yet-committed batch.
func (s *JournalStore[ID]) CurrentChanges() *ChangeBatch {
	return s.store.CurrentChanges
}

// Insert folds one trie write into the open batch.
func (s *JournalStore[ID]) Insert(key TrieKey, change Change) {
	s.store.CurrentChanges.InsertInPlace(key, change)
	s.batchSize += len(change.OldValue) + len(change.NewValue)
	if s.metrics != nil {
		s.metrics.BatchSize(uint64(s.batchSize))
		s.metrics.BatchKeys(s.store.CurrentChanges.Len())
	}
}

// Commit flushes the open batch to the backing store under id, appends id to
// the committed queue and opens a fresh batch. The id must be strictly
// higher, in byte order, than the newest committed one.
func (s *JournalStore[ID]) Commit(id ID) error {
	idBytes := id.ToBytes()
	if latest, ok := s.store.LatestID(); ok && bytes.Compare(idBytes, latest.ToBytes()) <= 0 {
		return errors.Wrapf(ErrIDTooLow, "commit id %x, latest %x", idBytes, latest.ToBytes())
	}

	records := s.store.CurrentChanges.Serialize(id)
	batch := s.db.NewBatch()
	for _, record := range records {
		if err := batch.Set(record.Key, record.Value); err != nil {
			return err
		}
		if s.batchSizeLimit > 0 && batch.ValueSize() >= s.batchSizeLimit {
			if err := batch.Write(); err != nil {
				return err
			}
			batch.Reset()
		}
	}

	s.store.IDQueue = append(s.store.IDQueue, id)
	queueBuf, err := s.encodeIDQueue()
	if err == nil {
		err = batch.Set(idQueueKey, queueBuf)
	}
	if err == nil {
		err = batch.Write()
	}
	if err != nil {
		s.store.IDQueue = s.store.IDQueue[:len(s.store.IDQueue)-1]
		return err
	}

	s.store.CurrentChanges = NewChangeBatch()
	s.batchSize = 0
	if s.metrics != nil {
		s.metrics.CommitNum()
		s.metrics.CommitRecords(len(records))
		s.metrics.HistoryLength(len(s.store.IDQueue))
		s.metrics.BatchSize(0)
		s.metrics.BatchKeys(0)
	}
	return nil
}

// ChangesAt reads back the change batch committed under id. The records are
// fetched with a prefix scan and rebuilt through DeserializeChangeBatch, so
// parse failures surface as ErrMalformedKey or ErrUnknownSideTag without
// affecting other versions.
func (s *JournalStore[ID]) ChangesAt(id ID) (*ChangeBatch, error) {
	idBytes := id.ToBytes()
	if cached, ok := s.cache.Get(string(idBytes)); ok {
		return cached.(*ChangeBatch), nil
	}
	if !s.contains(idBytes) {
		return nil, errors.Wrapf(ErrIDNotFound, "id %x", idBytes)
	}
	records, err := s.readRecords(idBytes)
	if err != nil {
		return nil, err
	}
	batch, err := DeserializeChangeBatch(id, records)
	if err != nil {
		return nil, err
	}
	s.cache.Add(string(idBytes), batch)
	return batch, nil
}

// PopCommit removes the newest committed version from the journal: its
// records are deleted, the identifier is popped off the queue and the decoded
// batch is returned so the engine can unapply it.
func (s *JournalStore[ID]) PopCommit() (ID, *ChangeBatch, error) {
	var zero ID
	latest, ok := s.store.LatestID()
	if !ok {
		return zero, nil, ErrNoCommit
	}
	batch, err := s.ChangesAt(latest)
	if err != nil {
		return zero, nil, err
	}
	idBytes := latest.ToBytes()
	if err := s.deleteVersion(idBytes); err != nil {
		return zero, nil, err
	}

	s.store.IDQueue = s.store.IDQueue[:len(s.store.IDQueue)-1]
	queueBuf, err := s.encodeIDQueue()
	if err == nil {
		err = s.db.Set(idQueueKey, queueBuf)
	}
	if err != nil {
		s.store.IDQueue = append(s.store.IDQueue, latest)
		return zero, nil, err
	}
	s.cache.Remove(string(idBytes))
	if s.metrics != nil {
		s.metrics.HistoryLength(len(s.store.IDQueue))
	}
	return latest, batch, nil
}

// Prune drops the records of every committed version strictly older than
// upTo, deleting the per-version ranges on a worker pool. It returns the
// number of versions removed.
func (s *JournalStore[ID]) Prune(upTo ID) (int, error) {
	bound := upTo.ToBytes()
	pruned := 0
	for _, id := range s.store.IDQueue {
		if bytes.Compare(id.ToBytes(), bound) >= 0 {
			break
		}
		pruned++
	}
	if pruned == 0 {
		return 0, nil
	}
	prunedIDs := s.store.IDQueue[:pruned]

	pool, err := ants.NewPool(prunePoolSize)
	if err != nil {
		return 0, err
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	for _, id := range prunedIDs {
		idBytes := id.ToBytes()
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := s.deleteVersion(idBytes); err != nil {
				setErr(err)
			}
		}); err != nil {
			wg.Done()
			setErr(err)
			break
		}
	}
	wg.Wait()
	if firstErr != nil {
		return 0, firstErr
	}

	s.store.IDQueue = append([]ID(nil), s.store.IDQueue[pruned:]...)
	queueBuf, err := s.encodeIDQueue()
	if err == nil {
		err = s.db.Set(idQueueKey, queueBuf)
	}
	if err != nil {
		return 0, err
	}
	for _, id := range prunedIDs {
		s.cache.Remove(string(id.ToBytes()))
	}
	if s.metrics != nil {
		s.metrics.PrunedNum(pruned)
		s.metrics.HistoryLength(len(s.store.IDQueue))
	}
	return pruned, nil
}

// contains reports whether id is one of the committed identifiers.
func (s *JournalStore[ID]) contains(idBytes []byte) bool {
	for _, id := range s.store.IDQueue {
		if bytes.Equal(id.ToBytes(), idBytes) {
			return true
		}
	}
	return false
}

// readRecords collects every persisted record of one version.
func (s *JournalStore[ID]) readRecords(idBytes []byte) ([]Record, error) {
	it := s.db.NewIteratorWithPrefix(recordPrefix(idBytes))
	defer it.Release()

	var records []Record
	for it.Next() {
		records = append(records, Record{Key: it.Key(), Value: it.Value()})
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return records, nil
}

// deleteVersion removes every persisted record of one version.
func (s *JournalStore[ID]) deleteVersion(idBytes []byte) error {
	it := s.db.NewIteratorWithPrefix(recordPrefix(idBytes))
	defer it.Release()

	batch := s.db.NewBatch()
	for it.Next() {
		if err := batch.Delete(it.Key()); err != nil {
			return err
		}
		if s.batchSizeLimit > 0 && batch.ValueSize() >= s.batchSizeLimit {
			if err := batch.Write(); err != nil {
				return err
			}
			batch.Reset()
		}
	}
	if err := it.Error(); err != nil {
		return err
	}
	return batch.Write()
}

func (s *JournalStore[ID]) loadIDQueue() error {
	buf, err := s.db.Get(idQueueKey)
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			return nil
		}
		return err
	}
	var encoded [][]byte
	if err := rlp.DecodeBytes(buf, &encoded); err != nil {
		return err
	}
	queue := make([]ID, 0, len(encoded))
	for _, idBytes := range encoded {
		id, err := s.decodeID(idBytes)
		if err != nil {
			return err
		}
		queue = append(queue, id)
	}
	s.store.IDQueue = queue
	return nil
}

func (s *JournalStore[ID]) encodeIDQueue() ([]byte, error) {
	encoded := make([][]byte, len(s.store.IDQueue))
	for i, id := range s.store.IDQueue {
		encoded[i] = id.ToBytes()
	}
	return rlp.EncodeToBytes(encoded)
}

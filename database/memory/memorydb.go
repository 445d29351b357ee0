package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/cchudant/bonsai-trie/database"
	"github.com/cchudant/bonsai-trie/utils"
)

var (
	_ database.JournalDB = (*MemoryDB)(nil)
	_ database.Batcher   = (*batch)(nil)
	_ database.Iterator  = (*iterator)(nil)
)

func NewMemoryDB() database.JournalDB {
	return &MemoryDB{
		db: make(map[string][]byte),
	}
}

// MemoryDB is a key-value store.
type MemoryDB struct {
	db   map[string][]byte
	lock sync.RWMutex
}

func (db *MemoryDB) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.db == nil {
		return nil, database.ErrDatabaseClosed
	}
	if entry, ok := db.db[string(key)]; ok {
		return utils.CopyBytes(entry), nil
	}
	return nil, database.ErrDatabaseNotFound
}

func (db *MemoryDB) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.db == nil {
		return false, database.ErrDatabaseClosed
	}
	_, ok := db.db[string(key)]
	return ok, nil
}

func (db *MemoryDB) Set(key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.db == nil {
		return database.ErrDatabaseClosed
	}
	db.db[string(key)] = utils.CopyBytes(value)
	return nil
}

func (db *MemoryDB) Delete(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.db == nil {
		return database.ErrDatabaseClosed
	}
	delete(db.db, string(key))
	return nil
}

func (db *MemoryDB) NewBatch() database.Batcher {
	return &batch{
		db: db,
	}
}

// NewIteratorWithPrefix walks a sorted snapshot of the keys under prefix.
// Mutations made after the call are not reflected by the iterator.
func (db *MemoryDB) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.db == nil {
		return &iterator{err: database.ErrDatabaseClosed}
	}
	var keys []string
	for key := range db.db {
		if strings.HasPrefix(key, string(prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, key := range keys {
		values[i] = utils.CopyBytes(db.db[key])
	}
	return &iterator{
		index:  -1,
		keys:   keys,
		values: values,
	}
}

func (db *MemoryDB) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	db.db = nil
	return nil
}

// keyvalue is a key-value tuple tagged with a deletion field to allow creating
// memory-database write batches.
type keyvalue struct {
	key    []byte
	value  []byte
	delete bool
}

// batch is a write-only memory batch that commits changes to its host
// database when Write is called. A batch cannot be used concurrently.
type batch struct {
	db     *MemoryDB
	writes []keyvalue
	size   int
}

// Put inserts the given value into the batch for later committing.
func (b *batch) Set(key, value []byte) error {
	b.writes = append(b.writes, keyvalue{utils.CopyBytes(key), utils.CopyBytes(value), false})
	b.size += len(value)
	return nil
}

// Delete inserts the a key removal into the batch for later committing.
func (b *batch) Delete(key []byte) error {
	b.writes = append(b.writes, keyvalue{utils.CopyBytes(key), nil, true})
	b.size += len(key)
	return nil
}

// Write flushes any accumulated data to the memory database.
func (b *batch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()

	if b.db.db == nil {
		return database.ErrDatabaseClosed
	}
	for _, keyvalue := range b.writes {
		if keyvalue.delete {
			delete(b.db.db, string(keyvalue.key))
			continue
		}
		b.db.db[string(keyvalue.key)] = keyvalue.value
	}
	return nil
}

// ValueSize retrieves the amount of data queued up for writing.
func (b *batch) ValueSize() int {
	return b.size
}

// Reset resets the batch for reuse.
func (b *batch) Reset() {
	b.writes = b.writes[:0]
	b.size = 0
}

// iterator walks a sorted in-memory snapshot of a key range.
type iterator struct {
	index  int
	keys   []string
	values [][]byte
	err    error
}

// Next moves the iterator to the next key/value pair.
func (it *iterator) Next() bool {
	if it.err != nil || it.index >= len(it.keys) {
		return false
	}
	it.index++
	return it.index < len(it.keys)
}

// Key returns the key of the current pair.
func (it *iterator) Key() []byte {
	if it.index < 0 || it.index >= len(it.keys) {
		return nil
	}
	return []byte(it.keys[it.index])
}

// Value returns the value of the current pair.
func (it *iterator) Value() []byte {
	if it.index < 0 || it.index >= len(it.values) {
		return nil
	}
	return it.values[it.index]
}

// Error returns any accumulated error.
func (it *iterator) Error() error {
	return it.err
}

// Release frees the snapshot held by the iterator.
func (it *iterator) Release() {
	it.keys, it.values = nil, nil
	it.index = 0
}

// Copyright 2024 the bonsai-trie authors. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package redis

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	stdErrors "github.com/pkg/errors"

	"github.com/cchudant/bonsai-trie/database"
	"github.com/cchudant/bonsai-trie/utils"
)

var (
	_ database.JournalDB = (*Database)(nil)
	_ database.Batcher   = (*batch)(nil)
)

// scanCount is the batch size hint passed to redis SCAN.
const scanCount = 1000

// RedisConfig collects the connection settings for both single-node and
// cluster mode. ClusterAddr being non-empty selects cluster mode.
type RedisConfig struct {
	Addr        string
	ClusterAddr []string

	Username string
	Password string

	PoolSize        int
	MinIdleConns    int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxConnAge      time.Duration
	PoolFIFO        bool
	PoolTimeout     time.Duration
	IdleTimeout     time.Duration

	MaxRedirects   int
	ReadOnly       bool
	RouteByLatency bool
	RouteRandomly  bool
}

// New returns a wrapped Redis object.
func New(config *RedisConfig, opts ...Option) (*Database, error) {
	var client RedisClient
	if len(config.ClusterAddr) > 0 {
		// cluster mode
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           config.ClusterAddr,
			PoolSize:        config.PoolSize,
			Username:        config.Username,
			Password:        config.Password,
			MaxRedirects:    config.MaxRedirects,
			ReadOnly:        config.ReadOnly,
			RouteByLatency:  config.RouteByLatency,
			RouteRandomly:   config.RouteRandomly,
			MaxRetries:      config.MaxRetries,
			MinRetryBackoff: config.MinRetryBackoff,
			MaxRetryBackoff: config.MaxRetryBackoff,
			DialTimeout:     config.DialTimeout,
			ReadTimeout:     config.ReadTimeout,
			WriteTimeout:    config.WriteTimeout,
			MinIdleConns:    config.MinIdleConns,
			MaxConnAge:      config.MaxConnAge,
			PoolFIFO:        config.PoolFIFO,
			PoolTimeout:     config.PoolTimeout,
			IdleTimeout:     config.IdleTimeout,
		})
	} else {
		// single node mode
		client = redis.NewClient(&redis.Options{
			Addr:            config.Addr,
			PoolSize:        config.PoolSize,
			Username:        config.Username,
			Password:        config.Password,
			MaxRetries:      config.MaxRetries,
			MinRetryBackoff: config.MinRetryBackoff,
			MaxRetryBackoff: config.MaxRetryBackoff,
			DialTimeout:     config.DialTimeout,
			ReadTimeout:     config.ReadTimeout,
			WriteTimeout:    config.WriteTimeout,
			MinIdleConns:    config.MinIdleConns,
			MaxConnAge:      config.MaxConnAge,
			PoolFIFO:        config.PoolFIFO,
			PoolTimeout:     config.PoolTimeout,
			IdleTimeout:     config.IdleTimeout,
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}
	db := &Database{
		db: client,
	}

	for _, opt := range opts {
		opt.Apply(db)
	}

	return db, nil
}

// NewFromExistRedisClient returns a wrapped Redis object.
func NewFromExistRedisClient(client RedisClient, opts ...Option) *Database {
	db := &Database{
		db: client,
	}
	for _, opt := range opts {
		opt.Apply(db)
	}
	return db
}

// WrapWithNamespace returns a wrapped Redis object.
// The namespace is the prefix that the datastore.
func WrapWithNamespace(db *Database, namespace string) *Database {
	return &Database{
		namespace:  []byte(namespace),
		db:         db.db,
		sharedPipe: db.sharedPipe,
	}
}

type Database struct {
	namespace  []byte
	db         RedisClient // redis client
	sharedPipe redis.Pipeliner
}

// wrapKey returns a wrapper key with namespace.
func wrapKey(namespace, key []byte) string {
	if len(namespace) > 0 {
		return utils.BytesToString(bytes.Join([][]byte{namespace, key}, []byte(":")))
	}
	return utils.BytesToString(key)
}

// unwrapKey strips the namespace prefix off a stored key.
func unwrapKey(namespace []byte, key string) string {
	if len(namespace) > 0 {
		return key[len(namespace)+1:]
	}
	return key
}

// Close flushes any pending data to disk and closes
// all io accesses to the underlying key-value store.
func (db *Database) Close() error {
	return db.db.Close()
}

// Has retrieves if a key is present in the key-value store.
func (db *Database) Has(key []byte) (bool, error) {
	dat, err := db.db.Exists(context.Background(), wrapKey(db.namespace, key)).Result()
	if err != nil {
		return false, err
	}
	return dat > 0, nil
}

// Get retrieves the given key if it's present in the key-value store.
func (db *Database) Get(key []byte) ([]byte, error) {
	dat, err := db.db.Get(context.Background(), wrapKey(db.namespace, key)).Result()
	if err != nil {
		if stdErrors.Is(redis.Nil, err) {
			return nil, database.ErrDatabaseNotFound
		}
		return nil, err
	}
	return utils.StringToBytes(dat), nil
}

// Put inserts the given value into the key-value store.
func (db *Database) Set(key []byte, value []byte) error {
	return db.db.Set(context.Background(), wrapKey(db.namespace, key), value, 0).Err()
}

// Delete removes the key from the key-value store.
func (db *Database) Delete(key []byte) error {
	return db.db.Del(context.Background(), wrapKey(db.namespace, key)).Err()
}

// NewBatch creates a write-only key-value store that buffers changes to its host
// database until a final write is called.
func (db *Database) NewBatch() database.Batcher {
	pipe := db.sharedPipe
	if pipe == nil {
		pipe = db.db.Pipeline()
	}
	return &batch{
		db:        db.db,
		namespace: db.namespace,
		b:         pipe,
	}
}

// globEscape escapes the glob metacharacters redis MATCH recognizes, so an
// arbitrary byte prefix matches literally.
func globEscape(s string) string {
	var builder strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '^', '\\':
			builder.WriteByte('\\')
		}
		builder.WriteByte(s[i])
	}
	return builder.String()
}

// NewIteratorWithPrefix scans the keys under prefix, sorts them into
// ascending byte order and fetches the values in one MGET. Redis has no
// ordered key space, so the full matching key set is materialized up front.
func (db *Database) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	ctx := context.Background()
	wrapped := wrapKey(db.namespace, prefix)
	match := globEscape(wrapped) + "*"

	var (
		keys   []string
		cursor uint64
	)
	for {
		batchKeys, next, err := db.db.Scan(ctx, cursor, match, scanCount).Result()
		if err != nil {
			return &iterator{err: err}
		}
		for _, key := range batchKeys {
			// SCAN may return duplicates across cursor pages.
			if strings.HasPrefix(key, wrapped) {
				keys = append(keys, key)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	keys = dedupSorted(keys)

	values := make([][]byte, 0, len(keys))
	if len(keys) > 0 {
		results, err := db.db.MGet(ctx, keys...).Result()
		if err != nil {
			return &iterator{err: err}
		}
		for _, result := range results {
			if s, ok := result.(string); ok {
				values = append(values, []byte(s))
			} else {
				values = append(values, nil)
			}
		}
	}

	unwrapped := make([]string, len(keys))
	for i, key := range keys {
		unwrapped[i] = unwrapKey(db.namespace, key)
	}
	return &iterator{
		index:  -1,
		keys:   unwrapped,
		values: values,
	}
}

func dedupSorted(keys []string) []string {
	out := keys[:0]
	for i, key := range keys {
		if i == 0 || key != keys[i-1] {
			out = append(out, key)
		}
	}
	return out
}

// batch is a write-only redis batch that commits changes to its host database
// when Write is called. A batch cannot be used concurrently.
type batch struct {
	namespace []byte
	db        RedisClient
	b         redis.Pipeliner
	size      int
	lock      sync.RWMutex
}

// Put inserts the given value into the batch for later committing.
func (b *batch) Set(key, value []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.b.Set(context.Background(), wrapKey(b.namespace, key), value, 0)
	b.size += len(key) + len(value)
	return nil
}

// Delete inserts the a key removal into the batch for later committing.
func (b *batch) Delete(key []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.b.Del(context.Background(), wrapKey(b.namespace, key))
	b.size += len(key)
	return nil
}

// Write flushes any accumulated data to disk.
func (b *batch) Write() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.size == 0 {
		return nil
	}
	_, err := b.b.Exec(context.Background())
	if err != nil {
		return err
	}
	b.size = 0
	return nil
}

// ValueSize retrieves the amount of data queued up for writing.
func (b *batch) ValueSize() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.size
}

// Reset resets the batch for reuse.
func (b *batch) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.b.Discard()
	b.size = 0
}

// iterator walks a sorted snapshot of redis keys fetched by SCAN.
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

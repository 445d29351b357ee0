package database

type (
	KeyValueReader interface {
		// Has retrieves if a key is present in the key-value data store.
		Has(key []byte) (bool, error)

		// Get retrieves the given key if it's present in the key-value data store.
		Get(key []byte) ([]byte, error)
	}
	KeyValueWriter interface {
		// Set inserts the given value into the key-value data store.
		Set(key []byte, value []byte) error

		// Delete removes the key from the key-value data store.
		Delete(key []byte) error
	}
	JournalDB interface {
		KeyValueReader
		KeyValueWriter
		// NewBatch creates a write-only database that buffers changes to its host db
		// until a final write is called.
		NewBatch() Batcher
		// NewIteratorWithPrefix creates an iterator over the subset of keys
		// starting with the given prefix, in ascending byte order.
		NewIteratorWithPrefix(prefix []byte) Iterator
		Close() error
	}

	Batcher interface {
		KeyValueWriter

		// Write flushes any accumulated data to disk.
		Write() error

		// Reset resets the batch for reuse.
		Reset()

		// ValueSize retrieves the amount of data queued up for writing.
		ValueSize() int
	}

	// Iterator walks a key range of the data store. The ascending byte order
	// it yields keys in is what keeps the records of one trie key adjacent
	// when scanning a version prefix. It is not safe for concurrent use.
	Iterator interface {
		// Next moves the iterator to the next key/value pair. It returns
		// false when the iterator is exhausted.
		Next() bool

		// Key returns the key of the current pair, valid until Next is called.
		Key() []byte

		// Value returns the value of the current pair, valid until Next is called.
		Value() []byte

		// Error returns any accumulated error.
		Error() error

		// Release frees associated resources. Release can be called multiple
		// times without error.
		Release()
	}
)

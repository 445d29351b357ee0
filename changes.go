// Copyright 2024 the bonsai-trie authors. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package bonsai

import (
	"bytes"
)

// Change is the coalesced before/after value pair for one trie key within
// one version. A nil side means the value is absent: a nil OldValue means the
// key did not exist before the version, a nil NewValue means the key was
// deleted during it. The zero value, with both sides absent, is inert and is
// never persisted.
type Change struct {
	OldValue []byte
	NewValue []byte
}

// Record is one persistable key-value entry produced from a ChangeBatch.
type Record struct {
	Key   []byte
	Value []byte
}

// ChangeBatch is the in-memory diff for one version: a map from trie key to
// the coalesced Change for that key. At most one Change exists per key; it is
// the net before/after pair of every write made during the version, not a log
// of individual writes.
type ChangeBatch struct {
	Changes map[TrieKey]Change
}

func NewChangeBatch() *ChangeBatch {
	return &ChangeBatch{
		Changes: make(map[TrieKey]Change),
	}
}

// InsertInPlace folds one more write into the batch. The first observed old
// value for a key is kept for the whole batch, the last written new value
// wins, so N writes to a key collapse into a single before/after pair.
func (b *ChangeBatch) InsertInPlace(key TrieKey, change Change) {
	existing, ok := b.Changes[key]
	if !ok {
		b.Changes[key] = change
		return
	}
	if existing.OldValue == nil {
		existing.OldValue = change.OldValue
	}
	existing.NewValue = change.NewValue
	b.Changes[key] = existing
}

// Len returns the number of keys touched by the batch.
func (b *ChangeBatch) Len() int {
	return len(b.Changes)
}

// Serialize flattens the batch into persistable records under the given
// commit identifier. Each present side of a change yields one record, except
// that keys whose old and new values are byte-identical are a net no-op for
// the version and yield nothing.
func (b *ChangeBatch) Serialize(id Id) []Record {
	idBytes := id.ToBytes()
	records := make([]Record, 0, 2*len(b.Changes))
	for key, change := range b.Changes {
		if change.OldValue != nil && change.NewValue != nil &&
			bytes.Equal(change.OldValue, change.NewValue) {
			continue
		}
		if change.OldValue != nil {
			records = append(records, Record{
				Key:   encodeRecordKey(idBytes, key, oldValueTag),
				Value: change.OldValue,
			})
		}
		if change.NewValue != nil {
			records = append(records, Record{
				Key:   encodeRecordKey(idBytes, key, newValueTag),
				Value: change.NewValue,
			})
		}
	}
	return records
}

// DeserializeChangeBatch rebuilds a ChangeBatch from records persisted under
// the given commit identifier. Records are grouped by their parsed trie key,
// so the result does not depend on the order the backing store returned them
// in. It fails with ErrMalformedKey when a record key is too short to carry
// the mandatory separator and tag bytes, and with ErrUnknownSideTag when the
// trailing side byte is unrecognized; both indicate corrupted or foreign data
// under the identifier prefix and leave unrelated versions readable.
func DeserializeChangeBatch(id Id, records []Record) (*ChangeBatch, error) {
	idBytes := id.ToBytes()
	batch := NewChangeBatch()
	for _, record := range records {
		key, side, err := decodeRecordKey(idBytes, record.Key)
		if err != nil {
			return nil, err
		}
		change := batch.Changes[key]
		switch side {
		case newValueTag:
			change.NewValue = record.Value
		case oldValueTag:
			change.OldValue = record.Value
		}
		batch.Changes[key] = change
	}
	return batch, nil
}

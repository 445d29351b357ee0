// Copyright 2024 the bonsai-trie authors. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package bonsai

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/cchudant/bonsai-trie/database/memory"
)

func newTestJournal(t *testing.T) *JournalStore[BasicId] {
	t.Helper()
	journal, err := NewJournalStore(memory.NewMemoryDB(), DecodeBasicId)
	require.NoError(t, err)
	return journal
}

func TestJournalCommitAndChangesAt(t *testing.T) {
	journal := newTestJournal(t)
	builder := NewBasicIdBuilder()

	updated := NewTrieKey(TrieKeyTypeFlat, []byte{1})
	created := NewTrieKey(TrieKeyTypeFlat, []byte{2})
	noop := NewTrieKey(TrieKeyTypeTrie, []byte{3})

	journal.Insert(updated, Change{OldValue: []byte("a"), NewValue: []byte("b")})
	journal.Insert(created, Change{NewValue: []byte("c")})
	journal.Insert(noop, Change{OldValue: []byte("same"), NewValue: []byte("same")})

	id := builder.NewId()
	require.NoError(t, journal.Commit(id))
	require.Equal(t, 0, journal.CurrentChanges().Len())

	batch, err := journal.ChangesAt(id)
	require.NoError(t, err)
	require.Equal(t, map[TrieKey]Change{
		updated: {OldValue: []byte("a"), NewValue: []byte("b")},
		created: {NewValue: []byte("c")},
	}, batch.Changes)

	// Cached on the read path, so a second lookup returns the same batch.
	again, err := journal.ChangesAt(id)
	require.NoError(t, err)
	require.Same(t, batch, again)
}

func TestJournalCommitIDMustIncrease(t *testing.T) {
	journal := newTestJournal(t)

	require.NoError(t, journal.Commit(BasicId(5)))
	require.ErrorIs(t, journal.Commit(BasicId(5)), ErrIDTooLow)
	require.ErrorIs(t, journal.Commit(BasicId(4)), ErrIDTooLow)
	require.NoError(t, journal.Commit(BasicId(6)))
	require.Equal(t, []BasicId{5, 6}, journal.Store().IDQueue)
}

func TestJournalChangesAtUnknownID(t *testing.T) {
	journal := newTestJournal(t)
	_, err := journal.ChangesAt(BasicId(1))
	require.ErrorIs(t, err, ErrIDNotFound)
}

func TestJournalPopCommit(t *testing.T) {
	db := memory.NewMemoryDB()
	journal, err := NewJournalStore(db, DecodeBasicId)
	require.NoError(t, err)

	key := NewTrieKey(TrieKeyTypeFlat, []byte{1})
	journal.Insert(key, Change{NewValue: []byte("v1")})
	require.NoError(t, journal.Commit(BasicId(1)))

	journal.Insert(key, Change{OldValue: []byte("v1"), NewValue: []byte("v2")})
	require.NoError(t, journal.Commit(BasicId(2)))

	id, batch, err := journal.PopCommit()
	require.NoError(t, err)
	require.Equal(t, BasicId(2), id)
	require.Equal(t, Change{OldValue: []byte("v1"), NewValue: []byte("v2")}, batch.Changes[key])
	require.Equal(t, []BasicId{1}, journal.Store().IDQueue)

	// The popped version's records are gone from the backing store.
	has, err := db.Has(encodeRecordKey(BasicId(2).ToBytes(), key, newValueTag))
	require.NoError(t, err)
	require.False(t, has)

	// The first version is untouched.
	batch, err = journal.ChangesAt(BasicId(1))
	require.NoError(t, err)
	require.Equal(t, Change{NewValue: []byte("v1")}, batch.Changes[key])

	_, _, err = journal.PopCommit()
	require.NoError(t, err)
	_, _, err = journal.PopCommit()
	require.ErrorIs(t, err, ErrNoCommit)
}

func TestJournalPrune(t *testing.T) {
	db := memory.NewMemoryDB()
	journal, err := NewJournalStore(db, DecodeBasicId)
	require.NoError(t, err)

	key := NewTrieKey(TrieKeyTypeFlat, []byte{1})
	for i := 1; i <= 4; i++ {
		journal.Insert(key, Change{NewValue: []byte{byte(i)}})
		require.NoError(t, journal.Commit(BasicId(i)))
	}

	pruned, err := journal.Prune(BasicId(3))
	require.NoError(t, err)
	require.Equal(t, 2, pruned)
	require.Equal(t, []BasicId{3, 4}, journal.Store().IDQueue)

	_, err = journal.ChangesAt(BasicId(1))
	require.ErrorIs(t, err, ErrIDNotFound)
	has, err := db.Has(encodeRecordKey(BasicId(1).ToBytes(), key, newValueTag))
	require.NoError(t, err)
	require.False(t, has)

	batch, err := journal.ChangesAt(BasicId(3))
	require.NoError(t, err)
	require.Equal(t, Change{NewValue: []byte{3}}, batch.Changes[key])

	// Nothing older than the oldest retained id: a no-op.
	pruned, err = journal.Prune(BasicId(3))
	require.NoError(t, err)
	require.Equal(t, 0, pruned)
}

func TestJournalRecoversIDQueue(t *testing.T) {
	db := memory.NewMemoryDB()
	journal, err := NewJournalStore(db, DecodeBasicId)
	require.NoError(t, err)

	key := NewTrieKey(TrieKeyTypeTrie, []byte{8})
	journal.Insert(key, Change{NewValue: []byte("x")})
	require.NoError(t, journal.Commit(BasicId(10)))
	journal.Insert(key, Change{OldValue: []byte("x"), NewValue: []byte("y")})
	require.NoError(t, journal.Commit(BasicId(11)))

	reopened, err := NewJournalStore(db, DecodeBasicId)
	require.NoError(t, err)
	require.Equal(t, []BasicId{10, 11}, reopened.Store().IDQueue)

	batch, err := reopened.ChangesAt(BasicId(11))
	require.NoError(t, err)
	require.Equal(t, Change{OldValue: []byte("x"), NewValue: []byte("y")}, batch.Changes[key])
}

func TestJournalSurfacesCorruptedRecords(t *testing.T) {
	db := memory.NewMemoryDB()
	journal, err := NewJournalStore(db, DecodeBasicId)
	require.NoError(t, err)

	key := NewTrieKey(TrieKeyTypeFlat, []byte{1})
	journal.Insert(key, Change{NewValue: []byte("ok")})
	require.NoError(t, journal.Commit(BasicId(1)))

	journal.Insert(key, Change{OldValue: []byte("ok"), NewValue: []byte("ko")})
	require.NoError(t, journal.Commit(BasicId(2)))

	// Plant a record with an unknown side tag under version 2.
	corrupt := append(recordPrefix(BasicId(2).ToBytes()), 0xde, 0xad, byte(TrieKeyTypeFlat), 0x7f)
	require.NoError(t, db.Set(corrupt, []byte("junk")))

	_, err = journal.ChangesAt(BasicId(2))
	require.True(t, errors.Is(err, ErrUnknownSideTag), "got %v", err)

	// Unrelated versions stay readable.
	batch, err := journal.ChangesAt(BasicId(1))
	require.NoError(t, err)
	require.Equal(t, Change{NewValue: []byte("ok")}, batch.Changes[key])
}

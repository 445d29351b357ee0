package dbtest

import (
	"bytes"
	"testing"

	"github.com/cchudant/bonsai-trie/database"
)

// TestDatabaseSuite runs a suite of tests against a JournalDB database
// implementation.
func TestDatabaseSuite(t *testing.T, New func() database.JournalDB) {
	t.Run("KeyValueOperations", func(t *testing.T) {
		db := New()
		defer db.Close()

		key := []byte("foo")

		if got, err := db.Has(key); err != nil {
			t.Error(err)
		} else if got {
			t.Errorf("wrong value: %t", got)
		}

		value := []byte("hello world")
		if err := db.Set(key, value); err != nil {
			t.Error(err)
		}

		if got, err := db.Has(key); err != nil {
			t.Error(err)
		} else if !got {
			t.Errorf("wrong value: %t", got)
		}

		if got, err := db.Get(key); err != nil {
			t.Error(err)
		} else if !bytes.Equal(got, value) {
			t.Errorf("wrong value: %q", got)
		}

		if err := db.Delete(key); err != nil {
			t.Error(err)
		}

		if got, err := db.Has(key); err != nil {
			t.Error(err)
		} else if got {
			t.Errorf("wrong value: %t", got)
		}
	})

	t.Run("Batch", func(t *testing.T) {
		db := New()
		defer db.Close()

		b := db.NewBatch()
		for _, k := range []string{"1", "2", "3", "4"} {
			if err := b.Set([]byte(k), nil); err != nil {
				t.Fatal(err)
			}
		}

		if has, err := db.Has([]byte("1")); err != nil {
			t.Fatal(err)
		} else if has {
			t.Error("db contains element before batch write")
		}

		if err := b.Write(); err != nil {
			t.Fatal(err)
		}

		b.Reset()

		// Mix writes and deletes in batch
		b.Set([]byte("5"), nil)
		b.Delete([]byte("1"))
		b.Set([]byte("6"), nil)
		b.Delete([]byte("3"))
		b.Set([]byte("3"), []byte("test3"))

		if err := b.Write(); err != nil {
			t.Fatal(err)
		}
		type obj struct {
			Key   []byte
			Val   []byte
			Exist bool
		}
		testObjs := []obj{
			{
				Key:   []byte("1"),
				Exist: false,
			},
			{
				Key:   []byte("2"),
				Val:   nil,
				Exist: true,
			},
			{
				Key:   []byte("3"),
				Val:   []byte("test3"),
				Exist: true,
			},
			{
				Key:   []byte("4"),
				Val:   nil,
				Exist: true,
			},
			{
				Key:   []byte("5"),
				Val:   nil,
				Exist: true,
			},
			{
				Key:   []byte("6"),
				Val:   nil,
				Exist: true,
			},
		}
		{
			for _, testObj := range testObjs {
				if testObj.Exist {
					if got, err := db.Get(testObj.Key); err != nil {
						t.Error(err)
					} else if !bytes.Equal(got, testObj.Val) {
						t.Errorf("wrong value: %q", got)
					}
				} else {
					if got, err := db.Has(testObj.Key); err != nil {
						t.Error(err)
					} else if got {
						t.Errorf("wrong value: %t", got)
					}
				}
			}
		}
	})

	t.Run("IteratorPrefixOrder", func(t *testing.T) {
		db := New()
		defer db.Close()

		// Insert out of order, with keys outside the prefix mixed in.
		entries := map[string]string{
			"\x01\x00cc":  "v3",
			"\x01\x00aa":  "v1",
			"\x01\x00bb":  "v2",
			"\x01\x00ba":  "v4",
			"\x02\x00aa":  "other",
			"\x01\x01aa":  "other",
			"unprefixed":  "other",
			"\x01\x00":    "v0",
			"\x01\x00a":   "v5",
			"\x01\x00aaa": "v6",
		}
		for k, v := range entries {
			if err := db.Set([]byte(k), []byte(v)); err != nil {
				t.Fatal(err)
			}
		}

		it := db.NewIteratorWithPrefix([]byte{0x01, 0x00})
		defer it.Release()

		var keys []string
		for it.Next() {
			if !bytes.Equal(it.Value(), []byte(entries[string(it.Key())])) {
				t.Errorf("wrong value for key %q: %q", it.Key(), it.Value())
			}
			keys = append(keys, string(it.Key()))
		}
		if err := it.Error(); err != nil {
			t.Fatal(err)
		}

		want := []string{
			"\x01\x00",
			"\x01\x00a",
			"\x01\x00aa",
			"\x01\x00aaa",
			"\x01\x00ba",
			"\x01\x00bb",
			"\x01\x00cc",
		}
		if len(keys) != len(want) {
			t.Fatalf("wrong key count: got %d, want %d", len(keys), len(want))
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Errorf("wrong key at %d: got %q, want %q", i, keys[i], want[i])
			}
		}
	})

	t.Run("IteratorEmptyRange", func(t *testing.T) {
		db := New()
		defer db.Close()

		if err := db.Set([]byte("outside"), []byte("v")); err != nil {
			t.Fatal(err)
		}

		it := db.NewIteratorWithPrefix([]byte{0xff, 0x00})
		defer it.Release()

		if it.Next() {
			t.Errorf("unexpected key: %q", it.Key())
		}
		if err := it.Error(); err != nil {
			t.Fatal(err)
		}
	})
}

package bonsai

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestEncodeRecordKey(t *testing.T) {
	idBytes := []byte{0, 0, 7}
	key := NewTrieKey(TrieKeyTypeFlat, []byte{0xaa, 0xbb})

	got := encodeRecordKey(idBytes, key, oldValueTag)
	want := []byte{0, 0, 7, keySeparator, 0xaa, 0xbb, byte(TrieKeyTypeFlat), oldValueTag}
	if !bytes.Equal(got, want) {
		t.Errorf("wrong record key: got %v, want %v", got, want)
	}
}

func TestDecodeRecordKeyRoundTrip(t *testing.T) {
	idBytes := []byte{1, 2}
	key := NewTrieKey(TrieKeyTypeTrie, []byte{3, 4, 5})

	parsed, side, err := decodeRecordKey(idBytes, encodeRecordKey(idBytes, key, newValueTag))
	if err != nil {
		t.Fatal(err)
	}
	if parsed != key {
		t.Errorf("wrong key: got %v, want %v", parsed, key)
	}
	if side != newValueTag {
		t.Errorf("wrong side: %#x", side)
	}
}

func TestDecodeRecordKeyLengthBoundary(t *testing.T) {
	idBytes := []byte{9}

	// Exactly id + separator + variant + side: an empty payload, still valid.
	key, side, err := decodeRecordKey(idBytes, []byte{9, keySeparator, byte(TrieKeyTypeTrie), oldValueTag})
	if err != nil {
		t.Fatal(err)
	}
	if len(key.Bytes()) != 0 {
		t.Errorf("payload should be empty, got %v", key.Bytes())
	}
	if side != oldValueTag {
		t.Errorf("wrong side: %#x", side)
	}

	// One byte short.
	if _, _, err := decodeRecordKey(idBytes, []byte{9, keySeparator, oldValueTag}); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("expected ErrMalformedKey, got %v", err)
	}
}

func TestRecordPrefix(t *testing.T) {
	got := recordPrefix([]byte{1, 2, 3})
	if !bytes.Equal(got, []byte{1, 2, 3, keySeparator}) {
		t.Errorf("wrong prefix: %v", got)
	}
}

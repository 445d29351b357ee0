// Copyright 2024 the bonsai-trie authors. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package bonsai

import (
	"github.com/pkg/errors"
)

// Change record key layout, format version 1:
//
//	idBytes || keySeparator || trieKeyPath || trieKeyVariant || sideTag
//
// All records of one committed version share the idBytes prefix, and the two
// records of one trie key differ only in the trailing side tag, so any store
// that iterates keys in ascending byte order keeps same-key records adjacent.
const (
	// changeFormatVersion is bumped whenever the record key layout changes,
	// so readers can refuse records written under a different layout.
	changeFormatVersion = 1

	// keySeparator splits the identifier prefix from the trie key payload.
	keySeparator byte = 0x00

	// newValueTag marks the record holding the value after the version.
	newValueTag byte = 0x00
	// oldValueTag marks the record holding the value before the version.
	oldValueTag byte = 0x01

	// keyTrailerSize is the variant byte plus the side tag.
	keyTrailerSize = 2
)

// encodeRecordKey builds the persisted key for one side of a change.
func encodeRecordKey(idBytes []byte, key TrieKey, side byte) []byte {
	buf := make([]byte, 0, len(idBytes)+1+len(key.path)+keyTrailerSize)
	buf = append(buf, idBytes...)
	buf = append(buf, keySeparator)
	buf = append(buf, key.path...)
	buf = append(buf, key.Variant(), side)
	return buf
}

// decodeRecordKey parses a persisted record key back into the trie key and
// the side tag. idBytes is the expected identifier prefix of the record.
func decodeRecordKey(idBytes, recordKey []byte) (TrieKey, byte, error) {
	if len(recordKey) < len(idBytes)+1+keyTrailerSize {
		return TrieKey{}, 0, errors.Wrapf(ErrMalformedKey,
			"key of %d bytes cannot hold a %d byte identifier, a separator and %d trailing tags",
			len(recordKey), len(idBytes), keyTrailerSize)
	}
	side := recordKey[len(recordKey)-1]
	if side != newValueTag && side != oldValueTag {
		return TrieKey{}, 0, errors.Wrapf(ErrUnknownSideTag, "side tag %#x", side)
	}
	variant := recordKey[len(recordKey)-2]
	path := recordKey[len(idBytes)+1 : len(recordKey)-keyTrailerSize]
	return TrieKeyFromVariantAndBytes(variant, path), side, nil
}

// recordPrefix returns the key prefix shared by every record of a version.
func recordPrefix(idBytes []byte) []byte {
	prefix := make([]byte, 0, len(idBytes)+1)
	prefix = append(prefix, idBytes...)
	return append(prefix, keySeparator)
}

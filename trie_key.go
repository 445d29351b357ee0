// Copyright 2024 the bonsai-trie authors. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package bonsai

// TrieKeyType discriminates the kinds of addressable entries in the trie
// key space.
type TrieKeyType byte

const (
	// TrieKeyTypeTrie addresses a node on a trie path.
	TrieKeyTypeTrie TrieKeyType = 0x00
	// TrieKeyTypeFlat addresses a flat storage entry.
	TrieKeyTypeFlat TrieKeyType = 0x01
)

// TrieKey is an opaque path into the trie: a variant tag plus raw path bytes.
// It is a comparable value type and can be used directly as a map key.
type TrieKey struct {
	typ  TrieKeyType
	path string
}

// NewTrieKey builds a TrieKey of the given kind over a copy of path.
func NewTrieKey(typ TrieKeyType, path []byte) TrieKey {
	return TrieKey{typ: typ, path: string(path)}
}

// TrieKeyFromVariantAndBytes rebuilds a TrieKey from its persisted variant
// byte and path payload.
func TrieKeyFromVariantAndBytes(variant byte, path []byte) TrieKey {
	return TrieKey{typ: TrieKeyType(variant), path: string(path)}
}

// Type returns the key kind.
func (k TrieKey) Type() TrieKeyType {
	return k.typ
}

// Variant returns the discriminating tag byte as persisted.
func (k TrieKey) Variant() byte {
	return byte(k.typ)
}

// Bytes returns a copy of the raw path payload.
func (k TrieKey) Bytes() []byte {
	return []byte(k.path)
}

// Copyright 2024 the bonsai-trie authors. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package bonsai

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Id is a commit identifier: a byte-serializable marker for one committed set
// of trie mutations. ToBytes must be deterministic and injective, and the
// byte form must order the same way as commit order, since persisted record
// keys are prefixed with it.
type Id interface {
	ToBytes() []byte
}

const basicIDSize = 8

// BasicId is a monotonically increasing uint64 commit identifier. Its byte
// form is fixed-width big-endian, so lexicographic order over the encoded
// bytes matches numeric order.
type BasicId uint64

var _ Id = (*BasicId)(nil)

func (id BasicId) ToBytes() []byte {
	buf := make([]byte, basicIDSize)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// DecodeBasicId rebuilds a BasicId from its ToBytes form.
func DecodeBasicId(buf []byte) (BasicId, error) {
	if len(buf) != basicIDSize {
		return 0, errors.Wrapf(ErrInvalidID, "expected %d bytes, got %d", basicIDSize, len(buf))
	}
	return BasicId(binary.BigEndian.Uint64(buf)), nil
}

// BasicIdBuilder hands out BasicIds in increasing order.
type BasicIdBuilder struct {
	next BasicId
}

func NewBasicIdBuilder() *BasicIdBuilder {
	return &BasicIdBuilder{}
}

// NewId allocates the next identifier.
func (b *BasicIdBuilder) NewId() BasicId {
	id := b.next
	b.next++
	return id
}

package bonsai

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestBasicIdBytesOrder(t *testing.T) {
	builder := NewBasicIdBuilder()
	prev := builder.NewId().ToBytes()
	for i := 0; i < 300; i++ {
		next := builder.NewId().ToBytes()
		if len(next) != basicIDSize {
			t.Fatalf("wrong id size: %d", len(next))
		}
		if bytes.Compare(prev, next) >= 0 {
			t.Fatalf("byte order does not follow id order: %v >= %v", prev, next)
		}
		prev = next
	}
}

func TestDecodeBasicId(t *testing.T) {
	id := BasicId(1 << 40)
	decoded, err := DecodeBasicId(id.ToBytes())
	if err != nil {
		t.Fatal(err)
	}
	if decoded != id {
		t.Errorf("wrong id: got %d, want %d", decoded, id)
	}

	if _, err := DecodeBasicId([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

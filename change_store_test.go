package bonsai

import (
	"testing"
)

func TestChangeStoreNew(t *testing.T) {
	store := NewChangeStore[BasicId]()
	if len(store.IDQueue) != 0 {
		t.Errorf("id queue should start empty, got %d entries", len(store.IDQueue))
	}
	if store.CurrentChanges == nil || store.CurrentChanges.Len() != 0 {
		t.Error("current changes should start as an empty batch")
	}

	if _, ok := store.LatestID(); ok {
		t.Error("empty store should have no latest id")
	}
	if _, ok := store.OldestID(); ok {
		t.Error("empty store should have no oldest id")
	}
}

func TestChangeStoreQueueOrder(t *testing.T) {
	store := NewChangeStore[BasicId]()
	builder := NewBasicIdBuilder()
	first := builder.NewId()
	second := builder.NewId()
	store.IDQueue = append(store.IDQueue, first, second)

	if oldest, ok := store.OldestID(); !ok || oldest != first {
		t.Errorf("wrong oldest id: %v", oldest)
	}
	if latest, ok := store.LatestID(); !ok || latest != second {
		t.Errorf("wrong latest id: %v", latest)
	}
}

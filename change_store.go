// Copyright 2024 the bonsai-trie authors. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package bonsai

// ChangeStore ties the committed version history to the single open,
// not-yet-committed batch. It holds no algorithm of its own: trie writes fold
// into CurrentChanges, and the committing engine appends the new identifier
// to IDQueue, flushes the batch and replaces it with an empty one. That
// append-and-reset step must happen exactly once per commit, never partially.
type ChangeStore[ID Id] struct {
	// IDQueue holds the committed identifiers in chronological order,
	// oldest first. Newest are appended at the back.
	IDQueue []ID

	// CurrentChanges accumulates the diff of the open version.
	CurrentChanges *ChangeBatch
}

func NewChangeStore[ID Id]() *ChangeStore[ID] {
	return &ChangeStore[ID]{
		CurrentChanges: NewChangeBatch(),
	}
}

// LatestID returns the newest committed identifier, if any.
func (s *ChangeStore[ID]) LatestID() (ID, bool) {
	if len(s.IDQueue) == 0 {
		var zero ID
		return zero, false
	}
	return s.IDQueue[len(s.IDQueue)-1], true
}

// OldestID returns the oldest retained identifier, if any.
func (s *ChangeStore[ID]) OldestID() (ID, bool) {
	if len(s.IDQueue) == 0 {
		var zero ID
		return zero, false
	}
	return s.IDQueue[0], true
}

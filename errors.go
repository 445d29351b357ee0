// Copyright 2024 the bonsai-trie authors. All Rights Reserved.
//
// Distributed under MIT license.
// See file LICENSE for detail or copy at https://opensource.org/licenses/MIT

package bonsai

import (
	"github.com/pkg/errors"
)

var (
	// ErrMalformedKey is returned when a persisted change record key is too
	// short to contain the separator and the two trailing tag bytes.
	ErrMalformedKey = errors.New("malformed change record key")

	// ErrUnknownSideTag is returned when the trailing side byte of a change
	// record key is neither the new-value nor the old-value tag.
	ErrUnknownSideTag = errors.New("unknown change side tag")

	ErrInvalidID = errors.New("invalid commit identifier")

	ErrIDTooLow = errors.New("the commit identifier is not higher than the latest committed one")

	ErrIDNotFound = errors.New("commit identifier not found in the journal")

	ErrNoCommit = errors.New("the journal holds no committed version")
)

// Package nullifier records spent notes. The set is append-only and has a
// hard capacity: once full, no further spends are possible.
package nullifier

import (
	"fmt"
	"slices"

	"github.com/whistle-protocol/shieldpool/types"
)

// DefaultCapacity is the number of nullifiers a pool accepts by default.
const DefaultCapacity = 256

var (
	ErrAlreadySpent    = fmt.Errorf("nullifier already spent")
	ErrSetFull         = fmt.Errorf("nullifier set is full")
	ErrInvalidCapacity = fmt.Errorf("invalid nullifier set capacity")
)

// Set is a capped hash set of nullifier hashes that also remembers insertion
// order.
type Set struct {
	capacity int
	index    map[types.Hash]struct{}
	ordered  []types.Hash
}

// New returns an empty set with the given capacity.
func New(capacity int) (*Set, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Set{
		capacity: capacity,
		index:    make(map[types.Hash]struct{}),
	}, nil
}

// Restore rebuilds a set from the list of spent hashes, in spend order.
func Restore(capacity int, spent []types.Hash) (*Set, error) {
	s, err := New(capacity)
	if err != nil {
		return nil, err
	}
	for _, h := range spent {
		if err := s.MarkSpent(h); err != nil {
			return nil, fmt.Errorf("restore nullifier %s: %w", h, err)
		}
	}
	return s, nil
}

func (s *Set) IsSpent(h types.Hash) bool {
	_, ok := s.index[h]
	return ok
}

// MarkSpent adds h to the set. It fails if h is already present or the set
// is at capacity, leaving the set unchanged.
func (s *Set) MarkSpent(h types.Hash) error {
	if s.IsSpent(h) {
		return ErrAlreadySpent
	}
	if len(s.ordered) >= s.capacity {
		return ErrSetFull
	}
	s.index[h] = struct{}{}
	s.ordered = append(s.ordered, h)
	return nil
}

func (s *Set) Len() int {
	return len(s.ordered)
}

func (s *Set) Capacity() int {
	return s.capacity
}

func (s *Set) Remaining() int {
	return s.capacity - len(s.ordered)
}

// List returns the spent hashes in the order they were marked.
func (s *Set) List() []types.Hash {
	return slices.Clone(s.ordered)
}

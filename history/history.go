// Package history keeps a bounded window of recently valid accumulator roots
// so that proofs built against a root that has since been superseded by a
// few insertions still verify. Once a root is overwritten it is no longer
// accepted.
package history

import (
	"fmt"
	"slices"

	"github.com/whistle-protocol/shieldpool/types"
)

// DefaultCapacity is the number of roots kept by default.
const DefaultCapacity = 30

var ErrInvalidCapacity = fmt.Errorf("invalid root history capacity")

// Ring is a fixed-size circular buffer of roots.
type Ring struct {
	roots  []types.Hash
	cursor int
}

// Snapshot is the persisted form of a Ring.
type Snapshot struct {
	Roots  []types.Hash `json:"roots" cbor:"0,keyasint"`
	Cursor int          `json:"cursor" cbor:"1,keyasint"`
}

// New returns an empty ring able to hold capacity roots.
func New(capacity int) (*Ring, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Ring{roots: make([]types.Hash, capacity)}, nil
}

// Restore rebuilds a ring from its snapshot.
func Restore(s *Snapshot) (*Ring, error) {
	if len(s.Roots) < 1 || s.Cursor < 0 || s.Cursor >= len(s.Roots) {
		return nil, fmt.Errorf("%w: %d slots, cursor %d", ErrInvalidCapacity, len(s.Roots), s.Cursor)
	}
	return &Ring{roots: slices.Clone(s.Roots), cursor: s.Cursor}, nil
}

// Push writes root at the cursor, evicting the oldest entry once the ring is
// full, and advances the cursor.
func (r *Ring) Push(root types.Hash) {
	r.roots[r.cursor] = root
	r.cursor = (r.cursor + 1) % len(r.roots)
}

// Contains scans the ring for root. The zero root marks unused slots and is
// never reported as present.
func (r *Ring) Contains(root types.Hash) bool {
	if root.IsZero() {
		return false
	}
	return slices.Contains(r.roots, root)
}

// Latest returns the most recently pushed root, zero if none.
func (r *Ring) Latest() types.Hash {
	return r.roots[(r.cursor+len(r.roots)-1)%len(r.roots)]
}

func (r *Ring) Cursor() int {
	return r.cursor
}

func (r *Ring) Capacity() int {
	return len(r.roots)
}

func (r *Ring) Clone() *Ring {
	return &Ring{roots: slices.Clone(r.roots), cursor: r.cursor}
}

func (r *Ring) Snapshot() *Snapshot {
	return &Snapshot{Roots: slices.Clone(r.roots), Cursor: r.cursor}
}

// Package merkle implements the append-only commitment accumulator: a fixed
// depth binary Merkle tree that keeps one filled subtree per level plus a
// table of empty subtree roots, so both memory and insertion cost are
// O(depth).
//
// Node combination order at every level follows bit 0 of the current index:
// an even index is a left child and hashes as H(node, sibling), an odd index
// is a right child and hashes as H(sibling, node). The index is halved on
// each level. Circuits proving membership must use the same order.
package merkle

import (
	"fmt"
	"slices"

	"github.com/whistle-protocol/shieldpool/crypto/hash"
	"github.com/whistle-protocol/shieldpool/types"
)

// MaxDepth bounds the tree so that leaf indexes fit comfortably in uint64.
const MaxDepth = 32

var (
	ErrTreeFull     = fmt.Errorf("merkle tree is full")
	ErrInvalidDepth = fmt.Errorf("invalid merkle tree depth")
	ErrBadSnapshot  = fmt.Errorf("invalid merkle tree snapshot")
)

// Tree is an incremental Merkle tree. It is not safe for concurrent use.
type Tree struct {
	hasher hash.Hasher
	depth  int
	next   uint64
	filled []types.Hash
	zeros  []types.Hash
	root   types.Hash
}

// Snapshot is the persisted form of a Tree.
type Snapshot struct {
	Depth     int          `json:"depth" cbor:"0,keyasint"`
	NextIndex uint64       `json:"nextIndex" cbor:"1,keyasint"`
	Filled    []types.Hash `json:"filledSubtrees" cbor:"2,keyasint"`
	Root      types.Hash   `json:"root" cbor:"3,keyasint"`
}

// Zeros returns the empty subtree table: zeros[0] is the empty leaf (all
// zeroes) and zeros[i] = H(zeros[i-1], zeros[i-1]). The table has depth+1
// entries, the last one being the root of an empty tree.
func Zeros(h hash.Hasher, depth int) ([]types.Hash, error) {
	if depth < 1 || depth > MaxDepth {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	zeros := make([]types.Hash, depth+1)
	for i := 1; i <= depth; i++ {
		z, err := h.Hash(zeros[i-1], zeros[i-1])
		if err != nil {
			return nil, fmt.Errorf("compute empty subtree %d: %w", i, err)
		}
		zeros[i] = z
	}
	return zeros, nil
}

// New returns an empty tree of the given depth.
func New(h hash.Hasher, depth int) (*Tree, error) {
	zeros, err := Zeros(h, depth)
	if err != nil {
		return nil, err
	}
	return &Tree{
		hasher: h,
		depth:  depth,
		filled: make([]types.Hash, depth),
		zeros:  zeros,
		root:   zeros[depth],
	}, nil
}

// Restore rebuilds a tree from its snapshot. The hasher must be the one the
// snapshot was produced with.
func Restore(h hash.Hasher, s *Snapshot) (*Tree, error) {
	t, err := New(h, s.Depth)
	if err != nil {
		return nil, err
	}
	if len(s.Filled) != s.Depth || s.NextIndex > t.Capacity() {
		return nil, fmt.Errorf("%w: %d filled subtrees, next index %d", ErrBadSnapshot, len(s.Filled), s.NextIndex)
	}
	copy(t.filled, s.Filled)
	t.next = s.NextIndex
	if s.NextIndex > 0 {
		t.root = s.Root
	}
	return t, nil
}

// Snapshot returns a copy of the tree state suitable for persistence.
func (t *Tree) Snapshot() *Snapshot {
	return &Snapshot{
		Depth:     t.depth,
		NextIndex: t.next,
		Filled:    slices.Clone(t.filled),
		Root:      t.root,
	}
}

// Clone returns an independent copy. The empty subtree table is shared since
// it never changes.
func (t *Tree) Clone() *Tree {
	c := *t
	c.filled = slices.Clone(t.filled)
	return &c
}

// Insert appends leaf at the next free index and returns that index together
// with the new root. On error the tree is left untouched.
func (t *Tree) Insert(leaf types.Hash) (uint64, types.Hash, error) {
	if t.next >= t.Capacity() {
		return 0, types.Hash{}, ErrTreeFull
	}
	index := t.next
	filled := slices.Clone(t.filled)
	cur := leaf
	idx := index
	for level := 0; level < t.depth; level++ {
		var err error
		if idx%2 == 0 {
			filled[level] = cur
			cur, err = t.hasher.Hash(cur, t.zeros[level])
		} else {
			cur, err = t.hasher.Hash(filled[level], cur)
		}
		if err != nil {
			return 0, types.Hash{}, fmt.Errorf("hash level %d: %w", level, err)
		}
		idx >>= 1
	}
	t.filled = filled
	t.root = cur
	t.next++
	return index, cur, nil
}

func (t *Tree) Root() types.Hash {
	return t.root
}

// NextIndex is the index the next inserted leaf will get, which is also the
// number of leaves inserted so far.
func (t *Tree) NextIndex() uint64 {
	return t.next
}

func (t *Tree) Depth() int {
	return t.depth
}

// Capacity is the maximum number of leaves, 2^depth.
func (t *Tree) Capacity() uint64 {
	return uint64(1) << t.depth
}

// Remaining returns how many leaves can still be inserted.
func (t *Tree) Remaining() uint64 {
	return t.Capacity() - t.next
}

// EmptyRoot returns the root of a tree with no leaves.
func (t *Tree) EmptyRoot() types.Hash {
	return t.zeros[t.depth]
}

// Hasher returns the hash function the tree was built with.
func (t *Tree) Hasher() hash.Hasher {
	return t.hasher
}

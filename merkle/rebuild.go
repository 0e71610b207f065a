package merkle

import (
	"fmt"

	"github.com/whistle-protocol/shieldpool/crypto/hash"
	"github.com/whistle-protocol/shieldpool/types"
)

// ComputeRoot rebuilds the whole tree from its leaves in one pass, padding
// with empty subtrees. It yields the same root as inserting the leaves one by
// one into an incremental Tree.
func ComputeRoot(h hash.Hasher, depth int, leaves []types.Hash) (types.Hash, error) {
	zeros, err := Zeros(h, depth)
	if err != nil {
		return types.Hash{}, err
	}
	if uint64(len(leaves)) > uint64(1)<<depth {
		return types.Hash{}, ErrTreeFull
	}
	layer := append([]types.Hash{}, leaves...)
	for level := 0; level < depth; level++ {
		if len(layer) == 0 {
			return zeros[depth], nil
		}
		if len(layer)%2 == 1 {
			layer = append(layer, zeros[level])
		}
		next := make([]types.Hash, len(layer)/2)
		for i := range next {
			if next[i], err = h.Hash(layer[2*i], layer[2*i+1]); err != nil {
				return types.Hash{}, fmt.Errorf("hash level %d: %w", level, err)
			}
		}
		layer = next
	}
	if len(layer) == 0 {
		return zeros[depth], nil
	}
	return layer[0], nil
}

// Path is the authentication path of a leaf: one sibling per level, from the
// leaf up to the child of the root.
type Path struct {
	Index    uint64       `json:"index"`
	Siblings []types.Hash `json:"siblings"`
}

// BuildPath computes the authentication path of leaves[index] in a tree of
// the given depth holding exactly those leaves.
func BuildPath(h hash.Hasher, depth int, leaves []types.Hash, index uint64) (*Path, error) {
	zeros, err := Zeros(h, depth)
	if err != nil {
		return nil, err
	}
	if uint64(len(leaves)) > uint64(1)<<depth {
		return nil, ErrTreeFull
	}
	if index >= uint64(len(leaves)) {
		return nil, fmt.Errorf("leaf %d out of range, tree has %d leaves", index, len(leaves))
	}
	path := &Path{Index: index, Siblings: make([]types.Hash, depth)}
	layer := append([]types.Hash{}, leaves...)
	idx := index
	for level := 0; level < depth; level++ {
		if len(layer)%2 == 1 {
			layer = append(layer, zeros[level])
		}
		path.Siblings[level] = layer[idx^1]
		next := make([]types.Hash, len(layer)/2)
		for i := range next {
			if next[i], err = h.Hash(layer[2*i], layer[2*i+1]); err != nil {
				return nil, fmt.Errorf("hash level %d: %w", level, err)
			}
		}
		layer = next
		idx >>= 1
	}
	return path, nil
}

// Root folds leaf up the path and returns the resulting root.
func (p *Path) Root(h hash.Hasher, leaf types.Hash) (types.Hash, error) {
	cur := leaf
	idx := p.Index
	for level, sibling := range p.Siblings {
		var err error
		if idx%2 == 0 {
			cur, err = h.Hash(cur, sibling)
		} else {
			cur, err = h.Hash(sibling, cur)
		}
		if err != nil {
			return types.Hash{}, fmt.Errorf("hash level %d: %w", level, err)
		}
		idx >>= 1
	}
	return cur, nil
}

// Bits returns the index bits of the path, least significant first, as the
// circuits consume them.
func (p *Path) Bits() []uint8 {
	bits := make([]uint8, len(p.Siblings))
	for i := range bits {
		bits[i] = uint8((p.Index >> i) & 1)
	}
	return bits
}

package storage

import (
	"errors"
	"fmt"

	"github.com/whistle-protocol/shieldpool/crypto/hash"
	"github.com/whistle-protocol/shieldpool/merkle"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/types"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// PoolSnapshot returns the last committed snapshot of a pool, or ErrNotFound.
func (s *Storage) PoolSnapshot(id string) (*pool.Snapshot, error) {
	rec := &poolRecord{}
	if err := getArtifact(s.db, poolPrefix, []byte(id), rec); err != nil {
		return nil, err
	}
	return rec.Snapshot, nil
}

// Pools returns the ids of all the stored pools.
func (s *Storage) Pools() ([]string, error) {
	var ids []string
	var decodeErr error
	err := prefixeddb.NewPrefixedReader(s.db, poolPrefix).Iterate(nil, func(_, v []byte) bool {
		rec := &poolRecord{}
		if decodeErr = decodeArtifact(v, rec); decodeErr != nil {
			return false
		}
		ids = append(ids, rec.Snapshot.ID)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pools: %w", err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode pool: %w", decodeErr)
	}
	return ids, nil
}

// Leaves returns up to limit accumulator leaves of a pool, starting at index
// from. A limit of zero returns every leaf from there on.
func (s *Storage) Leaves(id string, from uint64, limit int) ([]types.Hash, error) {
	snap, err := s.PoolSnapshot(id)
	if err != nil {
		return nil, err
	}
	if snap.Tree == nil || from >= snap.Tree.NextIndex {
		return []types.Hash{}, nil
	}
	to := snap.Tree.NextIndex
	if limit > 0 && from+uint64(limit) < to {
		to = from + uint64(limit)
	}
	r := prefixeddb.NewPrefixedReader(s.db, leafPrefix)
	leaves := make([]types.Hash, 0, to-from)
	for i := from; i < to; i++ {
		v, err := r.Get(poolKey(id, uint64Bytes(i)...))
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		leaf, err := types.BytesToHash(v)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		leaves = append(leaves, leaf)
	}
	return leaves, nil
}

// Nullifiers returns the spent nullifiers of a pool in spend order.
func (s *Storage) Nullifiers(id string) ([]types.Hash, error) {
	var list []types.Hash
	var decodeErr error
	err := prefixeddb.NewPrefixedReader(s.db, orderPrefix).Iterate(poolKey(id), func(_, v []byte) bool {
		var n types.Hash
		if n, decodeErr = types.BytesToHash(v); decodeErr != nil {
			return false
		}
		list = append(list, n)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("iterate nullifiers: %w", err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode nullifier: %w", decodeErr)
	}
	return list, nil
}

// Events returns up to limit events of a pool starting at sequence number
// from.
func (s *Storage) Events(id string, from uint64, limit int) ([]pool.Event, error) {
	var events []pool.Event
	for i := from; limit <= 0 || len(events) < limit; i++ {
		var e pool.Event
		if err := getArtifact(s.db, eventPrefix, poolKey(id, uint64Bytes(i)...), &e); errors.Is(err, ErrNotFound) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// LoadPool rebuilds a stored pool. The returned pool commits to s.
func (s *Storage) LoadPool(id string, withdraw, transfer pool.ProofVerifier, opts ...pool.Option) (*pool.Pool, error) {
	snap, err := s.PoolSnapshot(id)
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", id, err)
	}
	if err := s.checkLeaves(snap); err != nil {
		return nil, err
	}
	spent, err := s.Nullifiers(id)
	if err != nil {
		return nil, err
	}
	opts = append([]pool.Option{pool.WithCommitter(s)}, opts...)
	return pool.Restore(snap, spent, withdraw, transfer, opts...)
}

// checkLeaves recomputes the tree root from the stored leaves and compares it
// with the snapshot.
func (s *Storage) checkLeaves(snap *pool.Snapshot) error {
	if snap.Tree == nil || snap.Tree.NextIndex == 0 {
		return nil
	}
	leaves, err := s.Leaves(snap.ID, 0, 0)
	if err != nil {
		return err
	}
	h, err := hash.New(snap.Config.Hasher)
	if err != nil {
		return fmt.Errorf("load pool %s: %w", snap.ID, err)
	}
	root, err := merkle.ComputeRoot(h, snap.Tree.Depth, leaves)
	if err != nil {
		return fmt.Errorf("load pool %s: %w", snap.ID, err)
	}
	if root != snap.Tree.Root {
		return fmt.Errorf("%w: pool %s: stored leaves hash to %s, tree root is %s", pool.ErrBadSnapshot, snap.ID, root, snap.Tree.Root)
	}
	return nil
}

package storage

import (
	"errors"
	"fmt"

	"github.com/vocdoni/arbo"
	"github.com/whistle-protocol/shieldpool/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// NullifierProof proves that a nullifier is, or is not, in the audit tree of
// a pool. The audit tree is a sparse Merkle tree keyed by nullifier hash
// whose values are the spend order, so third parties can check spends
// against a single published root.
type NullifierProof struct {
	Nullifier types.Hash     `json:"nullifier"`
	Spent     bool           `json:"spent"`
	Order     uint64         `json:"order"`
	Root      types.HexBytes `json:"root"`
	Siblings  types.HexBytes `json:"siblings"`
}

func auditKey(id string) []byte {
	return append(append([]byte{}, auditPrefix...), poolKey(id)...)
}

// auditTree returns the audit tree of a pool, opening it on first use.
// Callers hold s.mu.
func (s *Storage) auditTree(id string) (*arbo.Tree, error) {
	if tree, ok := s.audit[id]; ok {
		return tree, nil
	}
	tree, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(s.db, auditKey(id)),
		MaxLevels:    auditLevels,
		HashFunction: auditHashFunction,
	})
	if err != nil {
		return nil, fmt.Errorf("open audit tree of pool %s: %w", id, err)
	}
	s.audit[id] = tree
	return tree, nil
}

// AuditRoot returns the root of the nullifier audit tree of a pool.
func (s *Storage) AuditRoot(id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, err := s.auditTree(id)
	if err != nil {
		return nil, err
	}
	return tree.Root()
}

// NullifierProof generates an inclusion or exclusion proof for n.
func (s *Storage) NullifierProof(id string, n types.Hash) (*NullifierProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, err := s.auditTree(id)
	if err != nil {
		return nil, err
	}
	root, err := tree.Root()
	if err != nil {
		return nil, err
	}
	_, value, siblings, exists, err := tree.GenProof(n.Bytes())
	if err != nil {
		return nil, fmt.Errorf("nullifier proof: %w", err)
	}
	p := &NullifierProof{
		Nullifier: n,
		Spent:     exists,
		Root:      root,
		Siblings:  siblings,
	}
	if exists {
		if p.Order, err = bytesUint64(value); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// CheckNullifierProof verifies an inclusion proof produced by
// NullifierProof.
func CheckNullifierProof(p *NullifierProof) (bool, error) {
	if !p.Spent {
		return false, errors.New("not an inclusion proof")
	}
	return arbo.CheckProof(auditHashFunction, p.Nullifier.Bytes(), uint64Bytes(p.Order), p.Root, p.Siblings)
}

// IsSpent reports whether the nullifier is recorded as spent for the pool.
func (s *Storage) IsSpent(id string, n types.Hash) (bool, error) {
	_, err := prefixeddb.NewPrefixedReader(s.db, nullifierPrefix).Get(poolKey(id, n.Bytes()...))
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// poolRecord is what is stored under the pool prefix.
type poolRecord struct {
	Snapshot *pool.Snapshot `cbor:"0,keyasint"`
	Events   uint64         `cbor:"1,keyasint"`
}

// Commit persists a pool transition and settles its movements. Either
// everything is written or nothing is. A commitment already stored for the
// pool, or a deposit whose nonce is not the depositor's next one, rejects the
// whole transition.
func (s *Storage) Commit(ctx context.Context, t *pool.Transition) error {
	return s.commit(ctx, t, nil)
}

// CommitterWithKeys returns a committer that stores keys in the same
// transaction as the pool initialization, and behaves as Commit otherwise.
func (s *Storage) CommitterWithKeys(keys *PoolKeys) pool.Committer {
	return pool.CommitterFunc(func(ctx context.Context, t *pool.Transition) error {
		if t.Op != pool.OpInitialize {
			return s.commit(ctx, t, nil)
		}
		if err := keys.check(); err != nil {
			return err
		}
		return s.commit(ctx, t, keys)
	})
}

func (s *Storage) commit(ctx context.Context, t *pool.Transition, keys *PoolKeys) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Snapshot == nil {
		return fmt.Errorf("transition without snapshot")
	}
	id := t.Snapshot.ID
	s.mu.Lock()
	defer s.mu.Unlock()

	wTx := s.db.WriteTx()
	defer wTx.Discard()

	rec := &poolRecord{}
	if err := getArtifact(wTx, poolPrefix, []byte(id), rec); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("read pool %s: %w", id, err)
	}
	if t.Op == pool.OpInitialize && rec.Snapshot != nil && rec.Snapshot.Initialized {
		return fmt.Errorf("pool %s already stored", id)
	}

	if keys != nil {
		if err := setArtifact(wTx, keysPrefix, []byte(id), keys); err != nil {
			return fmt.Errorf("store keys of pool %s: %w", id, err)
		}
	}

	for _, m := range t.Movements {
		if err := applyMovement(wTx, id, m); err != nil {
			return err
		}
	}

	leaves := prefixeddb.NewPrefixedWriteTx(wTx, leafPrefix)
	commitments := prefixeddb.NewPrefixedWriteTx(wTx, commitmentPrefix)
	for _, l := range t.Leaves {
		key := poolKey(id, l.Commitment.Bytes()...)
		if _, err := commitments.Get(key); err == nil {
			return fmt.Errorf("%w: %s", pool.ErrDuplicateCommitment, l.Commitment)
		} else if !errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("read commitment %s: %w", l.Commitment, err)
		}
		if err := commitments.Set(key, uint64Bytes(l.Index)); err != nil {
			return fmt.Errorf("store commitment %s: %w", l.Commitment, err)
		}
		if err := leaves.Set(poolKey(id, uint64Bytes(l.Index)...), l.Commitment.Bytes()); err != nil {
			return fmt.Errorf("store leaf %d: %w", l.Index, err)
		}
	}

	if len(t.Nullifiers) > 0 {
		tree, err := s.auditTree(id)
		if err != nil {
			return err
		}
		auditTx := prefixeddb.NewPrefixedWriteTx(wTx, auditKey(id))
		byHash := prefixeddb.NewPrefixedWriteTx(wTx, nullifierPrefix)
		byOrder := prefixeddb.NewPrefixedWriteTx(wTx, orderPrefix)
		seq := uint64(t.Snapshot.NullifierCount - len(t.Nullifiers))
		for _, n := range t.Nullifiers {
			if err := byHash.Set(poolKey(id, n.Bytes()...), uint64Bytes(seq)); err != nil {
				return fmt.Errorf("store nullifier: %w", err)
			}
			if err := byOrder.Set(poolKey(id, uint64Bytes(seq)...), n.Bytes()); err != nil {
				return fmt.Errorf("store nullifier: %w", err)
			}
			if err := tree.AddWithTx(auditTx, n.Bytes(), uint64Bytes(seq)); err != nil {
				return fmt.Errorf("add nullifier %s to audit tree: %w", n, err)
			}
			seq++
		}
	}

	if err := setArtifact(wTx, eventPrefix, poolKey(id, uint64Bytes(rec.Events)...), &t.Event); err != nil {
		return fmt.Errorf("store event: %w", err)
	}
	rec.Snapshot = t.Snapshot
	rec.Events++
	if err := setArtifact(wTx, poolPrefix, []byte(id), rec); err != nil {
		return fmt.Errorf("store pool %s: %w", id, err)
	}
	if err := wTx.Commit(); err != nil {
		return fmt.Errorf("commit pool %s: %w", id, err)
	}
	log.Debugw("transition stored", "pool", id, "op", string(t.Op), "leaves", len(t.Leaves), "nullifiers", len(t.Nullifiers))
	return nil
}

func applyMovement(wTx db.WriteTx, id string, m pool.Movement) error {
	account := prefixeddb.NewPrefixedWriteTx(wTx, balancePrefix)
	vault := prefixeddb.NewPrefixedWriteTx(wTx, vaultPrefix)
	switch m.Direction {
	case pool.IntoPool:
		if err := bumpNonce(wTx, m.Account, m.Nonce); err != nil {
			return err
		}
		if err := debit(account, m.Account.Bytes(), m.Amount); err != nil {
			return fmt.Errorf("debit %s: %w", m.Account, err)
		}
		return credit(vault, []byte(id), m.Amount)
	case pool.OutOfPool:
		if err := debit(vault, []byte(id), m.Amount); err != nil {
			return fmt.Errorf("debit vault %s: %w", id, err)
		}
		return credit(account, m.Account.Bytes(), m.Amount)
	default:
		return fmt.Errorf("unknown movement direction %d", m.Direction)
	}
}

// Fund credits amount to an account. It is how value enters the ledger
// before it can be shielded.
func (s *Storage) Fund(account common.Address, amount uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	balances := prefixeddb.NewPrefixedWriteTx(wTx, balancePrefix)
	if err := credit(balances, account.Bytes(), amount); err != nil {
		return 0, err
	}
	balance, err := readBalance(balances, account.Bytes())
	if err != nil {
		return 0, err
	}
	return balance, wTx.Commit()
}

// bumpNonce accepts nonce only if it is the next deposit nonce of account,
// and advances it.
func bumpNonce(wTx db.WriteTx, account common.Address, nonce uint64) error {
	nonces := prefixeddb.NewPrefixedWriteTx(wTx, noncePrefix)
	next, err := readBalance(nonces, account.Bytes())
	if err != nil {
		return err
	}
	if nonce != next {
		return fmt.Errorf("%w: %s sent %d, next is %d", ErrInvalidNonce, account, nonce, next)
	}
	return nonces.Set(account.Bytes(), uint64Bytes(next+1))
}

// Nonce returns the nonce the next deposit of account must carry.
func (s *Storage) Nonce(account common.Address) (uint64, error) {
	return readBalance(prefixeddb.NewPrefixedReader(s.db, noncePrefix), account.Bytes())
}

// HasCommitment reports whether commitment is a leaf of the pool, and its
// index.
func (s *Storage) HasCommitment(id string, commitment types.Hash) (uint64, bool, error) {
	v, err := prefixeddb.NewPrefixedReader(s.db, commitmentPrefix).Get(poolKey(id, commitment.Bytes()...))
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	index, err := bytesUint64(v)
	return index, err == nil, err
}

// Balance returns the ledger balance of an account.
func (s *Storage) Balance(account common.Address) (uint64, error) {
	return readBalance(prefixeddb.NewPrefixedReader(s.db, balancePrefix), account.Bytes())
}

// VaultBalance returns the value held in custody by a pool.
func (s *Storage) VaultBalance(id string) (uint64, error) {
	return readBalance(prefixeddb.NewPrefixedReader(s.db, vaultPrefix), []byte(id))
}

func readBalance(r db.Reader, key []byte) (uint64, error) {
	data, err := r.Get(key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bytesUint64(data)
}

func credit(wTx db.WriteTx, key []byte, amount uint64) error {
	balance, err := readBalance(wTx, key)
	if err != nil {
		return err
	}
	if balance+amount < balance {
		return ErrBalanceOverflow
	}
	return wTx.Set(key, uint64Bytes(balance+amount))
}

func debit(wTx db.WriteTx, key []byte, amount uint64) error {
	balance, err := readBalance(wTx, key)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, balance, amount)
	}
	return wTx.Set(key, uint64Bytes(balance-amount))
}

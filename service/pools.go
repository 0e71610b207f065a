package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/whistle-protocol/shieldpool/crypto/ecc/curves"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/storage"
	"github.com/whistle-protocol/shieldpool/verifier"
)

// Pools is the registry of the pools served by the node. Every pool it holds
// commits its transitions to the same storage.
type Pools struct {
	storage *storage.Storage
	opts    []pool.Option

	mu    sync.RWMutex
	pools map[string]*pool.Pool
}

// NewPools returns an empty registry. The options are applied to every pool
// it creates or loads.
func NewPools(stg *storage.Storage, opts ...pool.Option) *Pools {
	return &Pools{
		storage: stg,
		opts:    opts,
		pools:   make(map[string]*pool.Pool),
	}
}

// NewVerifiers builds the withdraw and transfer verifiers described by keys.
func NewVerifiers(keys *storage.PoolKeys) (withdraw, transfer *verifier.Verifier, err error) {
	engine, err := curves.New(keys.Engine)
	if err != nil {
		return nil, nil, err
	}
	var opts []verifier.Option
	if keys.VerifierCache > 0 {
		opts = append(opts, verifier.WithCache(keys.VerifierCache))
	}
	if withdraw, err = verifier.New(engine, keys.Withdraw, opts...); err != nil {
		return nil, nil, fmt.Errorf("withdraw verifier: %w", err)
	}
	if transfer, err = verifier.New(engine, keys.Transfer, opts...); err != nil {
		return nil, nil, fmt.Errorf("transfer verifier: %w", err)
	}
	return withdraw, transfer, nil
}

// Create creates, initializes and registers a new pool. It fails with
// storage.ErrPoolExists if the id is taken.
func (ps *Pools) Create(ctx context.Context, id string, cfg pool.Config, keys *storage.PoolKeys) (*pool.Pool, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, ok := ps.pools[id]; ok {
		return nil, storage.ErrPoolExists
	}
	if _, err := ps.storage.PoolSnapshot(id); err == nil {
		return nil, storage.ErrPoolExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	withdraw, transfer, err := NewVerifiers(keys)
	if err != nil {
		return nil, err
	}
	// the keys are stored by the initialize commit, or not at all
	opts := append([]pool.Option{pool.WithCommitter(ps.storage.CommitterWithKeys(keys))}, ps.opts...)
	p, err := pool.New(id, cfg, withdraw, transfer, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.Initialize(ctx, cfg.Depth); err != nil {
		return nil, err
	}
	ps.pools[id] = p
	log.Infow("pool created", "pool", id, "depth", cfg.Depth, "engine", keys.Engine)
	return p, nil
}

// LoadAll restores every pool found in storage that is not registered yet,
// and returns how many were loaded.
func (ps *Pools) LoadAll() (int, error) {
	ids, err := ps.storage.Pools()
	if err != nil {
		return 0, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	loaded := 0
	for _, id := range ids {
		if _, ok := ps.pools[id]; ok {
			continue
		}
		keys, err := ps.storage.PoolKeys(id)
		if err != nil {
			return loaded, fmt.Errorf("keys of pool %s: %w", id, err)
		}
		withdraw, transfer, err := NewVerifiers(keys)
		if err != nil {
			return loaded, fmt.Errorf("pool %s: %w", id, err)
		}
		p, err := ps.storage.LoadPool(id, withdraw, transfer, ps.opts...)
		if err != nil {
			return loaded, err
		}
		ps.pools[id] = p
		loaded++
		st := p.State()
		log.Infow("pool loaded", "pool", id, "leaves", st.NextIndex, "nullifiers", st.NullifierCount)
	}
	return loaded, nil
}

// Pool returns a registered pool.
func (ps *Pools) Pool(id string) (*pool.Pool, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.pools[id]
	return p, ok
}

// IDs returns the sorted ids of the registered pools.
func (ps *Pools) IDs() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	ids := make([]string, 0, len(ps.pools))
	for id := range ps.pools {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

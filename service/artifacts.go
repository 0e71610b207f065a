package service

import (
	"context"
	"fmt"
	"time"

	"github.com/whistle-protocol/shieldpool/circuits"
	"github.com/whistle-protocol/shieldpool/config"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/storage"
	"github.com/whistle-protocol/shieldpool/verifier"
	"golang.org/x/sync/errgroup"
)

// LoadPoolKeys loads, downloading them if needed, the verifying keys of a
// configured pool concurrently.
func LoadPoolKeys(ctx context.Context, pc *config.PoolConfig, timeout time.Duration) (*storage.PoolKeys, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	keys := &storage.PoolKeys{Engine: pc.Engine, VerifierCache: pc.VerifierCache}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vk, err := circuits.LoadVerifyingKey(ctx, &pc.WithdrawKey.Artifact, pc.WithdrawKey.Format)
		if err != nil {
			return fmt.Errorf("withdraw key: %w", err)
		}
		keys.Withdraw = vk
		return nil
	})
	g.Go(func() error {
		vk, err := circuits.LoadVerifyingKey(ctx, &pc.TransferKey.Artifact, pc.TransferKey.Format)
		if err != nil {
			return fmt.Errorf("transfer key: %w", err)
		}
		keys.Transfer = vk
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if n := keys.Withdraw.NumPublicInputs(); n != verifier.WithdrawInputCount {
		return nil, fmt.Errorf("withdraw key takes %d public inputs, want %d", n, verifier.WithdrawInputCount)
	}
	if n := keys.Transfer.NumPublicInputs(); n != verifier.TransferInputCount {
		return nil, fmt.Errorf("transfer key takes %d public inputs, want %d", n, verifier.TransferInputCount)
	}
	return keys, nil
}

// SetupPools restores the stored pools and creates the configured ones that
// do not exist yet. Configured parameters of existing pools are ignored.
func SetupPools(ctx context.Context, ps *Pools, cfgs []config.PoolConfig, timeout time.Duration) error {
	n, err := ps.LoadAll()
	if err != nil {
		return err
	}
	log.Infow("stored pools loaded", "count", n)
	for i := range cfgs {
		pc := &cfgs[i]
		if _, ok := ps.Pool(pc.ID); ok {
			continue
		}
		keys, err := LoadPoolKeys(ctx, pc, timeout)
		if err != nil {
			return fmt.Errorf("pool %s: %w", pc.ID, err)
		}
		if _, err := ps.Create(ctx, pc.ID, pc.Config, keys); err != nil {
			return fmt.Errorf("pool %s: %w", pc.ID, err)
		}
	}
	return nil
}

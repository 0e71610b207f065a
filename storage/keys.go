package storage

import (
	"fmt"

	"github.com/whistle-protocol/shieldpool/verifier"
)

// PoolKeys are the verifying keys a pool checks proofs with, and how its
// verifiers are built. They are stored alongside the pool so it can be
// restored without its original configuration.
type PoolKeys struct {
	Engine        string                 `cbor:"0,keyasint"`
	VerifierCache int                    `cbor:"1,keyasint"`
	Withdraw      *verifier.VerifyingKey `cbor:"2,keyasint"`
	Transfer      *verifier.VerifyingKey `cbor:"3,keyasint"`
}

func (k *PoolKeys) check() error {
	if k == nil || k.Withdraw == nil || k.Transfer == nil {
		return fmt.Errorf("missing verifying keys")
	}
	return nil
}

// PoolKeys loads the verifying keys of a pool, or ErrNotFound.
func (s *Storage) PoolKeys(id string) (*PoolKeys, error) {
	k := &PoolKeys{}
	if err := getArtifact(s.db, keysPrefix, []byte(id), k); err != nil {
		return nil, err
	}
	return k, nil
}

// Package testutil compiles the reference circuits, runs a throwaway Groth16
// setup and produces real proofs for tests. The setup is insecure by
// construction (the toxic waste is known to the process) and must never back
// a deployed pool.
package testutil

import (
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/whistle-protocol/shieldpool/circuits/transfer"
	"github.com/whistle-protocol/shieldpool/circuits/withdraw"
	"github.com/whistle-protocol/shieldpool/verifier"
)

// Keys bundles a compiled circuit with its proving and verifying keys.
type Keys struct {
	CCS constraint.ConstraintSystem
	PK  groth16.ProvingKey
	VK  groth16.VerifyingKey
}

// Setup compiles placeholder over BN254 and runs a Groth16 setup.
func Setup(placeholder frontend.Circuit) (*Keys, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, placeholder)
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}
	return &Keys{CCS: ccs, PK: pk, VK: vk}, nil
}

// Prove generates a proof for the assignment and converts it to the pool
// encoding.
func (k *Keys) Prove(assignment frontend.Circuit) (*verifier.Proof, error) {
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("build witness: %w", err)
	}
	proof, err := groth16.Prove(k.CCS, k.PK, w)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}
	return verifier.FromGnarkProof(proof)
}

// VerifyingKey converts the gnark verifying key to the pool encoding.
func (k *Keys) VerifyingKey() (*verifier.VerifyingKey, error) {
	return verifier.FromGnarkVerifyingKey(k.VK)
}

var (
	keysMu    sync.Mutex
	keysCache = map[string]*Keys{}
)

func cached(name string, placeholder func() frontend.Circuit) (*Keys, error) {
	keysMu.Lock()
	defer keysMu.Unlock()
	if k, ok := keysCache[name]; ok {
		return k, nil
	}
	k, err := Setup(placeholder())
	if err != nil {
		return nil, err
	}
	keysCache[name] = k
	return k, nil
}

// WithdrawKeys returns the withdraw circuit keys for a tree depth, running
// the setup only once per test binary.
func WithdrawKeys(depth int) (*Keys, error) {
	return cached(fmt.Sprintf("withdraw-%d", depth), func() frontend.Circuit {
		return withdraw.Placeholder(depth)
	})
}

// TransferKeys returns the transfer circuit keys for a tree depth.
func TransferKeys(depth int) (*Keys, error) {
	return cached(fmt.Sprintf("transfer-%d", depth), func() frontend.Circuit {
		return transfer.Placeholder(depth)
	})
}

// Package poseidon implements the two-to-one hash with the circom-compatible
// Poseidon permutation over BN254.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/whistle-protocol/shieldpool/types"
)

type Hasher struct{}

func (Hasher) Name() string { return "poseidon" }

func (Hasher) Hash(left, right types.Hash) (types.Hash, error) {
	res, err := poseidon.Hash([]*big.Int{left.BigInt(), right.BigInt()})
	if err != nil {
		return types.Hash{}, fmt.Errorf("poseidon: %w", err)
	}
	return types.BigToHash(res)
}

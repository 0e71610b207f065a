// Package keccak implements the two-to-one hash as keccak256(left ‖ right)
// reduced modulo the BN254 scalar field, so every digest is a valid leaf and
// public input. The reduction makes its roots differ from a raw keccak tree.
// It is not circuit friendly.
package keccak

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/whistle-protocol/shieldpool/crypto"
	"github.com/whistle-protocol/shieldpool/types"
)

type Hasher struct{}

func (Hasher) Name() string { return "keccak256" }

func (Hasher) Hash(left, right types.Hash) (types.Hash, error) {
	if !crypto.IsCanonical(left) || !crypto.IsCanonical(right) {
		return types.Hash{}, fmt.Errorf("keccak256: input out of field")
	}
	return crypto.ReduceToField(ethcrypto.Keccak256(left[:], right[:])), nil
}

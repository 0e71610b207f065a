// Package mimc implements the two-to-one hash with MiMC over the BN254 scalar
// field. It is bit-compatible with gnark's std/hash/mimc gadget.
package mimc

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/whistle-protocol/shieldpool/crypto"
	"github.com/whistle-protocol/shieldpool/types"
)

type Hasher struct{}

func (Hasher) Name() string { return "mimc" }

func (Hasher) Hash(left, right types.Hash) (types.Hash, error) {
	var out types.Hash
	if !crypto.IsCanonical(left) || !crypto.IsCanonical(right) {
		return out, fmt.Errorf("mimc: input out of field")
	}
	h := mimc.NewMiMC()
	if _, err := h.Write(left[:]); err != nil {
		return out, fmt.Errorf("mimc: %w", err)
	}
	if _, err := h.Write(right[:]); err != nil {
		return out, fmt.Errorf("mimc: %w", err)
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}

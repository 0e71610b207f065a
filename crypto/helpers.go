package crypto

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/whistle-protocol/shieldpool/types"
)

// ScalarField is the BN254 scalar field modulus. Every commitment, nullifier
// hash, tree node and public input lives in this field.
var ScalarField = fr.Modulus()

// IsCanonical reports whether h encodes an element strictly lower than the
// scalar field modulus. Non-canonical encodings would alias a different byte
// string to the same field element, so they are rejected everywhere.
func IsCanonical(h types.Hash) bool {
	return h.BigInt().Cmp(ScalarField) < 0
}

// ReduceToField maps arbitrary bytes to a field element by interpreting them
// as a big-endian integer modulo the scalar field.
func ReduceToField(b []byte) types.Hash {
	reduced := new(big.Int).Mod(new(big.Int).SetBytes(b), ScalarField)
	h, _ := types.BigToHash(reduced)
	return h
}

package circuits

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// AmountBits bounds every note amount to an unsigned 64-bit value.
const AmountBits = 64

// Hash2 is the in-circuit two-to-one MiMC hash.
func Hash2(api frontend.API, left, right frontend.Variable) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, fmt.Errorf("init mimc: %w", err)
	}
	h.Write(left, right)
	return h.Sum(), nil
}

// NoteCommitment computes H(H(secret, seed), amount).
func NoteCommitment(api frontend.API, secret, seed, amount frontend.Variable) (frontend.Variable, error) {
	inner, err := Hash2(api, secret, seed)
	if err != nil {
		return nil, err
	}
	return Hash2(api, inner, amount)
}

// NoteNullifier computes H(seed, seed).
func NoteNullifier(api frontend.API, seed frontend.Variable) (frontend.Variable, error) {
	return Hash2(api, seed, seed)
}

// MerkleRoot folds leaf up an authentication path. Index bits are least
// significant first: a zero bit puts the running node on the left.
func MerkleRoot(api frontend.API, leaf frontend.Variable, siblings, bits []frontend.Variable) (frontend.Variable, error) {
	if len(siblings) != len(bits) {
		return nil, fmt.Errorf("%d siblings but %d index bits", len(siblings), len(bits))
	}
	cur := leaf
	for i := range siblings {
		api.AssertIsBoolean(bits[i])
		left := api.Select(bits[i], siblings[i], cur)
		right := api.Select(bits[i], cur, siblings[i])
		var err error
		if cur, err = Hash2(api, left, right); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// Enabled returns 1 if v is not zero and 0 otherwise. Zero public values
// mark absent nullifiers and commitments.
func Enabled(api frontend.API, v frontend.Variable) frontend.Variable {
	return api.Sub(1, api.IsZero(v))
}

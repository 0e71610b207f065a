// Package transfer defines the reference circuit for private transfers.
package transfer

import (
	"github.com/consensys/gnark/frontend"
	"github.com/whistle-protocol/shieldpool/circuits"
)

// Slots is the number of input and output notes of a transfer.
const Slots = 2

// Circuit spends up to two notes committed under Root and creates up to two
// new ones holding the same total value. A zero nullifier or commitment
// disables its slot.
type Circuit struct {
	Root        frontend.Variable        `gnark:",public"`
	Nullifiers  [Slots]frontend.Variable `gnark:",public"`
	Commitments [Slots]frontend.Variable `gnark:",public"`

	InSecret       [Slots]frontend.Variable
	InSeed         [Slots]frontend.Variable
	InAmount       [Slots]frontend.Variable
	InPathElements [Slots][]frontend.Variable
	InPathIndices  [Slots][]frontend.Variable

	OutSecret [Slots]frontend.Variable
	OutSeed   [Slots]frontend.Variable
	OutAmount [Slots]frontend.Variable
}

// Placeholder returns an empty circuit for a tree of the given depth.
func Placeholder(depth int) *Circuit {
	c := &Circuit{}
	for i := 0; i < Slots; i++ {
		c.InPathElements[i] = make([]frontend.Variable, depth)
		c.InPathIndices[i] = make([]frontend.Variable, depth)
	}
	return c
}

func (c *Circuit) Define(api frontend.API) error {
	var totalIn, totalOut frontend.Variable = 0, 0
	for i := 0; i < Slots; i++ {
		enabled := circuits.Enabled(api, c.Nullifiers[i])
		commitment, err := circuits.NoteCommitment(api, c.InSecret[i], c.InSeed[i], c.InAmount[i])
		if err != nil {
			return err
		}
		root, err := circuits.MerkleRoot(api, commitment, c.InPathElements[i], c.InPathIndices[i])
		if err != nil {
			return err
		}
		api.AssertIsEqual(api.Mul(enabled, api.Sub(root, c.Root)), 0)
		nullifier, err := circuits.NoteNullifier(api, c.InSeed[i])
		if err != nil {
			return err
		}
		api.AssertIsEqual(api.Mul(enabled, api.Sub(nullifier, c.Nullifiers[i])), 0)
		api.ToBinary(c.InAmount[i], circuits.AmountBits)
		totalIn = api.Add(totalIn, api.Mul(enabled, c.InAmount[i]))
	}
	for i := 0; i < Slots; i++ {
		enabled := circuits.Enabled(api, c.Commitments[i])
		commitment, err := circuits.NoteCommitment(api, c.OutSecret[i], c.OutSeed[i], c.OutAmount[i])
		if err != nil {
			return err
		}
		api.AssertIsEqual(api.Mul(enabled, api.Sub(commitment, c.Commitments[i])), 0)
		api.ToBinary(c.OutAmount[i], circuits.AmountBits)
		totalOut = api.Add(totalOut, api.Mul(enabled, c.OutAmount[i]))
	}
	api.AssertIsEqual(totalIn, totalOut)
	return nil
}

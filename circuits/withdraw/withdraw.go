// Package withdraw defines the reference circuit for unshielding a note.
package withdraw

import (
	"github.com/consensys/gnark/frontend"
	"github.com/whistle-protocol/shieldpool/circuits"
)

// Circuit proves that a note of NoteAmount is committed in the tree under
// Root and that its nullifier is Nullifier. Amount leaves the pool (Fee of
// it to the relayer) and the rest is re-committed as Change, which must be
// zero when nothing is left.
type Circuit struct {
	// public inputs, in the order the pool binds them
	Root      frontend.Variable `gnark:",public"`
	Nullifier frontend.Variable `gnark:",public"`
	Recipient frontend.Variable `gnark:",public"`
	Amount    frontend.Variable `gnark:",public"`
	Fee       frontend.Variable `gnark:",public"`
	Change    frontend.Variable `gnark:",public"`

	Secret       frontend.Variable
	Seed         frontend.Variable
	NoteAmount   frontend.Variable
	PathElements []frontend.Variable
	PathIndices  []frontend.Variable
	ChangeSecret frontend.Variable
	ChangeSeed   frontend.Variable
}

// Placeholder returns an empty circuit for a tree of the given depth.
func Placeholder(depth int) *Circuit {
	return &Circuit{
		PathElements: make([]frontend.Variable, depth),
		PathIndices:  make([]frontend.Variable, depth),
	}
}

func (c *Circuit) Define(api frontend.API) error {
	commitment, err := circuits.NoteCommitment(api, c.Secret, c.Seed, c.NoteAmount)
	if err != nil {
		return err
	}
	root, err := circuits.MerkleRoot(api, commitment, c.PathElements, c.PathIndices)
	if err != nil {
		return err
	}
	api.AssertIsEqual(root, c.Root)

	nullifier, err := circuits.NoteNullifier(api, c.Seed)
	if err != nil {
		return err
	}
	api.AssertIsEqual(nullifier, c.Nullifier)

	api.AssertIsDifferent(c.Recipient, 0)
	api.ToBinary(c.NoteAmount, circuits.AmountBits)
	api.ToBinary(c.Amount, circuits.AmountBits)
	api.AssertIsLessOrEqual(c.Amount, c.NoteAmount)
	api.AssertIsLessOrEqual(c.Fee, c.Amount)

	changeAmount := api.Sub(c.NoteAmount, c.Amount)
	changeCommitment, err := circuits.NoteCommitment(api, c.ChangeSecret, c.ChangeSeed, changeAmount)
	if err != nil {
		return err
	}
	expected := api.Select(circuits.Enabled(api, changeAmount), changeCommitment, 0)
	api.AssertIsEqual(c.Change, expected)
	return nil
}

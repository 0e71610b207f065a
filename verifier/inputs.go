package verifier

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/whistle-protocol/shieldpool/types"
)

const (
	// WithdrawInputCount is the number of public inputs of a withdraw proof.
	WithdrawInputCount = 6
	// TransferInputCount is the number of public inputs of a transfer proof.
	TransferInputCount = 5
)

// WithdrawInputs is the statement a withdraw proof attests to. Binding the
// recipient, amount and fee makes the proof useless to anyone rewriting
// them.
type WithdrawInputs struct {
	Root      types.Hash
	Nullifier types.Hash
	Recipient common.Address
	Amount    uint64
	Fee       uint64
	Change    types.Hash // zero when there is no change note
}

// Vector returns [root, nullifier, recipient, amount, fee, change].
func (w *WithdrawInputs) Vector() []types.Hash {
	return []types.Hash{
		w.Root,
		w.Nullifier,
		types.AddressToHash(w.Recipient),
		types.Uint64ToHash(w.Amount),
		types.Uint64ToHash(w.Fee),
		w.Change,
	}
}

// TransferInputs is the statement a private transfer proof attests to.
// Absent nullifiers and commitments are zero.
type TransferInputs struct {
	Root        types.Hash
	Nullifiers  [2]types.Hash
	Commitments [2]types.Hash
}

// Vector returns [root, nullifier0, nullifier1, commitment0, commitment1].
func (t *TransferInputs) Vector() []types.Hash {
	return []types.Hash{
		t.Root,
		t.Nullifiers[0],
		t.Nullifiers[1],
		t.Commitments[0],
		t.Commitments[1],
	}
}

package testutil

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/ethereum/go-ethereum/common"
	"github.com/whistle-protocol/shieldpool/circuits"
	"github.com/whistle-protocol/shieldpool/circuits/transfer"
	"github.com/whistle-protocol/shieldpool/circuits/withdraw"
	"github.com/whistle-protocol/shieldpool/crypto/hash"
	"github.com/whistle-protocol/shieldpool/merkle"
	"github.com/whistle-protocol/shieldpool/types"
	"github.com/whistle-protocol/shieldpool/verifier"
)

// WithdrawRequest describes the withdraw proof a wallet would build. Leaves
// is the accumulator content the proof is built against and Index the
// position of Note in it. Change, if not nil, must hold Note.Amount-Amount.
type WithdrawRequest struct {
	Depth     int
	Leaves    []types.Hash
	Index     uint64
	Note      *circuits.Note
	Recipient common.Address
	Amount    uint64
	Fee       uint64
	Change    *circuits.Note
}

// WithdrawAssignment builds the circuit assignment and the public inputs the
// pool will check the proof against.
func WithdrawAssignment(h hash.Hasher, req *WithdrawRequest) (*withdraw.Circuit, *verifier.WithdrawInputs, error) {
	root, err := merkle.ComputeRoot(h, req.Depth, req.Leaves)
	if err != nil {
		return nil, nil, err
	}
	path, err := merkle.BuildPath(h, req.Depth, req.Leaves, req.Index)
	if err != nil {
		return nil, nil, err
	}
	nullifier, err := req.Note.Nullifier(h)
	if err != nil {
		return nil, nil, err
	}
	inputs := &verifier.WithdrawInputs{
		Root:      root,
		Nullifier: nullifier,
		Recipient: req.Recipient,
		Amount:    req.Amount,
		Fee:       req.Fee,
	}
	changeSecret, changeSeed := types.ZeroHash, types.ZeroHash
	if req.Change != nil {
		if inputs.Change, err = req.Change.Commitment(h); err != nil {
			return nil, nil, err
		}
		changeSecret, changeSeed = req.Change.Secret, req.Change.Seed
	}
	return &withdraw.Circuit{
		Root:         root.BigInt(),
		Nullifier:    nullifier.BigInt(),
		Recipient:    types.AddressToHash(req.Recipient).BigInt(),
		Amount:       req.Amount,
		Fee:          req.Fee,
		Change:       inputs.Change.BigInt(),
		Secret:       req.Note.Secret.BigInt(),
		Seed:         req.Note.Seed.BigInt(),
		NoteAmount:   req.Note.Amount,
		PathElements: hashVars(path.Siblings),
		PathIndices:  bitVars(path.Bits()),
		ChangeSecret: changeSecret.BigInt(),
		ChangeSeed:   changeSeed.BigInt(),
	}, inputs, nil
}

// ProveWithdraw builds the assignment and proves it.
func ProveWithdraw(h hash.Hasher, keys *Keys, req *WithdrawRequest) (*verifier.Proof, *verifier.WithdrawInputs, error) {
	assignment, inputs, err := WithdrawAssignment(h, req)
	if err != nil {
		return nil, nil, err
	}
	proof, err := keys.Prove(assignment)
	if err != nil {
		return nil, nil, err
	}
	return proof, inputs, nil
}

// TransferInput is a note being spent and its leaf index.
type TransferInput struct {
	Note  *circuits.Note
	Index uint64
}

// TransferRequest describes a private transfer of one or two notes into zero
// to two new notes.
type TransferRequest struct {
	Depth   int
	Leaves  []types.Hash
	Inputs  []TransferInput
	Outputs []*circuits.Note
}

// TransferAssignment builds the circuit assignment and the public inputs.
func TransferAssignment(h hash.Hasher, req *TransferRequest) (*transfer.Circuit, *verifier.TransferInputs, error) {
	if len(req.Inputs) > transfer.Slots || len(req.Outputs) > transfer.Slots {
		return nil, nil, fmt.Errorf("at most %d inputs and outputs", transfer.Slots)
	}
	root, err := merkle.ComputeRoot(h, req.Depth, req.Leaves)
	if err != nil {
		return nil, nil, err
	}
	inputs := &verifier.TransferInputs{Root: root}
	a := &transfer.Circuit{Root: root.BigInt()}
	zeroPath := make([]types.Hash, req.Depth)
	for i := 0; i < transfer.Slots; i++ {
		a.Nullifiers[i], a.InSecret[i], a.InSeed[i], a.InAmount[i] = 0, 0, 0, 0
		a.InPathElements[i] = hashVars(zeroPath)
		a.InPathIndices[i] = bitVars(make([]uint8, req.Depth))
		if i >= len(req.Inputs) {
			continue
		}
		in := req.Inputs[i]
		path, err := merkle.BuildPath(h, req.Depth, req.Leaves, in.Index)
		if err != nil {
			return nil, nil, err
		}
		if inputs.Nullifiers[i], err = in.Note.Nullifier(h); err != nil {
			return nil, nil, err
		}
		a.Nullifiers[i] = inputs.Nullifiers[i].BigInt()
		a.InSecret[i] = in.Note.Secret.BigInt()
		a.InSeed[i] = in.Note.Seed.BigInt()
		a.InAmount[i] = in.Note.Amount
		a.InPathElements[i] = hashVars(path.Siblings)
		a.InPathIndices[i] = bitVars(path.Bits())
	}
	for i := 0; i < transfer.Slots; i++ {
		a.Commitments[i], a.OutSecret[i], a.OutSeed[i], a.OutAmount[i] = 0, 0, 0, 0
		if i >= len(req.Outputs) {
			continue
		}
		out := req.Outputs[i]
		if inputs.Commitments[i], err = out.Commitment(h); err != nil {
			return nil, nil, err
		}
		a.Commitments[i] = inputs.Commitments[i].BigInt()
		a.OutSecret[i] = out.Secret.BigInt()
		a.OutSeed[i] = out.Seed.BigInt()
		a.OutAmount[i] = out.Amount
	}
	return a, inputs, nil
}

// ProveTransfer builds the assignment and proves it.
func ProveTransfer(h hash.Hasher, keys *Keys, req *TransferRequest) (*verifier.Proof, *verifier.TransferInputs, error) {
	assignment, inputs, err := TransferAssignment(h, req)
	if err != nil {
		return nil, nil, err
	}
	proof, err := keys.Prove(assignment)
	if err != nil {
		return nil, nil, err
	}
	return proof, inputs, nil
}

func hashVars(hs []types.Hash) []frontend.Variable {
	vars := make([]frontend.Variable, len(hs))
	for i, h := range hs {
		vars[i] = h.BigInt()
	}
	return vars
}

func bitVars(bits []uint8) []frontend.Variable {
	vars := make([]frontend.Variable, len(bits))
	for i, b := range bits {
		vars[i] = int(b)
	}
	return vars
}

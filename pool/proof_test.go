package pool_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/whistle-protocol/shieldpool/circuits"
	"github.com/whistle-protocol/shieldpool/circuits/testutil"
	"github.com/whistle-protocol/shieldpool/crypto/ecc/curves"
	"github.com/whistle-protocol/shieldpool/crypto/hash"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/types"
	"github.com/whistle-protocol/shieldpool/verifier"
)

func realVerifier(c *qt.C, keys *testutil.Keys) *verifier.Verifier {
	vk, err := keys.VerifyingKey()
	c.Assert(err, qt.IsNil)
	engine, err := curves.New(curves.EngineDefault)
	c.Assert(err, qt.IsNil)
	v, err := verifier.New(engine, vk)
	c.Assert(err, qt.IsNil)
	return v
}

func TestLifecycleWithProofs(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}
	c := qt.New(t)
	ctx := context.Background()
	h, err := hash.New(hash.Default)
	c.Assert(err, qt.IsNil)

	wKeys, err := testutil.WithdrawKeys(pool.MinDepth)
	c.Assert(err, qt.IsNil)
	tKeys, err := testutil.TransferKeys(pool.MinDepth)
	c.Assert(err, qt.IsNil)

	p, err := pool.New("e2e", smallConfig(), realVerifier(c, wKeys), realVerifier(c, tKeys))
	c.Assert(err, qt.IsNil)
	c.Assert(p.Initialize(ctx, pool.MinDepth), qt.IsNil)

	var leaves []types.Hash
	shield := func(n *circuits.Note) uint64 {
		cm, err := n.Commitment(h)
		c.Assert(err, qt.IsNil)
		res, err := p.Shield(ctx, &pool.ShieldRequest{Depositor: depositor, Commitment: cm, Amount: n.Amount})
		c.Assert(err, qt.IsNil)
		leaves = append(leaves, cm)
		return res.LeafIndex
	}

	exact := circuits.NewNote(types.LamportsPerSol)
	big := circuits.NewNote(3 * types.LamportsPerSol / 2)
	exactIndex := shield(exact)
	bigIndex := shield(big)

	// unshield a whole note, paying a relayer fee
	proof, inputs, err := testutil.ProveWithdraw(h, wKeys, &testutil.WithdrawRequest{
		Depth:     pool.MinDepth,
		Leaves:    leaves,
		Index:     exactIndex,
		Note:      exact,
		Recipient: recipient,
		Amount:    types.LamportsPerSol,
		Fee:       1_000_000,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(inputs.Root, qt.Equals, p.State().CurrentRoot)
	req := &pool.UnshieldRequest{
		Proof:     proof,
		Nullifier: inputs.Nullifier,
		Recipient: recipient,
		Relayer:   relayer,
		Amount:    inputs.Amount,
		Fee:       inputs.Fee,
		Root:      inputs.Root,
	}

	// a relayer rewriting the fee invalidates the proof
	tampered := *req
	tampered.Fee = 2_000_000
	_, err = p.Unshield(ctx, &tampered)
	c.Assert(err, qt.ErrorIs, pool.ErrInvalidProof)

	res, err := p.Unshield(ctx, req)
	c.Assert(err, qt.IsNil)
	c.Assert(res.HasChange, qt.IsFalse)
	_, err = p.Unshield(ctx, req)
	c.Assert(err, qt.ErrorIs, pool.ErrNullifierSpent)

	// unshield part of the bigger note, keeping the rest as change
	change := circuits.NewNote(big.Amount - types.LamportsPerSol)
	proof, inputs, err = testutil.ProveWithdraw(h, wKeys, &testutil.WithdrawRequest{
		Depth:     pool.MinDepth,
		Leaves:    leaves,
		Index:     bigIndex,
		Note:      big,
		Recipient: recipient,
		Amount:    types.LamportsPerSol,
		Change:    change,
	})
	c.Assert(err, qt.IsNil)
	res, err = p.Unshield(ctx, &pool.UnshieldRequest{
		Proof:            proof,
		Nullifier:        inputs.Nullifier,
		Recipient:        recipient,
		Amount:           inputs.Amount,
		Root:             inputs.Root,
		ChangeCommitment: inputs.Change,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(res.HasChange, qt.IsTrue)
	c.Assert(res.ChangeIndex, qt.Equals, uint64(2))
	leaves = append(leaves, inputs.Change)

	// split the change note in two
	outA := circuits.NewNote(change.Amount / 4)
	outB := circuits.NewNote(change.Amount - outA.Amount)
	tproof, tinputs, err := testutil.ProveTransfer(h, tKeys, &testutil.TransferRequest{
		Depth:   pool.MinDepth,
		Leaves:  leaves,
		Inputs:  []testutil.TransferInput{{Note: change, Index: res.ChangeIndex}},
		Outputs: []*circuits.Note{outA, outB},
	})
	c.Assert(err, qt.IsNil)
	c.Assert(tinputs.Root, qt.Equals, res.Root)
	tres, err := p.PrivateTransfer(ctx, &pool.TransferRequest{
		Proof:       tproof,
		Nullifiers:  tinputs.Nullifiers,
		Commitments: tinputs.Commitments,
		Root:        tinputs.Root,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(tres.LeafIndexes, qt.DeepEquals, []uint64{3, 4})

	st := p.State()
	c.Assert(st.NextIndex, qt.Equals, uint64(5))
	c.Assert(st.NullifierCount, qt.Equals, 3)
	c.Assert(st.TotalDeposited, qt.Equals, 5*types.LamportsPerSol/2)
	c.Assert(st.TotalShielded, qt.Equals, types.LamportsPerSol/2)
}

package pool_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/whistle-protocol/shieldpool/crypto/hash"
	"github.com/whistle-protocol/shieldpool/merkle"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/types"
	"github.com/whistle-protocol/shieldpool/verifier"
)

var (
	depositor = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	relayer   = common.HexToAddress("0x00000000000000000000000000000000000000f1")

	// 2^256-1 is above the scalar field modulus.
	nonCanonical = types.Hash{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
)

// stubVerifier accepts or rejects every proof and records what it was asked.
type stubVerifier struct {
	inputs int
	reject bool
	calls  int
	last   []types.Hash
}

func (s *stubVerifier) NumPublicInputs() int {
	return s.inputs
}

func (s *stubVerifier) Verify(_ *verifier.Proof, inputs []types.Hash) error {
	s.calls++
	s.last = inputs
	if s.reject {
		return verifier.ErrInvalidProof
	}
	return nil
}

type harness struct {
	c        *qt.C
	pool     *pool.Pool
	withdraw *stubVerifier
	transfer *stubVerifier
	hasher   hash.Hasher
	leaves   []types.Hash
}

func newHarness(c *qt.C, cfg pool.Config, opts ...pool.Option) *harness {
	h := &harness{
		c:        c,
		withdraw: &stubVerifier{inputs: verifier.WithdrawInputCount},
		transfer: &stubVerifier{inputs: verifier.TransferInputCount},
	}
	var err error
	h.hasher, err = hash.New(cfg.Hasher)
	c.Assert(err, qt.IsNil)
	h.pool, err = pool.New("test", cfg, h.withdraw, h.transfer, opts...)
	c.Assert(err, qt.IsNil)
	c.Assert(h.pool.Initialize(context.Background(), cfg.Depth), qt.IsNil)
	return h
}

func smallConfig() pool.Config {
	cfg := pool.DefaultConfig()
	cfg.Depth = pool.MinDepth
	return cfg
}

func (h *harness) shield(cm types.Hash, amount uint64) *pool.ShieldResult {
	res, err := h.pool.Shield(context.Background(), &pool.ShieldRequest{
		Depositor:  depositor,
		Commitment: cm,
		Amount:     amount,
	})
	h.c.Assert(err, qt.IsNil)
	h.leaves = append(h.leaves, cm)
	return res
}

func (h *harness) unshieldRequest(n uint64) *pool.UnshieldRequest {
	return &pool.UnshieldRequest{
		Proof:     &verifier.Proof{},
		Nullifier: types.Uint64ToHash(n),
		Recipient: recipient,
		Relayer:   relayer,
		Amount:    types.LamportsPerSol,
		Fee:       1,
		Root:      h.pool.State().CurrentRoot,
	}
}

func TestNew(t *testing.T) {
	c := qt.New(t)
	w := &stubVerifier{inputs: verifier.WithdrawInputCount}
	tr := &stubVerifier{inputs: verifier.TransferInputCount}

	_, err := pool.New("p", pool.DefaultConfig(), w, tr)
	c.Assert(err, qt.IsNil)

	for name, mutate := range map[string]func(*pool.Config){
		"history":       func(cfg *pool.Config) { cfg.HistorySize = 0 },
		"nullifiers":    func(cfg *pool.Config) { cfg.NullifierCapacity = 0 },
		"denominations": func(cfg *pool.Config) { cfg.Denominations = nil },
		"zero denom":    func(cfg *pool.Config) { cfg.Denominations = []uint64{0} },
		"fee":           func(cfg *pool.Config) { cfg.MaxFeeBps = pool.BasisPoints + 1 },
		"hasher":        func(cfg *pool.Config) { cfg.Hasher = "sha1" },
		"shallow":       func(cfg *pool.Config) { cfg.Depth = pool.MinDepth - 1 },
		"deep":          func(cfg *pool.Config) { cfg.Depth = pool.MaxDepth + 1 },
	} {
		cfg := pool.DefaultConfig()
		mutate(&cfg)
		_, err := pool.New("p", cfg, w, tr)
		c.Assert(err, qt.IsNotNil, qt.Commentf("%s", name))
		c.Assert(pool.ErrorKind(err), qt.Equals, pool.KindConfig, qt.Commentf("%s", name))
	}

	_, err = pool.New("p", pool.DefaultConfig(), tr, w)
	c.Assert(err, qt.ErrorIs, pool.ErrInvalidConfig)
	_, err = pool.New("a/b", pool.DefaultConfig(), w, tr)
	c.Assert(err, qt.ErrorIs, pool.ErrInvalidConfig)
}

func TestInitialize(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	p, err := pool.New("p", smallConfig(),
		&stubVerifier{inputs: verifier.WithdrawInputCount},
		&stubVerifier{inputs: verifier.TransferInputCount})
	c.Assert(err, qt.IsNil)

	_, err = p.Shield(ctx, &pool.ShieldRequest{Commitment: types.Uint64ToHash(1), Amount: types.LamportsPerSol})
	c.Assert(err, qt.ErrorIs, pool.ErrNotInitialized)
	c.Assert(p.State().Initialized, qt.IsFalse)

	c.Assert(p.Initialize(ctx, pool.MinDepth-1), qt.ErrorIs, pool.ErrInvalidDepth)
	c.Assert(p.Initialize(ctx, pool.MaxDepth+1), qt.ErrorIs, pool.ErrInvalidDepth)
	// a valid depth other than the configured one
	c.Assert(p.Initialize(ctx, pool.MinDepth+1), qt.ErrorIs, pool.ErrInvalidDepth)
	c.Assert(p.State().Initialized, qt.IsFalse)
	c.Assert(p.Initialize(ctx, pool.MinDepth), qt.IsNil)
	c.Assert(p.Initialize(ctx, pool.MinDepth), qt.ErrorIs, pool.ErrAlreadyInitialized)

	st := p.State()
	c.Assert(st.Initialized, qt.IsTrue)
	c.Assert(st.Depth, qt.Equals, pool.MinDepth)
	c.Assert(st.NextIndex, qt.Equals, uint64(0))
	c.Assert(st.CurrentRoot, qt.Equals, types.ZeroHash)
	c.Assert(p.IsKnownRoot(types.ZeroHash), qt.IsFalse)
}

func TestShieldAppends(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, smallConfig())

	for i := uint64(0); i < 5; i++ {
		res := h.shield(types.Uint64ToHash(100+i), types.LamportsPerSol)
		c.Assert(res.LeafIndex, qt.Equals, i)
		want, err := merkle.ComputeRoot(h.hasher, pool.MinDepth, h.leaves)
		c.Assert(err, qt.IsNil)
		c.Assert(res.Root, qt.Equals, want)
		c.Assert(h.pool.State().CurrentRoot, qt.Equals, want)
		c.Assert(h.pool.IsKnownRoot(want), qt.IsTrue)
	}
	st := h.pool.State()
	c.Assert(st.NextIndex, qt.Equals, uint64(5))
	c.Assert(st.TotalDeposited, qt.Equals, 5*types.LamportsPerSol)
	c.Assert(st.TotalShielded, qt.Equals, 5*types.LamportsPerSol)
	c.Assert(st.HistoryCursor, qt.Equals, 5)

	ctx := context.Background()
	_, err := h.pool.Shield(ctx, &pool.ShieldRequest{Commitment: types.Uint64ToHash(1), Amount: 999_999})
	c.Assert(err, qt.ErrorIs, pool.ErrDepositTooSmall)
	_, err = h.pool.Shield(ctx, &pool.ShieldRequest{Commitment: types.ZeroHash, Amount: types.LamportsPerSol})
	c.Assert(err, qt.ErrorIs, pool.ErrInvalidCommitment)
	_, err = h.pool.Shield(ctx, &pool.ShieldRequest{Commitment: nonCanonical, Amount: types.LamportsPerSol})
	c.Assert(err, qt.ErrorIs, pool.ErrInvalidCommitment)
	c.Assert(pool.ErrorKind(err), qt.Equals, pool.KindPrecondition)
	c.Assert(h.pool.State(), qt.DeepEquals, st)
}

func TestTreeFull(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, smallConfig())
	capacity := uint64(1) << pool.MinDepth
	for i := uint64(0); i < capacity; i++ {
		h.shield(types.Uint64ToHash(i+1), types.LamportsPerSol)
	}
	st := h.pool.State()
	_, err := h.pool.Shield(context.Background(), &pool.ShieldRequest{
		Commitment: types.Uint64ToHash(capacity + 1),
		Amount:     types.LamportsPerSol,
	})
	c.Assert(err, qt.ErrorIs, pool.ErrTreeFull)
	c.Assert(h.pool.State(), qt.DeepEquals, st)

	// a withdrawal with change needs room as well, without it is fine
	req := h.unshieldRequest(1)
	req.ChangeCommitment = types.Uint64ToHash(77)
	_, err = h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.ErrorIs, pool.ErrTreeFull)
	c.Assert(h.withdraw.calls, qt.Equals, 0)
	req.ChangeCommitment = types.ZeroHash
	_, err = h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.IsNil)
}

func TestUnshield(t *testing.T) {
	c := qt.New(t)
	var transitions []*pool.Transition
	var events []pool.Event
	h := newHarness(c, smallConfig(),
		pool.WithCommitter(pool.CommitterFunc(func(_ context.Context, t *pool.Transition) error {
			transitions = append(transitions, t)
			return nil
		})),
		pool.WithEventHandler(func(e pool.Event) { events = append(events, e) }),
	)
	h.shield(types.Uint64ToHash(11), 2*types.LamportsPerSol)

	req := h.unshieldRequest(42)
	req.Fee = 5_000_000
	req.ChangeCommitment = types.Uint64ToHash(12)
	res, err := h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.IsNil)
	c.Assert(res.HasChange, qt.IsTrue)
	c.Assert(res.ChangeIndex, qt.Equals, uint64(1))

	// the proof is checked against exactly the request values
	want := (&verifier.WithdrawInputs{
		Root:      req.Root,
		Nullifier: req.Nullifier,
		Recipient: recipient,
		Amount:    req.Amount,
		Fee:       req.Fee,
		Change:    req.ChangeCommitment,
	}).Vector()
	c.Assert(h.withdraw.last, qt.DeepEquals, want)

	st := h.pool.State()
	c.Assert(st.NextIndex, qt.Equals, uint64(2))
	c.Assert(st.NullifierCount, qt.Equals, 1)
	c.Assert(st.TotalShielded, qt.Equals, types.LamportsPerSol)
	c.Assert(st.TotalDeposited, qt.Equals, 2*types.LamportsPerSol)
	c.Assert(st.CurrentRoot, qt.Equals, res.Root)
	c.Assert(h.pool.IsSpent(req.Nullifier), qt.IsTrue)

	c.Assert(transitions, qt.HasLen, 3)
	last := transitions[2]
	c.Assert(last.Op, qt.Equals, pool.OpUnshield)
	c.Assert(last.Nullifiers, qt.DeepEquals, []types.Hash{req.Nullifier})
	c.Assert(last.Leaves, qt.DeepEquals, []pool.Leaf{{Index: 1, Commitment: req.ChangeCommitment}})
	c.Assert(last.Movements, qt.DeepEquals, []pool.Movement{
		{Direction: pool.OutOfPool, Account: recipient, Amount: req.Amount - req.Fee},
		{Direction: pool.OutOfPool, Account: relayer, Amount: req.Fee},
	})
	c.Assert(last.Snapshot.NullifierCount, qt.Equals, 1)
	c.Assert(last.Snapshot.TotalShielded, qt.Equals, types.LamportsPerSol)

	c.Assert(events, qt.HasLen, 3)
	c.Assert(events[0].Type, qt.Equals, pool.EventPoolInitialized)
	c.Assert(events[1].Type, qt.Equals, pool.EventDeposited)
	c.Assert(events[2].Type, qt.Equals, pool.EventWithdrawn)
	c.Assert(events[2].Root, qt.Equals, res.Root)

	// hash and address fields are always encoded, zero or not
	data, err := json.Marshal(events[1])
	c.Assert(err, qt.IsNil)
	var fields map[string]any
	c.Assert(json.Unmarshal(data, &fields), qt.IsNil)
	for _, k := range []string{"commitment", "nullifier", "recipient", "relayer", "change"} {
		c.Assert(fields[k], qt.Not(qt.IsNil), qt.Commentf("%s missing", k))
	}
	c.Assert(fields["change"], qt.Equals, types.Hash{}.String())
}

func TestUnshieldPreconditions(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, smallConfig())
	h.shield(types.Uint64ToHash(11), types.LamportsPerSol)
	ctx := context.Background()

	for name, tc := range map[string]struct {
		mutate func(*pool.UnshieldRequest)
		err    error
	}{
		"denomination":   {func(r *pool.UnshieldRequest) { r.Amount = 2 * types.LamportsPerSol }, pool.ErrInvalidDenomination},
		"fee over cap":   {func(r *pool.UnshieldRequest) { r.Fee = 50_000_001 }, pool.ErrFeeTooHigh},
		"no recipient":   {func(r *pool.UnshieldRequest) { r.Recipient = common.Address{} }, pool.ErrInvalidRecipient},
		"no relayer":     {func(r *pool.UnshieldRequest) { r.Relayer = common.Address{} }, pool.ErrInvalidRelayer},
		"zero nullifier": {func(r *pool.UnshieldRequest) { r.Nullifier = types.ZeroHash }, pool.ErrInvalidNullifier},
		"bad nullifier":  {func(r *pool.UnshieldRequest) { r.Nullifier = nonCanonical }, pool.ErrInvalidNullifier},
		"zero root":      {func(r *pool.UnshieldRequest) { r.Root = types.ZeroHash }, pool.ErrUnknownRoot},
		"unknown root":   {func(r *pool.UnshieldRequest) { r.Root = types.Uint64ToHash(9) }, pool.ErrUnknownRoot},
		"bad change":     {func(r *pool.UnshieldRequest) { r.ChangeCommitment = nonCanonical }, pool.ErrInvalidCommitment},
		// 100 SOL is a valid denomination, but only 1 SOL is shielded
		"underflow": {func(r *pool.UnshieldRequest) { r.Amount, r.Fee = 100*types.LamportsPerSol, 0 }, pool.ErrUnderflow},
	} {
		req := h.unshieldRequest(7)
		tc.mutate(req)
		_, err := h.pool.Unshield(ctx, req)
		c.Assert(err, qt.ErrorIs, tc.err, qt.Commentf("%s", name))
	}
	c.Assert(h.withdraw.calls, qt.Equals, 0)
	c.Assert(h.pool.State().NullifierCount, qt.Equals, 0)
	c.Assert(h.pool.IsSpent(types.Uint64ToHash(7)), qt.IsFalse)
}

func TestFeeBound(t *testing.T) {
	c := qt.New(t)
	cfg := smallConfig()
	h := newHarness(c, cfg)
	h.shield(types.Uint64ToHash(1), 10*types.LamportsPerSol)

	req := h.unshieldRequest(1)
	req.Fee = 1
	_, err := h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.IsNil)

	req = h.unshieldRequest(2)
	req.Fee = req.Amount
	_, err = h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.ErrorIs, pool.ErrFeeTooHigh)

	req.Fee = req.Amount + 1
	_, err = h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.ErrorIs, pool.ErrFeeTooHigh)

	cfg.MaxFeeBps = pool.BasisPoints
	h = newHarness(c, cfg)
	h.shield(types.Uint64ToHash(1), types.LamportsPerSol)
	req = h.unshieldRequest(2)
	req.Fee = req.Amount
	_, err = h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.IsNil)
	req = h.unshieldRequest(3)
	req.Fee = req.Amount + 1
	_, err = h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.ErrorIs, pool.ErrFeeTooHigh)
}

func TestNoDoubleSpend(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, smallConfig())
	h.shield(types.Uint64ToHash(1), 3*types.LamportsPerSol)

	req := h.unshieldRequest(5)
	_, err := h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.IsNil)
	st := h.pool.State()

	// the stub accepts any proof, the nullifier set alone stops the replay
	_, err = h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.ErrorIs, pool.ErrNullifierSpent)
	c.Assert(h.pool.State(), qt.DeepEquals, st)
	c.Assert(h.withdraw.calls, qt.Equals, 1)
}

func TestVerifyBeforeMutate(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, smallConfig())
	h.shield(types.Uint64ToHash(1), 3*types.LamportsPerSol)
	st := h.pool.State()

	h.withdraw.reject = true
	req := h.unshieldRequest(5)
	req.ChangeCommitment = types.Uint64ToHash(2)
	_, err := h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.Equals, error(pool.ErrInvalidProof))
	c.Assert(pool.ErrorKind(err), qt.Equals, pool.KindProof)
	c.Assert(h.pool.State(), qt.DeepEquals, st)
	c.Assert(h.pool.IsSpent(req.Nullifier), qt.IsFalse)

	h.transfer.reject = true
	_, err = h.pool.PrivateTransfer(context.Background(), &pool.TransferRequest{
		Proof:       &verifier.Proof{},
		Nullifiers:  [2]types.Hash{types.Uint64ToHash(5)},
		Commitments: [2]types.Hash{types.Uint64ToHash(6)},
		Root:        st.CurrentRoot,
	})
	c.Assert(err, qt.Equals, error(pool.ErrInvalidProof))
	c.Assert(h.pool.State(), qt.DeepEquals, st)
}

func TestRootHistoryWindow(t *testing.T) {
	c := qt.New(t)
	cfg := smallConfig()
	cfg.HistorySize = 4
	h := newHarness(c, cfg)
	h.shield(types.Uint64ToHash(1), types.LamportsPerSol)
	old := h.pool.State().CurrentRoot

	// k later insertions keep old valid while k < capacity
	for k := 1; k < cfg.HistorySize; k++ {
		h.shield(types.Uint64ToHash(uint64(k+1)), types.LamportsPerSol)
		c.Assert(h.pool.IsKnownRoot(old), qt.IsTrue, qt.Commentf("k=%d", k))
	}
	req := h.unshieldRequest(1)
	req.Root = old
	_, err := h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.IsNil)

	h.shield(types.Uint64ToHash(99), types.LamportsPerSol)
	c.Assert(h.pool.IsKnownRoot(old), qt.IsFalse)
	req = h.unshieldRequest(2)
	req.Root = old
	_, err = h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.ErrorIs, pool.ErrUnknownRoot)
}

func TestNullifierSetFull(t *testing.T) {
	c := qt.New(t)
	cfg := smallConfig()
	cfg.NullifierCapacity = 2
	h := newHarness(c, cfg)
	h.shield(types.Uint64ToHash(1), 5*types.LamportsPerSol)

	for i := uint64(1); i <= 2; i++ {
		_, err := h.pool.Unshield(context.Background(), h.unshieldRequest(i))
		c.Assert(err, qt.IsNil)
	}
	_, err := h.pool.Unshield(context.Background(), h.unshieldRequest(3))
	c.Assert(err, qt.ErrorIs, pool.ErrNullifierSetFull)
	c.Assert(h.pool.State().NullifierCount, qt.Equals, 2)
}

func TestPrivateTransfer(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, smallConfig())
	h.shield(types.Uint64ToHash(1), types.LamportsPerSol)
	root := h.pool.State().CurrentRoot
	ctx := context.Background()

	n1, n2 := types.Uint64ToHash(501), types.Uint64ToHash(502)
	o := types.Uint64ToHash(601)
	for name, tc := range map[string]struct {
		req *pool.TransferRequest
		err error
	}{
		"no inputs":   {&pool.TransferRequest{Root: root}, pool.ErrNoInputs},
		"duplicate":   {&pool.TransferRequest{Root: root, Nullifiers: [2]types.Hash{n1, n1}}, pool.ErrDuplicateNullifier},
		"bad input":   {&pool.TransferRequest{Root: root, Nullifiers: [2]types.Hash{nonCanonical}}, pool.ErrInvalidNullifier},
		"bad output":  {&pool.TransferRequest{Root: root, Nullifiers: [2]types.Hash{n1}, Commitments: [2]types.Hash{nonCanonical}}, pool.ErrInvalidCommitment},
		"root":        {&pool.TransferRequest{Root: types.Uint64ToHash(3), Nullifiers: [2]types.Hash{n1}}, pool.ErrUnknownRoot},
		"same output": {&pool.TransferRequest{Root: root, Nullifiers: [2]types.Hash{n1}, Commitments: [2]types.Hash{o, o}}, pool.ErrDuplicateCommitment},
	} {
		_, err := h.pool.PrivateTransfer(ctx, tc.req)
		c.Assert(err, qt.ErrorIs, tc.err, qt.Commentf("%s", name))
	}
	c.Assert(h.transfer.calls, qt.Equals, 0)

	cursor := h.pool.State().HistoryCursor
	res, err := h.pool.PrivateTransfer(ctx, &pool.TransferRequest{
		Proof:       &verifier.Proof{},
		Nullifiers:  [2]types.Hash{n1, n2},
		Commitments: [2]types.Hash{types.Uint64ToHash(601), types.Uint64ToHash(602)},
		Root:        root,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(res.LeafIndexes, qt.DeepEquals, []uint64{1, 2})
	st := h.pool.State()
	c.Assert(st.NullifierCount, qt.Equals, 2)
	c.Assert(st.HistoryCursor, qt.Equals, cursor+2)
	c.Assert(st.TotalShielded, qt.Equals, types.LamportsPerSol)

	h.leaves = append(h.leaves, types.Uint64ToHash(601), types.Uint64ToHash(602))
	want, err := merkle.ComputeRoot(h.hasher, pool.MinDepth, h.leaves)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Root, qt.Equals, want)

	// second slot only, no outputs: the root does not move
	_, err = h.pool.PrivateTransfer(ctx, &pool.TransferRequest{
		Proof:      &verifier.Proof{},
		Nullifiers: [2]types.Hash{{}, types.Uint64ToHash(503)},
		Root:       want,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(h.pool.State().CurrentRoot, qt.Equals, want)

	_, err = h.pool.PrivateTransfer(ctx, &pool.TransferRequest{
		Proof:      &verifier.Proof{},
		Nullifiers: [2]types.Hash{types.Uint64ToHash(504), n2},
		Root:       want,
	})
	c.Assert(err, qt.ErrorIs, pool.ErrNullifierSpent)
	c.Assert(h.pool.IsSpent(types.Uint64ToHash(504)), qt.IsFalse)
}

func TestCommitFailure(t *testing.T) {
	c := qt.New(t)
	errDisk := errors.New("disk full")
	fail := false
	h := newHarness(c, smallConfig(), pool.WithCommitter(pool.CommitterFunc(
		func(context.Context, *pool.Transition) error {
			if fail {
				return errDisk
			}
			return nil
		})))
	h.shield(types.Uint64ToHash(1), 2*types.LamportsPerSol)
	st := h.pool.State()

	fail = true
	_, err := h.pool.Shield(context.Background(), &pool.ShieldRequest{Commitment: types.Uint64ToHash(2), Amount: types.LamportsPerSol})
	c.Assert(err, qt.ErrorIs, errDisk)
	c.Assert(pool.ErrorKind(err), qt.Equals, pool.KindInternal)
	c.Assert(h.pool.State(), qt.DeepEquals, st)

	req := h.unshieldRequest(9)
	req.ChangeCommitment = types.Uint64ToHash(3)
	_, err = h.pool.Unshield(context.Background(), req)
	c.Assert(err, qt.ErrorIs, errDisk)
	c.Assert(h.pool.State(), qt.DeepEquals, st)
	c.Assert(h.pool.IsSpent(req.Nullifier), qt.IsFalse)

	fail = false
	res, err := h.pool.Shield(context.Background(), &pool.ShieldRequest{Commitment: types.Uint64ToHash(2), Amount: types.LamportsPerSol})
	c.Assert(err, qt.IsNil)
	c.Assert(res.LeafIndex, qt.Equals, uint64(1))
}

func TestSnapshotRestore(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, smallConfig())
	h.shield(types.Uint64ToHash(1), 2*types.LamportsPerSol)
	h.shield(types.Uint64ToHash(2), types.LamportsPerSol)
	_, err := h.pool.Unshield(context.Background(), h.unshieldRequest(10))
	c.Assert(err, qt.IsNil)

	snap := h.pool.Snapshot()
	restored, err := pool.Restore(snap, []types.Hash{types.Uint64ToHash(10)}, h.withdraw, h.transfer)
	c.Assert(err, qt.IsNil)
	c.Assert(restored.State(), qt.DeepEquals, h.pool.State())
	c.Assert(restored.IsSpent(types.Uint64ToHash(10)), qt.IsTrue)

	// both continue identically
	a, err := h.pool.Shield(context.Background(), &pool.ShieldRequest{Commitment: types.Uint64ToHash(3), Amount: types.LamportsPerSol})
	c.Assert(err, qt.IsNil)
	b, err := restored.Shield(context.Background(), &pool.ShieldRequest{Commitment: types.Uint64ToHash(3), Amount: types.LamportsPerSol})
	c.Assert(err, qt.IsNil)
	c.Assert(b, qt.DeepEquals, a)

	_, err = pool.Restore(snap, nil, h.withdraw, h.transfer)
	c.Assert(err, qt.ErrorIs, pool.ErrBadSnapshot)
}

func TestRestoreRejectsInconsistentSnapshot(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, smallConfig())
	h.shield(types.Uint64ToHash(1), types.LamportsPerSol)
	h.shield(types.Uint64ToHash(2), types.LamportsPerSol)
	spent := []types.Hash{}

	for name, tamper := range map[string]func(s *pool.Snapshot){
		"current root": func(s *pool.Snapshot) { s.CurrentRoot = types.Uint64ToHash(77) },
		"tree root":    func(s *pool.Snapshot) { s.Tree.Root = types.Uint64ToHash(77) },
		"history":      func(s *pool.Snapshot) { s.Roots.Cursor = (s.Roots.Cursor + 1) % len(s.Roots.Roots) },
		"depth":        func(s *pool.Snapshot) { s.Config.Depth++ },
		"empty tree":   func(s *pool.Snapshot) { s.Tree.NextIndex = 0 },
	} {
		snap := h.pool.Snapshot()
		tamper(snap)
		_, err := pool.Restore(snap, spent, h.withdraw, h.transfer)
		c.Assert(err, qt.ErrorIs, pool.ErrBadSnapshot, qt.Commentf("%s", name))
		c.Assert(pool.ErrorKind(err), qt.Equals, pool.KindInternal)
	}

	// a fresh pool restores with the zero sentinel as its root
	fresh := newHarness(c, smallConfig())
	restored, err := pool.Restore(fresh.pool.Snapshot(), spent, fresh.withdraw, fresh.transfer)
	c.Assert(err, qt.IsNil)
	c.Assert(restored.State().CurrentRoot, qt.Equals, types.ZeroHash)
}

func TestErrorKind(t *testing.T) {
	c := qt.New(t)
	c.Assert(pool.ErrorKind(pool.ErrOverflow), qt.Equals, pool.KindArithmetic)
	c.Assert(pool.ErrorKind(pool.ErrUnderflow), qt.Equals, pool.KindArithmetic)
	c.Assert(pool.ErrorKind(pool.ErrInvalidDepth), qt.Equals, pool.KindConfig)
	c.Assert(pool.ErrorKind(errors.New("x")), qt.Equals, pool.KindInternal)
	c.Assert(pool.KindProof.String(), qt.Equals, "proof")
}

package pool

import (
	"context"
	"fmt"
	"math/bits"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/whistle-protocol/shieldpool/crypto"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/types"
	"github.com/whistle-protocol/shieldpool/verifier"
)

// ShieldRequest deposits Amount from Depositor behind Commitment. Nonce is
// the depositor's deposit sequence number; the committer accepts each one
// once.
type ShieldRequest struct {
	Depositor  common.Address
	Commitment types.Hash
	Amount     uint64
	Nonce      uint64
}

type ShieldResult struct {
	LeafIndex uint64     `json:"leafIndex"`
	Root      types.Hash `json:"root"`
}

// UnshieldRequest spends one note. Amount-Fee is paid to Recipient and Fee
// to Relayer. A non-zero ChangeCommitment is appended as a new note.
type UnshieldRequest struct {
	Proof            *verifier.Proof
	Nullifier        types.Hash
	Recipient        common.Address
	Relayer          common.Address
	Amount           uint64
	Fee              uint64
	Root             types.Hash
	ChangeCommitment types.Hash
}

type UnshieldResult struct {
	HasChange   bool       `json:"hasChange"`
	ChangeIndex uint64     `json:"changeIndex"`
	Root        types.Hash `json:"root"`
}

// TransferRequest spends up to two notes and creates up to two, without
// value leaving the pool. Zero entries are absent.
type TransferRequest struct {
	Proof       *verifier.Proof
	Nullifiers  [2]types.Hash
	Commitments [2]types.Hash
	Root        types.Hash
}

type TransferResult struct {
	LeafIndexes []uint64   `json:"leafIndexes"`
	Root        types.Hash `json:"root"`
}

// Shield appends a commitment for a deposit of req.Amount.
func (p *Pool) Shield(ctx context.Context, req *ShieldRequest) (*ShieldResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return nil, ErrNotInitialized
	}
	if req.Amount < p.cfg.MinDeposit {
		return nil, fmt.Errorf("%w: %d < %d", ErrDepositTooSmall, req.Amount, p.cfg.MinDeposit)
	}
	if err := checkElement(req.Commitment, ErrInvalidCommitment); err != nil {
		return nil, err
	}
	if p.tree.Remaining() == 0 {
		return nil, ErrTreeFull
	}
	deposited, ok := addUint64(p.totalDeposited, req.Amount)
	if !ok {
		return nil, fmt.Errorf("%w: total deposited", ErrOverflow)
	}
	shielded, ok := addUint64(p.totalShielded, req.Amount)
	if !ok {
		return nil, fmt.Errorf("%w: total shielded", ErrOverflow)
	}

	st := p.stage()
	index, err := st.insert(req.Commitment)
	if err != nil {
		return nil, err
	}
	st.deposited, st.shielded = deposited, shielded
	t := &Transition{
		Op:        OpShield,
		Leaves:    []Leaf{{Index: index, Commitment: req.Commitment}},
		Movements: []Movement{{Direction: IntoPool, Account: req.Depositor, Amount: req.Amount, Nonce: req.Nonce}},
		Event: Event{
			Type:       EventDeposited,
			Pool:       p.id,
			Commitment: req.Commitment,
			LeafIndex:  index,
			Amount:     req.Amount,
		},
	}
	if err := p.commit(ctx, st, t); err != nil {
		return nil, err
	}
	log.Debugw("shield", "pool", p.id, "index", index, "amount", req.Amount, "root", st.currentRoot.String())
	return &ShieldResult{LeafIndex: index, Root: st.currentRoot}, nil
}

// Unshield spends a note and pays it out, optionally keeping change in the
// pool. The proof is verified after every cheap check and before anything
// changes.
func (p *Pool) Unshield(ctx context.Context, req *UnshieldRequest) (*UnshieldResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return nil, ErrNotInitialized
	}
	if !p.cfg.isDenomination(req.Amount) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDenomination, req.Amount)
	}
	if err := checkFee(req.Amount, req.Fee, p.cfg.MaxFeeBps); err != nil {
		return nil, err
	}
	if req.Recipient == (common.Address{}) {
		return nil, ErrInvalidRecipient
	}
	if req.Fee > 0 && req.Relayer == (common.Address{}) {
		return nil, fmt.Errorf("%w: fee without relayer", ErrInvalidRelayer)
	}
	if err := checkElement(req.Nullifier, ErrInvalidNullifier); err != nil {
		return nil, err
	}
	if p.nullifiers.IsSpent(req.Nullifier) {
		return nil, ErrNullifierSpent
	}
	if p.nullifiers.Remaining() == 0 {
		return nil, ErrNullifierSetFull
	}
	if !p.isKnownRoot(req.Root) {
		return nil, ErrUnknownRoot
	}
	hasChange := !req.ChangeCommitment.IsZero()
	if hasChange {
		if !crypto.IsCanonical(req.ChangeCommitment) {
			return nil, fmt.Errorf("%w: change not in field", ErrInvalidCommitment)
		}
		if p.tree.Remaining() == 0 {
			return nil, ErrTreeFull
		}
	}
	if p.totalShielded < req.Amount {
		return nil, fmt.Errorf("%w: total shielded %d < %d", ErrUnderflow, p.totalShielded, req.Amount)
	}

	inputs := &verifier.WithdrawInputs{
		Root:      req.Root,
		Nullifier: req.Nullifier,
		Recipient: req.Recipient,
		Amount:    req.Amount,
		Fee:       req.Fee,
		Change:    req.ChangeCommitment,
	}
	if err := p.withdraw.Verify(req.Proof, inputs.Vector()); err != nil {
		log.Debugw("unshield proof rejected", "pool", p.id, "nullifier", req.Nullifier.String())
		return nil, ErrInvalidProof
	}

	st := p.stage()
	st.spent = []types.Hash{req.Nullifier}
	st.shielded = p.totalShielded - req.Amount
	res := &UnshieldResult{HasChange: hasChange}
	t := &Transition{
		Op: OpUnshield,
		Movements: []Movement{
			{Direction: OutOfPool, Account: req.Recipient, Amount: req.Amount - req.Fee},
		},
		Event: Event{
			Type:      EventWithdrawn,
			Pool:      p.id,
			Nullifier: req.Nullifier,
			Recipient: req.Recipient,
			Relayer:   req.Relayer,
			Amount:    req.Amount,
			Fee:       req.Fee,
			Change:    req.ChangeCommitment,
		},
	}
	if req.Fee > 0 {
		t.Movements = append(t.Movements, Movement{Direction: OutOfPool, Account: req.Relayer, Amount: req.Fee})
	}
	if hasChange {
		index, err := st.insert(req.ChangeCommitment)
		if err != nil {
			return nil, err
		}
		res.ChangeIndex = index
		t.Leaves = []Leaf{{Index: index, Commitment: req.ChangeCommitment}}
		t.Event.LeafIndex = index
	}
	if err := p.commit(ctx, st, t); err != nil {
		return nil, err
	}
	res.Root = st.currentRoot
	log.Debugw("unshield", "pool", p.id, "nullifier", req.Nullifier.String(), "amount", req.Amount, "fee", req.Fee, "change", hasChange)
	return res, nil
}

// PrivateTransfer spends the non-zero input nullifiers and appends the
// non-zero output commitments, one root per insertion.
func (p *Pool) PrivateTransfer(ctx context.Context, req *TransferRequest) (*TransferResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return nil, ErrNotInitialized
	}
	var spent []types.Hash
	for _, n := range req.Nullifiers {
		if n.IsZero() {
			continue
		}
		if !crypto.IsCanonical(n) {
			return nil, fmt.Errorf("%w: not in field", ErrInvalidNullifier)
		}
		for _, s := range spent {
			if s == n {
				return nil, ErrDuplicateNullifier
			}
		}
		if p.nullifiers.IsSpent(n) {
			return nil, ErrNullifierSpent
		}
		spent = append(spent, n)
	}
	if len(spent) == 0 {
		return nil, ErrNoInputs
	}
	if p.nullifiers.Remaining() < len(spent) {
		return nil, ErrNullifierSetFull
	}
	var outputs []types.Hash
	for _, c := range req.Commitments {
		if c.IsZero() {
			continue
		}
		if !crypto.IsCanonical(c) {
			return nil, fmt.Errorf("%w: not in field", ErrInvalidCommitment)
		}
		if slices.Contains(outputs, c) {
			return nil, ErrDuplicateCommitment
		}
		outputs = append(outputs, c)
	}
	if p.tree.Remaining() < uint64(len(outputs)) {
		return nil, ErrTreeFull
	}
	if !p.isKnownRoot(req.Root) {
		return nil, ErrUnknownRoot
	}

	inputs := &verifier.TransferInputs{
		Root:        req.Root,
		Nullifiers:  req.Nullifiers,
		Commitments: req.Commitments,
	}
	if err := p.transfer.Verify(req.Proof, inputs.Vector()); err != nil {
		log.Debugw("transfer proof rejected", "pool", p.id)
		return nil, ErrInvalidProof
	}

	st := p.stage()
	st.spent = spent
	res := &TransferResult{}
	t := &Transition{
		Op: OpTransfer,
		Event: Event{
			Type:        EventTransferred,
			Pool:        p.id,
			Nullifiers:  spent,
			Commitments: outputs,
		},
	}
	for _, c := range outputs {
		index, err := st.insert(c)
		if err != nil {
			return nil, err
		}
		res.LeafIndexes = append(res.LeafIndexes, index)
		t.Leaves = append(t.Leaves, Leaf{Index: index, Commitment: c})
	}
	if err := p.commit(ctx, st, t); err != nil {
		return nil, err
	}
	res.Root = st.currentRoot
	log.Debugw("private transfer", "pool", p.id, "inputs", len(spent), "outputs", len(outputs))
	return res, nil
}

// checkElement rejects the zero sentinel and non-canonical field encodings.
func checkElement(h types.Hash, sentinel error) error {
	if h.IsZero() {
		return fmt.Errorf("%w: zero", sentinel)
	}
	if !crypto.IsCanonical(h) {
		return fmt.Errorf("%w: not in field", sentinel)
	}
	return nil
}

// checkFee enforces fee <= amount and fee/amount <= maxBps/10000, computed
// on 128 bits.
func checkFee(amount, fee uint64, maxBps uint16) error {
	if fee > amount {
		return fmt.Errorf("%w: fee %d above amount %d", ErrFeeTooHigh, fee, amount)
	}
	feeHi, feeLo := bits.Mul64(fee, BasisPoints)
	capHi, capLo := bits.Mul64(amount, uint64(maxBps))
	if feeHi > capHi || (feeHi == capHi && feeLo > capLo) {
		return fmt.Errorf("%w: fee %d above %d bps of %d", ErrFeeTooHigh, fee, maxBps, amount)
	}
	return nil
}

func addUint64(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

package pool

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/whistle-protocol/shieldpool/history"
	"github.com/whistle-protocol/shieldpool/merkle"
	"github.com/whistle-protocol/shieldpool/types"
)

// Operation names a state-changing pool operation.
type Operation string

const (
	OpInitialize Operation = "initialize"
	OpShield     Operation = "shield"
	OpUnshield   Operation = "unshield"
	OpTransfer   Operation = "transfer"
)

// EventType identifies the kind of an Event.
type EventType string

const (
	EventPoolInitialized EventType = "PoolInitialized"
	EventDeposited       EventType = "Deposited"
	EventWithdrawn       EventType = "Withdrawn"
	EventTransferred     EventType = "Transferred"
)

// Event describes a committed operation. Only the fields relevant to the
// event type are set.
type Event struct {
	Type EventType `json:"type" cbor:"0,keyasint"`
	Pool string    `json:"pool" cbor:"1,keyasint"`

	Depth       int            `json:"depth,omitempty" cbor:"2,keyasint,omitempty"`
	Commitment  types.Hash     `json:"commitment" cbor:"3,keyasint"`
	LeafIndex   uint64         `json:"leafIndex,omitempty" cbor:"4,keyasint,omitempty"`
	Amount      uint64         `json:"amount,omitempty" cbor:"5,keyasint,omitempty"`
	Nullifier   types.Hash     `json:"nullifier" cbor:"6,keyasint"`
	Recipient   common.Address `json:"recipient" cbor:"7,keyasint"`
	Relayer     common.Address `json:"relayer" cbor:"8,keyasint"`
	Fee         uint64         `json:"fee,omitempty" cbor:"9,keyasint,omitempty"`
	Change      types.Hash     `json:"change" cbor:"10,keyasint"`
	Nullifiers  []types.Hash   `json:"nullifiers,omitempty" cbor:"11,keyasint,omitempty"`
	Commitments []types.Hash   `json:"commitments,omitempty" cbor:"12,keyasint,omitempty"`
	Root        types.Hash     `json:"root" cbor:"13,keyasint"`
}

// Direction tells whether value enters or leaves the pool custody.
type Direction uint8

const (
	// IntoPool moves value from an account to the pool vault.
	IntoPool Direction = iota
	// OutOfPool moves value from the pool vault to an account.
	OutOfPool
)

// Movement is a transfer of the settlement asset between an account and the
// pool vault.
type Movement struct {
	Direction Direction      `json:"direction" cbor:"0,keyasint"`
	Account   common.Address `json:"account" cbor:"1,keyasint"`
	Amount    uint64         `json:"amount" cbor:"2,keyasint"`
	// Nonce orders the deposits of Account, IntoPool only.
	Nonce uint64 `json:"nonce,omitempty" cbor:"3,keyasint,omitempty"`
}

// Leaf is a commitment appended to the accumulator.
type Leaf struct {
	Index      uint64     `json:"index" cbor:"0,keyasint"`
	Commitment types.Hash `json:"commitment" cbor:"1,keyasint"`
}

// Transition is everything a committed operation changes: the new leaves and
// spent nullifiers, the value movements and the complete post-operation
// snapshot.
type Transition struct {
	Op         Operation
	Leaves     []Leaf
	Nullifiers []types.Hash
	Movements  []Movement
	Snapshot   *Snapshot
	Event      Event
}

// Committer makes a transition durable and settles its movements. The pool
// applies the transition in memory only if Commit returns nil, so Commit
// must be all-or-nothing as well.
type Committer interface {
	Commit(ctx context.Context, t *Transition) error
}

// CommitterFunc adapts a function to the Committer interface.
type CommitterFunc func(ctx context.Context, t *Transition) error

func (f CommitterFunc) Commit(ctx context.Context, t *Transition) error {
	return f(ctx, t)
}

// Snapshot is the persisted form of a pool, without its nullifier list.
type Snapshot struct {
	ID             string            `json:"id" cbor:"0,keyasint"`
	Config         Config            `json:"config" cbor:"1,keyasint"`
	Initialized    bool              `json:"initialized" cbor:"2,keyasint"`
	Tree           *merkle.Snapshot  `json:"tree,omitempty" cbor:"3,keyasint,omitempty"`
	Roots          *history.Snapshot `json:"roots,omitempty" cbor:"4,keyasint,omitempty"`
	CurrentRoot    types.Hash        `json:"currentRoot" cbor:"5,keyasint"`
	TotalDeposited uint64            `json:"totalDeposited" cbor:"6,keyasint"`
	TotalShielded  uint64            `json:"totalShielded" cbor:"7,keyasint"`
	NullifierCount int               `json:"nullifierCount" cbor:"8,keyasint"`
}

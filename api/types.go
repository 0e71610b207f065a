package api

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/types"
)

// NewPool is the request to create and initialize a pool. A nil Config
// means the default pool configuration. The verifying keys are encoded
// in KeyFormat (gnark binary or snarkjs json).
type NewPool struct {
	ID            string         `json:"id"`
	Config        *pool.Config   `json:"config,omitempty"`
	Engine        string         `json:"engine,omitempty"`
	VerifierCache int            `json:"verifierCache,omitempty"`
	KeyFormat     string         `json:"keyFormat,omitempty"`
	WithdrawKey   types.HexBytes `json:"withdrawKey"`
	TransferKey   types.HexBytes `json:"transferKey"`
}

// PoolList is the list of the pools served by the node.
type PoolList struct {
	Pools []string `json:"pools"`
}

// PoolInfo is the public state of a pool.
type PoolInfo struct {
	pool.State
	Config       pool.Config    `json:"config"`
	VaultBalance uint64         `json:"vaultBalance"`
	AuditRoot    types.HexBytes `json:"auditRoot"`
}

// Shield is the request to deposit Amount from Depositor behind a note
// commitment. Nonce must be the depositor's next deposit nonce, as returned
// by the balance endpoint. Signature is the depositor's EIP-191 signature of
// ShieldMessage.
type Shield struct {
	Depositor  common.Address `json:"depositor"`
	Commitment types.Hash     `json:"commitment"`
	Amount     uint64         `json:"amount"`
	Nonce      uint64         `json:"nonce"`
	Signature  types.HexBytes `json:"signature"`
}

// ShieldMessage is the message a depositor signs to authorize debiting
// amount from its account into the pool. A signed message is spendable once.
func ShieldMessage(poolID string, commitment types.Hash, amount, nonce uint64) []byte {
	return []byte(fmt.Sprintf("shield %d into %s behind %s with nonce %d", amount, poolID, commitment, nonce))
}

// Unshield is the request to spend a note. Proof is the 256 byte
// A ‖ B ‖ C encoding. A zero ChangeCommitment means no change note.
type Unshield struct {
	Proof            types.HexBytes `json:"proof"`
	Nullifier        types.Hash     `json:"nullifier"`
	Recipient        common.Address `json:"recipient"`
	Relayer          common.Address `json:"relayer"`
	Amount           uint64         `json:"amount"`
	Fee              uint64         `json:"fee"`
	Root             types.Hash     `json:"root"`
	ChangeCommitment types.Hash     `json:"changeCommitment"`
}

// Transfer is the request to spend up to two notes into up to two new ones.
// Zero nullifiers and commitments are absent.
type Transfer struct {
	Proof       types.HexBytes `json:"proof"`
	Nullifiers  [2]types.Hash  `json:"nullifiers"`
	Commitments [2]types.Hash  `json:"commitments"`
	Root        types.Hash     `json:"root"`
}

// RootStatus tells whether a pool accepts proofs against Root.
type RootStatus struct {
	Root    types.Hash `json:"root"`
	Known   bool       `json:"known"`
	Current bool       `json:"current"`
}

// Leaves is a page of note commitments starting at index From.
type Leaves struct {
	From   uint64       `json:"from"`
	Leaves []types.Hash `json:"leaves"`
}

// Events is a page of pool events starting at sequence From.
type Events struct {
	From   uint64       `json:"from"`
	Events []pool.Event `json:"events"`
}

// Balance is the ledger balance of an account and the nonce its next
// deposit must be signed with.
type Balance struct {
	Address common.Address `json:"address"`
	Balance uint64         `json:"balance"`
	Nonce   uint64         `json:"nonce"`
}

// CommitmentStatus locates a note commitment in the accumulator.
type CommitmentStatus struct {
	Commitment types.Hash `json:"commitment"`
	LeafIndex  uint64     `json:"leafIndex"`
}

// Fund is the request to credit an account from the faucet.
type Fund struct {
	Amount uint64 `json:"amount"`
}

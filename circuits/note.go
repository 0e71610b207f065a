package circuits

import (
	"fmt"

	"github.com/whistle-protocol/shieldpool/crypto/hash"
	"github.com/whistle-protocol/shieldpool/types"
	"github.com/whistle-protocol/shieldpool/util"
)

// Note is the secret material of a shielded note as held by its owner.
type Note struct {
	Secret types.Hash `json:"secret"`
	Seed   types.Hash `json:"seed"`
	Amount uint64     `json:"amount"`
}

// NewNote returns a note with random secret and seed.
func NewNote(amount uint64) *Note {
	return &Note{
		Secret: util.RandomFieldElement(),
		Seed:   util.RandomFieldElement(),
		Amount: amount,
	}
}

// Commitment returns the leaf the note is stored as.
func (n *Note) Commitment(h hash.Hasher) (types.Hash, error) {
	cm, err := hash.Commitment(h, n.Secret, n.Seed, n.Amount)
	if err != nil {
		return types.Hash{}, fmt.Errorf("note commitment: %w", err)
	}
	return cm, nil
}

// Nullifier returns the hash revealed when the note is spent.
func (n *Note) Nullifier(h hash.Hasher) (types.Hash, error) {
	nf, err := hash.NullifierHash(h, n.Seed)
	if err != nil {
		return types.Hash{}, fmt.Errorf("note nullifier: %w", err)
	}
	return nf, nil
}

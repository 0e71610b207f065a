// Package hash provides the two-to-one hash used to build the commitment
// accumulator. The function is a protocol parameter: it must be the one the
// proving circuits use, otherwise roots never match and every proof fails
// without any error on the hashing side. Pools pin it by name.
package hash

import (
	"fmt"

	"github.com/whistle-protocol/shieldpool/crypto/hash/keccak"
	"github.com/whistle-protocol/shieldpool/crypto/hash/mimc"
	"github.com/whistle-protocol/shieldpool/crypto/hash/poseidon"
	"github.com/whistle-protocol/shieldpool/types"
)

const (
	MiMC     = "mimc"
	Poseidon = "poseidon"
	Keccak   = "keccak256"

	// Default is the hash matching the reference circuits.
	Default = MiMC
)

// ErrUnknownHash is returned by New for unsupported names.
var ErrUnknownHash = fmt.Errorf("unknown hash function")

// Hasher combines two field elements into one. Inputs must be canonical
// field elements, implementations return an error otherwise.
type Hasher interface {
	Name() string
	Hash(left, right types.Hash) (types.Hash, error)
}

// New returns the hasher registered under name.
func New(name string) (Hasher, error) {
	switch name {
	case MiMC:
		return mimc.Hasher{}, nil
	case Poseidon:
		return poseidon.Hasher{}, nil
	case Keccak:
		return keccak.Hasher{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHash, name)
	}
}

// Names lists the supported hash functions.
func Names() []string {
	return []string{MiMC, Poseidon, Keccak}
}

// Commitment computes the note commitment H(H(secret, seed), amount). The
// pool never calls it; wallets and tests do.
func Commitment(h Hasher, secret, seed types.Hash, amount uint64) (types.Hash, error) {
	inner, err := h.Hash(secret, seed)
	if err != nil {
		return types.Hash{}, err
	}
	return h.Hash(inner, types.Uint64ToHash(amount))
}

// NullifierHash computes H(seed, seed), the value revealed when the note is
// spent.
func NullifierHash(h Hasher, seed types.Hash) (types.Hash, error) {
	return h.Hash(seed, seed)
}

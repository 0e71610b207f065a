package types

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// HashLen is the size in bytes of every field element handled by the pool:
// commitments, nullifier hashes, tree nodes and roots.
const HashLen = 32

// Hash is a 32-byte big-endian field element. The all-zero value is used as
// the "absent" sentinel (empty leaf, no change commitment, unset root).
type Hash [HashLen]byte

// ZeroHash is the all-zero sentinel.
var ZeroHash Hash

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) BigInt() *big.Int {
	return new(big.Int).SetBytes(h[:])
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(data []byte) error {
	parsed, err := HexToHash(string(data))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HexToHash parses a hex string, with or without 0x prefix, holding at most
// 32 bytes. Shorter values are left-padded.
func HexToHash(s string) (Hash, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return BytesToHash(b)
}

// BytesToHash left-pads b to 32 bytes. It fails if b is longer.
func BytesToHash(b []byte) (Hash, error) {
	var h Hash
	if len(b) > HashLen {
		return h, fmt.Errorf("hash too long: %d bytes", len(b))
	}
	copy(h[HashLen-len(b):], b)
	return h, nil
}

// BigToHash encodes a non-negative integer of at most 256 bits.
func BigToHash(i *big.Int) (Hash, error) {
	if i.Sign() < 0 {
		return Hash{}, fmt.Errorf("negative value %s", i)
	}
	return BytesToHash(i.Bytes())
}

// Uint64ToHash encodes an amount as a field element.
func Uint64ToHash(v uint64) Hash {
	h, _ := BigToHash(new(big.Int).SetUint64(v))
	return h
}

// AddressToHash left-pads a 20-byte address into a field element.
func AddressToHash(addr common.Address) Hash {
	var h Hash
	copy(h[HashLen-common.AddressLength:], addr[:])
	return h
}

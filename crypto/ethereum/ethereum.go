// Package ethereum wraps secp256k1 keys and EIP-191 personal message
// signatures, which is how ledger accounts authorize moving their funds.
package ethereum

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the length of an [R ‖ S ‖ V] signature.
const SignatureLength = ethcrypto.SignatureLength

var ErrInvalidSignature = errors.New("invalid signature")

// SignKeys holds a secp256k1 private key.
type SignKeys struct {
	private *ecdsa.PrivateKey
}

func NewSignKeys() *SignKeys {
	return &SignKeys{}
}

// Generate creates a new random key.
func (k *SignKeys) Generate() error {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return err
	}
	k.private = key
	return nil
}

// AddHexKey imports a hex encoded private key, with or without 0x prefix.
func (k *SignKeys) AddHexKey(privHex string) error {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privHex, "0x"))
	if err != nil {
		return fmt.Errorf("import key: %w", err)
	}
	k.private = key
	return nil
}

// HexString returns the compressed public key and the private key, hex
// encoded without prefix.
func (k *SignKeys) HexString() (string, string) {
	if k.private == nil {
		return "", ""
	}
	return hex.EncodeToString(k.PublicKey()), hex.EncodeToString(ethcrypto.FromECDSA(k.private))
}

// PublicKey returns the compressed public key.
func (k *SignKeys) PublicKey() []byte {
	return ethcrypto.CompressPubkey(&k.private.PublicKey)
}

func (k *SignKeys) Address() common.Address {
	return ethcrypto.PubkeyToAddress(k.private.PublicKey)
}

func (k *SignKeys) AddressString() string {
	return k.Address().String()
}

// SignEthereum signs the EIP-191 hash of message. V is 0 or 1.
func (k *SignKeys) SignEthereum(message []byte) ([]byte, error) {
	if k.private == nil {
		return nil, errors.New("no private key")
	}
	return ethcrypto.Sign(accounts.TextHash(message), k.private)
}

// AddrFromPublicKey derives the address of a compressed or uncompressed
// public key.
func AddrFromPublicKey(pub []byte) (common.Address, error) {
	var (
		key *ecdsa.PublicKey
		err error
	)
	if len(pub) == 33 {
		key, err = ethcrypto.DecompressPubkey(pub)
	} else {
		key, err = ethcrypto.UnmarshalPubkey(pub)
	}
	if err != nil {
		return common.Address{}, fmt.Errorf("decode public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*key), nil
}

// AddrFromSignature recovers the address that signed message. Both the 0/1
// and the 27/28 V conventions are accepted.
func AddrFromSignature(message, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(signature))
	}
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := ethcrypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}

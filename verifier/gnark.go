package verifier

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/whistle-protocol/shieldpool/crypto/ecc/bn254"
)

// FromGnarkVerifyingKey converts a BN254 gnark verifying key. Keys of
// circuits using commitments (Pedersen extensions) are not supported.
func FromGnarkVerifyingKey(vk groth16.VerifyingKey) (*VerifyingKey, error) {
	bvk, ok := vk.(*groth16_bn254.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected BN254 gnark key, got %T", ErrInvalidKey, vk)
	}
	if len(bvk.CommitmentKeys) > 0 {
		return nil, fmt.Errorf("%w: circuits with commitments are not supported", ErrInvalidKey)
	}
	out := &VerifyingKey{}
	copy(out.Alpha[:], bn254.EncodeG1(&bvk.G1.Alpha))
	copy(out.Beta[:], bn254.EncodeG2(&bvk.G2.Beta))
	copy(out.Gamma[:], bn254.EncodeG2(&bvk.G2.Gamma))
	copy(out.Delta[:], bn254.EncodeG2(&bvk.G2.Delta))
	out.IC = make([][64]byte, len(bvk.G1.K))
	for i := range bvk.G1.K {
		copy(out.IC[i][:], bn254.EncodeG1(&bvk.G1.K[i]))
	}
	return out, nil
}

// ReadGnarkVerifyingKey reads a verifying key serialized with gnark's
// WriteTo and converts it.
func ReadGnarkVerifyingKey(r io.Reader) (*VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read gnark verifying key: %w", err)
	}
	return FromGnarkVerifyingKey(vk)
}

// FromGnarkProof converts a BN254 gnark proof.
func FromGnarkProof(p groth16.Proof) (*Proof, error) {
	bp, ok := p.(*groth16_bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("expected BN254 gnark proof, got %T", p)
	}
	if len(bp.Commitments) > 0 {
		return nil, fmt.Errorf("proofs with commitments are not supported")
	}
	out := &Proof{}
	copy(out.A[:], bn254.EncodeG1(&bp.Ar))
	copy(out.B[:], bn254.EncodeG2(&bp.Bs))
	copy(out.C[:], bn254.EncodeG1(&bp.Krs))
	return out, nil
}

package verifier

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/whistle-protocol/shieldpool/types"
)

// snarkJSVerifyingKey mirrors the verification_key.json written by snarkjs.
// Points are projective, G2 coordinates are [real, imaginary] pairs.
type snarkJSVerifyingKey struct {
	Protocol string           `json:"protocol"`
	Curve    string           `json:"curve"`
	NPublic  int              `json:"nPublic"`
	Alpha    []types.BigInt   `json:"vk_alpha_1"`
	Beta     [][]types.BigInt `json:"vk_beta_2"`
	Gamma    [][]types.BigInt `json:"vk_gamma_2"`
	Delta    [][]types.BigInt `json:"vk_delta_2"`
	IC       [][]types.BigInt `json:"IC"`
}

// snarkJSProof mirrors the proof.json written by snarkjs.
type snarkJSProof struct {
	A []types.BigInt   `json:"pi_a"`
	B [][]types.BigInt `json:"pi_b"`
	C []types.BigInt   `json:"pi_c"`
}

// LoadSnarkJSVerifyingKey parses a snarkjs Groth16 verification key for the
// bn128 (BN254) curve.
func LoadSnarkJSVerifyingKey(data []byte) (*VerifyingKey, error) {
	var raw snarkJSVerifyingKey
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snarkjs verifying key: %w", err)
	}
	if raw.Protocol != "groth16" {
		return nil, fmt.Errorf("%w: unsupported protocol %q", ErrInvalidKey, raw.Protocol)
	}
	if raw.Curve != "bn128" && raw.Curve != "bn254" {
		return nil, fmt.Errorf("%w: unsupported curve %q", ErrInvalidKey, raw.Curve)
	}
	if len(raw.IC) != raw.NPublic+1 {
		return nil, fmt.Errorf("%w: %d IC points for %d public inputs", ErrInvalidKey, len(raw.IC), raw.NPublic)
	}
	vk := &VerifyingKey{IC: make([][types.G1PointSize]byte, len(raw.IC))}
	var err error
	if vk.Alpha, err = snarkJSG1(raw.Alpha); err != nil {
		return nil, fmt.Errorf("%w: alpha: %v", ErrInvalidKey, err)
	}
	if vk.Beta, err = snarkJSG2(raw.Beta); err != nil {
		return nil, fmt.Errorf("%w: beta: %v", ErrInvalidKey, err)
	}
	if vk.Gamma, err = snarkJSG2(raw.Gamma); err != nil {
		return nil, fmt.Errorf("%w: gamma: %v", ErrInvalidKey, err)
	}
	if vk.Delta, err = snarkJSG2(raw.Delta); err != nil {
		return nil, fmt.Errorf("%w: delta: %v", ErrInvalidKey, err)
	}
	for i, p := range raw.IC {
		if vk.IC[i], err = snarkJSG1(p); err != nil {
			return nil, fmt.Errorf("%w: IC[%d]: %v", ErrInvalidKey, i, err)
		}
	}
	return vk, nil
}

// LoadSnarkJSProof parses a snarkjs Groth16 proof.
func LoadSnarkJSProof(data []byte) (*Proof, error) {
	var raw snarkJSProof
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snarkjs proof: %w", err)
	}
	p := &Proof{}
	var err error
	if p.A, err = snarkJSG1(raw.A); err != nil {
		return nil, fmt.Errorf("pi_a: %w", err)
	}
	if p.B, err = snarkJSG2(raw.B); err != nil {
		return nil, fmt.Errorf("pi_b: %w", err)
	}
	if p.C, err = snarkJSG1(raw.C); err != nil {
		return nil, fmt.Errorf("pi_c: %w", err)
	}
	return p, nil
}

func snarkJSG1(coords []types.BigInt) ([types.G1PointSize]byte, error) {
	var out [types.G1PointSize]byte
	if len(coords) != 3 && len(coords) != 2 {
		return out, fmt.Errorf("expected 3 projective coordinates, got %d", len(coords))
	}
	if len(coords) == 3 && coords[2].MathBigInt().Sign() == 0 {
		return out, nil // point at infinity
	}
	if err := putCoord(out[0:32], &coords[0]); err != nil {
		return out, err
	}
	if err := putCoord(out[32:64], &coords[1]); err != nil {
		return out, err
	}
	return out, nil
}

// snarkJSG2 converts [[x.c0, x.c1], [y.c0, y.c1], [z.c0, z.c1]] into
// x.c1 ‖ x.c0 ‖ y.c1 ‖ y.c0.
func snarkJSG2(coords [][]types.BigInt) ([types.G2PointSize]byte, error) {
	var out [types.G2PointSize]byte
	if len(coords) != 3 && len(coords) != 2 {
		return out, fmt.Errorf("expected 3 projective coordinates, got %d", len(coords))
	}
	for _, c := range coords {
		if len(c) != 2 {
			return out, fmt.Errorf("expected quadratic extension element, got %d limbs", len(c))
		}
	}
	if len(coords) == 3 && coords[2][0].MathBigInt().Sign() == 0 && coords[2][1].MathBigInt().Sign() == 0 {
		return out, nil
	}
	limbs := []*types.BigInt{&coords[0][1], &coords[0][0], &coords[1][1], &coords[1][0]}
	for i, l := range limbs {
		if err := putCoord(out[i*32:(i+1)*32], l); err != nil {
			return out, err
		}
	}
	return out, nil
}

func putCoord(dst []byte, v *types.BigInt) error {
	b := v.MathBigInt()
	if b.Sign() < 0 || b.BitLen() > 256 {
		return fmt.Errorf("coordinate out of range: %s", v)
	}
	new(big.Int).Set(b).FillBytes(dst)
	return nil
}

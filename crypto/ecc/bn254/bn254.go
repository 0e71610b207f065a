// Package bn254 implements ecc.Engine with gnark-crypto. Decoding enforces
// canonical coordinates, curve membership and, for G2, membership of the
// prime order subgroup.
package bn254

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/whistle-protocol/shieldpool/crypto/ecc"
)

const CurveType = "bn254"

// Engine is the gnark-crypto backed curve capability.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (*Engine) Name() string {
	return CurveType
}

func (*Engine) G1Add(a, b []byte) ([]byte, error) {
	pa, err := DecodeG1(a)
	if err != nil {
		return nil, err
	}
	pb, err := DecodeG1(b)
	if err != nil {
		return nil, err
	}
	var r bn254.G1Affine
	r.Add(pa, pb)
	return EncodeG1(&r), nil
}

func (*Engine) G1ScalarMul(p, scalar []byte) ([]byte, error) {
	if len(scalar) != ecc.ScalarSize {
		return nil, fmt.Errorf("%w: scalar has %d bytes", ecc.ErrInvalidLength, len(scalar))
	}
	pp, err := DecodeG1(p)
	if err != nil {
		return nil, err
	}
	s := new(big.Int).SetBytes(scalar)
	s.Mod(s, fr.Modulus())
	var r bn254.G1Affine
	r.ScalarMultiplication(pp, s)
	return EncodeG1(&r), nil
}

func (*Engine) G1Neg(p []byte) ([]byte, error) {
	pp, err := DecodeG1(p)
	if err != nil {
		return nil, err
	}
	var r bn254.G1Affine
	r.Neg(pp)
	return EncodeG1(&r), nil
}

func (*Engine) PairingCheck(g1, g2 [][]byte) (bool, error) {
	if len(g1) != len(g2) || len(g1) == 0 {
		return false, fmt.Errorf("%w: %d G1 and %d G2 points", ecc.ErrPairingInput, len(g1), len(g2))
	}
	ps := make([]bn254.G1Affine, len(g1))
	qs := make([]bn254.G2Affine, len(g2))
	for i := range g1 {
		p, err := DecodeG1(g1[i])
		if err != nil {
			return false, err
		}
		q, err := DecodeG2(g2[i])
		if err != nil {
			return false, err
		}
		ps[i], qs[i] = *p, *q
	}
	return bn254.PairingCheck(ps, qs)
}

// DecodeG1 parses a 64-byte X ‖ Y encoding.
func DecodeG1(b []byte) (*bn254.G1Affine, error) {
	if len(b) != ecc.G1Size {
		return nil, fmt.Errorf("%w: G1 has %d bytes", ecc.ErrInvalidLength, len(b))
	}
	p := new(bn254.G1Affine)
	if ecc.IsZero(b) {
		return p, nil
	}
	if err := p.X.SetBytesCanonical(b[:32]); err != nil {
		return nil, fmt.Errorf("%w: G1.X: %v", ecc.ErrInvalidPoint, err)
	}
	if err := p.Y.SetBytesCanonical(b[32:]); err != nil {
		return nil, fmt.Errorf("%w: G1.Y: %v", ecc.ErrInvalidPoint, err)
	}
	if !p.IsOnCurve() {
		return nil, fmt.Errorf("%w: G1 not on curve", ecc.ErrInvalidPoint)
	}
	return p, nil
}

// DecodeG2 parses a 128-byte X.imag ‖ X.real ‖ Y.imag ‖ Y.real encoding.
func DecodeG2(b []byte) (*bn254.G2Affine, error) {
	if len(b) != ecc.G2Size {
		return nil, fmt.Errorf("%w: G2 has %d bytes", ecc.ErrInvalidLength, len(b))
	}
	q := new(bn254.G2Affine)
	if ecc.IsZero(b) {
		return q, nil
	}
	coords := []*fp.Element{&q.X.A1, &q.X.A0, &q.Y.A1, &q.Y.A0}
	for i, c := range coords {
		if err := c.SetBytesCanonical(b[i*32 : (i+1)*32]); err != nil {
			return nil, fmt.Errorf("%w: G2 coordinate %d: %v", ecc.ErrInvalidPoint, i, err)
		}
	}
	if !q.IsOnCurve() {
		return nil, fmt.Errorf("%w: G2 not on curve", ecc.ErrInvalidPoint)
	}
	if !q.IsInSubGroup() {
		return nil, fmt.Errorf("%w: G2 not in subgroup", ecc.ErrInvalidPoint)
	}
	return q, nil
}

// EncodeG1 serializes p as X ‖ Y, infinity as all zeroes.
func EncodeG1(p *bn254.G1Affine) []byte {
	out := make([]byte, ecc.G1Size)
	if p.IsInfinity() {
		return out
	}
	x, y := p.X.Bytes(), p.Y.Bytes()
	copy(out[:32], x[:])
	copy(out[32:], y[:])
	return out
}

// EncodeG2 serializes q in EIP-197 order, infinity as all zeroes.
func EncodeG2(q *bn254.G2Affine) []byte {
	out := make([]byte, ecc.G2Size)
	if q.IsInfinity() {
		return out
	}
	for i, e := range [][32]byte{q.X.A1.Bytes(), q.X.A0.Bytes(), q.Y.A1.Bytes(), q.Y.A0.Bytes()} {
		copy(out[i*32:], e[:])
	}
	return out
}

// Generators returns the encoded G1 and G2 generators.
func Generators() ([]byte, []byte) {
	_, _, g1, g2 := bn254.Generators()
	return EncodeG1(&g1), EncodeG2(&g2)
}

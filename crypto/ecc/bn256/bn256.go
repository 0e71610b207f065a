// Package bn256 implements ecc.Engine on top of go-ethereum's bn256 package,
// the same code backing the EVM pairing precompiles.
package bn256

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto/bn256"
	"github.com/whistle-protocol/shieldpool/crypto/ecc"
)

const CurveType = "bn256"

// Engine is the go-ethereum backed curve capability.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (*Engine) Name() string {
	return CurveType
}

func (*Engine) G1Add(a, b []byte) ([]byte, error) {
	pa, err := decodeG1(a)
	if err != nil {
		return nil, err
	}
	pb, err := decodeG1(b)
	if err != nil {
		return nil, err
	}
	return new(bn256.G1).Add(pa, pb).Marshal(), nil
}

func (*Engine) G1ScalarMul(p, scalar []byte) ([]byte, error) {
	if len(scalar) != ecc.ScalarSize {
		return nil, fmt.Errorf("%w: scalar has %d bytes", ecc.ErrInvalidLength, len(scalar))
	}
	pp, err := decodeG1(p)
	if err != nil {
		return nil, err
	}
	return new(bn256.G1).ScalarMult(pp, new(big.Int).SetBytes(scalar)).Marshal(), nil
}

func (*Engine) G1Neg(p []byte) ([]byte, error) {
	pp, err := decodeG1(p)
	if err != nil {
		return nil, err
	}
	return new(bn256.G1).Neg(pp).Marshal(), nil
}

func (*Engine) PairingCheck(g1, g2 [][]byte) (bool, error) {
	if len(g1) != len(g2) || len(g1) == 0 {
		return false, fmt.Errorf("%w: %d G1 and %d G2 points", ecc.ErrPairingInput, len(g1), len(g2))
	}
	ps := make([]*bn256.G1, len(g1))
	qs := make([]*bn256.G2, len(g2))
	for i := range g1 {
		p, err := decodeG1(g1[i])
		if err != nil {
			return false, err
		}
		if len(g2[i]) != ecc.G2Size {
			return false, fmt.Errorf("%w: G2 has %d bytes", ecc.ErrInvalidLength, len(g2[i]))
		}
		q := new(bn256.G2)
		if _, err := q.Unmarshal(g2[i]); err != nil {
			return false, fmt.Errorf("%w: %v", ecc.ErrInvalidPoint, err)
		}
		ps[i], qs[i] = p, q
	}
	return bn256.PairingCheck(ps, qs), nil
}

func decodeG1(b []byte) (*bn256.G1, error) {
	if len(b) != ecc.G1Size {
		return nil, fmt.Errorf("%w: G1 has %d bytes", ecc.ErrInvalidLength, len(b))
	}
	p := new(bn256.G1)
	if _, err := p.Unmarshal(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ecc.ErrInvalidPoint, err)
	}
	return p, nil
}

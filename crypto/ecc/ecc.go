// Package ecc defines the pairing-capable curve arithmetic the proof verifier
// relies on. Points travel as fixed-size byte strings in the EIP-196/197
// layout so that any BN254 backend can be plugged in:
//
//   - G1: 64 bytes, X ‖ Y, each coordinate 32 bytes big-endian.
//   - G2: 128 bytes, X.imag ‖ X.real ‖ Y.imag ‖ Y.real.
//   - Scalars: 32 bytes big-endian.
//
// The all-zero encoding is the point at infinity in both groups.
package ecc

import "fmt"

const (
	G1Size     = 64
	G2Size     = 128
	ScalarSize = 32
)

var (
	ErrInvalidLength = fmt.Errorf("invalid point encoding length")
	ErrInvalidPoint  = fmt.Errorf("invalid curve point")
	ErrPairingInput  = fmt.Errorf("mismatched pairing input")
)

// Engine is the curve capability: point addition, scalar multiplication and
// negation in G1, plus a multi-pairing check over G1 x G2.
type Engine interface {
	// Name identifies the backend.
	Name() string
	// G1Add returns a + b.
	G1Add(a, b []byte) ([]byte, error)
	// G1ScalarMul returns scalar * p.
	G1ScalarMul(p, scalar []byte) ([]byte, error)
	// G1Neg returns -p.
	G1Neg(p []byte) ([]byte, error)
	// PairingCheck reports whether the product of e(g1[i], g2[i]) is the
	// identity of the target group.
	PairingCheck(g1, g2 [][]byte) (bool, error)
}

// IsZero reports whether the encoding is the all-zero infinity point.
func IsZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

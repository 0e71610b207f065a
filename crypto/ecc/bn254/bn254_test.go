package bn254

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	qt "github.com/frankban/quicktest"
)

func TestEncodeDecode(t *testing.T) {
	c := qt.New(t)
	_, _, g1, g2 := bn254.Generators()

	enc1 := EncodeG1(&g1)
	c.Assert(enc1[31], qt.Equals, byte(1))
	c.Assert(enc1[63], qt.Equals, byte(2))
	p, err := DecodeG1(enc1)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Equal(&g1), qt.IsTrue)

	enc2 := EncodeG2(&g2)
	q, err := DecodeG2(enc2)
	c.Assert(err, qt.IsNil)
	c.Assert(q.Equal(&g2), qt.IsTrue)
	// imaginary part of X goes first
	x1 := g2.X.A1.Bytes()
	c.Assert(enc2[:32], qt.DeepEquals, x1[:])

	var inf bn254.G1Affine
	c.Assert(EncodeG1(&inf), qt.DeepEquals, make([]byte, 64))
	p, err = DecodeG1(make([]byte, 64))
	c.Assert(err, qt.IsNil)
	c.Assert(p.IsInfinity(), qt.IsTrue)
	q, err = DecodeG2(make([]byte, 128))
	c.Assert(err, qt.IsNil)
	c.Assert(q.IsInfinity(), qt.IsTrue)
}

package crypto

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/whistle-protocol/shieldpool/types"
)

func TestIsCanonical(t *testing.T) {
	c := qt.New(t)
	below, err := types.BigToHash(new(big.Int).Sub(ScalarField, big.NewInt(1)))
	c.Assert(err, qt.IsNil)
	c.Assert(IsCanonical(below), qt.IsTrue)
	c.Assert(IsCanonical(types.Hash{}), qt.IsTrue)

	modulus, err := types.BigToHash(ScalarField)
	c.Assert(err, qt.IsNil)
	c.Assert(IsCanonical(modulus), qt.IsFalse)
}

func TestReduceToField(t *testing.T) {
	c := qt.New(t)
	plusTwo := new(big.Int).Add(ScalarField, big.NewInt(2))
	c.Assert(ReduceToField(plusTwo.Bytes()), qt.Equals, types.Uint64ToHash(2))
	c.Assert(ReduceToField([]byte{7}), qt.Equals, types.Uint64ToHash(7))
	c.Assert(IsCanonical(ReduceToField(make([]byte, 64))), qt.IsTrue)
}

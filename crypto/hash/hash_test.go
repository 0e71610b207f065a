package hash

import (
	"math/big"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	qt "github.com/frankban/quicktest"
	"github.com/whistle-protocol/shieldpool/crypto"
	"github.com/whistle-protocol/shieldpool/types"
)

func TestHashers(t *testing.T) {
	c := qt.New(t)
	one := types.Uint64ToHash(1)
	two := types.Uint64ToHash(2)

	for _, name := range Names() {
		h, err := New(name)
		c.Assert(err, qt.IsNil)
		c.Assert(h.Name(), qt.Equals, name)

		ab, err := h.Hash(one, two)
		c.Assert(err, qt.IsNil)
		again, err := h.Hash(one, two)
		c.Assert(err, qt.IsNil)
		c.Assert(ab, qt.Equals, again, qt.Commentf("%s is not deterministic", name))

		ba, err := h.Hash(two, one)
		c.Assert(err, qt.IsNil)
		c.Assert(ab, qt.Not(qt.Equals), ba, qt.Commentf("%s ignores argument order", name))
		c.Assert(crypto.IsCanonical(ab), qt.IsTrue)

		// the modulus itself is out of field
		mod, err := types.BigToHash(crypto.ScalarField)
		c.Assert(err, qt.IsNil)
		_, err = h.Hash(mod, one)
		c.Assert(err, qt.IsNotNil, qt.Commentf("%s accepted a non canonical input", name))
	}

	_, err := New("sha3")
	c.Assert(err, qt.ErrorIs, ErrUnknownHash)
}

func TestPoseidonKnownValue(t *testing.T) {
	c := qt.New(t)
	h, err := New(Poseidon)
	c.Assert(err, qt.IsNil)
	res, err := h.Hash(types.Uint64ToHash(1), types.Uint64ToHash(2))
	c.Assert(err, qt.IsNil)
	expected, ok := new(big.Int).SetString("7853200120776062878684798364095072458815029376092732009249414926327459813530", 10)
	c.Assert(ok, qt.IsTrue)
	c.Assert(res.BigInt().Cmp(expected), qt.Equals, 0)
}

func TestKeccakReduction(t *testing.T) {
	c := qt.New(t)
	h, err := New(Keccak)
	c.Assert(err, qt.IsNil)
	left, right := types.Uint64ToHash(1), types.Uint64ToHash(2)
	res, err := h.Hash(left, right)
	c.Assert(err, qt.IsNil)

	raw := new(big.Int).SetBytes(ethcrypto.Keccak256(left[:], right[:]))
	c.Assert(res.BigInt().Cmp(new(big.Int).Mod(raw, crypto.ScalarField)), qt.Equals, 0)
}

func TestNoteHelpers(t *testing.T) {
	c := qt.New(t)
	h, err := New(Default)
	c.Assert(err, qt.IsNil)

	secret := types.Uint64ToHash(11)
	seed := types.Uint64ToHash(22)
	cm, err := Commitment(h, secret, seed, 1_000_000_000)
	c.Assert(err, qt.IsNil)
	inner, err := h.Hash(secret, seed)
	c.Assert(err, qt.IsNil)
	expected, err := h.Hash(inner, types.Uint64ToHash(1_000_000_000))
	c.Assert(err, qt.IsNil)
	c.Assert(cm, qt.Equals, expected)

	other, err := Commitment(h, secret, seed, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(other, qt.Not(qt.Equals), cm)

	nf, err := NullifierHash(h, seed)
	c.Assert(err, qt.IsNil)
	c.Assert(nf.IsZero(), qt.IsFalse)
	c.Assert(nf, qt.Not(qt.Equals), cm)
}

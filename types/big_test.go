package types

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

// bigValues are amounts and field elements a BigInt carries in practice.
func bigValues(c *qt.C) map[string]*BigInt {
	field, ok := new(big.Int).SetString("21888242871839275222246405745257275088548364400416034343698204186575808495616", 10)
	c.Assert(ok, qt.IsTrue)
	return map[string]*BigInt{
		"zero":    NewInt(0),
		"lamport": NewInt(1),
		"sol":     NewInt(LamportsPerSol),
		"max":     NewInt(^uint64(0)),
		"field":   (*BigInt)(field),
	}
}

func TestBigJSON(t *testing.T) {
	c := qt.New(t)
	for name, bi := range bigValues(c) {
		data, err := json.Marshal(map[string]*BigInt{"v": bi})
		c.Assert(err, qt.IsNil)
		c.Assert(string(data), qt.Equals, `{"v":"`+bi.String()+`"}`)

		var got map[string]*BigInt
		c.Assert(json.Unmarshal(data, &got), qt.IsNil)
		c.Assert(got["v"].MathBigInt().Cmp(bi.MathBigInt()), qt.Equals, 0, qt.Commentf("%s", name))
	}

	var bi BigInt
	c.Assert(json.Unmarshal([]byte(`"0x3b9aca00"`), &bi), qt.IsNil)
	c.Assert(bi.MathBigInt().Uint64(), qt.Equals, LamportsPerSol)
	c.Assert(json.Unmarshal([]byte(`1000000000`), &bi), qt.IsNil)
	c.Assert(bi.MathBigInt().Uint64(), qt.Equals, LamportsPerSol)
	c.Assert(json.Unmarshal([]byte(`"ten"`), &bi), qt.ErrorMatches, `invalid BigInt "ten"`)
}

func TestBigCBOR(t *testing.T) {
	c := qt.New(t)
	for name, bi := range bigValues(c) {
		data, err := cbor.Marshal(map[string]*BigInt{"v": bi})
		c.Assert(err, qt.IsNil)

		var got map[string]*BigInt
		c.Assert(cbor.Unmarshal(data, &got), qt.IsNil)
		c.Assert(got["v"].MathBigInt().Cmp(bi.MathBigInt()), qt.Equals, 0, qt.Commentf("%s", name))
	}
}

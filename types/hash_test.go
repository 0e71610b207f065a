package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

func TestHashText(t *testing.T) {
	c := qt.New(t)

	h, err := HexToHash("0x0102")
	c.Assert(err, qt.IsNil)
	c.Assert(h[30], qt.Equals, byte(1))
	c.Assert(h[31], qt.Equals, byte(2))
	c.Assert(h.BigInt().Int64(), qt.Equals, int64(258))

	data, err := json.Marshal(map[string]Hash{"root": h})
	c.Assert(err, qt.IsNil)
	var decoded map[string]Hash
	c.Assert(json.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded["root"], qt.Equals, h)

	_, err = HexToHash("0xzz")
	c.Assert(err, qt.IsNotNil)

	long := make([]byte, 33)
	_, err = BytesToHash(long)
	c.Assert(err, qt.ErrorMatches, "hash too long.*")

	_, err = BigToHash(big.NewInt(-1))
	c.Assert(err, qt.IsNotNil)
}

func TestHashCBOR(t *testing.T) {
	c := qt.New(t)
	h := Uint64ToHash(1_000_000_000)
	data, err := cbor.Marshal(h)
	c.Assert(err, qt.IsNil)
	var decoded Hash
	c.Assert(cbor.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded, qt.Equals, h)
	c.Assert(decoded.IsZero(), qt.IsFalse)
	c.Assert(ZeroHash.IsZero(), qt.IsTrue)
}

func TestAddressToHash(t *testing.T) {
	c := qt.New(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	h := AddressToHash(addr)
	c.Assert(h.BigInt().Int64(), qt.Equals, int64(255))
}

func TestHexBytesJSON(t *testing.T) {
	c := qt.New(t)
	b := HexBytes{0xde, 0xad}
	data, err := json.Marshal(b)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `"0xdead"`)
	var decoded HexBytes
	c.Assert(json.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded, qt.DeepEquals, b)
}

package types

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigInt is a big.Int wrapper which marshals to JSON as a decimal string and
// to CBOR as its byte representation.
type BigInt big.Int

// NewInt returns a BigInt set to the value of x.
func NewInt(x uint64) *BigInt {
	return (*BigInt)(new(big.Int).SetUint64(x))
}

func (i *BigInt) MarshalText() ([]byte, error) {
	return (*big.Int)(i).MarshalText()
}

func (i *BigInt) UnmarshalText(data []byte) error {
	if _, ok := (*big.Int)(i).SetString(string(data), 0); !ok {
		return fmt.Errorf("invalid BigInt %q", data)
	}
	return nil
}

func (i *BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted ("123", "0x7b") and bare (123) numbers.
func (i *BigInt) UnmarshalJSON(data []byte) error {
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	return i.UnmarshalText(data)
}

func (i *BigInt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal((*big.Int)(i).Bytes())
}

func (i *BigInt) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return err
	}
	(*big.Int)(i).SetBytes(b)
	return nil
}

func (i *BigInt) String() string {
	return (*big.Int)(i).String()
}

// MathBigInt returns the underlying big.Int.
func (i *BigInt) MathBigInt() *big.Int {
	return (*big.Int)(i)
}

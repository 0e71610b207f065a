// Package util holds small helpers shared by tools and tests.
package util

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/whistle-protocol/shieldpool/types"
)

// RandomFieldElement returns a uniformly random canonical element of the
// BN254 scalar field, suitable as note secret material.
func RandomFieldElement() types.Hash {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		panic(err)
	}
	return types.Hash(e.Bytes())
}

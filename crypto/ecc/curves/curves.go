package curves

import (
	"fmt"

	"github.com/whistle-protocol/shieldpool/crypto/ecc"
	"github.com/whistle-protocol/shieldpool/crypto/ecc/bn254"
	"github.com/whistle-protocol/shieldpool/crypto/ecc/bn256"
)

const (
	EngineDefault = EngineGnark
	EngineGnark   = bn254.CurveType
	EngineGeth    = bn256.CurveType
)

// New creates the curve engine identified by name. An empty name selects the
// default engine.
func New(name string) (ecc.Engine, error) {
	switch name {
	case EngineGnark, "":
		return bn254.New(), nil
	case EngineGeth:
		return bn256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported curve engine: %s", name)
	}
}

// Engines returns the names of the supported engines.
func Engines() []string {
	return []string{EngineGnark, EngineGeth}
}

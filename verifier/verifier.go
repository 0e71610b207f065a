// Package verifier checks Groth16 proofs over BN254 against a fixed verifying
// key. Curve arithmetic is delegated to an ecc.Engine. Every failure, whether
// a malformed point, an engine error or a failing pairing equation, is
// reported as the same ErrInvalidProof so callers cannot tell which check
// failed.
package verifier

import (
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/whistle-protocol/shieldpool/crypto"
	curve "github.com/whistle-protocol/shieldpool/crypto/ecc"
	"github.com/whistle-protocol/shieldpool/crypto/ecc/bn254"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/types"
)

var (
	ErrInvalidProof = fmt.Errorf("invalid proof")
	ErrInputCount   = fmt.Errorf("wrong number of public inputs")
	ErrInvalidKey   = fmt.Errorf("invalid verifying key")
)

// ProofSize is the size of an encoded proof: A (G1) ‖ B (G2) ‖ C (G1).
const ProofSize = types.G1PointSize + types.G2PointSize + types.G1PointSize

// Proof is a Groth16 proof with points in the EIP-197 layout.
type Proof struct {
	A [types.G1PointSize]byte
	B [types.G2PointSize]byte
	C [types.G1PointSize]byte
}

// ProofFromBytes splits a 256-byte A ‖ B ‖ C encoding.
func ProofFromBytes(b []byte) (*Proof, error) {
	if len(b) != ProofSize {
		return nil, fmt.Errorf("proof must be %d bytes, got %d", ProofSize, len(b))
	}
	p := &Proof{}
	copy(p.A[:], b[:64])
	copy(p.B[:], b[64:192])
	copy(p.C[:], b[192:])
	return p, nil
}

// Bytes returns A ‖ B ‖ C.
func (p *Proof) Bytes() []byte {
	out := make([]byte, 0, ProofSize)
	out = append(out, p.A[:]...)
	out = append(out, p.B[:]...)
	return append(out, p.C[:]...)
}

// VerifyingKey holds the trusted setup output for one circuit. IC has one
// entry more than the number of public inputs.
type VerifyingKey struct {
	Alpha [types.G1PointSize]byte
	Beta  [types.G2PointSize]byte
	Gamma [types.G2PointSize]byte
	Delta [types.G2PointSize]byte
	IC    [][types.G1PointSize]byte
}

// NumPublicInputs is len(IC) - 1.
func (vk *VerifyingKey) NumPublicInputs() int {
	return len(vk.IC) - 1
}

// Validate decodes every point and checks it belongs to its group.
func (vk *VerifyingKey) Validate() error {
	if len(vk.IC) < 1 {
		return fmt.Errorf("%w: empty IC", ErrInvalidKey)
	}
	if _, err := bn254.DecodeG1(vk.Alpha[:]); err != nil {
		return fmt.Errorf("%w: alpha: %v", ErrInvalidKey, err)
	}
	for name, p := range map[string][]byte{"beta": vk.Beta[:], "gamma": vk.Gamma[:], "delta": vk.Delta[:]} {
		if _, err := bn254.DecodeG2(p); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidKey, name, err)
		}
	}
	for i := range vk.IC {
		if _, err := bn254.DecodeG1(vk.IC[i][:]); err != nil {
			return fmt.Errorf("%w: IC[%d]: %v", ErrInvalidKey, i, err)
		}
	}
	return nil
}

// Verifier evaluates the Groth16 pairing equation
//
//	e(-A, B) · e(α, β) · e(vk_x, γ) · e(C, δ) = 1
//
// with vk_x = IC[0] + Σ inputs[i]·IC[i+1].
type Verifier struct {
	engine curve.Engine
	vk     *VerifyingKey
	cache  *lru.Cache[[32]byte, bool]
}

// Option configures a Verifier.
type Option func(*Verifier) error

// WithCache memoizes up to size verdicts keyed by the hash of the proof and
// its public inputs.
func WithCache(size int) Option {
	return func(v *Verifier) error {
		c, err := lru.New[[32]byte, bool](size)
		if err != nil {
			return err
		}
		v.cache = c
		return nil
	}
}

// New returns a verifier for vk. The key is validated once here.
func New(engine curve.Engine, vk *VerifyingKey, opts ...Option) (*Verifier, error) {
	if engine == nil {
		return nil, fmt.Errorf("missing curve engine")
	}
	if vk == nil {
		return nil, fmt.Errorf("%w: nil key", ErrInvalidKey)
	}
	if err := vk.Validate(); err != nil {
		return nil, err
	}
	v := &Verifier{engine: engine, vk: vk}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// NumPublicInputs returns how many public inputs proofs must carry.
func (v *Verifier) NumPublicInputs() int {
	return v.vk.NumPublicInputs()
}

// Verify returns nil only if the proof is valid for the given public inputs.
// A wrong number of inputs is reported as ErrInputCount, every other failure
// as ErrInvalidProof.
func (v *Verifier) Verify(proof *Proof, inputs []types.Hash) error {
	if len(inputs) != v.vk.NumPublicInputs() {
		return fmt.Errorf("%w: expected %d, got %d", ErrInputCount, v.vk.NumPublicInputs(), len(inputs))
	}
	if proof == nil {
		return ErrInvalidProof
	}
	var key [32]byte
	if v.cache != nil {
		key = cacheKey(proof, inputs)
		if ok, found := v.cache.Get(key); found {
			if ok {
				return nil
			}
			return ErrInvalidProof
		}
	}
	ok, err := v.check(proof, inputs)
	if err != nil {
		log.Debugw("proof rejected", "engine", v.engine.Name(), "error", err.Error())
	}
	if v.cache != nil {
		v.cache.Add(key, ok)
	}
	if !ok {
		return ErrInvalidProof
	}
	return nil
}

func (v *Verifier) check(proof *Proof, inputs []types.Hash) (bool, error) {
	vkx := v.vk.IC[0][:]
	for i, in := range inputs {
		if !crypto.IsCanonical(in) {
			return false, fmt.Errorf("public input %d out of field", i)
		}
		term, err := v.engine.G1ScalarMul(v.vk.IC[i+1][:], in[:])
		if err != nil {
			return false, fmt.Errorf("scalar mul input %d: %w", i, err)
		}
		if vkx, err = v.engine.G1Add(vkx, term); err != nil {
			return false, fmt.Errorf("add input %d: %w", i, err)
		}
	}
	negA, err := v.engine.G1Neg(proof.A[:])
	if err != nil {
		return false, fmt.Errorf("negate A: %w", err)
	}
	ok, err := v.engine.PairingCheck(
		[][]byte{negA, v.vk.Alpha[:], vkx, proof.C[:]},
		[][]byte{proof.B[:], v.vk.Beta[:], v.vk.Gamma[:], v.vk.Delta[:]},
	)
	if err != nil {
		return false, fmt.Errorf("pairing: %w", err)
	}
	return ok, nil
}

func cacheKey(proof *Proof, inputs []types.Hash) [32]byte {
	h := sha256.New()
	h.Write(proof.Bytes())
	for _, in := range inputs {
		h.Write(in[:])
	}
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

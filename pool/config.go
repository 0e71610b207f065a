package pool

import (
	"fmt"
	"slices"

	"github.com/whistle-protocol/shieldpool/crypto/hash"
	"github.com/whistle-protocol/shieldpool/history"
	"github.com/whistle-protocol/shieldpool/nullifier"
	"github.com/whistle-protocol/shieldpool/types"
)

const (
	// MinDepth and MaxDepth bound the accumulator depth accepted by
	// Initialize.
	MinDepth = 7
	MaxDepth = 20
	// DefaultDepth is the depth used when none is configured.
	DefaultDepth = 20

	// BasisPoints is the denominator of MaxFeeBps.
	BasisPoints = 10_000
)

// DefaultDenominations are the withdrawal amounts accepted by default:
// 1, 10 and 100 units of the settlement asset.
var DefaultDenominations = []uint64{
	1 * types.LamportsPerSol,
	10 * types.LamportsPerSol,
	100 * types.LamportsPerSol,
}

// Config holds the deployment parameters of a pool. They are fixed once the
// pool is created.
type Config struct {
	// Depth is the accumulator depth the pool is initialized with. Proving
	// keys are depth specific.
	Depth int `json:"depth"`
	// HistorySize is the number of recent roots proofs may refer to.
	HistorySize int `json:"historySize"`
	// NullifierCapacity is the maximum number of spends over the pool
	// lifetime.
	NullifierCapacity int `json:"nullifierCapacity"`
	// MinDeposit is the smallest shield amount.
	MinDeposit uint64 `json:"minDeposit"`
	// Denominations lists the only amounts that can be unshielded.
	Denominations []uint64 `json:"denominations"`
	// MaxFeeBps caps the relayer fee as a fraction of the withdrawal, in
	// basis points. 10000 allows a fee equal to the whole amount.
	MaxFeeBps uint16 `json:"maxFeeBps"`
	// Hasher names the two-to-one hash of the accumulator.
	Hasher string `json:"hasher"`
}

// DefaultConfig returns the parameters of a standard deployment.
func DefaultConfig() Config {
	return Config{
		Depth:             DefaultDepth,
		HistorySize:       history.DefaultCapacity,
		NullifierCapacity: nullifier.DefaultCapacity,
		MinDeposit:        types.LamportsPerSol / 1000,
		Denominations:     slices.Clone(DefaultDenominations),
		MaxFeeBps:         500,
		Hasher:            hash.Default,
	}
}

// Validate checks the configuration. Errors match ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := ValidateDepth(c.Depth); err != nil {
		return err
	}
	if c.HistorySize < 1 {
		return fmt.Errorf("%w: history size %d", ErrInvalidConfig, c.HistorySize)
	}
	if c.NullifierCapacity < 1 {
		return fmt.Errorf("%w: nullifier capacity %d", ErrInvalidConfig, c.NullifierCapacity)
	}
	if len(c.Denominations) == 0 {
		return fmt.Errorf("%w: no denominations", ErrInvalidConfig)
	}
	for _, d := range c.Denominations {
		if d == 0 {
			return fmt.Errorf("%w: zero denomination", ErrInvalidConfig)
		}
	}
	if c.MaxFeeBps > BasisPoints {
		return fmt.Errorf("%w: max fee %d bps above %d", ErrInvalidConfig, c.MaxFeeBps, BasisPoints)
	}
	if _, err := hash.New(c.Hasher); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateDepth checks depth against [MinDepth, MaxDepth].
func ValidateDepth(depth int) error {
	if depth < MinDepth || depth > MaxDepth {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidDepth, depth, MinDepth, MaxDepth)
	}
	return nil
}

func (c *Config) isDenomination(amount uint64) bool {
	return slices.Contains(c.Denominations, amount)
}

package pool

import "errors"

// Kind classifies pool errors.
type Kind int

const (
	// KindInternal covers failures outside the pool rules, such as the
	// committer failing to persist a transition.
	KindInternal Kind = iota
	// KindConfig errors reject a pool configuration; no state is created.
	KindConfig
	// KindPrecondition errors reject a request before anything is verified
	// or mutated. Callers may retry with corrected inputs.
	KindPrecondition
	// KindProof is the single, generic proof failure.
	KindProof
	// KindArithmetic reports counters that would overflow or underflow.
	KindArithmetic
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindPrecondition:
		return "precondition"
	case KindProof:
		return "proof"
	case KindArithmetic:
		return "arithmetic"
	default:
		return "internal"
	}
}

// Error is a classified pool error. All the exported sentinels below are
// *Error values, so they can be matched with errors.Is and classified with
// ErrorKind.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

var (
	ErrInvalidConfig = newError(KindConfig, "invalid pool configuration")
	ErrInvalidDepth  = newError(KindConfig, "invalid tree depth")

	ErrNotInitialized      = newError(KindPrecondition, "pool not initialized")
	ErrAlreadyInitialized  = newError(KindPrecondition, "pool already initialized")
	ErrDepositTooSmall     = newError(KindPrecondition, "deposit below minimum")
	ErrInvalidCommitment   = newError(KindPrecondition, "invalid commitment")
	ErrDuplicateCommitment = newError(KindPrecondition, "commitment already in the pool")
	ErrInvalidNullifier    = newError(KindPrecondition, "invalid nullifier")
	ErrInvalidDenomination = newError(KindPrecondition, "invalid denomination")
	ErrFeeTooHigh          = newError(KindPrecondition, "relayer fee too high")
	ErrInvalidRecipient    = newError(KindPrecondition, "invalid recipient")
	ErrInvalidRelayer      = newError(KindPrecondition, "invalid relayer")
	ErrTreeFull            = newError(KindPrecondition, "merkle tree is full")
	ErrNullifierSpent      = newError(KindPrecondition, "nullifier already spent")
	ErrDuplicateNullifier  = newError(KindPrecondition, "duplicate nullifier in request")
	ErrNullifierSetFull    = newError(KindPrecondition, "nullifier set is full")
	ErrUnknownRoot         = newError(KindPrecondition, "unknown merkle root")
	ErrNoInputs            = newError(KindPrecondition, "no input nullifiers")

	ErrInvalidProof = newError(KindProof, "invalid proof")

	ErrBadSnapshot = newError(KindInternal, "inconsistent pool snapshot")

	ErrOverflow  = newError(KindArithmetic, "counter overflow")
	ErrUnderflow = newError(KindArithmetic, "counter underflow")
)

// ErrorKind returns the kind of err, KindInternal if it is not a pool error.
func ErrorKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// storage package persists shielded pools and settles their value movements.
// Storage implements pool.Committer: every committed transition is written in
// a single database transaction, together with the custody ledger updates it
// implies. The following prefixes are used:
//   - 'p/' for pool records (snapshot plus event counter)
//   - 'l/' for accumulator leaves, by pool and index
//   - 'n/' for spent nullifiers, by pool and hash
//   - 'o/' for spent nullifiers, by pool and spend order
//   - 'e/' for pool events, by pool and sequence number
//   - 'a/' for the nullifier audit trees (arbo)
//   - 'k/' for the verifying keys of each pool
//   - 'b/' for account balances
//   - 'v/' for pool vault balances
//   - 'c/' for leaf indexes, by pool and commitment
//   - 's/' for the next deposit nonce of each account
package storage

import (
	"errors"
	"sync"

	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
)

var (
	poolPrefix       = []byte("p/")
	leafPrefix       = []byte("l/")
	nullifierPrefix  = []byte("n/")
	orderPrefix      = []byte("o/")
	eventPrefix      = []byte("e/")
	auditPrefix      = []byte("a/")
	keysPrefix       = []byte("k/")
	balancePrefix    = []byte("b/")
	vaultPrefix      = []byte("v/")
	commitmentPrefix = []byte("c/")
	noncePrefix      = []byte("s/")
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPoolExists is returned when creating a pool whose id is taken.
	ErrPoolExists = errors.New("pool already exists")
	// ErrInsufficientFunds is returned by Commit when an account or vault
	// cannot cover a movement.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidNonce is returned by Commit when a deposit does not carry the
	// depositor's next nonce.
	ErrInvalidNonce = errors.New("invalid deposit nonce")
	// ErrBalanceOverflow is returned when a credit would overflow a balance.
	ErrBalanceOverflow = errors.New("balance overflow")
)

const (
	// auditLevels lets arbo take full 32-byte nullifier hashes as keys.
	auditLevels = 256
)

var auditHashFunction = arbo.HashFunctionSha256

// Storage is the pool database.
type Storage struct {
	db db.Database

	// mu serializes commits and guards the audit tree cache.
	mu    sync.Mutex
	audit map[string]*arbo.Tree
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{db: db, audit: make(map[string]*arbo.Tree)}
}

// Close closes the storage.
func (s *Storage) Close() {
	s.db.Close()
}

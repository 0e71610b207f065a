// Package pool implements the shielded pool state machine. A pool owns one
// commitment accumulator, its root history and its nullifier set, and
// exposes the shield, unshield and private transfer operations over them.
//
// Every operation verifies first and mutates last: changes are staged on
// copies of the accumulator and the root history, handed to the configured
// Committer and swapped in only once the commit succeeds. A rejected
// operation leaves the pool exactly as it was.
package pool

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"

	"github.com/whistle-protocol/shieldpool/crypto/hash"
	"github.com/whistle-protocol/shieldpool/history"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/merkle"
	"github.com/whistle-protocol/shieldpool/nullifier"
	"github.com/whistle-protocol/shieldpool/types"
	"github.com/whistle-protocol/shieldpool/verifier"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidID reports whether id can name a pool: 1 to 64 letters, digits,
// dashes or underscores.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// ProofVerifier checks a Groth16 proof against its public inputs.
// *verifier.Verifier implements it.
type ProofVerifier interface {
	NumPublicInputs() int
	Verify(proof *verifier.Proof, inputs []types.Hash) error
}

// Option configures a Pool.
type Option func(*Pool)

// WithCommitter sets the committer every transition is handed to. Without
// one the pool lives in memory only.
func WithCommitter(c Committer) Option {
	return func(p *Pool) {
		p.committer = c
	}
}

// WithEventHandler registers fn to be called with the event of every
// committed operation. Handlers run synchronously with the pool lock held
// and must not call back into the pool.
func WithEventHandler(fn func(Event)) Option {
	return func(p *Pool) {
		p.handlers = append(p.handlers, fn)
	}
}

// State is a read-only view of the pool counters.
type State struct {
	ID             string     `json:"id"`
	Initialized    bool       `json:"initialized"`
	Depth          int        `json:"depth"`
	NextIndex      uint64     `json:"nextIndex"`
	CurrentRoot    types.Hash `json:"currentRoot"`
	TotalDeposited uint64     `json:"totalDeposited"`
	TotalShielded  uint64     `json:"totalShielded"`
	HistoryCursor  int        `json:"historyCursor"`
	NullifierCount int        `json:"nullifierCount"`
}

// Pool is a shielded value pool. It is safe for concurrent use; operations
// are serialized.
type Pool struct {
	mu sync.RWMutex

	id        string
	cfg       Config
	hasher    hash.Hasher
	withdraw  ProofVerifier
	transfer  ProofVerifier
	committer Committer
	handlers  []func(Event)

	initialized    bool
	tree           *merkle.Tree
	roots          *history.Ring
	nullifiers     *nullifier.Set
	currentRoot    types.Hash
	totalDeposited uint64
	totalShielded  uint64
}

// New returns an uninitialized pool. The verifiers must expect the withdraw
// and transfer public input layouts of package verifier.
func New(id string, cfg Config, withdraw, transfer ProofVerifier, opts ...Option) (*Pool, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: pool id %q", ErrInvalidConfig, id)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if withdraw == nil || withdraw.NumPublicInputs() != verifier.WithdrawInputCount {
		return nil, fmt.Errorf("%w: withdraw verifier must take %d public inputs", ErrInvalidConfig, verifier.WithdrawInputCount)
	}
	if transfer == nil || transfer.NumPublicInputs() != verifier.TransferInputCount {
		return nil, fmt.Errorf("%w: transfer verifier must take %d public inputs", ErrInvalidConfig, verifier.TransferInputCount)
	}
	h, err := hash.New(cfg.Hasher)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.Denominations = slices.Clone(cfg.Denominations)
	p := &Pool{
		id:       id,
		cfg:      cfg,
		hasher:   h,
		withdraw: withdraw,
		transfer: transfer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Restore rebuilds a pool from its snapshot and the list of spent nullifiers.
func Restore(s *Snapshot, spent []types.Hash, withdraw, transfer ProofVerifier, opts ...Option) (*Pool, error) {
	p, err := New(s.ID, s.Config, withdraw, transfer, opts...)
	if err != nil {
		return nil, err
	}
	if !s.Initialized {
		return p, nil
	}
	if s.Tree == nil || s.Roots == nil {
		return nil, fmt.Errorf("restore pool %s: incomplete snapshot", s.ID)
	}
	if len(spent) != s.NullifierCount {
		return nil, fmt.Errorf("%w: pool %s: %d nullifiers, snapshot counts %d", ErrBadSnapshot, s.ID, len(spent), s.NullifierCount)
	}
	if s.Tree.Depth != s.Config.Depth {
		return nil, fmt.Errorf("%w: pool %s: tree depth %d, configured %d", ErrBadSnapshot, s.ID, s.Tree.Depth, s.Config.Depth)
	}
	if p.tree, err = merkle.Restore(p.hasher, s.Tree); err != nil {
		return nil, fmt.Errorf("restore pool %s: %w", s.ID, err)
	}
	if p.roots, err = history.Restore(s.Roots); err != nil {
		return nil, fmt.Errorf("restore pool %s: %w", s.ID, err)
	}
	if p.nullifiers, err = nullifier.Restore(s.Config.NullifierCapacity, spent); err != nil {
		return nil, fmt.Errorf("restore pool %s: %w", s.ID, err)
	}
	// The current root is the tree root and the newest history entry, or
	// the zero sentinel everywhere while the tree is empty.
	if p.tree.NextIndex() == 0 {
		if !s.CurrentRoot.IsZero() || !p.roots.Latest().IsZero() {
			return nil, fmt.Errorf("%w: pool %s: empty tree with root %s", ErrBadSnapshot, s.ID, s.CurrentRoot)
		}
	} else if s.CurrentRoot != p.tree.Root() || s.CurrentRoot != p.roots.Latest() {
		return nil, fmt.Errorf("%w: pool %s: current root %s, tree root %s, latest history root %s",
			ErrBadSnapshot, s.ID, s.CurrentRoot, p.tree.Root(), p.roots.Latest())
	}
	p.initialized = true
	p.currentRoot = s.CurrentRoot
	p.totalDeposited = s.TotalDeposited
	p.totalShielded = s.TotalShielded
	return p, nil
}

// Initialize creates the empty accumulator, root history and nullifier set.
// The current root stays at the zero sentinel until the first insertion.
// depth must be the configured one.
func (p *Pool) Initialize(ctx context.Context, depth int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return ErrAlreadyInitialized
	}
	if err := ValidateDepth(depth); err != nil {
		return err
	}
	if depth != p.cfg.Depth {
		return fmt.Errorf("%w: %d, pool configured with %d", ErrInvalidDepth, depth, p.cfg.Depth)
	}
	tree, err := merkle.New(p.hasher, depth)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDepth, err)
	}
	roots, err := history.New(p.cfg.HistorySize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	nullifiers, err := nullifier.New(p.cfg.NullifierCapacity)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	st := &staged{tree: tree, roots: roots, nullifiers: nullifiers}
	t := &Transition{
		Op: OpInitialize,
		Event: Event{
			Type:  EventPoolInitialized,
			Pool:  p.id,
			Depth: depth,
		},
	}
	if err := p.commit(ctx, st, t); err != nil {
		return err
	}
	log.Infow("pool initialized", "pool", p.id, "depth", depth, "hasher", p.hasher.Name())
	return nil
}

// ID returns the pool identifier.
func (p *Pool) ID() string {
	return p.id
}

// Config returns a copy of the pool configuration.
func (p *Pool) Config() Config {
	cfg := p.cfg
	cfg.Denominations = slices.Clone(p.cfg.Denominations)
	return cfg
}

// Hasher returns the accumulator hash function.
func (p *Pool) Hasher() hash.Hasher {
	return p.hasher
}

// State returns the current pool counters.
func (p *Pool) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := State{
		ID:             p.id,
		Initialized:    p.initialized,
		CurrentRoot:    p.currentRoot,
		TotalDeposited: p.totalDeposited,
		TotalShielded:  p.totalShielded,
	}
	if p.initialized {
		s.Depth = p.tree.Depth()
		s.NextIndex = p.tree.NextIndex()
		s.HistoryCursor = p.roots.Cursor()
		s.NullifierCount = p.nullifiers.Len()
	}
	return s
}

// Snapshot returns the persisted form of the pool.
func (p *Pool) Snapshot() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot(p.tree, p.roots, p.nullifierCount(), p.currentRoot, p.totalDeposited, p.totalShielded)
}

// IsSpent reports whether the nullifier hash has been consumed.
func (p *Pool) IsSpent(n types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialized && p.nullifiers.IsSpent(n)
}

// IsKnownRoot reports whether proofs against root are currently accepted.
func (p *Pool) IsKnownRoot(root types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isKnownRoot(root)
}

func (p *Pool) isKnownRoot(root types.Hash) bool {
	if !p.initialized || root.IsZero() {
		return false
	}
	return root == p.currentRoot || p.roots.Contains(root)
}

func (p *Pool) nullifierCount() int {
	if p.nullifiers == nil {
		return 0
	}
	return p.nullifiers.Len()
}

func (p *Pool) snapshot(tree *merkle.Tree, roots *history.Ring, spent int, current types.Hash, deposited, shielded uint64) *Snapshot {
	s := &Snapshot{
		ID:             p.id,
		Config:         p.Config(),
		Initialized:    tree != nil,
		CurrentRoot:    current,
		TotalDeposited: deposited,
		TotalShielded:  shielded,
		NullifierCount: spent,
	}
	if tree != nil {
		s.Tree = tree.Snapshot()
		s.Roots = roots.Snapshot()
	}
	return s
}

// staged holds the post-operation state while it is being committed.
type staged struct {
	tree        *merkle.Tree
	roots       *history.Ring
	nullifiers  *nullifier.Set
	spent       []types.Hash
	currentRoot types.Hash
	deposited   uint64
	shielded    uint64
}

// stage starts from a copy of the current state. The nullifier set itself
// is not copied: newly spent hashes are collected in spent and marked only
// once the transition is committed.
func (p *Pool) stage() *staged {
	return &staged{
		tree:        p.tree.Clone(),
		roots:       p.roots.Clone(),
		nullifiers:  p.nullifiers,
		currentRoot: p.currentRoot,
		deposited:   p.totalDeposited,
		shielded:    p.totalShielded,
	}
}

// insert appends a leaf to the staged tree and records the new root.
func (st *staged) insert(leaf types.Hash) (uint64, error) {
	index, root, err := st.tree.Insert(leaf)
	if err != nil {
		if errors.Is(err, merkle.ErrTreeFull) {
			return 0, ErrTreeFull
		}
		return 0, err
	}
	st.roots.Push(root)
	st.currentRoot = root
	return index, nil
}

// commit hands t to the committer and, if it succeeds, applies the staged
// state and notifies the event handlers. Callers hold the write lock.
func (p *Pool) commit(ctx context.Context, st *staged, t *Transition) error {
	t.Nullifiers = st.spent
	t.Snapshot = p.snapshot(st.tree, st.roots, st.nullifiers.Len()+len(st.spent), st.currentRoot, st.deposited, st.shielded)
	t.Event.Root = st.currentRoot
	if p.committer != nil {
		if err := p.committer.Commit(ctx, t); err != nil {
			log.Warnw("transition not committed", "pool", p.id, "op", string(t.Op), "error", err.Error())
			return fmt.Errorf("commit %s: %w", t.Op, err)
		}
	}
	for _, n := range st.spent {
		// Checked before staging under the same lock, cannot fail.
		if err := st.nullifiers.MarkSpent(n); err != nil {
			panic(fmt.Sprintf("pool %s: nullifier %s: %v", p.id, n, err))
		}
	}
	p.initialized = true
	p.tree = st.tree
	p.roots = st.roots
	p.nullifiers = st.nullifiers
	p.currentRoot = st.currentRoot
	p.totalDeposited = st.deposited
	p.totalShielded = st.shielded
	for _, fn := range p.handlers {
		fn(t.Event)
	}
	return nil
}

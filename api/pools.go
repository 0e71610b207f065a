package api

import (
	"net/http"

	"github.com/whistle-protocol/shieldpool/circuits"
	"github.com/whistle-protocol/shieldpool/crypto/ecc/curves"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/storage"
	"github.com/whistle-protocol/shieldpool/verifier"
)

// listPools returns the ids of the served pools
// GET /pools
func (a *API) listPools(w http.ResponseWriter, r *http.Request) {
	httpWriteJSON(w, &PoolList{Pools: a.pools.IDs()})
}

// newPool creates and initializes a pool
// POST /pools
func (a *API) newPool(w http.ResponseWriter, r *http.Request) {
	req := &NewPool{}
	if !decodeBody(w, r, req) {
		return
	}
	if !pool.ValidID(req.ID) {
		ErrMalformedPoolID.With(req.ID).Write(w)
		return
	}
	cfg := pool.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	if err := cfg.Validate(); err != nil {
		ErrInvalidPoolConfig.WithErr(err).Write(w)
		return
	}
	keys := &storage.PoolKeys{Engine: req.Engine, VerifierCache: req.VerifierCache}
	if keys.Engine == "" {
		keys.Engine = curves.EngineDefault
	}
	var err error
	if keys.Withdraw, err = circuits.DecodeVerifyingKey(req.WithdrawKey, req.KeyFormat); err != nil {
		ErrInvalidVerifyingKey.Withf("withdraw: %v", err).Write(w)
		return
	}
	if keys.Transfer, err = circuits.DecodeVerifyingKey(req.TransferKey, req.KeyFormat); err != nil {
		ErrInvalidVerifyingKey.Withf("transfer: %v", err).Write(w)
		return
	}
	if n := keys.Withdraw.NumPublicInputs(); n != verifier.WithdrawInputCount {
		ErrInvalidVerifyingKey.Withf("withdraw key takes %d public inputs", n).Write(w)
		return
	}
	if n := keys.Transfer.NumPublicInputs(); n != verifier.TransferInputCount {
		ErrInvalidVerifyingKey.Withf("transfer key takes %d public inputs", n).Write(w)
		return
	}
	p, err := a.pools.Create(r.Context(), req.ID, cfg, keys)
	if err != nil {
		poolError(err).Write(w)
		return
	}
	log.Infow("new pool", "pool", req.ID, "depth", cfg.Depth, "hasher", cfg.Hasher)
	a.writePoolInfo(w, p)
}

// poolInfo returns the state of a pool
// GET /pools/{poolId}
func (a *API) poolInfo(w http.ResponseWriter, r *http.Request) {
	p, ok := a.urlPool(w, r)
	if !ok {
		return
	}
	a.writePoolInfo(w, p)
}

func (a *API) writePoolInfo(w http.ResponseWriter, p *pool.Pool) {
	vault, err := a.storage.VaultBalance(p.ID())
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	auditRoot, err := a.storage.AuditRoot(p.ID())
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &PoolInfo{
		State:        p.State(),
		Config:       p.Config(),
		VaultBalance: vault,
		AuditRoot:    auditRoot,
	})
}

// rootStatus tells whether a root is accepted
// GET /pools/{poolId}/roots/{root}
func (a *API) rootStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := a.urlPool(w, r)
	if !ok {
		return
	}
	root, ok := urlHash(w, r, RootURLParam)
	if !ok {
		return
	}
	httpWriteJSON(w, &RootStatus{
		Root:    root,
		Known:   p.IsKnownRoot(root),
		Current: !root.IsZero() && root == p.State().CurrentRoot,
	})
}

// nullifierProof returns the audit proof of a nullifier
// GET /pools/{poolId}/nullifiers/{nullifier}
func (a *API) nullifierProof(w http.ResponseWriter, r *http.Request) {
	p, ok := a.urlPool(w, r)
	if !ok {
		return
	}
	n, ok := urlHash(w, r, NullifierURLParam)
	if !ok {
		return
	}
	proof, err := a.storage.NullifierProof(p.ID(), n)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, proof)
}

// commitment looks up the leaf index of a note commitment
// GET /pools/{poolId}/commitments/{commitment}
func (a *API) commitment(w http.ResponseWriter, r *http.Request) {
	p, ok := a.urlPool(w, r)
	if !ok {
		return
	}
	cm, ok := urlHash(w, r, CommitmentURLParam)
	if !ok {
		return
	}
	index, found, err := a.storage.HasCommitment(p.ID(), cm)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if !found {
		ErrResourceNotFound.Withf("commitment %s", cm).Write(w)
		return
	}
	httpWriteJSON(w, &CommitmentStatus{Commitment: cm, LeafIndex: index})
}

// leaves pages through the note commitments
// GET /pools/{poolId}/leaves?from=&limit=
func (a *API) leaves(w http.ResponseWriter, r *http.Request) {
	p, ok := a.urlPool(w, r)
	if !ok {
		return
	}
	from, limit, ok := pagination(w, r)
	if !ok {
		return
	}
	leaves, err := a.storage.Leaves(p.ID(), from, limit)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &Leaves{From: from, Leaves: leaves})
}

// events pages through the pool events
// GET /pools/{poolId}/events?from=&limit=
func (a *API) events(w http.ResponseWriter, r *http.Request) {
	p, ok := a.urlPool(w, r)
	if !ok {
		return
	}
	from, limit, ok := pagination(w, r)
	if !ok {
		return
	}
	events, err := a.storage.Events(p.ID(), from, limit)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if events == nil {
		events = []pool.Event{}
	}
	httpWriteJSON(w, &Events{From: from, Events: events})
}

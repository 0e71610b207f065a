package api

import (
	"net/http"

	"github.com/whistle-protocol/shieldpool/crypto/ethereum"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/verifier"
)

// shield deposits value into a pool
// POST /pools/{poolId}/shield
func (a *API) shield(w http.ResponseWriter, r *http.Request) {
	p, ok := a.urlPool(w, r)
	if !ok {
		return
	}
	req := &Shield{}
	if !decodeBody(w, r, req) {
		return
	}
	signer, err := ethereum.AddrFromSignature(ShieldMessage(p.ID(), req.Commitment, req.Amount, req.Nonce), req.Signature)
	if err != nil {
		ErrInvalidSignature.WithErr(err).Write(w)
		return
	}
	if signer != req.Depositor {
		ErrInvalidSignature.Withf("signed by %s", signer.Hex()).Write(w)
		return
	}
	res, err := p.Shield(r.Context(), &pool.ShieldRequest{
		Depositor:  req.Depositor,
		Commitment: req.Commitment,
		Amount:     req.Amount,
		Nonce:      req.Nonce,
	})
	if err != nil {
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, res)
}

// unshield spends a note and pays it out of the pool
// POST /pools/{poolId}/unshield
func (a *API) unshield(w http.ResponseWriter, r *http.Request) {
	p, ok := a.urlPool(w, r)
	if !ok {
		return
	}
	req := &Unshield{}
	if !decodeBody(w, r, req) {
		return
	}
	proof, err := verifier.ProofFromBytes(req.Proof)
	if err != nil {
		ErrInvalidProof.WithErr(err).Write(w)
		return
	}
	res, err := p.Unshield(r.Context(), &pool.UnshieldRequest{
		Proof:            proof,
		Nullifier:        req.Nullifier,
		Recipient:        req.Recipient,
		Relayer:          req.Relayer,
		Amount:           req.Amount,
		Fee:              req.Fee,
		Root:             req.Root,
		ChangeCommitment: req.ChangeCommitment,
	})
	if err != nil {
		log.Debugw("unshield rejected", "pool", p.ID(), "nullifier", req.Nullifier.String(), "error", err.Error())
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, res)
}

// transfer spends and creates notes inside a pool
// POST /pools/{poolId}/transfer
func (a *API) transfer(w http.ResponseWriter, r *http.Request) {
	p, ok := a.urlPool(w, r)
	if !ok {
		return
	}
	req := &Transfer{}
	if !decodeBody(w, r, req) {
		return
	}
	proof, err := verifier.ProofFromBytes(req.Proof)
	if err != nil {
		ErrInvalidProof.WithErr(err).Write(w)
		return
	}
	res, err := p.PrivateTransfer(r.Context(), &pool.TransferRequest{
		Proof:       proof,
		Nullifiers:  req.Nullifiers,
		Commitments: req.Commitments,
		Root:        req.Root,
	})
	if err != nil {
		log.Debugw("transfer rejected", "pool", p.ID(), "error", err.Error())
		poolError(err).Write(w)
		return
	}
	httpWriteJSON(w, res)
}

package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/whistle-protocol/shieldpool/log"
)

func urlAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	s := chi.URLParam(r, AddressURLParam)
	if !common.IsHexAddress(s) {
		ErrMalformedParam.Withf("address %q", s).Write(w)
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

// balance returns the ledger balance and deposit nonce of an account
// GET /accounts/{address}/balance
func (a *API) balance(w http.ResponseWriter, r *http.Request) {
	addr, ok := urlAddress(w, r)
	if !ok {
		return
	}
	a.writeBalance(w, addr)
}

func (a *API) writeBalance(w http.ResponseWriter, addr common.Address) {
	bal, err := a.storage.Balance(addr)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	nonce, err := a.storage.Nonce(addr)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &Balance{Address: addr, Balance: bal, Nonce: nonce})
}

// fund credits an account
// POST /accounts/{address}/fund
func (a *API) fund(w http.ResponseWriter, r *http.Request) {
	if !a.faucet {
		ErrFaucetDisabled.Write(w)
		return
	}
	addr, ok := urlAddress(w, r)
	if !ok {
		return
	}
	req := &Fund{}
	if !decodeBody(w, r, req) {
		return
	}
	bal, err := a.storage.Fund(addr, req.Amount)
	if err != nil {
		poolError(err).Write(w)
		return
	}
	log.Infow("account funded", "address", addr.Hex(), "amount", req.Amount, "balance", bal)
	a.writeBalance(w, addr)
}

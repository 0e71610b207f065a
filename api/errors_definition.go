//nolint:lll
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/storage"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400 or 404 (or even 204), whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX
// If you notice there's a gap (say, error code 4010, 4011 and 4013 exist, 4012 is missing) DON'T fill in the gap,
// that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound    = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody       = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrInvalidSignature    = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid signature")}
	ErrMalformedPoolID     = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed pool ID")}
	ErrPoolNotFound        = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("pool not found")}
	ErrInvalidPoolConfig   = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid pool configuration")}
	ErrPreconditionFailed  = Error{Code: 40009, HTTPstatus: http.StatusUnprocessableEntity, Err: fmt.Errorf("operation precondition failed")}
	ErrNullifierSpent      = Error{Code: 40010, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("nullifier already spent")}
	ErrUnknownRoot         = Error{Code: 40011, HTTPstatus: http.StatusUnprocessableEntity, Err: fmt.Errorf("unknown merkle root")}
	ErrInvalidProof        = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid proof")}
	ErrArithmetic          = Error{Code: 40013, HTTPstatus: http.StatusUnprocessableEntity, Err: fmt.Errorf("amount out of range")}
	ErrPoolExists          = Error{Code: 40014, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("pool already exists")}
	ErrInsufficientFunds   = Error{Code: 40015, HTTPstatus: http.StatusUnprocessableEntity, Err: fmt.Errorf("insufficient funds")}
	ErrInvalidVerifyingKey = Error{Code: 40016, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid verifying key")}
	ErrFaucetDisabled      = Error{Code: 40017, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("faucet disabled")}
	ErrMalformedParam      = Error{Code: 40018, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed parameter")}
	ErrInvalidNonce        = Error{Code: 40019, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("invalid deposit nonce")}
	ErrDuplicateCommitment = Error{Code: 40020, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("commitment already in the pool")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)

// poolError maps an error returned by a pool operation or by storage to the
// API error it is reported as.
func poolError(err error) Error {
	switch {
	case errors.Is(err, pool.ErrNullifierSpent), errors.Is(err, pool.ErrDuplicateNullifier):
		return ErrNullifierSpent.WithErr(err)
	case errors.Is(err, pool.ErrDuplicateCommitment):
		return ErrDuplicateCommitment.WithErr(err)
	case errors.Is(err, storage.ErrInvalidNonce):
		return ErrInvalidNonce.WithErr(err)
	case errors.Is(err, pool.ErrUnknownRoot):
		return ErrUnknownRoot.WithErr(err)
	case errors.Is(err, storage.ErrInsufficientFunds):
		return ErrInsufficientFunds.WithErr(err)
	case errors.Is(err, storage.ErrBalanceOverflow):
		return ErrArithmetic.WithErr(err)
	case errors.Is(err, storage.ErrPoolExists):
		return ErrPoolExists
	}
	switch pool.ErrorKind(err) {
	case pool.KindConfig:
		return ErrInvalidPoolConfig.WithErr(err)
	case pool.KindPrecondition:
		return ErrPreconditionFailed.WithErr(err)
	case pool.KindProof:
		return ErrInvalidProof
	case pool.KindArithmetic:
		return ErrArithmetic.WithErr(err)
	}
	return ErrGenericInternalServerError.WithErr(err)
}

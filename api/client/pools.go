package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/whistle-protocol/shieldpool/api"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/storage"
	"github.com/whistle-protocol/shieldpool/types"
)

// call performs the request and decodes a successful response into out. A
// non 200 status is returned as an api.Error carrying the server code.
func (c *HTTPclient) call(method string, body, out any, params []string, urlPath ...string) error {
	data, status, err := c.Request(method, body, params, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		apiErr := struct {
			Err  string `json:"error"`
			Code int    `json:"code"`
		}{}
		if err := json.Unmarshal(data, &apiErr); err != nil || apiErr.Code == 0 {
			return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
		}
		return api.Error{Err: errors.New(apiErr.Err), Code: apiErr.Code, HTTPstatus: status}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func poolPath(id string, elems ...string) []string {
	return append([]string{api.PoolsEndpoint, id}, elems...)
}

// Pools returns the ids of the served pools.
func (c *HTTPclient) Pools() ([]string, error) {
	list := &api.PoolList{}
	if err := c.call(HTTPGET, nil, list, nil, api.PoolsEndpoint); err != nil {
		return nil, err
	}
	return list.Pools, nil
}

// NewPool creates a pool.
func (c *HTTPclient) NewPool(req *api.NewPool) (*api.PoolInfo, error) {
	info := &api.PoolInfo{}
	if err := c.call(HTTPPOST, req, info, nil, api.PoolsEndpoint); err != nil {
		return nil, err
	}
	return info, nil
}

// Pool returns the state of a pool.
func (c *HTTPclient) Pool(id string) (*api.PoolInfo, error) {
	info := &api.PoolInfo{}
	if err := c.call(HTTPGET, nil, info, nil, poolPath(id)...); err != nil {
		return nil, err
	}
	return info, nil
}

// Shield deposits into a pool.
func (c *HTTPclient) Shield(id string, req *api.Shield) (*pool.ShieldResult, error) {
	res := &pool.ShieldResult{}
	if err := c.call(HTTPPOST, req, res, nil, poolPath(id, "shield")...); err != nil {
		return nil, err
	}
	return res, nil
}

// Unshield spends a note.
func (c *HTTPclient) Unshield(id string, req *api.Unshield) (*pool.UnshieldResult, error) {
	res := &pool.UnshieldResult{}
	if err := c.call(HTTPPOST, req, res, nil, poolPath(id, "unshield")...); err != nil {
		return nil, err
	}
	return res, nil
}

// Transfer performs a private transfer.
func (c *HTTPclient) Transfer(id string, req *api.Transfer) (*pool.TransferResult, error) {
	res := &pool.TransferResult{}
	if err := c.call(HTTPPOST, req, res, nil, poolPath(id, "transfer")...); err != nil {
		return nil, err
	}
	return res, nil
}

// RootStatus tells whether a pool accepts root.
func (c *HTTPclient) RootStatus(id string, root types.Hash) (*api.RootStatus, error) {
	res := &api.RootStatus{}
	if err := c.call(HTTPGET, nil, res, nil, poolPath(id, "roots", root.String())...); err != nil {
		return nil, err
	}
	return res, nil
}

// NullifierProof returns the audit proof of a nullifier.
func (c *HTTPclient) NullifierProof(id string, n types.Hash) (*storage.NullifierProof, error) {
	res := &storage.NullifierProof{}
	if err := c.call(HTTPGET, nil, res, nil, poolPath(id, "nullifiers", n.String())...); err != nil {
		return nil, err
	}
	return res, nil
}

// Commitment returns the leaf index of a note commitment.
func (c *HTTPclient) Commitment(id string, cm types.Hash) (uint64, error) {
	res := &api.CommitmentStatus{}
	if err := c.call(HTTPGET, nil, res, nil, poolPath(id, "commitments", cm.String())...); err != nil {
		return 0, err
	}
	return res.LeafIndex, nil
}

// Leaves returns up to limit note commitments starting at index from.
func (c *HTTPclient) Leaves(id string, from uint64, limit int) ([]types.Hash, error) {
	res := &api.Leaves{}
	params := []string{"from", strconv.FormatUint(from, 10), "limit", strconv.Itoa(limit)}
	if err := c.call(HTTPGET, nil, res, params, poolPath(id, "leaves")...); err != nil {
		return nil, err
	}
	return res.Leaves, nil
}

// Events returns up to limit events starting at sequence from.
func (c *HTTPclient) Events(id string, from uint64, limit int) ([]pool.Event, error) {
	res := &api.Events{}
	params := []string{"from", strconv.FormatUint(from, 10), "limit", strconv.Itoa(limit)}
	if err := c.call(HTTPGET, nil, res, params, poolPath(id, "events")...); err != nil {
		return nil, err
	}
	return res.Events, nil
}

// Account returns the ledger balance of an account and the nonce its next
// deposit must be signed with.
func (c *HTTPclient) Account(addr common.Address) (*api.Balance, error) {
	res := &api.Balance{}
	if err := c.call(HTTPGET, nil, res, nil, "accounts", addr.Hex(), "balance"); err != nil {
		return nil, err
	}
	return res, nil
}

// Balance returns the ledger balance of an account.
func (c *HTTPclient) Balance(addr common.Address) (uint64, error) {
	res, err := c.Account(addr)
	if err != nil {
		return 0, err
	}
	return res.Balance, nil
}

// Fund credits an account through the faucet and returns its new balance.
func (c *HTTPclient) Fund(addr common.Address, amount uint64) (uint64, error) {
	res := &api.Balance{}
	if err := c.call(HTTPPOST, &api.Fund{Amount: amount}, res, nil, "accounts", addr.Hex(), "fund"); err != nil {
		return 0, err
	}
	return res.Balance, nil
}

package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"

	PoolURLParam       = "poolId"
	RootURLParam       = "root"
	NullifierURLParam  = "nullifier"
	CommitmentURLParam = "commitment"
	AddressURLParam    = "address"

	// PoolsEndpoint lists the pools (GET) or creates a new one (POST)
	PoolsEndpoint = "/pools"
	// PoolEndpoint returns the state of a pool
	PoolEndpoint = "/pools/{" + PoolURLParam + "}"
	// ShieldEndpoint deposits value into a pool behind a note commitment
	ShieldEndpoint = PoolEndpoint + "/shield"
	// UnshieldEndpoint spends a note and pays its value out of the pool
	UnshieldEndpoint = PoolEndpoint + "/unshield"
	// TransferEndpoint spends and creates notes without value leaving the pool
	TransferEndpoint = PoolEndpoint + "/transfer"
	// RootEndpoint tells whether a root is accepted by a pool
	RootEndpoint = PoolEndpoint + "/roots/{" + RootURLParam + "}"
	// NullifierEndpoint returns the audit proof of a nullifier
	NullifierEndpoint = PoolEndpoint + "/nullifiers/{" + NullifierURLParam + "}"
	// CommitmentEndpoint returns the leaf index of a note commitment
	CommitmentEndpoint = PoolEndpoint + "/commitments/{" + CommitmentURLParam + "}"
	// LeavesEndpoint pages through the note commitments of a pool, supports
	// the from and limit query parameters
	LeavesEndpoint = PoolEndpoint + "/leaves"
	// EventsEndpoint pages through the events of a pool, supports the from
	// and limit query parameters
	EventsEndpoint = PoolEndpoint + "/events"

	// BalanceEndpoint returns the ledger balance and the next deposit nonce
	// of an account
	BalanceEndpoint = "/accounts/{" + AddressURLParam + "}/balance"
	// FundEndpoint credits an account, only served when the faucet is on
	FundEndpoint = "/accounts/{" + AddressURLParam + "}/fund"

	// DefaultPageSize and MaxPageSize bound the paginated endpoints
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/whistle-protocol/shieldpool/api"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/storage"
)

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	storage *storage.Storage
	pools   *Pools
	api     *api.API
	mu      sync.Mutex
	host    string
	port    int
	faucet  bool
}

// NewAPI creates a new APIService instance serving the given pools.
func NewAPI(storage *storage.Storage, pools *Pools, host string, port int, faucet bool) *APIService {
	return &APIService{
		storage: storage,
		pools:   pools,
		host:    host,
		port:    port,
		faucet:  faucet,
	}
}

// Start begins the API server. It returns an error if the service
// is already running or if it fails to start.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.api != nil {
		return fmt.Errorf("service already running")
	}

	var err error
	as.api, err = api.New(&api.APIConfig{
		Host:    as.host,
		Port:    as.port,
		Storage: as.storage,
		Pools:   as.pools,
		Faucet:  as.faucet,
	})
	if err != nil {
		as.api = nil
		return fmt.Errorf("failed to start API server: %w", err)
	}
	return nil
}

// Stop halts the API server. The storage is left open.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.api == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := as.api.Close(ctx); err != nil {
		log.Warnw("API server shutdown", "error", err)
	}
	as.api = nil
}

// Addr returns the address the running server listens on, or nil.
func (as *APIService) Addr() net.Addr {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.api == nil {
		return nil
	}
	return as.api.Addr()
}

// HostPort returns the configured host and port of the API server.
func (as *APIService) HostPort() (string, int) {
	return as.host, as.port
}

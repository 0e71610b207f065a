package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/pool"
	stg "github.com/whistle-protocol/shieldpool/storage"
)

// Registry gives the API access to the pools served by the node.
type Registry interface {
	Pool(id string) (*pool.Pool, bool)
	IDs() []string
	Create(ctx context.Context, id string, cfg pool.Config, keys *stg.PoolKeys) (*pool.Pool, error)
}

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host    string
	Port    int
	Storage *stg.Storage
	Pools   Registry
	// Faucet enables the account funding endpoint.
	Faucet bool
}

// API type represents the API HTTP server.
type API struct {
	router  *chi.Mux
	server  *http.Server
	addr    net.Addr
	storage *stg.Storage
	pools   Registry
	faucet  bool
}

// New creates a new API instance with the given configuration and starts
// serving it in the background.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Storage == nil {
		return nil, fmt.Errorf("missing storage instance")
	}
	if conf.Pools == nil {
		return nil, fmt.Errorf("missing pool registry")
	}
	a := &API{
		storage: conf.Storage,
		pools:   conf.Pools,
		faucet:  conf.Faucet,
	}

	// Initialize router
	a.initRouter()
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", conf.Host, conf.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	a.addr = ln.Addr()
	a.server = &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("starting API server", "addr", a.addr.String())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server stopped")
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// Addr returns the address the server listens on.
func (a *API) Addr() net.Addr {
	return a.addr
}

// Close gracefully stops the HTTP server.
func (a *API) Close(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	routes := []struct {
		method  string
		pattern string
		handler http.HandlerFunc
	}{
		{http.MethodGet, PingEndpoint, func(w http.ResponseWriter, r *http.Request) { httpWriteOK(w) }},
		{http.MethodGet, PoolsEndpoint, a.listPools},
		{http.MethodPost, PoolsEndpoint, a.newPool},
		{http.MethodGet, PoolEndpoint, a.poolInfo},
		{http.MethodPost, ShieldEndpoint, a.shield},
		{http.MethodPost, UnshieldEndpoint, a.unshield},
		{http.MethodPost, TransferEndpoint, a.transfer},
		{http.MethodGet, RootEndpoint, a.rootStatus},
		{http.MethodGet, NullifierEndpoint, a.nullifierProof},
		{http.MethodGet, CommitmentEndpoint, a.commitment},
		{http.MethodGet, LeavesEndpoint, a.leaves},
		{http.MethodGet, EventsEndpoint, a.events},
		{http.MethodGet, BalanceEndpoint, a.balance},
		{http.MethodPost, FundEndpoint, a.fund},
	}
	for _, rt := range routes {
		log.Debugw("register handler", "endpoint", rt.pattern, "method", rt.method)
		a.router.Method(rt.method, rt.pattern, rt.handler)
	}
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}

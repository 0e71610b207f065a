package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/whistle-protocol/shieldpool/config"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/service"
	"github.com/whistle-protocol/shieldpool/storage"
	"go.vocdoni.io/dvote/db/metadb"
)

func main() {
	def := config.Default()
	configPath := flag.String("config", "", "path to a JSON configuration file")
	datadir := flag.String("datadir", def.Datadir, "data directory")
	logLevel := flag.String("logLevel", def.LogLevel, "log level (debug, info, warn, error)")
	apiHost := flag.String("apiHost", def.API.Host, "API listen host")
	apiPort := flag.Int("apiPort", def.API.Port, "API listen port")
	faucet := flag.Bool("faucet", false, "enable the account funding endpoint")
	keyTimeout := flag.Duration("keyTimeout", 5*time.Minute, "timeout for downloading verifying keys")
	flag.Parse()

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	// flags given explicitly override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "datadir":
			cfg.Datadir = *datadir
		case "logLevel":
			cfg.LogLevel = *logLevel
		case "apiHost":
			cfg.API.Host = *apiHost
		case "apiPort":
			cfg.API.Port = *apiPort
		case "faucet":
			cfg.API.Faucet = *faucet
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel, cfg.LogOutput, nil)

	if err := os.MkdirAll(cfg.Datadir, 0o755); err != nil {
		log.Fatalf("create datadir: %v", err)
	}
	database, err := metadb.New(cfg.DBType, filepath.Join(cfg.Datadir, "db"))
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	stg := storage.New(database)
	defer stg.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pools := service.NewPools(stg, pool.WithEventHandler(func(e pool.Event) {
		log.Debugw("pool event", "pool", e.Pool, "type", string(e.Type), "root", e.Root.String())
	}))
	if err := service.SetupPools(ctx, pools, cfg.Pools, *keyTimeout); err != nil {
		log.Fatalf("setup pools: %v", err)
	}

	apiService := service.NewAPI(stg, pools, cfg.API.Host, cfg.API.Port, cfg.API.Faucet)
	if err := apiService.Start(ctx); err != nil {
		log.Fatalf("start API: %v", err)
	}
	log.Infow("shieldpool node ready", "pools", pools.IDs(), "api", apiService.Addr().String(), "faucet", cfg.API.Faucet)

	<-ctx.Done()
	log.Infow("shutting down")
	apiService.Stop()
}

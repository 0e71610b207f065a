// Package config holds the daemon configuration: storage, logging, API and
// the pools to serve.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/whistle-protocol/shieldpool/circuits"
	"github.com/whistle-protocol/shieldpool/crypto/ecc/curves"
	"github.com/whistle-protocol/shieldpool/log"
	"github.com/whistle-protocol/shieldpool/pool"
	"go.vocdoni.io/dvote/db"
)

const (
	DefaultAPIHost = "0.0.0.0"
	DefaultAPIPort = 9090
)

// Config is the daemon configuration.
type Config struct {
	Datadir   string       `json:"datadir"`
	DBType    string       `json:"dbType"`
	LogLevel  string       `json:"logLevel"`
	LogOutput string       `json:"logOutput"`
	API       APIConfig    `json:"api"`
	Pools     []PoolConfig `json:"pools"`
}

type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// Faucet enables the endpoint crediting arbitrary accounts, for
	// development networks only.
	Faucet bool `json:"faucet"`
}

// PoolConfig describes a pool created at startup if it does not exist yet.
type PoolConfig struct {
	ID string `json:"id"`
	pool.Config
	// Engine selects the pairing implementation, see curves.Engines.
	Engine string `json:"engine"`
	// VerifierCache is the number of proof verdicts memoized per verifier,
	// 0 disables the cache.
	VerifierCache int       `json:"verifierCache"`
	WithdrawKey   KeyConfig `json:"withdrawKey"`
	TransferKey   KeyConfig `json:"transferKey"`
}

// KeyConfig locates a verifying key artifact and tells how it is encoded.
type KeyConfig struct {
	circuits.Artifact
	Format string `json:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	datadir := filepath.Join(os.TempDir(), "shieldpool")
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		datadir = filepath.Join(home, ".shieldpool")
	}
	return &Config{
		Datadir:   datadir,
		DBType:    db.TypePebble,
		LogLevel:  log.LogLevelInfo,
		LogOutput: "stdout",
		API: APIConfig{
			Host: DefaultAPIHost,
			Port: DefaultAPIPort,
		},
	}
}

// DefaultPool returns a pool configuration with the default parameters and
// the given verifying keys.
func DefaultPool(id string, withdrawKey, transferKey KeyConfig) PoolConfig {
	return PoolConfig{
		ID:          id,
		Config:      pool.DefaultConfig(),
		Engine:      curves.EngineDefault,
		WithdrawKey: withdrawKey,
		TransferKey: transferKey,
	}
}

// Load reads a JSON configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	for i := range cfg.Pools {
		cfg.Pools[i].fillDefaults()
	}
	return cfg, nil
}

// fillDefaults sets the parameters a pool entry left out.
func (p *PoolConfig) fillDefaults() {
	def := pool.DefaultConfig()
	if p.Depth == 0 {
		p.Depth = def.Depth
	}
	if p.HistorySize == 0 {
		p.HistorySize = def.HistorySize
	}
	if p.NullifierCapacity == 0 {
		p.NullifierCapacity = def.NullifierCapacity
	}
	if p.MinDeposit == 0 {
		p.MinDeposit = def.MinDeposit
	}
	if len(p.Denominations) == 0 {
		p.Denominations = def.Denominations
	}
	if p.Hasher == "" {
		p.Hasher = def.Hasher
	}
	if p.Engine == "" {
		p.Engine = curves.EngineDefault
	}
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if c.Datadir == "" {
		return fmt.Errorf("missing datadir")
	}
	if c.DBType == "" {
		return fmt.Errorf("missing db type")
	}
	switch c.LogLevel {
	case log.LogLevelDebug, log.LogLevelInfo, log.LogLevelWarn, log.LogLevelError:
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	seen := make(map[string]bool, len(c.Pools))
	for i := range c.Pools {
		p := &c.Pools[i]
		if seen[p.ID] {
			return fmt.Errorf("duplicate pool %q", p.ID)
		}
		seen[p.ID] = true
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pool %q: %w", p.ID, err)
		}
	}
	return nil
}

// Validate checks a pool entry.
func (p *PoolConfig) Validate() error {
	if !pool.ValidID(p.ID) {
		return fmt.Errorf("invalid pool id %q", p.ID)
	}
	if err := p.Config.Validate(); err != nil {
		return err
	}
	if _, err := curves.New(p.Engine); err != nil {
		return err
	}
	if p.VerifierCache < 0 {
		return fmt.Errorf("negative verifier cache size")
	}
	for name, k := range map[string]KeyConfig{"withdraw": p.WithdrawKey, "transfer": p.TransferKey} {
		if len(k.Hash) == 0 && len(k.Content) == 0 {
			return fmt.Errorf("%s verifying key: no hash", name)
		}
		switch k.Format {
		case "", circuits.KeyFormatGnark, circuits.KeyFormatSnarkJS:
		default:
			return fmt.Errorf("%s verifying key: unknown format %q", name, k.Format)
		}
	}
	return nil
}

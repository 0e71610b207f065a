package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/whistle-protocol/shieldpool/crypto/ecc/curves"
	"github.com/whistle-protocol/shieldpool/pool"
	"github.com/whistle-protocol/shieldpool/storage"
	"github.com/whistle-protocol/shieldpool/types"
	"github.com/whistle-protocol/shieldpool/verifier"
	"go.vocdoni.io/dvote/db/metadb"
)

// generatorKey returns a well formed verifying key no proof verifies
// against.
func generatorKey(c *qt.C, nPublic int) *verifier.VerifyingKey {
	_, _, g1, g2 := bn254.Generators()
	g1JSON := fmt.Sprintf(`["%s","%s","1"]`, g1.X.String(), g1.Y.String())
	g2JSON := fmt.Sprintf(`[["%s","%s"],["%s","%s"],["1","0"]]`,
		g2.X.A0.String(), g2.X.A1.String(), g2.Y.A0.String(), g2.Y.A1.String())
	ic := make([]string, nPublic+1)
	for i := range ic {
		ic[i] = g1JSON
	}
	vk, err := verifier.LoadSnarkJSVerifyingKey([]byte(fmt.Sprintf(
		`{"protocol":"groth16","curve":"bn128","nPublic":%d,`+
			`"vk_alpha_1":%s,"vk_beta_2":%s,"vk_gamma_2":%s,"vk_delta_2":%s,"IC":[%s]}`,
		nPublic, g1JSON, g2JSON, g2JSON, g2JSON, strings.Join(ic, ","))))
	c.Assert(err, qt.IsNil)
	return vk
}

func testKeys(c *qt.C) *storage.PoolKeys {
	return &storage.PoolKeys{
		Engine:        curves.EngineDefault,
		VerifierCache: 16,
		Withdraw:      generatorKey(c, verifier.WithdrawInputCount),
		Transfer:      generatorKey(c, verifier.TransferInputCount),
	}
}

func testConfig() pool.Config {
	cfg := pool.DefaultConfig()
	cfg.Depth = pool.MinDepth
	return cfg
}

func TestPoolsCreate(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	stg := storage.New(metadb.NewTest(t))

	var events []pool.Event
	ps := NewPools(stg, pool.WithEventHandler(func(e pool.Event) { events = append(events, e) }))

	p, err := ps.Create(ctx, "b", testConfig(), testKeys(c))
	c.Assert(err, qt.IsNil)
	c.Assert(p.State().Initialized, qt.IsTrue)
	c.Assert(events, qt.HasLen, 1)
	c.Assert(events[0].Type, qt.Equals, pool.EventPoolInitialized)

	_, err = ps.Create(ctx, "a", testConfig(), testKeys(c))
	c.Assert(err, qt.IsNil)
	c.Assert(ps.IDs(), qt.DeepEquals, []string{"a", "b"})

	_, err = ps.Create(ctx, "a", testConfig(), testKeys(c))
	c.Assert(err, qt.ErrorIs, storage.ErrPoolExists)

	bad := testKeys(c)
	bad.Engine = "unknown"
	_, err = ps.Create(ctx, "c", testConfig(), bad)
	c.Assert(err, qt.IsNotNil)
	_, ok := ps.Pool("c")
	c.Assert(ok, qt.IsFalse)

	cfg := testConfig()
	cfg.Depth = 3
	_, err = ps.Create(ctx, "c", cfg, testKeys(c))
	c.Assert(pool.ErrorKind(err), qt.Equals, pool.KindConfig)

	// an initialization that is not committed stores no keys
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = ps.Create(cancelled, "d", testConfig(), testKeys(c))
	c.Assert(err, qt.ErrorIs, context.Canceled)
	_, err = stg.PoolKeys("d")
	c.Assert(err, qt.ErrorIs, storage.ErrNotFound)
	_, err = ps.Create(ctx, "d", testConfig(), testKeys(c))
	c.Assert(err, qt.IsNil)
	keys, err := stg.PoolKeys("d")
	c.Assert(err, qt.IsNil)
	c.Assert(keys.Engine, qt.Equals, curves.EngineDefault)
}

func TestPoolsLoadAll(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	kv := metadb.NewTest(t)
	stg := storage.New(kv)

	ps := NewPools(stg)
	p, err := ps.Create(ctx, "main", testConfig(), testKeys(c))
	c.Assert(err, qt.IsNil)
	depositor := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	_, err = stg.Fund(depositor, types.LamportsPerSol)
	c.Assert(err, qt.IsNil)
	_, err = p.Shield(ctx, &pool.ShieldRequest{
		Depositor:  depositor,
		Commitment: types.Uint64ToHash(42),
		Amount:     types.LamportsPerSol,
	})
	c.Assert(err, qt.IsNil)
	want := p.State()

	// a registry over the same database sees the pool as it was left
	restored := NewPools(storage.New(kv))
	n, err := restored.LoadAll()
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)
	got, ok := restored.Pool("main")
	c.Assert(ok, qt.IsTrue)
	c.Assert(got.State(), qt.DeepEquals, want)
	c.Assert(got.Config(), qt.DeepEquals, p.Config())

	n, err = restored.LoadAll()
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 0)
}

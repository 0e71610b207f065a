// Command keygen compiles the withdraw and transfer circuits for a tree depth
// and writes the verifying keys of a single-party Groth16 setup. The setup
// knows its own toxic waste, so the keys are only good for development
// networks.
package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/consensys/gnark/frontend"
	"github.com/whistle-protocol/shieldpool/circuits/testutil"
	"github.com/whistle-protocol/shieldpool/circuits/transfer"
	"github.com/whistle-protocol/shieldpool/circuits/withdraw"
	"github.com/whistle-protocol/shieldpool/pool"
)

func main() {
	depth := flag.Int("depth", pool.DefaultDepth, "merkle tree depth of the pool")
	outdir := flag.String("out", ".", "output directory")
	proving := flag.Bool("provingKeys", false, "also write the proving keys")
	flag.Parse()

	if err := pool.ValidateDepth(*depth); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	circuits := []struct {
		name        string
		placeholder frontend.Circuit
	}{
		{"withdraw", withdraw.Placeholder(*depth)},
		{"transfer", transfer.Placeholder(*depth)},
	}
	for _, c := range circuits {
		start := time.Now()
		keys, err := testutil.Setup(c.placeholder)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", c.name, err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d constraints, setup took %s\n", c.name, keys.CCS.GetNbConstraints(), time.Since(start))

		vkFile := filepath.Join(*outdir, fmt.Sprintf("%s_%d.vk", c.name, *depth))
		sum, err := writeKey(vkFile, keys.VK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", c.name, err)
			os.Exit(1)
		}
		fmt.Printf("  verifying key %s sha256 %x\n", vkFile, sum)
		if *proving {
			pkFile := filepath.Join(*outdir, fmt.Sprintf("%s_%d.pk", c.name, *depth))
			if _, err := writeKey(pkFile, keys.PK); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", c.name, err)
				os.Exit(1)
			}
			fmt.Printf("  proving key %s\n", pkFile)
		}
	}
}

// writeKey writes a gnark key and returns the sha256 of the file.
func writeKey(path string, key io.WriterTo) ([]byte, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := key.WriteTo(io.MultiWriter(f, h)); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

package circuits

import (
	"bytes"
	"context"
	"fmt"

	"github.com/whistle-protocol/shieldpool/verifier"
)

// Verifying key encodings accepted by LoadVerifyingKey.
const (
	KeyFormatGnark   = "gnark"
	KeyFormatSnarkJS = "snarkjs"
)

// LoadVerifyingKey loads the artifact and decodes it as a Groth16 verifying
// key in the given format: a gnark binary dump of a BN254 key, or a snarkjs
// verification_key.json.
func LoadVerifyingKey(ctx context.Context, a *Artifact, format string) (*verifier.VerifyingKey, error) {
	if err := a.Load(ctx); err != nil {
		return nil, fmt.Errorf("load verifying key: %w", err)
	}
	return DecodeVerifyingKey(a.Content, format)
}

// DecodeVerifyingKey decodes a verifying key in the given format. An empty
// format means gnark.
func DecodeVerifyingKey(content []byte, format string) (*verifier.VerifyingKey, error) {
	switch format {
	case KeyFormatGnark, "":
		return verifier.ReadGnarkVerifyingKey(bytes.NewReader(content))
	case KeyFormatSnarkJS:
		return verifier.LoadSnarkJSVerifyingKey(content)
	default:
		return nil, fmt.Errorf("unknown verifying key format %q", format)
	}
}

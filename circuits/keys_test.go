package circuits_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/whistle-protocol/shieldpool/circuits"
	"github.com/whistle-protocol/shieldpool/circuits/testutil"
	"github.com/whistle-protocol/shieldpool/verifier"
)

func TestLoadVerifyingKey(t *testing.T) {
	c := qt.New(t)
	keys, err := testutil.TransferKeys(4)
	c.Assert(err, qt.IsNil)
	var buf bytes.Buffer
	_, err = keys.VK.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	want, err := keys.VerifyingKey()
	c.Assert(err, qt.IsNil)

	sum := sha256.Sum256(buf.Bytes())
	a := &circuits.Artifact{Hash: sum[:], Content: buf.Bytes()}
	vk, err := circuits.LoadVerifyingKey(context.Background(), a, circuits.KeyFormatGnark)
	c.Assert(err, qt.IsNil)
	c.Assert(vk, qt.DeepEquals, want)
	c.Assert(vk.NumPublicInputs(), qt.Equals, verifier.TransferInputCount)

	_, err = circuits.LoadVerifyingKey(context.Background(), a, "zokrates")
	c.Assert(err, qt.ErrorMatches, `unknown verifying key format "zokrates"`)
}

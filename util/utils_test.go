package util

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/whistle-protocol/shieldpool/crypto"
)

func TestRandomFieldElement(t *testing.T) {
	c := qt.New(t)
	a, b := RandomFieldElement(), RandomFieldElement()
	c.Assert(crypto.IsCanonical(a), qt.IsTrue)
	c.Assert(crypto.IsCanonical(b), qt.IsTrue)
	c.Assert(a, qt.Not(qt.Equals), b)
}

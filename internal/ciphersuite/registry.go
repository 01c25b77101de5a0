package ciphersuite

import (
	"fmt"

	"github.com/threshold-network/frost-signer/internal/ciphersuite/ed25519"
	"github.com/threshold-network/frost-signer/internal/ciphersuite/secp256k1"
)

// Get resolves a ciphersuite name to its façade implementation. Both
// concrete suites are cheap to construct (no global/thread-local state is
// kept across calls, per spec.md's design notes), so a fresh instance per
// call is fine.
func Get(name Name) (Suite, error) {
	switch name {
	case Secp256k1:
		return secp256k1.New(), nil
	case Ed25519:
		return ed25519.New(), nil
	default:
		return nil, fmt.Errorf("ciphersuite: unknown suite %q", name)
	}
}

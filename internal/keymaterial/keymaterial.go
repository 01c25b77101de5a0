// Package keymaterial holds small at-rest key loading helpers shared by
// cmd/coordinator and cmd/signer that don't belong to any single domain
// package: the audit log's Ed25519 signing key.
package keymaterial

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/cloudflare/circl/sign/ed25519"
)

// LoadOrGenerateAuditKey reads an Ed25519 private key from path, generating
// and persisting one (mode 0600) on first run. Every process that logs
// audit events needs a stable signing identity across restarts so the hash
// chain's signatures remain verifiable against one long-lived key. Uses
// circl's ed25519, matching internal/audit's signing implementation.
func LoadOrGenerateAuditKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("keymaterial: audit key file %s has length %d, want %d", path, len(data), ed25519.PrivateKeySize)
		}
		return ed25519.PrivateKey(data), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("keymaterial: reading audit key file %s: %w", path, err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keymaterial: generating audit key: %w", err)
	}
	if err := os.WriteFile(path, priv, 0o600); err != nil {
		return nil, fmt.Errorf("keymaterial: writing audit key file %s: %w", path, err)
	}
	return priv, nil
}

// Package kek implements envelope encryption for key shares at rest, per
// original_source/apps/signer/src/frost/signer_logic.rs's "key shares are
// stored with envelope encryption (DEK wrapped by KEK)" design: the key
// package itself is the data, AES-256-GCM under a key-encryption key is the
// wrap. Only the local provider is implemented; the pack carries no KMS SDK,
// matching signer_logic.rs's own "for now, use simple encryption" note.
package kek

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrKMSUnimplemented is returned by NewKMS; no KMS client is wired.
var ErrKMSUnimplemented = errors.New("kek: kms provider is not implemented, use \"local\"")

// Provider wraps and unwraps key-share plaintext under a key-encryption key.
type Provider interface {
	Wrap(plaintext []byte) (ciphertext []byte, err error)
	Unwrap(ciphertext []byte) (plaintext []byte, err error)
}

// Local is the file-backed KEK provider: AES-256-GCM with a random nonce
// prepended to the ciphertext, development-grade per spec.md 6.5's default.
type Local struct {
	aead cipher.AEAD
}

// NewLocal builds a Local provider from a 32-byte master key.
func NewLocal(masterKey [32]byte) (*Local, error) {
	block, err := aes.NewCipher(masterKey[:])
	if err != nil {
		return nil, fmt.Errorf("kek: constructing AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("kek: constructing GCM: %w", err)
	}
	return &Local{aead: aead}, nil
}

func (l *Local) Wrap(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, l.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("kek: generating nonce: %w", err)
	}
	return l.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (l *Local) Unwrap(ciphertext []byte) ([]byte, error) {
	n := l.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, fmt.Errorf("kek: ciphertext shorter than nonce")
	}
	nonce, sealed := ciphertext[:n], ciphertext[n:]
	plaintext, err := l.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("kek: decryption failed: %w", err)
	}
	return plaintext, nil
}

// NewKMS always fails; kept so config's "kms" selection fails loudly and
// specifically rather than silently falling back to local.
func NewKMS(keyID string) (Provider, error) {
	return nil, ErrKMSUnimplemented
}

// LoadOrGenerateMasterKey reads a 32-byte master key from path, generating
// and persisting one (mode 0600) if the file does not yet exist.
func LoadOrGenerateMasterKey(path string) ([32]byte, error) {
	var key [32]byte
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != 32 {
			return key, fmt.Errorf("kek: master key file %s has length %d, want 32", path, len(data))
		}
		copy(key[:], data)
		return key, nil
	}
	if !os.IsNotExist(err) {
		return key, fmt.Errorf("kek: reading master key file %s: %w", path, err)
	}

	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, fmt.Errorf("kek: generating master key: %w", err)
	}
	if err := os.WriteFile(path, key[:], 0o600); err != nil {
		return key, fmt.Errorf("kek: writing master key file %s: %w", path, err)
	}
	return key, nil
}

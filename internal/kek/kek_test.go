package kek

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalWrapUnwrapRoundTrip(t *testing.T) {
	var key [32]byte
	copy(key[:], []byte("0123456789abcdef0123456789abcdef"))
	provider, err := NewLocal(key)
	require.NoError(t, err)

	plaintext := []byte("a frost key package")
	ciphertext, err := provider.Wrap(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	decrypted, err := provider.Unwrap(ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestLocalUnwrapFailsOnTamperedCiphertext(t *testing.T) {
	var key [32]byte
	copy(key[:], []byte("0123456789abcdef0123456789abcdef"))
	provider, err := NewLocal(key)
	require.NoError(t, err)

	ciphertext, err := provider.Wrap([]byte("secret"))
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xff

	_, err = provider.Unwrap(ciphertext)
	require.Error(t, err)
}

func TestLoadOrGenerateMasterKeyPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.key")

	k1, err := LoadOrGenerateMasterKey(path)
	require.NoError(t, err)
	k2, err := LoadOrGenerateMasterKey(path)
	require.NoError(t, err)
	require.Equal(t, k1, k2)
}

func TestNewKMSIsUnimplemented(t *testing.T) {
	_, err := NewKMS("some-key-id")
	require.ErrorIs(t, err, ErrKMSUnimplemented)
}

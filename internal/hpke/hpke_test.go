package hpke

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	recipient, err := Generate()
	require.NoError(t, err)

	info := []byte("session-42|from=1|to=2|commitment=deadbeef")
	plaintext := []byte("a round-2 Feldman share, secret")

	payload, err := Seal(recipient.PublicKey, info, plaintext)
	require.NoError(t, err)

	wire := payload.Bytes()
	parsed, err := ParsePayload(wire)
	require.NoError(t, err)

	opened, err := Open(recipient, info, parsed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestOpenFailsWithWrongInfo(t *testing.T) {
	recipient, err := Generate()
	require.NoError(t, err)

	payload, err := Seal(recipient.PublicKey, []byte("ctx-a"), []byte("secret"))
	require.NoError(t, err)

	_, err = Open(recipient, []byte("ctx-b"), payload)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestOpenFailsForWrongRecipient(t *testing.T) {
	recipient, err := Generate()
	require.NoError(t, err)
	other, err := Generate()
	require.NoError(t, err)

	payload, err := Seal(recipient.PublicKey, []byte("ctx"), []byte("secret"))
	require.NoError(t, err)

	_, err = Open(other, []byte("ctx"), payload)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestParsePayloadRejectsTruncated(t *testing.T) {
	_, err := ParsePayload([]byte{0, 0, 0, 32, 1, 2, 3})
	require.ErrorIs(t, err, ErrMalformedInput)
}

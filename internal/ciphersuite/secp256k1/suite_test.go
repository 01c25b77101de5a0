package secp256k1

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
)

// runDKG drives a complete 2-of-3 DKG across three in-process suite
// instances and returns each participant's key package plus the shared
// public key package, mirroring the flow a coordinator and its signers
// would run over HPKE-sealed round-2 messages (sealing is the caller's
// concern here, not the ciphersuite's).
func runDKG(t *testing.T, ids []uint16, threshold uint16) (keyPackages map[uint16][]byte, pubKeyPackage []byte) {
	t.Helper()
	total := uint16(len(ids))

	suites := make(map[uint16]*Suite, len(ids))
	round1Secrets := make(map[uint16][]byte, len(ids))
	round1Packages := make(map[uint16][]byte, len(ids))
	for _, id := range ids {
		suites[id] = New()
		secret, pkg, err := suites[id].DKGRound1(id, threshold, total)
		require.NoError(t, err)
		round1Secrets[id] = secret
		round1Packages[id] = pkg
	}

	round2Secrets := make(map[uint16][]byte, len(ids))
	sharesToEachRecipient := make(map[uint16]map[uint16][]byte, len(ids))
	for _, id := range ids {
		secret2, shares, err := suites[id].DKGRound2(id, round1Secrets[id], round1Packages)
		require.NoError(t, err)
		round2Secrets[id] = secret2
		for recipient, share := range shares {
			if sharesToEachRecipient[recipient] == nil {
				sharesToEachRecipient[recipient] = make(map[uint16][]byte)
			}
			sharesToEachRecipient[recipient][id] = share
		}
	}

	keyPackages = make(map[uint16][]byte, len(ids))
	var pkp []byte
	for _, id := range ids {
		kp, gotPkp, _, err := suites[id].DKGFinalize(id, round2Secrets[id], round1Packages, sharesToEachRecipient[id])
		require.NoError(t, err)
		keyPackages[id] = kp
		pkp = gotPkp
	}
	return keyPackages, pkp
}

func TestDKGAndSigningRoundTrip(t *testing.T) {
	ids := []uint16{1, 2, 3}
	keyPackages, pkp := runDKG(t, ids, 2)

	suite := New()
	groupHex, err := suite.GroupPublicKeyHex(pkp)
	require.NoError(t, err)
	require.Len(t, groupHex, 66)

	signers := []uint16{1, 3}
	message := []byte("roast: the cheeseboard waits for no one")

	noncesByID := make(map[uint16][]byte, len(signers))
	commitments := make(map[uint16][]byte, len(signers))
	for _, id := range signers {
		n, c, err := suite.Commit(keyPackages[id])
		require.NoError(t, err)
		noncesByID[id] = n
		commitments[id] = c
	}

	sp := csid.SigningPackage{Message: message, Commitments: commitments}

	shares := make(map[uint16][]byte, len(signers))
	for _, id := range signers {
		share, err := suite.Sign(keyPackages[id], noncesByID[id], sp)
		require.NoError(t, err)
		shares[id] = share
	}

	sig, culprits, err := suite.Aggregate(pkp, sp, shares)
	require.NoError(t, err)
	require.Empty(t, culprits)

	require.NoError(t, suite.Verify(pkp, message, sig))
}

func TestAggregateReportsCulpritForBadShare(t *testing.T) {
	ids := []uint16{1, 2, 3}
	keyPackages, pkp := runDKG(t, ids, 2)

	suite := New()
	signers := []uint16{1, 2}
	message := []byte("culprit attribution test")

	noncesByID := make(map[uint16][]byte, len(signers))
	commitments := make(map[uint16][]byte, len(signers))
	for _, id := range signers {
		n, c, err := suite.Commit(keyPackages[id])
		require.NoError(t, err)
		noncesByID[id] = n
		commitments[id] = c
	}
	sp := csid.SigningPackage{Message: message, Commitments: commitments}

	shares := make(map[uint16][]byte, len(signers))
	for _, id := range signers {
		share, err := suite.Sign(keyPackages[id], noncesByID[id], sp)
		require.NoError(t, err)
		shares[id] = share
	}

	// Corrupt participant 2's opaque share envelope so it decodes to a
	// different scalar than the one it actually committed to.
	tampered, err := csid.Open(csid.Secp256k1, shares[2])
	require.NoError(t, err)
	tampered = append([]byte{}, tampered...)
	tampered[len(tampered)-2] ^= 0xff
	shares[2] = csid.Envelope(csid.Secp256k1, tampered)

	_, culprits, err := suite.Aggregate(pkp, sp, shares)
	require.Error(t, err)
	require.Contains(t, culprits, uint16(2))
}

func TestDKGRejectsTamperedShare(t *testing.T) {
	ids := []uint16{1, 2, 3}
	suites := make(map[uint16]*Suite, len(ids))
	round1Secrets := make(map[uint16][]byte, len(ids))
	round1Packages := make(map[uint16][]byte, len(ids))
	for _, id := range ids {
		suites[id] = New()
		secret, pkg, err := suites[id].DKGRound1(id, 2, 3)
		require.NoError(t, err)
		round1Secrets[id] = secret
		round1Packages[id] = pkg
	}

	round2Secrets := make(map[uint16][]byte, len(ids))
	sharesToEachRecipient := make(map[uint16]map[uint16][]byte, len(ids))
	for _, id := range ids {
		secret2, shares, err := suites[id].DKGRound2(id, round1Secrets[id], round1Packages)
		require.NoError(t, err)
		round2Secrets[id] = secret2
		for recipient, share := range shares {
			if sharesToEachRecipient[recipient] == nil {
				sharesToEachRecipient[recipient] = make(map[uint16][]byte)
			}
			sharesToEachRecipient[recipient][id] = share
		}
	}

	victim := uint16(1)
	attacker := uint16(2)
	plain, err := csid.Open(csid.Secp256k1, sharesToEachRecipient[victim][attacker])
	require.NoError(t, err)
	plain = append([]byte{}, plain...)
	plain[len(plain)-2] ^= 0xff
	sharesToEachRecipient[victim][attacker] = csid.Envelope(csid.Secp256k1, plain)

	_, _, _, err = suites[victim].DKGFinalize(victim, round2Secrets[victim], round1Packages, sharesToEachRecipient[victim])
	require.Error(t, err)
}

func TestXParityFromCompressedHex(t *testing.T) {
	evenY := append([]byte{0x02}, make([]byte, 32)...)
	evenY[32] = 0x01
	x, parity, err := XParityFromCompressedHex(evenY)
	require.NoError(t, err)
	require.Equal(t, 27, parity)
	require.Equal(t, uint64(1), x.Uint64())

	oddY := append([]byte{0x03}, make([]byte, 32)...)
	oddY[32] = 0x02
	x, parity, err = XParityFromCompressedHex(oddY)
	require.NoError(t, err)
	require.Equal(t, 28, parity)
	require.Equal(t, uint64(2), x.Uint64())

	_, _, err = XParityFromCompressedHex(append([]byte{0x04}, make([]byte, 32)...))
	require.Error(t, err)

	_, _, err = XParityFromCompressedHex(make([]byte, 32))
	require.Error(t, err)
}

func TestXParityFromCompressedHexMatchesFinalizedGroupKey(t *testing.T) {
	ids := []uint16{1, 2, 3}
	_, pubKeyPackage := runDKG(t, ids, 2)

	suite := New()
	hexKey, err := suite.GroupPublicKeyHex(pubKeyPackage)
	require.NoError(t, err)

	compressed, err := hex.DecodeString(hexKey)
	require.NoError(t, err)

	_, parity, err := XParityFromCompressedHex(compressed)
	require.NoError(t, err)
	require.Contains(t, []int{27, 28}, parity)
}

package ed25519

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
)

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
	require.Len(t, groupHex, 64)

	signers := []uint16{2, 3}
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

	tampered, err := csid.Open(csid.Ed25519, shares[2])
	require.NoError(t, err)
	tampered = append([]byte{}, tampered...)
	tampered[len(tampered)-2] ^= 0xff
	shares[2] = csid.Envelope(csid.Ed25519, tampered)

	_, culprits, err := suite.Aggregate(pkp, sp, shares)
	require.Error(t, err)
	require.Contains(t, culprits, uint16(2))
}

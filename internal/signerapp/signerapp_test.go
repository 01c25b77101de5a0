package signerapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/threshold-network/frost-signer/internal/ciphersuite"
	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
	"github.com/threshold-network/frost-signer/internal/hpke"
	"github.com/threshold-network/frost-signer/internal/storage/storetest"
)

func newTestApp(t *testing.T, suite ciphersuite.Suite, id uint16) *App {
	t.Helper()
	kp, err := hpke.Generate()
	require.NoError(t, err)
	return New(storetest.New(), suite, "signer-"+uint16Str(id), id, kp, nil, nil, nil)
}

// TestFullDkgAndSigningRoundTrip drives a 2-of-2 DKG and a full signing
// round across two independent App instances, exercising round1, round2
// (with real HPKE sealing), finalize, commit, and partial exactly as the
// coordinator's RPC client would call them, then verifies the aggregate
// signature using the ciphersuite façade directly.
func TestFullDkgAndSigningRoundTrip(t *testing.T) {
	ctx := context.Background()
	suite, err := ciphersuite.Get(csid.Secp256k1)
	require.NoError(t, err)

	s1 := newTestApp(t, suite, 1)
	s2 := newTestApp(t, suite, 2)

	sessionID := "session-1"

	r1a, err := s1.Round1(ctx, Round1Request{SessionID: sessionID, ParticipantID: 1, Threshold: 2, Total: 2, Ciphersuite: string(csid.Secp256k1)})
	require.NoError(t, err)
	r1b, err := s2.Round1(ctx, Round1Request{SessionID: sessionID, ParticipantID: 2, Threshold: 2, Total: 2, Ciphersuite: string(csid.Secp256k1)})
	require.NoError(t, err)

	round1 := map[uint16]string{1: r1a.Package, 2: r1b.Package}
	hpkeKeys := map[uint16]string{1: r1a.HPKEPubkey, 2: r1b.HPKEPubkey}

	r2a, err := s1.Round2(ctx, Round2Request{SessionID: sessionID, Round1Packages: round1, HPKEPubkeys: hpkeKeys})
	require.NoError(t, err)
	r2b, err := s2.Round2(ctx, Round2Request{SessionID: sessionID, Round1Packages: round1, HPKEPubkeys: hpkeKeys})
	require.NoError(t, err)

	fin1, err := s1.Finalize(ctx, FinalizeRequest{
		SessionID:      sessionID,
		Round1Packages: round1,
		SealedToSelf:   map[uint16]string{2: r2b.SealedByRecipient[1]},
	})
	require.NoError(t, err)
	fin2, err := s2.Finalize(ctx, FinalizeRequest{
		SessionID:      sessionID,
		Round1Packages: round1,
		SealedToSelf:   map[uint16]string{1: r2a.SealedByRecipient[2]},
	})
	require.NoError(t, err)

	require.Equal(t, fin1.GroupPubkey, fin2.GroupPubkey)
	require.Equal(t, fin1.PublicKeyPackage, fin2.PublicKeyPackage)

	signingSession := "signing-1"
	message := b64([]byte("transfer 10 BTC"))

	c1, err := s1.Commit(ctx, CommitRequest{GroupPubkey: fin1.GroupPubkey, SessionID: signingSession})
	require.NoError(t, err)
	c2, err := s2.Commit(ctx, CommitRequest{GroupPubkey: fin2.GroupPubkey, SessionID: signingSession})
	require.NoError(t, err)

	commitments := map[uint16]string{1: c1.Commitment, 2: c2.Commitment}

	p1, err := s1.Partial(ctx, PartialRequest{GroupPubkey: fin1.GroupPubkey, SessionID: signingSession, Message: message, Commitments: commitments})
	require.NoError(t, err)
	p2, err := s2.Partial(ctx, PartialRequest{GroupPubkey: fin2.GroupPubkey, SessionID: signingSession, Message: message, Commitments: commitments})
	require.NoError(t, err)

	pubKeyPackage, err := unb64(fin1.PublicKeyPackage)
	require.NoError(t, err)
	msgBytes, err := unb64(message)
	require.NoError(t, err)
	shares, err := unb64Map(map[uint16]string{1: p1.SignatureShare, 2: p2.SignatureShare})
	require.NoError(t, err)
	rawCommitments, err := unb64Map(commitments)
	require.NoError(t, err)

	sig, culprits, err := suite.Aggregate(pubKeyPackage, csid.SigningPackage{Message: msgBytes, Commitments: rawCommitments}, shares)
	require.NoError(t, err)
	require.Empty(t, culprits)
	require.NoError(t, suite.Verify(pubKeyPackage, msgBytes, sig))
}

func TestCommitRejectsSecondCallBeforePartialConsumesNonces(t *testing.T) {
	ctx := context.Background()
	suite, err := ciphersuite.Get(csid.Secp256k1)
	require.NoError(t, err)
	s1 := newTestApp(t, suite, 1)
	s2 := newTestApp(t, suite, 2)

	sessionID := "dkg-1"
	r1a, err := s1.Round1(ctx, Round1Request{SessionID: sessionID, ParticipantID: 1, Threshold: 2, Total: 2, Ciphersuite: string(csid.Secp256k1)})
	require.NoError(t, err)
	r1b, err := s2.Round1(ctx, Round1Request{SessionID: sessionID, ParticipantID: 2, Threshold: 2, Total: 2, Ciphersuite: string(csid.Secp256k1)})
	require.NoError(t, err)
	round1 := map[uint16]string{1: r1a.Package, 2: r1b.Package}
	hpkeKeys := map[uint16]string{1: r1a.HPKEPubkey, 2: r1b.HPKEPubkey}
	r2a, err := s1.Round2(ctx, Round2Request{SessionID: sessionID, Round1Packages: round1, HPKEPubkeys: hpkeKeys})
	require.NoError(t, err)
	r2b, err := s2.Round2(ctx, Round2Request{SessionID: sessionID, Round1Packages: round1, HPKEPubkeys: hpkeKeys})
	require.NoError(t, err)
	fin1, err := s1.Finalize(ctx, FinalizeRequest{SessionID: sessionID, Round1Packages: round1, SealedToSelf: map[uint16]string{2: r2b.SealedByRecipient[1]}})
	require.NoError(t, err)

	signingSession := "signing-dup"
	_, err = s1.Commit(ctx, CommitRequest{GroupPubkey: fin1.GroupPubkey, SessionID: signingSession})
	require.NoError(t, err)
	_, err = s1.Commit(ctx, CommitRequest{GroupPubkey: fin1.GroupPubkey, SessionID: signingSession})
	require.Error(t, err)
}

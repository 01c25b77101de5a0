package coordinator

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/threshold-network/frost-signer/internal/ciphersuite"
	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
	"github.com/threshold-network/frost-signer/internal/storage"
	"github.com/threshold-network/frost-signer/internal/storage/storetest"
)

// fakeSigner simulates a full in-process signer fleet on top of the real
// ciphersuite façade, so the coordinator's RPC orchestration can be
// exercised end to end without standing up HTTP servers. Round 2 is not
// simulated (Round2 returns an empty response and the tests submit
// placeholder ciphertexts directly) since the coordinator never inspects
// them; HPKE sealing itself is covered by internal/hpke's own tests.
type fakeSigner struct {
	suite ciphersuite.Suite

	round1Secret map[uint16][]byte

	// finalizeGroupPubkey is what Finalize reports for every endpoint not
	// present in finalizeOverride, simulating agreement.
	finalizeGroupPubkey string
	finalizeOverride    map[string]string
}

func newFakeSigner(name csid.Name) *fakeSigner {
	suite, err := ciphersuite.Get(name)
	if err != nil {
		panic(err)
	}
	return &fakeSigner{
		suite:               suite,
		round1Secret:        map[uint16][]byte{},
		finalizeGroupPubkey: "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
		finalizeOverride:    map[string]string{},
	}
}

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func (f *fakeSigner) Round1(ctx context.Context, endpoint string, req Round1Request) (Round1Response, error) {
	secret, pkg, err := f.suite.DKGRound1(req.ParticipantID, req.Threshold, req.Total)
	if err != nil {
		return Round1Response{}, err
	}
	f.round1Secret[req.ParticipantID] = secret
	return Round1Response{Package: b64(pkg), HPKEPubkey: "unused"}, nil
}

func (f *fakeSigner) Round2(ctx context.Context, endpoint string, req Round2Request) (Round2Response, error) {
	return Round2Response{}, nil
}

func (f *fakeSigner) Finalize(ctx context.Context, endpoint string, req FinalizeRequest) (FinalizeResponse, error) {
	pubkey := f.finalizeGroupPubkey
	if override, ok := f.finalizeOverride[endpoint]; ok {
		pubkey = override
	}
	return FinalizeResponse{
		GroupPubkey:      pubkey,
		PublicKeyPackage: "pkp-" + pubkey,
		VerifyingShare:   "share-" + endpoint,
	}, nil
}

func (f *fakeSigner) Commit(ctx context.Context, endpoint string, req CommitRequest) (CommitResponse, error) {
	return CommitResponse{}, nil
}

func (f *fakeSigner) Partial(ctx context.Context, endpoint string, req PartialRequest) (PartialResponse, error) {
	return PartialResponse{}, nil
}

func TestDkgHappyPathTransitionsToAwaitingRound2(t *testing.T) {
	store := storetest.New()
	coord := New(store, nil, nil)

	session, err := coord.InitDkg(context.Background(), InitDkgRequest{
		Threshold:   2,
		Total:       3,
		Ciphersuite: string(csid.Secp256k1),
		Endpoints:   map[uint16]string{1: "http://s1", 2: "http://s2", 3: "http://s3"},
		HPKEPubkeys: map[uint16]string{1: "a", 2: "b", 3: "c"},
	})
	require.NoError(t, err)
	require.Equal(t, DkgAwaitingRound1, session.State)

	for id := uint16(1); id <= 3; id++ {
		s, err := coord.SubmitRound1(context.Background(), session.SessionID, id, "pkg-"+string(rune('0'+id)))
		require.NoError(t, err)
		if id < 3 {
			require.Equal(t, DkgAwaitingRound1, s.State)
		} else {
			require.Equal(t, DkgAwaitingRound2, s.State)
		}
	}
}

func TestDkgRejectsInvalidThreshold(t *testing.T) {
	store := storetest.New()
	coord := New(store, nil, nil)

	_, err := coord.InitDkg(context.Background(), InitDkgRequest{
		Threshold:   1,
		Total:       3,
		Ciphersuite: string(csid.Secp256k1),
		Endpoints:   map[uint16]string{1: "a", 2: "b", 3: "c"},
	})
	require.Error(t, err)
}

func TestSubmitRound1RejectsDuplicateSubmission(t *testing.T) {
	store := storetest.New()
	coord := New(store, nil, nil)

	session, err := coord.InitDkg(context.Background(), InitDkgRequest{
		Threshold:   2,
		Total:       2,
		Ciphersuite: string(csid.Secp256k1),
		Endpoints:   map[uint16]string{1: "a", 2: "b"},
	})
	require.NoError(t, err)

	_, err = coord.SubmitRound1(context.Background(), session.SessionID, 1, "pkg")
	require.NoError(t, err)
	_, err = coord.SubmitRound1(context.Background(), session.SessionID, 1, "pkg-2")
	require.Error(t, err)
}

func TestSigningRejectsDuplicateCommitmentValue(t *testing.T) {
	store := storetest.New()
	coord := New(store, nil, nil)

	suite, err := ciphersuite.Get(csid.Secp256k1)
	require.NoError(t, err)

	// Minimal 2-of-2 DKG driven directly against the real suite so we have
	// a genuine group record to open a signing session against.
	s1, pkg1, err := suite.DKGRound1(1, 2, 2)
	require.NoError(t, err)
	s2, pkg2, err := suite.DKGRound1(2, 2, 2)
	require.NoError(t, err)
	round1 := map[uint16][]byte{1: pkg1, 2: pkg2}

	s1b, shares1, err := suite.DKGRound2(1, s1, round1)
	require.NoError(t, err)
	s2b, shares2, err := suite.DKGRound2(2, s2, round1)
	require.NoError(t, err)

	_, pub1, _, err := suite.DKGFinalize(1, s1b, round1, map[uint16][]byte{2: shares2[1]})
	require.NoError(t, err)
	_, pub2, _, err := suite.DKGFinalize(2, s2b, round1, map[uint16][]byte{1: shares1[2]})
	require.NoError(t, err)
	require.Equal(t, pub1, pub2)

	groupPubHex, err := suite.GroupPublicKeyHex(pub1)
	require.NoError(t, err)

	record := &GroupKeyRecord{
		GroupPubkey:      groupPubHex,
		PublicKeyPackage: b64(pub1),
		Ciphersuite:      string(csid.Secp256k1),
		Threshold:        2,
		Total:            2,
		SignerEndpoints:  map[uint16]string{1: "http://s1", 2: "http://s2"},
	}
	require.NoError(t, store.Update(func(tx storage.Tx) error {
		return saveGroupKeyRecord(tx, record)
	}))

	session, err := coord.InitSigning(context.Background(), InitSigningRequest{
		GroupPubkey:   groupPubHex,
		MessageBase64: b64([]byte("hello")),
	})
	require.NoError(t, err)

	_, err = coord.SubmitCommitment(context.Background(), session.SessionID, 1, "same-commitment")
	require.NoError(t, err)
	_, err = coord.SubmitCommitment(context.Background(), session.SessionID, 2, "same-commitment")
	require.Error(t, err)
}

func driveDkgToAwaitingRound2(t *testing.T, coord *Coordinator, signers *fakeSigner) *DkgSession {
	t.Helper()
	session, err := coord.InitDkg(context.Background(), InitDkgRequest{
		Threshold:   2,
		Total:       2,
		Ciphersuite: string(csid.Secp256k1),
		Endpoints:   map[uint16]string{1: "http://s1", 2: "http://s2"},
		HPKEPubkeys: map[uint16]string{1: "a", 2: "b"},
	})
	require.NoError(t, err)

	for id := uint16(1); id <= 2; id++ {
		res, err := signers.Round1(context.Background(), session.ParticipantEndpoints[id], Round1Request{
			SessionID: session.SessionID, ParticipantID: id, Threshold: 2, Total: 2,
			Ciphersuite: string(csid.Secp256k1),
		})
		require.NoError(t, err)
		session, err = coord.SubmitRound1(context.Background(), session.SessionID, id, res.Package)
		require.NoError(t, err)
	}
	require.Equal(t, DkgAwaitingRound2, session.State)

	for from := uint16(1); from <= 2; from++ {
		for to := uint16(1); to <= 2; to++ {
			if from == to {
				continue
			}
			var err error
			session, err = coord.SubmitRound2(context.Background(), session.SessionID, from, to, "sealed")
			require.NoError(t, err)
		}
	}
	return session
}

func TestFinalizeDkgCompletesOnAgreement(t *testing.T) {
	store := storetest.New()
	signers := newFakeSigner(csid.Secp256k1)
	coord := New(store, signers, nil)

	session := driveDkgToAwaitingRound2(t, coord, signers)

	final, err := coord.FinalizeDkg(context.Background(), session.SessionID)
	require.NoError(t, err)
	require.Equal(t, DkgCompleted, final.State)
	require.Equal(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798", final.GroupPubkey)

	record, err := coord.lookupGroupKeyRecord(final.GroupPubkey)
	require.NoError(t, err)
	require.Equal(t, uint16(2), record.Threshold)
}

func TestFinalizeDkgFailsOnDisagreement(t *testing.T) {
	store := storetest.New()
	signers := newFakeSigner(csid.Secp256k1)
	signers.finalizeOverride["http://s2"] = "a-different-group-pubkey"
	coord := New(store, signers, nil)

	session := driveDkgToAwaitingRound2(t, coord, signers)

	_, err := coord.FinalizeDkg(context.Background(), session.SessionID)
	require.Error(t, err)

	final, err := coord.GetDkgSession(context.Background(), session.SessionID)
	require.NoError(t, err)
	require.Equal(t, DkgFailed, final.State)
}


package signerapp

import (
	"context"
	"fmt"

	"github.com/threshold-network/frost-signer/internal/audit"
	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
	"github.com/threshold-network/frost-signer/internal/commitcontext"
	"github.com/threshold-network/frost-signer/internal/frosterr"
	"github.com/threshold-network/frost-signer/internal/hpke"
	"github.com/threshold-network/frost-signer/internal/storage"
)

// Round1 generates this participant's DKG round-1 secret and broadcast
// package, per spec.md 4.5. The secret is retained in memory, keyed by
// session_id, until Round2 consumes it.
func (a *App) Round1(ctx context.Context, req Round1Request) (Round1Response, error) {
	if csid.Name(req.Ciphersuite) != a.suiteName {
		return Round1Response{}, frosterr.InvalidInput("ciphersuite mismatch: signer runs %s, session requested %s", a.suiteName, req.Ciphersuite)
	}
	if req.ParticipantID != a.participantID {
		return Round1Response{}, frosterr.InvalidParticipant(req.ParticipantID)
	}

	secret, pkg, err := a.suite.DKGRound1(a.participantID, req.Threshold, req.Total)
	if err != nil {
		return Round1Response{}, frosterr.Internal("dkg round1: %v", err)
	}

	a.mu.Lock()
	a.round1Secrets[req.SessionID] = secret
	a.mu.Unlock()

	a.auditAppend(audit.DkgRound1, req.SessionID, audit.Success(), nil)
	return Round1Response{Package: b64(pkg), HPKEPubkey: a.hpkeKeys.PublicKeyBase64()}, nil
}

// Round2 consumes the round-1 secret and every participant's round-1
// package, producing the plaintext share this participant owes each peer,
// sealed with HPKE under a context binding the specific round-1 set. The
// round-2 secret is persisted so it survives a crash before Finalize.
func (a *App) Round2(ctx context.Context, req Round2Request) (Round2Response, error) {
	a.mu.Lock()
	secret, ok := a.round1Secrets[req.SessionID]
	a.mu.Unlock()
	if !ok {
		return Round2Response{}, frosterr.SessionNotFound(req.SessionID)
	}

	round1, err := unb64Map(req.Round1Packages)
	if err != nil {
		return Round2Response{}, frosterr.InvalidInput("%v", err)
	}

	secret2, sharesByRecipient, err := a.suite.DKGRound2(a.participantID, secret, round1)
	if err != nil {
		return Round2Response{}, frosterr.DkgFailed(fmt.Sprintf("round2: %v", err))
	}

	if err := a.store.Update(func(tx storage.Tx) error {
		return tx.Put(storage.BucketKeyShares, round2ScratchKey(req.SessionID), secret2)
	}); err != nil {
		return Round2Response{}, frosterr.Storage("persisting round2 secret: %v", err)
	}

	commitmentHash := commitcontext.Hash(req.Round1Packages)

	sealed := make(map[uint16]string, len(sharesByRecipient))
	for recipientID, share := range sharesByRecipient {
		recipientPubB64, ok := req.HPKEPubkeys[recipientID]
		if !ok {
			return Round2Response{}, frosterr.InvalidInput("missing hpke pubkey for participant %d", recipientID)
		}
		recipientPub, err := unb64(recipientPubB64)
		if err != nil || len(recipientPub) != 32 {
			return Round2Response{}, frosterr.InvalidInput("malformed hpke pubkey for participant %d", recipientID)
		}
		var pk [32]byte
		copy(pk[:], recipientPub)

		info := commitcontext.Info(req.SessionID, a.participantID, recipientID, commitmentHash)
		payload, err := hpke.Seal(pk, info, share)
		if err != nil {
			return Round2Response{}, frosterr.HpkeFailed("sealing share for participant %d: %v", recipientID, err)
		}
		sealed[recipientID] = b64(payload.Bytes())
	}

	a.auditAppend(audit.DkgRound2, req.SessionID, audit.Success(), nil)
	return Round2Response{SealedByRecipient: sealed}, nil
}

// Finalize decrypts inbound round-2 ciphertexts with this signer's HPKE
// key, derives the key package, stores it (envelope-encrypted if a KEK is
// configured) and the shared public-key package, deletes the round-2
// scratch entry, and reports the group artefacts, per spec.md 4.5.
func (a *App) Finalize(ctx context.Context, req FinalizeRequest) (FinalizeResponse, error) {
	var secret2 []byte
	err := a.store.View(func(tx storage.Tx) error {
		v, err := tx.Get(storage.BucketKeyShares, round2ScratchKey(req.SessionID))
		if err != nil {
			return err
		}
		secret2 = v
		return nil
	})
	if err != nil {
		if err == storage.ErrNotFound {
			return FinalizeResponse{}, frosterr.SessionNotFound(req.SessionID)
		}
		return FinalizeResponse{}, frosterr.Storage("loading round2 secret: %v", err)
	}

	round1, err := unb64Map(req.Round1Packages)
	if err != nil {
		return FinalizeResponse{}, frosterr.InvalidInput("%v", err)
	}

	commitmentHash := commitcontext.Hash(req.Round1Packages)

	sharesToSelf := make(map[uint16][]byte, len(req.SealedToSelf))
	for fromID, sealedB64 := range req.SealedToSelf {
		sealedBytes, err := unb64(sealedB64)
		if err != nil {
			return FinalizeResponse{}, frosterr.InvalidInput("participant %d: %v", fromID, err)
		}
		payload, err := hpke.ParsePayload(sealedBytes)
		if err != nil {
			return FinalizeResponse{}, frosterr.HpkeFailed("parsing sealed share from %d: %v", fromID, err)
		}
		info := commitcontext.Info(req.SessionID, fromID, a.participantID, commitmentHash)
		plain, err := hpke.Open(a.hpkeKeys, info, payload)
		if err != nil {
			return FinalizeResponse{}, frosterr.HpkeFailed("opening sealed share from %d: %v", fromID, err)
		}
		sharesToSelf[fromID] = plain
	}

	keyPackage, pubKeyPackage, verifyingShare, err := a.suite.DKGFinalize(a.participantID, secret2, round1, sharesToSelf)
	if err != nil {
		return FinalizeResponse{}, frosterr.DkgFailed(fmt.Sprintf("finalize: %v", err))
	}

	groupPubkey, err := a.suite.GroupPublicKeyHex(pubKeyPackage)
	if err != nil {
		return FinalizeResponse{}, frosterr.Internal("deriving group public key: %v", err)
	}

	wrappedKeyPackage, err := a.wrap(keyPackage)
	if err != nil {
		return FinalizeResponse{}, frosterr.Internal("wrapping key package: %v", err)
	}

	if err := a.store.Update(func(tx storage.Tx) error {
		if err := tx.Put(storage.BucketKeyShares, keyShareKey(groupPubkey, a.participantID), wrappedKeyPackage); err != nil {
			return err
		}
		if err := tx.Put(storage.BucketKeyShares, pubKeyPackageKey(groupPubkey), pubKeyPackage); err != nil {
			return err
		}
		return tx.Delete(storage.BucketKeyShares, round2ScratchKey(req.SessionID))
	}); err != nil {
		return FinalizeResponse{}, frosterr.Storage("persisting key share: %v", err)
	}

	a.mu.Lock()
	delete(a.round1Secrets, req.SessionID)
	a.mu.Unlock()

	a.auditAppend(audit.DkgFinalize, req.SessionID, audit.Success(), map[string]any{"group_pubkey": groupPubkey})
	return FinalizeResponse{
		GroupPubkey:      groupPubkey,
		PublicKeyPackage: b64(pubKeyPackage),
		VerifyingShare:   b64(verifyingShare),
	}, nil
}

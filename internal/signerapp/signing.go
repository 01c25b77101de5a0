package signerapp

import (
	"context"

	"github.com/threshold-network/frost-signer/internal/audit"
	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
	"github.com/threshold-network/frost-signer/internal/frosterr"
	"github.com/threshold-network/frost-signer/internal/storage"
)

func (a *App) loadKeyPackage(groupPubkey string) ([]byte, error) {
	var wrapped []byte
	err := a.store.View(func(tx storage.Tx) error {
		v, err := tx.Get(storage.BucketKeyShares, keyShareKey(groupPubkey, a.participantID))
		if err != nil {
			return err
		}
		wrapped = v
		return nil
	})
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, frosterr.KeyShareNotFound(groupPubkey)
		}
		return nil, frosterr.Storage("loading key package: %v", err)
	}
	return a.unwrap(wrapped)
}

// Commit produces this signer's FROST round-one contribution: fresh
// hiding/binding nonces and their public commitment, per spec.md 4.5. The
// nonces are retained only in memory, keyed by (group_pubkey, session_id),
// until Partial consumes them exactly once.
func (a *App) Commit(ctx context.Context, req CommitRequest) (CommitResponse, error) {
	if err := a.authorize(ctx, req.Assertion, req.SessionID); err != nil {
		return CommitResponse{}, err
	}

	key := nonceKey(req.GroupPubkey, req.SessionID)
	a.mu.Lock()
	if _, exists := a.nonces[key]; exists {
		a.mu.Unlock()
		return CommitResponse{}, frosterr.NoncesAlreadyExist(req.SessionID, req.GroupPubkey)
	}
	a.mu.Unlock()

	keyPackage, err := a.loadKeyPackage(req.GroupPubkey)
	if err != nil {
		return CommitResponse{}, err
	}

	nonces, commitment, err := a.suite.Commit(keyPackage)
	if err != nil {
		return CommitResponse{}, frosterr.Internal("commit: %v", err)
	}

	a.mu.Lock()
	if _, exists := a.nonces[key]; exists {
		a.mu.Unlock()
		return CommitResponse{}, frosterr.NoncesAlreadyExist(req.SessionID, req.GroupPubkey)
	}
	a.nonces[key] = nonces
	a.mu.Unlock()

	a.auditAppend(audit.SigningCommit, req.SessionID, audit.Success(), nil)
	return CommitResponse{Commitment: b64(commitment)}, nil
}

// Partial consumes the stored nonces (removed on read, so a nonce can
// never be reused even under a retried request) and produces this
// signer's signature share over the full signing package.
func (a *App) Partial(ctx context.Context, req PartialRequest) (PartialResponse, error) {
	if err := a.authorize(ctx, req.Assertion, req.SessionID); err != nil {
		return PartialResponse{}, err
	}

	key := nonceKey(req.GroupPubkey, req.SessionID)
	a.mu.Lock()
	nonces, ok := a.nonces[key]
	if ok {
		delete(a.nonces, key)
	}
	a.mu.Unlock()
	if !ok {
		return PartialResponse{}, frosterr.SessionNotFound(req.SessionID)
	}

	keyPackage, err := a.loadKeyPackage(req.GroupPubkey)
	if err != nil {
		return PartialResponse{}, err
	}

	message, err := unb64(req.Message)
	if err != nil {
		return PartialResponse{}, frosterr.InvalidInput("%v", err)
	}
	commitments, err := unb64Map(req.Commitments)
	if err != nil {
		return PartialResponse{}, frosterr.InvalidInput("%v", err)
	}

	share, err := a.suite.Sign(keyPackage, nonces, csid.SigningPackage{
		Message:     message,
		Commitments: commitments,
	})
	if err != nil {
		return PartialResponse{}, frosterr.Internal("sign: %v", err)
	}

	a.auditAppend(audit.SigningPartial, req.SessionID, audit.Success(), nil)
	return PartialResponse{SignatureShare: b64(share)}, nil
}

// authorize enforces spec.md 4.7's guardian-assertion gate: when enabled,
// sign_commit and sign_partial both require a token bound to this session
// and this participant.
func (a *App) authorize(ctx context.Context, assertion, sessionID string) error {
	if a.authGate == nil || !a.authGate.Enabled() {
		return nil
	}
	return a.authGate.Authorize(ctx, assertion, sessionID, a.participantID)
}

package coordinator

import (
	"context"
	"encoding/hex"

	"github.com/threshold-network/frost-signer/internal/audit"
	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
	"github.com/threshold-network/frost-signer/internal/ciphersuite/secp256k1"
	"github.com/threshold-network/frost-signer/internal/frosterr"
	"github.com/threshold-network/frost-signer/internal/storage"
)

// InitDkgRequest mirrors spec.md 4.1's Init(t, n, ciphersuite, endpoints, hpke_pubkeys).
type InitDkgRequest struct {
	Threshold   uint16
	Total       uint16
	Ciphersuite string
	Endpoints   map[uint16]string
	HPKEPubkeys map[uint16]string
}

// InitDkg creates a new DKG session in AwaitingRound1.
func (c *Coordinator) InitDkg(ctx context.Context, req InitDkgRequest) (*DkgSession, error) {
	if req.Threshold < 2 || req.Threshold > req.Total {
		return nil, frosterr.InvalidThreshold(req.Threshold, req.Total)
	}
	if !csidValid(req.Ciphersuite) {
		return nil, frosterr.InvalidInput("unknown ciphersuite: %s", req.Ciphersuite)
	}
	if uint16(len(req.Endpoints)) != req.Total {
		return nil, frosterr.InvalidInput("endpoints must list exactly %d participants, got %d", req.Total, len(req.Endpoints))
	}

	ids := make([]uint16, 0, req.Total)
	for id := uint16(1); id <= req.Total; id++ {
		if _, ok := req.Endpoints[id]; !ok {
			return nil, frosterr.InvalidInput("missing endpoint for participant %d", id)
		}
		ids = append(ids, id)
	}

	now := c.now()
	session := &DkgSession{
		SessionID:             newSessionID(),
		State:                 DkgAwaitingRound1,
		Ciphersuite:           req.Ciphersuite,
		Threshold:             req.Threshold,
		Total:                 req.Total,
		ParticipantIDs:        ids,
		ParticipantEndpoints:  req.Endpoints,
		ParticipantHPKEPubkey: req.HPKEPubkeys,
		Round1Packages:        map[uint16]string{},
		Round2Packages:        map[uint16]map[uint16]string{},
		CreatedAt:             now,
		ExpiresAt:             now.Add(dkgSessionTTL),
	}

	if err := c.store.Update(func(tx storage.Tx) error {
		return saveDkgSession(tx, session)
	}); err != nil {
		return nil, err
	}

	c.auditAppend(audit.DkgInit, session.SessionID, audit.Success(), map[string]any{
		"threshold": req.Threshold, "total": req.Total, "ciphersuite": req.Ciphersuite,
	})
	return session, nil
}

// GetDkgSession inspects a session without mutating it.
func (c *Coordinator) GetDkgSession(ctx context.Context, sessionID string) (*DkgSession, error) {
	var out *DkgSession
	err := c.store.View(func(tx storage.Tx) error {
		s, err := loadDkgSession(tx, sessionID)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// SubmitRound1 records one participant's round-1 package.
func (c *Coordinator) SubmitRound1(ctx context.Context, sessionID string, participantID uint16, pkg string) (*DkgSession, error) {
	var out *DkgSession
	err := c.store.Update(func(tx storage.Tx) error {
		s, err := loadDkgSession(tx, sessionID)
		if err != nil {
			return err
		}
		if s.expired(c.now()) {
			return frosterr.SessionExpired(sessionID)
		}
		if s.State != DkgAwaitingRound1 {
			return frosterr.WrongState(string(DkgAwaitingRound1), string(s.State))
		}
		if !isParticipant(s.ParticipantIDs, participantID) {
			return frosterr.InvalidParticipant(participantID)
		}
		if _, ok := s.Round1Packages[participantID]; ok {
			return frosterr.ParticipantAlreadySubmitted(participantID)
		}
		s.Round1Packages[participantID] = pkg
		if len(s.Round1Packages) == int(s.Total) {
			s.State = DkgAwaitingRound2
		}
		if err := saveDkgSession(tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.auditAppend(audit.DkgRound1, sessionID, audit.Success(), map[string]any{"participant_id": participantID})
	return out, nil
}

// SubmitRound2 records one sealed round-2 package (from -> to).
func (c *Coordinator) SubmitRound2(ctx context.Context, sessionID string, fromID, toID uint16, sealed string) (*DkgSession, error) {
	var out *DkgSession
	err := c.store.Update(func(tx storage.Tx) error {
		s, err := loadDkgSession(tx, sessionID)
		if err != nil {
			return err
		}
		if s.expired(c.now()) {
			return frosterr.SessionExpired(sessionID)
		}
		if s.State != DkgAwaitingRound2 {
			return frosterr.WrongState(string(DkgAwaitingRound2), string(s.State))
		}
		if fromID == toID {
			return frosterr.InvalidInput("from_id and to_id must differ")
		}
		if !isParticipant(s.ParticipantIDs, fromID) || !isParticipant(s.ParticipantIDs, toID) {
			return frosterr.InvalidParticipant(fromID)
		}
		if s.Round2Packages[fromID] == nil {
			s.Round2Packages[fromID] = map[uint16]string{}
		}
		if _, ok := s.Round2Packages[fromID][toID]; ok {
			return frosterr.ParticipantAlreadySubmitted(fromID)
		}
		s.Round2Packages[fromID][toID] = sealed
		if err := saveDkgSession(tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.auditAppend(audit.DkgRound2, sessionID, audit.Success(), map[string]any{"from_id": fromID, "to_id": toID})
	return out, nil
}

func isParticipant(ids []uint16, id uint16) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// round2Complete reports whether every sender has sent to every other participant.
func round2Complete(ids []uint16, round2 map[uint16]map[uint16]string) bool {
	for _, from := range ids {
		to := round2[from]
		if len(to) != len(ids)-1 {
			return false
		}
		for _, recipient := range ids {
			if recipient == from {
				continue
			}
			if _, ok := to[recipient]; !ok {
				return false
			}
		}
	}
	return true
}

// FinalizeDkg drives finalisation across every signer and, on agreement,
// writes the GroupKeyRecord and completes the session.
func (c *Coordinator) FinalizeDkg(ctx context.Context, sessionID string) (*DkgSession, error) {
	var session *DkgSession
	err := c.store.View(func(tx storage.Tx) error {
		s, err := loadDkgSession(tx, sessionID)
		if err != nil {
			return err
		}
		if s.expired(c.now()) {
			return frosterr.SessionExpired(sessionID)
		}
		if s.State != DkgAwaitingRound2 {
			return frosterr.WrongState(string(DkgAwaitingRound2), string(s.State))
		}
		if !round2Complete(s.ParticipantIDs, s.Round2Packages) {
			return frosterr.InvalidInput("round-2 packages incomplete")
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	type finalizeResult struct {
		id  uint16
		res FinalizeResponse
		err error
	}
	results := make([]finalizeResult, 0, len(session.ParticipantIDs))
	for _, id := range session.ParticipantIDs {
		sealedToSelf := map[uint16]string{}
		for _, from := range session.ParticipantIDs {
			if from == id {
				continue
			}
			sealedToSelf[from] = session.Round2Packages[from][id]
		}
		res, rpcErr := c.signers.Finalize(ctx, session.ParticipantEndpoints[id], FinalizeRequest{
			SessionID:      session.SessionID,
			Round1Packages: session.Round1Packages,
			SealedToSelf:   sealedToSelf,
		})
		results = append(results, finalizeResult{id: id, res: res, err: rpcErr})
		if rpcErr != nil {
			return c.failDkg(sessionID, "signer "+session.ParticipantEndpoints[id]+" finalize failed: "+rpcErr.Error())
		}
	}

	groupPubkey := results[0].res.GroupPubkey
	pubKeyPackage := results[0].res.PublicKeyPackage
	verifyingShares := map[uint16]string{results[0].id: results[0].res.VerifyingShare}
	for _, r := range results[1:] {
		if r.res.GroupPubkey != groupPubkey || r.res.PublicKeyPackage != pubKeyPackage {
			return c.failDkg(sessionID, "signers disagree on group public key")
		}
		verifyingShares[r.id] = r.res.VerifyingShare
	}

	var xOnlyX string
	var xParity int
	if session.Ciphersuite == string(csid.Secp256k1) {
		compressed, err := hex.DecodeString(groupPubkey)
		if err != nil {
			return c.failDkg(sessionID, "group public key is not valid hex: "+err.Error())
		}
		x, parity, err := secp256k1.XParityFromCompressedHex(compressed)
		if err != nil {
			return c.failDkg(sessionID, "group public key: "+err.Error())
		}
		xOnlyX = x.Text(16)
		xParity = parity
	}

	err = c.store.Update(func(tx storage.Tx) error {
		s, err := loadDkgSession(tx, sessionID)
		if err != nil {
			return err
		}
		if s.State != DkgAwaitingRound2 {
			return frosterr.WrongState(string(DkgAwaitingRound2), string(s.State))
		}
		s.GroupPubkey = groupPubkey
		s.PublicKeyPackage = pubKeyPackage
		s.VerifyingShares = verifyingShares
		s.State = DkgCompleted
		if err := saveDkgSession(tx, s); err != nil {
			return err
		}
		record := &GroupKeyRecord{
			GroupPubkey:      groupPubkey,
			PublicKeyPackage: pubKeyPackage,
			Ciphersuite:      s.Ciphersuite,
			Threshold:        s.Threshold,
			Total:            s.Total,
			SignerEndpoints:  s.ParticipantEndpoints,
			CreatedAt:        c.now(),
			XOnlyX:           xOnlyX,
			XParity:          xParity,
		}
		session = s
		return saveGroupKeyRecord(tx, record)
	})
	if err != nil {
		return nil, err
	}

	c.auditAppend(audit.DkgFinalize, sessionID, audit.Success(), map[string]any{"group_pubkey": groupPubkey})
	return session, nil
}

func (c *Coordinator) failDkg(sessionID, reason string) (*DkgSession, error) {
	var out *DkgSession
	_ = c.store.Update(func(tx storage.Tx) error {
		s, err := loadDkgSession(tx, sessionID)
		if err != nil {
			return err
		}
		s.State = DkgFailed
		s.FailureReason = reason
		out = s
		return saveDkgSession(tx, s)
	})
	c.auditAppend(audit.DkgFinalize, sessionID, audit.Failure(reason), nil)
	return out, frosterr.DkgFailed(reason)
}

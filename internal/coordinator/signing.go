package coordinator

import (
	"context"
	"encoding/base64"

	"github.com/threshold-network/frost-signer/internal/audit"
	"github.com/threshold-network/frost-signer/internal/ciphersuite"
	"github.com/threshold-network/frost-signer/internal/frosterr"
	"github.com/threshold-network/frost-signer/internal/storage"
)

// InitSigningRequest mirrors spec.md 4.2's InitSigning(group_pubkey, message, selected_signers?).
type InitSigningRequest struct {
	GroupPubkey     string
	MessageBase64   string
	SelectedSigners []uint16 // optional; nil means "natural prefix of configured endpoints"
}

// InitSigning resolves the group record and opens a new signing session.
func (c *Coordinator) InitSigning(ctx context.Context, req InitSigningRequest) (*SigningSession, error) {
	if _, err := base64.StdEncoding.DecodeString(req.MessageBase64); err != nil {
		return nil, frosterr.InvalidInput("message must be base64-encoded: %v", err)
	}

	var record *GroupKeyRecord
	err := c.store.View(func(tx storage.Tx) error {
		r, err := loadGroupKeyRecord(tx, req.GroupPubkey)
		if err != nil {
			return err
		}
		record = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	selected := req.SelectedSigners
	if len(selected) == 0 {
		selected = naturalPrefix(record.SignerEndpoints, record.Threshold)
	}
	if uint16(len(selected)) < record.Threshold {
		return nil, frosterr.InvalidInput("selected_signers must include at least %d participants", record.Threshold)
	}
	endpoints := map[uint16]string{}
	for _, id := range selected {
		ep, ok := record.SignerEndpoints[id]
		if !ok {
			return nil, frosterr.InvalidParticipant(id)
		}
		endpoints[id] = ep
	}

	now := c.now()
	session := &SigningSession{
		SessionID:         newSessionID(),
		GroupPubkey:       record.GroupPubkey,
		PublicKeyPackage:  record.PublicKeyPackage,
		Ciphersuite:       record.Ciphersuite,
		Threshold:         record.Threshold,
		Message:           req.MessageBase64,
		SelectedSigners:   selected,
		SignerEndpoints:   endpoints,
		Commitments:       map[uint16]string{},
		PartialSignatures: map[uint16]string{},
		State:             SigningAwaitingCommitments,
		CreatedAt:         now,
		ExpiresAt:         now.Add(signingSessionTTL),
	}

	if err := c.store.Update(func(tx storage.Tx) error {
		return saveSigningSession(tx, session)
	}); err != nil {
		return nil, err
	}

	c.auditAppend(audit.SigningInit, session.SessionID, audit.Success(), map[string]any{"group_pubkey": record.GroupPubkey})
	return session, nil
}

func naturalPrefix(endpoints map[uint16]string, threshold uint16) []uint16 {
	ids := make([]uint16, 0, len(endpoints))
	for id := range endpoints {
		ids = append(ids, id)
	}
	sortUint16s(ids)
	if uint16(len(ids)) > threshold {
		ids = ids[:threshold]
	}
	return ids
}

func sortUint16s(ids []uint16) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// GetSigningSession inspects a session without mutating it.
func (c *Coordinator) GetSigningSession(ctx context.Context, sessionID string) (*SigningSession, error) {
	var out *SigningSession
	err := c.store.View(func(tx storage.Tx) error {
		s, err := loadSigningSession(tx, sessionID)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// SubmitCommitment records one selected signer's commitment.
func (c *Coordinator) SubmitCommitment(ctx context.Context, sessionID string, participantID uint16, commitment string) (*SigningSession, error) {
	var out *SigningSession
	err := c.store.Update(func(tx storage.Tx) error {
		s, err := loadSigningSession(tx, sessionID)
		if err != nil {
			return err
		}
		if s.expired(c.now()) {
			return frosterr.SessionExpired(sessionID)
		}
		if s.State != SigningAwaitingCommitments {
			return frosterr.WrongState(string(SigningAwaitingCommitments), string(s.State))
		}
		if !isParticipant(s.SelectedSigners, participantID) {
			return frosterr.InvalidParticipant(participantID)
		}
		if _, ok := s.Commitments[participantID]; ok {
			return frosterr.ParticipantAlreadySubmitted(participantID)
		}
		for _, existing := range s.Commitments {
			if existing == commitment {
				return frosterr.DuplicateCommitment()
			}
		}
		s.Commitments[participantID] = commitment
		if len(s.Commitments) == len(s.SelectedSigners) {
			s.State = SigningAwaitingPartials
		}
		if err := saveSigningSession(tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.auditAppend(audit.SigningCommit, sessionID, audit.Success(), map[string]any{"participant_id": participantID})
	return out, nil
}

// SubmitPartial records one selected signer's partial signature.
func (c *Coordinator) SubmitPartial(ctx context.Context, sessionID string, participantID uint16, partial string) (*SigningSession, error) {
	var out *SigningSession
	err := c.store.Update(func(tx storage.Tx) error {
		s, err := loadSigningSession(tx, sessionID)
		if err != nil {
			return err
		}
		if s.expired(c.now()) {
			return frosterr.SessionExpired(sessionID)
		}
		if s.State != SigningAwaitingPartials {
			return frosterr.WrongState(string(SigningAwaitingPartials), string(s.State))
		}
		if !isParticipant(s.SelectedSigners, participantID) {
			return frosterr.InvalidParticipant(participantID)
		}
		if _, ok := s.PartialSignatures[participantID]; ok {
			return frosterr.ParticipantAlreadySubmitted(participantID)
		}
		s.PartialSignatures[participantID] = partial
		if err := saveSigningSession(tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.auditAppend(audit.SigningPartial, sessionID, audit.Success(), map[string]any{"participant_id": participantID})
	return out, nil
}

// Aggregate combines partials, verifies the result, and stores the signature.
func (c *Coordinator) Aggregate(ctx context.Context, sessionID string) (*SigningSession, error) {
	var session *SigningSession
	err := c.store.View(func(tx storage.Tx) error {
		s, err := loadSigningSession(tx, sessionID)
		if err != nil {
			return err
		}
		if s.expired(c.now()) {
			return frosterr.SessionExpired(sessionID)
		}
		if s.State != SigningAwaitingPartials {
			return frosterr.WrongState(string(SigningAwaitingPartials), string(s.State))
		}
		if len(s.PartialSignatures) != len(s.SelectedSigners) {
			return frosterr.InsufficientSignatures(len(s.SelectedSigners), len(s.PartialSignatures))
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	suite, err := ciphersuite.Get(ciphersuite.Name(session.Ciphersuite))
	if err != nil {
		return nil, frosterr.Internal("%v", err)
	}

	message, err := base64.StdEncoding.DecodeString(session.Message)
	if err != nil {
		return nil, frosterr.InvalidInput("stored message is not valid base64: %v", err)
	}

	commitments := map[uint16][]byte{}
	for id, c64 := range session.Commitments {
		raw, err := base64.StdEncoding.DecodeString(c64)
		if err != nil {
			return nil, frosterr.Deserialization("commitment for participant %d: %v", id, err)
		}
		commitments[id] = raw
	}
	shares := map[uint16][]byte{}
	for id, s64 := range session.PartialSignatures {
		raw, err := base64.StdEncoding.DecodeString(s64)
		if err != nil {
			return nil, frosterr.Deserialization("partial signature for participant %d: %v", id, err)
		}
		shares[id] = raw
	}
	pubKeyPackage, err := base64.StdEncoding.DecodeString(session.PublicKeyPackage)
	if err != nil {
		return nil, frosterr.Internal("stored public key package is not valid base64: %v", err)
	}

	sigBytes, culprits, err := suite.Aggregate(pubKeyPackage, ciphersuite.SigningPackage{
		Message:     message,
		Commitments: commitments,
	}, shares)
	if err != nil {
		return c.failSigning(sessionID, "aggregation failed: "+err.Error(), culprits)
	}

	if err := suite.Verify(pubKeyPackage, message, sigBytes); err != nil {
		return c.failSigning(sessionID, "aggregate signature failed verification: "+err.Error(), nil)
	}

	signatureB64 := base64.StdEncoding.EncodeToString(sigBytes)
	err = c.store.Update(func(tx storage.Tx) error {
		s, err := loadSigningSession(tx, sessionID)
		if err != nil {
			return err
		}
		if s.State != SigningAwaitingPartials {
			return frosterr.WrongState(string(SigningAwaitingPartials), string(s.State))
		}
		s.Signature = signatureB64
		s.State = SigningCompleted
		session = s
		return saveSigningSession(tx, s)
	})
	if err != nil {
		return nil, err
	}

	c.auditAppend(audit.SigningAggregate, sessionID, audit.Success(), nil)
	return session, nil
}

func (c *Coordinator) failSigning(sessionID, reason string, culprits []uint16) (*SigningSession, error) {
	var out *SigningSession
	_ = c.store.Update(func(tx storage.Tx) error {
		s, err := loadSigningSession(tx, sessionID)
		if err != nil {
			return err
		}
		s.State = SigningFailed
		s.FailureReason = reason
		out = s
		return saveSigningSession(tx, s)
	})
	c.auditAppend(audit.SigningAggregate, sessionID, audit.Failure(reason), map[string]any{"culprits": culprits})
	if len(culprits) > 0 {
		return out, frosterr.InvalidSignatureShare(culprits)
	}
	return out, frosterr.SigningFailed(reason)
}

package coordinator

import (
	"github.com/threshold-network/frost-signer/internal/frosterr"
	"github.com/threshold-network/frost-signer/internal/storage"
)

func loadDkgSession(tx storage.Tx, sessionID string) (*DkgSession, error) {
	raw, err := tx.Get(storage.BucketDkgSessions, sessionID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, frosterr.SessionNotFound(sessionID)
		}
		return nil, frosterr.Storage("reading dkg session %s: %v", sessionID, err)
	}
	s, err := unmarshalDkgSession(raw)
	if err != nil {
		return nil, frosterr.Storage("decoding dkg session %s: %v", sessionID, err)
	}
	return s, nil
}

func saveDkgSession(tx storage.Tx, s *DkgSession) error {
	raw, err := s.marshal()
	if err != nil {
		return frosterr.Internal("encoding dkg session: %v", err)
	}
	if err := tx.Put(storage.BucketDkgSessions, s.SessionID, raw); err != nil {
		return frosterr.Storage("writing dkg session %s: %v", s.SessionID, err)
	}
	return nil
}

func loadSigningSession(tx storage.Tx, sessionID string) (*SigningSession, error) {
	raw, err := tx.Get(storage.BucketSigningSessions, sessionID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, frosterr.SessionNotFound(sessionID)
		}
		return nil, frosterr.Storage("reading signing session %s: %v", sessionID, err)
	}
	s, err := unmarshalSigningSession(raw)
	if err != nil {
		return nil, frosterr.Storage("decoding signing session %s: %v", sessionID, err)
	}
	return s, nil
}

func saveSigningSession(tx storage.Tx, s *SigningSession) error {
	raw, err := s.marshal()
	if err != nil {
		return frosterr.Internal("encoding signing session: %v", err)
	}
	if err := tx.Put(storage.BucketSigningSessions, s.SessionID, raw); err != nil {
		return frosterr.Storage("writing signing session %s: %v", s.SessionID, err)
	}
	return nil
}

func loadGroupKeyRecord(tx storage.Tx, groupPubkey string) (*GroupKeyRecord, error) {
	raw, err := tx.Get(storage.BucketGroupKeys, groupPubkey)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, frosterr.InvalidInput("unknown group_pubkey: %s", groupPubkey)
		}
		return nil, frosterr.Storage("reading group key %s: %v", groupPubkey, err)
	}
	r, err := unmarshalGroupKeyRecord(raw)
	if err != nil {
		return nil, frosterr.Storage("decoding group key %s: %v", groupPubkey, err)
	}
	return r, nil
}

func saveGroupKeyRecord(tx storage.Tx, r *GroupKeyRecord) error {
	raw, err := r.marshal()
	if err != nil {
		return frosterr.Internal("encoding group key record: %v", err)
	}
	if err := tx.Put(storage.BucketGroupKeys, r.GroupPubkey, raw); err != nil {
		return frosterr.Storage("writing group key %s: %v", r.GroupPubkey, err)
	}
	return nil
}

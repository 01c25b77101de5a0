// Package coordinator implements the two session state machines spec.md
// 4.1 and 4.2 describe: DKG orchestration and signing orchestration. The
// Coordinator never holds share material; it stores only the group-level
// public artefacts and talks to Signers over RPC, mirroring the
// responsibility split in threshold.network/roast's own coordinator/signer
// split, generalised here to a persistent, multi-session service instead
// of an in-process protocol run.
package coordinator

import (
	"encoding/json"
	"time"
)

// DkgState is one state of the DKG session state machine (spec.md 4.1).
type DkgState string

const (
	DkgAwaitingRound1 DkgState = "awaiting_round1"
	DkgAwaitingRound2 DkgState = "awaiting_round2"
	DkgCompleted      DkgState = "completed"
	DkgFailed         DkgState = "failed"
)

// DkgSession is the transient coordination state for one DKG run.
type DkgSession struct {
	SessionID     string   `json:"session_id"`
	State         DkgState `json:"state"`
	Ciphersuite   string   `json:"ciphersuite"`
	Threshold     uint16   `json:"threshold"`
	Total         uint16   `json:"total"`
	ParticipantIDs []uint16 `json:"participant_ids"`

	ParticipantEndpoints  map[uint16]string `json:"participant_endpoints"`
	ParticipantHPKEPubkey map[uint16]string `json:"participant_hpke_pubkeys"`

	Round1Packages map[uint16]string            `json:"round1_packages"` // id -> base64 package
	Round2Packages map[uint16]map[uint16]string `json:"round2_packages"` // from -> to -> base64 sealed payload

	GroupPubkey      string            `json:"group_pubkey,omitempty"`
	PublicKeyPackage string            `json:"public_key_package,omitempty"`
	VerifyingShares  map[uint16]string `json:"verifying_shares,omitempty"`

	FailureReason string `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *DkgSession) expired(now time.Time) bool { return now.After(s.ExpiresAt) }

func (s *DkgSession) marshal() ([]byte, error) { return json.Marshal(s) }

func unmarshalDkgSession(data []byte) (*DkgSession, error) {
	var s DkgSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SigningState is one state of the signing session state machine (spec.md 4.2).
type SigningState string

const (
	SigningAwaitingCommitments SigningState = "awaiting_commitments"
	SigningAwaitingPartials    SigningState = "awaiting_partials"
	SigningCompleted           SigningState = "completed"
	SigningFailed              SigningState = "failed"
	SigningExpired             SigningState = "expired"
)

// SigningSession is the transient coordination state for one signature.
type SigningSession struct {
	SessionID        string   `json:"session_id"`
	GroupPubkey      string   `json:"group_pubkey"`
	PublicKeyPackage string   `json:"public_key_package"`
	Ciphersuite      string   `json:"ciphersuite"`
	Threshold        uint16   `json:"threshold"`
	Message          string   `json:"message"` // base64
	SelectedSigners  []uint16 `json:"selected_signers"`
	SignerEndpoints  map[uint16]string `json:"signer_endpoints"`

	Commitments       map[uint16]string `json:"commitments"`
	PartialSignatures map[uint16]string `json:"partial_signatures"`
	Signature         string            `json:"signature,omitempty"`

	State         SigningState `json:"state"`
	FailureReason string       `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *SigningSession) expired(now time.Time) bool { return now.After(s.ExpiresAt) }

func (s *SigningSession) marshal() ([]byte, error) { return json.Marshal(s) }

func unmarshalSigningSession(data []byte) (*SigningSession, error) {
	var s SigningSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GroupKeyRecord is the durable record of one completed DKG.
type GroupKeyRecord struct {
	GroupPubkey      string    `json:"group_pubkey"`
	PublicKeyPackage string    `json:"public_key_package"`
	Ciphersuite      string    `json:"ciphersuite"`
	Threshold        uint16    `json:"threshold"`
	Total            uint16    `json:"total"`
	SignerEndpoints  map[uint16]string `json:"signer_endpoints"`
	CreatedAt        time.Time `json:"created_at"`

	// XOnlyX and XParity are the BIP-340 x-only public key and its
	// recovery parity, derived from GroupPubkey's SEC1-compressed form at
	// finalisation time. Populated only for the secp256k1 ciphersuite.
	XOnlyX  string `json:"x_only_x,omitempty"`
	XParity int    `json:"x_parity,omitempty"`
}

func (r *GroupKeyRecord) marshal() ([]byte, error) { return json.Marshal(r) }

func unmarshalGroupKeyRecord(data []byte) (*GroupKeyRecord, error) {
	var r GroupKeyRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

const (
	dkgSessionTTL     = 24 * time.Hour
	signingSessionTTL = 10 * time.Minute
)

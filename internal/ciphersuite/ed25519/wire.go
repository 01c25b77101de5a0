package ed25519

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"filippo.io/edwards25519"
)

// As in the secp256k1 suite, these structs are this package's own private
// canonical encoding; the façade only ever hands callers an opaque,
// ciphersuite-tagged blob.

func pointHex(p *edwards25519.Point) string { return hex.EncodeToString(p.Bytes()) }

func pointFromHex(s string) (*edwards25519.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("ed25519: malformed hex point: %w", err)
	}
	p, err := new(edwards25519.Point).SetBytes(b)
	if err != nil {
		return nil, fmt.Errorf("ed25519: invalid encoded point: %w", err)
	}
	return p, nil
}

func scalarHex(s *edwards25519.Scalar) string { return hex.EncodeToString(s.Bytes()) }

func scalarFromHex(s string) (*edwards25519.Scalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("ed25519: malformed hex scalar: %w", err)
	}
	sc, err := new(edwards25519.Scalar).SetCanonicalBytes(b)
	if err != nil {
		return nil, fmt.Errorf("ed25519: invalid scalar encoding: %w", err)
	}
	return sc, nil
}

type round1Package struct {
	Commitments []string `json:"commitments"`
	ProofR      string   `json:"proof_r"`
	ProofMu     string   `json:"proof_mu"`
}

type round1Secret struct {
	Coefficients []string `json:"coefficients"`
}

type round2Secret struct {
	SelfShare string `json:"self_share"`
}

type keyPackage struct {
	ParticipantID uint16 `json:"participant_id"`
	Threshold     uint16 `json:"threshold"`
	Total         uint16 `json:"total"`
	SecretShare   string `json:"secret_share"`
	GroupPubkey   string `json:"group_pubkey"`
}

type verifyingShareEntry struct {
	ParticipantID uint16 `json:"participant_id"`
	Share         string `json:"share"`
}

type publicKeyPackage struct {
	Threshold      uint16                `json:"threshold"`
	Total          uint16                `json:"total"`
	GroupPubkey    string                `json:"group_pubkey"`
	VerifyingShare []verifyingShareEntry `json:"verifying_shares"`
}

type commitment struct {
	ParticipantID uint16 `json:"participant_id"`
	Hiding        string `json:"hiding"`
	Binding       string `json:"binding"`
}

type nonces struct {
	Hiding  string `json:"hiding"`
	Binding string `json:"binding"`
}

type signature struct {
	R string `json:"r"`
	Z string `json:"z"`
}

func marshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic("ed25519: marshal of internal wire type failed: " + err.Error())
	}
	return b
}

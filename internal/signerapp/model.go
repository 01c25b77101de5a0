// Package signerapp implements the Signer core of spec.md 4.5: DKG
// round-1/round-2/finalize production, commit/partial signing, and the
// envelope-encrypted key-share store. It owns the process's HPKE keypair
// and never lets a plaintext key package or nonce leave the process.
package signerapp

import (
	"encoding/base64"
	"fmt"
)

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func unb64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("signerapp: invalid base64: %w", err)
	}
	return b, nil
}

func unb64Map(in map[uint16]string) (map[uint16][]byte, error) {
	out := make(map[uint16][]byte, len(in))
	for id, s := range in {
		b, err := unb64(s)
		if err != nil {
			return nil, fmt.Errorf("signerapp: participant %d: %w", id, err)
		}
		out[id] = b
	}
	return out, nil
}

func b64Map(in map[uint16][]byte) map[uint16]string {
	out := make(map[uint16]string, len(in))
	for id, b := range in {
		out[id] = b64(b)
	}
	return out
}

// Round1Request/Response, Round2Request/Response and friends mirror the
// wire shapes in internal/coordinator/rpcclient.go exactly: the Signer's
// HTTP handlers decode directly into these.

type Round1Request struct {
	SessionID     string `json:"session_id"`
	ParticipantID uint16 `json:"participant_id"`
	Threshold     uint16 `json:"threshold"`
	Total         uint16 `json:"total"`
	Ciphersuite   string `json:"ciphersuite"`
}

type Round1Response struct {
	Package    string `json:"package"`
	HPKEPubkey string `json:"hpke_pubkey"`
}

type Round2Request struct {
	SessionID      string            `json:"session_id"`
	Round1Packages map[uint16]string `json:"round1_packages"`
	HPKEPubkeys    map[uint16]string `json:"hpke_pubkeys"`
}

type Round2Response struct {
	SealedByRecipient map[uint16]string `json:"sealed_by_recipient"`
}

type FinalizeRequest struct {
	SessionID      string            `json:"session_id"`
	Round1Packages map[uint16]string `json:"round1_packages"`
	SealedToSelf   map[uint16]string `json:"sealed_to_self"`
}

type FinalizeResponse struct {
	GroupPubkey      string `json:"group_pubkey"`
	PublicKeyPackage string `json:"public_key_package"`
	VerifyingShare   string `json:"verifying_share"`
}

type CommitRequest struct {
	GroupPubkey string `json:"group_pubkey"`
	SessionID   string `json:"session_id"`
	Assertion   string `json:"assertion,omitempty"`
}

type CommitResponse struct {
	Commitment string `json:"commitment"`
}

type PartialRequest struct {
	GroupPubkey string            `json:"group_pubkey"`
	SessionID   string            `json:"session_id"`
	Message     string            `json:"message"`
	Commitments map[uint16]string `json:"commitments"`
	Assertion   string            `json:"assertion,omitempty"`
}

type PartialResponse struct {
	SignatureShare string `json:"signature_share"`
}

// InfoResponse answers GET /signer/info, one of the diagnostics endpoints
// original_source/apps/signer/src/bin/signer.rs reports at startup and on
// demand.
type InfoResponse struct {
	SignerID      string `json:"signer_id"`
	ParticipantID uint16 `json:"participant_id"`
	Ciphersuite   string `json:"ciphersuite"`
	HPKEPubkey    string `json:"hpke_pubkey"`
}

// KeysResponse answers GET /signer/keys: which group key shares this
// signer currently holds, by group_pubkey, without exposing any key
// material.
type KeysResponse struct {
	GroupPubkeys []string `json:"group_pubkeys"`
}

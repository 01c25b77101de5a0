// Package ciphersuite is the façade described in spec.md 4.4: a uniform
// surface over two elliptic-curve stacks (secp256k1 and ed25519) that share
// no type hierarchy in their underlying libraries. Every operation here
// works purely in terms of opaque, ciphersuite-tagged byte slices so that
// no component outside this package needs to know which concrete curve
// library produced a given artefact — and a ciphersuite mismatch on
// decode is a structured error, never a panic or silent corruption.
//
// Design mirrors threshold.network/roast's Ciphersuite/Curve split
// (frost/ciphersuite.go): one interface per concern, with the secp256k1
// and ed25519 packages each providing a concrete implementation of
// identical shape. Where the teacher hand-rolled FROST signing math
// directly against *big.Int and an elliptic.Curve, this façade adds the
// two-round DKG (Feldman VSS + Schnorr proof-of-knowledge) that
// spec.md 4.1 requires and the teacher's repository does not implement.
package ciphersuite

import "github.com/threshold-network/frost-signer/internal/ciphersuite/csid"

type (
	Name           = csid.Name
	SigningPackage = csid.SigningPackage
)

const (
	Secp256k1 = csid.Secp256k1
	Ed25519   = csid.Ed25519
)

var (
	ParseName                 = csid.ParseName
	IdentifierToParticipantID = csid.IdentifierToParticipantID
)

// Suite is the uniform façade every ciphersuite implements. All arguments
// and return values that cross a process boundary are opaque,
// suite-tagged byte slices (base64-wrapped by the caller for JSON
// transport); only the participant id and the message stay as plain Go
// values.
type Suite interface {
	Name() Name

	// DKGRound1 generates this participant's secret polynomial and the
	// round-1 broadcast package (Feldman commitments plus a Schnorr
	// proof-of-knowledge of the polynomial's constant term).
	DKGRound1(id uint16, threshold, total uint16) (secret []byte, pkg []byte, err error)

	// DKGRound2 consumes the round-1 secret and every participant's
	// round-1 package (including this participant's own) and produces,
	// for every OTHER participant, the plaintext secret share this
	// participant owes them. The caller (signer core) seals each entry
	// with the HPKE channel before it leaves the process.
	DKGRound2(selfID uint16, secret []byte, round1 map[uint16][]byte) (secret2 []byte, sharesByRecipient map[uint16][]byte, err error)

	// DKGFinalize consumes the round-2 secret, every round-1 package, and
	// the plaintext shares addressed to selfID (already HPKE-opened by
	// the caller), verifies them against the Feldman commitments, and
	// derives this participant's key package plus the shared public-key
	// package and verifying share.
	DKGFinalize(selfID uint16, secret2 []byte, round1 map[uint16][]byte, sharesToSelf map[uint16][]byte) (keyPackage []byte, pubKeyPackage []byte, verifyingShare []byte, err error)

	// GroupPublicKeyHex extracts the canonical hex encoding of the group
	// public key from a public-key package: SEC1-compressed for
	// secp256k1, 32-byte canonical for ed25519.
	GroupPublicKeyHex(pubKeyPackage []byte) (string, error)

	// Commit runs FROST round one for a signer holding keyPackage: it
	// samples hiding/binding nonces and returns the nonces (kept in
	// memory only by the caller) and the public commitment.
	Commit(keyPackage []byte) (nonces []byte, commitment []byte, err error)

	// Sign runs FROST round two: produces this participant's signature
	// share given its key package, its own nonces, and the full signing
	// package (message + all commitments).
	Sign(keyPackage []byte, nonces []byte, sp SigningPackage) (share []byte, err error)

	// Aggregate combines signature shares into a single signature and
	// reports, when attributable, which participant's share failed to
	// validate.
	Aggregate(pubKeyPackage []byte, sp SigningPackage, shares map[uint16][]byte) (signature []byte, culprits []uint16, err error)

	// Verify checks a signature against the group verifying key.
	Verify(pubKeyPackage []byte, message []byte, signature []byte) error
}

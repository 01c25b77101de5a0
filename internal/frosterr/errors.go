// Package frosterr defines the closed error taxonomy shared by the
// coordinator and signer services. Every error surfaced to a caller is one
// of these kinds; handlers translate a Kind to an HTTP status and a
// SCREAMING_SNAKE code per the wire contract.
package frosterr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for HTTP status mapping and metrics.
type Kind int

const (
	// KindInternal never leaves the process with a code.
	KindInternal Kind = iota
	KindInput
	KindNotFound
	KindExpired
	KindWrongState
	KindDuplicateSubmission
	KindDuplicateCommitment
	KindMissingParticipant
	KindInvalidParticipant
	KindDkgFailed
	KindSigningFailed
	KindInsufficientSignatures
	KindInvalidSignatureShare
	KindNoncesAlreadyExist
	KindHpkeFailed
	KindInvalidSignature
	KindUnauthorized
	KindInvalidAssertion
	KindAssertionExpired
	KindGuardianNotAuthorized
	KindStorage
	KindSignerUnreachable
	KindSignerError
	KindRateLimited
	KindTLSConfig
)

// Error is the typed error carried internally and translated to the wire
// error body at the HTTP boundary.
type Error struct {
	Kind     Kind
	Code     string // SCREAMING_SNAKE_CASE, empty for KindInternal
	Message  string
	Culprits []uint16 // participants implicated, when attributable
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func new_(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to an existing Error without changing its kind/code.
func (e *Error) Wrap(cause error) *Error {
	e2 := *e
	e2.cause = cause
	return &e2
}

func Internal(format string, args ...any) *Error {
	return new_(KindInternal, "", format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return new_(KindInput, "INVALID_INPUT", format, args...)
}

func InvalidThreshold(threshold, total uint16) *Error {
	return new_(KindInput, "INVALID_THRESHOLD",
		"invalid threshold: t=%d must satisfy 2 <= t <= n=%d", threshold, total)
}

func Deserialization(format string, args ...any) *Error {
	return new_(KindInput, "DESERIALIZATION_ERROR", format, args...)
}

func Serialization(format string, args ...any) *Error {
	return new_(KindInput, "SERIALIZATION_ERROR", format, args...)
}

func SessionNotFound(id string) *Error {
	return new_(KindNotFound, "SESSION_NOT_FOUND", "session not found: %s", id)
}

func KeyShareNotFound(key string) *Error {
	return new_(KindNotFound, "KEY_SHARE_NOT_FOUND", "key share not found: %s", key)
}

func SessionExpired(id string) *Error {
	return new_(KindExpired, "SESSION_EXPIRED", "session expired: %s", id)
}

func WrongState(expected, actual string) *Error {
	return new_(KindWrongState, "INVALID_SESSION_STATE",
		"invalid session state: expected %s, got %s", expected, actual)
}

func InvalidParticipant(id uint16) *Error {
	return new_(KindInvalidParticipant, "INVALID_PARTICIPANT", "invalid participant: %d", id)
}

func ParticipantAlreadySubmitted(id uint16) *Error {
	return new_(KindDuplicateSubmission, "PARTICIPANT_ALREADY_SUBMITTED",
		"participant already submitted: %d", id)
}

func DuplicateCommitment() *Error {
	return new_(KindDuplicateCommitment, "DUPLICATE_COMMITMENT", "duplicate commitment value detected")
}

func MissingParticipants(ids []uint16) *Error {
	return new_(KindMissingParticipant, "MISSING_PARTICIPANTS", "missing participants: %v", ids)
}

func DkgFailed(reason string) *Error {
	return new_(KindDkgFailed, "DKG_FAILED", "dkg failed: %s", reason)
}

func SigningFailed(reason string) *Error {
	return new_(KindSigningFailed, "SIGNING_FAILED", "signing failed: %s", reason)
}

func InsufficientSignatures(needed, have int) *Error {
	return new_(KindInsufficientSignatures, "INSUFFICIENT_SIGNATURES",
		"insufficient signatures: need %d, have %d", needed, have)
}

func InvalidSignatureShare(culprits []uint16) *Error {
	e := new_(KindInvalidSignatureShare, "INVALID_SIGNATURE_SHARE",
		"invalid signature share from participant(s): %v", culprits)
	e.Culprits = culprits
	return e
}

func NoncesAlreadyExist(sessionID, groupPubkey string) *Error {
	return new_(KindNoncesAlreadyExist, "NONCES_ALREADY_EXIST",
		"nonces already exist for session %s and group %s", sessionID, groupPubkey)
}

func HpkeFailed(format string, args ...any) *Error {
	return new_(KindHpkeFailed, "HPKE_FAILED", format, args...)
}

func InvalidSignature(format string, args ...any) *Error {
	return new_(KindInvalidSignature, "INVALID_SIGNATURE", format, args...)
}

func Unauthorized() *Error {
	return new_(KindUnauthorized, "UNAUTHORIZED", "unauthorized")
}

func InvalidAssertion(format string, args ...any) *Error {
	return new_(KindInvalidAssertion, "INVALID_GUARDIAN_ASSERTION", format, args...)
}

func AssertionExpired() *Error {
	return new_(KindAssertionExpired, "GUARDIAN_ASSERTION_EXPIRED", "guardian assertion expired")
}

func GuardianNotAuthorized() *Error {
	return new_(KindGuardianNotAuthorized, "GUARDIAN_NOT_AUTHORIZED", "guardian not authorized for this session")
}

func Storage(format string, args ...any) *Error {
	return new_(KindStorage, "STORAGE_ERROR", format, args...)
}

func SignerUnreachable(format string, args ...any) *Error {
	return new_(KindSignerUnreachable, "SIGNER_UNREACHABLE", format, args...)
}

func SignerError(format string, args ...any) *Error {
	return new_(KindSignerError, "SIGNER_ERROR", format, args...)
}

func RateLimited() *Error {
	return new_(KindRateLimited, "RATE_LIMITED", "rate limit exceeded")
}

func TLSConfig(format string, args ...any) *Error {
	return new_(KindTLSConfig, "TLS_CONFIG_ERROR", format, args...)
}

// As extracts *Error from err, following the standard errors.As contract.
func As(err error) (*Error, bool) {
	var fe *Error
	ok := errors.As(err, &fe)
	return fe, ok
}

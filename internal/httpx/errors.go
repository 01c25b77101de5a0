// Package httpx holds the HTTP boundary concerns shared by the coordinator
// and signer servers: error-to-status translation, the JSON error envelope,
// and small middleware. Routing itself stays on stdlib net/http.ServeMux —
// the pack treats HTTP routing as external-collaborator plumbing, not core.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/threshold-network/frost-signer/internal/frosterr"
)

// errorBody is the wire error shape from spec.md 6.1: {"error": "...", "code": "..."}.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StatusFor maps a taxonomy Kind to an HTTP status code per spec.md 6.2.
func StatusFor(kind frosterr.Kind) int {
	switch kind {
	case frosterr.KindInput, frosterr.KindInvalidParticipant,
		frosterr.KindDuplicateSubmission, frosterr.KindDuplicateCommitment:
		return http.StatusBadRequest
	case frosterr.KindUnauthorized, frosterr.KindInvalidAssertion, frosterr.KindAssertionExpired:
		return http.StatusUnauthorized
	case frosterr.KindGuardianNotAuthorized:
		return http.StatusForbidden
	case frosterr.KindNotFound:
		return http.StatusNotFound
	case frosterr.KindWrongState, frosterr.KindExpired, frosterr.KindNoncesAlreadyExist:
		return http.StatusConflict
	case frosterr.KindDkgFailed, frosterr.KindSigningFailed,
		frosterr.KindInsufficientSignatures, frosterr.KindInvalidSignatureShare,
		frosterr.KindInvalidSignature, frosterr.KindMissingParticipant:
		return http.StatusUnprocessableEntity
	case frosterr.KindRateLimited:
		return http.StatusTooManyRequests
	case frosterr.KindSignerUnreachable, frosterr.KindSignerError:
		return http.StatusBadGateway
	case frosterr.KindStorage, frosterr.KindHpkeFailed, frosterr.KindTLSConfig, frosterr.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a JSON error body with the appropriate status.
// Non-taxonomy errors are treated as internal and never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	fe, ok := frosterr.As(err)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(errorBody{Error: "internal error"})
		return
	}

	status := StatusFor(fe.Kind)
	body := errorBody{Error: fe.Message, Code: fe.Code}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes the request body into v, capped at maxBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return frosterr.InvalidInput("malformed request body: %v", err)
	}
	return nil
}

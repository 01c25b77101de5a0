package ed25519

import "errors"

var (
	errBadShare    = errors.New("ed25519: share failed Feldman commitment verification")
	errMissingSelf = errors.New("ed25519: round-1 packages missing this participant's own broadcast")
	errBadProof    = errors.New("ed25519: invalid proof of knowledge of secret coefficient")
)

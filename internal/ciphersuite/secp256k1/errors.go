package secp256k1

import "errors"

var (
	errXExceedsField = errors.New("secp256k1: x exceeds field size")
	errNoCurvePoint  = errors.New("secp256k1: no curve point for given x")
	errBadHex        = errors.New("secp256k1: malformed hex-encoded scalar or coordinate")
	errBadShare      = errors.New("secp256k1: share failed Feldman commitment verification")
	errMissingSelf   = errors.New("secp256k1: round-1 packages missing this participant's own broadcast")
	errBadProof      = errors.New("secp256k1: invalid proof of knowledge of secret coefficient")
)

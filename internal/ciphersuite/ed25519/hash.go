package ed25519

import (
	"crypto/sha512"

	"filippo.io/edwards25519"
)

var contextString = []byte("FROST-ED25519-SHA512-v1")

// h1 computes a binding factor input (FROST section 4.4).
func h1(m []byte) (*edwards25519.Scalar, error) {
	return hashToScalar(concat(contextString, []byte("rho")), m)
}

// h2 is the Schnorr challenge hash: H(R || A || message).
func h2(r, a, message []byte) (*edwards25519.Scalar, error) {
	return hashToScalar(concat(contextString, []byte("chal")), r, a, message)
}

// h3 derives a per-signer nonce from fresh entropy and the signer's secret.
func h3(random, secret []byte) (*edwards25519.Scalar, error) {
	return hashToScalar(concat(contextString, []byte("nonce")), random, secret)
}

func sha512Concat(parts ...[]byte) []byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// h4 hashes the message for the binding-factor input.
func h4(m []byte) []byte {
	return sha512Concat(concat(contextString, []byte("msg")), m)
}

// h5 hashes the encoded commitment list for the binding-factor input.
func h5(m []byte) []byte {
	return sha512Concat(concat(contextString, []byte("com")), m)
}

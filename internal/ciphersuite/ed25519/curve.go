// Package ed25519 is the Edwards25519 concrete ciphersuite behind the
// façade in package ciphersuite, the FROST(Ed25519, SHA-512) variant of the
// same DKG-and-signing design implemented for secp256k1 in its sibling
// package. It is built on filippo.io/edwards25519 the way the rest of the
// retrieved corpus's Ed25519-based threshold signing code builds on it (see
// the bartke/frost reference implementation), rather than on a raw-bytes
// Edwards implementation: no point/scalar arithmetic here touches
// math/big directly.
package ed25519

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
)

func identity() *edwards25519.Point {
	return edwards25519.NewIdentityPoint()
}

func baseMul(s *edwards25519.Scalar) *edwards25519.Point {
	return new(edwards25519.Point).ScalarBaseMult(s)
}

func mul(p *edwards25519.Point, s *edwards25519.Scalar) *edwards25519.Point {
	return new(edwards25519.Point).ScalarMult(s, p)
}

func add(a, b *edwards25519.Point) *edwards25519.Point {
	return new(edwards25519.Point).Add(a, b)
}

func negateScalar(s *edwards25519.Scalar) *edwards25519.Scalar {
	return new(edwards25519.Scalar).Negate(s)
}

func randomScalar() (*edwards25519.Scalar, error) {
	var buf [64]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("ed25519: sampling random scalar: %w", err)
	}
	s, err := new(edwards25519.Scalar).SetUniformBytes(buf[:])
	if err != nil {
		return nil, fmt.Errorf("ed25519: reducing random scalar: %w", err)
	}
	return s, nil
}

// scalarFromUint16 builds the canonical little-endian scalar encoding of a
// participant identifier, used as the polynomial's evaluation point and in
// Lagrange interpolation. Any uint16 value is far smaller than the group
// order, so the encoding is always canonical.
func scalarFromUint16(id uint16) (*edwards25519.Scalar, error) {
	var buf [32]byte
	buf[0] = byte(id)
	buf[1] = byte(id >> 8)
	return new(edwards25519.Scalar).SetCanonicalBytes(buf[:])
}

// hashToScalar reduces a SHA-512 digest modulo the group order, the
// standard FROST(Ed25519, SHA-512) construction (RFC 9591 section 6.3):
// SetUniformBytes consumes exactly the 64 bytes a SHA-512 digest provides.
func hashToScalar(parts ...[]byte) (*edwards25519.Scalar, error) {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	digest := h.Sum(nil)
	s, err := new(edwards25519.Scalar).SetUniformBytes(digest)
	if err != nil {
		return nil, fmt.Errorf("ed25519: reducing hash to scalar: %w", err)
	}
	return s, nil
}

func concat(a []byte, bs ...[]byte) []byte {
	c := make([]byte, len(a))
	copy(c, a)
	for _, b := range bs {
		c = append(c, b...)
	}
	return c
}

// Package hpke implements the single-shot HPKE construction used to seal
// DKG round-2 shares in transit: DHKEM(X25519, HKDF-SHA256) with
// ChaCha20-Poly1305 as the AEAD, RFC 9180's "Base" mode. The wire format
// and the "info" binding mirror original_source/apps/signer/src/frost/hpke_crypto.rs
// (EncryptedPayload's length-prefixed encapped_key||ciphertext encoding);
// the ECDH-then-symmetric-seal shape follows the teacher's
// ephemeral/symmetric_key.go, generalised from a fixed shared secp256k1
// static key to RFC 9180's per-message encapsulated key and HKDF schedule.
package hpke

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

func newSHA256() hash.Hash { return sha256.New() }

const (
	// suiteID identifies this HPKE ciphersuite combination in the key
	// schedule labels, per RFC 9180 section 5.1: KEM id 0x0020
	// (DHKEM(X25519, HKDF-SHA256)), KDF id 0x0001 (HKDF-SHA256), AEAD id
	// 0x0003 (ChaCha20Poly1305).
	kemID  = 0x0020
	kdfID  = 0x0001
	aeadID = 0x0003

	nPk  = 32 // X25519 public key length
	nSk  = 32 // X25519 secret key length
	nSecret = 32 // HKDF-SHA256 output length
)

var (
	ErrDecrypt        = errors.New("hpke: decryption failed")
	ErrMalformedInput = errors.New("hpke: malformed key or payload")
)

// KeyPair is a signer's static X25519 HPKE key pair, used to receive
// DKG round-2 shares sealed to it by its peers.
type KeyPair struct {
	PublicKey [32]byte
	SecretKey [32]byte
}

// PublicKeyBase64 is the wire form a signer advertises in its round-1
// response and /signer/info probe.
func (kp *KeyPair) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(kp.PublicKey[:])
}

// Generate creates a fresh random key pair.
func Generate() (*KeyPair, error) {
	var sk [32]byte
	if _, err := io.ReadFull(rand.Reader, sk[:]); err != nil {
		return nil, fmt.Errorf("hpke: generating secret key: %w", err)
	}
	return FromSecretKey(sk)
}

// FromSecretKey derives the matching public key for a persisted secret key.
func FromSecretKey(sk [32]byte) (*KeyPair, error) {
	pk, err := curve25519.X25519(sk[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("hpke: deriving public key: %w", err)
	}
	kp := &KeyPair{SecretKey: sk}
	copy(kp.PublicKey[:], pk)
	return kp, nil
}

// Payload is the encrypted artefact produced by Seal, the Go analogue of
// original_source's EncryptedPayload.
type Payload struct {
	EncappedKey [32]byte
	Ciphertext  []byte
}

// Bytes serialises a Payload as a 4-byte big-endian length of the
// encapsulated key, the encapsulated key itself, then the ciphertext —
// identical to EncryptedPayload::to_base64's pre-base64 layout, so the
// wire format matches across reimplementations even though this module
// never needs to interoperate with the original binary.
func (p *Payload) Bytes() []byte {
	out := make([]byte, 4+len(p.EncappedKey)+len(p.Ciphertext))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(p.EncappedKey)))
	copy(out[4:4+len(p.EncappedKey)], p.EncappedKey[:])
	copy(out[4+len(p.EncappedKey):], p.Ciphertext)
	return out
}

// ParsePayload reverses Bytes.
func ParsePayload(data []byte) (*Payload, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: payload shorter than length prefix", ErrMalformedInput)
	}
	n := binary.BigEndian.Uint32(data[0:4])
	if uint64(len(data)) < 4+uint64(n) {
		return nil, fmt.Errorf("%w: payload truncated", ErrMalformedInput)
	}
	if n != nPk {
		return nil, fmt.Errorf("%w: unexpected encapsulated key length %d", ErrMalformedInput, n)
	}
	p := &Payload{Ciphertext: append([]byte{}, data[4+n:]...)}
	copy(p.EncappedKey[:], data[4:4+n])
	return p, nil
}

// labeledExtract and labeledExpand implement RFC 9180's KDF labeling
// (section 4), binding every derived value to this ciphersuite's suite id
// so a key schedule value can never be confused with one from a different
// KEM/KDF/AEAD combination.
func suiteIDBytes() []byte {
	id := make([]byte, 10)
	copy(id, "HPKE")
	binary.BigEndian.PutUint16(id[4:6], kemID)
	binary.BigEndian.PutUint16(id[6:8], kdfID)
	binary.BigEndian.PutUint16(id[8:10], aeadID)
	return id
}

func labeledExtract(salt, label, ikm []byte) []byte {
	labeledIKM := concat([]byte("HPKE-v1"), suiteIDBytes(), label, ikm)
	extractor := hkdf.Extract(newSHA256, labeledIKM, salt)
	return extractor
}

func labeledExpand(prk, label, info []byte, length int) ([]byte, error) {
	labeledInfo := concat(uint16Bytes(length), []byte("HPKE-v1"), suiteIDBytes(), label, info)
	reader := hkdf.Expand(newSHA256, prk, labeledInfo)
	out := make([]byte, length)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("hpke: expanding key schedule material: %w", err)
	}
	return out, nil
}

func uint16Bytes(v int) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(v))
	return b
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// keySchedule derives the AEAD key and base nonce shared by sender and
// receiver from the ECDH output and the context-binding info string, per
// RFC 9180 section 5.1 "Base" mode (no PSK).
func keySchedule(sharedSecret, info []byte) (key, nonce []byte, err error) {
	pskIDHash := labeledExtract(nil, []byte("psk_id_hash"), nil)
	infoHash := labeledExtract(nil, []byte("info_hash"), info)
	keyScheduleContext := concat([]byte{0x00}, pskIDHash, infoHash)

	secret := labeledExtract(sharedSecret, []byte("secret"), nil)

	key, err = labeledExpand(secret, []byte("key"), keyScheduleContext, chacha20poly1305.KeySize)
	if err != nil {
		return nil, nil, err
	}
	nonce, err = labeledExpand(secret, []byte("base_nonce"), keyScheduleContext, chacha20poly1305.NonceSize)
	if err != nil {
		return nil, nil, err
	}
	return key, nonce, nil
}

func extractAndExpandDH(dh, kemContext []byte) ([]byte, error) {
	eaePRK := labeledExtract(nil, []byte("eae_prk"), dh)
	return labeledExpand(eaePRK, []byte("shared_secret"), kemContext, nSecret)
}

// Seal encrypts plaintext to recipientPublicKey using a freshly generated
// ephemeral X25519 key pair, the DHKEM(X25519, HKDF-SHA256) encapsulation
// mechanism, and ChaCha20-Poly1305 with an empty additional-authenticated-
// data field (no AAD beyond the info string, matching the single_shot_seal
// call in original_source). info binds the ciphertext to its protocol
// context — spec.md's (session_id, from_id, to_id, commitment_hash) tuple.
func Seal(recipientPublicKey [32]byte, info, plaintext []byte) (*Payload, error) {
	var ephemeralSK [32]byte
	if _, err := io.ReadFull(rand.Reader, ephemeralSK[:]); err != nil {
		return nil, fmt.Errorf("hpke: generating ephemeral key: %w", err)
	}
	ephemeralPK, err := curve25519.X25519(ephemeralSK[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("hpke: deriving ephemeral public key: %w", err)
	}
	dh, err := curve25519.X25519(ephemeralSK[:], recipientPublicKey[:])
	if err != nil {
		return nil, fmt.Errorf("hpke: computing shared secret: %w", err)
	}

	kemContext := concat(ephemeralPK, recipientPublicKey[:])
	sharedSecret, err := extractAndExpandDH(dh, kemContext)
	if err != nil {
		return nil, err
	}

	key, baseNonce, err := keySchedule(sharedSecret, info)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("hpke: constructing AEAD: %w", err)
	}
	ciphertext := aead.Seal(nil, baseNonce, plaintext, nil)

	p := &Payload{Ciphertext: ciphertext}
	copy(p.EncappedKey[:], ephemeralPK)
	return p, nil
}

// Open decrypts a Payload sealed to this key pair's public key.
func Open(recipient *KeyPair, info []byte, payload *Payload) ([]byte, error) {
	dh, err := curve25519.X25519(recipient.SecretKey[:], payload.EncappedKey[:])
	if err != nil {
		return nil, fmt.Errorf("hpke: computing shared secret: %w", err)
	}

	kemContext := concat(payload.EncappedKey[:], recipient.PublicKey[:])
	sharedSecret, err := extractAndExpandDH(dh, kemContext)
	if err != nil {
		return nil, err
	}

	key, baseNonce, err := keySchedule(sharedSecret, info)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("hpke: constructing AEAD: %w", err)
	}
	plaintext, err := aead.Open(nil, baseNonce, payload.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

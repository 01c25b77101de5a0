package ed25519

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"filippo.io/edwards25519"

	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
)

// FROST(Ed25519, SHA-512) round-two signing. Unlike the secp256k1/BIP-340
// suite, Ed25519's Schnorr variant has no x-only convention, so there is no
// even-y parity correction to apply: the challenge and verification
// equation use full point encodings throughout.

type commitmentPair struct {
	Hiding  *edwards25519.Point
	Binding *edwards25519.Point
}

func decodeCommitments(raw map[uint16][]byte) (map[uint16]commitmentPair, []uint16, error) {
	out := make(map[uint16]commitmentPair, len(raw))
	ids := make([]uint16, 0, len(raw))
	for id, b := range raw {
		var c commitment
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, nil, fmt.Errorf("ed25519: decoding commitment for %d: %w", id, err)
		}
		hiding, err := pointFromHex(c.Hiding)
		if err != nil {
			return nil, nil, err
		}
		binding, err := pointFromHex(c.Binding)
		if err != nil {
			return nil, nil, err
		}
		out[id] = commitmentPair{Hiding: hiding, Binding: binding}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return out, ids, nil
}

func encodeCommitmentList(ids []uint16, commitments map[uint16]commitmentPair) []byte {
	var buf []byte
	for _, id := range ids {
		idBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(idBuf, id)
		c := commitments[id]
		buf = append(buf, idBuf...)
		buf = append(buf, c.Hiding.Bytes()...)
		buf = append(buf, c.Binding.Bytes()...)
	}
	return buf
}

func computeBindingFactors(ids []uint16, commitments map[uint16]commitmentPair, message []byte) (map[uint16]*edwards25519.Scalar, error) {
	msgHash := h4(message)
	comHash := h5(encodeCommitmentList(ids, commitments))
	out := make(map[uint16]*edwards25519.Scalar, len(ids))
	for _, id := range ids {
		idBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(idBuf, id)
		rho, err := h1(concat(idBuf, concat(msgHash, comHash)))
		if err != nil {
			return nil, err
		}
		out[id] = rho
	}
	return out, nil
}

func computeGroupCommitment(ids []uint16, commitments map[uint16]commitmentPair, rho map[uint16]*edwards25519.Scalar) *edwards25519.Point {
	acc := identity()
	for _, id := range ids {
		c := commitments[id]
		acc = add(acc, add(c.Hiding, mul(c.Binding, rho[id])))
	}
	return acc
}

func deriveInterpolatingValue(ids []uint16, own uint16) (*edwards25519.Scalar, error) {
	num := mustOne()
	den := mustOne()
	ownX, err := scalarFromUint16(own)
	if err != nil {
		return nil, err
	}
	for _, j := range ids {
		if j == own {
			continue
		}
		jX, err := scalarFromUint16(j)
		if err != nil {
			return nil, err
		}
		num = new(edwards25519.Scalar).Multiply(num, negateScalar(jX))
		den = new(edwards25519.Scalar).Multiply(den, new(edwards25519.Scalar).Subtract(ownX, jX))
	}
	denInv := new(edwards25519.Scalar).Invert(den)
	return new(edwards25519.Scalar).Multiply(num, denInv), nil
}

func computeChallenge(r, groupPub *edwards25519.Point, message []byte) (*edwards25519.Scalar, error) {
	return h2(r.Bytes(), groupPub.Bytes(), message)
}

func generateNonce(secret []byte) (*edwards25519.Scalar, error) {
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("ed25519: sampling nonce entropy: %w", err)
	}
	return h3(random, secret)
}

func commit(keyPackageBytes []byte) (noncesOut []byte, commitmentOut []byte, err error) {
	var kp keyPackage
	if err := json.Unmarshal(keyPackageBytes, &kp); err != nil {
		return nil, nil, fmt.Errorf("ed25519: decoding key package: %w", err)
	}
	secretBytes, err := scalarFromHex(kp.SecretShare)
	if err != nil {
		return nil, nil, err
	}

	hiding, err := generateNonce(secretBytes.Bytes())
	if err != nil {
		return nil, nil, err
	}
	binding, err := generateNonce(secretBytes.Bytes())
	if err != nil {
		return nil, nil, err
	}

	n := nonces{Hiding: scalarHex(hiding), Binding: scalarHex(binding)}
	c := commitment{
		ParticipantID: kp.ParticipantID,
		Hiding:        pointHex(baseMul(hiding)),
		Binding:       pointHex(baseMul(binding)),
	}
	return marshal(n), marshal(c), nil
}

func sign(keyPackageBytes, noncesBytes []byte, sp csid.SigningPackage) ([]byte, error) {
	var kp keyPackage
	if err := json.Unmarshal(keyPackageBytes, &kp); err != nil {
		return nil, fmt.Errorf("ed25519: decoding key package: %w", err)
	}
	var n nonces
	if err := json.Unmarshal(noncesBytes, &n); err != nil {
		return nil, fmt.Errorf("ed25519: decoding nonces: %w", err)
	}
	hidingNonce, err := scalarFromHex(n.Hiding)
	if err != nil {
		return nil, err
	}
	bindingNonce, err := scalarFromHex(n.Binding)
	if err != nil {
		return nil, err
	}
	secretShare, err := scalarFromHex(kp.SecretShare)
	if err != nil {
		return nil, err
	}
	groupPub, err := pointFromHex(kp.GroupPubkey)
	if err != nil {
		return nil, err
	}

	commitments, ids, err := decodeCommitments(sp.Commitments)
	if err != nil {
		return nil, err
	}
	if _, ok := commitments[kp.ParticipantID]; !ok {
		return nil, fmt.Errorf("ed25519: signing package missing this participant's own commitment")
	}

	rho, err := computeBindingFactors(ids, commitments, sp.Message)
	if err != nil {
		return nil, err
	}
	r := computeGroupCommitment(ids, commitments, rho)
	lambda, err := deriveInterpolatingValue(ids, kp.ParticipantID)
	if err != nil {
		return nil, err
	}
	c, err := computeChallenge(r, groupPub, sp.Message)
	if err != nil {
		return nil, err
	}

	z := new(edwards25519.Scalar).Multiply(bindingNonce, rho[kp.ParticipantID])
	z = new(edwards25519.Scalar).Add(hidingNonce, z)
	lambdaC := new(edwards25519.Scalar).Multiply(lambda, c)
	z = new(edwards25519.Scalar).MultiplyAdd(secretShare, lambdaC, z)

	return marshal(struct {
		Z string `json:"z"`
	}{Z: scalarHex(z)}), nil
}

func verifyShare(id uint16, z *edwards25519.Scalar, commitments map[uint16]commitmentPair, rho map[uint16]*edwards25519.Scalar, c *edwards25519.Scalar, ids []uint16, verifyingShare *edwards25519.Point) (bool, error) {
	lambda, err := deriveInterpolatingValue(ids, id)
	if err != nil {
		return false, err
	}
	cp := commitments[id]

	lhs := baseMul(z)

	rTerm := add(cp.Hiding, mul(cp.Binding, rho[id]))
	exponent := new(edwards25519.Scalar).Multiply(lambda, c)
	pTerm := mul(verifyingShare, exponent)
	rhs := add(rTerm, pTerm)

	return lhs.Equal(rhs) == 1, nil
}

func aggregate(pubKeyPackageBytes []byte, sp csid.SigningPackage, shares map[uint16][]byte) ([]byte, []uint16, error) {
	var pkp publicKeyPackage
	if err := json.Unmarshal(pubKeyPackageBytes, &pkp); err != nil {
		return nil, nil, fmt.Errorf("ed25519: decoding public key package: %w", err)
	}
	groupPub, err := pointFromHex(pkp.GroupPubkey)
	if err != nil {
		return nil, nil, err
	}
	verifying := make(map[uint16]*edwards25519.Point, len(pkp.VerifyingShare))
	for _, v := range pkp.VerifyingShare {
		p, err := pointFromHex(v.Share)
		if err != nil {
			return nil, nil, err
		}
		verifying[v.ParticipantID] = p
	}

	commitments, ids, err := decodeCommitments(sp.Commitments)
	if err != nil {
		return nil, nil, err
	}
	rho, err := computeBindingFactors(ids, commitments, sp.Message)
	if err != nil {
		return nil, nil, err
	}
	r := computeGroupCommitment(ids, commitments, rho)
	c, err := computeChallenge(r, groupPub, sp.Message)
	if err != nil {
		return nil, nil, err
	}

	var culprits []uint16
	total := edwards25519.NewScalar()
	for _, id := range ids {
		raw, ok := shares[id]
		if !ok {
			culprits = append(culprits, id)
			continue
		}
		var s struct {
			Z string `json:"z"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			culprits = append(culprits, id)
			continue
		}
		z, err := scalarFromHex(s.Z)
		if err != nil {
			culprits = append(culprits, id)
			continue
		}
		vs, ok := verifying[id]
		if !ok {
			culprits = append(culprits, id)
			continue
		}
		ok2, err := verifyShare(id, z, commitments, rho, c, ids, vs)
		if err != nil || !ok2 {
			culprits = append(culprits, id)
			continue
		}
		total = new(edwards25519.Scalar).Add(total, z)
	}
	if len(culprits) > 0 {
		return nil, culprits, fmt.Errorf("ed25519: %d signature share(s) failed verification", len(culprits))
	}

	sig := signature{R: pointHex(r), Z: scalarHex(total)}
	return marshal(sig), nil, nil
}

func verify(pubKeyPackageBytes, message, signatureBytes []byte) error {
	var pkp publicKeyPackage
	if err := json.Unmarshal(pubKeyPackageBytes, &pkp); err != nil {
		return fmt.Errorf("ed25519: decoding public key package: %w", err)
	}
	groupPub, err := pointFromHex(pkp.GroupPubkey)
	if err != nil {
		return err
	}
	var sig signature
	if err := json.Unmarshal(signatureBytes, &sig); err != nil {
		return fmt.Errorf("ed25519: decoding signature: %w", err)
	}
	r, err := pointFromHex(sig.R)
	if err != nil {
		return err
	}
	z, err := scalarFromHex(sig.Z)
	if err != nil {
		return err
	}

	c, err := computeChallenge(r, groupPub, message)
	if err != nil {
		return err
	}
	lhs := baseMul(z)
	rhs := add(r, mul(groupPub, c))
	if lhs.Equal(rhs) != 1 {
		return fmt.Errorf("ed25519: signature verification failed")
	}
	return nil
}

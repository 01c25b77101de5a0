package secp256k1

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
)

// FROST round-two signing math, adapted from the teacher's
// frost/participant.go, frost/signer.go and frost/coordinator.go: binding
// factors, group commitment, Lagrange interpolation and challenge
// computation follow the same structure, generalised from the teacher's
// uint64 signer indices to this module's uint16 participant ids and wired
// through the façade's byte-blob Suite methods instead of the teacher's
// direct struct calls.

type commitmentPair struct {
	Hiding  *Point
	Binding *Point
}

func decodeCommitments(raw map[uint16][]byte) (map[uint16]commitmentPair, []uint16, error) {
	out := make(map[uint16]commitmentPair, len(raw))
	ids := make([]uint16, 0, len(raw))
	for id, b := range raw {
		var c commitment
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, nil, fmt.Errorf("secp256k1: decoding commitment for %d: %w", id, err)
		}
		hiding, err := c.Hiding.toPoint()
		if err != nil {
			return nil, nil, err
		}
		binding, err := c.Binding.toPoint()
		if err != nil {
			return nil, nil, err
		}
		out[id] = commitmentPair{Hiding: hiding, Binding: binding}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return out, ids, nil
}

func encodeCommitmentList(cv *curve, ids []uint16, commitments map[uint16]commitmentPair) []byte {
	var buf []byte
	for _, id := range ids {
		idBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(idBuf, id)
		c := commitments[id]
		buf = append(buf, idBuf...)
		buf = append(buf, cv.serializePoint(c.Hiding)...)
		buf = append(buf, cv.serializePoint(c.Binding)...)
	}
	return buf
}

func computeBindingFactors(cv *curve, order *big.Int, ids []uint16, commitments map[uint16]commitmentPair, message []byte) map[uint16]*big.Int {
	msgHash := h4(message)
	comHash := h5(encodeCommitmentList(cv, ids, commitments))
	out := make(map[uint16]*big.Int, len(ids))
	for _, id := range ids {
		idBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(idBuf, id)
		out[id] = h1(order, concat(idBuf, msgHash, comHash))
	}
	return out
}

func computeGroupCommitment(cv *curve, ids []uint16, commitments map[uint16]commitmentPair, rho map[uint16]*big.Int) *Point {
	acc := cv.identity()
	for _, id := range ids {
		c := commitments[id]
		term := cv.add(c.Hiding, cv.mul(c.Binding, rho[id]))
		acc = cv.add(acc, term)
	}
	return acc
}

// deriveInterpolatingValue computes the Lagrange coefficient of participant
// own within the set ids, evaluated at x=0 (FROST section 4.2).
func deriveInterpolatingValue(order *big.Int, ids []uint16, own uint16) *big.Int {
	num := big.NewInt(1)
	den := big.NewInt(1)
	ownX := new(big.Int).SetUint64(uint64(own))
	for _, j := range ids {
		if j == own {
			continue
		}
		jX := new(big.Int).SetUint64(uint64(j))

		negJ := new(big.Int).Neg(jX)
		negJ.Mod(negJ, order)
		num.Mul(num, negJ)
		num.Mod(num, order)

		diff := new(big.Int).Sub(ownX, jX)
		diff.Mod(diff, order)
		den.Mul(den, diff)
		den.Mod(den, order)
	}
	denInv := new(big.Int).ModInverse(den, order)
	result := new(big.Int).Mul(num, denInv)
	result.Mod(result, order)
	return result
}

// parityFactor returns order-1 (i.e. -1 mod order) when p has odd y, or 1
// when even — the BIP-340 adaptation FROST-secp256k1-SHA256 needs so that
// the aggregated signature always verifies against an even-y R and an
// even-y group public key, regardless of the parity the raw sum produces.
func parityFactor(order *big.Int, p *Point) *big.Int {
	if p.Y.Bit(0) == 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Sub(order, big.NewInt(1))
}

func computeChallenge(cv *curve, order *big.Int, r, groupPub *Point, message []byte) *big.Int {
	return h2(order, encodePointXOnly(cv, r), encodePointXOnly(cv, groupPub), message)
}

func generateNonce(order *big.Int, secret []byte) (*big.Int, error) {
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("secp256k1: sampling nonce entropy: %w", err)
	}
	return h3(order, random, secret), nil
}

func commit(keyPackageBytes []byte) (noncesOut []byte, commitmentOut []byte, err error) {
	var kp keyPackage
	if err := json.Unmarshal(keyPackageBytes, &kp); err != nil {
		return nil, nil, fmt.Errorf("secp256k1: decoding key package: %w", err)
	}
	secretBytes, err := scalarFromHex(kp.SecretShare)
	if err != nil {
		return nil, nil, err
	}

	cv := newCurve()
	order := cv.order()

	hiding, err := generateNonce(order, secretBytes.Bytes())
	if err != nil {
		return nil, nil, err
	}
	binding, err := generateNonce(order, secretBytes.Bytes())
	if err != nil {
		return nil, nil, err
	}

	n := nonces{Hiding: scalarHex(hiding), Binding: scalarHex(binding)}
	c := commitment{
		ParticipantID: kp.ParticipantID,
		Hiding:        toWirePoint(cv.baseMul(hiding)),
		Binding:       toWirePoint(cv.baseMul(binding)),
	}
	return marshal(n), marshal(c), nil
}

func sign(keyPackageBytes, noncesBytes []byte, sp csid.SigningPackage) ([]byte, error) {
	var kp keyPackage
	if err := json.Unmarshal(keyPackageBytes, &kp); err != nil {
		return nil, fmt.Errorf("secp256k1: decoding key package: %w", err)
	}
	var n nonces
	if err := json.Unmarshal(noncesBytes, &n); err != nil {
		return nil, fmt.Errorf("secp256k1: decoding nonces: %w", err)
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
	groupPub, err := kp.GroupPubkey.toPoint()
	if err != nil {
		return nil, err
	}

	cv := newCurve()
	order := cv.order()

	commitments, ids, err := decodeCommitments(sp.Commitments)
	if err != nil {
		return nil, err
	}
	if _, ok := commitments[kp.ParticipantID]; !ok {
		return nil, fmt.Errorf("secp256k1: signing package missing this participant's own commitment")
	}

	rho := computeBindingFactors(cv, order, ids, commitments, sp.Message)
	r := computeGroupCommitment(cv, ids, commitments, rho)
	lambda := deriveInterpolatingValue(order, ids, kp.ParticipantID)
	c := computeChallenge(cv, order, r, groupPub, sp.Message)

	gR := parityFactor(order, r)
	gP := parityFactor(order, groupPub)

	z := new(big.Int).Mul(gR, hidingNonce)
	term := new(big.Int).Mul(gR, rho[kp.ParticipantID])
	term.Mul(term, bindingNonce)
	z.Add(z, term)

	term2 := new(big.Int).Mul(gP, lambda)
	term2.Mul(term2, secretShare)
	term2.Mul(term2, c)
	z.Add(z, term2)
	z.Mod(z, order)

	return marshal(struct {
		Z string `json:"z"`
	}{Z: scalarHex(z)}), nil
}

func verifyShare(cv *curve, order *big.Int, id uint16, z *big.Int, gR, gP *big.Int, commitments map[uint16]commitmentPair, rho map[uint16]*big.Int, c *big.Int, verifyingShare *Point) bool {
	lambda := deriveInterpolatingValue(order, idsOf(commitments), id)
	cp := commitments[id]

	lhs := cv.baseMul(z)

	rTerm := cv.add(cv.mul(cp.Hiding, gR), cv.mul(cp.Binding, new(big.Int).Mul(gR, rho[id])))
	exponent := new(big.Int).Mul(gP, lambda)
	exponent.Mul(exponent, c)
	pTerm := cv.mul(verifyingShare, exponent)
	rhs := cv.add(rTerm, pTerm)

	return lhs.X.Cmp(rhs.X) == 0 && lhs.Y.Cmp(rhs.Y) == 0
}

func idsOf(m map[uint16]commitmentPair) []uint16 {
	ids := make([]uint16, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func aggregate(pubKeyPackageBytes []byte, sp csid.SigningPackage, shares map[uint16][]byte) ([]byte, []uint16, error) {
	var pkp publicKeyPackage
	if err := json.Unmarshal(pubKeyPackageBytes, &pkp); err != nil {
		return nil, nil, fmt.Errorf("secp256k1: decoding public key package: %w", err)
	}
	groupPub, err := pkp.GroupPubkey.toPoint()
	if err != nil {
		return nil, nil, err
	}
	verifying := make(map[uint16]*Point, len(pkp.VerifyingShare))
	for _, v := range pkp.VerifyingShare {
		p, err := v.Share.toPoint()
		if err != nil {
			return nil, nil, err
		}
		verifying[v.ParticipantID] = p
	}

	cv := newCurve()
	order := cv.order()

	commitments, ids, err := decodeCommitments(sp.Commitments)
	if err != nil {
		return nil, nil, err
	}
	rho := computeBindingFactors(cv, order, ids, commitments, sp.Message)
	r := computeGroupCommitment(cv, ids, commitments, rho)
	c := computeChallenge(cv, order, r, groupPub, sp.Message)
	gR := parityFactor(order, r)
	gP := parityFactor(order, groupPub)

	var culprits []uint16
	total := new(big.Int)
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
		if !verifyShare(cv, order, id, z, gR, gP, commitments, rho, c, vs) {
			culprits = append(culprits, id)
			continue
		}
		total.Add(total, z)
		total.Mod(total, order)
	}
	if len(culprits) > 0 {
		return nil, culprits, fmt.Errorf("secp256k1: %d signature share(s) failed verification", len(culprits))
	}

	evenR, err := liftX(cv, new(big.Int).Mod(r.X, cv.field()))
	if err != nil {
		return nil, nil, fmt.Errorf("secp256k1: group commitment has no valid x-coordinate: %w", err)
	}

	sig := signature{R: toWirePoint(evenR), Z: scalarHex(total)}
	return marshal(sig), nil, nil
}

func verify(pubKeyPackageBytes, message, signatureBytes []byte) error {
	var pkp publicKeyPackage
	if err := json.Unmarshal(pubKeyPackageBytes, &pkp); err != nil {
		return fmt.Errorf("secp256k1: decoding public key package: %w", err)
	}
	groupPub, err := pkp.GroupPubkey.toPoint()
	if err != nil {
		return err
	}
	var sig signature
	if err := json.Unmarshal(signatureBytes, &sig); err != nil {
		return fmt.Errorf("secp256k1: decoding signature: %w", err)
	}
	r, err := sig.R.toPoint()
	if err != nil {
		return err
	}
	z, err := scalarFromHex(sig.Z)
	if err != nil {
		return err
	}

	cv := newCurve()
	order := cv.order()

	evenPub, err := liftX(cv, new(big.Int).Mod(groupPub.X, cv.field()))
	if err != nil {
		return fmt.Errorf("secp256k1: group public key has no valid x-coordinate: %w", err)
	}

	c := computeChallenge(cv, order, r, evenPub, message)
	lhs := cv.baseMul(z)
	rhs := cv.add(r, cv.mul(evenPub, c))
	if lhs.X.Cmp(rhs.X) != 0 || lhs.Y.Cmp(rhs.Y) != 0 {
		return fmt.Errorf("secp256k1: signature verification failed")
	}
	return nil
}

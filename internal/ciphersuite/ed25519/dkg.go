package ed25519

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"filippo.io/edwards25519"
)

// Same Feldman-VSS-plus-Schnorr-PoK two-round DKG as the secp256k1 suite,
// restated in terms of edwards25519.Point/Scalar instead of an
// elliptic.Curve wrapper over math/big.

var dkgPoKTag = concat(contextString, []byte("dkg-pok"))

func dkgChallenge(id uint16, r, c0 *edwards25519.Point) (*edwards25519.Scalar, error) {
	idBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(idBuf, id)
	return hashToScalar(dkgPoKTag, idBuf, r.Bytes(), c0.Bytes())
}

func dkgRound1(id uint16, threshold, total uint16) (secret []byte, pkg []byte, err error) {
	if threshold < 1 || threshold > total {
		return nil, nil, fmt.Errorf("ed25519: invalid threshold %d of %d", threshold, total)
	}

	coeffs := make([]*edwards25519.Scalar, threshold)
	commitments := make([]string, threshold)
	for i := range coeffs {
		a, err := randomScalar()
		if err != nil {
			return nil, nil, err
		}
		coeffs[i] = a
		commitments[i] = pointHex(baseMul(a))
	}

	k, err := randomScalar()
	if err != nil {
		return nil, nil, err
	}
	r := baseMul(k)
	c0 := baseMul(coeffs[0])

	c, err := dkgChallenge(id, r, c0)
	if err != nil {
		return nil, nil, err
	}
	mu := new(edwards25519.Scalar).MultiplyAdd(coeffs[0], c, k)

	p1 := round1Package{Commitments: commitments, ProofR: pointHex(r), ProofMu: scalarHex(mu)}

	coeffHex := make([]string, len(coeffs))
	for i, a := range coeffs {
		coeffHex[i] = scalarHex(a)
	}
	s1 := round1Secret{Coefficients: coeffHex}

	return marshal(s1), marshal(p1), nil
}

func verifyProofOfKnowledge(id uint16, pkg round1Package) error {
	if len(pkg.Commitments) == 0 {
		return fmt.Errorf("ed25519: round-1 package has no commitments")
	}
	c0, err := pointFromHex(pkg.Commitments[0])
	if err != nil {
		return err
	}
	r, err := pointFromHex(pkg.ProofR)
	if err != nil {
		return err
	}
	mu, err := scalarFromHex(pkg.ProofMu)
	if err != nil {
		return err
	}

	c, err := dkgChallenge(id, r, c0)
	if err != nil {
		return err
	}

	lhs := baseMul(mu)
	rhs := add(r, mul(c0, c))
	if lhs.Equal(rhs) != 1 {
		return errBadProof
	}
	return nil
}

func evalPolynomial(coeffs []*edwards25519.Scalar, x *edwards25519.Scalar) *edwards25519.Scalar {
	result := edwards25519.NewScalar()
	for i := len(coeffs) - 1; i >= 0; i-- {
		product := new(edwards25519.Scalar).Multiply(result, x)
		result = new(edwards25519.Scalar).Add(product, coeffs[i])
	}
	return result
}

func dkgRound2(selfID uint16, secret []byte, round1 map[uint16][]byte) (secret2 []byte, sharesByRecipient map[uint16][]byte, err error) {
	var s1 round1Secret
	if err := json.Unmarshal(secret, &s1); err != nil {
		return nil, nil, fmt.Errorf("ed25519: decoding round-1 secret: %w", err)
	}
	coeffs := make([]*edwards25519.Scalar, len(s1.Coefficients))
	for i, h := range s1.Coefficients {
		coeffs[i], err = scalarFromHex(h)
		if err != nil {
			return nil, nil, err
		}
	}

	if _, ok := round1[selfID]; !ok {
		return nil, nil, errMissingSelf
	}
	for pid, raw := range round1 {
		var pkg round1Package
		if err := json.Unmarshal(raw, &pkg); err != nil {
			return nil, nil, fmt.Errorf("ed25519: decoding round-1 package from %d: %w", pid, err)
		}
		if err := verifyProofOfKnowledge(pid, pkg); err != nil {
			return nil, nil, fmt.Errorf("ed25519: participant %d: %w", pid, err)
		}
	}

	shares := make(map[uint16][]byte, len(round1)-1)
	var selfShare *edwards25519.Scalar
	for pid := range round1 {
		x, err := scalarFromUint16(pid)
		if err != nil {
			return nil, nil, err
		}
		y := evalPolynomial(coeffs, x)
		if pid == selfID {
			selfShare = y
			continue
		}
		shares[pid] = marshal(struct {
			Share string `json:"share"`
		}{Share: scalarHex(y)})
	}

	return marshal(round2Secret{SelfShare: scalarHex(selfShare)}), shares, nil
}

func feldmanVerify(commitments []string, x, y *edwards25519.Scalar) error {
	acc := identity()
	xPow := mustOne()
	for _, wc := range commitments {
		c, err := pointFromHex(wc)
		if err != nil {
			return err
		}
		acc = add(acc, mul(c, xPow))
		xPow = new(edwards25519.Scalar).Multiply(xPow, x)
	}
	lhs := baseMul(y)
	if lhs.Equal(acc) != 1 {
		return errBadShare
	}
	return nil
}

func dkgFinalize(selfID uint16, secret2 []byte, round1 map[uint16][]byte, sharesToSelf map[uint16][]byte) (kp []byte, pkp []byte, vshare []byte, err error) {
	var s2 round2Secret
	if err := json.Unmarshal(secret2, &s2); err != nil {
		return nil, nil, nil, fmt.Errorf("ed25519: decoding round-2 secret: %w", err)
	}
	selfShare, err := scalarFromHex(s2.SelfShare)
	if err != nil {
		return nil, nil, nil, err
	}

	packages := make(map[uint16]round1Package, len(round1))
	ids := make([]uint16, 0, len(round1))
	for pid, raw := range round1 {
		var pkg round1Package
		if err := json.Unmarshal(raw, &pkg); err != nil {
			return nil, nil, nil, fmt.Errorf("ed25519: decoding round-1 package from %d: %w", pid, err)
		}
		packages[pid] = pkg
		ids = append(ids, pid)
	}
	if _, ok := packages[selfID]; !ok {
		return nil, nil, nil, errMissingSelf
	}
	threshold := uint16(len(packages[selfID].Commitments))
	total := uint16(len(packages))

	selfX, err := scalarFromUint16(selfID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := feldmanVerify(packages[selfID].Commitments, selfX, selfShare); err != nil {
		return nil, nil, nil, fmt.Errorf("ed25519: own share self-check failed: %w", err)
	}

	totalShare := new(edwards25519.Scalar).Set(selfShare)
	for pid, raw := range sharesToSelf {
		var entry struct {
			Share string `json:"share"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, nil, nil, fmt.Errorf("ed25519: decoding share from %d: %w", pid, err)
		}
		y, err := scalarFromHex(entry.Share)
		if err != nil {
			return nil, nil, nil, err
		}
		pkg, ok := packages[pid]
		if !ok {
			return nil, nil, nil, fmt.Errorf("ed25519: share from unknown participant %d", pid)
		}
		if err := feldmanVerify(pkg.Commitments, selfX, y); err != nil {
			return nil, nil, nil, fmt.Errorf("ed25519: share from %d: %w", pid, err)
		}
		totalShare = new(edwards25519.Scalar).Add(totalShare, y)
	}
	if len(sharesToSelf) != int(total)-1 {
		return nil, nil, nil, fmt.Errorf("ed25519: expected shares from %d peers, got %d", total-1, len(sharesToSelf))
	}

	groupPub := identity()
	for _, pkg := range packages {
		c0, err := pointFromHex(pkg.Commitments[0])
		if err != nil {
			return nil, nil, nil, err
		}
		groupPub = add(groupPub, c0)
	}

	verifyingShares := make([]verifyingShareEntry, 0, total)
	for _, pid := range ids {
		x, err := scalarFromUint16(pid)
		if err != nil {
			return nil, nil, nil, err
		}
		acc := identity()
		for _, pkg := range packages {
			xPow := new(edwards25519.Scalar).Add(edwards25519.NewScalar(), mustOne())
			for _, wc := range pkg.Commitments {
				c, err := pointFromHex(wc)
				if err != nil {
					return nil, nil, nil, err
				}
				acc = add(acc, mul(c, xPow))
				xPow = new(edwards25519.Scalar).Multiply(xPow, x)
			}
		}
		verifyingShares = append(verifyingShares, verifyingShareEntry{ParticipantID: pid, Share: pointHex(acc)})
	}

	kpOut := keyPackage{
		ParticipantID: selfID,
		Threshold:     threshold,
		Total:         total,
		SecretShare:   scalarHex(totalShare),
		GroupPubkey:   pointHex(groupPub),
	}
	pkpOut := publicKeyPackage{
		Threshold:      threshold,
		Total:          total,
		GroupPubkey:    pointHex(groupPub),
		VerifyingShare: verifyingShares,
	}

	var selfVerifying string
	for _, v := range verifyingShares {
		if v.ParticipantID == selfID {
			selfVerifying = v.Share
		}
	}

	return marshal(kpOut), marshal(pkpOut), marshal(selfVerifying), nil
}

func mustOne() *edwards25519.Scalar {
	s, err := scalarFromUint16(1)
	if err != nil {
		panic("ed25519: encoding the constant 1 as a scalar cannot fail")
	}
	return s
}

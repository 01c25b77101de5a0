package ed25519

import (
	"encoding/json"
	"fmt"

	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
)

// Suite is the Edwards25519 ciphersuite.Suite implementation.
type Suite struct{}

// New constructs the ed25519 ciphersuite. It holds no state of its own.
func New() *Suite { return &Suite{} }

func (s *Suite) Name() csid.Name { return csid.Ed25519 }

func (s *Suite) open(data []byte) ([]byte, error) {
	return csid.Open(csid.Ed25519, data)
}

func (s *Suite) envelope(payload []byte) []byte {
	return csid.Envelope(csid.Ed25519, payload)
}

func (s *Suite) DKGRound1(id uint16, threshold, total uint16) (secret []byte, pkg []byte, err error) {
	secret, pkg, err = dkgRound1(id, threshold, total)
	if err != nil {
		return nil, nil, err
	}
	return s.envelope(secret), s.envelope(pkg), nil
}

func (s *Suite) DKGRound2(selfID uint16, secret []byte, round1 map[uint16][]byte) (secret2 []byte, sharesByRecipient map[uint16][]byte, err error) {
	plainSecret, err := s.open(secret)
	if err != nil {
		return nil, nil, err
	}
	plainRound1 := make(map[uint16][]byte, len(round1))
	for id, b := range round1 {
		p, err := s.open(b)
		if err != nil {
			return nil, nil, fmt.Errorf("ed25519: round-1 package from %d: %w", id, err)
		}
		plainRound1[id] = p
	}

	secret2, shares, err := dkgRound2(selfID, plainSecret, plainRound1)
	if err != nil {
		return nil, nil, err
	}

	sealed := make(map[uint16][]byte, len(shares))
	for id, b := range shares {
		sealed[id] = s.envelope(b)
	}
	return s.envelope(secret2), sealed, nil
}

func (s *Suite) DKGFinalize(selfID uint16, secret2 []byte, round1 map[uint16][]byte, sharesToSelf map[uint16][]byte) (keyPackage []byte, pubKeyPackage []byte, verifyingShare []byte, err error) {
	plainSecret2, err := s.open(secret2)
	if err != nil {
		return nil, nil, nil, err
	}
	plainRound1 := make(map[uint16][]byte, len(round1))
	for id, b := range round1 {
		p, err := s.open(b)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ed25519: round-1 package from %d: %w", id, err)
		}
		plainRound1[id] = p
	}
	plainShares := make(map[uint16][]byte, len(sharesToSelf))
	for id, b := range sharesToSelf {
		p, err := s.open(b)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ed25519: share from %d: %w", id, err)
		}
		plainShares[id] = p
	}

	kp, pkp, vs, err := dkgFinalize(selfID, plainSecret2, plainRound1, plainShares)
	if err != nil {
		return nil, nil, nil, err
	}
	return s.envelope(kp), s.envelope(pkp), s.envelope(vs), nil
}

func (s *Suite) GroupPublicKeyHex(pubKeyPackage []byte) (string, error) {
	plain, err := s.open(pubKeyPackage)
	if err != nil {
		return "", err
	}
	var pkp publicKeyPackage
	if err := json.Unmarshal(plain, &pkp); err != nil {
		return "", fmt.Errorf("ed25519: decoding public key package: %w", err)
	}
	point, err := pointFromHex(pkp.GroupPubkey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", point.Bytes()), nil
}

func (s *Suite) Commit(keyPackage []byte) (noncesOut []byte, commitmentOut []byte, err error) {
	plain, err := s.open(keyPackage)
	if err != nil {
		return nil, nil, err
	}
	n, c, err := commit(plain)
	if err != nil {
		return nil, nil, err
	}
	return s.envelope(n), s.envelope(c), nil
}

func (s *Suite) Sign(keyPackage []byte, nonces []byte, sp csid.SigningPackage) ([]byte, error) {
	plainKp, err := s.open(keyPackage)
	if err != nil {
		return nil, err
	}
	plainNonces, err := s.open(nonces)
	if err != nil {
		return nil, err
	}
	plainSp := sp
	plainSp.Commitments = make(map[uint16][]byte, len(sp.Commitments))
	for id, b := range sp.Commitments {
		p, err := s.open(b)
		if err != nil {
			return nil, fmt.Errorf("ed25519: commitment from %d: %w", id, err)
		}
		plainSp.Commitments[id] = p
	}

	share, err := sign(plainKp, plainNonces, plainSp)
	if err != nil {
		return nil, err
	}
	return s.envelope(share), nil
}

func (s *Suite) Aggregate(pubKeyPackage []byte, sp csid.SigningPackage, shares map[uint16][]byte) ([]byte, []uint16, error) {
	plainPkp, err := s.open(pubKeyPackage)
	if err != nil {
		return nil, nil, err
	}
	plainSp := sp
	plainSp.Commitments = make(map[uint16][]byte, len(sp.Commitments))
	for id, b := range sp.Commitments {
		p, err := s.open(b)
		if err != nil {
			return nil, nil, fmt.Errorf("ed25519: commitment from %d: %w", id, err)
		}
		plainSp.Commitments[id] = p
	}
	plainShares := make(map[uint16][]byte, len(shares))
	for id, b := range shares {
		p, err := s.open(b)
		if err != nil {
			return nil, nil, fmt.Errorf("ed25519: signature share from %d: %w", id, err)
		}
		plainShares[id] = p
	}

	sig, culprits, err := aggregate(plainPkp, plainSp, plainShares)
	if err != nil {
		return nil, culprits, err
	}
	return s.envelope(sig), nil, nil
}

func (s *Suite) Verify(pubKeyPackage []byte, message []byte, signatureBytes []byte) error {
	plainPkp, err := s.open(pubKeyPackage)
	if err != nil {
		return err
	}
	plainSig, err := s.open(signatureBytes)
	if err != nil {
		return err
	}
	return verify(plainPkp, message, plainSig)
}

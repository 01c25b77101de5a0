package signerapp

import (
	"sync"
	"time"

	"github.com/threshold-network/frost-signer/internal/audit"
	"github.com/threshold-network/frost-signer/internal/auth"
	"github.com/threshold-network/frost-signer/internal/ciphersuite"
	"github.com/threshold-network/frost-signer/internal/hpke"
	"github.com/threshold-network/frost-signer/internal/kek"
	"github.com/threshold-network/frost-signer/internal/storage"
)

// App is one Signer process's in-memory and persistent state, grounded on
// original_source/apps/signer/src/frost/signer_logic.rs's SignerService.
// Round-1 DKG secrets and signing nonces live only in memory, behind mu;
// round-2 DKG secrets and finalized key shares are persisted, per spec.md
// 4.5 and 5.
type App struct {
	store         storage.Store
	suite         ciphersuite.Suite
	suiteName     ciphersuite.Name
	signerID      string
	participantID uint16
	hpkeKeys      *hpke.KeyPair
	kekProvider   kek.Provider
	authGate      *auth.Gate
	log           *audit.Logger
	now           func() time.Time

	mu            sync.Mutex
	round1Secrets map[string][]byte // session_id -> enveloped secret
	nonces        map[string][]byte // group_pubkey + "|" + session_id -> enveloped nonces
}

// New constructs a Signer app. kekProvider may be nil, in which case key
// shares are stored unwrapped (acceptable only outside production, same as
// original_source's "for now, use simple encryption" stance when no KMS is
// configured).
func New(store storage.Store, suite ciphersuite.Suite, signerID string, participantID uint16, hpkeKeys *hpke.KeyPair, kekProvider kek.Provider, authGate *auth.Gate, log *audit.Logger) *App {
	return &App{
		store:         store,
		suite:         suite,
		suiteName:     suite.Name(),
		signerID:      signerID,
		participantID: participantID,
		hpkeKeys:      hpkeKeys,
		kekProvider:   kekProvider,
		authGate:      authGate,
		log:           log,
		now:           time.Now,
		round1Secrets: map[string][]byte{},
		nonces:        map[string][]byte{},
	}
}

func nonceKey(groupPubkey, sessionID string) string { return groupPubkey + "|" + sessionID }

func (a *App) auditAppend(eventType audit.EventType, sessionID string, outcome audit.Outcome, ctx any) {
	if a.log == nil {
		return
	}
	_, _ = a.log.Append(eventType, audit.ParticipantActor(a.participantID), sessionID, outcome, ctx)
}

func (a *App) wrap(plaintext []byte) ([]byte, error) {
	if a.kekProvider == nil {
		return plaintext, nil
	}
	return a.kekProvider.Wrap(plaintext)
}

func (a *App) unwrap(ciphertext []byte) ([]byte, error) {
	if a.kekProvider == nil {
		return ciphertext, nil
	}
	return a.kekProvider.Unwrap(ciphertext)
}

func keyShareKey(groupPubkey string, participantID uint16) string {
	return groupPubkey + ":" + uint16Str(participantID)
}

func pubKeyPackageKey(groupPubkey string) string { return groupPubkey + ":pubkey" }

func round2ScratchKey(sessionID string) string { return sessionID + "_round2" }

func uint16Str(v uint16) string {
	const digits = "0123456789"
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v%10]
		v /= 10
	}
	return string(buf[i:])
}

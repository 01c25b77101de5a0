// Package audit implements the hash-chained, Ed25519-signed tamper-evident
// log described by original_source/apps/signer/src/audit.rs: each entry
// carries the SHA-256 hash of its predecessor and is individually signed,
// so altering or reordering any entry breaks the chain for every entry
// after it. Signing uses cloudflare/circl's Ed25519 implementation rather
// than the standard library's, consistent with this module's rule of
// reaching for a retrieved ecosystem library over a stdlib substitute
// wherever the corpus shows one (see sage-x-project/sage's circl usage).
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cloudflare/circl/sign/ed25519"
)

// EventType enumerates the auditable operations spec.md's control plane
// performs, carried over unchanged from original_source's AuditEventType.
type EventType string

const (
	DkgInit          EventType = "dkg_init"
	DkgRound1        EventType = "dkg_round1"
	DkgRound2        EventType = "dkg_round2"
	DkgFinalize      EventType = "dkg_finalize"
	SigningInit      EventType = "signing_init"
	SigningCommit    EventType = "signing_commit"
	SigningPartial   EventType = "signing_partial"
	SigningAggregate EventType = "signing_aggregate"
	ServiceStart     EventType = "service_start"
	ServiceStop      EventType = "service_stop"
	ConfigChange     EventType = "config_change"
)

// Actor identifies who triggered an event. Exactly one field is set,
// matching original_source's tagged AuditActor enum via a Kind discriminant.
type Actor struct {
	Kind          string `json:"type"`
	ServiceID     string `json:"service_id,omitempty"`
	ParticipantID uint16 `json:"participant_id,omitempty"`
	GuardianID    string `json:"guardian_id,omitempty"`
}

func CoordinatorActor(serviceID string) Actor { return Actor{Kind: "coordinator", ServiceID: serviceID} }
func ParticipantActor(id uint16) Actor { return Actor{Kind: "participant", ParticipantID: id} }
func GuardianActor(guardianID string) Actor { return Actor{Kind: "guardian", GuardianID: guardianID} }
func SystemActor() Actor { return Actor{Kind: "system"} }

// Outcome is the tagged result of the audited operation.
type Outcome struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func Success() Outcome { return Outcome{Status: "success"} }
func Failure(reason string) Outcome { return Outcome{Status: "failure", Reason: reason} }
func Pending() Outcome { return Outcome{Status: "pending"} }

// Entry is a single hash-chained, signed audit log record.
type Entry struct {
	Seq       uint64          `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	EventType EventType       `json:"event_type"`
	Actor     Actor           `json:"actor"`
	SessionID string          `json:"session_id,omitempty"`
	Outcome   Outcome         `json:"outcome"`
	Context   json.RawMessage `json:"context,omitempty"`
	PrevHash  string          `json:"prev_hash"`
	Signature string          `json:"signature"`
}

// genesisHash seeds the chain for the first entry, matching
// original_source's all-zero GENESIS_HASH sentinel.
const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// canonicalBytes is the byte encoding that is both signed and hashed. It
// excludes the signature field itself, mirroring AuditEntry::canonical_bytes.
func (e *Entry) canonicalBytes() []byte {
	var buf []byte
	var seqBytes [8]byte
	for i := 0; i < 8; i++ {
		seqBytes[7-i] = byte(e.Seq >> (8 * i))
	}
	buf = append(buf, seqBytes[:]...)
	buf = append(buf, []byte(e.Timestamp.UTC().Format(time.RFC3339Nano))...)
	buf = append(buf, []byte(e.EventType)...)
	actorJSON, _ := json.Marshal(e.Actor)
	buf = append(buf, actorJSON...)
	buf = append(buf, []byte(e.SessionID)...)
	outcomeJSON, _ := json.Marshal(e.Outcome)
	buf = append(buf, outcomeJSON...)
	if len(e.Context) > 0 {
		buf = append(buf, e.Context...)
	}
	buf = append(buf, []byte(e.PrevHash)...)
	return buf
}

// Hash is the chain-linking hash of this entry: SHA-256 of the canonical
// bytes plus the entry's own signature, so the hash can only be computed
// after signing — exactly original_source's AuditEntry::hash.
func (e *Entry) Hash() string {
	h := sha256.New()
	h.Write(e.canonicalBytes())
	h.Write([]byte(e.Signature))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks this entry's Ed25519 signature over its
// canonical bytes.
func (e *Entry) VerifySignature(verifyingKey ed25519.PublicKey) bool {
	sig, err := hex.DecodeString(e.Signature)
	if err != nil {
		return false
	}
	return ed25519.Verify(verifyingKey, e.canonicalBytes(), sig)
}

// Store is the narrow persistence surface the logger needs: the latest
// sequence number (to resume numbering across restarts) and the ability
// to read back a past entry (to chain to it) and append a new one.
type Store interface {
	LatestAuditSeq() (seq uint64, ok bool, err error)
	AuditEntry(seq uint64) (*Entry, bool, error)
	AppendAuditEntry(e *Entry) error
}

// Logger appends signed, hash-chained entries to a Store. Appends are
// serialised by appendMu so the chain can never fork under concurrent
// callers (spec.md 8's tamper-evidence property depends on a strict,
// gap-free sequence).
type Logger struct {
	store       Store
	signingKey  ed25519.PrivateKey
	verifyKey   ed25519.PublicKey
	appendMu    sync.Mutex
	currentSeq  uint64
}

// NewLogger resumes logging from the store's latest sequence number.
func NewLogger(store Store, signingKey ed25519.PrivateKey) (*Logger, error) {
	seq, ok, err := store.LatestAuditSeq()
	if err != nil {
		return nil, fmt.Errorf("audit: reading latest sequence: %w", err)
	}
	if !ok {
		seq = 0
	}
	pub, ok := signingKey.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("audit: signing key has no Ed25519 public key")
	}
	return &Logger{store: store, signingKey: signingKey, verifyKey: pub, currentSeq: seq}, nil
}

func (l *Logger) VerifyingKeyHex() string { return hex.EncodeToString(l.verifyKey) }

// Append signs and persists a new entry, returning its sequence number.
func (l *Logger) Append(eventType EventType, actor Actor, sessionID string, outcome Outcome, context any) (uint64, error) {
	l.appendMu.Lock()
	defer l.appendMu.Unlock()

	seq := l.currentSeq + 1

	var prevHash string
	if seq == 1 {
		prevHash = genesisHash
	} else {
		prev, ok, err := l.store.AuditEntry(seq - 1)
		if err != nil {
			return 0, fmt.Errorf("audit: reading entry %d: %w", seq-1, err)
		}
		if !ok {
			return 0, fmt.Errorf("audit: missing predecessor entry %d", seq-1)
		}
		prevHash = prev.Hash()
	}

	var contextRaw json.RawMessage
	if context != nil {
		raw, err := json.Marshal(context)
		if err != nil {
			return 0, fmt.Errorf("audit: encoding context: %w", err)
		}
		contextRaw = raw
	}

	entry := &Entry{
		Seq:       seq,
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Actor:     actor,
		SessionID: sessionID,
		Outcome:   outcome,
		Context:   contextRaw,
		PrevHash:  prevHash,
	}
	sig := ed25519.Sign(l.signingKey, entry.canonicalBytes())
	entry.Signature = hex.EncodeToString(sig)

	if err := l.store.AppendAuditEntry(entry); err != nil {
		return 0, fmt.Errorf("audit: appending entry %d: %w", seq, err)
	}
	l.currentSeq = seq
	return seq, nil
}

// VerifyChain checks a contiguous run of entries (as returned in sequence
// order) against the expected genesis and each other's hashes and
// signatures, per spec.md 8's tamper-evidence invariant.
func VerifyChain(entries []*Entry, verifyingKey ed25519.PublicKey) error {
	prevHash := genesisHash
	for _, e := range entries {
		if e.PrevHash != prevHash {
			return fmt.Errorf("audit: entry %d: chain broken, expected prev_hash %s, got %s", e.Seq, prevHash, e.PrevHash)
		}
		if !e.VerifySignature(verifyingKey) {
			return fmt.Errorf("audit: entry %d: invalid signature", e.Seq)
		}
		prevHash = e.Hash()
	}
	return nil
}

package audit

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	entries []*Entry
}

func (m *memStore) LatestAuditSeq() (uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return 0, false, nil
	}
	return m.entries[len(m.entries)-1].Seq, true, nil
}

func (m *memStore) AuditEntry(seq uint64) (*Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Seq == seq {
			return e, true, nil
		}
	}
	return nil, false, nil
}

func (m *memStore) AppendAuditEntry(e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func TestAppendAndVerifyChain(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	store := &memStore{}
	logger, err := NewLogger(store, priv)
	require.NoError(t, err)

	seq1, err := logger.Append(DkgInit, CoordinatorActor("coordinator-1"), "session-abc", Success(), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq1)

	seq2, err := logger.Append(DkgRound1, ParticipantActor(3), "session-abc", Success(), map[string]any{"share_count": 2})
	require.NoError(t, err)
	require.Equal(t, uint64(2), seq2)

	require.NoError(t, VerifyChain(store.entries, pub))
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	store := &memStore{}
	logger, err := NewLogger(store, priv)
	require.NoError(t, err)

	_, err = logger.Append(ServiceStart, SystemActor(), "", Success(), nil)
	require.NoError(t, err)
	_, err = logger.Append(ServiceStop, SystemActor(), "", Success(), nil)
	require.NoError(t, err)

	store.entries[0].Outcome = Failure("tampered after the fact")

	require.Error(t, VerifyChain(store.entries, pub))
}

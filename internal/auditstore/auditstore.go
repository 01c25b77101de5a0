// Package auditstore adapts internal/storage's generic Tx interface to the
// audit log's u64-sequence-keyed access pattern (audit.Store), so both
// cmd/coordinator and cmd/signer share one implementation instead of each
// hand-rolling key encoding.
package auditstore

import (
	"encoding/json"
	"fmt"

	"github.com/threshold-network/frost-signer/internal/audit"
	"github.com/threshold-network/frost-signer/internal/storage"
)

// Adapter implements audit.Store over a storage.Store's audit_log bucket.
type Adapter struct{ Store storage.Store }

// New wraps store as an audit.Store.
func New(store storage.Store) *Adapter { return &Adapter{Store: store} }

// seqKey zero-pads seq to 20 digits (uint64's max decimal width) so
// lexicographic key order, which both bbolt and storetest iterate in,
// matches numeric sequence order.
func seqKey(seq uint64) string { return fmt.Sprintf("%020d", seq) }

func parseSeqKey(key string) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(key, "%020d", &seq); err != nil {
		return 0, fmt.Errorf("auditstore: malformed sequence key %q: %w", key, err)
	}
	return seq, nil
}

func (a *Adapter) LatestAuditSeq() (uint64, bool, error) {
	var seq uint64
	var found bool
	err := a.Store.View(func(tx storage.Tx) error {
		return tx.ForEach(storage.BucketAuditLog, func(key string, _ []byte) error {
			n, err := parseSeqKey(key)
			if err != nil {
				return err
			}
			if !found || n > seq {
				seq, found = n, true
			}
			return nil
		})
	})
	return seq, found, err
}

func (a *Adapter) AuditEntry(seq uint64) (*audit.Entry, bool, error) {
	var entry *audit.Entry
	err := a.Store.View(func(tx storage.Tx) error {
		v, err := tx.Get(storage.BucketAuditLog, seqKey(seq))
		if err == storage.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var e audit.Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("auditstore: decoding entry %d: %w", seq, err)
		}
		entry = &e
		return nil
	})
	return entry, entry != nil, err
}

func (a *Adapter) AppendAuditEntry(e *audit.Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("auditstore: encoding entry %d: %w", e.Seq, err)
	}
	return a.Store.Update(func(tx storage.Tx) error {
		return tx.Put(storage.BucketAuditLog, seqKey(e.Seq), raw)
	})
}

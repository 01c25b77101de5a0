package coordinator

import (
	"time"

	"github.com/google/uuid"

	"github.com/threshold-network/frost-signer/internal/audit"
	"github.com/threshold-network/frost-signer/internal/ciphersuite/csid"
	"github.com/threshold-network/frost-signer/internal/storage"
)

// Coordinator owns both session state machines and talks to Signers over
// RPC, per spec.md 4.1/4.2. It never decrypts round-2 packages and never
// sees a key share.
type Coordinator struct {
	store   storage.Store
	signers SignerClient
	log     *audit.Logger
	now     func() time.Time
}

func New(store storage.Store, signers SignerClient, log *audit.Logger) *Coordinator {
	return &Coordinator{store: store, signers: signers, log: log, now: time.Now}
}

func newSessionID() string { return uuid.NewString() }

func (c *Coordinator) auditAppend(eventType audit.EventType, sessionID string, outcome audit.Outcome, ctx any) {
	if c.log == nil {
		return
	}
	_, _ = c.log.Append(eventType, audit.CoordinatorActor("coordinator"), sessionID, outcome, ctx)
}

func csidValid(name string) bool { return csid.Name(name).Valid() }

func (c *Coordinator) lookupGroupKeyRecord(groupPubkey string) (*GroupKeyRecord, error) {
	var out *GroupKeyRecord
	err := c.store.View(func(tx storage.Tx) error {
		r, err := loadGroupKeyRecord(tx, groupPubkey)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

// Package storage abstracts the embedded key/value store behind a narrow
// interface, per spec.md 6.4's persistence layout: five logical tables
// (dkg_sessions, signing_sessions, group_keys, key_shares, audit_log),
// each a simple key→bytes map with ACID transactions. Concrete callers
// (the coordinator's session machines, the signer core, the audit logger)
// never see the underlying engine; they see Store and Tx.
package storage

import "errors"

// ErrNotFound is returned by Get when no value exists for a key.
var ErrNotFound = errors.New("storage: key not found")

// Bucket names for the five logical tables spec.md 6.4 describes.
const (
	BucketDkgSessions     = "dkg_sessions"
	BucketSigningSessions = "signing_sessions"
	BucketGroupKeys       = "group_keys"
	BucketKeyShares       = "key_shares"
	BucketAuditLog        = "audit_log"
)

// Tx is a single read-write transaction over one or more buckets. Every
// session-state transition in the coordinator and every share write in the
// signer happens inside one Tx, giving the read-modify-write pattern
// spec.md 5 requires: load, validate, mutate, commit.
type Tx interface {
	Get(bucket, key string) ([]byte, error)
	Put(bucket, key string, value []byte) error
	Delete(bucket, key string) error
	// ForEach iterates a bucket in key order, stopping early if fn
	// returns an error. Used for audit chain range reads.
	ForEach(bucket string, fn func(key string, value []byte) error) error
}

// Store opens transactions against the embedded database. All buckets
// are created at Open time; callers never need to know the engine.
type Store interface {
	Update(fn func(tx Tx) error) error
	View(fn func(tx Tx) error) error
	Close() error
}

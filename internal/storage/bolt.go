package storage

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// boltStore implements Store on top of go.etcd.io/bbolt, the teacher
// corpus's embedded KV engine of choice (see drand/drand's use of bbolt
// for its own durable state). bbolt transactions are exactly the ACID
// read-modify-write unit spec.md 5 calls for.
type boltStore struct {
	db *bolt.DB
}

var allBuckets = []string{
	BucketDkgSessions,
	BucketSigningSessions,
	BucketGroupKeys,
	BucketKeyShares,
	BucketAuditLog,
}

// Open opens (creating if absent) a bbolt database at path and ensures
// every logical bucket from spec.md 6.4 exists.
func Open(path string) (Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(b)); err != nil {
				return fmt.Errorf("storage: creating bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Update(fn func(tx Tx) error) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&boltTx{btx: btx})
	})
}

func (s *boltStore) View(fn func(tx Tx) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&boltTx{btx: btx})
	})
}

func (s *boltStore) Close() error { return s.db.Close() }

type boltTx struct {
	btx *bolt.Tx
}

func (t *boltTx) Get(bucket, key string) ([]byte, error) {
	b := t.btx.Bucket([]byte(bucket))
	if b == nil {
		return nil, fmt.Errorf("storage: unknown bucket %s", bucket)
	}
	v := b.Get([]byte(key))
	if v == nil {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (t *boltTx) Put(bucket, key string, value []byte) error {
	b := t.btx.Bucket([]byte(bucket))
	if b == nil {
		return fmt.Errorf("storage: unknown bucket %s", bucket)
	}
	return b.Put([]byte(key), value)
}

func (t *boltTx) Delete(bucket, key string) error {
	b := t.btx.Bucket([]byte(bucket))
	if b == nil {
		return fmt.Errorf("storage: unknown bucket %s", bucket)
	}
	return b.Delete([]byte(key))
}

func (t *boltTx) ForEach(bucket string, fn func(key string, value []byte) error) error {
	b := t.btx.Bucket([]byte(bucket))
	if b == nil {
		return fmt.Errorf("storage: unknown bucket %s", bucket)
	}
	return b.ForEach(func(k, v []byte) error {
		return fn(string(k), v)
	})
}

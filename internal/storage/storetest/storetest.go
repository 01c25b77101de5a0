// Package storetest provides an in-memory storage.Store double for unit
// tests, mirroring the teacher's own internal/testutils convention of
// hand-written test doubles over a mocking framework.
package storetest

import (
	"sort"
	"sync"

	"github.com/threshold-network/frost-signer/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
}

func New() *Store {
	s := &Store{buckets: make(map[string]map[string][]byte)}
	for _, b := range []string{
		storage.BucketDkgSessions,
		storage.BucketSigningSessions,
		storage.BucketGroupKeys,
		storage.BucketKeyShares,
		storage.BucketAuditLog,
	} {
		s.buckets[b] = make(map[string][]byte)
	}
	return s
}

func (s *Store) Update(fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{s: s})
}

func (s *Store) View(fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{s: s})
}

func (s *Store) Close() error { return nil }

type tx struct {
	s *Store
}

func (t *tx) Get(bucket, key string) ([]byte, error) {
	b, ok := t.s.buckets[bucket]
	if !ok {
		return nil, storage.ErrNotFound
	}
	v, ok := b[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (t *tx) Put(bucket, key string, value []byte) error {
	b, ok := t.s.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		t.s.buckets[bucket] = b
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	b[key] = cp
	return nil
}

func (t *tx) Delete(bucket, key string) error {
	b, ok := t.s.buckets[bucket]
	if !ok {
		return nil
	}
	delete(b, key)
	return nil
}

func (t *tx) ForEach(bucket string, fn func(key string, value []byte) error) error {
	b, ok := t.s.buckets[bucket]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(k, b[k]); err != nil {
			return err
		}
	}
	return nil
}

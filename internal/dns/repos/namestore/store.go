// Package namestore persists the name-registry snapshot: one encoded
// record blob per registered name, backed by bbolt, with a bloom filter
// over the keys to short-circuit lookups for unregistered names.
package namestore

import (
	"fmt"
	"sync"
	"time"

	bloom "github.com/bits-and-blooms/bloom/v3"
	bbolt "go.etcd.io/bbolt"

	"github.com/micjavier/hsd/internal/dns/services/resolver"
)

var bucketNames = []byte("names")

// bloomFalsePositiveRate trades filter size against wasted db reads.
const bloomFalsePositiveRate = 0.001

// Store implements resolver.RecordStore over a bbolt database.
type Store struct {
	db *bbolt.DB

	// mu serializes filter writes; Test is safe concurrently with Test.
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// Open opens (or creates) the snapshot database at path and builds the
// negative filter from the existing keys.
func Open(path string, expectedNames uint) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketNames)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	if expectedNames == 0 {
		expectedNames = 1
	}
	filter := bloom.NewWithEstimates(expectedNames, bloomFalsePositiveRate)
	if err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketNames).ForEach(func(k, _ []byte) error {
			filter.Add(k)
			return nil
		})
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, filter: filter}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put stores the encoded record blob for name and admits it to the
// filter.
func (s *Store) Put(name string, blob []byte) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketNames).Put([]byte(name), blob)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.filter.Add([]byte(name))
	s.mu.Unlock()
	return nil
}

// Get returns the encoded record blob for name.
func (s *Store) Get(name string) ([]byte, bool, error) {
	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketNames).Get([]byte(name))
		if v != nil {
			blob = make([]byte, len(v))
			copy(blob, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return blob, blob != nil, nil
}

// MightContain reports whether name could be registered. False is
// definite.
func (s *Store) MightContain(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.Test([]byte(name))
}

// Len returns the number of registered names.
func (s *Store) Len() int {
	var n int
	_ = s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketNames).Stats().KeyN
		return nil
	})
	return n
}

var _ resolver.RecordStore = (*Store)(nil)

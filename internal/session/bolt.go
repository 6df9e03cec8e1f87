package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketName      = "session"
	boltOpenTimeout = 5 * time.Second // Max time to wait for another process holding the file
)

// BoltBackend persists a session in a bbolt file so it outlives a single
// process. bbolt holds an exclusive file lock while the backend is open.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) a session file
func OpenBolt(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open session file %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session bucket: %w", err)
	}

	return &BoltBackend{db: db}, nil
}

// NewBolt opens a session file and wraps it in a Session
func NewBolt(path string) (*Session, error) {
	backend, err := OpenBolt(path)
	if err != nil {
		return nil, err
	}
	return New(backend), nil
}

func (b *BoltBackend) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return nil
		}
		// Values are only valid inside the transaction
		if v := bucket.Get([]byte(key)); v != nil {
			value = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseNotOpen) {
			return nil, false, ErrClosed
		}
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, value != nil, nil
}

func (b *BoltBackend) Set(key string, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), value)
	})
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseNotOpen) {
			return ErrClosed
		}
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (b *BoltBackend) Delete(key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseNotOpen) {
			return ErrClosed
		}
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}

// Path returns the session file location
func (b *BoltBackend) Path() string {
	return b.db.Path()
}

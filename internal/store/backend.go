package store

import (
	"context"
	"database/sql"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Backend is a durable key-value store holding whole documents.
type Backend interface {
	// Get returns the value for key, or nil if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the value for key.
	Put(ctx context.Context, key string, value []byte) error
}

// SQLiteBackend stores documents in the settings table.
type SQLiteBackend struct {
	DB *sql.DB
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	return GetSetting(ctx, b.DB, key)
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, value []byte) error {
	return PutSetting(ctx, b.DB, key, value)
}

// boltBucket is the single bucket used by BoltBackend.
var boltBucket = []byte("vendart")

// BoltBackend stores documents in a bbolt bucket.
type BoltBackend struct {
	DB *bolt.DB
}

func (b *BoltBackend) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket == nil {
			return nil
		}
		if v := bucket.Get([]byte(key)); v != nil {
			// Values are only valid inside the transaction.
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	return value, nil
}

func (b *BoltBackend) Put(_ context.Context, key string, value []byte) error {
	err := b.DB.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

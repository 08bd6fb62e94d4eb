// Package boltdb implements the memory.Store interface on a BoltDB
// database. Records are keyed by a zero-padded bucket sequence number so
// iteration order is append order.
package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/log"
	"github.com/lexlapax/atlas/pkg/memory"
	bolt "go.etcd.io/bbolt"
)

// recordsBucket holds memory records keyed by sequence number.
var recordsBucket = []byte("memory_records")

// BoltStore implements the memory.Store interface using a BoltDB database.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltStore with the given database connection.
func NewBoltStore(db *bolt.DB) *BoltStore {
	store := &BoltStore{db: db}

	log.Debug("Initialized BoltDB memory store adapter",
		"db_path", db.Path(),
		"read_only", db.IsReadOnly(),
	)

	return store
}

// Initialize creates the required bucket if it doesn't exist. This is
// called internally by Append, but can be called explicitly to surface
// setup errors at startup.
func (b *BoltStore) Initialize(ctx context.Context) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize BoltDB bucket", "error", err)
		return errors.Wrap(err, "failed to initialize bucket in %s", b.db.Path())
	}
	return nil
}

// Append implements the memory.Store interface.
func (b *BoltStore) Append(ctx context.Context, record memory.MemoryRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(recordsBucket)
		if err != nil {
			return err
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		return bucket.Put(sequenceKey(seq), data)
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to append record %s to %s", record.ID, b.db.Path())
	}

	return record.ID, nil
}

// List implements the memory.Store interface.
func (b *BoltStore) List(ctx context.Context, limit int) ([]memory.MemoryRecord, error) {
	var records []memory.MemoryRecord

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}

			record, err := decodeRecord(v)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list records in %s", b.db.Path())
	}

	return records, nil
}

// All implements the memory.Store interface.
func (b *BoltStore) All(ctx context.Context) ([]memory.MemoryRecord, error) {
	var records []memory.MemoryRecord

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			record, err := decodeRecord(v)
			if err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load records in %s", b.db.Path())
	}

	return records, nil
}

// Close implements the memory.Store interface.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

// sequenceKey renders a bucket sequence number as a fixed-width key so
// lexicographic order matches numeric order.
func sequenceKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%020d", seq))
}

// decodeRecord unmarshals a stored record, reporting malformed data as a
// corrupt store rather than skipping it.
func decodeRecord(data []byte) (memory.MemoryRecord, error) {
	var record memory.MemoryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return memory.MemoryRecord{}, errors.Wrap(errors.ErrCorruptStore, "malformed record: %v", err)
	}
	return record, nil
}

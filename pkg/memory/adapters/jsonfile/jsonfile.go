// Package jsonfile implements the memory.Store interface on a flat JSON
// file: an ordered sequence of records, newest appended last. This is the
// default adapter and the interchange format other tools read.
package jsonfile

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/fsjson"
	"github.com/lexlapax/atlas/pkg/log"
	"github.com/lexlapax/atlas/pkg/memory"
)

// Store implements the memory.Store interface using a single JSON file.
// Records are held in memory and the whole file is rewritten atomically on
// every append; acceptable because the store is single-user and expected
// to stay small.
type Store struct {
	path    string
	records []memory.MemoryRecord
}

// NewStore loads the memory file at path, or starts empty when the file
// does not exist yet. A file that exists but cannot be parsed fails fast
// with errors.ErrCorruptStore; no history is discarded silently.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "memory file path is empty")
	}

	store := &Store{path: path}
	found, err := fsjson.Read(path, &store.records)
	if err != nil {
		return nil, err
	}

	log.Debug("Initialized JSON file memory store",
		"path", path,
		"existing", found,
		"records", len(store.records),
	)

	return store, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Append implements the memory.Store interface.
func (s *Store) Append(ctx context.Context, record memory.MemoryRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	s.records = append(s.records, record)
	if err := fsjson.Write(s.path, s.records); err != nil {
		// Roll back the in-memory append so state matches disk.
		s.records = s.records[:len(s.records)-1]
		return "", errors.Wrap(err, "failed to append record %s", record.ID)
	}

	log.DebugContext(ctx, "Appended memory record",
		"id", record.ID,
		"intent", record.Intent,
		"records", len(s.records),
	)

	return record.ID, nil
}

// List implements the memory.Store interface.
func (s *Store) List(ctx context.Context, limit int) ([]memory.MemoryRecord, error) {
	n := len(s.records)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]memory.MemoryRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// All implements the memory.Store interface.
func (s *Store) All(ctx context.Context) ([]memory.MemoryRecord, error) {
	out := make([]memory.MemoryRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Close implements the memory.Store interface. The file is written on
// every append, so there is nothing to flush.
func (s *Store) Close() error {
	return nil
}

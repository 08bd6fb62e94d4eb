// Package sqlite implements the memory.Store interface on a SQLite
// database via sqlx. Tags and vectors are stored as JSON columns; the
// integer primary key preserves append order.
package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/log"
	"github.com/lexlapax/atlas/pkg/memory"
	"github.com/lexlapax/atlas/pkg/vector"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_records (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	timestamp TIMESTAMP NOT NULL,
	prompt TEXT NOT NULL,
	intent TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	response TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	mode TEXT NOT NULL DEFAULT '',
	vector TEXT NOT NULL DEFAULT '{}'
)`

// row is the flat database representation of a memory record.
type row struct {
	Seq       int64     `db:"seq"`
	ID        string    `db:"id"`
	Timestamp time.Time `db:"timestamp"`
	Prompt    string    `db:"prompt"`
	Intent    string    `db:"intent"`
	Summary   string    `db:"summary"`
	Response  string    `db:"response"`
	Note      string    `db:"note"`
	Tags      string    `db:"tags"`
	Mode      string    `db:"mode"`
	Vector    string    `db:"vector"`
}

// SQLiteStore implements the memory.Store interface using a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLiteStore with the given database
// connection. Call Initialize before first use.
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Initialize creates the memory_records table if it doesn't exist.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to create memory_records table")
	}
	log.DebugContext(ctx, "Initialized SQLite memory store")
	return nil
}

// Append implements the memory.Store interface.
func (s *SQLiteStore) Append(ctx context.Context, record memory.MemoryRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	tagsJSON, err := json.Marshal(record.Tags)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal tags for record %s", record.ID)
	}
	vectorJSON, err := json.Marshal(record.Vector)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal vector for record %s", record.ID)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memory_records (
			id, timestamp, prompt, intent, summary, response, note, tags, mode, vector
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Timestamp, record.Prompt, record.Intent, record.Summary,
		record.Response, record.Note, string(tagsJSON), record.Mode, string(vectorJSON),
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to append record %s", record.ID)
	}

	return record.ID, nil
}

// List implements the memory.Store interface.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]memory.MemoryRecord, error) {
	query := `SELECT * FROM memory_records ORDER BY seq DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list memory records")
	}

	return decodeRows(rows)
}

// All implements the memory.Store interface.
func (s *SQLiteStore) All(ctx context.Context) ([]memory.MemoryRecord, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM memory_records ORDER BY seq ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load memory records")
	}

	return decodeRows(rows)
}

// Close implements the memory.Store interface.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// decodeRows converts database rows into memory records, treating
// malformed JSON columns as store corruption.
func decodeRows(rows []row) ([]memory.MemoryRecord, error) {
	records := make([]memory.MemoryRecord, 0, len(rows))
	for _, r := range rows {
		record := memory.MemoryRecord{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			Prompt:    r.Prompt,
			Intent:    r.Intent,
			Summary:   r.Summary,
			Response:  r.Response,
			Note:      r.Note,
			Mode:      r.Mode,
		}

		if r.Tags != "" {
			if err := json.Unmarshal([]byte(r.Tags), &record.Tags); err != nil {
				return nil, errors.Wrap(errors.ErrCorruptStore, "record %s: malformed tags: %v", r.ID, err)
			}
		}

		record.Vector = vector.FeatureVector{}
		if r.Vector != "" {
			if err := json.Unmarshal([]byte(r.Vector), &record.Vector); err != nil {
				return nil, errors.Wrap(errors.ErrCorruptStore, "record %s: malformed vector: %v", r.ID, err)
			}
		}

		records = append(records, record)
	}
	return records, nil
}

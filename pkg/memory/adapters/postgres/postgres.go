// Package postgres implements the memory.Store interface on PostgreSQL
// via pgxpool, for setups that point several checkouts of a project at a
// shared database. Tags and vectors are stored as JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/log"
	"github.com/lexlapax/atlas/pkg/memory"
	"github.com/lexlapax/atlas/pkg/vector"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_records (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	ts TIMESTAMPTZ NOT NULL,
	prompt TEXT NOT NULL,
	intent TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	response TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	tags JSONB NOT NULL DEFAULT '[]',
	mode TEXT NOT NULL DEFAULT '',
	vec JSONB NOT NULL DEFAULT '{}'
)`

// PostgresStore implements the memory.Store interface using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL with the given DSN and ensures
// the memory_records table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "postgres DSN cannot be empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PostgreSQL connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(errors.ErrStoreUnavailable, "failed to ping PostgreSQL: %v", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to create memory_records table")
	}

	log.DebugContext(ctx, "Initialized PostgreSQL memory store")

	return &PostgresStore{pool: pool}, nil
}

// Pool returns the underlying connection pool (used for testing).
func (p *PostgresStore) Pool() *pgxpool.Pool {
	return p.pool
}

// Append implements the memory.Store interface.
func (p *PostgresStore) Append(ctx context.Context, record memory.MemoryRecord) (string, error) {
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

	_, err = p.pool.Exec(ctx,
		`INSERT INTO memory_records (
			id, ts, prompt, intent, summary, response, note, tags, mode, vec
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.Timestamp, record.Prompt, record.Intent, record.Summary,
		record.Response, record.Note, tagsJSON, record.Mode, vectorJSON,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to append record %s", record.ID)
	}

	return record.ID, nil
}

// List implements the memory.Store interface.
func (p *PostgresStore) List(ctx context.Context, limit int) ([]memory.MemoryRecord, error) {
	query := `SELECT id, ts, prompt, intent, summary, response, note, tags, mode, vec
		FROM memory_records ORDER BY seq DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list memory records")
	}
	defer rows.Close()

	return scanRecords(rows)
}

// All implements the memory.Store interface.
func (p *PostgresStore) All(ctx context.Context) ([]memory.MemoryRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, ts, prompt, intent, summary, response, note, tags, mode, vec
		 FROM memory_records ORDER BY seq ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load memory records")
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Close implements the memory.Store interface.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// scanRecords reads records off a result set, treating malformed JSONB
// columns as store corruption.
func scanRecords(rows pgx.Rows) ([]memory.MemoryRecord, error) {
	var records []memory.MemoryRecord
	for rows.Next() {
		var (
			record     memory.MemoryRecord
			tagsJSON   []byte
			vectorJSON []byte
		)
		err := rows.Scan(
			&record.ID, &record.Timestamp, &record.Prompt, &record.Intent,
			&record.Summary, &record.Response, &record.Note, &tagsJSON,
			&record.Mode, &vectorJSON,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan memory record")
		}

		if len(tagsJSON) > 0 {
			if err := json.Unmarshal(tagsJSON, &record.Tags); err != nil {
				return nil, errors.Wrap(errors.ErrCorruptStore, "record %s: malformed tags: %v", record.ID, err)
			}
		}

		record.Vector = vector.FeatureVector{}
		if len(vectorJSON) > 0 {
			if err := json.Unmarshal(vectorJSON, &record.Vector); err != nil {
				return nil, errors.Wrap(errors.ErrCorruptStore, "record %s: malformed vector: %v", record.ID, err)
			}
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read memory records")
	}

	return records, nil
}

package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// CreateInMemorySQLiteDB opens an in-memory SQLite database for testing
// purposes. It returns the connection and a cleanup function.
func CreateInMemorySQLiteDB(t *testing.T) (*sqlx.DB, func()) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

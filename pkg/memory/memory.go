// Package memory defines the persistent interaction memory of Atlas: the
// MemoryRecord entity and the Store interface that all storage adapters
// implement. Records are append-only; nothing in the system evicts or
// expires them.
package memory

import (
	"context"
	"time"

	"github.com/lexlapax/atlas/pkg/vector"
)

// Mode values recorded on memory entries.
const (
	// ModeAtlas marks an interaction that went through retrieval and
	// context assembly.
	ModeAtlas = "atlas"

	// ModeBaseline marks an interaction that ran without memory or
	// architecture context.
	ModeBaseline = "baseline"

	// ModeManual marks an entry added directly by the user.
	ModeManual = "manual"
)

// MemoryRecord represents a single stored interaction.
// A record is immutable once written; its identity is the ID.
type MemoryRecord struct {
	// ID is a unique identifier for the record
	ID string `json:"id" db:"id"`

	// Timestamp is when the record was created (UTC)
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Prompt is the user prompt that produced the interaction
	Prompt string `json:"prompt" db:"prompt"`

	// Intent is the short heuristic summary of the prompt's purpose
	Intent string `json:"intent" db:"intent"`

	// Summary is the shortened response used for display and recall
	Summary string `json:"summary" db:"summary"`

	// Response is the full generated response
	Response string `json:"response" db:"response"`

	// Note is an optional engineer note attached to the interaction
	Note string `json:"note,omitempty" db:"note"`

	// Tags are free-form labels attached by the user
	Tags []string `json:"tags,omitempty" db:"-"`

	// Mode records how the interaction was produced (atlas, baseline, manual)
	Mode string `json:"mode" db:"mode"`

	// Vector is the sparse feature vector of the interaction text
	Vector vector.FeatureVector `json:"vector" db:"-"`
}

// Store is the interface that all memory storage adapters implement.
//
// Adapters must persist each record durably before Append returns, must
// never lose previously stored records on a failed write, and must fail
// fast with errors.ErrCorruptStore when the backing data is unreadable
// or malformed at load time.
type Store interface {
	// Append durably persists a record. If the record has no ID or
	// timestamp the adapter fills them in. It returns the record ID.
	Append(ctx context.Context, record MemoryRecord) (string, error)

	// List returns up to limit records, most recent first.
	// A non-positive limit returns all records.
	List(ctx context.Context, limit int) ([]MemoryRecord, error)

	// All returns every stored record in insertion order (oldest first).
	All(ctx context.Context) ([]MemoryRecord, error)

	// Close releases resources held by the adapter.
	Close() error
}

// Package assembler builds the context bundle handed to response
// generation: the prompt's intent, the most similar prior interactions,
// and a snapshot of the architecture graph and project profile.
package assembler

import (
	"context"
	"strings"

	"github.com/lexlapax/atlas/pkg/arch"
	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/index"
	"github.com/lexlapax/atlas/pkg/log"
	"github.com/lexlapax/atlas/pkg/memory"
	"github.com/lexlapax/atlas/pkg/project"
	"github.com/lexlapax/atlas/pkg/vector"
)

// intentTokenCap bounds how many tokens of the prompt the intent may span
// when no sentence-terminal punctuation appears first.
const intentTokenCap = 12

// Bundle is the assembled context for one prompt.
type Bundle struct {
	// Intent is the heuristic first clause of the prompt.
	Intent string

	// Retrieved holds prior interactions ranked by similarity to the intent.
	Retrieved []memory.MemoryRecord

	// Architecture is a snapshot of the architecture graph.
	Architecture arch.Graph

	// Profile is a snapshot of the project profile.
	Profile project.Profile
}

// Assembler wires the vectorizer, index and stores together. Assemble is a
// pure read; the caller appends the resulting interaction afterwards.
type Assembler struct {
	vectorizer vector.Vectorizer
	idx        index.Index
	store      memory.Store
	archStore  *arch.Store
	projStore  *project.Store
}

// NewAssembler creates an assembler. The architecture and project stores
// may be nil, in which case the bundle carries empty snapshots.
func NewAssembler(
	vectorizer vector.Vectorizer,
	idx index.Index,
	store memory.Store,
	archStore *arch.Store,
	projStore *project.Store,
) *Assembler {
	return &Assembler{
		vectorizer: vectorizer,
		idx:        idx,
		store:      store,
		archStore:  archStore,
		projStore:  projStore,
	}
}

// Assemble extracts the prompt's intent, retrieves up to k similar prior
// records, and returns the context bundle.
func (a *Assembler) Assemble(ctx context.Context, prompt string, k int) (Bundle, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Bundle{}, errors.Wrap(errors.ErrInvalidInput, "prompt cannot be empty")
	}
	if k < 0 {
		return Bundle{}, errors.Wrap(errors.ErrInvalidInput, "k cannot be negative")
	}

	bundle := Bundle{Intent: ExtractIntent(prompt)}
	if a.archStore != nil {
		bundle.Architecture = a.archStore.Snapshot()
	}
	if a.projStore != nil {
		bundle.Profile = a.projStore.Profile()
	}

	retrieved, err := a.retrieve(ctx, bundle.Intent, k)
	if err != nil {
		return Bundle{}, err
	}
	bundle.Retrieved = retrieved

	log.DebugContext(ctx, "Assembled context bundle",
		"intent", bundle.Intent,
		"retrieved", len(bundle.Retrieved))
	return bundle, nil
}

func (a *Assembler) retrieve(ctx context.Context, intent string, k int) ([]memory.MemoryRecord, error) {
	if k == 0 {
		return nil, nil
	}

	results, err := a.idx.Query(ctx, index.Query{
		Text:   intent,
		Vector: a.vectorizer.Vectorize(intent),
	}, k)
	if err != nil {
		return nil, errors.Wrap(err, "similarity query failed")
	}
	if len(results) == 0 {
		return nil, nil
	}

	records, err := a.store.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load memory records")
	}

	byID := make(map[string]memory.MemoryRecord, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}

	retrieved := make([]memory.MemoryRecord, 0, len(results))
	for _, result := range results {
		record, ok := byID[result.ID]
		if !ok {
			return nil, errors.Wrap(errors.ErrIntegrity,
				"index result %s has no backing memory record", result.ID)
		}
		retrieved = append(retrieved, record)
	}
	return retrieved, nil
}

// ExtractIntent returns the first clause of the prompt: text up to the
// first sentence-terminal punctuation, capped at a fixed token count,
// whichever comes first. A heuristic for display and retrieval, not intent
// classification.
func ExtractIntent(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if idx := strings.IndexAny(prompt, ".!?"); idx >= 0 {
		prompt = prompt[:idx]
	}

	fields := strings.Fields(prompt)
	if len(fields) > intentTokenCap {
		fields = fields[:intentTokenCap]
	}
	return strings.Join(fields, " ")
}

// Package atlas is the facade tying the memory store, similarity index,
// context assembler, goal validator and generation engine into one
// retrieval-augmented prompt pipeline.
package atlas

import (
	"context"
	"strings"

	"github.com/lexlapax/atlas/pkg/arch"
	"github.com/lexlapax/atlas/pkg/assembler"
	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/generation"
	"github.com/lexlapax/atlas/pkg/goals"
	"github.com/lexlapax/atlas/pkg/index"
	"github.com/lexlapax/atlas/pkg/log"
	"github.com/lexlapax/atlas/pkg/memory"
	"github.com/lexlapax/atlas/pkg/project"
	"github.com/lexlapax/atlas/pkg/scripting"
	"github.com/lexlapax/atlas/pkg/vector"
)

// summaryWidth bounds the stored response summary.
const summaryWidth = 120

// Options control a single RunPrompt invocation.
type Options struct {
	// Mode selects the pipeline: memory.ModeAtlas (default) retrieves
	// context, memory.ModeBaseline runs stateless.
	Mode string

	// Note is an optional engineer note carried into the generated plan
	// and the stored record.
	Note string

	// Tags label the stored record.
	Tags []string
}

// RunReport is the result of one prompt run.
type RunReport struct {
	// Response is the generated text.
	Response string

	// Bundle is the context that was assembled for the prompt.
	Bundle assembler.Bundle

	// Goals holds the per-goal validation results for the response.
	Goals []goals.Result

	// MemoryID is the id of the stored interaction, empty in baseline mode.
	MemoryID string

	// Mode is the mode the run executed in.
	Mode string
}

// Deps are the collaborators an Atlas instance is built from. Store,
// Index, Vectorizer and Engine are required; the rest may be nil.
type Deps struct {
	Store      memory.Store
	Index      index.Index
	Vectorizer vector.Vectorizer
	Engine     generation.Engine
	Scripting  scripting.Engine
	Arch       *arch.Store
	Project    *project.Store
}

// Config contains options for the facade.
type Config struct {
	// TopK is how many similar prior interactions are retrieved per prompt.
	TopK int
}

// DefaultConfig returns the default facade configuration.
func DefaultConfig() Config {
	return Config{TopK: 3}
}

// Atlas wires the pipeline together. It is not safe for concurrent use;
// the tool is single-user and single-process.
type Atlas struct {
	store      memory.Store
	idx        index.Index
	vectorizer vector.Vectorizer
	engine     generation.Engine
	scripts    scripting.Engine
	archStore  *arch.Store
	projStore  *project.Store
	asm        *assembler.Assembler
	validator  *goals.Validator
	config     Config
}

// New creates an Atlas instance and rebuilds the similarity index from the
// store so retrieval covers interactions from earlier runs.
func New(ctx context.Context, deps Deps, config Config) (*Atlas, error) {
	if deps.Store == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "memory store is required")
	}
	if deps.Index == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "similarity index is required")
	}
	if deps.Vectorizer == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "vectorizer is required")
	}
	if deps.Engine == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "generation engine is required")
	}
	if config.TopK <= 0 {
		config.TopK = DefaultConfig().TopK
	}

	a := &Atlas{
		store:      deps.Store,
		idx:        deps.Index,
		vectorizer: deps.Vectorizer,
		engine:     deps.Engine,
		scripts:    deps.Scripting,
		archStore:  deps.Arch,
		projStore:  deps.Project,
		validator:  goals.NewValidator(),
		config:     config,
	}
	a.asm = assembler.NewAssembler(deps.Vectorizer, deps.Index, deps.Store, deps.Arch, deps.Project)

	if err := a.rebuildIndex(ctx); err != nil {
		return nil, err
	}

	log.Debug("Atlas initialized", "top_k", config.TopK, "indexed", a.idx.Len())
	return a, nil
}

// rebuildIndex reloads every stored record into the similarity index.
func (a *Atlas) rebuildIndex(ctx context.Context) error {
	if a.idx.Len() > 0 {
		return nil
	}

	records, err := a.store.All(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load memory for indexing")
	}

	for _, record := range records {
		if record.Vector.IsEmpty() {
			continue
		}
		entry := index.Entry{
			ID:       record.ID,
			Text:     record.Prompt + " " + record.Response,
			Vector:   record.Vector,
			StoredAt: record.Timestamp,
		}
		if err := a.idx.Add(ctx, entry); err != nil {
			return errors.Wrap(err, "failed to index record %s", record.ID)
		}
	}
	return nil
}

// RunPrompt executes the full pipeline: assemble context, generate a
// response, validate it against the project goals, and store the
// interaction. Baseline mode skips retrieval and architecture context and
// stores nothing.
func (a *Atlas) RunPrompt(ctx context.Context, prompt string, opts Options) (*RunReport, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "prompt cannot be empty")
	}

	mode := opts.Mode
	if mode == "" {
		mode = memory.ModeAtlas
	}

	bundle, err := a.assembleFor(ctx, prompt, mode)
	if err != nil {
		return nil, err
	}

	rendered := a.renderPrompt(prompt, bundle, mode, opts.Note)
	response, err := a.engine.Process(ctx, rendered)
	if err != nil {
		return nil, errors.Wrap(err, "response generation failed")
	}

	report := &RunReport{
		Response: response,
		Bundle:   bundle,
		Goals:    a.validateGoals(ctx, response, bundle.Profile.Goals),
		Mode:     mode,
	}

	if mode != memory.ModeBaseline {
		id, err := a.appendInteraction(ctx, prompt, bundle.Intent, response, mode, opts.Note, opts.Tags)
		if err != nil {
			return nil, err
		}
		report.MemoryID = id
	}

	log.InfoContext(ctx, "Prompt run complete",
		"mode", mode,
		"retrieved", len(bundle.Retrieved),
		"goals_satisfied", goals.Satisfied(report.Goals),
		"goals_total", len(report.Goals))
	return report, nil
}

func (a *Atlas) assembleFor(ctx context.Context, prompt, mode string) (assembler.Bundle, error) {
	if mode == memory.ModeBaseline {
		bundle := assembler.Bundle{Intent: assembler.ExtractIntent(prompt)}
		if a.projStore != nil {
			bundle.Profile = a.projStore.Profile()
		}
		return bundle, nil
	}

	bundle, err := a.asm.Assemble(ctx, prompt, a.config.TopK)
	if err != nil {
		return assembler.Bundle{}, err
	}
	bundle.Retrieved = a.hookAfterRetrieve(ctx, bundle.Retrieved)
	return bundle, nil
}

// renderPrompt expands the prompt with the assembled context before it is
// handed to the generation engine.
func (a *Atlas) renderPrompt(prompt string, bundle assembler.Bundle, mode, note string) string {
	parts := []string{
		"Atlas mode: " + mode,
		"Intent captured: " + bundle.Intent,
		"Prompt: " + prompt,
	}

	if mode != memory.ModeBaseline {
		if len(bundle.Retrieved) > 0 {
			parts = append(parts, "- Recall from memory:")
			for _, record := range bundle.Retrieved {
				parts = append(parts, "  - "+record.Summary+" (intent: "+record.Intent+")")
			}
		} else {
			parts = append(parts, "- No similar memory, starting fresh.")
		}
		parts = append(parts, "- Architecture reminder: "+bundle.Architecture.Describe())
	} else {
		parts = append(parts, "- Architecture reminder: "+bundle.Profile.ArchitectureSummary)
	}

	if note = strings.TrimSpace(note); note != "" {
		parts = append(parts, "- Engineer note: "+note)
	}

	return strings.Join(parts, "\n")
}

func (a *Atlas) appendInteraction(ctx context.Context, prompt, intent, response, mode, note string, tags []string) (string, error) {
	content := a.hookBeforeEncode(ctx, prompt+" "+response)

	record := memory.MemoryRecord{
		Prompt:   prompt,
		Intent:   intent,
		Summary:  Summarize(response, summaryWidth),
		Response: response,
		Note:     strings.TrimSpace(note),
		Tags:     cleanTags(tags),
		Mode:     mode,
		Vector:   a.vectorizer.Vectorize(content),
	}

	id, err := a.store.Append(ctx, record)
	if err != nil {
		return "", errors.Wrap(err, "failed to store interaction")
	}

	if err := a.idx.Add(ctx, index.Entry{ID: id, Text: content, Vector: record.Vector}); err != nil {
		return "", errors.Wrap(err, "failed to index interaction %s", id)
	}
	return id, nil
}

// Remember stores a manual memory entry outside of a prompt run.
func (a *Atlas) Remember(ctx context.Context, text, intent, note string, tags []string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "memory text cannot be empty")
	}
	if intent = strings.TrimSpace(intent); intent == "" {
		intent = assembler.ExtractIntent(text)
	}
	return a.appendInteraction(ctx, text, intent, text, memory.ModeManual, note, tags)
}

// Lookup returns stored records whose text contains the query, newest
// first, capped at limit.
func (a *Atlas) Lookup(ctx context.Context, query string, limit int) ([]memory.MemoryRecord, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "lookup query cannot be empty")
	}

	records, err := a.store.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	var matched []memory.MemoryRecord
	for _, record := range records {
		if recordContains(record, query) {
			matched = append(matched, record)
			if limit > 0 && len(matched) >= limit {
				break
			}
		}
	}
	return matched, nil
}

// Search returns stored records ranked by similarity to the query.
func (a *Atlas) Search(ctx context.Context, query string, limit int) ([]memory.MemoryRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "search query cannot be empty")
	}
	if limit <= 0 {
		limit = a.config.TopK
	}

	results, err := a.idx.Query(ctx, index.Query{
		Text:   query,
		Vector: a.vectorizer.Vectorize(query),
	}, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	records, err := a.store.All(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]memory.MemoryRecord, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}

	matched := make([]memory.MemoryRecord, 0, len(results))
	for _, result := range results {
		if record, ok := byID[result.ID]; ok {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

// ListMemory returns stored records newest first.
func (a *Atlas) ListMemory(ctx context.Context, limit int) ([]memory.MemoryRecord, error) {
	return a.store.List(ctx, limit)
}

// Arch exposes the architecture store for CLI mutations.
func (a *Atlas) Arch() *arch.Store {
	return a.archStore
}

// Project exposes the project store for CLI mutations.
func (a *Atlas) Project() *project.Store {
	return a.projStore
}

// ValidateResponse checks arbitrary text against the current project goals.
func (a *Atlas) ValidateResponse(ctx context.Context, response string) []goals.Result {
	var goalList []string
	if a.projStore != nil {
		goalList = a.projStore.Profile().Goals
	}
	return a.validateGoals(ctx, response, goalList)
}

// Close releases the store and the scripting engine.
func (a *Atlas) Close() error {
	var firstErr error
	if a.scripts != nil {
		if err := a.scripts.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func recordContains(record memory.MemoryRecord, query string) bool {
	haystacks := []string{record.Prompt, record.Summary, record.Response, record.Note, record.Intent}
	haystacks = append(haystacks, record.Tags...)
	for _, hay := range haystacks {
		if strings.Contains(strings.ToLower(hay), query) {
			return true
		}
	}
	return false
}

func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

// Summarize shortens text to at most width characters, cutting on a word
// boundary with a trailing ellipsis. Whitespace is collapsed first.
func Summarize(text string, width int) string {
	words := strings.Fields(text)
	joined := strings.Join(words, " ")
	if len(joined) <= width {
		return joined
	}

	const placeholder = " ..."
	var out strings.Builder
	for _, word := range words {
		extra := len(word)
		if out.Len() > 0 {
			extra++
		}
		if out.Len()+extra+len(placeholder) > width {
			break
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(word)
	}
	if out.Len() == 0 {
		return strings.TrimSpace(placeholder)
	}
	return out.String() + placeholder
}

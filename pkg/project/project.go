// Package project manages the project profile: goals, constraints, an
// architecture summary, and coding conventions, persisted to a flat JSON
// file. It also provides the repository scan used to seed a new profile.
package project

import (
	"strings"

	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/fsjson"
	"github.com/lexlapax/atlas/pkg/log"
)

// Profile captures what the project is trying to achieve and how it is
// built. Goals drive response validation; the rest feeds context assembly.
type Profile struct {
	Goals               []string `json:"goals"`
	Constraints         []string `json:"constraints"`
	ArchitectureSummary string   `json:"architecture_summary"`
	Conventions         []string `json:"conventions"`
}

// IsEmpty reports whether the profile holds no content at all.
func (p *Profile) IsEmpty() bool {
	return len(p.Goals) == 0 && len(p.Constraints) == 0 &&
		p.ArchitectureSummary == "" && len(p.Conventions) == 0
}

// Describe renders the profile as human-readable lines.
func (p *Profile) Describe() string {
	lines := []string{"Project Goals:"}
	for _, goal := range p.Goals {
		lines = append(lines, "- "+goal)
	}
	lines = append(lines, "Constraints:")
	for _, constraint := range p.Constraints {
		lines = append(lines, "- "+constraint)
	}
	lines = append(lines, "Architecture Summary:", "- "+p.ArchitectureSummary)
	lines = append(lines, "Coding Conventions:")
	for _, convention := range p.Conventions {
		lines = append(lines, "- "+convention)
	}
	if len(p.Conventions) == 0 {
		lines = append(lines, "- ")
	}
	return strings.Join(lines, "\n")
}

// DefaultProfile returns the demo profile used when initializing a data
// directory with seeded content.
func DefaultProfile() Profile {
	return Profile{
		Goals: []string{
			"Build a payment-processing API that can safely ingest Stripe events.",
			"Keep architectural decisions visible across workflow steps.",
			"Validate output against stated goals before committing code.",
		},
		Constraints: []string{
			"Prefer Node.js async/await routines and RESTful services.",
			"Document decisions so future steps can recall context.",
		},
		ArchitectureSummary: "API Gateway routes to Payment Service, Webhook Handler, and Notification Service.",
		Conventions: []string{
			"CamelCase for functions, keep helpers under 30 lines.",
		},
	}
}

// Store persists a project profile to a JSON file. Every mutation is
// written through immediately.
type Store struct {
	path    string
	profile Profile
}

// NewStore loads (or initializes) the profile at path. A malformed file
// fails fast.
func NewStore(path string) (*Store, error) {
	store := &Store{path: path}

	found, err := fsjson.Read(path, &store.profile)
	if err != nil {
		return nil, err
	}
	if found {
		log.Debug("Loaded project profile", "path", path, "goals", len(store.profile.Goals))
	}

	return store, nil
}

// Profile returns a copy of the current profile.
func (s *Store) Profile() Profile {
	p := s.profile
	p.Goals = append([]string(nil), s.profile.Goals...)
	p.Constraints = append([]string(nil), s.profile.Constraints...)
	p.Conventions = append([]string(nil), s.profile.Conventions...)
	return p
}

// Describe renders the current profile.
func (s *Store) Describe() string {
	return s.profile.Describe()
}

// AddGoals appends non-empty goals and persists the profile.
func (s *Store) AddGoals(goals ...string) error {
	return s.update(func(p *Profile) {
		p.Goals = append(p.Goals, cleanList(goals)...)
	})
}

// AddConstraints appends non-empty constraints and persists the profile.
func (s *Store) AddConstraints(constraints ...string) error {
	return s.update(func(p *Profile) {
		p.Constraints = append(p.Constraints, cleanList(constraints)...)
	})
}

// SetArchitectureSummary replaces the architecture summary and persists the
// profile.
func (s *Store) SetArchitectureSummary(summary string) error {
	return s.update(func(p *Profile) {
		p.ArchitectureSummary = strings.TrimSpace(summary)
	})
}

// SetConventions replaces the coding conventions and persists the profile.
func (s *Store) SetConventions(conventions ...string) error {
	return s.update(func(p *Profile) {
		p.Conventions = cleanList(conventions)
	})
}

// Replace overwrites the whole profile, as the onboarding flow does.
func (s *Store) Replace(profile Profile) error {
	return s.update(func(p *Profile) {
		*p = profile
	})
}

func (s *Store) update(mutate func(*Profile)) error {
	previous := s.profile
	mutate(&s.profile)
	if err := fsjson.Write(s.path, &s.profile); err != nil {
		s.profile = previous
		return errors.Wrap(err, "failed to persist project profile")
	}
	return nil
}

func cleanList(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

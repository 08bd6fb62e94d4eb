// Package goals checks whether a generated response reflects the stated
// project goals. A coarse keyword-containment heuristic, not a correctness
// guarantee.
package goals

import (
	"github.com/lexlapax/atlas/pkg/vector"
)

// minKeywordLength filters out short connective tokens when extracting
// keywords from a goal.
const minKeywordLength = 4

// stopWords are excluded from goal keywords even when long enough.
var stopWords = map[string]bool{
	"that":   true,
	"this":   true,
	"with":   true,
	"from":   true,
	"into":   true,
	"have":   true,
	"will":   true,
	"they":   true,
	"them":   true,
	"then":   true,
	"when":   true,
	"where":  true,
	"which":  true,
	"while":  true,
	"about":  true,
	"before": true,
	"after":  true,
	"being":  true,
	"should": true,
	"would":  true,
	"could":  true,
	"their":  true,
	"there":  true,
	"these":  true,
	"those":  true,
	"other":  true,
}

// Result reports whether one goal passed and which keywords matched.
type Result struct {
	Goal    string
	Passed  bool
	Matched []string
}

// Validator checks responses against goals by keyword overlap.
type Validator struct{}

// NewValidator creates a goal validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Keywords extracts the matchable keywords from a goal: case-normalized
// tokens at least four characters long, stop words excluded.
func (v *Validator) Keywords(goal string) []string {
	var keywords []string
	for _, token := range vector.Tokenize(goal) {
		if len(token) < minKeywordLength || stopWords[token] {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

// Validate checks each goal against the response text, in goal order. A
// goal passes iff at least one of its keywords appears verbatim
// (case-insensitive) in the response.
func (v *Validator) Validate(response string, goalList []string) []Result {
	responseTokens := make(map[string]bool)
	for _, token := range vector.Tokenize(response) {
		responseTokens[token] = true
	}

	results := make([]Result, 0, len(goalList))
	for _, goal := range goalList {
		result := Result{Goal: goal}
		for _, keyword := range v.Keywords(goal) {
			if responseTokens[keyword] {
				result.Passed = true
				result.Matched = append(result.Matched, keyword)
			}
		}
		results = append(results, result)
	}
	return results
}

// Satisfied counts how many results passed.
func Satisfied(results []Result) int {
	count := 0
	for _, result := range results {
		if result.Passed {
			count++
		}
	}
	return count
}

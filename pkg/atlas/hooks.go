package atlas

import (
	"context"

	stderrors "errors"

	"github.com/lexlapax/atlas/pkg/goals"
	"github.com/lexlapax/atlas/pkg/log"
	"github.com/lexlapax/atlas/pkg/memory"
	"github.com/lexlapax/atlas/pkg/scripting"
	"github.com/lexlapax/atlas/pkg/vector"
)

const (
	// beforeEncodeFuncName is the Lua function called before an
	// interaction is vectorized and stored.
	beforeEncodeFuncName = "before_encode"

	// afterRetrieveFuncName is the Lua function called with the retrieved
	// records, allowing scripts to filter or reorder them.
	afterRetrieveFuncName = "after_retrieve"

	// goalKeywordsFuncName is the Lua function that can override the
	// keywords extracted from a goal.
	goalKeywordsFuncName = "goal_keywords"
)

// hookBeforeEncode lets a script rewrite the text that will be vectorized
// for a new record. Missing hooks and hook errors fall through to the
// original content.
func (a *Atlas) hookBeforeEncode(ctx context.Context, content string) string {
	if a.scripts == nil {
		return content
	}

	result, err := a.scripts.ExecuteFunction(ctx, beforeEncodeFuncName, content)
	if err != nil {
		if stderrors.Is(err, scripting.ErrFunctionNotFound) {
			return content
		}
		log.WarnContext(ctx, "Error calling Lua hook",
			"hook", beforeEncodeFuncName,
			"error", err)
		return content
	}

	if rewritten, ok := result.(string); ok && rewritten != "" {
		return rewritten
	}
	return content
}

// hookAfterRetrieve lets a script filter or reorder retrieved records. The
// script receives the records as tables and returns the ids to keep, in
// order. Missing hooks and hook errors leave the records untouched.
func (a *Atlas) hookAfterRetrieve(ctx context.Context, records []memory.MemoryRecord) []memory.MemoryRecord {
	if a.scripts == nil || len(records) == 0 {
		return records
	}

	luaRecords := make([]map[string]interface{}, len(records))
	for i, record := range records {
		luaRecords[i] = map[string]interface{}{
			"id":        record.ID,
			"prompt":    record.Prompt,
			"intent":    record.Intent,
			"summary":   record.Summary,
			"note":      record.Note,
			"mode":      record.Mode,
			"timestamp": record.Timestamp.Unix(),
		}
	}

	result, err := a.scripts.ExecuteFunction(ctx, afterRetrieveFuncName, luaRecords)
	if err != nil {
		if stderrors.Is(err, scripting.ErrFunctionNotFound) {
			return records
		}
		log.WarnContext(ctx, "Error calling Lua hook",
			"hook", afterRetrieveFuncName,
			"error", err)
		return records
	}

	kept, ok := result.([]interface{})
	if !ok {
		// An empty Lua table converts to an empty map; the hook kept nothing.
		if emptied, isMap := result.(map[string]interface{}); isMap && len(emptied) == 0 {
			return nil
		}
		return records
	}

	byID := make(map[string]memory.MemoryRecord, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}

	filtered := make([]memory.MemoryRecord, 0, len(kept))
	for _, item := range kept {
		var id string
		switch v := item.(type) {
		case string:
			id = v
		case map[string]interface{}:
			id, _ = v["id"].(string)
		}
		if record, found := byID[id]; found {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// validateGoals checks the response against each goal, letting a script
// override the extracted keywords per goal.
func (a *Atlas) validateGoals(ctx context.Context, response string, goalList []string) []goals.Result {
	if a.scripts == nil {
		return a.validator.Validate(response, goalList)
	}

	results := make([]goals.Result, 0, len(goalList))
	for _, goal := range goalList {
		keywords := a.hookGoalKeywords(ctx, goal, a.validator.Keywords(goal))
		results = append(results, validateWithKeywords(response, goal, keywords))
	}
	return results
}

// hookGoalKeywords lets a script replace the keywords derived from a goal.
func (a *Atlas) hookGoalKeywords(ctx context.Context, goal string, keywords []string) []string {
	result, err := a.scripts.ExecuteFunction(ctx, goalKeywordsFuncName, goal, keywords)
	if err != nil {
		if stderrors.Is(err, scripting.ErrFunctionNotFound) {
			return keywords
		}
		log.WarnContext(ctx, "Error calling Lua hook",
			"hook", goalKeywordsFuncName,
			"error", err)
		return keywords
	}

	overridden, ok := result.([]interface{})
	if !ok {
		return keywords
	}

	replaced := make([]string, 0, len(overridden))
	for _, item := range overridden {
		if keyword, isString := item.(string); isString && keyword != "" {
			replaced = append(replaced, keyword)
		}
	}
	if len(replaced) == 0 {
		return keywords
	}
	return replaced
}

func validateWithKeywords(response, goal string, keywords []string) goals.Result {
	responseTokens := make(map[string]bool)
	for _, token := range vector.Tokenize(response) {
		responseTokens[token] = true
	}

	result := goals.Result{Goal: goal}
	for _, keyword := range keywords {
		if responseTokens[keyword] {
			result.Passed = true
			result.Matched = append(result.Matched, keyword)
		}
	}
	return result
}

// Package dialogue composes the user-facing text for each turn: the next
// field prompt, confirmation summaries, action previews, answers to field
// questions, and suggestion lists.
package dialogue

import (
	"context"
	"regexp"
	"strings"

	"github.com/tbxark/collectagent/types"
)

// Purpose selects what kind of text to compose for a turn.
type Purpose string

const (
	// PurposePrompt answers the user's latest message and asks for the
	// current field. Model-backed generators embed FIELD_COLLECTED
	// markers here per the prompt contract.
	PurposePrompt Purpose = "prompt"
	// PurposeSummary presents all collected data for confirmation.
	PurposeSummary Purpose = "summary"
	// PurposeActionPreview describes what will happen on completion.
	PurposeActionPreview Purpose = "action_preview"
	// PurposeAnswer answers a question about the current field.
	PurposeAnswer Purpose = "answer"
	// PurposeSuggest produces a numbered suggestion list for the current field.
	PurposeSuggest Purpose = "suggest"
)

// Request is a turn request plus the composition purpose.
type Request struct {
	*types.TurnRequest
	Purpose Purpose
}

type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
}

var suggestionLine = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]|[-*])\s+(.+)$`)

// ParseSuggestions extracts the items of a numbered or bulleted list from
// generated suggestion text.
func ParseSuggestions(text string) []string {
	var out []string
	for _, m := range suggestionLine.FindAllStringSubmatch(text, -1) {
		item := strings.TrimSpace(m[1])
		item = strings.Trim(item, "*_`\"")
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

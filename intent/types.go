// Package intent determines what the user is trying to do on each turn:
// provide a value, ask a question, request suggestions, skip the field, or
// something unclear. Separate detectors flag modification-intent
// ("I want to change X") and completion-intent ("I'm done") messages.
package intent

import (
	"context"

	"github.com/tbxark/collectagent/types"
)

type Intent string

const (
	ProvideValue Intent = "provide_value"
	Question     Intent = "question"
	Suggest      Intent = "suggest"
	Skip         Intent = "skip"
	Unclear      Intent = "unclear"
)

// Result is one classification of a user turn. ExtractedValue is only
// meaningful when Intent is ProvideValue and is always scoped to the
// current field.
type Result struct {
	Intent         Intent  `json:"intent" jsonschema:"required,enum=provide_value,enum=question,enum=suggest,enum=skip,enum=unclear,description=The user's conversational purpose for this turn"`
	Confidence     float64 `json:"confidence" jsonschema:"description=Confidence between 0 and 1"`
	ExtractedValue string  `json:"extracted_value,omitempty" jsonschema:"description=The value for the current field when intent is provide_value; empty otherwise"`
	Reasoning      string  `json:"reasoning,omitempty" jsonschema:"description=One short sentence explaining the classification"`
}

type Classifier interface {
	Classify(ctx context.Context, req *types.TurnRequest) (*Result, error)
}

// RejectionDetector flags messages expressing a desire to change, modify
// or correct something, independent of field-level extraction.
type RejectionDetector interface {
	DetectRejection(ctx context.Context, message string) (bool, error)
}

// CompletionDetector flags "I'm done" style statements during enhancement.
type CompletionDetector interface {
	DetectCompletion(ctx context.Context, message string) (bool, error)
}

// TargetDetector identifies which field a modification-intent message most
// likely refers to. An empty result means no field could be identified.
type TargetDetector interface {
	DetectTarget(ctx context.Context, req *types.TurnRequest) (string, error)
}

// Fallback is the deterministic result used when classification fails:
// the system prefers to attempt progress over blocking.
func Fallback(message string) *Result {
	return &Result{
		Intent:         ProvideValue,
		Confidence:     0.5,
		ExtractedValue: message,
		Reasoning:      "classifier unavailable, treating message as a value",
	}
}

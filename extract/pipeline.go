// Package extract turns a user message plus current-field context into one
// candidate value through an ordered strategy chain: marker extraction from
// the turn's generated response, labelled-summary parsing, the intent
// classifier's value, and direct use of the raw message. The first
// successful strategy wins; conflicting results are never merged.
package extract

import (
	"log/slog"

	"github.com/tbxark/collectagent/intent"
	"github.com/tbxark/collectagent/types"
)

const (
	SourceMarker  = "marker"
	SourceSummary = "summary"
	SourceIntent  = "intent"
	SourceDirect  = "direct"
)

// Candidate is one proposed value for one field, tagged with the strategy
// that produced it.
type Candidate struct {
	Field  string
	Value  string
	Source string
}

// Input is everything one extraction run may draw on.
type Input struct {
	Req *types.TurnRequest
	// Generated is the assistant text composed this turn; marker and
	// labelled-summary strategies scan it.
	Generated string
	// Intent is the turn's classification; its extracted value is the
	// third strategy when intent is provide_value.
	Intent *intent.Result
	// Rejection short-circuits the whole pipeline to empty: no value is
	// ever extracted from a message requesting a change.
	Rejection bool
	// AnyField relaxes the current-field filter for the enhancement
	// stage, which may edit already-collected fields.
	AnyField bool
}

// Extract runs the strategy chain and returns the first candidate that
// survives the current-field filter.
func Extract(in Input) (*Candidate, bool) {
	if in.Rejection {
		return nil, false
	}

	markers := Markers(in.Generated)
	if c := firstAccepted(in, markers); c != nil {
		return c, true
	}
	// The labelled-summary fallback only runs when marker scanning matched
	// at least one marker, even if every marker was filtered out.
	if len(markers) > 0 {
		if c := firstAccepted(in, LabelledSummary(in.Req.Config, in.Generated)); c != nil {
			return c, true
		}
	}

	if in.Intent != nil && in.Intent.Intent == intent.ProvideValue && in.Intent.ExtractedValue != "" {
		current := ""
		if in.Req.CurrentField != nil {
			current = in.Req.CurrentField.Name
		}
		if c := accept(in, Candidate{Field: current, Value: in.Intent.ExtractedValue, Source: SourceIntent}); c != nil {
			return c, true
		}
	}

	if in.Req.CurrentField != nil && !in.AnyField {
		if value, ok := Direct(in.Req.CurrentField, in.Req.MessagePair.Answer); ok {
			if c := accept(in, Candidate{Field: in.Req.CurrentField.Name, Value: value, Source: SourceDirect}); c != nil {
				return c, true
			}
		}
	}

	return nil, false
}

func firstAccepted(in Input, candidates []Candidate) *Candidate {
	for _, c := range candidates {
		if accepted := accept(in, c); accepted != nil {
			return accepted
		}
	}
	return nil
}

// accept applies the current-field filter: discard anything not for the
// current field, and anything for a field already holding a non-empty
// value. AnyField mode only requires the field to exist in the schema.
func accept(in Input, c Candidate) *Candidate {
	if c.Field == "" || c.Value == "" {
		return nil
	}
	if in.Req.Config.Field(c.Field) == nil {
		slog.Debug("discarding candidate for unknown field", "field", c.Field, "source", c.Source)
		return nil
	}
	if in.AnyField {
		return &c
	}
	if in.Req.CurrentField == nil || c.Field != in.Req.CurrentField.Name {
		slog.Debug("discarding candidate outside current field", "field", c.Field, "source", c.Source)
		return nil
	}
	if types.HasValue(in.Req.CollectedData[c.Field]) {
		slog.Debug("discarding candidate for already collected field", "field", c.Field, "source", c.Source)
		return nil
	}
	return &c
}

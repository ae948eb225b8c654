package agent

import (
	"time"

	"github.com/tbxark/collectagent/types"
)

// Suggestions is a cached suggestion list tied to the field it was
// generated for; it is invalidated when the field changes.
type Suggestions struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// Metadata is the session's auxiliary state. The key set is closed:
// anything new belongs in a named field here, not in a free-form bag.
type Metadata struct {
	// PendingField is the enhancement target stashed by a
	// modification-intent message, consumed by the next value.
	PendingField string `json:"pending_field,omitempty"`
	// SkippedFields are optional fields the user chose to leave empty.
	SkippedFields []string `json:"skipped_fields,omitempty"`
	// OutputRequests are user-stated adjustments to the generated output
	// (not to a field value), recorded during enhancement.
	OutputRequests []string `json:"output_requests,omitempty"`
}

// SessionState is the single mutable entity of the system, keyed by
// session id. Only the Collector mutates it; the session store owns its
// durability.
type SessionState struct {
	ID         string       `json:"id"`
	ConfigName string       `json:"config_name"`
	Status     types.Status `json:"status"`

	CollectedData    map[string]any                     `json:"collected_data"`
	CurrentField     string                             `json:"current_field,omitempty"`
	ValidationErrors map[string][]types.ValidationError `json:"validation_errors,omitempty"`
	History          []types.Turn                       `json:"message_history"`

	DetectedLocale   string       `json:"detected_locale,omitempty"`
	LastSuggestions  *Suggestions `json:"last_suggestions,omitempty"`
	ConfirmedSummary string       `json:"confirmed_action_summary,omitempty"`
	Metadata         Metadata     `json:"metadata"`

	// EmbeddedConfig is a copy of the collection config taken at session
	// start, the durability fallback when the registry and config store
	// can no longer resolve ConfigName.
	EmbeddedConfig *types.CollectionConfig `json:"embedded_config,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppendTurn appends to the message history; history is append-only.
func (s *SessionState) AppendTurn(role, content string) {
	s.History = append(s.History, types.Turn{Role: role, Content: content, At: time.Now().UTC()})
}

// MarkSkipped records the user's choice to leave the optional field empty.
func (s *SessionState) MarkSkipped(name string) {
	if !s.FieldSkipped(name) {
		s.Metadata.SkippedFields = append(s.Metadata.SkippedFields, name)
	}
}

// FieldSkipped reports whether the user chose to skip the optional field.
func (s *SessionState) FieldSkipped(name string) bool {
	for _, skipped := range s.Metadata.SkippedFields {
		if skipped == name {
			return true
		}
	}
	return false
}

// FieldSatisfied reports whether the field holds a value or was skipped.
func (s *SessionState) FieldSatisfied(name string) bool {
	return types.HasValue(s.CollectedData[name]) || s.FieldSkipped(name)
}

// CollectedFields returns the names of fields holding values, in config order.
func (s *SessionState) CollectedFields(cfg *types.CollectionConfig) []string {
	out := make([]string, 0, len(s.CollectedData))
	for i := range cfg.Fields {
		if types.HasValue(s.CollectedData[cfg.Fields[i].Name]) {
			out = append(out, cfg.Fields[i].Name)
		}
	}
	return out
}

// RemainingFields returns the names of fields not yet satisfied, in config order.
func (s *SessionState) RemainingFields(cfg *types.CollectionConfig) []string {
	var out []string
	for i := range cfg.Fields {
		if !s.FieldSatisfied(cfg.Fields[i].Name) {
			out = append(out, cfg.Fields[i].Name)
		}
	}
	return out
}

// missingRequired returns required fields without a value, in config order.
func (s *SessionState) missingRequired(cfg *types.CollectionConfig) []types.Field {
	var out []types.Field
	for i := range cfg.Fields {
		f := cfg.Fields[i]
		if f.Required() && !types.HasValue(s.CollectedData[f.Name]) {
			out = append(out, f)
		}
	}
	return out
}

// nextField picks the field to ask next. Required fields come first in
// config order. Optional fields follow unless the config allows skipping
// them wholesale.
func (s *SessionState) nextField(cfg *types.CollectionConfig) string {
	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		if f.Required() && !types.HasValue(s.CollectedData[f.Name]) {
			return f.Name
		}
	}
	if cfg.AllowSkipOptional {
		return ""
	}
	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		if !f.Required() && !s.FieldSatisfied(f.Name) {
			return f.Name
		}
	}
	return ""
}

func (s *SessionState) flatErrors() []types.ValidationError {
	var out []types.ValidationError
	for _, errs := range s.ValidationErrors {
		out = append(out, errs...)
	}
	return out
}

package types

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusCollecting Status = "collecting"
	StatusConfirming Status = "confirming"
	StatusEnhancing  Status = "enhancing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further field mutation is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldSelect FieldType = "select"
)

// Field is one named, typed, validated slot in a collection schema.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Type        FieldType `json:"type" yaml:"type"`
	Validation  string    `json:"validation,omitempty" yaml:"validation,omitempty"`
	Options     []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Examples    []string  `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// Required reports whether the field carries a "required" validation rule.
func (f *Field) Required() bool {
	return hasRule(f.Validation, "required")
}

// Numeric reports whether values should be treated as numbers, either by
// field type or by a numeric/integer validation rule.
func (f *Field) Numeric() bool {
	return f.Type == FieldNumber || hasRule(f.Validation, "numeric") || hasRule(f.Validation, "integer")
}

func hasRule(validation, name string) bool {
	for _, rule := range strings.Split(validation, "|") {
		if n, _, _ := strings.Cut(rule, ":"); strings.TrimSpace(n) == name {
			return true
		}
	}
	return false
}

// OutputSchema is a recursive description of a structure to synthesize
// after collection completes.
type OutputSchema struct {
	Type        string                   `json:"type" yaml:"type"`
	Description string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  map[string]*OutputSchema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items       *OutputSchema            `json:"items,omitempty" yaml:"items,omitempty"`
	Count       int                      `json:"count,omitempty" yaml:"count,omitempty"`
}

// CollectionConfig is the immutable schema of one collector, identified by
// a unique name. Field insertion order defines the default collection order.
type CollectionConfig struct {
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`

	ConfirmBeforeComplete bool `json:"confirm_before_complete" yaml:"confirm_before_complete"`
	AllowEnhancement      bool `json:"allow_enhancement" yaml:"allow_enhancement"`
	AllowSkipOptional     bool `json:"allow_skip_optional" yaml:"allow_skip_optional"`

	SystemPrompt        string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	SummaryPrompt       string `json:"summary_prompt,omitempty" yaml:"summary_prompt,omitempty"`
	ActionSummaryPrompt string `json:"action_summary_prompt,omitempty" yaml:"action_summary_prompt,omitempty"`
	OutputSchemaPrompt  string `json:"output_schema_prompt,omitempty" yaml:"output_schema_prompt,omitempty"`

	OutputSchema *OutputSchema `json:"output_schema,omitempty" yaml:"output_schema,omitempty"`

	// Locale pins the response language; when empty the locale is
	// auto-detected from user messages. RedetectLocale opts into
	// per-message redetection instead of sticking with the first hit.
	Locale         string `json:"locale,omitempty" yaml:"locale,omitempty"`
	RedetectLocale bool   `json:"redetect_locale,omitempty" yaml:"redetect_locale,omitempty"`

	InitialData map[string]any `json:"initial_data,omitempty" yaml:"initial_data,omitempty"`

	CancelMessage string `json:"cancel_message,omitempty" yaml:"cancel_message,omitempty"`
}

// Validate checks the structural invariants: at least one field, unique
// field names, and non-empty options on select fields. Rule-string syntax
// is checked separately by the validate package.
func (c *CollectionConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config name is empty")
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("config %q has no fields", c.Name)
	}
	seen := make(map[string]bool, len(c.Fields))
	for i := range c.Fields {
		f := &c.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("config %q: field %d has no name", c.Name, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("config %q: duplicate field %q", c.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Type == "" {
			f.Type = FieldText
		}
		switch f.Type {
		case FieldText, FieldNumber:
		case FieldSelect:
			if len(f.Options) == 0 {
				return fmt.Errorf("config %q: select field %q has no options", c.Name, f.Name)
			}
		default:
			return fmt.Errorf("config %q: field %q has unknown type %q", c.Name, f.Name, f.Type)
		}
	}
	return nil
}

// Field returns the field definition for name, or nil.
func (c *CollectionConfig) Field(name string) *Field {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// FieldNames returns all field names in collection order.
func (c *CollectionConfig) FieldNames() []string {
	names := make([]string, 0, len(c.Fields))
	for i := range c.Fields {
		names = append(names, c.Fields[i].Name)
	}
	return names
}

// ValidationError is one user-facing rule violation for one field.
type ValidationError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of a session's message history.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// MessagePair is the latest assistant question and user answer, passed to
// collaborators so intent is judged in context rather than from isolated words.
type MessagePair struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// TurnRequest carries everything collaborators need to act on one turn.
type TurnRequest struct {
	Config        *CollectionConfig
	Status        Status
	Locale        string
	CurrentField  *Field
	CollectedData map[string]any
	MessagePair   MessagePair
	MissingFields []Field
	Errors        []ValidationError
	History       []Turn
}

// RecentTurns returns the last n turns of history for prompt context.
func RecentTurns(history []Turn, n int) []Turn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// HasValue reports whether v counts as a collected (non-empty) value.
func HasValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}

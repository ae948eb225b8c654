// Package validate applies per-field rule strings such as
// "required|min:1|max:100|numeric" and produces structured, user-facing
// errors. Rules are evaluated independently: all violations are reported.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tbxark/collectagent/types"
)

// Rule is one parsed token of a validation string.
type Rule struct {
	Name string
	Arg  float64
}

var ruleNames = map[string]bool{
	"required": false,
	"min":      true,
	"max":      true,
	"numeric":  false,
	"integer":  false,
}

// ParseRules parses a rule string, rejecting unknown or malformed tokens.
func ParseRules(validation string) ([]Rule, error) {
	if strings.TrimSpace(validation) == "" {
		return nil, nil
	}
	var rules []Rule
	for _, token := range strings.Split(validation, "|") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		name, arg, hasArg := strings.Cut(token, ":")
		name = strings.TrimSpace(name)
		wantsArg, known := ruleNames[name]
		if !known {
			return nil, fmt.Errorf("unknown validation rule %q", name)
		}
		if wantsArg != hasArg {
			return nil, fmt.Errorf("malformed validation rule %q", token)
		}
		rule := Rule{Name: name}
		if hasArg {
			n, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
			if err != nil {
				return nil, fmt.Errorf("validation rule %q: argument is not a number", token)
			}
			rule.Arg = n
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// CheckConfigRules verifies every field's rule string is well-formed.
func CheckConfigRules(cfg *types.CollectionConfig) error {
	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		if _, err := ParseRules(f.Validation); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

// Validate applies every rule of the field to value and returns all
// violations. Select fields additionally require option membership.
// It is a pure function; an empty result means the value is acceptable.
func Validate(field *types.Field, value any) []types.ValidationError {
	var errs []types.ValidationError
	add := func(rule, format string, args ...any) {
		errs = append(errs, types.ValidationError{
			Field:   field.Name,
			Rule:    rule,
			Message: fmt.Sprintf(format, args...),
		})
	}

	rules, err := ParseRules(field.Validation)
	if err != nil {
		// Malformed rule strings are rejected at registration; a stored
		// config predating that check still must not pass bad values.
		add("syntax", "%s has an invalid validation rule", field.Name)
		return errs
	}

	text := valueText(value)
	empty := !types.HasValue(value)

	numeric := field.Numeric()
	num, numOK := valueNumber(value)

	for _, rule := range rules {
		switch rule.Name {
		case "required":
			if empty {
				add("required", "%s is required", field.Name)
			}
		case "numeric":
			if !empty && !numOK {
				add("numeric", "%s must be a number", field.Name)
			}
		case "integer":
			if !empty && (!numOK || num != math.Trunc(num)) {
				add("integer", "%s must be a whole number", field.Name)
			}
		case "min":
			if empty {
				continue
			}
			if numeric {
				if numOK && num < rule.Arg {
					add("min", "%s must be at least %s", field.Name, formatNumber(rule.Arg))
				}
			} else if len([]rune(text)) < int(rule.Arg) {
				add("min", "%s must be at least %d characters", field.Name, int(rule.Arg))
			}
		case "max":
			if empty {
				continue
			}
			if numeric {
				if numOK && num > rule.Arg {
					add("max", "%s must be at most %s", field.Name, formatNumber(rule.Arg))
				}
			} else if len([]rune(text)) > int(rule.Arg) {
				add("max", "%s must be at most %d characters", field.Name, int(rule.Arg))
			}
		}
	}

	if field.Type == types.FieldSelect && !empty {
		if !optionMember(field.Options, text) {
			add("options", "%s must be one of: %s", field.Name, strings.Join(field.Options, ", "))
		}
	}
	if field.Type == types.FieldNumber && !empty && !numOK {
		add("numeric", "%s must be a number", field.Name)
	}

	return errs
}

// All validates every field of the config against the collected data,
// including required fields with no value yet. Optional fields without a
// value are skipped.
func All(cfg *types.CollectionConfig, data map[string]any) []types.ValidationError {
	var errs []types.ValidationError
	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		v, ok := data[f.Name]
		if !ok && !f.Required() {
			continue
		}
		errs = append(errs, Validate(f, v)...)
	}
	return errs
}

// Coerce converts a raw extracted string into the stored representation:
// float64 for numeric fields, the matching option for selects, trimmed
// text otherwise. The value must already have passed Validate.
func Coerce(field *types.Field, raw string) any {
	raw = strings.TrimSpace(raw)
	if field.Numeric() {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	}
	if field.Type == types.FieldSelect {
		for _, opt := range field.Options {
			if strings.EqualFold(opt, raw) {
				return opt
			}
		}
	}
	return raw
}

func valueText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return formatNumber(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func valueNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func optionMember(options []string, text string) bool {
	for _, opt := range options {
		if strings.EqualFold(opt, text) {
			return true
		}
	}
	return false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

package extract

import (
	"regexp"
	"strings"

	"github.com/tbxark/collectagent/types"
)

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Direct treats the raw user message as a value for the field, with
// type-aware heuristics: option substring match for selects, first numeric
// token for numeric fields, and whole-message acceptance for free text
// unless the message is under 2 characters or is an evident question.
func Direct(field *types.Field, message string) (string, bool) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", false
	}

	if field.Type == types.FieldSelect {
		normalized := strings.ToLower(message)
		for _, opt := range field.Options {
			if strings.Contains(normalized, strings.ToLower(opt)) {
				return opt, true
			}
		}
		return "", false
	}

	if field.Numeric() {
		if token := numberPattern.FindString(message); token != "" {
			return token, true
		}
		return "", false
	}

	if len([]rune(message)) < 2 || strings.HasSuffix(message, "?") {
		return "", false
	}
	return message, true
}

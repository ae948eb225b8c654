package extract

import (
	"regexp"
	"strings"
)

// Control tokens the generation prompt contract allows a model to embed in
// its response text. Marker lines are stripped before text reaches the user.
const (
	markerPrefix    = "FIELD_COLLECTED:"
	completeSignal  = "COLLECTION_COMPLETE"
	cancelledSignal = "COLLECTION_CANCELLED"
)

var markerPattern = regexp.MustCompile(`FIELD_COLLECTED:\s*([A-Za-z0-9_.-]+)\s*=\s*([^\n]+)`)

// Markers scans generated text for FIELD_COLLECTED:<name>=<value> tokens.
// Repeated markers for one field within one response are kept in order;
// the prompt contract, not this layer, is responsible for avoiding them.
func Markers(generated string) []Candidate {
	var out []Candidate
	for _, m := range markerPattern.FindAllStringSubmatch(generated, -1) {
		out = append(out, Candidate{
			Field:  m[1],
			Value:  strings.TrimSpace(m[2]),
			Source: SourceMarker,
		})
	}
	return out
}

// HasCompletionSignal reports an explicit completion token in generated text.
func HasCompletionSignal(generated string) bool {
	return strings.Contains(generated, completeSignal)
}

// HasCancellationSignal reports an explicit cancellation token in generated text.
func HasCancellationSignal(generated string) bool {
	return strings.Contains(generated, cancelledSignal)
}

// StripControlTokens removes marker lines and control tokens from generated
// text, returning what may be shown to the user.
func StripControlTokens(generated string) string {
	lines := strings.Split(generated, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, markerPrefix) || trimmed == completeSignal || trimmed == cancelledSignal {
			continue
		}
		line = markerPattern.ReplaceAllString(line, "")
		line = strings.ReplaceAll(line, completeSignal, "")
		line = strings.ReplaceAll(line, cancelledSignal, "")
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Package output expands collected field values into a larger nested
// structure through a schema-guided generation call.
package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tbxark/collectagent/types"
)

// Describe renders an output schema as the natural-language structure
// description embedded in the generation prompt.
func Describe(schema *types.OutputSchema) string {
	var sb strings.Builder
	describe(&sb, schema, "", 0)
	return strings.TrimRight(sb.String(), "\n")
}

func describe(sb *strings.Builder, s *types.OutputSchema, key string, depth int) {
	if s == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	label := s.Type
	if label == "" {
		label = "object"
	}
	line := indent + "- "
	if key != "" {
		line += fmt.Sprintf("%q: ", key)
	}
	line += label
	if s.Type == "array" && s.Count > 0 {
		line += fmt.Sprintf(" (exactly %d items)", s.Count)
	}
	if s.Description != "" {
		line += ": " + s.Description
	}
	sb.WriteString(line + "\n")

	if len(s.Properties) > 0 {
		keys := make([]string, 0, len(s.Properties))
		for k := range s.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			describe(sb, s.Properties[k], k, depth+1)
		}
	}
	if s.Items != nil {
		sb.WriteString(indent + "  each item:\n")
		describe(sb, s.Items, "", depth+2)
	}
}

package extract

import (
	"regexp"
	"strings"

	"github.com/tbxark/collectagent/types"
)

var labelPattern = regexp.MustCompile(`\*\*(.+?)\*\*\s*[:：]\s*([^\n]+)`)

// labelSynonyms maps common display labels to canonical field names. A
// synonym only applies when the target field exists in the config.
var labelSynonyms = map[string]string{
	"title":         "name",
	"name":          "name",
	"difficulty":    "level",
	"level":         "level",
	"lessons":       "lessons_count",
	"lessons count": "lessons_count",
}

// LabelledSummary scans generated text for "**Label**: value" lines and maps
// labels back to field names via the schema and a small static synonym set.
func LabelledSummary(cfg *types.CollectionConfig, generated string) []Candidate {
	var out []Candidate
	for _, m := range labelPattern.FindAllStringSubmatch(generated, -1) {
		label := strings.ToLower(strings.TrimSpace(m[1]))
		value := strings.TrimSpace(m[2])
		if field := resolveLabel(cfg, label); field != "" {
			out = append(out, Candidate{Field: field, Value: value, Source: SourceSummary})
		}
	}
	return out
}

func resolveLabel(cfg *types.CollectionConfig, label string) string {
	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		name := strings.ToLower(f.Name)
		if label == name || label == strings.ReplaceAll(name, "_", " ") {
			return f.Name
		}
		if f.Description != "" && label == strings.ToLower(f.Description) {
			return f.Name
		}
	}
	if target, ok := labelSynonyms[label]; ok && cfg.Field(target) != nil {
		return target
	}
	return ""
}

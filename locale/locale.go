// Package locale classifies the script of a user message into a language
// tag by scanning Unicode script ranges in a fixed priority order.
package locale

import (
	"unicode"

	"golang.org/x/text/language"
)

// Default is returned when no non-default script is found.
var Default = language.English

var scripts = []struct {
	tag    language.Tag
	tables []*unicode.RangeTable
}{
	{language.Arabic, []*unicode.RangeTable{unicode.Arabic}},
	{language.Chinese, []*unicode.RangeTable{unicode.Han}},
	{language.Japanese, []*unicode.RangeTable{unicode.Hiragana, unicode.Katakana}},
	{language.Korean, []*unicode.RangeTable{unicode.Hangul}},
	{language.Russian, []*unicode.RangeTable{unicode.Cyrillic}},
	{language.Greek, []*unicode.RangeTable{unicode.Greek}},
	{language.Hebrew, []*unicode.RangeTable{unicode.Hebrew}},
	{language.Thai, []*unicode.RangeTable{unicode.Thai}},
	{language.Hindi, []*unicode.RangeTable{unicode.Devanagari}},
}

// Detect returns the tag of the first script in priority order with at
// least one matching rune, else Default. Japanese matches on kana only;
// Han runes resolve to Chinese by priority.
func Detect(message string) language.Tag {
	for _, s := range scripts {
		for _, r := range message {
			for _, table := range s.tables {
				if unicode.Is(table, r) {
					return s.tag
				}
			}
		}
	}
	return Default
}

// DetectString is Detect rendered as a BCP 47 string.
func DetectString(message string) string {
	return Detect(message).String()
}

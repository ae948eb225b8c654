package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/collectagent/types"
)

func TestParseRules(t *testing.T) {
	t.Parallel()

	rules, err := ParseRules("required|min:3|max:120")
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, Rule{Name: "required"}, rules[0])
	assert.Equal(t, Rule{Name: "min", Arg: 3}, rules[1])
	assert.Equal(t, Rule{Name: "max", Arg: 120}, rules[2])

	rules, err = ParseRules("  ")
	require.NoError(t, err)
	assert.Empty(t, rules)

	_, err = ParseRules("required|frobnicate")
	assert.Error(t, err)

	_, err = ParseRules("min")
	assert.Error(t, err, "min without an argument is malformed")

	_, err = ParseRules("required:1")
	assert.Error(t, err, "required does not take an argument")

	_, err = ParseRules("min:abc")
	assert.Error(t, err)
}

func TestValidateReportsAllViolations(t *testing.T) {
	t.Parallel()
	field := &types.Field{
		Name:       "lessons_count",
		Type:       types.FieldNumber,
		Validation: "required|integer|min:1|max:50",
	}

	errs := Validate(field, "2.5")
	rulesHit := map[string]bool{}
	for _, e := range errs {
		assert.Equal(t, "lessons_count", e.Field)
		rulesHit[e.Rule] = true
	}
	assert.True(t, rulesHit["integer"])

	errs = Validate(field, "200")
	require.Len(t, errs, 1)
	assert.Equal(t, "max", errs[0].Rule)

	errs = Validate(field, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Rule)

	assert.Empty(t, Validate(field, "12"))
	assert.Empty(t, Validate(field, float64(12)))
}

func TestValidateTextLengthVsNumericMagnitude(t *testing.T) {
	t.Parallel()
	text := &types.Field{Name: "title", Type: types.FieldText, Validation: "min:3|max:10"}
	assert.NotEmpty(t, Validate(text, "ab"), "rune length below min")
	assert.Empty(t, Validate(text, "abcd"))
	assert.NotEmpty(t, Validate(text, "abcdefghijk"))
	// min/max are optional checks: empty values only fail required.
	assert.Empty(t, Validate(text, ""))

	number := &types.Field{Name: "price", Type: types.FieldNumber, Validation: "min:3|max:10"}
	assert.NotEmpty(t, Validate(number, "2"), "magnitude below min")
	assert.Empty(t, Validate(number, "7"))
}

func TestValidateSelectMembership(t *testing.T) {
	t.Parallel()
	field := &types.Field{
		Name:       "level",
		Type:       types.FieldSelect,
		Validation: "required",
		Options:    []string{"beginner", "intermediate", "advanced"},
	}
	assert.Empty(t, Validate(field, "beginner"))
	assert.Empty(t, Validate(field, "Beginner"), "membership is case-insensitive")

	errs := Validate(field, "expert")
	require.Len(t, errs, 1)
	assert.Equal(t, "options", errs[0].Rule)
	assert.Contains(t, errs[0].Message, "beginner, intermediate, advanced")
}

func TestAll(t *testing.T) {
	t.Parallel()
	cfg := &types.CollectionConfig{
		Name: "course",
		Fields: []types.Field{
			{Name: "title", Type: types.FieldText, Validation: "required|min:3"},
			{Name: "audience", Type: types.FieldText, Validation: "max:10"},
			{Name: "lessons_count", Type: types.FieldNumber, Validation: "required|integer"},
		},
	}

	errs := All(cfg, map[string]any{"title": "Go 101", "lessons_count": float64(5)})
	assert.Empty(t, errs, "absent optional fields are skipped")

	errs = All(cfg, map[string]any{"title": "ab", "audience": "everyone everywhere"})
	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "audience")
	assert.Contains(t, fields, "lessons_count", "missing required fields are reported")
}

func TestCoerce(t *testing.T) {
	t.Parallel()
	number := &types.Field{Name: "lessons_count", Type: types.FieldNumber, Validation: "integer"}
	assert.Equal(t, float64(12), Coerce(number, " 12 "))

	sel := &types.Field{Name: "level", Type: types.FieldSelect, Options: []string{"Beginner", "Advanced"}}
	assert.Equal(t, "Beginner", Coerce(sel, "beginner"), "select coerces to the canonical option")

	text := &types.Field{Name: "title", Type: types.FieldText}
	assert.Equal(t, "Go 101", Coerce(text, "  Go 101  "))
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := &CollectionConfig{
		Name: "course",
		Fields: []Field{
			{Name: "title", Validation: "required"},
			{Name: "level", Type: FieldSelect, Options: []string{"beginner"}},
		},
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, FieldText, cfg.Fields[0].Type, "missing type defaults to text")

	assert.Error(t, (&CollectionConfig{Name: "", Fields: []Field{{Name: "a"}}}).Validate())
	assert.Error(t, (&CollectionConfig{Name: "empty"}).Validate())
	assert.Error(t, (&CollectionConfig{Name: "dup", Fields: []Field{{Name: "a"}, {Name: "a"}}}).Validate())
	assert.Error(t, (&CollectionConfig{Name: "sel", Fields: []Field{{Name: "a", Type: FieldSelect}}}).Validate())
	assert.Error(t, (&CollectionConfig{Name: "typ", Fields: []Field{{Name: "a", Type: "blob"}}}).Validate())
}

func TestFieldRequiredAndNumeric(t *testing.T) {
	t.Parallel()

	f := &Field{Name: "title", Validation: "required|min:3"}
	assert.True(t, f.Required())
	assert.False(t, f.Numeric())

	f = &Field{Name: "count", Type: FieldText, Validation: "integer"}
	assert.False(t, f.Required())
	assert.True(t, f.Numeric(), "an integer rule makes a text field numeric")

	f = &Field{Name: "price", Type: FieldNumber}
	assert.True(t, f.Numeric())
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusCollecting.Terminal())
	assert.False(t, StatusConfirming.Terminal())
	assert.False(t, StatusEnhancing.Terminal())
}

func TestHasValue(t *testing.T) {
	t.Parallel()
	assert.False(t, HasValue(nil))
	assert.False(t, HasValue("  "))
	assert.True(t, HasValue("x"))
	assert.True(t, HasValue(float64(0)), "numeric zero is a value")
}

func TestRecentTurns(t *testing.T) {
	t.Parallel()
	history := []Turn{{Content: "1"}, {Content: "2"}, {Content: "3"}}
	assert.Len(t, RecentTurns(history, 2), 2)
	assert.Equal(t, "2", RecentTurns(history, 2)[0].Content)
	assert.Len(t, RecentTurns(history, 5), 3)
	assert.Len(t, RecentTurns(history, 0), 3)
}

func TestFormatTurnRequest(t *testing.T) {
	t.Parallel()
	cfg := &CollectionConfig{
		Name: "course",
		Fields: []Field{
			{Name: "title", Description: "The name of the course", Validation: "required"},
			{Name: "level", Type: FieldSelect, Options: []string{"beginner", "advanced"}},
		},
	}
	body, err := FormatTurnRequest(&TurnRequest{
		Config:        cfg,
		Status:        StatusCollecting,
		Locale:        "zh",
		CurrentField:  cfg.Field("level"),
		CollectedData: map[string]any{"title": "Go 101"},
		MessagePair:   MessagePair{Question: "What level?", Answer: "beginner I guess"},
		MissingFields: []Field{cfg.Fields[1]},
		Errors:        []ValidationError{{Field: "level", Message: "level must be one of: beginner, advanced"}},
		History:       []Turn{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Contains(t, body, `"title":"Go 101"`)
	assert.Contains(t, body, "# Current Status:\ncollecting")
	assert.Contains(t, body, "# Reply Language:\nzh")
	assert.Contains(t, body, "- options: beginner, advanced")
	assert.Contains(t, body, "# Validation errors:")
	assert.Contains(t, body, "## User Answer:\nbeginner I guess")
	assert.Contains(t, body, "user: hi")
}

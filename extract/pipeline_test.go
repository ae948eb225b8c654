package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/collectagent/intent"
	"github.com/tbxark/collectagent/types"
)

func courseConfig() *types.CollectionConfig {
	return &types.CollectionConfig{
		Name: "course",
		Fields: []types.Field{
			{Name: "title", Description: "The name of the course", Type: types.FieldText, Validation: "required"},
			{Name: "level", Description: "The difficulty level", Type: types.FieldSelect, Validation: "required", Options: []string{"beginner", "advanced"}},
			{Name: "lessons_count", Description: "How many lessons", Type: types.FieldNumber, Validation: "required|integer"},
		},
	}
}

func requestFor(cfg *types.CollectionConfig, fieldName, answer string, collected map[string]any) *types.TurnRequest {
	if collected == nil {
		collected = map[string]any{}
	}
	return &types.TurnRequest{
		Config:        cfg,
		Status:        types.StatusCollecting,
		CurrentField:  cfg.Field(fieldName),
		CollectedData: collected,
		MessagePair:   types.MessagePair{Answer: answer},
	}
}

func TestExtractMarkerWinsOverIntent(t *testing.T) {
	t.Parallel()
	cfg := courseConfig()
	cand, ok := Extract(Input{
		Req:       requestFor(cfg, "title", "call it Sourdough Basics", nil),
		Generated: "FIELD_COLLECTED: title = Sourdough Basics\nWhat level?",
		Intent:    &intent.Result{Intent: intent.ProvideValue, ExtractedValue: "something else"},
	})
	require.True(t, ok)
	assert.Equal(t, SourceMarker, cand.Source)
	assert.Equal(t, "Sourdough Basics", cand.Value)
}

func TestExtractRejectionShortCircuits(t *testing.T) {
	t.Parallel()
	cfg := courseConfig()
	_, ok := Extract(Input{
		Req:       requestFor(cfg, "title", "change the level please", nil),
		Generated: "FIELD_COLLECTED: title = change the level please",
		Intent:    &intent.Result{Intent: intent.ProvideValue, ExtractedValue: "change the level please"},
		Rejection: true,
	})
	assert.False(t, ok, "no value may be extracted from a modification request")
}

func TestExtractDiscardsWrongFieldMarkers(t *testing.T) {
	t.Parallel()
	cfg := courseConfig()

	// Marker for a field other than the current one is dropped.
	_, ok := Extract(Input{
		Req:       requestFor(cfg, "title", "beginner?", nil),
		Generated: "FIELD_COLLECTED: level = beginner",
	})
	assert.False(t, ok)

	// Marker for an unknown field is dropped.
	_, ok = Extract(Input{
		Req:       requestFor(cfg, "title", "hello?", nil),
		Generated: "FIELD_COLLECTED: nonexistent = hello",
	})
	assert.False(t, ok)
}

func TestExtractDiscardsAlreadyCollected(t *testing.T) {
	t.Parallel()
	cfg := courseConfig()
	_, ok := Extract(Input{
		Req:       requestFor(cfg, "title", "Sourdough Basics", map[string]any{"title": "Old Title"}),
		Generated: "FIELD_COLLECTED: title = Sourdough Basics",
	})
	assert.False(t, ok, "hallucinated re-extraction of a collected field is dropped")
}

func TestExtractLabelledSummaryRequiresMarker(t *testing.T) {
	t.Parallel()
	cfg := courseConfig()
	summaryText := "**Title**: Sourdough Basics\n**Difficulty**: advanced"

	// Without any marker the labelled-summary strategy never runs.
	_, ok := Extract(Input{
		Req:       requestFor(cfg, "title", "whatever?", nil),
		Generated: summaryText,
	})
	assert.False(t, ok)

	// A marker that itself gets filtered still unlocks the fallback.
	cand, ok := Extract(Input{
		Req:       requestFor(cfg, "title", "whatever", nil),
		Generated: "FIELD_COLLECTED: nonexistent = x\n" + summaryText,
	})
	require.True(t, ok)
	assert.Equal(t, SourceSummary, cand.Source)
	assert.Equal(t, "title", cand.Field)
	assert.Equal(t, "Sourdough Basics", cand.Value)
}

func TestExtractIntentValue(t *testing.T) {
	t.Parallel()
	cfg := courseConfig()
	cand, ok := Extract(Input{
		Req:    requestFor(cfg, "level", "make it advanced", nil),
		Intent: &intent.Result{Intent: intent.ProvideValue, ExtractedValue: "advanced"},
	})
	require.True(t, ok)
	assert.Equal(t, SourceIntent, cand.Source)
	assert.Equal(t, "level", cand.Field)
	assert.Equal(t, "advanced", cand.Value)
}

func TestExtractDirectFallback(t *testing.T) {
	t.Parallel()
	cfg := courseConfig()

	cand, ok := Extract(Input{Req: requestFor(cfg, "lessons_count", "about 12 lessons", nil)})
	require.True(t, ok)
	assert.Equal(t, SourceDirect, cand.Source)
	assert.Equal(t, "12", cand.Value)

	cand, ok = Extract(Input{Req: requestFor(cfg, "level", "I'd say beginner works", nil)})
	require.True(t, ok)
	assert.Equal(t, "beginner", cand.Value)

	// Questions are never taken as direct text values.
	_, ok = Extract(Input{Req: requestFor(cfg, "title", "what should I call it?", nil)})
	assert.False(t, ok)
}

func TestExtractAnyFieldMode(t *testing.T) {
	t.Parallel()
	cfg := courseConfig()
	req := requestFor(cfg, "", "set the level to advanced", map[string]any{"level": "beginner"})

	cand, ok := Extract(Input{
		Req:       req,
		Generated: "FIELD_COLLECTED: level = advanced",
		AnyField:  true,
	})
	require.True(t, ok)
	assert.Equal(t, "level", cand.Field)
	assert.Equal(t, "advanced", cand.Value, "AnyField mode may overwrite collected fields")
}

func TestDirect(t *testing.T) {
	t.Parallel()
	number := &types.Field{Name: "lessons_count", Type: types.FieldNumber}
	v, ok := Direct(number, "maybe 7 or so")
	require.True(t, ok)
	assert.Equal(t, "7", v)
	_, ok = Direct(number, "a few")
	assert.False(t, ok)

	text := &types.Field{Name: "title", Type: types.FieldText}
	_, ok = Direct(text, "x")
	assert.False(t, ok, "single rune answers are too short to trust")
	v, ok = Direct(text, "Sourdough Basics")
	require.True(t, ok)
	assert.Equal(t, "Sourdough Basics", v)
}

func TestLabelledSummarySynonyms(t *testing.T) {
	t.Parallel()
	cfg := &types.CollectionConfig{
		Name: "course",
		Fields: []types.Field{
			{Name: "name", Type: types.FieldText},
			{Name: "level", Type: types.FieldSelect, Options: []string{"beginner"}},
			{Name: "lessons_count", Type: types.FieldNumber},
		},
	}
	out := LabelledSummary(cfg, "**Title**: Go 101\n**Difficulty**: beginner\n**Lessons**: 10\n**Unrelated**: x")
	require.Len(t, out, 3)
	assert.Equal(t, "name", out[0].Field)
	assert.Equal(t, "level", out[1].Field)
	assert.Equal(t, "lessons_count", out[2].Field)
}

package dialogue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/collectagent/types"
)

func localReq(purpose Purpose) *Request {
	cfg := &types.CollectionConfig{
		Name: "course_creation",
		Fields: []types.Field{
			{Name: "title", Description: "The name of the course", Type: types.FieldText, Validation: "required", Examples: []string{"Go 101"}},
			{Name: "level", Description: "The difficulty level", Type: types.FieldSelect, Validation: "required", Options: []string{"beginner", "advanced"}},
		},
	}
	return &Request{
		TurnRequest: &types.TurnRequest{
			Config:        cfg,
			Status:        types.StatusCollecting,
			CurrentField:  cfg.Field("level"),
			CollectedData: map[string]any{"title": "Go 101"},
		},
		Purpose: purpose,
	}
}

func TestLocalGeneratorPrompt(t *testing.T) {
	t.Parallel()
	g := NewLocalGenerator()

	text, err := g.Generate(context.Background(), localReq(PurposePrompt))
	require.NoError(t, err)
	assert.Contains(t, text, "the difficulty level")
	assert.Contains(t, text, "beginner, advanced")

	// Validation errors lead the prompt.
	req := localReq(PurposePrompt)
	req.Errors = []types.ValidationError{{Field: "level", Rule: "options", Message: "level must be one of: beginner, advanced"}}
	text, err = g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, text, "level must be one of")

	// No current field still yields something to say.
	req = localReq(PurposePrompt)
	req.CurrentField = nil
	text, err = g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestLocalGeneratorSummary(t *testing.T) {
	t.Parallel()
	g := NewLocalGenerator()
	text, err := g.Generate(context.Background(), localReq(PurposeSummary))
	require.NoError(t, err)
	assert.Contains(t, text, "title")
	assert.Contains(t, text, "Go 101")
	assert.Contains(t, text, "(yes/no)")
	assert.NotContains(t, text, "level", "fields without values stay out of the summary")
}

func TestLocalGeneratorSuggest(t *testing.T) {
	t.Parallel()
	g := NewLocalGenerator()

	req := localReq(PurposeSuggest)
	text, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, text, "1. beginner")
	assert.Contains(t, text, "2. advanced")

	// Examples win over options when present.
	req.CurrentField = req.Config.Field("title")
	text, err = g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, text, "1. Go 101")
}

func TestLocalGeneratorAnswer(t *testing.T) {
	t.Parallel()
	g := NewLocalGenerator()
	text, err := g.Generate(context.Background(), localReq(PurposeAnswer))
	require.NoError(t, err)
	assert.Contains(t, text, "The difficulty level")
	assert.Contains(t, text, "beginner, advanced")
}

func TestParseSuggestions(t *testing.T) {
	t.Parallel()
	text := "Some ideas:\n1. Sourdough Basics\n2) Advanced Baking\n- Bread Chemistry\n* **Pastry 101**\nReply with a number."
	got := ParseSuggestions(text)
	assert.Equal(t, []string{"Sourdough Basics", "Advanced Baking", "Bread Chemistry", "Pastry 101"}, got)

	assert.Empty(t, ParseSuggestions("no list here"))
}

type errGenerator struct{}

func (errGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	return "", assert.AnError
}

type emptyGenerator struct{}

func (emptyGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	return "", nil
}

func TestFailbackGenerator(t *testing.T) {
	t.Parallel()
	g := NewFailbackGenerator(errGenerator{}, NewLocalGenerator())
	text, err := g.Generate(context.Background(), localReq(PurposePrompt))
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	g = NewFailbackGenerator(errGenerator{}, errGenerator{})
	_, err = g.Generate(context.Background(), localReq(PurposePrompt))
	assert.Error(t, err)

	// Empty text without an error still yields a well-formed failure.
	g = NewFailbackGenerator(emptyGenerator{}, emptyGenerator{})
	_, err = g.Generate(context.Background(), localReq(PurposePrompt))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "%!w")
}

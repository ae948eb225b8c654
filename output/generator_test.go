package output

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/collectagent/types"
)

type stubChatModel struct {
	content  string
	err      error
	received []*schema.Message
}

func (s *stubChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.received = input
	if s.err != nil {
		return nil, s.err
	}
	return &schema.Message{Role: schema.Assistant, Content: s.content}, nil
}

func (s *stubChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, assert.AnError
}

func outputConfig() *types.CollectionConfig {
	return &types.CollectionConfig{
		Name:   "course_creation",
		Fields: []types.Field{{Name: "title", Type: types.FieldText, Validation: "required"}},
		OutputSchema: &types.OutputSchema{
			Type:        "object",
			Description: "A full course outline",
			Properties: map[string]*types.OutputSchema{
				"title": {Type: "string"},
				"lessons": {
					Type:  "array",
					Count: 3,
					Items: &types.OutputSchema{
						Type: "object",
						Properties: map[string]*types.OutputSchema{
							"title":   {Type: "string"},
							"summary": {Type: "string"},
						},
					},
				},
			},
		},
	}
}

func TestModelGeneratorParsesFencedJSON(t *testing.T) {
	t.Parallel()
	stub := &stubChatModel{content: "```json\n{\"title\": \"Go 101\", \"lessons\": []}\n```"}
	g := NewModelGenerator(stub)

	out, err := g.Generate(context.Background(), &Request{
		Config:           outputConfig(),
		CollectedData:    map[string]any{"title": "Go 101"},
		ConfirmedSummary: "A three lesson Go course",
		Locale:           "en",
	})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "Go 101", out["title"])

	require.Len(t, stub.received, 2)
	prompt := stub.received[1].Content
	assert.Contains(t, prompt, "exactly 3 items")
	assert.Contains(t, prompt, "A three lesson Go course")
	assert.Contains(t, prompt, "authoritative")
}

func TestModelGeneratorUnparsableReturnsNil(t *testing.T) {
	t.Parallel()
	g := NewModelGenerator(&stubChatModel{content: "sorry, I cannot do that"})
	out, err := g.Generate(context.Background(), &Request{
		Config:        outputConfig(),
		CollectedData: map[string]any{},
	})
	require.NoError(t, err, "unparsable output is dropped, not an error")
	assert.Nil(t, out)
}

func TestModelGeneratorModelError(t *testing.T) {
	t.Parallel()
	g := NewModelGenerator(&stubChatModel{err: assert.AnError})
	_, err := g.Generate(context.Background(), &Request{
		Config:        outputConfig(),
		CollectedData: map[string]any{},
	})
	assert.Error(t, err)
}

func TestModelGeneratorNoSchema(t *testing.T) {
	t.Parallel()
	g := NewModelGenerator(&stubChatModel{content: "{}"})
	out, err := g.Generate(context.Background(), &Request{
		Config: &types.CollectionConfig{Name: "plain"},
	})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	text := Describe(outputConfig().OutputSchema)
	assert.Contains(t, text, "object: A full course outline")
	assert.Contains(t, text, `"lessons": array (exactly 3 items)`)
	assert.Contains(t, text, `"title": string`)
	assert.Contains(t, text, "each item:")
}

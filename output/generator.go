package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/collectagent/types"
)

// Request carries the material for one output generation.
type Request struct {
	Config        *types.CollectionConfig
	CollectedData map[string]any
	// ConfirmedSummary, when present, is the authoritative content source:
	// the model converts it to JSON instead of inventing new content.
	ConfirmedSummary string
	// ModificationRequests are user-stated adjustments recorded during
	// enhancement, applied on top of the confirmed content.
	ModificationRequests []string
	Locale               string
}

type Generator interface {
	// Generate returns the synthesized structure, or nil (not an error)
	// when the model output cannot be parsed as JSON.
	Generate(ctx context.Context, req *Request) (map[string]any, error)
}

// ModelGenerator produces the structure with a chat model.
type ModelGenerator struct {
	chatModel model.BaseChatModel
}

func NewModelGenerator(chatModel model.BaseChatModel) *ModelGenerator {
	return &ModelGenerator{chatModel: chatModel}
}

func (g *ModelGenerator) Generate(ctx context.Context, req *Request) (map[string]any, error) {
	if req.Config == nil || req.Config.OutputSchema == nil {
		return nil, nil
	}
	messages, err := buildOutputPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("build output prompt: %w", err)
	}
	response, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	result, ok := parseJSONObject(response.Content)
	if !ok {
		slog.Warn("generated output is not well-formed JSON, dropping it",
			"config", req.Config.Name, "raw_len", len(response.Content))
		return nil, nil
	}
	return result, nil
}

func buildOutputPrompt(req *Request) ([]*schema.Message, error) {
	systemPrompt := req.Config.OutputSchemaPrompt
	if systemPrompt == "" {
		systemPrompt = "You expand collected form values into a complete JSON document. Return ONLY a single JSON object conforming exactly to the requested structure, with no markdown fencing and no commentary. Populate content from the provided material; be concrete and consistent with it."
	}

	dataJSON, err := sonic.MarshalString(req.CollectedData)
	if err != nil {
		return nil, err
	}

	sections := []string{
		fmt.Sprintf("# Requested structure:\n%s", Describe(req.Config.OutputSchema)),
		fmt.Sprintf("# Collected values JSON:\n```json\n%s\n```", dataJSON),
	}
	if req.ConfirmedSummary != "" {
		sections = append(sections, fmt.Sprintf("# Confirmed content (authoritative; convert this into JSON, do not invent new content):\n%s", req.ConfirmedSummary))
	}
	if len(req.ModificationRequests) > 0 {
		sections = append(sections, fmt.Sprintf("# Requested adjustments:\n- %s", strings.Join(req.ModificationRequests, "\n- ")))
	}
	if req.Locale != "" {
		sections = append(sections, fmt.Sprintf("# Content language:\n%s", req.Locale))
	}

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(strings.Join(sections, "\n\n")),
	}, nil
}

// parseJSONObject strips optional markdown fencing and unmarshals the text
// into a map.
func parseJSONObject(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if _, rest, ok := strings.Cut(text, "\n"); ok {
			text = rest
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	var result map[string]any
	if err := sonic.UnmarshalString(text, &result); err != nil {
		return nil, false
	}
	return result, true
}

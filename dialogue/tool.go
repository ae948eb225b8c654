package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/collectagent/types"
)

// DefaultSystemPromptTemplate is the collection prompt contract used by
// ToolBasedGenerator when the config carries no system prompt. The single
// "%s" placeholder is the reply language.
const DefaultSystemPromptTemplate = `You are a friendly assistant collecting structured information through natural conversation, one field at a time.

Respond as if chatting with a friend:
- Acknowledge what the user just told you, then ask for the current field in a natural way.
- If there are validation errors, gently point them out and suggest corrections in plain language.
- Never ask for several fields at once and never invent values the user did not provide.
- Reply in %s.

Whenever the user's latest answer provides a value for the CURRENT field, emit exactly one machine-readable marker on its own line, in addition to your reply:
FIELD_COLLECTED:<field_name>=<value>
Never emit a marker for any other field, for a field that already has a value, or for a value the user did not state. If the user clearly wants to finish, emit COLLECTION_COMPLETE on its own line; if they clearly abandon the process, emit COLLECTION_CANCELLED on its own line.`

var purposeInstructions = map[Purpose]string{
	PurposeSummary:       "Present every collected value back to the user as a short recap ending with a clear yes/no confirmation question. List each value as `**<field name>**: <value>` on its own line. Do not emit FIELD_COLLECTED markers.",
	PurposeActionPreview: "Describe in two or three sentences what will be created or done with the collected values once the user confirms. Do not ask for new values and do not emit FIELD_COLLECTED markers.",
	PurposeAnswer:        "The user asked a question about the current field. Answer it using the field's description, options and examples, then gently repeat the request for a value. Do not emit FIELD_COLLECTED markers.",
	PurposeSuggest:       "Offer a numbered list of 3 to 5 concrete suggestions for the current field, drawing on its examples and options, then invite the user to pick one or provide their own. Do not emit FIELD_COLLECTED markers.",
}

type toolGeneratorOptions struct {
	lang                 string
	systemPromptTemplate string
}

type GeneratorOption func(*toolGeneratorOptions)

// WithLang sets the language used by the default system prompt template.
func WithLang(lang string) GeneratorOption {
	return func(o *toolGeneratorOptions) {
		o.lang = lang
	}
}

// WithSystemPromptTemplate overrides the default system prompt template.
// A "%s" in the template is formatted with the language.
func WithSystemPromptTemplate(tpl string) GeneratorOption {
	return func(o *toolGeneratorOptions) {
		o.systemPromptTemplate = tpl
	}
}

// ToolBasedGenerator composes responses with a chat model. Purpose-specific
// instructions and the config's prompt templates shape the system prompt.
type ToolBasedGenerator struct {
	lang                 string
	systemPromptTemplate string
	chatModel            model.ToolCallingChatModel
}

func NewToolBasedGenerator(chatModel model.ToolCallingChatModel, opts ...GeneratorOption) *ToolBasedGenerator {
	options := toolGeneratorOptions{
		lang:                 "English",
		systemPromptTemplate: DefaultSystemPromptTemplate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return &ToolBasedGenerator{
		lang:                 options.lang,
		systemPromptTemplate: options.systemPromptTemplate,
		chatModel:            chatModel,
	}
}

func (g *ToolBasedGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	messages, err := g.buildPrompt(req)
	if err != nil {
		return "", fmt.Errorf("build dialogue prompt: %w", err)
	}
	response, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	return response.Content, nil
}

func (g *ToolBasedGenerator) buildPrompt(req *Request) ([]*schema.Message, error) {
	body, err := types.FormatTurnRequest(req.TurnRequest)
	if err != nil {
		return nil, fmt.Errorf("convert to prompt message failed: %w", err)
	}

	systemPrompt := g.systemPrompt(req)
	if instruction := g.purposeInstruction(req); instruction != "" {
		systemPrompt += "\n\n" + instruction
	}

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(body),
	}, nil
}

func (g *ToolBasedGenerator) systemPrompt(req *Request) string {
	if req.Config != nil && req.Config.SystemPrompt != "" {
		return req.Config.SystemPrompt
	}
	tpl := g.systemPromptTemplate
	if tpl == "" {
		tpl = DefaultSystemPromptTemplate
	}
	lang := g.lang
	if req.Locale != "" {
		lang = req.Locale
	}
	if strings.Contains(tpl, "%s") {
		return fmt.Sprintf(tpl, lang)
	}
	return tpl
}

func (g *ToolBasedGenerator) purposeInstruction(req *Request) string {
	if req.Config != nil {
		switch req.Purpose {
		case PurposeSummary:
			if req.Config.SummaryPrompt != "" {
				return req.Config.SummaryPrompt
			}
		case PurposeActionPreview:
			if req.Config.ActionSummaryPrompt != "" {
				return req.Config.ActionSummaryPrompt
			}
		}
	}
	return purposeInstructions[req.Purpose]
}

package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/collectagent/structured"
	"github.com/tbxark/collectagent/types"
)

const (
	classifyToolName        = "classify_turn_intent"
	classifyToolDescription = "Classify the user's purpose for this turn: provide_value, question, suggest, skip, unclear."
)

// ToolBasedClassifier delegates intent classification to a chat model via
// a forced tool call.
type ToolBasedClassifier struct {
	chain *structured.Chain[*types.TurnRequest, Result]
}

func NewToolBasedClassifier(chatModel model.ToolCallingChatModel) (*ToolBasedClassifier, error) {
	chain, err := structured.NewChain[*types.TurnRequest, Result](
		chatModel,
		buildClassifyPrompt,
		classifyToolName,
		classifyToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedClassifier{chain: chain}, nil
}

func (c *ToolBasedClassifier) Classify(ctx context.Context, req *types.TurnRequest) (*Result, error) {
	result, err := c.chain.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Intent == "" {
		return nil, fmt.Errorf("empty intent returned by %s", classifyToolName)
	}
	return result, nil
}

func buildClassifyPrompt(ctx context.Context, req *types.TurnRequest) ([]*schema.Message, error) {
	body, err := types.FormatTurnRequest(req)
	if err != nil {
		return nil, fmt.Errorf("convert to prompt message failed: %w", err)
	}

	systemPrompt := fmt.Sprintf(`You are an assistant for a conversational data collector, helping to understand user input while gathering field values one at a time.

Analyze the latest communication between the assistant and the user to determine what the user is trying to do regarding the current field.

IMPORTANT: Always combine the assistant's question with the user's answer to determine the true intent. Do not judge intent solely based on isolated words or phrases.

Choose the most appropriate intent:
- provide_value: the user is answering the current field. Set extracted_value to the value for the CURRENT field only, normalized to the field's type and options where possible (e.g. "I'm new to this" with options beginner/intermediate/advanced means "beginner").
- question: the user is asking about the field or the process, not answering it.
- suggest: the user wants suggestions or examples for the current field.
- skip: the user wants to leave the current field empty and move on.
- unclear: none of the above fits.

NEVER set extracted_value for a field other than the current one, and NEVER invent a value for a field that already holds one in the collected data.

Call the '%s' tool with the result.`, classifyToolName)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(body),
	}, nil
}

const (
	rejectionToolName        = "detect_rejection_intent"
	rejectionToolDescription = "Detect whether the message expresses a desire to change, modify or correct previously provided information."
)

type rejectionResult struct {
	Rejection bool   `json:"rejection" jsonschema:"required,description=True when the user wants to change or correct something already provided"`
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=One short sentence explaining the decision"`
}

type ToolBasedRejectionDetector struct {
	chain *structured.Chain[string, rejectionResult]
}

func NewToolBasedRejectionDetector(chatModel model.ToolCallingChatModel) (*ToolBasedRejectionDetector, error) {
	chain, err := structured.NewChain[string, rejectionResult](
		chatModel,
		buildRejectionPrompt,
		rejectionToolName,
		rejectionToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedRejectionDetector{chain: chain}, nil
}

func (d *ToolBasedRejectionDetector) DetectRejection(ctx context.Context, message string) (bool, error) {
	result, err := d.chain.Invoke(ctx, message)
	if err != nil {
		return false, err
	}
	return result != nil && result.Rejection, nil
}

func buildRejectionPrompt(ctx context.Context, message string) ([]*schema.Message, error) {
	systemPrompt := fmt.Sprintf(`Decide whether the user message expresses a desire to change, modify or correct information they already provided (e.g. "I want to change the name", "actually make it 10 lessons").

A plain answer, question, or confirmation is NOT a rejection. Only flag messages whose purpose is requesting a change.

Call the '%s' tool with the result.`, rejectionToolName)
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(message),
	}, nil
}

const (
	completionToolName        = "detect_completion_intent"
	completionToolDescription = "Detect whether the message states the user is done making changes."
)

type completionResult struct {
	Done      bool   `json:"done" jsonschema:"required,description=True when the user indicates they are finished making changes"`
	Reasoning string `json:"reasoning,omitempty"`
}

type ToolBasedCompletionDetector struct {
	chain *structured.Chain[string, completionResult]
}

func NewToolBasedCompletionDetector(chatModel model.ToolCallingChatModel) (*ToolBasedCompletionDetector, error) {
	chain, err := structured.NewChain[string, completionResult](
		chatModel,
		buildCompletionPrompt,
		completionToolName,
		completionToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedCompletionDetector{chain: chain}, nil
}

func (d *ToolBasedCompletionDetector) DetectCompletion(ctx context.Context, message string) (bool, error) {
	result, err := d.chain.Invoke(ctx, message)
	if err != nil {
		return false, err
	}
	return result != nil && result.Done, nil
}

func buildCompletionPrompt(ctx context.Context, message string) ([]*schema.Message, error) {
	systemPrompt := fmt.Sprintf(`Decide whether the user message states they are finished making changes (e.g. "done", "that's all", "looks good now").

Providing a new value or asking for another change is NOT completion.

Call the '%s' tool with the result.`, completionToolName)
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(message),
	}, nil
}

const (
	targetToolName        = "detect_target_field"
	targetToolDescription = "Identify which field a change request refers to."
)

type targetResult struct {
	Field     string `json:"field" jsonschema:"required,description=The name of the field the user wants to change; empty when no field can be identified"`
	Reasoning string `json:"reasoning,omitempty"`
}

type ToolBasedTargetDetector struct {
	chain *structured.Chain[*types.TurnRequest, targetResult]
}

func NewToolBasedTargetDetector(chatModel model.ToolCallingChatModel) (*ToolBasedTargetDetector, error) {
	chain, err := structured.NewChain[*types.TurnRequest, targetResult](
		chatModel,
		buildTargetPrompt,
		targetToolName,
		targetToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedTargetDetector{chain: chain}, nil
}

func (d *ToolBasedTargetDetector) DetectTarget(ctx context.Context, req *types.TurnRequest) (string, error) {
	result, err := d.chain.Invoke(ctx, req)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	// The model occasionally answers with a display name; resolve against
	// the schema and reject anything unknown.
	if f := req.Config.Field(result.Field); f != nil {
		return f.Name, nil
	}
	normalized := strings.ToLower(strings.TrimSpace(result.Field))
	for i := range req.Config.Fields {
		if strings.ToLower(req.Config.Fields[i].Name) == normalized {
			return req.Config.Fields[i].Name, nil
		}
	}
	return "", nil
}

func buildTargetPrompt(ctx context.Context, req *types.TurnRequest) ([]*schema.Message, error) {
	body, err := types.FormatTurnRequest(req)
	if err != nil {
		return nil, fmt.Errorf("convert to prompt message failed: %w", err)
	}
	systemPrompt := fmt.Sprintf(`The user asked to change previously collected information. Identify which field of the schema they mean.

Known fields: %s.

Return the exact field name, or an empty string when the message does not identify any field.

Call the '%s' tool with the result.`, strings.Join(req.Config.FieldNames(), ", "), targetToolName)
	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(body),
	}, nil
}

package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/tbxark/collectagent/types"
)

// LocalGenerator composes deterministic text from the schema alone. It is
// the last link of every failback chain and never errors, so every
// reachable state always yields a textual response.
type LocalGenerator struct{}

func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{}
}

func (g *LocalGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	switch req.Purpose {
	case PurposeSummary:
		return g.summary(req), nil
	case PurposeActionPreview:
		return g.actionPreview(req), nil
	case PurposeAnswer:
		return g.answer(req), nil
	case PurposeSuggest:
		return g.suggest(req), nil
	default:
		return g.prompt(req), nil
	}
}

func (g *LocalGenerator) prompt(req *Request) string {
	var sb strings.Builder
	for _, e := range req.Errors {
		sb.WriteString(e.Message)
		sb.WriteString("\n")
	}
	f := req.CurrentField
	if f == nil {
		if sb.Len() == 0 {
			return "Please continue."
		}
		return strings.TrimRight(sb.String(), "\n")
	}
	if f.Description != "" {
		sb.WriteString(fmt.Sprintf("Please provide %s.", lowerFirst(f.Description)))
	} else {
		sb.WriteString(fmt.Sprintf("Please provide a value for %s.", displayName(f.Name)))
	}
	if len(f.Options) > 0 {
		sb.WriteString(fmt.Sprintf(" Options: %s.", strings.Join(f.Options, ", ")))
	} else if len(f.Examples) > 0 {
		sb.WriteString(fmt.Sprintf(" For example: %s.", f.Examples[0]))
	}
	return sb.String()
}

func (g *LocalGenerator) summary(req *Request) string {
	var buf strings.Builder
	buf.WriteString("Here is what I have collected:\n\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Value")
	for i := range req.Config.Fields {
		f := &req.Config.Fields[i]
		v, ok := req.CollectedData[f.Name]
		if !ok || !types.HasValue(v) {
			continue
		}
		_ = table.Append(displayName(f.Name), fmt.Sprintf("%v", v))
	}
	_ = table.Render()
	buf.WriteString("\nIs everything correct? (yes/no)")
	return buf.String()
}

func (g *LocalGenerator) actionPreview(req *Request) string {
	return fmt.Sprintf("Once you confirm, I will finalize %s with the values above.", req.Config.Name)
}

func (g *LocalGenerator) answer(req *Request) string {
	f := req.CurrentField
	if f == nil {
		return "We are collecting the remaining details; please continue."
	}
	var sb strings.Builder
	if f.Description != "" {
		sb.WriteString(fmt.Sprintf("%s: %s.", displayName(f.Name), f.Description))
	} else {
		sb.WriteString(fmt.Sprintf("I need a value for %s.", displayName(f.Name)))
	}
	if len(f.Options) > 0 {
		sb.WriteString(fmt.Sprintf(" Valid options are: %s.", strings.Join(f.Options, ", ")))
	}
	if len(f.Examples) > 0 {
		sb.WriteString(fmt.Sprintf(" For example: %s.", strings.Join(f.Examples, ", ")))
	}
	return sb.String()
}

func (g *LocalGenerator) suggest(req *Request) string {
	f := req.CurrentField
	if f == nil {
		return "There is nothing to suggest right now; please continue."
	}
	items := f.Examples
	if len(items) == 0 {
		items = f.Options
	}
	if len(items) == 0 {
		return fmt.Sprintf("I have no suggestions for %s; please provide a value.", displayName(f.Name))
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Here are some suggestions for %s:\n", displayName(f.Name)))
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, item))
	}
	sb.WriteString("Reply with a number or your own value.")
	return sb.String()
}

// FailbackGenerator tries each generator in order and returns the first
// successful result.
type FailbackGenerator struct {
	generators []Generator
}

func NewFailbackGenerator(generators ...Generator) *FailbackGenerator {
	return &FailbackGenerator{generators: generators}
}

func (g *FailbackGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	var lastErr error
	for _, generator := range g.generators {
		text, err := generator.Generate(ctx, req)
		if err == nil && text != "" {
			return text, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("all dialogue generators failed: %w", lastErr)
	}
	return "", fmt.Errorf("all dialogue generators returned empty text")
}

func displayName(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

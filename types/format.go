package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

func formatFieldsSection(title string, fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# " + title + ":\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Type", "Description", "Options")
	for i := range fields {
		f := &fields[i]
		_ = table.Append(f.Name, string(f.Type), f.Description, strings.Join(f.Options, ", "))
	}
	_ = table.Render()
	return buf.String()
}

func formatErrorsSection(errs []ValidationError) string {
	if len(errs) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Validation errors:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Error")
	for _, e := range errs {
		_ = table.Append(e.Field, e.Message)
	}
	_ = table.Render()
	return buf.String()
}

func formatCurrentFieldSection(f *Field) string {
	if f == nil {
		return ""
	}
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("# Current field being asked:\n- name: %s\n- type: %s\n", f.Name, f.Type))
	if f.Description != "" {
		buf.WriteString("- description: " + f.Description + "\n")
	}
	if f.Validation != "" {
		buf.WriteString("- validation: " + f.Validation + "\n")
	}
	if len(f.Options) > 0 {
		buf.WriteString("- options: " + strings.Join(f.Options, ", ") + "\n")
	}
	if len(f.Examples) > 0 {
		buf.WriteString("- examples: " + strings.Join(f.Examples, ", ") + "\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatHistorySection(history []Turn, n int) string {
	turns := RecentTurns(history, n)
	if len(turns) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Recent dialogue:\n")
	for _, t := range turns {
		buf.WriteString(fmt.Sprintf("%s: %s\n", t.Role, t.Content))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// FormatTurnRequest renders a TurnRequest as the markdown prompt body shared
// by all model-backed collaborators.
func FormatTurnRequest(req *TurnRequest) (string, error) {
	dataJSON, err := sonic.MarshalString(req.CollectedData)
	if err != nil {
		return "", err
	}
	sections := []string{
		fmt.Sprintf("# Current Date:\n%s", time.Now().Format(time.RFC3339)),
		fmt.Sprintf("# Collected data JSON:\n```json\n%s\n```", dataJSON),
	}
	if req.Status != "" {
		sections = append(sections, fmt.Sprintf("# Current Status:\n%s", req.Status))
	}
	if req.Locale != "" {
		sections = append(sections, fmt.Sprintf("# Reply Language:\n%s", req.Locale))
	}
	if s := formatCurrentFieldSection(req.CurrentField); s != "" {
		sections = append(sections, s)
	}
	if s := formatFieldsSection("Missing required fields", req.MissingFields); s != "" {
		sections = append(sections, s)
	}
	if s := formatErrorsSection(req.Errors); s != "" {
		sections = append(sections, s)
	}
	if s := formatHistorySection(req.History, 10); s != "" {
		sections = append(sections, s)
	}
	if req.MessagePair.Question != "" || req.MessagePair.Answer != "" {
		sections = append(sections, "# Latest Dialogue:")
		if req.MessagePair.Question != "" {
			sections = append(sections, fmt.Sprintf("## Assistant Question:\n%s", req.MessagePair.Question))
		}
		if req.MessagePair.Answer != "" {
			sections = append(sections, fmt.Sprintf("## User Answer:\n%s", req.MessagePair.Answer))
		}
	}
	return strings.Join(sections, "\n\n"), nil
}

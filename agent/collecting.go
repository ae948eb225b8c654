package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tbxark/collectagent/dialogue"
	"github.com/tbxark/collectagent/extract"
	"github.com/tbxark/collectagent/intent"
	"github.com/tbxark/collectagent/patch"
	"github.com/tbxark/collectagent/types"
	"github.com/tbxark/collectagent/validate"
)

func (c *Collector) handleCollecting(ctx context.Context, cfg *types.CollectionConfig, state *SessionState, message string) (*Response, error) {
	req := c.turnRequest(cfg, state, message)

	// A pending suggestion list lets the user answer with a number or a
	// close match instead of typing the value out.
	if state.LastSuggestions != nil && state.LastSuggestions.Field == state.CurrentField {
		if value, ok := resolveSuggestion(state.LastSuggestions.Values, message); ok {
			if field := cfg.Field(state.CurrentField); field != nil {
				if errs := c.validateAndStore(state, field, value); len(errs) > 0 {
					return c.respondErrors(ctx, cfg, state, field, errs), nil
				}
				return c.afterStore(ctx, cfg, state, ""), nil
			}
		}
	}

	rejected, err := c.rejection.DetectRejection(ctx, message)
	if err != nil {
		rejected = false
	}
	if rejected && len(state.CollectedData) > 0 {
		return c.handleModificationIntent(ctx, cfg, state, req)
	}

	if state.CurrentField == "" {
		return c.afterStore(ctx, cfg, state, ""), nil
	}
	field := cfg.Field(state.CurrentField)
	if field == nil {
		state.CurrentField = state.nextField(cfg)
		return c.afterStore(ctx, cfg, state, ""), nil
	}

	result, err := c.classifier.Classify(ctx, req)
	if err != nil || result == nil {
		result = intent.Fallback(message)
	}

	switch result.Intent {
	case intent.Question:
		return c.respond(cfg, state, c.compose(ctx, req, dialogue.PurposeAnswer)), nil

	case intent.Suggest:
		text := c.compose(ctx, req, dialogue.PurposeSuggest)
		if values := dialogue.ParseSuggestions(text); len(values) > 0 {
			state.LastSuggestions = &Suggestions{Field: state.CurrentField, Values: values}
		}
		return c.respond(cfg, state, text), nil

	case intent.Skip:
		if field.Required() {
			msg := fmt.Sprintf("I can't skip %s, it's required. %s",
				strings.ReplaceAll(field.Name, "_", " "),
				c.compose(ctx, req, dialogue.PurposePrompt))
			return c.respond(cfg, state, msg), nil
		}
		state.MarkSkipped(field.Name)
		return c.afterStore(ctx, cfg, state, ""), nil
	}

	// ProvideValue and Unclear both go through the full extraction
	// pipeline. Dialogue is generated once per turn and reused as the
	// next prompt so a single model call serves both extraction and
	// response text.
	generated := c.compose(ctx, req, dialogue.PurposePrompt)
	if extract.HasCancellationSignal(generated) {
		return c.cancelInPlace(cfg, state)
	}
	visible := extract.StripControlTokens(generated)

	if cand, ok := extract.Extract(extract.Input{
		Req:       req,
		Generated: generated,
		Intent:    result,
		Rejection: rejected,
	}); ok {
		if target := cfg.Field(cand.Field); target != nil {
			if errs := c.validateAndStore(state, target, cand.Value); len(errs) > 0 {
				return c.respondErrors(ctx, cfg, state, target, errs), nil
			}
			// Generated text only already covers the transition when the
			// model acknowledged the capture with a marker; otherwise the
			// next prompt is composed fresh against the updated state.
			preferred := ""
			if cand.Source == extract.SourceMarker || cand.Source == extract.SourceSummary {
				preferred = visible
			}
			return c.afterStore(ctx, cfg, state, preferred), nil
		}
	}

	if extract.HasCompletionSignal(generated) {
		// The model declared collection finished. Unanswered optional
		// fields are treated as skipped; missing required fields fail
		// revalidation and revert to collecting with structured errors.
		for i := range cfg.Fields {
			f := &cfg.Fields[i]
			if !f.Required() && !state.FieldSatisfied(f.Name) {
				state.MarkSkipped(f.Name)
			}
		}
		if state.nextField(cfg) != "" {
			return c.complete(ctx, cfg, state)
		}
		return c.afterStore(ctx, cfg, state, visible), nil
	}
	if visible == "" {
		visible = c.localPrompt(ctx, req)
	}
	return c.respond(cfg, state, visible), nil
}

// cancelInPlace marks the session cancelled without persisting; the caller
// in ProcessMessage persists afterwards.
func (c *Collector) cancelInPlace(cfg *types.CollectionConfig, state *SessionState) (*Response, error) {
	state.Status = types.StatusCancelled
	message := cfg.CancelMessage
	if message == "" {
		message = defaultCancelMessage
	}
	return c.respond(cfg, state, message), nil
}

func (c *Collector) localPrompt(ctx context.Context, req *types.TurnRequest) string {
	text, _ := dialogue.NewLocalGenerator().Generate(ctx, &dialogue.Request{TurnRequest: req, Purpose: dialogue.PurposePrompt})
	return text
}

// validateAndStore is the single write path for field values: every value,
// whatever its source, is validated, coerced, and applied through a patch
// operation. On failure the errors are recorded and nothing is written.
func (c *Collector) validateAndStore(state *SessionState, field *types.Field, raw string) []types.ValidationError {
	if errs := validate.Validate(field, raw); len(errs) > 0 {
		if state.ValidationErrors == nil {
			state.ValidationErrors = map[string][]types.ValidationError{}
		}
		state.ValidationErrors[field.Name] = errs
		return errs
	}
	value := validate.Coerce(field, raw)
	data, err := patch.Apply(state.CollectedData, []patch.Operation{patch.SetOp(field.Name, value)})
	if err != nil {
		return []types.ValidationError{{
			Field:   field.Name,
			Rule:    "store",
			Message: "could not record the value, please try again",
		}}
	}
	state.CollectedData = data
	delete(state.ValidationErrors, field.Name)
	state.LastSuggestions = nil
	return nil
}

// afterStore advances the session after a successful write, skip, or
// no-op: pick the next field, or move to confirmation or completion when
// nothing remains. preferredText, when non-empty, is reused as the
// response so the turn needs no second generation.
func (c *Collector) afterStore(ctx context.Context, cfg *types.CollectionConfig, state *SessionState, preferredText string) *Response {
	next := state.nextField(cfg)
	if next == "" {
		if cfg.ConfirmBeforeComplete {
			state.Status = types.StatusConfirming
			state.CurrentField = ""
			return c.respond(cfg, state, c.confirmationText(ctx, cfg, state, ""))
		}
		resp, err := c.complete(ctx, cfg, state)
		if err != nil {
			return c.respond(cfg, state, "Something went wrong while finishing, please try again.")
		}
		return resp
	}
	state.CurrentField = next
	if preferredText != "" {
		return c.respond(cfg, state, preferredText)
	}
	req := c.turnRequest(cfg, state, "")
	return c.respond(cfg, state, c.compose(ctx, req, dialogue.PurposePrompt))
}

// confirmationText renders the collected-data summary, appending an action
// preview when the config asks for one.
func (c *Collector) confirmationText(ctx context.Context, cfg *types.CollectionConfig, state *SessionState, lead string) string {
	req := c.turnRequest(cfg, state, "")
	summary := c.compose(ctx, req, dialogue.PurposeSummary)
	if cfg.ActionSummaryPrompt != "" {
		if preview := c.compose(ctx, req, dialogue.PurposeActionPreview); preview != "" {
			summary = summary + "\n\n" + preview
		}
	}
	if lead != "" {
		return lead + "\n\n" + summary
	}
	return summary
}

func (c *Collector) respondErrors(ctx context.Context, cfg *types.CollectionConfig, state *SessionState, field *types.Field, errs []types.ValidationError) *Response {
	req := c.turnRequest(cfg, state, "")
	msg := validationText(field, errs) + " " + c.compose(ctx, req, dialogue.PurposePrompt)
	resp := c.respond(cfg, state, msg)
	resp.Success = false
	return resp
}

// handleModificationIntent reacts to "actually, change X" while still
// collecting: with enhancement enabled and data on hand the session moves
// to enhancing targeted at the detected field, otherwise the current
// prompt is repeated.
func (c *Collector) handleModificationIntent(ctx context.Context, cfg *types.CollectionConfig, state *SessionState, req *types.TurnRequest) (*Response, error) {
	if cfg.AllowEnhancement && len(state.CollectedData) > 0 {
		state.Status = types.StatusEnhancing
		if target, err := c.target.DetectTarget(ctx, req); err == nil && target != "" {
			state.Metadata.PendingField = target
			msg := fmt.Sprintf("Sure, what should %s be instead?", strings.ReplaceAll(target, "_", " "))
			return c.respond(cfg, state, msg), nil
		}
		return c.respond(cfg, state, "Sure, which field would you like to change?"), nil
	}
	return c.respond(cfg, state, c.compose(ctx, req, dialogue.PurposePrompt)), nil
}

// resolveSuggestion maps a user reply onto a pending suggestion list by
// index ("2"), exact match, or unique substring match.
func resolveSuggestion(values []string, message string) (string, bool) {
	trimmed := strings.TrimSpace(message)
	trimmed = strings.TrimRight(trimmed, ".!")
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(values) {
			return values[n-1], true
		}
		return "", false
	}
	lower := strings.ToLower(trimmed)
	var match string
	for _, v := range values {
		lv := strings.ToLower(v)
		if lv == lower {
			return v, true
		}
		if strings.Contains(lv, lower) || strings.Contains(lower, lv) {
			if match != "" {
				return "", false
			}
			match = v
		}
	}
	if match != "" && len(lower) >= 3 {
		return match, true
	}
	return "", false
}
